package storage

import "errors"

// Common client storage errors
var (
	// ErrItemNotFound indicates that queue item was not found
	ErrItemNotFound = errors.New("queue item not found")

	// ErrDeadLetterNotFound indicates that dead letter was not found
	ErrDeadLetterNotFound = errors.New("dead letter not found")

	// ErrTransactionNotFound indicates that transaction id was never submitted
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSealed indicates that record is encrypted and no key was provided
	ErrSealed = errors.New("record is sealed, encryption passphrase required")
)
