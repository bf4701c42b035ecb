package storage

import "errors"

// Common storage errors
var (
	// ErrRecordNotFound indicates that record was not found in storage
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateTransaction indicates that a record with this transaction id already exists
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)
