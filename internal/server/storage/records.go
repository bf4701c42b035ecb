package storage

import (
	"context"
	"time"
)

// Record is a stored entity record
type Record struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Entity        string
	ID            string
	TransactionID string // пусто, если запись не создана транзакцией
	DeviceID      string
	Data          []byte
}

//go:generate moq -out records_mock.go . RecordStorage

// RecordStorage defines interface for entity records persistence
type RecordStorage interface {
	// CreateRecord inserts rec or replaces the record with the same (entity, id).
	// Returns ErrDuplicateTransaction if rec.TransactionID is already used by a record of the entity
	CreateRecord(ctx context.Context, rec *Record) (*Record, error)

	// UpsertRecord creates or replaces the record. The transaction id of an existing record is kept.
	// created reports whether the record did not exist before
	UpsertRecord(ctx context.Context, rec *Record) (stored *Record, created bool, err error)

	// GetRecord retrieves a single record
	// Returns ErrRecordNotFound if record doesn't exist
	GetRecord(ctx context.Context, entity, id string) (*Record, error)

	// DeleteRecord removes the record, reports whether it existed
	DeleteRecord(ctx context.Context, entity, id string) (bool, error)

	// Ping checks that the database is reachable
	Ping(ctx context.Context) error
}
