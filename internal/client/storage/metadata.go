package storage

import "context"

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastSyncTimestamp saves the unix time of the last drain pass that delivered everything
	SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error

	// GetLastSyncTimestamp retrieves the timestamp of the last complete drain pass
	// Returns 0 if no drain has completed yet
	GetLastSyncTimestamp(ctx context.Context) (int64, error)
}
