package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iudanet/possync/internal/server/storage"
)

// CreateRecord inserts a record or replaces the one with the same (entity, id)
func (s *Storage) CreateRecord(ctx context.Context, rec *storage.Record) (*storage.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if rec.TransactionID != "" {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM records WHERE entity = ? AND transaction_id = ?`,
			rec.Entity, rec.TransactionID,
		).Scan(&exists)
		switch {
		case err == nil:
			return nil, storage.ErrDuplicateTransaction
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("failed to check transaction: %w", err)
		}
	}

	stored, _, err := upsert(ctx, tx, rec, true)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stored, nil
}

// UpsertRecord creates or replaces a record
func (s *Storage) UpsertRecord(ctx context.Context, rec *storage.Record) (*storage.Record, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, created, err := upsert(ctx, tx, rec, false)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stored, created, nil
}

// GetRecord retrieves a single record
func (s *Storage) GetRecord(ctx context.Context, entity, id string) (*storage.Record, error) {
	return getRecord(ctx, s.db, entity, id)
}

// DeleteRecord removes a record
func (s *Storage) DeleteRecord(ctx context.Context, entity, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE entity = ? AND id = ?`, entity, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsert(ctx context.Context, tx *sql.Tx, rec *storage.Record, replaceTxn bool) (*storage.Record, bool, error) {
	existing, err := getRecord(ctx, tx, rec.Entity, rec.ID)
	if err != nil && !errors.Is(err, storage.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	stored := *rec
	stored.CreatedAt = now
	stored.UpdatedAt = now
	created := existing == nil

	if existing != nil {
		stored.CreatedAt = existing.CreatedAt
		// обновление не должно терять transaction_id, с которым запись была создана
		if !replaceTxn || stored.TransactionID == "" {
			stored.TransactionID = existing.TransactionID
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (entity, id, transaction_id, device_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity, id) DO UPDATE SET
			transaction_id = excluded.transaction_id,
			device_id      = excluded.device_id,
			data           = excluded.data,
			updated_at     = excluded.updated_at`,
		stored.Entity, stored.ID, nullString(stored.TransactionID), stored.DeviceID,
		stored.Data, stored.CreatedAt.UnixMilli(), stored.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, storage.ErrDuplicateTransaction
		}
		return nil, false, fmt.Errorf("failed to save record: %w", err)
	}

	return &stored, created, nil
}

func getRecord(ctx context.Context, q querier, entity, id string) (*storage.Record, error) {
	var (
		rec       storage.Record
		txn       sql.NullString
		createdAt int64
		updatedAt int64
	)

	err := q.QueryRowContext(ctx, `
		SELECT entity, id, transaction_id, device_id, data, created_at, updated_at
		FROM records WHERE entity = ? AND id = ?`,
		entity, id,
	).Scan(&rec.Entity, &rec.ID, &txn, &rec.DeviceID, &rec.Data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	rec.TransactionID = txn.String
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
