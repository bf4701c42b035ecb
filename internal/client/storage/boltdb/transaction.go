package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// SaveTransaction stores or overwrites a submitted transaction record
func (s *Storage) SaveTransaction(ctx context.Context, rec *models.TransactionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketTransactions).Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		return nil
	})
}

// GetTransaction retrieves a submitted transaction record
func (s *Storage) GetTransaction(ctx context.Context, id models.TransactionID) (*models.TransactionRecord, error) {
	var rec *models.TransactionRecord

	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTransactions).Get([]byte(id))
		if data == nil {
			return storage.ErrTransactionNotFound
		}
		rec = &models.TransactionRecord{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to unmarshal transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// DeleteTransaction removes a transaction record, no-op if absent
func (s *Storage) DeleteTransaction(ctx context.Context, id models.TransactionID) error {
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTransactions).Delete([]byte(id))
	})
}

// DeleteTransactionsBefore removes records submitted before cutoff
func (s *Storage) DeleteTransactionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var removed int

	err := s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTransactions)

		// собираем ключи, удалять внутри ForEach нельзя
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var rec models.TransactionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				// битая запись не несет полезной информации
				expired = append(expired, append([]byte(nil), k...))
				return nil
			}
			if rec.SubmittedAt.Before(cutoff) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sweep transactions: %w", err)
	}

	return removed, nil
}
