package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/crypto"
)

var (
	// BoltDB bucket names
	bucketQueue        = []byte("queue")
	bucketDeadLetters  = []byte("dead_letters")
	bucketTransactions = []byte("transactions")
	bucketMetadata     = []byte("metadata")

	// ключи служебных значений в bucketMetadata
	keySalt        = []byte("seal_salt")
	keyFingerprint = []byte("seal_key_fingerprint")
)

// ErrInvalidPassphrase возвращается, если парольная фраза не совпадает с той,
// которой были запечатаны записи
var ErrInvalidPassphrase = errors.New("invalid encryption passphrase")

var (
	_ storage.QueueStorage       = (*Storage)(nil)
	_ storage.TransactionStorage = (*Storage)(nil)
	_ storage.MetadataStorage    = (*Storage)(nil)
)

// Storage represents BoltDB storage implementation for client.
// Implements storage.QueueStorage, storage.TransactionStorage and storage.MetadataStorage.
type Storage struct {
	db     *bbolt.DB
	sealer *crypto.Sealer
	mu     sync.RWMutex
}

// Option настраивает Storage при открытии
type Option func(*options)

type options struct {
	passphrase string
	timeout    time.Duration
}

// WithPassphrase включает шифрование записей очереди ключом, выведенным из парольной фразы
func WithPassphrase(passphrase string) Option {
	return func(o *options) { o.passphrase = passphrase }
}

// WithLockTimeout задает время ожидания файловой блокировки БД
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	o := options{timeout: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	// Открываем BoltDB. Таймаут не дает зависнуть, если файл занят другим процессом
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: o.timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	if o.passphrase != "" {
		if err := s.initSealer(o.passphrase); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Sealed reports whether queue records are encrypted at rest
func (s *Storage) Sealed() bool {
	return s.sealer != nil
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketQueue, bucketDeadLetters, bucketTransactions, bucketMetadata} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// initSealer выводит ключ из парольной фразы.
// При первом запуске генерирует соль и сохраняет отпечаток ключа,
// при последующих проверяет, что парольная фраза та же.
func (s *Storage) initSealer(passphrase string) error {
	var salt []byte
	var fingerprint string

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMetadata)
		if v := b.Get(keySalt); v != nil {
			salt = append([]byte(nil), v...)
		}
		fingerprint = string(b.Get(keyFingerprint))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read seal metadata: %w", err)
	}

	fresh := salt == nil
	if fresh {
		if salt, err = crypto.GenerateSalt(); err != nil {
			return err
		}
	}

	key, err := crypto.DeriveKey(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	if fresh {
		fingerprint, err = crypto.Fingerprint(key)
		if err != nil {
			return err
		}
		err = s.db.Update(func(tx *bbolt.Tx) error {
			b := tx.Bucket(bucketMetadata)
			if err := b.Put(keySalt, salt); err != nil {
				return err
			}
			return b.Put(keyFingerprint, []byte(fingerprint))
		})
		if err != nil {
			return fmt.Errorf("failed to save seal metadata: %w", err)
		}
	} else if err := crypto.VerifyFingerprint(key, fingerprint); err != nil {
		return ErrInvalidPassphrase
	}

	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return err
	}
	s.sealer = sealer
	return nil
}

// view выполняет read-only транзакцию, если хранилище открыто
func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(fn)
}

// update выполняет read-write транзакцию, если хранилище открыто
func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(fn)
}

// encode сериализует значение и при необходимости запечатывает его,
// привязывая шифртекст к ключу записи
func (s *Storage) encode(key []byte, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if s.sealer == nil {
		return data, nil
	}
	return s.sealer.Seal(data, key)
}

// decode обратная операция к encode
func (s *Storage) decode(key, data []byte, v any) error {
	if crypto.IsSealed(data) {
		if s.sealer == nil {
			return storage.ErrSealed
		}
		plain, err := s.sealer.Open(data, key)
		if err != nil {
			return err
		}
		data = plain
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return nil
}
