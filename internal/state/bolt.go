package state

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sentinel/pkg/models"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	// DefaultDBPath is used when no path is configured.
	DefaultDBPath = "./data/sentinel.db"

	transfersBucket = "nativeTransfers"
	alertsBucket    = "alerts"
	progressBucket  = "progress"
)

// BoltStore is the file-backed Repository. A single writer mutex serializes
// updates; bbolt handles read concurrency.
type BoltStore struct {
	db     *bolt.DB
	logger *logrus.Logger
	dbPath string
	mu     sync.Mutex
}

// NewBoltStore opens (or creates) the database and its buckets.
func NewBoltStore(dbPath string, logger *logrus.Logger) (*BoltStore, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{transfersBucket, alertsBucket, progressBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.WithField("path", dbPath).Info("state store initialized")
	return &BoltStore{db: db, logger: logger, dbPath: dbPath}, nil
}

func (s *BoltStore) LoadTransferWindow(ctx context.Context, chainID uint64, victim string) ([]models.TransferRecord, error) {
	victim = models.NormalizeAddress(victim)

	var records []models.TransferRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(transfersBucket)).Get([]byte(scopedKey(chainID, victim)))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &records)
	})
	if err != nil {
		return nil, fmt.Errorf("load transfer window for %s: %w", victim, err)
	}
	return records, nil
}

func (s *BoltStore) SaveTransferWindow(ctx context.Context, chainID uint64, victim string, records []models.TransferRecord) error {
	victim = models.NormalizeAddress(victim)
	key := []byte(scopedKey(chainID, victim))

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket([]byte(transfersBucket)).Delete(key)
		})
	}

	data, err := marshalBounded(records)
	if err != nil {
		return fmt.Errorf("save transfer window for %s: %w", victim, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(transfersBucket)).Put(key, data)
	})
}

// marshalBounded serializes the window, trimming oldest records until the
// payload fits under MaxWindowBytes.
func marshalBounded(records []models.TransferRecord) ([]byte, error) {
	for {
		data, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}
		if len(data) <= MaxWindowBytes || len(records) <= 1 {
			return data, nil
		}
		records = records[len(records)/2:]
	}
}

func (s *BoltStore) Contains(ctx context.Context, collection string, chainID uint64, key string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(alertsBucket)).Get(alertKey(collection, chainID, key)) != nil
		return nil
	})
	return found, err
}

func (s *BoltStore) Add(ctx context.Context, collection string, chainID uint64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(alertsBucket)).Put(alertKey(collection, chainID, key), []byte{1})
	})
}

func alertKey(collection string, chainID uint64, key string) []byte {
	return []byte(fmt.Sprintf("%s/%s", collection, scopedKey(chainID, key)))
}

func (s *BoltStore) LastProcessedBlock(ctx context.Context, chainID uint64) (uint64, bool, error) {
	var (
		block uint64
		ok    bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(progressBucket)).Get(progressKey(chainID))
		if len(data) == 8 {
			block = binary.BigEndian.Uint64(data)
			ok = true
		}
		return nil
	})
	return block, ok, err
}

func (s *BoltStore) SetLastProcessedBlock(ctx context.Context, chainID uint64, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, block)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(progressBucket)).Put(progressKey(chainID), data)
	})
}

func progressKey(chainID uint64) []byte {
	return []byte(scopedKey(chainID, "lastProcessedBlock"))
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		s.logger.Info("closing state store")
		return s.db.Close()
	}
	return nil
}
