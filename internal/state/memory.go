package state

import (
	"context"
	"sync"

	"sentinel/pkg/models"
)

// MemoryStore is the in-process Repository used by tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	windows  map[string][]models.TransferRecord
	alerts   map[string]struct{}
	progress map[uint64]uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows:  make(map[string][]models.TransferRecord),
		alerts:   make(map[string]struct{}),
		progress: make(map[uint64]uint64),
	}
}

func (s *MemoryStore) LoadTransferWindow(ctx context.Context, chainID uint64, victim string) ([]models.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.windows[scopedKey(chainID, models.NormalizeAddress(victim))]
	out := make([]models.TransferRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) SaveTransferWindow(ctx context.Context, chainID uint64, victim string, records []models.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopedKey(chainID, models.NormalizeAddress(victim))
	if len(records) == 0 {
		delete(s.windows, key)
		return nil
	}
	stored := make([]models.TransferRecord, len(records))
	copy(stored, records)
	s.windows[key] = stored
	return nil
}

func (s *MemoryStore) Contains(ctx context.Context, collection string, chainID uint64, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.alerts[string(alertKey(collection, chainID, key))]
	return ok, nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, chainID uint64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts[string(alertKey(collection, chainID, key))] = struct{}{}
	return nil
}

func (s *MemoryStore) LastProcessedBlock(ctx context.Context, chainID uint64) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, ok := s.progress[chainID]
	return block, ok, nil
}

func (s *MemoryStore) SetLastProcessedBlock(ctx context.Context, chainID uint64, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress[chainID] = block
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
