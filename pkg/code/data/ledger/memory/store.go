package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
)

type store struct {
	mu      sync.RWMutex
	records map[string]*ledger.Record
}

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{
		records: make(map[string]*ledger.Record),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = make(map[string]*ledger.Record)
	s.mu.Unlock()
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.records[address]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// SaveAll implements ledger.Store.SaveAll
func (s *store) SaveAll(_ context.Context, records ...*ledger.Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
		if _, ok := seen[record.Address]; ok {
			return ledger.ErrInvalidRecord
		}
		seen[record.Address] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every version before writing anything
	for _, record := range records {
		existing, ok := s.records[record.Address]
		if record.Version == 0 && ok {
			return ledger.ErrStaleVersion
		}
		if record.Version != 0 && (!ok || existing.Version != record.Version) {
			return ledger.ErrStaleVersion
		}
	}

	now := time.Now()
	for _, record := range records {
		record.Version++
		record.LastUpdatedAt = now

		cloned := record.Clone()
		s.records[record.Address] = &cloned
	}

	return nil
}
