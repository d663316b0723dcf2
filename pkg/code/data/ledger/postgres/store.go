package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres backed ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address string) (*ledger.Record, error) {
	m, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(m), nil
}

// SaveAll implements ledger.Store.SaveAll
func (s *store) SaveAll(ctx context.Context, records ...*ledger.Record) error {
	seen := make(map[string]struct{}, len(records))
	models := make([]*model, len(records))
	for i, record := range records {
		m, err := toModel(record)
		if err != nil {
			return err
		}
		if _, ok := seen[record.Address]; ok {
			return ledger.ErrInvalidRecord
		}
		seen[record.Address] = struct{}{}

		models[i] = m
	}

	if err := dbSaveAll(ctx, s.db, models); err != nil {
		return err
	}

	// Only reflect the stored state once the transaction has committed
	for i, m := range models {
		records[i].Version = uint64(m.Version)
		records[i].LastUpdatedAt = m.LastUpdatedAt.UTC()
	}
	return nil
}
