package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"

	pgutil "github.com/code-payments/code-vault-server/pkg/database/postgres"
)

const (
	tableName = "vault__core_ledgeraccount"
)

type model struct {
	Id            sql.NullInt64 `db:"id"`
	Address       string        `db:"address"`
	Owner         string        `db:"owner"`
	Lamports      int64         `db:"lamports"`
	Data          []byte        `db:"data"`
	Version       int64         `db:"version"`
	LastUpdatedAt time.Time     `db:"last_updated_at"`
}

func toModel(obj *ledger.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address:       obj.Address,
		Owner:         obj.Owner,
		Lamports:      int64(obj.Lamports),
		Data:          data,
		Version:       int64(obj.Version),
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(m *model) *ledger.Record {
	return &ledger.Record{
		Address:       m.Address,
		Owner:         m.Owner,
		Lamports:      uint64(m.Lamports),
		Data:          m.Data,
		Version:       uint64(m.Version),
		LastUpdatedAt: m.LastUpdatedAt.UTC(),
	}
}

// dbSave writes the model within tx and updates its version and timestamp
// from the stored row. A zero version inserts. Any other version updates
// only when it matches the stored row.
func (m *model) dbSave(ctx context.Context, tx *sqlx.Tx, now time.Time) error {
	if m.Version == 0 {
		query := `INSERT INTO ` + tableName + `
			(address, owner, lamports, data, version, last_updated_at)
			VALUES ($1, $2, $3, $4, 1, $5)
			RETURNING id, address, owner, lamports, data, version, last_updated_at`

		err := tx.QueryRowxContext(ctx, query, m.Address, m.Owner, m.Lamports, m.Data, now).StructScan(m)
		return pgutil.CheckUniqueViolation(err, ledger.ErrStaleVersion)
	}

	query := `UPDATE ` + tableName + `
		SET owner = $2, lamports = $3, data = $4, version = version + 1, last_updated_at = $6
		WHERE address = $1 AND version = $5
		RETURNING id, address, owner, lamports, data, version, last_updated_at`

	err := tx.QueryRowxContext(ctx, query, m.Address, m.Owner, m.Lamports, m.Data, m.Version, now).StructScan(m)
	return pgutil.CheckNoRows(err, ledger.ErrStaleVersion)
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT id, address, owner, lamports, data, version, last_updated_at
		FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return res, nil
}

func dbSaveAll(ctx context.Context, db *sqlx.DB, models []*model) error {
	now := time.Now().UTC()
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		for _, m := range models {
			if err := m.dbSave(ctx, tx, now); err != nil {
				return err
			}
		}
		return nil
	})
}
