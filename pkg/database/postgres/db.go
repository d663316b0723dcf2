package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ExecuteInTx runs fn within a new DB transaction at the requested isolation
// level. The transaction commits if fn returns nil and rolls back otherwise.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted // Postgres default
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: isolation,
	})
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(tx); err != nil {
		// Rollback is always required so sql.DB releases the connection
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrapf(rollbackErr, "failed to rollback transaction after: %v", err)
		}
		return err
	}

	return tx.Commit()
}
