// Package ledger persists committed account state for the vault runtime.
package ledger

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound = errors.New("ledger account not found")
	ErrStaleVersion    = errors.New("ledger account version is stale")
	ErrInvalidRecord   = errors.New("ledger account record is invalid")
)

type Store interface {
	// Get returns the committed state of the account at address.
	//
	// Returns ErrAccountNotFound if the account has never been saved.
	Get(ctx context.Context, address string) (*Record, error)

	// SaveAll atomically creates or updates every record. Either all records
	// are written or none are.
	//
	// A record with Version 0 is created and must not already exist. Any other
	// record must match the stored version. A mismatch on any record returns
	// ErrStaleVersion. On success each record's Version and LastUpdatedAt are
	// updated in place.
	SaveAll(ctx context.Context, records ...*Record) error
}
