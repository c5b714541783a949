// Package store persists the FedEx credential record.
package store

import (
	"context"

	"github.com/tournevent/fedexbridge/pkg/shipper"
)

// Store is a credential store that can release its resources.
type Store interface {
	shipper.CredentialStore
	Close() error
}

// Open returns a PostgreSQL store when dsn is set, else an in-memory store.
func Open(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return NewMemoryStore(), nil
	}

	pg, err := NewPostgresStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}
