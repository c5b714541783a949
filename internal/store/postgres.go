package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/tournevent/fedexbridge/pkg/shipper"
)

const schema = `
CREATE TABLE IF NOT EXISTS fedex_setting (
    id text NOT NULL PRIMARY KEY,
    is_enabled boolean NOT NULL,
    client_id text NOT NULL,
    client_secret text NOT NULL,
    account_number text NOT NULL,
    is_sandbox boolean NOT NULL,
    enable_logs boolean NOT NULL,
    weight_unit_of_measure text NOT NULL CHECK (weight_unit_of_measure IN ('LB', 'KG')),
    created_at timestamptz NOT NULL DEFAULT now(),
    updated_at timestamptz NOT NULL DEFAULT now(),
    deleted_at timestamptz
)`

// PostgresStore keeps the credential record in the fedex_setting table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens and pings a PostgreSQL connection.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres db: %w", err)
	}
	return NewPostgresStoreWithDB(db), nil
}

// NewPostgresStoreWithDB wraps an existing connection pool.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the fedex_setting table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("db: create fedex_setting: %w", err)
	}
	return nil
}

// Get returns the first live record, or nil when the table is empty.
func (s *PostgresStore) Get(ctx context.Context) (*shipper.Credentials, error) {
	query := `
		SELECT is_enabled, client_id, client_secret, account_number, is_sandbox, enable_logs, weight_unit_of_measure
		FROM fedex_setting
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT 1`

	var c shipper.Credentials
	var unit string
	err := s.db.QueryRowContext(ctx, query).Scan(
		&c.Enabled,
		&c.ClientID,
		&c.ClientSecret,
		&c.AccountNumber,
		&c.SandboxMode,
		&c.LoggingEnabled,
		&unit,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db: fedex setting fetch failed: %w", err)
	}
	c.WeightUnit = shipper.WeightUnit(unit)

	return &c, nil
}

// Upsert updates the first live record, or inserts one when none exists.
func (s *PostgresStore) Upsert(ctx context.Context, creds shipper.Credentials) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("db: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM fedex_setting WHERE deleted_at IS NULL ORDER BY created_at ASC LIMIT 1 FOR UPDATE`,
	).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fedex_setting
				(id, is_enabled, client_id, client_secret, account_number, is_sandbox, enable_logs, weight_unit_of_measure)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New().String(),
			creds.Enabled,
			creds.ClientID,
			creds.ClientSecret,
			creds.AccountNumber,
			creds.SandboxMode,
			creds.LoggingEnabled,
			string(creds.WeightUnit),
		)
		if err != nil {
			return false, fmt.Errorf("db: insert fedex setting: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("db: lock fedex setting: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE fedex_setting
			SET is_enabled = $2, client_id = $3, client_secret = $4, account_number = $5,
			    is_sandbox = $6, enable_logs = $7, weight_unit_of_measure = $8, updated_at = now()
			WHERE id = $1`,
			id,
			creds.Enabled,
			creds.ClientID,
			creds.ClientSecret,
			creds.AccountNumber,
			creds.SandboxMode,
			creds.LoggingEnabled,
			string(creds.WeightUnit),
		)
		if err != nil {
			return false, fmt.Errorf("db: update fedex setting: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("db: commit fedex setting: %w", err)
	}
	return true, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
