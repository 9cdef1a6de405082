package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/ratetable"
)

// Schema creates the rate table storage. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS rate_table_versions (
	version     TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active   BOOLEAN NOT NULL DEFAULT false
);

CREATE UNIQUE INDEX IF NOT EXISTS rate_table_versions_one_active
	ON rate_table_versions (is_active) WHERE is_active;

CREATE TABLE IF NOT EXISTS rate_table_entries (
	version   TEXT NOT NULL REFERENCES rate_table_versions (version) ON DELETE CASCADE,
	table_id  TEXT NOT NULL,
	kind      TEXT NOT NULL,
	key       TEXT NOT NULL,
	sub_key   TEXT NOT NULL DEFAULT '',
	value     NUMERIC(9, 4) NOT NULL CHECK (value >= 0),
	PRIMARY KEY (version, table_id, key, sub_key)
);
`

// ErrVersionExists is returned when saving a version that is already stored.
var ErrVersionExists = errors.New("rate table version already exists")

// RateTableRepository handles rate table database operations.
type RateTableRepository struct {
	db *DB
}

// NewRateTableRepository creates a new rate table repository.
func NewRateTableRepository(db *DB) *RateTableRepository {
	return &RateTableRepository{db: db}
}

// EnsureSchema creates the rate table storage if it is missing.
func (r *RateTableRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create rate table schema: %w", err)
	}
	return nil
}

// LoadActive builds a store from the active version.
func (r *RateTableRepository) LoadActive(ctx context.Context) (*ratetable.Store, error) {
	var version string
	err := r.db.QueryRowContext(ctx,
		"SELECT version FROM rate_table_versions WHERE is_active").Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no active version: %w", models.ErrRateTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active rate table version: %w", err)
	}

	return r.Load(ctx, version)
}

// Load builds a store from a stored version.
func (r *RateTableRepository) Load(ctx context.Context, version string) (*ratetable.Store, error) {
	entries, err := r.Entries(ctx, version)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("version %s: %w", version, models.ErrRateTableNotFound)
	}

	store, err := ratetable.Build(version, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate table %s: %w", version, err)
	}
	return store, nil
}

// Entries returns the rows of a version.
func (r *RateTableRepository) Entries(ctx context.Context, version string) ([]ratetable.Entry, error) {
	query := `
		SELECT table_id, kind, key, sub_key, value::text
		FROM rate_table_entries
		WHERE version = $1
		ORDER BY table_id, key, sub_key`

	rows, err := r.db.QueryContext(ctx, query, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate table entries: %w", err)
	}
	defer rows.Close()

	var entries []ratetable.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate table entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rate table entries: %w", err)
	}

	return entries, nil
}

// SaveVersion stores entries as a new version and optionally makes it the
// active one, all in one transaction.
func (r *RateTableRepository) SaveVersion(ctx context.Context, version, source string, entries []ratetable.Entry, activate bool) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO rate_table_versions (version, source, created_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (version) DO NOTHING`,
			version, source, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to create rate table version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", version, ErrVersionExists)
		}

		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(
				`INSERT INTO rate_table_entries (version, table_id, kind, key, sub_key, value)
				 VALUES ($1, $2, $3, $4, $5, CAST($6::text AS NUMERIC))`,
				version, e.TableID, string(e.Kind), e.Key, e.SubKey, e.Value.String())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert rate table entries: %w", err)
		}

		if activate {
			return activateVersion(ctx, tx, version)
		}
		return nil
	})
}

// Activate makes a stored version the active one.
func (r *RateTableRepository) Activate(ctx context.Context, version string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return activateVersion(ctx, tx, version)
	})
}

// ListVersions returns every stored version, newest first.
func (r *RateTableRepository) ListVersions(ctx context.Context) ([]*models.RateTableVersion, error) {
	query := `
		SELECT v.version, v.source, count(e.key), v.created_at, v.is_active
		FROM rate_table_versions v
		LEFT JOIN rate_table_entries e ON e.version = v.version
		GROUP BY v.version
		ORDER BY v.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate table versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.RateTableVersion
	for rows.Next() {
		var v models.RateTableVersion
		if err := rows.Scan(&v.Version, &v.Source, &v.EntryCount, &v.CreatedAt, &v.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan rate table version: %w", err)
		}
		versions = append(versions, &v)
	}

	return versions, rows.Err()
}

func activateVersion(ctx context.Context, tx pgx.Tx, version string) error {
	if _, err := tx.Exec(ctx, "UPDATE rate_table_versions SET is_active = false WHERE is_active"); err != nil {
		return fmt.Errorf("failed to deactivate rate table: %w", err)
	}
	tag, err := tx.Exec(ctx, "UPDATE rate_table_versions SET is_active = true WHERE version = $1", version)
	if err != nil {
		return fmt.Errorf("failed to activate rate table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("version %s: %w", version, models.ErrRateTableNotFound)
	}
	return nil
}

// scanEntry scans a row from pgx.Rows into an Entry.
func scanEntry(rows pgx.Rows) (ratetable.Entry, error) {
	var entry ratetable.Entry
	var kind, value string

	if err := rows.Scan(&entry.TableID, &kind, &entry.Key, &entry.SubKey, &value); err != nil {
		return ratetable.Entry{}, err
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		return ratetable.Entry{}, fmt.Errorf("value %q: %w", value, err)
	}
	entry.Kind = ratetable.TableKind(kind)
	entry.Value = v

	return entry, nil
}
