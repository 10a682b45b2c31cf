package internal

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
)

// pgxQuerier is the slice of the pgx pool surface the journal uses; the mock
// pool satisfies it in tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// TypeJournal keeps a durable record of every type-publication decision in
// Postgres. The in-memory registries stay authoritative; the journal exists
// so operators can inspect which types this adapter accepted or rejected
// across restarts. Write failures are logged, never propagated: a journal
// outage must not block type publication.
type TypeJournal struct {
	db    pgxQuerier
	table string
}

// TypeJournalEntry is one recorded decision.
type TypeJournalEntry struct {
	Name        string
	GUID        string
	Category    string
	Version     int64
	Implemented bool
	RecordedAt  time.Time
}

// NewTypeJournal builds a journal over a pgx pool. The table name must be a
// plain SQL identifier.
func NewTypeJournal(db pgxQuerier, table string) (*TypeJournal, error) {
	if table == "" {
		table = "type_records"
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid journal table name %q", table)
	}
	return &TypeJournal{db: db, table: table}, nil
}

// EnsureSchema creates the journal table when missing.
func (j *TypeJournal) EnsureSchema(ctx context.Context) error {
	_, err := j.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name        text PRIMARY KEY,
			guid        text NOT NULL,
			category    text NOT NULL,
			version     bigint NOT NULL,
			implemented boolean NOT NULL,
			recorded_at timestamptz NOT NULL
		)`, j.table))
	if err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

// Record upserts one decision. Failures are logged and swallowed.
func (j *TypeJournal) Record(ctx context.Context, def metabridge.TypeDef, implemented bool) {
	header := def.TypeDefHeaderRef()
	_, err := j.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, guid, category, version, implemented, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			guid = EXCLUDED.guid,
			category = EXCLUDED.category,
			version = EXCLUDED.version,
			implemented = EXCLUDED.implemented,
			recorded_at = EXCLUDED.recorded_at`, j.table),
		header.Name, header.GUID, string(def.TypeDefCategory()), header.Version, implemented, time.Now().UTC())
	if err != nil {
		zap.S().Warnw("type journal write failed", "type", header.Name, "err", err)
	}
}

// List returns every recorded decision, newest first.
func (j *TypeJournal) List(ctx context.Context) ([]TypeJournalEntry, error) {
	rows, err := j.db.Query(ctx, fmt.Sprintf(`
		SELECT name, guid, category, version, implemented, recorded_at
		FROM %s ORDER BY recorded_at DESC`, j.table))
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var out []TypeJournalEntry
	for rows.Next() {
		var entry TypeJournalEntry
		if err := rows.Scan(&entry.Name, &entry.GUID, &entry.Category, &entry.Version, &entry.Implemented, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal entries: %w", err)
	}
	return out, nil
}
