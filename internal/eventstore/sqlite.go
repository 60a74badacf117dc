package eventstore

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS ledger (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id   TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	slug       TEXT,
	recorded   INTEGER NOT NULL,
	payload    BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS ledger_build ON ledger(build_id, seq);
CREATE INDEX IF NOT EXISTS ledger_slug ON ledger(slug, seq);
CREATE INDEX IF NOT EXISTS ledger_recorded ON ledger(recorded);
`

const selectEvents = `SELECT seq, build_id, kind, COALESCE(slug, ''), recorded, payload FROM ledger`

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the ledger at path.
// Use ":memory:" for an in-memory ledger.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ErrDatabaseOpenFailed.WithCause(err).WithContext("path", path)
	}
	// A single connection keeps ":memory:" shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(ledgerSchema); err != nil {
		_ = db.Close()
		return nil, ErrInitializeSchemaFailed.WithCause(err).WithContext("path", path)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	var slug any
	if e.Slug != "" {
		slug = e.Slug
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger (build_id, kind, slug, recorded, payload) VALUES (?, ?, ?, ?, ?)`,
		e.BuildID, e.Type, slug, s.now().UnixMilli(), []byte(e.Payload),
	)
	if err != nil {
		return ErrEventAppendFailed.WithCause(err).WithContext("event_type", e.Type)
	}
	return nil
}

func (s *SQLiteStore) Build(ctx context.Context, buildID string) ([]Event, error) {
	return s.query(ctx, selectEvents+` WHERE build_id = ? ORDER BY seq`, buildID)
}

func (s *SQLiteStore) Since(ctx context.Context, t time.Time) ([]Event, error) {
	return s.query(ctx, selectEvents+` WHERE recorded >= ? ORDER BY seq`, t.UnixMilli())
}

func (s *SQLiteStore) PageHistory(ctx context.Context, slug string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, selectEvents+` WHERE slug = ? ORDER BY seq DESC LIMIT ?`, slug, limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ErrEventQueryFailed.WithCause(err)
	}
	defer func() { _ = rows.Close() }()

	events := []Event{}
	for rows.Next() {
		var (
			e       Event
			ms      int64
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Type, &e.Slug, &ms, &payload); err != nil {
			return nil, ErrEventQueryFailed.WithCause(err)
		}
		e.Timestamp = time.UnixMilli(ms)
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrEventQueryFailed.WithCause(err)
	}
	return events, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
