/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists BOQ activities, their KPI records and the holiday calendar. The
  same schema ports to PostgreSQL with minor dialect changes.

INTERFACES IMPLEMENTED:
  kpi.Store:                Activities and KPI records
  calendar.HolidayCalendar: Holiday lookup for workday enumeration

KEY TABLES:
  activities:   BOQ line items (planned units, rate, planned dates)
  kpi_records:  One row per activity/day/kind
  holidays:     Project-specific and global non-working days

INDEXES:
  - idx_kpi_unique_planned: At most one planned row per activity and day
  - idx_kpi_activity_date:  Record listing (hot path)
  - idx_holidays_project_date: Holiday lookup

PLANNED RECORD REPLACEMENT:
  SavePlan upserts the activity and deletes and re-inserts its planned rows
  inside one SQL transaction under the write lock. Readers never observe a
  half-written plan, and two edits of the same activity serialize as whole
  units: the stored planned units and planned rows come from the same edit.

NUMERIC ENCODING:
  Quantities and rates are decimal strings (shopspring/decimal), never REAL.

USAGE:
  store, err := sqlite.New("./data/kpi.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - kpi/types.go: Store interface
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/calendar"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL DEFAULT '',
		planned_units TEXT NOT NULL,
		rate TEXT NOT NULL,
		planned_start TEXT NOT NULL,
		planned_end TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activities_project
		ON activities(project_id);

	CREATE TABLE IF NOT EXISTS kpi_records (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('planned', 'actual')),
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_kpi_unique_planned
		ON kpi_records(activity_id, date)
		WHERE kind = 'planned';

	CREATE INDEX IF NOT EXISTS idx_kpi_activity_date
		ON kpi_records(activity_id, date, kind);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_project_date
		ON holidays(project_id, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(project_id, date, name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt %s %q: %w", column, value, err)
	}
	return d, nil
}

func parseDate(column, value string) (calendar.Date, error) {
	d, err := calendar.ParseDate(value)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("corrupt %s: %w", column, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
