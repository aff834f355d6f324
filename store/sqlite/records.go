package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/kpi-engine/kpi"
)

// ErrDuplicatePlannedDay is returned when two planned records share a day.
var ErrDuplicatePlannedDay = errors.New("duplicate planned record on same day")

// =============================================================================
// ACTIVITIES
// =============================================================================

// SaveActivity inserts or updates an activity.
func (s *Store) SaveActivity(ctx context.Context, a kpi.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return upsertActivity(ctx, s.db, a)
}

func upsertActivity(ctx context.Context, db execer, a kpi.Activity) error {
	query := `
		INSERT INTO activities (id, project_id, code, description, unit, planned_units, rate,
		                        planned_start, planned_end, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			code = excluded.code,
			description = excluded.description,
			unit = excluded.unit,
			planned_units = excluded.planned_units,
			rate = excluded.rate,
			planned_start = excluded.planned_start,
			planned_end = excluded.planned_end,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		a.ID,
		a.ProjectID,
		a.Code,
		a.Description,
		a.Unit,
		a.PlannedUnits.String(),
		a.Rate.String(),
		a.PlannedStart.String(),
		a.PlannedEnd.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// GetActivity returns kpi.ErrActivityNotFound for unknown ids.
func (s *Store) GetActivity(ctx context.Context, id string) (kpi.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, project_id, code, description, unit, planned_units, rate, planned_start, planned_end
		FROM activities WHERE id = ?
	`

	var (
		a                        kpi.Activity
		units, rate              string
		plannedStart, plannedEnd string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ProjectID, &a.Code, &a.Description, &a.Unit,
		&units, &rate, &plannedStart, &plannedEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return kpi.Activity{}, kpi.ErrActivityNotFound
	}
	if err != nil {
		return kpi.Activity{}, fmt.Errorf("failed to get activity: %w", err)
	}

	if a.PlannedUnits, err = parseDecimal("planned_units", units); err != nil {
		return kpi.Activity{}, err
	}
	if a.Rate, err = parseDecimal("rate", rate); err != nil {
		return kpi.Activity{}, err
	}
	if a.PlannedStart, err = parseDate("planned_start", plannedStart); err != nil {
		return kpi.Activity{}, err
	}
	if a.PlannedEnd, err = parseDate("planned_end", plannedEnd); err != nil {
		return kpi.Activity{}, err
	}
	return a, nil
}

// =============================================================================
// KPI RECORDS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecord(ctx context.Context, db execer, r kpi.Record) error {
	query := `
		INSERT INTO kpi_records (id, activity_id, project_id, date, kind, quantity, unit, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		r.ID,
		r.ActivityID,
		r.ProjectID,
		r.Date.String(),
		r.Kind,
		r.Quantity.String(),
		r.Unit,
		nullString(r.Note),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) && r.Kind == kpi.KindPlanned {
			return fmt.Errorf("%w: %s", ErrDuplicatePlannedDay, r.Date)
		}
		return fmt.Errorf("failed to insert kpi record: %w", err)
	}
	return nil
}

// ReplacePlanned swaps the planned records of an activity in one transaction.
func (s *Store) ReplacePlanned(ctx context.Context, activityID string, records []kpi.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := replacePlanned(ctx, sqlTx, activityID, records); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// SavePlan upserts the activity and swaps its planned records in one
// transaction, so the stored plan always sums to the stored planned units.
func (s *Store) SavePlan(ctx context.Context, a kpi.Activity, planned []kpi.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := upsertActivity(ctx, sqlTx, a); err != nil {
		return err
	}
	if err := replacePlanned(ctx, sqlTx, a.ID, planned); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func replacePlanned(ctx context.Context, tx *sql.Tx, activityID string, records []kpi.Record) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM kpi_records WHERE activity_id = ? AND kind = 'planned'", activityID,
	); err != nil {
		return fmt.Errorf("failed to clear planned records: %w", err)
	}

	for _, r := range records {
		if r.ActivityID != activityID || r.Kind != kpi.KindPlanned {
			return fmt.Errorf("record %s does not belong to planned set of %s", r.ID, activityID)
		}
		if err := insertRecord(ctx, tx, r); err != nil {
			return err
		}
	}
	return nil
}

// AppendActual adds one actual record.
func (s *Store) AppendActual(ctx context.Context, r kpi.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Kind != kpi.KindActual {
		return fmt.Errorf("record %s has kind %q, want actual", r.ID, r.Kind)
	}
	return insertRecord(ctx, s.db, r)
}

// ListRecords returns records ordered by date, planned before actual.
func (s *Store) ListRecords(ctx context.Context, activityID string, kind kpi.Kind) ([]kpi.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, activity_id, project_id, date, kind, quantity, unit, note, created_at
		FROM kpi_records
		WHERE activity_id = ? AND (? = '' OR kind = ?)
		ORDER BY date ASC, kind DESC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, activityID, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query kpi records: %w", err)
	}
	defer rows.Close()

	var records []kpi.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (kpi.Record, error) {
	var (
		r                    kpi.Record
		date, qty, createdAt string
		note                 sql.NullString
	)

	if err := rows.Scan(&r.ID, &r.ActivityID, &r.ProjectID, &date, &r.Kind, &qty, &r.Unit, &note, &createdAt); err != nil {
		return r, fmt.Errorf("failed to scan kpi record: %w", err)
	}

	var err error
	if r.Date, err = parseDate("date", date); err != nil {
		return r, err
	}
	if r.Quantity, err = parseDecimal("quantity", qty); err != nil {
		return r, err
	}
	r.Note = note.String
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return r, fmt.Errorf("corrupt created_at %q: %w", createdAt, err)
	}
	return r, nil
}
