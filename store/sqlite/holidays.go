package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/kpi-engine/calendar"
)

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// SaveHoliday saves a holiday to the database. A holiday with the same
// project, date and name already on file is updated in place and keeps its
// ID; the returned holiday carries the stored ID either way.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, project_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, date, name) DO UPDATE SET
			recurring = excluded.recurring
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		h.ID,
		h.ProjectID,
		h.Date.String(),
		h.Name,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&h.ID)
	if err != nil {
		return calendar.Holiday{}, fmt.Errorf("failed to save holiday: %w", err)
	}
	return h, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	return err
}

// IsHoliday checks project-specific and global holidays. Lookup failures
// count as working days so that generation degrades rather than stalls.
func (s *Store) IsHoliday(projectID string, d calendar.Date) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT COUNT(*) FROM holidays
		WHERE (project_id = ? OR project_id = '')
		  AND (
			(recurring = FALSE AND date = ?)
			OR (recurring = TRUE AND strftime('%m-%d', date) = ?)
		  )
	`

	var count int
	err := s.db.QueryRow(query, projectID, d.String(), d.Time().Format("01-02")).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// ListHolidays returns the project's holidays plus global ones.
func (s *Store) ListHolidays(ctx context.Context, projectID string) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, project_id, date, name, recurring
		FROM holidays
		WHERE project_id = ? OR project_id = ''
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &h.ProjectID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = parseDate("holiday date", dateStr); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}
