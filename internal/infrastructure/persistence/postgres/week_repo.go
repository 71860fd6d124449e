// Package postgres implements the PostgreSQL persistence layer for the
// progression ledger.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// WeekRepository implements week.Repository for PostgreSQL. The
// uniq_student_week constraint backs the contract that a creation race
// surfaces as shared.ErrWeekNumberTaken.
type WeekRepository struct {
	conn *Connection
}

// NewWeekRepository creates a new WeekRepository.
func NewWeekRepository(conn *Connection) *WeekRepository {
	return &WeekRepository{conn: conn}
}

const weekColumns = `id, student_id, week_number, theme, objectives, is_completed, completed_by, completed_at, created_at, updated_at`

// GetByID returns a week by row ID.
func (r *WeekRepository) GetByID(ctx context.Context, id string) (*week.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM progress_weeks WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanWeek(row)
}

// GetByNumber returns the week at a stored number for a student.
func (r *WeekRepository) GetByNumber(ctx context.Context, studentID string, weekNumber int) (*week.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM progress_weeks WHERE student_id = $1 AND week_number = $2`

	row := r.conn.QueryRow(ctx, query, studentID, weekNumber)
	return r.scanWeek(row)
}

// ListByStudent returns all weeks for a student ordered by week_number, so
// specials sort directly after their base.
func (r *WeekRepository) ListByStudent(ctx context.Context, studentID string) ([]*week.Week, error) {
	query := `
		SELECT ` + weekColumns + `
		FROM progress_weeks
		WHERE student_id = $1
		ORDER BY week_number
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}
	defer rows.Close()

	var weeks []*week.Week
	for rows.Next() {
		w, err := r.scanWeek(rows)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// FirstIncompleteRegular returns the student's current week.
func (r *WeekRepository) FirstIncompleteRegular(ctx context.Context, studentID string) (*week.Week, error) {
	query := `
		SELECT ` + weekColumns + `
		FROM progress_weeks
		WHERE student_id = $1 AND NOT is_completed AND week_number < $2
		ORDER BY week_number
		LIMIT 1
	`

	row := r.conn.QueryRow(ctx, query, studentID, week.SpecialBaseFactor)
	return r.scanWeek(row)
}

// CountSpecials counts weeks in the special range for a base.
func (r *WeekRepository) CountSpecials(ctx context.Context, studentID string, base int) (int, error) {
	low, high := week.SpecialRange(base)
	query := `
		SELECT COUNT(*)
		FROM progress_weeks
		WHERE student_id = $1 AND week_number >= $2 AND week_number < $3
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, studentID, low, high).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count special weeks: %w", err)
	}
	return count, nil
}

// Create persists a new week.
func (r *WeekRepository) Create(ctx context.Context, w *week.Week) error {
	query := `
		INSERT INTO progress_weeks (` + weekColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		w.ID,
		w.StudentID,
		w.WeekNumber,
		w.Theme,
		w.Objectives,
		w.IsCompleted,
		w.CompletedBy,
		w.CompletedAt,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrWeekNumberTaken
		}
		return fmt.Errorf("failed to create week: %w", err)
	}
	return nil
}

// Update persists an existing week.
func (r *WeekRepository) Update(ctx context.Context, w *week.Week) error {
	query := `
		UPDATE progress_weeks SET
			theme = $1,
			objectives = $2,
			is_completed = $3,
			completed_by = $4,
			completed_at = $5,
			updated_at = $6
		WHERE id = $7
	`

	tag, err := r.conn.Exec(ctx, query,
		w.Theme,
		w.Objectives,
		w.IsCompleted,
		w.CompletedBy,
		w.CompletedAt,
		w.UpdatedAt,
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update week: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrWeekNotFound
	}
	return nil
}

// Delete removes a week row by ID. Dependent notes go with it via the
// ON DELETE CASCADE on progress_notes.
func (r *WeekRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM progress_weeks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete week: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrWeekNotFound
	}
	return nil
}

// DeleteByStudent removes every week row for a student.
func (r *WeekRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM progress_weeks WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete weeks: %w", err)
	}
	return nil
}

// scanWeek scans one week row.
func (r *WeekRepository) scanWeek(row pgx.Row) (*week.Week, error) {
	var w week.Week

	err := row.Scan(
		&w.ID,
		&w.StudentID,
		&w.WeekNumber,
		&w.Theme,
		&w.Objectives,
		&w.IsCompleted,
		&w.CompletedBy,
		&w.CompletedAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrWeekNotFound
		}
		return nil, fmt.Errorf("failed to scan week: %w", err)
	}
	return &w, nil
}
