// Package postgres implements the PostgreSQL persistence layer for the
// progression ledger.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NoteRepository implements note.Repository for PostgreSQL. The uniq_week_day
// constraint plus ON CONFLICT turns a double-submit into an update.
type NoteRepository struct {
	conn *Connection
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(conn *Connection) *NoteRepository {
	return &NoteRepository{conn: conn}
}

const noteColumns = `id, week_id, day_type, class_topics, tutoring_topics, vocabulary, achievements, challenges, created_by, created_at, updated_at`

// dayOrderSQL fixes the Tue->Fri order the PDF export depends on.
const dayOrderSQL = `
	CASE day_type
		WHEN 'tuesday' THEN 1
		WHEN 'wednesday' THEN 2
		WHEN 'thursday' THEN 3
		WHEN 'friday' THEN 4
	END
`

// Get returns the note for a week/day pair.
func (r *NoteRepository) Get(ctx context.Context, weekID string, day shared.DayType) (*note.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM progress_notes WHERE week_id = $1 AND day_type = $2`

	row := r.conn.QueryRow(ctx, query, weekID, day.String())
	return r.scanNote(row)
}

// ListByWeek returns all notes for a week in fixed Tue->Fri order.
func (r *NoteRepository) ListByWeek(ctx context.Context, weekID string) ([]*note.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM progress_notes
		WHERE week_id = $1
		ORDER BY ` + dayOrderSQL

	rows, err := r.conn.Query(ctx, query, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*note.Note
	for rows.Next() {
		n, err := r.scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Upsert inserts the note or updates the existing (week_id, day_type) row.
// created_by and created_at stay from the first write.
func (r *NoteRepository) Upsert(ctx context.Context, n *note.Note) error {
	query := `
		INSERT INTO progress_notes (` + noteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (week_id, day_type) DO UPDATE SET
			class_topics = EXCLUDED.class_topics,
			tutoring_topics = EXCLUDED.tutoring_topics,
			vocabulary = EXCLUDED.vocabulary,
			achievements = EXCLUDED.achievements,
			challenges = EXCLUDED.challenges,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		n.ID,
		n.WeekID,
		n.DayType.String(),
		n.ClassTopics,
		n.TutoringTopics,
		n.Vocabulary,
		n.Achievements,
		n.Challenges,
		n.CreatedBy,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

// DeleteByWeek removes all notes for one week.
func (r *NoteRepository) DeleteByWeek(ctx context.Context, weekID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM progress_notes WHERE week_id = $1`, weekID)
	if err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	return nil
}

// DeleteByStudent removes all notes across all of a student's weeks.
func (r *NoteRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	query := `
		DELETE FROM progress_notes
		WHERE week_id IN (SELECT id FROM progress_weeks WHERE student_id = $1)
	`

	_, err := r.conn.Exec(ctx, query, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	return nil
}

// scanNote scans one note row.
func (r *NoteRepository) scanNote(row pgx.Row) (*note.Note, error) {
	var (
		n   note.Note
		day string
	)

	err := row.Scan(
		&n.ID,
		&n.WeekID,
		&day,
		&n.ClassTopics,
		&n.TutoringTopics,
		&n.Vocabulary,
		&n.Achievements,
		&n.Challenges,
		&n.CreatedBy,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}

	n.DayType = shared.DayType(day)
	return &n, nil
}
