// Package postgres implements the PostgreSQL persistence layer for the
// progression ledger.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements student.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `user_id, level, is_alumni, alumni_since, teacher_id, tutor_id, created_at, updated_at`

// GetByUserID returns a profile by its owner's user ID.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*student.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM student_profiles WHERE user_id = $1`

	row := r.conn.QueryRow(ctx, query, userID)
	return r.scanProfile(row)
}

// Create persists a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *student.Profile) error {
	query := `
		INSERT INTO student_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		p.UserID,
		p.Level.String(),
		p.IsAlumni,
		nullableTime(p.AlumniSince),
		nullableString(p.TeacherID),
		nullableString(p.TutorID),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("profile", "Create", shared.ErrConflict, "profile already exists", err)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Update persists an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, p *student.Profile) error {
	query := `
		UPDATE student_profiles SET
			level = $1,
			is_alumni = $2,
			alumni_since = $3,
			teacher_id = $4,
			tutor_id = $5,
			updated_at = $6
		WHERE user_id = $7
	`

	tag, err := r.conn.Exec(ctx, query,
		p.Level.String(),
		p.IsAlumni,
		nullableTime(p.AlumniSince),
		nullableString(p.TeacherID),
		nullableString(p.TutorID),
		p.UpdatedAt,
		p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// SetLevel updates only the level column.
func (r *ProfileRepository) SetLevel(ctx context.Context, userID string, level string) error {
	query := `UPDATE student_profiles SET level = $1, updated_at = NOW() WHERE user_id = $2`

	tag, err := r.conn.Exec(ctx, query, level, userID)
	if err != nil {
		return fmt.Errorf("failed to set level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// scanProfile scans one profile row.
func (r *ProfileRepository) scanProfile(row pgx.Row) (*student.Profile, error) {
	var (
		p           student.Profile
		level       string
		alumniSince *time.Time
		teacherID   *string
		tutorID     *string
	)

	err := row.Scan(
		&p.UserID,
		&level,
		&p.IsAlumni,
		&alumniSince,
		&teacherID,
		&tutorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.Level = shared.Level(level)
	if alumniSince != nil {
		p.AlumniSince = *alumniSince
	}
	if teacherID != nil {
		p.TeacherID = *teacherID
	}
	if tutorID != nil {
		p.TutorID = *tutorID
	}
	return &p, nil
}

// nullableString maps empty strings to SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableTime maps zero times to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
