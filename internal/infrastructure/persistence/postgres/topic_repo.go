// Package postgres implements the PostgreSQL persistence layer for the
// progression ledger.
package postgres

import (
	"context"
	"fmt"

	"github.com/linguahub/progression-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOPIC CATALOG AND CALIBRATION IMPLEMENTATION
// Both tables are owned by external tools; this core only reads the catalog,
// reads calibration rows, and wipes them on reassignment.
// ══════════════════════════════════════════════════════════════════════════════

// TopicCatalog implements topic.Catalog for PostgreSQL.
type TopicCatalog struct {
	conn *Connection
}

// NewTopicCatalog creates a new TopicCatalog.
func NewTopicCatalog(conn *Connection) *TopicCatalog {
	return &TopicCatalog{conn: conn}
}

// TopicsForWeek returns the catalog topics for a regular week slot.
func (c *TopicCatalog) TopicsForWeek(ctx context.Context, weekNumber int) ([]topic.CatalogTopic, error) {
	query := `
		SELECT id, week_number, title
		FROM curriculum_topics
		WHERE week_number = $1
		ORDER BY title
	`

	rows, err := c.conn.Query(ctx, query, weekNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog topics: %w", err)
	}
	defer rows.Close()

	var topics []topic.CatalogTopic
	for rows.Next() {
		var t topic.CatalogTopic
		if err := rows.Scan(&t.ID, &t.WeekNumber, &t.Title); err != nil {
			return nil, fmt.Errorf("failed to scan catalog topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// TopicProgressRepository implements topic.ProgressRepository for PostgreSQL.
type TopicProgressRepository struct {
	conn *Connection
}

// NewTopicProgressRepository creates a new TopicProgressRepository.
func NewTopicProgressRepository(conn *Connection) *TopicProgressRepository {
	return &TopicProgressRepository{conn: conn}
}

// ListByStudent returns every calibration row for a student.
func (r *TopicProgressRepository) ListByStudent(ctx context.Context, studentID string) ([]topic.Progress, error) {
	query := `
		SELECT student_id, topic_id, color
		FROM topic_progress
		WHERE student_id = $1
	`

	rows, err := r.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibration rows: %w", err)
	}
	defer rows.Close()

	var progress []topic.Progress
	for rows.Next() {
		var p topic.Progress
		var color string
		if err := rows.Scan(&p.StudentID, &p.TopicID, &color); err != nil {
			return nil, fmt.Errorf("failed to scan calibration row: %w", err)
		}
		p.Color = topic.Color(color)
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// DeleteByStudent removes every calibration row for a student.
func (r *TopicProgressRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM topic_progress WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete calibration rows: %w", err)
	}
	return nil
}
