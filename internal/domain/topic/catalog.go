// Package topic holds the read-only calibration view this core consults
// before completing a week. Topic content and calibration colors are owned
// by external collaborators; this core only reads them.
package topic

import (
	"context"
	"strings"
)

// Color is a per-topic mastery indicator set by the calibration tool.
// This core never interprets specific colors - only whether one exists.
type Color string

// IsSet reports whether a calibration color has been recorded.
func (c Color) IsSet() bool {
	return strings.TrimSpace(string(c)) != ""
}

// Progress is one (student, topic) calibration row.
type Progress struct {
	StudentID string
	TopicID   string
	Color     Color
}

// CatalogTopic is a curriculum topic attached to a regular week slot.
type CatalogTopic struct {
	ID         string
	WeekNumber int
	Title      string
}

// Catalog exposes the external curriculum week/topic catalog.
type Catalog interface {
	// TopicsForWeek returns the catalog topics for a regular week slot.
	TopicsForWeek(ctx context.Context, weekNumber int) ([]CatalogTopic, error)
}

// ProgressRepository exposes the external topic_progress table. Reads are
// used by the pre-completion advisory check; the only write this core ever
// performs is the full per-student wipe during reassignment.
type ProgressRepository interface {
	// ListByStudent returns every calibration row for a student.
	ListByStudent(ctx context.Context, studentID string) ([]Progress, error)

	// DeleteByStudent removes every calibration row for a student
	// (reassignment wipe with delete_progress=true).
	DeleteByStudent(ctx context.Context, studentID string) error
}

// Uncalibrated returns the catalog topics that lack a calibration color for
// the student. Purely advisory: the caller surfaces these to the operator,
// who may complete the week anyway or create a reinforcement week first.
func Uncalibrated(topics []CatalogTopic, progress []Progress) []CatalogTopic {
	colored := make(map[string]bool, len(progress))
	for _, p := range progress {
		if p.Color.IsSet() {
			colored[p.TopicID] = true
		}
	}

	var missing []CatalogTopic
	for _, t := range topics {
		if !colored[t.ID] {
			missing = append(missing, t)
		}
	}
	return missing
}
