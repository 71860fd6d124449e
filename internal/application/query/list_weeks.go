package query

import (
	"context"
	"errors"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// ListWeeksQuery returns a page of the student's ledger, ordered by stored
// week number so specials sort directly after their base.
type ListWeeksQuery struct {
	// StudentID - the student to look up.
	StudentID string

	// Page and PageSize select the ledger page. Zero values fall back to
	// the shared pagination defaults.
	Page     int
	PageSize int
}

// Validate validates the query.
func (q ListWeeksQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return errors.New("list_weeks: student_id is required")
	}
	return nil
}

// WeekView is a ledger entry decorated with its decoded kind for display.
type WeekView struct {
	*week.Week

	// Label - display label derived from the week number ("Week 2",
	// "Week 2-1+").
	Label string

	// IsSpecialWeek - decoded once so templates don't re-derive it.
	IsSpecialWeek bool
}

// ListWeeksHandler handles the ListWeeksQuery.
type ListWeeksHandler struct {
	weekRepo week.Repository
}

// NewListWeeksHandler creates a new ListWeeksHandler.
func NewListWeeksHandler(weekRepo week.Repository) *ListWeeksHandler {
	return &ListWeeksHandler{weekRepo: weekRepo}
}

// Handle executes the query. An empty ledger returns an empty slice, not an
// error.
func (h *ListWeeksHandler) Handle(ctx context.Context, q ListWeeksQuery) ([]WeekView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	weeks, err := h.weekRepo.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	// Ledgers are small; paging over the loaded slice keeps the repository
	// contract untouched.
	page := shared.NewPagination(q.Page, q.PageSize)
	start := page.Offset()
	if start > len(weeks) {
		start = len(weeks)
	}
	end := start + page.Limit()
	if end > len(weeks) {
		end = len(weeks)
	}
	weeks = weeks[start:end]

	views := make([]WeekView, 0, len(weeks))
	for _, w := range weeks {
		kind := w.Kind()
		views = append(views, WeekView{
			Week:          w,
			Label:         kind.String(),
			IsSpecialWeek: kind.IsSpecial(),
		})
	}
	return views, nil
}
