package query

import (
	"context"
	"errors"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/student"
)

// GetProfileQuery returns the progression-facing profile for a student.
type GetProfileQuery struct {
	// StudentID - the profile owner.
	StudentID string
}

// Validate validates the query.
func (q GetProfileQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return errors.New("get_profile: student_id is required")
	}
	return nil
}

// GetProfileHandler handles the GetProfileQuery.
type GetProfileHandler struct {
	profileRepo student.Repository
}

// NewGetProfileHandler creates a new GetProfileHandler.
func NewGetProfileHandler(profileRepo student.Repository) *GetProfileHandler {
	return &GetProfileHandler{profileRepo: profileRepo}
}

// Handle executes the query.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*student.Profile, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return h.profileRepo.GetByUserID(ctx, q.StudentID)
}
