package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/student"
)

// MarkAlumniCommand moves a student to alumni status. One-way: there is no
// unmark operation. Weeks, notes, and calibration history stay untouched;
// only the staff assignment is cleared.
type MarkAlumniCommand struct {
	// StudentID - the student to transition.
	StudentID string
}

// Validate validates the command.
func (c MarkAlumniCommand) Validate() error {
	if strings.TrimSpace(c.StudentID) == "" {
		return errors.New("mark_alumni: student_id is required")
	}
	return nil
}

// MarkAlumniHandler handles the MarkAlumniCommand.
type MarkAlumniHandler struct {
	profileRepo student.Repository
	publisher   shared.EventPublisher
}

// NewMarkAlumniHandler creates a new MarkAlumniHandler.
func NewMarkAlumniHandler(profileRepo student.Repository, publisher shared.EventPublisher) *MarkAlumniHandler {
	return &MarkAlumniHandler{
		profileRepo: profileRepo,
		publisher:   publisher,
	}
}

// Handle executes the command.
func (h *MarkAlumniHandler) Handle(ctx context.Context, cmd MarkAlumniCommand) (*student.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("mark_alumni: validation failed: %w", err)
	}

	p, err := h.profileRepo.GetByUserID(ctx, cmd.StudentID)
	if err != nil {
		return nil, err
	}

	p.MarkAlumni()
	if err := h.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewAlumniMarkedEvent(p.UserID, p.AlumniSince))

	return p, nil
}
