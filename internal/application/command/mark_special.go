package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
	"github.com/linguahub/progression-hub/pkg/retry"
)

// MarkSpecialCommand completes the given week for reinforcement purposes and
// creates the next special week for its base. It never advances the regular
// completion cascade.
//
// Ordinal allocation is count-based and not serialized: two concurrent calls
// for the same (student, base) can compute the same ordinal. The unique
// (student, week_number) constraint rejects the loser, and the handler
// retries with a re-read ordinal.
type MarkSpecialCommand struct {
	// WeekID - row ID of the week being reinforced.
	WeekID string

	// Actor - who triggered the reinforcement.
	Actor string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c MarkSpecialCommand) Validate() error {
	if strings.TrimSpace(c.WeekID) == "" {
		return errors.New("mark_special: week_id is required")
	}
	if strings.TrimSpace(c.Actor) == "" {
		return errors.New("mark_special: actor is required")
	}
	return nil
}

// MarkSpecialResult contains the result of the reinforcement.
type MarkSpecialResult struct {
	// Week - the week that was completed.
	Week *week.Week

	// SpecialWeek - the newly created reinforcement week.
	SpecialWeek *week.Week

	// Base and Ordinal of the created special week.
	Base    int
	Ordinal int
}

// MarkSpecialHandler handles the MarkSpecialCommand.
type MarkSpecialHandler struct {
	weekRepo  week.Repository
	publisher shared.EventPublisher

	// maxAttempts bounds the conflict retry loop for ordinal races.
	maxAttempts int

	// allowRepeats permits reinforcing a week that is itself special.
	allowRepeats bool
}

// NewMarkSpecialHandler creates a new MarkSpecialHandler.
func NewMarkSpecialHandler(weekRepo week.Repository, publisher shared.EventPublisher) *MarkSpecialHandler {
	return &MarkSpecialHandler{
		weekRepo:     weekRepo,
		publisher:    publisher,
		maxAttempts:  3,
		allowRepeats: true,
	}
}

// SetAllowRepeats toggles reinforcement of special weeks. Bound to the
// special-week repeats feature flag at startup.
func (h *MarkSpecialHandler) SetAllowRepeats(allow bool) {
	h.allowRepeats = allow
}

// Handle executes the command.
func (h *MarkSpecialHandler) Handle(ctx context.Context, cmd MarkSpecialCommand) (*MarkSpecialResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("mark_special: validation failed: %w", err)
	}

	w, err := h.weekRepo.GetByID(ctx, cmd.WeekID)
	if err != nil {
		return nil, err
	}

	// Reinforcing a special week adds another special for the same base.
	kind := w.Kind()
	if kind.IsSpecial() && !h.allowRepeats {
		return nil, shared.NewDomainError("week", "MarkSpecial", shared.ErrInvalidOperation,
			"special weeks cannot be reinforced again")
	}
	base := kind.Base

	w.Complete(cmd.Actor)
	if err := h.weekRepo.Update(ctx, w); err != nil {
		return nil, err
	}

	var created *week.Week
	var ordinal int
	err = retry.Do(ctx, retry.Options{MaxAttempts: h.maxAttempts, RetryIf: shared.IsConflict}, func() error {
		count, err := h.weekRepo.CountSpecials(ctx, w.StudentID, base)
		if err != nil {
			return err
		}
		ordinal = count + 1

		next, err := week.NewWeek(week.NewWeekParams{
			ID:         uuid.NewString(),
			StudentID:  w.StudentID,
			WeekNumber: week.Encode(base, ordinal),
			Theme:      week.SpecialTheme(base, ordinal),
		})
		if err != nil {
			return err
		}
		if err := h.weekRepo.Create(ctx, next); err != nil {
			return err
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := shared.NewSpecialWeekCreatedEvent(w.StudentID, created.ID, created.WeekNumber, base, ordinal)
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	_ = h.publisher.Publish(event)

	return &MarkSpecialResult{
		Week:        w,
		SpecialWeek: created,
		Base:        base,
		Ordinal:     ordinal,
	}, nil
}
