// Package eventhandler contains domain event handlers: the reactive side of
// the system. Handlers run side effects (badge evaluation, cache upkeep)
// downstream of ledger mutations and must never fail the mutation that
// triggered them.
package eventhandler

import (
	"context"
	"time"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON WEEK COMPLETED HANDLER
// Triggers badge evaluation for the student whose week was completed.
//
// Badge evaluation is a collaborator service. Its errors are logged and
// swallowed: a down badge service degrades gamification, not progression.
// ═══════════════════════════════════════════════════════════════════════════

// BadgeEvaluator asks the badge collaborator to re-evaluate a student's
// badges after a completion.
type BadgeEvaluator interface {
	EvaluateBadges(ctx context.Context, studentID string, weekNumber int) error
}

// WeekCompletedConfig contains configuration for the handler.
type WeekCompletedConfig struct {
	// EvaluateTimeout bounds a single badge evaluation call.
	EvaluateTimeout time.Duration
}

// DefaultWeekCompletedConfig returns the default configuration.
func DefaultWeekCompletedConfig() WeekCompletedConfig {
	return WeekCompletedConfig{
		EvaluateTimeout: 5 * time.Second,
	}
}

// OnWeekCompletedHandler handles progression.week_completed events.
type OnWeekCompletedHandler struct {
	evaluator BadgeEvaluator
	log       *logger.Logger
	config    WeekCompletedConfig
}

// NewOnWeekCompletedHandler creates a new OnWeekCompletedHandler.
func NewOnWeekCompletedHandler(evaluator BadgeEvaluator, log *logger.Logger, config WeekCompletedConfig) *OnWeekCompletedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnWeekCompletedHandler{
		evaluator: evaluator,
		log:       log.With(logger.String("handler", "on_week_completed")),
		config:    config,
	}
}

// EventType returns the event type this handler subscribes to.
func (h *OnWeekCompletedHandler) EventType() shared.EventType {
	return shared.EventWeekCompleted
}

// Handle implements shared.EventHandler. It always returns nil: badge
// evaluation failures are the handler's problem, not the publisher's.
func (h *OnWeekCompletedHandler) Handle(event shared.Event) error {
	completed, ok := event.(shared.WeekCompletedEvent)
	if !ok {
		h.log.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.EvaluateTimeout)
	defer cancel()

	if err := h.evaluator.EvaluateBadges(ctx, completed.StudentID, completed.WeekNumber); err != nil {
		h.log.Warn("badge evaluation failed",
			logger.StudentID(completed.StudentID),
			logger.WeekNumber(completed.WeekNumber),
			logger.Err(err))
		return nil
	}

	h.log.Debug("badges evaluated",
		logger.StudentID(completed.StudentID),
		logger.WeekNumber(completed.WeekNumber))
	return nil
}
