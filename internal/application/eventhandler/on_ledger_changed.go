package eventhandler

import (
	"context"

	"github.com/linguahub/progression-hub/internal/application/query"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEDGER CHANGED HANDLER
// Drops the cached current-week entry whenever a mutation could move it:
// completion, reopening, and special-week deletion all shift which regular
// week is the lowest incomplete one.
// ═══════════════════════════════════════════════════════════════════════════

// OnLedgerChangedHandler invalidates the current-week cache after ledger
// mutations.
type OnLedgerChangedHandler struct {
	cache query.CurrentWeekCache
	log   *logger.Logger
}

// NewOnLedgerChangedHandler creates a new OnLedgerChangedHandler.
func NewOnLedgerChangedHandler(cache query.CurrentWeekCache, log *logger.Logger) *OnLedgerChangedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnLedgerChangedHandler{
		cache: cache,
		log:   log.With(logger.String("handler", "on_ledger_changed")),
	}
}

// EventTypes lists the event types this handler should be subscribed to.
func (h *OnLedgerChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventWeekCompleted,
		shared.EventWeekReopened,
		shared.EventSpecialWeekDeleted,
	}
}

// Handle implements shared.EventHandler. Every relevant event carries the
// student ID as its aggregate ID, so no per-type unpacking is needed.
func (h *OnLedgerChangedHandler) Handle(event shared.Event) error {
	studentID := event.AggregateID()
	if studentID == "" {
		return nil
	}

	if err := h.cache.InvalidateCurrentWeek(context.Background(), studentID); err != nil {
		h.log.Warn("cache invalidation failed",
			logger.StudentID(studentID),
			logger.String("event_type", string(event.EventType())),
			logger.Err(err))
	}
	return nil
}
