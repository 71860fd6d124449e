// Package saga contains complex business processes that orchestrate
// multiple domain operations in a coordinated manner.
// Sagas run their steps in a fixed order so a mid-sequence failure leaves
// the ledger in a known, recoverable shape.
package saga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linguahub/progression-hub/internal/application/query"
	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/student"
	"github.com/linguahub/progression-hub/internal/domain/topic"
	"github.com/linguahub/progression-hub/internal/domain/week"
	"github.com/linguahub/progression-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REASSIGNMENT SAGA
// Complex business process: moving a student to a different level/week slot
// Flow: Load Profile → Capture Previous Week → Set Level → (optional) Wipe
//
//	Progress → Resolve Target Week → Copy Notes (optional, best effort) → Publish Event
//
// Step order is the consistency mechanism: the level lands first, the wipe
// runs before the target week is minted, and the note copy comes last so its
// failure can never corrupt the steps that already succeeded.
// ══════════════════════════════════════════════════════════════════════════════

// ReassignInput contains all data required to reassign a student.
type ReassignInput struct {
	// StudentID - the student to move.
	StudentID string

	// NewLevel - target CEFR level.
	NewLevel shared.Level

	// NewWeekNumber - target regular week slot (1..12).
	NewWeekNumber int

	// DeleteProgress - when true, every week, note, and calibration row for
	// the student is wiped before the target week is created.
	DeleteProgress bool

	// CopyNotes - when true, notes of the previous current week are carried
	// to the target week, best effort. A wipe removes the source, so
	// combining it with DeleteProgress carries nothing.
	CopyNotes bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks if the input is valid for reassignment.
func (i ReassignInput) Validate() error {
	if strings.TrimSpace(i.StudentID) == "" {
		return errors.New("reassignment: student ID is required")
	}
	if !i.NewLevel.IsValid() {
		return shared.ErrInvalidLevel
	}
	if i.NewWeekNumber < 1 || i.NewWeekNumber > week.MaxRegularWeek {
		return shared.ErrInvalidWeekNumber
	}
	return nil
}

// ReassignStep names a step of the reassignment flow.
type ReassignStep string

const (
	StepLoadProfile     ReassignStep = "load_profile"
	StepCapturePrevious ReassignStep = "capture_previous_week"
	StepSetLevel        ReassignStep = "set_level"
	StepWipeProgress    ReassignStep = "wipe_progress"
	StepResolveTarget   ReassignStep = "resolve_target_week"
	StepCopyNotes       ReassignStep = "copy_notes"
	StepPublish         ReassignStep = "publish_event"
	StepComplete        ReassignStep = "complete"
)

// ReassignResult contains the outcome of a reassignment.
type ReassignResult struct {
	// Profile - the updated profile.
	Profile *student.Profile

	// TargetWeek - the week the student now sits on. Reused when a row at
	// the target number already existed, freshly created otherwise.
	TargetWeek *week.Week

	// TargetCreated - true when the target week was minted by this run.
	TargetCreated bool

	// PreviousWeek - the current week before the move, nil when the
	// student had no open regular week.
	PreviousWeek *week.Week

	// ProgressWiped - true when the delete_progress branch ran.
	ProgressWiped bool

	// NotesCopied / NotesFailed - note carry-over counters. A non-zero
	// NotesFailed means the move succeeded but some notes were lost;
	// CopyErr holds the first failure.
	NotesCopied int
	NotesFailed int
	CopyErr     error

	// CompletedAt - when the flow finished.
	CompletedAt time.Time
}

// PartiallyFailed reports whether the move landed but lost notes on the way.
func (r *ReassignResult) PartiallyFailed() bool {
	return r.NotesFailed > 0
}

// ReassignmentSaga orchestrates the full reassignment process.
type ReassignmentSaga struct {
	profileRepo  student.Repository
	weekRepo     week.Repository
	noteRepo     note.Repository
	progressRepo topic.ProgressRepository
	cache        query.CurrentWeekCache
	eventBus     shared.EventPublisher
	log          *logger.Logger
}

// NewReassignmentSaga creates a new ReassignmentSaga. The cache may be nil.
func NewReassignmentSaga(
	profileRepo student.Repository,
	weekRepo week.Repository,
	noteRepo note.Repository,
	progressRepo topic.ProgressRepository,
	cache query.CurrentWeekCache,
	eventBus shared.EventPublisher,
	log *logger.Logger,
) *ReassignmentSaga {
	if log == nil {
		log = logger.Default()
	}
	return &ReassignmentSaga{
		profileRepo:  profileRepo,
		weekRepo:     weekRepo,
		noteRepo:     noteRepo,
		progressRepo: progressRepo,
		cache:        cache,
		eventBus:     eventBus,
		log:          log.With(logger.String("saga", "reassignment")),
	}
}

// Execute runs the reassignment flow. Steps up to and including the target
// week resolution fail hard; the note carry-over is best effort and reported
// through the result instead of an error.
func (s *ReassignmentSaga) Execute(ctx context.Context, input ReassignInput) (*ReassignResult, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("reassignment: validation failed: %w", err)
	}

	result := &ReassignResult{}

	// Step 1: load profile.
	profile, err := s.profileRepo.GetByUserID(ctx, input.StudentID)
	if err != nil {
		return nil, s.failed(StepLoadProfile, err)
	}
	if profile.IsAlumni {
		return nil, s.failed(StepLoadProfile, shared.NewDomainError("reassignment", "Execute",
			shared.ErrInvalidState, "alumni cannot be reassigned"))
	}

	// Step 2: capture the previous current week before anything moves.
	// Needed for the note carry-over; a missing one just means there is
	// nothing to carry.
	prev, err := s.weekRepo.FirstIncompleteRegular(ctx, input.StudentID)
	switch {
	case err == nil:
		result.PreviousWeek = prev
	case shared.IsNotFound(err):
	default:
		return nil, s.failed(StepCapturePrevious, err)
	}

	// Step 3: the level change is the first durable write.
	if err := profile.ChangeLevel(input.NewLevel); err != nil {
		return nil, s.failed(StepSetLevel, err)
	}
	if err := s.profileRepo.SetLevel(ctx, input.StudentID, input.NewLevel.String()); err != nil {
		return nil, s.failed(StepSetLevel, err)
	}
	result.Profile = profile

	// Step 4: optional wipe. Notes first (they reference weeks), then
	// weeks, then calibration rows. Any failure aborts: a half-wiped
	// ledger must not silently receive a fresh target week.
	if input.DeleteProgress {
		if err := s.noteRepo.DeleteByStudent(ctx, input.StudentID); err != nil {
			return nil, s.failed(StepWipeProgress, fmt.Errorf("wiping notes: %w", err))
		}
		if err := s.weekRepo.DeleteByStudent(ctx, input.StudentID); err != nil {
			return nil, s.failed(StepWipeProgress, fmt.Errorf("wiping weeks: %w", err))
		}
		if err := s.progressRepo.DeleteByStudent(ctx, input.StudentID); err != nil {
			return nil, s.failed(StepWipeProgress, fmt.Errorf("wiping calibration: %w", err))
		}
		result.ProgressWiped = true
		result.PreviousWeek = nil
	}

	// Step 5: resolve the target week, reusing an existing row or minting
	// one with the standard theme. A create race resolves by re-read.
	target, created, err := s.resolveTarget(ctx, input)
	if err != nil {
		return nil, s.failed(StepResolveTarget, err)
	}
	result.TargetWeek = target
	result.TargetCreated = created

	// Step 6: best-effort note carry-over from the old current week, only
	// when the caller asked for it.
	if input.CopyNotes && result.PreviousWeek != nil && result.PreviousWeek.ID != target.ID {
		s.copyNotes(ctx, result, target)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateCurrentWeek(ctx, input.StudentID)
	}

	// Step 7: publish.
	event := shared.NewStudentReassignedEvent(input.StudentID, input.NewLevel.String(),
		input.NewWeekNumber, result.ProgressWiped, result.NotesCopied)
	event.BaseEvent = event.WithCorrelationID(input.CorrelationID)
	_ = s.eventBus.Publish(event)

	result.CompletedAt = time.Now().UTC()

	s.log.Info("student reassigned",
		logger.StudentID(input.StudentID),
		logger.LevelField(input.NewLevel.String()),
		logger.WeekNumber(input.NewWeekNumber),
		logger.Bool("progress_wiped", result.ProgressWiped),
		logger.Int("notes_copied", result.NotesCopied),
		logger.Int("notes_failed", result.NotesFailed))

	return result, nil
}

// resolveTarget finds or creates the week row at the target number.
func (s *ReassignmentSaga) resolveTarget(ctx context.Context, input ReassignInput) (*week.Week, bool, error) {
	existing, err := s.weekRepo.GetByNumber(ctx, input.StudentID, input.NewWeekNumber)
	switch {
	case err == nil:
		return existing, false, nil
	case !shared.IsNotFound(err):
		return nil, false, err
	}

	created, err := week.NewWeek(week.NewWeekParams{
		ID:         uuid.NewString(),
		StudentID:  input.StudentID,
		WeekNumber: input.NewWeekNumber,
		Theme:      week.RegularTheme(input.NewLevel, input.NewWeekNumber),
	})
	if err != nil {
		return nil, false, err
	}

	if err := s.weekRepo.Create(ctx, created); err != nil {
		if shared.IsConflict(err) {
			// Lost the race; whoever won created the row we wanted.
			won, rerr := s.weekRepo.GetByNumber(ctx, input.StudentID, input.NewWeekNumber)
			if rerr != nil {
				return nil, false, rerr
			}
			return won, false, nil
		}
		return nil, false, err
	}
	return created, true, nil
}

// copyNotes carries the previous week's notes into the target week. Failures
// are logged and counted, never raised: losing a note copy must not undo a
// reassignment that already landed.
func (s *ReassignmentSaga) copyNotes(ctx context.Context, result *ReassignResult, target *week.Week) {
	notes, err := s.noteRepo.ListByWeek(ctx, result.PreviousWeek.ID)
	if err != nil {
		result.CopyErr = shared.WrapError("reassignment", "copyNotes", shared.ErrPartialFailure,
			"listing notes of previous week", err)
		s.log.Warn("note carry-over skipped", logger.WeekID(result.PreviousWeek.ID), logger.Err(err))
		return
	}

	for _, n := range notes {
		if n.IsEmpty() {
			continue
		}
		copied := n.CopyTo(uuid.NewString(), target.ID)
		if err := s.noteRepo.Upsert(ctx, copied); err != nil {
			result.NotesFailed++
			if result.CopyErr == nil {
				result.CopyErr = shared.WrapError("reassignment", "copyNotes", shared.ErrPartialFailure,
					"copying note "+n.DayType.String(), shared.ErrNoteCopyFailed)
			}
			s.log.Warn("note copy failed",
				logger.WeekID(target.ID), logger.DayType(n.DayType.String()), logger.Err(err))
			continue
		}
		result.NotesCopied++
	}
}

// failed wraps a step failure with its step name for the caller's logs.
func (s *ReassignmentSaga) failed(step ReassignStep, err error) error {
	s.log.Error("reassignment step failed", logger.String("step", string(step)), logger.Err(err))
	return fmt.Errorf("reassignment: step %s: %w", step, err)
}
