// Package http exposes the progression engine as a REST API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/linguahub/progression-hub/internal/application/command"
	"github.com/linguahub/progression-hub/internal/application/query"
	"github.com/linguahub/progression-hub/internal/application/saga"
	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/student"
	"github.com/linguahub/progression-hub/internal/domain/week"
	"github.com/linguahub/progression-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	info := map[string]interface{}{
		"name":    "LinguaHub Progression API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":       "/health",
			"weeks":        "/api/v1/students/{id}/weeks",
			"current_week": "/api/v1/students/{id}/weeks/current",
			"notes":        "/api/v1/weeks/{id}/notes",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST CONTEXT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// actorFromRequest reads the gateway-resolved user ID and role headers.
func actorFromRequest(r *http.Request) (string, shared.Role) {
	actor := strings.TrimSpace(r.Header.Get("X-User-ID"))
	role := shared.Role(strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Role"))))
	return actor, role
}

// dayFromRequest parses the {day} path segment.
func dayFromRequest(r *http.Request) (shared.DayType, bool) {
	day := shared.DayType(strings.ToLower(r.PathValue("day")))
	return day, day.IsValid()
}

// studentIDFromRequest validates the {id} path segment of student-scoped
// routes as a UUID before it reaches any storage query.
func studentIDFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, err := shared.NewStudentID(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "student id must be a UUID")
		return "", false
	}
	return sid.String(), true
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsPermission(err):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsInvalidOperation(err), errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_operation", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		s.logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// DTO MAPPING
// ══════════════════════════════════════════════════════════════════════════════

type weekDTO struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	WeekNumber  int        `json:"week_number"`
	Label       string     `json:"label"`
	IsSpecial   bool       `json:"is_special"`
	Theme       string     `json:"theme"`
	Objectives  string     `json:"objectives,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CompletedBy string     `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toWeekDTO(w *week.Week) *weekDTO {
	if w == nil {
		return nil
	}
	kind := w.Kind()
	return &weekDTO{
		ID:          w.ID,
		StudentID:   w.StudentID,
		WeekNumber:  w.WeekNumber,
		Label:       kind.String(),
		IsSpecial:   kind.IsSpecial(),
		Theme:       w.Theme,
		Objectives:  w.Objectives,
		IsCompleted: w.IsCompleted,
		CompletedBy: w.CompletedBy,
		CompletedAt: w.CompletedAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

type noteDTO struct {
	ID             string    `json:"id"`
	WeekID         string    `json:"week_id"`
	DayType        string    `json:"day_type"`
	ClassTopics    string    `json:"class_topics"`
	TutoringTopics string    `json:"tutoring_topics"`
	Vocabulary     string    `json:"vocabulary"`
	Achievements   string    `json:"achievements"`
	Challenges     string    `json:"challenges"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toNoteDTO(n *note.Note) *noteDTO {
	if n == nil {
		return nil
	}
	return &noteDTO{
		ID:             n.ID,
		WeekID:         n.WeekID,
		DayType:        n.DayType.String(),
		ClassTopics:    n.ClassTopics,
		TutoringTopics: n.TutoringTopics,
		Vocabulary:     n.Vocabulary,
		Achievements:   n.Achievements,
		Challenges:     n.Challenges,
		CreatedBy:      n.CreatedBy,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

type profileDTO struct {
	UserID   string `json:"user_id"`
	Level    string `json:"level,omitempty"`
	IsAlumni bool   `json:"is_alumni"`

	// LevelFirstWeek/LevelLastWeek mark the curriculum slots of the current
	// level so the UI can frame the ledger without its own range table.
	LevelFirstWeek int `json:"level_first_week,omitempty"`
	LevelLastWeek  int `json:"level_last_week,omitempty"`

	AlumniSince *time.Time `json:"alumni_since,omitempty"`
	TeacherID   string     `json:"teacher_id,omitempty"`
	TutorID     string     `json:"tutor_id,omitempty"`
}

func toProfileDTO(p *student.Profile) *profileDTO {
	if p == nil {
		return nil
	}
	dto := &profileDTO{
		UserID:    p.UserID,
		Level:     string(p.Level),
		IsAlumni:  p.IsAlumni,
		TeacherID: p.TeacherID,
		TutorID:   p.TutorID,
	}
	if p.Level.IsValid() {
		dto.LevelFirstWeek, dto.LevelLastWeek = p.Level.WeekRange()
	}
	if !p.AlumniSince.IsZero() {
		since := p.AlumniSince
		dto.AlumniSince = &since
	}
	return dto
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProfile handles GET /api/v1/students/{id}/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDFromRequest(w, r)
	if !ok {
		return
	}

	q := query.GetProfileQuery{StudentID: studentID}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	profile, err := s.deps.GetProfile.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

// handleMarkAlumni handles POST /api/v1/students/{id}/alumni
func (s *Server) handleMarkAlumni(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDFromRequest(w, r)
	if !ok {
		return
	}

	cmd := command.MarkAlumniCommand{StudentID: studentID}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	profile, err := s.deps.MarkAlumni.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

// ══════════════════════════════════════════════════════════════════════════════
// WEEK LEDGER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListWeeks handles GET /api/v1/students/{id}/weeks
// Supports ?page and ?page_size; defaults cover a full ledger page.
func (s *Server) handleListWeeks(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDFromRequest(w, r)
	if !ok {
		return
	}

	q := query.ListWeeksQuery{
		StudentID: studentID,
		Page:      getQueryParamInt(r, "page", 0),
		PageSize:  getQueryParamInt(r, "page_size", 0),
	}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	views, err := s.deps.ListWeeks.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dtos := make([]*weekDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, toWeekDTO(v.Week))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// upsertWeekRequest is the body of PUT /api/v1/students/{id}/weeks.
type upsertWeekRequest struct {
	WeekNumber int    `json:"week_number"`
	Theme      string `json:"theme"`
	Objectives string `json:"objectives"`
}

// handleUpsertWeek handles PUT /api/v1/students/{id}/weeks
func (s *Server) handleUpsertWeek(w http.ResponseWriter, r *http.Request) {
	var req upsertWeekRequest
	if !decodeBody(w, r, &req) {
		return
	}

	studentID, ok := studentIDFromRequest(w, r)
	if !ok {
		return
	}

	cmd := command.UpsertWeekCommand{
		StudentID:     studentID,
		WeekNumber:    req.WeekNumber,
		Theme:         req.Theme,
		Objectives:    req.Objectives,
		CorrelationID: getRequestID(r.Context()),
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := s.deps.UpsertWeek.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toWeekDTO(result.Week))
}

// handleGetCurrentWeek handles GET /api/v1/students/{id}/weeks/current
func (s *Server) handleGetCurrentWeek(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDFromRequest(w, r)
	if !ok {
		return
	}

	q := query.GetCurrentWeekQuery{StudentID: studentID}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	current, err := s.deps.GetCurrentWeek.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWeekDTO(current))
}

// handleCompleteWeek handles POST /api/v1/weeks/{id}/complete
func (s *Server) handleCompleteWeek(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromRequest(r)

	cmd := command.CompleteWeekCommand{
		WeekID:        r.PathValue("id"),
		Actor:         actor,
		CorrelationID: getRequestID(r.Context()),
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := s.deps.CompleteWeek.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"week":      toWeekDTO(result.Week),
		"next_week": toWeekDTO(result.NextWeek),
	})
}

// handleReopenWeek handles POST /api/v1/weeks/{id}/reopen
func (s *Server) handleReopenWeek(w http.ResponseWriter, r *http.Request) {
	cmd := command.ReopenWeekCommand{WeekID: r.PathValue("id")}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	reopened, err := s.deps.ReopenWeek.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWeekDTO(reopened))
}

// renameWeekRequest is the body of PATCH /api/v1/weeks/{id}/theme.
type renameWeekRequest struct {
	Theme string `json:"theme"`
}

// handleRenameWeek handles PATCH /api/v1/weeks/{id}/theme
func (s *Server) handleRenameWeek(w http.ResponseWriter, r *http.Request) {
	var req renameWeekRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := command.RenameWeekCommand{
		WeekID: r.PathValue("id"),
		Theme:  req.Theme,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	renamed, err := s.deps.RenameWeek.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWeekDTO(renamed))
}

// ══════════════════════════════════════════════════════════════════════════════
// SPECIAL WEEK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleMarkSpecial handles POST /api/v1/weeks/{id}/special
func (s *Server) handleMarkSpecial(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromRequest(r)

	cmd := command.MarkSpecialCommand{
		WeekID:        r.PathValue("id"),
		Actor:         actor,
		CorrelationID: getRequestID(r.Context()),
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := s.deps.MarkSpecial.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"week":         toWeekDTO(result.Week),
		"special_week": toWeekDTO(result.SpecialWeek),
		"base":         result.Base,
		"ordinal":      result.Ordinal,
	})
}

// handleDeleteSpecialWeek handles DELETE /api/v1/weeks/{id}
func (s *Server) handleDeleteSpecialWeek(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteSpecialWeekCommand{WeekID: r.PathValue("id")}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := s.deps.DeleteSpecialWeek.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted_week_number": result.DeletedWeekNumber,
		"base_reopened":       result.BaseReopened,
		"base_week":           toWeekDTO(result.BaseWeek),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY NOTE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListNotes handles GET /api/v1/weeks/{id}/notes
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	_, role := actorFromRequest(r)

	q := query.ListNotesForWeekQuery{
		WeekID: r.PathValue("id"),
		Role:   role,
	}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	notes, err := s.deps.ListNotes.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dtos := make([]*noteDTO, 0, len(notes))
	for _, n := range notes {
		dtos = append(dtos, toNoteDTO(n))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// handleGetNote handles GET /api/v1/weeks/{id}/notes/{day}
func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	_, role := actorFromRequest(r)

	day, ok := dayFromRequest(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "day must be tuesday..friday")
		return
	}

	q := query.GetNoteQuery{
		WeekID: r.PathValue("id"),
		Day:    day,
		Role:   role,
	}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	n, err := s.deps.GetNote.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteDTO(n))
}

// upsertNoteRequest is the body of PUT /api/v1/weeks/{id}/notes/{day}.
// Absent fields stay untouched; present fields are written whole, so sending
// an empty string clears a field.
type upsertNoteRequest struct {
	ClassTopics    *string `json:"class_topics"`
	TutoringTopics *string `json:"tutoring_topics"`
	Vocabulary     *string `json:"vocabulary"`
	Achievements   *string `json:"achievements"`
	Challenges     *string `json:"challenges"`
}

// handleUpsertNote handles PUT /api/v1/weeks/{id}/notes/{day}
func (s *Server) handleUpsertNote(w http.ResponseWriter, r *http.Request) {
	actor, role := actorFromRequest(r)

	day, ok := dayFromRequest(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "day must be tuesday..friday")
		return
	}

	var req upsertNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := command.UpsertNoteCommand{
		WeekID: r.PathValue("id"),
		Day:    day,
		Actor:  actor,
		Role:   role,
		Content: note.Content{
			ClassTopics:    req.ClassTopics,
			TutoringTopics: req.TutoringTopics,
			Vocabulary:     req.Vocabulary,
			Achievements:   req.Achievements,
			Challenges:     req.Challenges,
		},
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	n, err := s.deps.UpsertNote.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteDTO(n))
}

// ══════════════════════════════════════════════════════════════════════════════
// REASSIGNMENT AND CALIBRATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// reassignRequest is the body of POST /api/v1/students/{id}/reassign.
type reassignRequest struct {
	NewLevel       string `json:"new_level"`
	NewWeekNumber  int    `json:"new_week_number"`
	DeleteProgress bool   `json:"delete_progress"`
	CopyNotes      bool   `json:"copy_notes"`
}

// handleReassign handles POST /api/v1/students/{id}/reassign
func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	studentID, ok := studentIDFromRequest(w, r)
	if !ok {
		return
	}

	input := saga.ReassignInput{
		StudentID:      studentID,
		NewLevel:       shared.Level(strings.ToUpper(strings.TrimSpace(req.NewLevel))),
		NewWeekNumber:  req.NewWeekNumber,
		DeleteProgress: req.DeleteProgress,
		CopyNotes:      req.CopyNotes,
		CorrelationID:  getRequestID(r.Context()),
	}
	if err := input.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := s.deps.Reassignment.Execute(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":        toProfileDTO(result.Profile),
		"target_week":    toWeekDTO(result.TargetWeek),
		"target_created": result.TargetCreated,
		"progress_wiped": result.ProgressWiped,
		"notes_copied":   result.NotesCopied,
		"notes_failed":   result.NotesFailed,
		"partial":        result.PartiallyFailed(),
	})
}

// handleUncalibratedTopics handles GET /api/v1/students/{id}/topics/uncalibrated
func (s *Server) handleUncalibratedTopics(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDFromRequest(w, r)
	if !ok {
		return
	}

	q := query.UncalibratedTopicsQuery{
		StudentID:  studentID,
		WeekNumber: getQueryParamInt(r, "week", 0),
	}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	topics, err := s.deps.UncalibratedTopics.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dtos := make([]topicDTO, 0, len(topics))
	for _, t := range topics {
		dtos = append(dtos, topicDTO{ID: t.ID, WeekNumber: t.WeekNumber, Title: t.Title})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// topicDTO is the wire form of a catalog topic.
type topicDTO struct {
	ID         string `json:"id"`
	WeekNumber int    `json:"week_number"`
	Title      string `json:"title"`
}
