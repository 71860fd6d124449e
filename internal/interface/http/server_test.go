package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/application/apptest"
	"github.com/linguahub/progression-hub/internal/application/command"
	"github.com/linguahub/progression-hub/internal/application/query"
	"github.com/linguahub/progression-hub/internal/application/saga"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/student"
	"github.com/linguahub/progression-hub/internal/domain/week"
	"github.com/linguahub/progression-hub/pkg/logger"
)

const testStudent = "44444444-4444-4444-4444-444444444444"

// apiEnv wires a full server over the in-memory fakes.
type apiEnv struct {
	weeks    *apptest.MemWeekRepo
	notes    *apptest.MemNoteRepo
	profiles *apptest.MemProfileRepo
	server   *Server
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	weeks := apptest.NewMemWeekRepo()
	notes := apptest.NewMemNoteRepo()
	profiles := apptest.NewMemProfileRepo()
	progress := apptest.NewMemProgressRepo()
	catalog := &apptest.StaticCatalog{}
	bus := apptest.NewCapturePublisher()
	quiet := logger.New(logger.Options{Output: io.Discard})

	profiles.Seed(&student.Profile{UserID: testStudent, Level: shared.LevelA1})

	deps := Dependencies{
		UpsertWeek:        command.NewUpsertWeekHandler(weeks),
		CompleteWeek:      command.NewCompleteWeekHandler(weeks, bus),
		ReopenWeek:        command.NewReopenWeekHandler(weeks, bus),
		RenameWeek:        command.NewRenameWeekHandler(weeks),
		MarkSpecial:       command.NewMarkSpecialHandler(weeks, bus),
		DeleteSpecialWeek: command.NewDeleteSpecialWeekHandler(weeks, notes, bus),
		UpsertNote:        command.NewUpsertNoteHandler(weeks, notes, bus),
		MarkAlumni:        command.NewMarkAlumniHandler(profiles, bus),

		GetCurrentWeek:     query.NewGetCurrentWeekHandler(weeks, nil),
		ListWeeks:          query.NewListWeeksHandler(weeks),
		ListNotes:          query.NewListNotesForWeekHandler(weeks, notes),
		GetNote:            query.NewGetNoteHandler(weeks, notes),
		GetProfile:         query.NewGetProfileHandler(profiles),
		UncalibratedTopics: query.NewUncalibratedTopicsHandler(catalog, progress),

		Reassignment: saga.NewReassignmentSaga(profiles, weeks, notes, progress, nil, bus, quiet),

		Logger: quiet,
	}

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	return &apiEnv{
		weeks:    weeks,
		notes:    notes,
		profiles: profiles,
		server:   NewServer(cfg, deps),
	}
}

func (e *apiEnv) seedWeek(t *testing.T, number int, theme string) *week.Week {
	t.Helper()
	w, err := week.NewWeek(week.NewWeekParams{
		ID:         uuid.NewString(),
		StudentID:  testStudent,
		WeekNumber: number,
		Theme:      theme,
	})
	require.NoError(t, err)
	e.weeks.Seed(w)
	return w
}

func (e *apiEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func staffHeaders() map[string]string {
	return map[string]string{
		"X-User-ID":   "teacher-1",
		"X-User-Role": "teacher",
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUpsertWeekCreatesAndUpdates(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodPut, "/api/v1/students/"+testStudent+"/weeks",
		`{"week_number":3,"theme":"Level A2 - Week 3"}`, staffHeaders())
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/students/"+testStudent+"/weeks",
		`{"week_number":3,"theme":"Travel"}`, staffHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"theme":"Travel"`)
}

func TestUpsertWeekRejectsBadBody(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodPut, "/api/v1/students/"+testStudent+"/weeks", "not json", staffHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/students/"+testStudent+"/weeks",
		`{"week_number":0,"theme":"x"}`, staffHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteWeekCascadesOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 3, "Level A2 - Week 3")

	rec := env.do(http.MethodPost, "/api/v1/weeks/"+w.ID+"/complete", "", staffHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_completed":true`)
	assert.Contains(t, rec.Body.String(), `"week_number":4`)
}

func TestCompleteUnknownWeekReturns404(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/weeks/"+uuid.NewString()+"/complete", "", staffHeaders())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestCompleteWeekRequiresActor(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 3, "Level A2 - Week 3")

	rec := env.do(http.MethodPost, "/api/v1/weeks/"+w.ID+"/complete", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkSpecialReturnsCreatedOrdinal(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 2, "Level A1 - Week 2")

	rec := env.do(http.MethodPost, "/api/v1/weeks/"+w.ID+"/special", "", staffHeaders())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"week_number":201`)
	assert.Contains(t, rec.Body.String(), `"ordinal":1`)
}

func TestDeleteRegularWeekReturns422(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 2, "Level A1 - Week 2")

	rec := env.do(http.MethodDelete, "/api/v1/weeks/"+w.ID, "", staffHeaders())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpsertNoteForbiddenFieldReturns403(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 2, "Level A1 - Week 2")

	rec := env.do(http.MethodPut, "/api/v1/weeks/"+w.ID+"/notes/tuesday",
		`{"class_topics":"Grammar"}`, map[string]string{
			"X-User-ID":   "tutor-1",
			"X-User-Role": "tutor",
		})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

func TestUpsertNoteRoundTrip(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 2, "Level A1 - Week 2")

	rec := env.do(http.MethodPut, "/api/v1/weeks/"+w.ID+"/notes/wednesday",
		`{"class_topics":"Grammar","vocabulary":"10 words"}`, staffHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/weeks/"+w.ID+"/notes/wednesday", "", staffHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"class_topics":"Grammar"`)
	assert.Contains(t, rec.Body.String(), `"created_by":"teacher-1"`)
}

func TestUpsertNoteRejectsMonday(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 2, "Level A1 - Week 2")

	rec := env.do(http.MethodPut, "/api/v1/weeks/"+w.ID+"/notes/monday",
		`{"class_topics":"Grammar"}`, staffHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentCannotListNotesOnFutureWeek(t *testing.T) {
	env := newAPIEnv(t)
	env.seedWeek(t, 2, "Level A1 - Week 2")
	future := env.seedWeek(t, 5, "Level A2 - Week 5")

	rec := env.do(http.MethodGet, "/api/v1/weeks/"+future.ID+"/notes", "", map[string]string{
		"X-User-ID":   testStudent,
		"X-User-Role": "student",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetCurrentWeekReturns404WhenLedgerEmpty(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/students/"+testStudent+"/weeks/current", "", staffHeaders())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReassignOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	env.seedWeek(t, 2, "Level A1 - Week 2")

	rec := env.do(http.MethodPost, "/api/v1/students/"+testStudent+"/reassign",
		`{"new_level":"B1","new_week_number":5}`, staffHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"level":"B1"`)
	assert.Contains(t, rec.Body.String(), `"target_created":true`)
}

func TestReassignCopyNotesFlagOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	w := env.seedWeek(t, 2, "Level A1 - Week 2")

	rec := env.do(http.MethodPut, "/api/v1/weeks/"+w.ID+"/notes/tuesday",
		`{"vocabulary":"carried words"}`, staffHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	// Without copy_notes the move leaves the note on the old week.
	rec = env.do(http.MethodPost, "/api/v1/students/"+testStudent+"/reassign",
		`{"new_level":"B1","new_week_number":5}`, staffHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"notes_copied":0`)

	// With copy_notes the note follows the student.
	rec = env.do(http.MethodPost, "/api/v1/students/"+testStudent+"/reassign",
		`{"new_level":"B1","new_week_number":6,"copy_notes":true}`, staffHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"notes_copied":1`)
}

func TestStudentRoutesRejectMalformedID(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/students/not-a-uuid/profile", "", staffHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")

	rec = env.do(http.MethodPost, "/api/v1/students/not-a-uuid/reassign",
		`{"new_level":"B1","new_week_number":5}`, staffHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProfileCarriesLevelWeekRange(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/students/"+testStudent+"/profile", "", staffHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"level":"A1"`)
	assert.Contains(t, rec.Body.String(), `"level_first_week":1`)
	assert.Contains(t, rec.Body.String(), `"level_last_week":2`)
}

func TestReassignRejectsSpecialTarget(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/students/"+testStudent+"/reassign",
		`{"new_level":"B1","new_week_number":201}`, staffHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAlumniOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/students/"+testStudent+"/alumni", "", staffHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_alumni":true`)
}

func TestUnknownPathReturns404(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
