package httpd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-chth/KaoDuenMate-VER2/internal/auth"
	"github.com/p-chth/KaoDuenMate-VER2/internal/config"
	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/internal/repository"
	"github.com/p-chth/KaoDuenMate-VER2/internal/service"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

var authCfg = config.AuthConfig{JWTSecret: "httpd-secret", Issuer: "kaoduen-mate"}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	router  http.Handler
	handler *Handler
	store   *repository.Store
	token   string
	hub     *feed.Hub
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, pinger Pinger) *testServer {
	t.Helper()
	return newTestServerWithBuffer(t, pinger, 16)
}

func newTestServerWithBuffer(t *testing.T, pinger Pinger, buffer int) *testServer {
	t.Helper()
	log := zerolog.Nop()

	store := repository.NewMemoryStore()
	clock := dates.FixedClock{Day: dates.MustParse("2025-05-18")}
	hub := feed.NewHub(buffer, log)
	t.Cleanup(hub.Close)

	profiles := service.NewProfileService(store.Profiles, clock, hub, log)
	h := NewHandler(
		profiles,
		service.NewAssignmentService(store.Assignments, profiles, hub, log),
		service.NewExamService(store.Exams, hub, log),
		service.NewCourseService(store.Courses, profiles, hub, log),
		service.NewDashboardService(store, profiles, clock, service.DashboardOptions{UpcomingLimit: 3}, log),
		hub,
		auth.NewVerifier(authCfg),
		pinger,
		Options{RequestTimeout: 5 * time.Second, Heartbeat: 50 * time.Millisecond},
		log,
	)

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	token, err := auth.NewIssuer(authCfg).Issue("user-1", time.Hour)
	require.NoError(t, err)

	return &testServer{router: router, handler: h, store: store, token: token, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, stubPinger{})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestServer(t, stubPinger{err: errors.New("db down")})
	rec = httptest.NewRecorder()
	down.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 0, decode[models.UserProfile](t, env).Streak)

	rec, env = s.do(t, http.MethodPost, "/api/v1/profile", models.CreateProfileRequest{
		Title: "Ms.", FirstName: "Ann", LastName: "Lee", StudentID: "123", Email: "a@b.c",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "10 digits")

	rec, _ = s.do(t, http.MethodPost, "/api/v1/profile", models.CreateProfileRequest{
		Title: "Ms.", FirstName: "Ann", LastName: "Lee", StudentID: "6512345678", Email: "a@b.c",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	last := "Park"
	rec, env = s.do(t, http.MethodPut, "/api/v1/profile", models.UpdateProfileRequest{LastName: &last})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Park", decode[models.UserProfile](t, env).LastName)

	rec, env = s.do(t, http.MethodPost, "/api/v1/profile/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.StreakState](t, env).Streak)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/assignments", models.CreateAssignmentRequest{Name: "Lab", DueDate: "2025-05-20"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Assignment](t, env)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/assignments", models.CreateAssignmentRequest{Name: "Lab", DueDate: "soon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, env = s.do(t, http.MethodGet, "/api/v1/assignments", nil)
	assert.Len(t, decode[[]models.Assignment](t, env), 1)

	rec, env = s.do(t, http.MethodPost, "/api/v1/assignments/"+created.ID+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	finished := decode[models.FinishAssignmentResponse](t, env)
	require.NotNil(t, finished.Streak)
	assert.Equal(t, 1, finished.Streak.Streak)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/assignments/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExamEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/exams", models.CreateExamRequest{ID: "e1", CourseName: "Physics", ExamDate: "2025-05-19"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "e1", decode[models.Exam](t, env).ID)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/exams/e1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCourseEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	_, env := s.do(t, http.MethodPost, "/api/v1/courses", models.CreateCourseRequest{Title: "Math"})
	course := decode[models.Course](t, env)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/courses/"+course.ID+"/topics", models.AddTopicRequest{ID: "t1", Title: "Limits"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/api/v1/courses/"+course.ID+"/topics/t1", models.SetTopicDoneRequest{Done: true})
	require.Equal(t, http.StatusOK, rec.Code)
	toggle := decode[models.TopicToggleResponse](t, env)
	assert.True(t, toggle.Completed)
	require.NotNil(t, toggle.Streak)
	assert.Equal(t, 1, toggle.Streak.Streak)

	rec, env = s.do(t, http.MethodPut, "/api/v1/courses/"+course.ID, models.CreateCourseRequest{Title: "Calculus"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Calculus", decode[models.Course](t, env).Title)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/courses/"+course.ID+"/topics/t1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/courses/missing/topics/t1", models.SetTopicDoneRequest{Done: true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/courses/"+course.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	s.do(t, http.MethodPost, "/api/v1/assignments", models.CreateAssignmentRequest{ID: "a1", Name: "Lab", DueDate: "2025-05-20"})
	s.do(t, http.MethodPost, "/api/v1/assignments", models.CreateAssignmentRequest{ID: "a2", Name: "Quiz", DueDate: "2025-05-18"})
	s.do(t, http.MethodPost, "/api/v1/exams", models.CreateExamRequest{ID: "e1", CourseName: "Physics", ExamDate: "2025-05-19"})

	rec, env := s.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	home := decode[models.HomeDashboard](t, env)
	require.NotNil(t, home.Nearest)
	assert.Equal(t, "e1", home.Nearest.ID)
	require.Len(t, home.TodayTasks, 1)
	assert.Equal(t, "a2", home.TodayTasks[0].ID)

	_, env = s.do(t, http.MethodGet, "/api/v1/dashboard/deadlines", nil)
	assert.Len(t, decode[[]models.Deadline](t, env), 2)

	_, env = s.do(t, http.MethodGet, "/api/v1/dashboard/week", nil)
	assert.Len(t, decode[[]models.DayBucket](t, env), 7)

	_, env = s.do(t, http.MethodGet, "/api/v1/dashboard/calendar", nil)
	assert.Len(t, decode[map[string][]models.CalendarEvent](t, env), 3)

	_, env = s.do(t, http.MethodGet, "/api/v1/dashboard/progress", nil)
	assert.Zero(t, decode[models.ProgressResponse](t, env).OverallPercent)

	_, env = s.do(t, http.MethodGet, "/api/v1/dashboard/stats", nil)
	stats := decode[models.ProfileStats](t, env)
	require.NotNil(t, stats.DDay)
	assert.Equal(t, 0, *stats.DDay)
	assert.Equal(t, 2, stats.AssignmentsLeft)
}

func TestHandleError_Timeout(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("request deadline left to the timeout middleware", func(t *testing.T) {
		h := chimw.Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			s.handler.handleError(w, r, fmt.Errorf("failed to get assignments: %w", r.Context().Err()), "get assignments")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("downstream deadline", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.handler.handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), context.DeadlineExceeded, "get assignments")

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Contains(t, rec.Body.String(), "Timed out trying to get assignments")
	})
}

func TestParseCollections(t *testing.T) {
	got, err := parseCollections("assignments, exams")
	require.NoError(t, err)
	assert.Equal(t, []models.Collection{models.CollectionAssignments, models.CollectionExams}, got)

	got, err = parseCollections("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseCollections("grades")
	assert.Error(t, err)
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestFeedStreamsSnapshotThenChanges(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	s.do(t, http.MethodPost, "/api/v1/exams", models.CreateExamRequest{ID: "e1", CourseName: "Physics", ExamDate: "2025-05-19"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/feed?collections=assignments", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	first := readEvent(t, reader)
	require.Equal(t, "snapshot", first.name)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(first.data), &snap))
	assert.Len(t, snap.Exams, 1)

	// filtered out
	s.do(t, http.MethodPost, "/api/v1/exams", models.CreateExamRequest{ID: "e2", CourseName: "Chem", ExamDate: "2025-05-21"})
	s.do(t, http.MethodPost, "/api/v1/assignments", models.CreateAssignmentRequest{ID: "a1", Name: "Lab", DueDate: "2025-05-20"})

	change := readEvent(t, reader)
	require.Equal(t, "change", change.name)
	var ev models.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(change.data), &ev))
	assert.Equal(t, models.CollectionAssignments, ev.Collection)
	assert.Equal(t, "a1", ev.DocID)

	next, err := feed.AssignmentsState(snap.Assignments).Apply(ev)
	require.NoError(t, err)
	assert.Len(t, next, 1)

	cancel()
	assert.Eventually(t, func() bool { return s.hub.Subscribers("user-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestFeedRejectsUnknownCollection(t *testing.T) {
	s := newTestServer(t, nil)
	rec, _ := s.do(t, http.MethodGet, "/api/v1/feed?collections=grades", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
