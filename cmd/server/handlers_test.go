package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/config"
	"github.com/rhyrak/allston-schedule/internal/metrics"
	"github.com/rhyrak/allston-schedule/internal/scheduler"
	appErrors "github.com/rhyrak/allston-schedule/pkg/errors"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

type memoryRunStore struct {
	mu   sync.Mutex
	runs map[string]*model.Run
}

func newMemoryRunStore() *memoryRunStore {
	return &memoryRunStore{runs: map[string]*model.Run{}}
}

func (s *memoryRunStore) Create(_ context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = uuid.NewString()
	run.Status = model.RunInProgress
	run.CreatedAt = time.Now()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *memoryRunStore) Complete(_ context.Context, id, data string, score, report any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	run.Status = model.RunSuccess
	run.Data = &data
	run.Score = rawJSON(score)
	run.Report = rawJSON(report)
	return nil
}

func (s *memoryRunStore) Fail(_ context.Context, id string, report any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	run.Status = model.RunFailed
	run.Report = rawJSON(report)
	return nil
}

func (s *memoryRunStore) GetByID(_ context.Context, id string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *memoryRunStore) List(_ context.Context, filter model.RunFilter) ([]model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Run{}
	for _, run := range s.runs {
		if filter.Status == "" || run.Status == filter.Status {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (s *memoryRunStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return appErrors.ErrNotFound
	}
	delete(s.runs, id)
	return nil
}

func rawJSON(v any) *json.RawMessage {
	b, _ := json.Marshal(v)
	raw := json.RawMessage(b)
	return &raw
}

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) error {
	b, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = b
	c.sets++
	return nil
}

type testServer struct {
	router  *gin.Engine
	handler *Handler
	runs    *memoryRunStore
	cache   *memoryCache
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sc := scheduler.NewDefaultConfiguration()
	sc.SolveTimeLimit = 5 * time.Second
	sc.SearchBudget = 20 * time.Second

	ts := &testServer{
		runs:    newMemoryRunStore(),
		cache:   &memoryCache{entries: map[string][]byte{}},
		metrics: metrics.New(),
	}
	ts.handler = NewHandler(ts.runs, ts.cache, sc, zap.NewNop(), ts.metrics, t.TempDir(), time.Minute)
	t.Cleanup(ts.handler.Shutdown)
	ts.router = newRouter(ts.handler, &config.Config{}, zap.NewNop(), ts.metrics)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

const (
	conflictsCSV  = "course1,course2,weight\nCOMPSCI 121,ECON 10A,3\n"
	scheduleCSV   = "SUBJECT,CATALOG,Mtg Start,Mtg End,Mon,Tues,Wed,Thurs,Fri,Sat,Sun\nECON,10A,10:30 AM,11:45 AM,Y,N,N,N,N,N,N\nSTAT,110,11:00 AM,12:15 PM,Y,N,N,N,N,N,N\n"
	enrollmentCSV = "courses,count\nCOMPSCI 121;ECON 10A,7\n"
	coursesCSV    = "course,frequency,duration,candidates\nCOMPSCI 121,1,1,M1a;M3a\n"
)

func multipartRequest(t *testing.T, path string, files map[string]string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		fw, err := mw.CreateFormFile(name, name+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
	Meta  map[string]any   `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestPostScheduleRunsInBackground(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(multipartRequest(t, "/schedule", map[string]string{
		"conflicts":  conflictsCSV,
		"schedule":   scheduleCSV,
		"enrollment": enrollmentCSV,
		"courses":    coursesCSV,
	}, map[string]string{"area": "COMPSCI"}))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var created struct {
		ID     string          `json:"id"`
		Status model.RunStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, model.RunInProgress, created.Status)

	ts.handler.Wait()

	w = ts.do(httptest.NewRequest(http.MethodGet, "/schedule/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var run model.Run
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &run))
	assert.Equal(t, model.RunSuccess, run.Status)
	require.NotNil(t, run.Data)
	assert.Contains(t, *run.Data, "COMPSCI 121")
	assert.NotContains(t, *run.Data, "ECON 10A")
	require.NotNil(t, run.Report)
	assert.Contains(t, string(*run.Report), `"valid":true`)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/schedule/"+created.ID+"?format=csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "CourseCode,DayWeek,Start,End,Campus")

	w = ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `schedule_runs_total{status="success"} 1`)
}

func TestPostScheduleFailedRun(t *testing.T) {
	ts := newTestServer(t)

	// No fixed record to infer a pattern from, so nothing is left to place.
	w := ts.do(multipartRequest(t, "/schedule", map[string]string{
		"conflicts":  conflictsCSV,
		"schedule":   scheduleCSV,
		"enrollment": enrollmentCSV,
		"courses":    "course\nCOMPSCI 999\n",
	}, nil))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	ts.handler.Wait()

	runs, err := ts.runs.List(context.Background(), model.RunFilter{Status: model.RunFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Report)
	assert.Contains(t, string(*runs[0].Report), "NOTHING_TO_SCHEDULE")
	assert.Contains(t, string(*runs[0].Report), string(model.WarnUninferablePattern))
}

func TestPostScheduleValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(multipartRequest(t, "/schedule", map[string]string{
		"conflicts": conflictsCSV,
		"schedule":  scheduleCSV,
	}, nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	// Without a courses file, all_allston must be set.
	w = ts.do(multipartRequest(t, "/schedule", map[string]string{
		"conflicts":  conflictsCSV,
		"schedule":   scheduleCSV,
		"enrollment": enrollmentCSV,
	}, nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.runs.runs)
}

func TestListGetAndDeleteRuns(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	done := &model.Run{}
	require.NoError(t, ts.runs.Create(ctx, done))
	require.NoError(t, ts.runs.Complete(ctx, done.ID, "CourseCode\n", map[string]int{"round_trips": 2}, nil))
	pending := &model.Run{}
	require.NoError(t, ts.runs.Create(ctx, pending))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/schedule", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w).Meta["count"])

	w = ts.do(httptest.NewRequest(http.MethodGet, "/schedule?status=success", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, done.ID, runs[0].ID)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/schedule?status=lost", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/schedule/"+pending.ID+"?format=csv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodDelete, "/schedule/"+done.ID, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(httptest.NewRequest(http.MethodGet, "/schedule/"+done.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
	w = ts.do(httptest.NewRequest(http.MethodDelete, "/schedule/"+done.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostScoreUsesCache(t *testing.T) {
	ts := newTestServer(t)
	files := map[string]string{
		"conflicts":  "course1,course2,weight\nECON 10A,STAT 110,6\n",
		"schedule":   scheduleCSV,
		"enrollment": enrollmentCSV,
	}

	w := ts.do(multipartRequest(t, "/score", files, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.Equal(t, false, env.Meta["cached"])
	var report struct {
		Score struct {
			ConflictScore float64 `json:"conflict_score"`
		} `json:"score"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 6.0, report.Score.ConflictScore)
	assert.Equal(t, 1, ts.cache.sets)

	w = ts.do(multipartRequest(t, "/score", files, nil))
	require.Equal(t, http.StatusOK, w.Code)
	env = decode(t, w)
	assert.Equal(t, true, env.Meta["cached"])
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 6.0, report.Score.ConflictScore)
	assert.Equal(t, 1, ts.cache.sets)

	w = ts.do(multipartRequest(t, "/score", map[string]string{
		"conflicts":  "",
		"schedule":   scheduleCSV,
		"enrollment": enrollmentCSV,
	}, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
