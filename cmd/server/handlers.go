package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/csvio"
	"github.com/rhyrak/allston-schedule/internal/metrics"
	"github.com/rhyrak/allston-schedule/internal/repository"
	"github.com/rhyrak/allston-schedule/internal/scheduler"
	"github.com/rhyrak/allston-schedule/internal/service"
	appErrors "github.com/rhyrak/allston-schedule/pkg/errors"
	"github.com/rhyrak/allston-schedule/pkg/model"
	"github.com/rhyrak/allston-schedule/pkg/response"
)

type runStore interface {
	Create(ctx context.Context, run *model.Run) error
	Complete(ctx context.Context, id, data string, score, report any) error
	Fail(ctx context.Context, id string, report any) error
	GetByID(ctx context.Context, id string) (*model.Run, error)
	List(ctx context.Context, filter model.RunFilter) ([]model.Run, error)
	Delete(ctx context.Context, id string) error
}

type scoreCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Handler serves the scheduling API. Submitted runs execute in the
// background until Shutdown.
type Handler struct {
	runs     runStore
	cache    scoreCache
	base     *scheduler.Configuration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	workDir  string
	scoreTTL time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHandler(runs runStore, cache scoreCache, base *scheduler.Configuration, logger *zap.Logger,
	m *metrics.Metrics, workDir string, scoreTTL time.Duration) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		runs:     runs,
		cache:    cache,
		base:     base,
		logger:   logger,
		metrics:  m,
		workDir:  workDir,
		scoreTTL: scoreTTL,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Wait blocks until every background run has been stored.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// Shutdown stops the searches in flight, which then store their best
// schedule so far, and waits for them.
func (h *Handler) Shutdown() {
	h.cancel()
	h.wg.Wait()
}

type submitForm struct {
	Conflicts  *multipart.FileHeader `form:"conflicts" binding:"required"`
	Schedule   *multipart.FileHeader `form:"schedule" binding:"required"`
	Enrollment *multipart.FileHeader `form:"enrollment" binding:"required"`
	Courses    *multipart.FileHeader `form:"courses" binding:"required_without=AllAllston"`
	Large      *multipart.FileHeader `form:"large"`
	Area       string                `form:"area" binding:"omitempty,max=16"`
	AllAllston bool                  `form:"all_allston"`
	Convert    bool                  `form:"convert_allston"`
}

func (h *Handler) handlePostSchedule(c *gin.Context) {
	var form submitForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	run := &model.Run{Area: form.Area}
	if err := h.runs.Create(c.Request.Context(), run); err != nil {
		response.Error(c, err)
		return
	}

	dir := filepath.Join(h.workDir, run.ID)
	sc, err := h.saveUploads(c, dir, form)
	if err != nil {
		os.RemoveAll(dir)
		h.finishFailed(run.ID, err, nil)
		response.Error(c, err)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer os.RemoveAll(dir)
		h.execute(run.ID, sc, form.Area)
	}()

	response.JSON(c, http.StatusAccepted, gin.H{"id": run.ID, "status": run.Status})
}

// saveUploads stores the submitted files under dir and returns the engine
// configuration that reads them.
func (h *Handler) saveUploads(c *gin.Context, dir string, form submitForm) (*scheduler.Configuration, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	sc := *h.base
	sc.AllAllston = form.AllAllston
	sc.ConvertAllston = form.Convert
	sc.CoursesFile = ""
	sc.LargeCoursesFile = ""

	files := []struct {
		header *multipart.FileHeader
		dst    *string
		name   string
	}{
		{form.Conflicts, &sc.ConflictsFile, "conflicts.csv"},
		{form.Schedule, &sc.ScheduleFile, "schedule.csv"},
		{form.Enrollment, &sc.EnrollmentFile, "enrollment.csv"},
		{form.Courses, &sc.CoursesFile, "courses.csv"},
		{form.Large, &sc.LargeCoursesFile, "large.csv"},
	}
	for _, f := range files {
		if f.header == nil {
			continue
		}
		path := filepath.Join(dir, f.name)
		if err := c.SaveUploadedFile(f.header, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", f.name, err)
		}
		*f.dst = path
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (h *Handler) handleGetSchedule(c *gin.Context) {
	var query struct {
		Status string `form:"status" binding:"omitempty,oneof='in progress' success failed"`
		Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
		Offset int    `form:"offset" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	runs, err := h.runs.List(c.Request.Context(), model.RunFilter{
		Status: model.RunStatus(query.Status),
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, map[string]any{"count": len(runs)})
}

func (h *Handler) handleGetScheduleWithID(c *gin.Context) {
	run, err := h.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("format") == "csv" {
		if run.Data == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "run has no schedule yet"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-schedule.csv", run.ID))
		c.Data(http.StatusOK, "text/csv", []byte(*run.Data))
		return
	}
	response.JSON(c, http.StatusOK, run)
}

func (h *Handler) handleDeleteSchedule(c *gin.Context) {
	if err := h.runs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type scoreForm struct {
	Conflicts  *multipart.FileHeader `form:"conflicts" binding:"required"`
	Schedule   *multipart.FileHeader `form:"schedule" binding:"required"`
	Enrollment *multipart.FileHeader `form:"enrollment" binding:"required"`
	Convert    bool                  `form:"convert_allston"`
}

// handlePostScore scores an uploaded schedule as it stands. Reports are
// cached by the digest of the uploads.
func (h *Handler) handlePostScore(c *gin.Context) {
	var form scoreForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	var parts [3][]byte
	for i, fh := range []*multipart.FileHeader{form.Conflicts, form.Schedule, form.Enrollment} {
		data, err := readUpload(fh)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
		parts[i] = data
	}
	key := repository.ScoreKey(parts[0], parts[1], parts[2], []byte(fmt.Sprint(form.Convert)))

	ctx := c.Request.Context()
	var cached csvio.ScoreReport
	err := h.cache.Get(ctx, key, &cached)
	if err == nil {
		h.metrics.RecordCacheOperation(true)
		response.JSON(c, http.StatusOK, &cached, map[string]any{"cached": true})
		return
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		h.logger.Warn("score cache unavailable", zap.Error(err))
	}
	h.metrics.RecordCacheOperation(false)

	sc := *h.base
	sc.ConvertAllston = form.Convert
	in, err := readScoreInputs(&sc, parts[0], parts[1], parts[2])
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	report := service.NewScheduleService(&sc, h.logger, h.metrics).Score(in)

	if err := h.cache.Set(ctx, key, report, h.scoreTTL); err != nil {
		h.logger.Warn("failed to cache score", zap.Error(err))
	}
	response.JSON(c, http.StatusOK, report, map[string]any{"cached": false})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func readScoreInputs(sc *scheduler.Configuration, conflicts, schedule, enrollment []byte) (*csvio.Inputs, error) {
	l := csvio.NewLoader(sc)
	in := &csvio.Inputs{}

	var err error
	var diags model.Diagnostics
	if in.Conflicts, diags, err = l.ReadConflicts(bytes.NewReader(conflicts)); err != nil {
		return nil, fmt.Errorf("conflicts: %w", err)
	}
	in.Warnings = append(in.Warnings, diags...)
	if in.Fixed, diags, err = l.ReadFixedSchedule(bytes.NewReader(schedule)); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	in.Warnings = append(in.Warnings, diags...)
	known := csvio.KnownCourses(in.Fixed, nil)
	if in.Enrollment, diags, err = l.ReadEnrollment(bytes.NewReader(enrollment), known); err != nil {
		return nil, fmt.Errorf("enrollment: %w", err)
	}
	in.Warnings = append(in.Warnings, diags...)
	return in, nil
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
