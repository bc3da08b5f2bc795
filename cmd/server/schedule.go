package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/csvio"
	"github.com/rhyrak/allston-schedule/internal/scheduler"
	"github.com/rhyrak/allston-schedule/internal/service"
	appErrors "github.com/rhyrak/allston-schedule/pkg/errors"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// storeTimeout bounds the writes that record a finished run.
const storeTimeout = 10 * time.Second

type runFailure struct {
	Error    *appErrors.Error `json:"error"`
	Detail   string           `json:"detail"`
	Warnings []model.Warning  `json:"warnings,omitempty"`
}

type runReport struct {
	*csvio.ScoreReport
	Valid      bool   `json:"valid"`
	Validation string `json:"validation"`
}

// execute loads the saved uploads, solves, and stores the outcome.
func (h *Handler) execute(id string, sc *scheduler.Configuration, area string) {
	logr := h.logger.With(zap.String("run_id", id))
	logr.Info("run started")

	in, err := csvio.LoadInputs(sc)
	if err != nil {
		h.finishFailed(id, err, nil)
		return
	}
	out, err := service.NewScheduleService(sc, logr, h.metrics).Solve(h.ctx, in)
	if err != nil {
		h.finishFailed(id, err, out.Warnings)
		return
	}

	data, err := csvio.ExportScheduleString(out.Brief(sc.Locator(), area))
	if err != nil {
		h.finishFailed(id, err, out.Warnings)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	report := runReport{ScoreReport: out.Report, Valid: out.Valid, Validation: out.Validation}
	if err := h.runs.Complete(ctx, id, data, out.Result.Best.Simple, report); err != nil {
		logr.Error("failed to store run", zap.Error(err))
		return
	}
	h.metrics.RunFinished(string(model.RunSuccess))
	logr.Info("run finished", zap.Stringer("score", out.Result.Best.Simple), zap.Bool("valid", out.Valid))
}

func (h *Handler) finishFailed(id string, cause error, warnings model.Diagnostics) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	h.metrics.RunFinished(string(model.RunFailed))
	h.logger.Warn("run failed", zap.String("run_id", id), zap.Error(cause))
	report := runFailure{Error: appErrors.FromError(cause), Detail: cause.Error(), Warnings: warnings}
	if err := h.runs.Fail(ctx, id, report); err != nil {
		h.logger.Error("failed to store run", zap.String("run_id", id), zap.Error(err))
	}
}
