package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/csvio"
	"github.com/rhyrak/allston-schedule/internal/lp"
	"github.com/rhyrak/allston-schedule/internal/metrics"
	"github.com/rhyrak/allston-schedule/internal/scheduler"
	"github.com/rhyrak/allston-schedule/internal/score"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// ScheduleService runs the engine over loaded inputs and shapes the outputs
// shared by the CLI and the HTTP server.
type ScheduleService struct {
	cfg     *scheduler.Configuration
	solver  lp.Solver
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewScheduleService(cfg *scheduler.Configuration, logger *zap.Logger, m *metrics.Metrics) *ScheduleService {
	if cfg == nil {
		cfg = scheduler.NewDefaultConfiguration()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{cfg: cfg, solver: lp.NewPBSolver(), logger: logger, metrics: m}
}

func (s *ScheduleService) Config() *scheduler.Configuration {
	return s.cfg
}

// Outcome is a finished solve.
type Outcome struct {
	Input      scheduler.Input
	Result     *scheduler.Result
	Report     *csvio.ScoreReport
	Valid      bool
	Validation string
	// Warnings holds everything raised while loading, preparing and solving.
	Warnings model.Diagnostics
}

// Brief returns the brief CSV rows, filtered to area when it is set.
func (o *Outcome) Brief(locator *model.CampusLocator, area string) []*model.ScheduleCSVRow {
	return csvio.BriefRows(o.Result.Best.Assignment.Schedule(), o.Result.Fixed, locator, area)
}

func (o *Outcome) Registrar(locator *model.CampusLocator, area string) []*model.RegistrarCSVRow {
	return csvio.RegistrarRows(o.Result.Combined, locator, area)
}

// Solve prepares the request list against the fixed schedule and runs the
// repair search. On error the returned Outcome carries only the warnings
// raised so far.
func (s *ScheduleService) Solve(ctx context.Context, in *csvio.Inputs) (*Outcome, error) {
	requests, fixed, diags := scheduler.PrepareRequests(s.cfg, in.Requests, in.Fixed)
	warnings := append(append(model.Diagnostics{}, in.Warnings...), diags...)
	for _, w := range diags {
		s.logger.Warn(w.Message, zap.String("code", string(w.Code)), zap.String("course", string(w.Course)))
	}

	input := scheduler.Input{
		Requests:     requests,
		Fixed:        fixed,
		Conflicts:    in.Conflicts,
		Enrollment:   in.Enrollment,
		LargeCourses: in.LargeCourses,
	}
	engine := scheduler.NewEngine(s.cfg, s.solver, s.logger, s.metrics)
	res, err := engine.Run(ctx, input)
	if err != nil {
		return &Outcome{Input: input, Warnings: warnings}, err
	}
	warnings = append(warnings, res.Warnings...)

	valid, msg := scheduler.Validate(input, res, s.cfg)
	report := csvio.NewScoreReport(res)
	report.Warnings = warnings

	s.logger.Info("schedule solved",
		zap.Int("placed", len(res.Best.Assignment)),
		zap.Int("solves", res.Solves),
		zap.Int("expanded", res.Expanded),
		zap.Stringer("score", res.Best.Simple),
		zap.Duration("elapsed", res.Elapsed),
		zap.Bool("valid", valid),
	)
	return &Outcome{
		Input:      input,
		Result:     res,
		Report:     report,
		Valid:      valid,
		Validation: msg,
		Warnings:   warnings,
	}, nil
}

// Score rates the fixed schedule of in as it stands. Every conflicting pair
// counts.
func (s *ScheduleService) Score(in *csvio.Inputs) *csvio.ScoreReport {
	enrollment := in.Enrollment
	if enrollment == nil {
		enrollment = model.NewEnrollment()
	}
	res := score.Compute(score.Input{
		Schedule:   in.Fixed,
		Conflicts:  in.Conflicts,
		Enrollment: enrollment,
		Locator:    s.cfg.Locator(),
	})
	s.logger.Info("schedule scored", zap.Int("courses", len(in.Fixed)), zap.Stringer("score", res.Score.Simple))
	return &csvio.ScoreReport{
		Score:     res.Score,
		Warnings:  in.Warnings,
		Conflicts: res.Conflicts,
	}
}
