package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/csvio"
	"github.com/rhyrak/allston-schedule/internal/metrics"
	"github.com/rhyrak/allston-schedule/internal/service"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

func runSolve(cmd *cobra.Command, opts *options) error {
	_, sc, logr, err := setup(opts)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	if err := sc.Validate(); err != nil {
		return err
	}
	if sc.CoursesFile == "" && !sc.AllAllston {
		return errors.New("nothing to schedule: pass --courses or --all-allston")
	}

	in, err := csvio.LoadInputs(sc)
	if err != nil {
		return err
	}
	logWarnings(logr, in.Warnings)

	m := metrics.New()
	svc := service.NewScheduleService(sc, logr, m)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	out, err := svc.Solve(ctx, in)
	if err != nil {
		m.RunFinished(string(model.RunFailed))
		writeMetrics(logr, m, opts.metricsFile)
		return err
	}
	m.RunFinished(string(model.RunSuccess))
	defer writeMetrics(logr, m, opts.metricsFile)

	// Write newly created schedule to disk
	locator := sc.Locator()
	if opts.registrar {
		err = csvio.ExportSchedule(out.Registrar(locator, opts.area), sc.ExportFile)
	} else {
		err = csvio.ExportSchedule(out.Brief(locator, opts.area), sc.ExportFile)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.print {
		csvio.PrintSchedule(w, out.Brief(locator, opts.area))
		fmt.Fprintln(w)
	}

	if !out.Valid {
		fmt.Fprintln(w, "Invalid schedule:")
	} else {
		fmt.Fprintln(w, "Passed all tests")
	}
	fmt.Fprint(w, out.Validation)
	fmt.Fprintln(w)

	res := out.Result
	fmt.Fprintf(w, "Initial score: %s\n", res.Initial.Simple)
	fmt.Fprintf(w, "Best score: %s\n", res.Best.Simple)
	fmt.Fprintf(w, "Solves: %d\n", res.Solves)
	fmt.Fprintf(w, "Expanded: %d\n", res.Expanded)
	fmt.Fprintf(w, "Warnings: %d\n", len(out.Warnings))
	fmt.Fprintf(w, "Timer: %f ms\n", float64(time.Since(start).Microseconds())/1000.0)
	fmt.Fprintln(w, "Exported output to: "+sc.ExportFile)

	if sc.ScoreFile != "" {
		if err := csvio.ExportScore(out.Report, sc.ScoreFile); err != nil {
			return err
		}
		fmt.Fprintln(w, "Exported score to: "+sc.ScoreFile)
	}
	return nil
}

func runScore(cmd *cobra.Command, opts *options) error {
	_, sc, logr, err := setup(opts)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	// Requests play no part in a plain score.
	sc.CoursesFile = ""
	in, err := csvio.LoadInputs(sc)
	if err != nil {
		return err
	}
	logWarnings(logr, in.Warnings)

	m := metrics.New()
	report := service.NewScheduleService(sc, logr, m).Score(in)
	defer writeMetrics(logr, m, opts.metricsFile)

	w := cmd.OutOrStdout()
	if sc.ScoreFile == "" {
		return csvio.WriteScore(w, report)
	}
	if err := csvio.ExportScore(report, sc.ScoreFile); err != nil {
		return err
	}
	fmt.Fprintf(w, "Score: %s\n", report.Score.Simple)
	fmt.Fprintln(w, "Exported score to: "+sc.ScoreFile)
	return nil
}

func logWarnings(logr *zap.Logger, warnings model.Diagnostics) {
	for _, w := range warnings {
		logr.Warn(w.Message, zap.String("code", string(w.Code)), zap.String("course", string(w.Course)))
	}
}

func writeMetrics(logr *zap.Logger, m *metrics.Metrics, path string) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logr.Warn("failed to write metrics", zap.String("path", path), zap.Error(err))
	}
}
