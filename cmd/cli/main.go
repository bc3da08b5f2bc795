package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/config"
	"github.com/rhyrak/allston-schedule/internal/logger"
	"github.com/rhyrak/allston-schedule/internal/scheduler"
)

// Program parameters, overridable by flags.
type options struct {
	conflictsFile    string
	scheduleFile     string
	enrollmentFile   string
	coursesFile      string
	largeCoursesFile string
	exportFile       string
	scoreFile        string
	metricsFile      string

	allAllston     bool
	convertAllston bool
	registrar      bool
	print          bool
	area           string

	solveTimeLimit time.Duration
	searchBudget   time.Duration
	frontierSize   int

	frequency int
	duration  int
	campus    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmdSchedule := &cobra.Command{
		Use:   "allston-schedule",
		Short: "Course meeting time scheduler",
		Long: "Places courses in the weekly slot grid while keeping historically\n" +
			"co-enrolled courses apart, limiting trips to Allston and protecting lunch",
		SilenceUsage: true,
	}
	cmdSchedule.PersistentFlags().StringVar(&opts.conflictsFile, "conflicts", "", "bad course conflicts CSV")
	cmdSchedule.PersistentFlags().StringVar(&opts.scheduleFile, "schedule", "", "registrar schedule CSV")
	cmdSchedule.PersistentFlags().StringVar(&opts.enrollmentFile, "enrollment", "", "enrollment records CSV")
	cmdSchedule.PersistentFlags().BoolVar(&opts.convertAllston, "convert-allston", false, "move Allston courses in the schedule onto the Allston clock")
	cmdSchedule.PersistentFlags().StringVar(&opts.scoreFile, "score-file", "", "write the score report as JSON to this file")
	cmdSchedule.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")

	cmdSolve := &cobra.Command{
		Use:   "solve",
		Short: "place the requested courses and write the schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, opts)
		},
	}
	cmdSolve.Flags().StringVar(&opts.coursesFile, "courses", "", "courses to schedule CSV")
	cmdSolve.Flags().StringVar(&opts.largeCoursesFile, "large-courses", "", "large courses CSV; their mutual conflicts always count")
	cmdSolve.Flags().StringVarP(&opts.exportFile, "out", "o", "", "output CSV file")
	cmdSolve.Flags().BoolVar(&opts.allAllston, "all-allston", false, "reschedule every Allston course in the registrar schedule")
	cmdSolve.Flags().BoolVar(&opts.registrar, "registrar", false, "write the registrar layout instead of the brief one")
	cmdSolve.Flags().BoolVarP(&opts.print, "print", "p", false, "print the schedule")
	cmdSolve.Flags().StringVar(&opts.area, "area", "", "only output courses of this subject")
	cmdSolve.Flags().DurationVarP(&opts.solveTimeLimit, "time-limit", "t", 0, "time limit for one solver call")
	cmdSolve.Flags().DurationVarP(&opts.searchBudget, "budget", "b", 0, "total time to spend repairing the schedule")
	cmdSolve.Flags().IntVar(&opts.frontierSize, "frontier", 0, "maximum number of schedules waiting to be expanded")
	cmdSchedule.AddCommand(cmdSolve)

	cmdScore := &cobra.Command{
		Use:   "score",
		Short: "score the registrar schedule as it stands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, opts)
		},
	}
	cmdSchedule.AddCommand(cmdScore)

	cmdCatalog := &cobra.Command{
		Use:   "catalog",
		Short: "list the legal meeting times of a pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd, opts)
		},
	}
	cmdCatalog.Flags().IntVarP(&opts.frequency, "frequency", "f", 0, "meetings per week (0 lists every pattern)")
	cmdCatalog.Flags().IntVarP(&opts.duration, "duration", "d", 1, "consecutive periods per meeting")
	cmdCatalog.Flags().StringVarP(&opts.campus, "campus", "c", "allston", "campus clock: allston or cambridge")
	cmdSchedule.AddCommand(cmdCatalog)

	return cmdSchedule
}

// setup loads the environment and builds the engine configuration, with
// flags taking precedence.
func setup(opts *options) (*config.Config, *scheduler.Configuration, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	sc := scheduler.NewDefaultConfiguration()
	cfg.Apply(sc)
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&sc.ConflictsFile, opts.conflictsFile)
	override(&sc.ScheduleFile, opts.scheduleFile)
	override(&sc.EnrollmentFile, opts.enrollmentFile)
	override(&sc.CoursesFile, opts.coursesFile)
	override(&sc.LargeCoursesFile, opts.largeCoursesFile)
	override(&sc.ExportFile, opts.exportFile)
	override(&sc.ScoreFile, opts.scoreFile)
	if opts.metricsFile == "" {
		opts.metricsFile = cfg.Metrics.File
	}
	if opts.solveTimeLimit > 0 {
		sc.SolveTimeLimit = opts.solveTimeLimit
	}
	if opts.searchBudget > 0 {
		sc.SearchBudget = opts.searchBudget
	}
	if opts.frontierSize > 0 {
		sc.FrontierSize = opts.frontierSize
	}
	sc.AllAllston = opts.allAllston
	sc.ConvertAllston = opts.convertAllston
	return cfg, sc, logr, nil
}
