package scheduler

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/rhyrak/allston-schedule/internal/slots"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

var (
	ErrPrecondition      = errors.New("precondition failed")
	ErrInfeasibleBase    = errors.New("base problem is infeasible")
	ErrNoInitialSolution = errors.New("no initial solution within the solve time limit")
	ErrNothingToSchedule = errors.New("no courses to schedule")
)

const minutesPerSlot = 90

// InferPattern guesses how often and for how many periods a course meets
// from its existing records. ok is false when the guess is not in the
// catalog.
func InferPattern(times []model.CourseTime) (p model.Pattern, ok bool) {
	if len(times) == 0 {
		return p, false
	}
	if len(times) == 1 {
		p = model.Pattern{
			Frequency: len(times[0].MeetingDays()),
			Duration:  slotsFor(times[0].Minutes()),
		}
		return p, slots.IsSupported(p)
	}
	days := map[model.Day]bool{}
	shortest := math.MaxInt
	for _, ct := range times {
		for _, d := range ct.MeetingDays() {
			days[d] = true
		}
		shortest = min(shortest, ct.Minutes())
	}
	p = model.Pattern{Frequency: len(days), Duration: slotsFor(shortest)}
	return p, slots.IsSupported(p)
}

func slotsFor(minutes int) int {
	return int(math.Ceil(float64(minutes) / minutesPerSlot))
}

// PrepareRequests resolves the request list against the fixed schedule:
// patterns are inferred where missing, duplicates and unsupported patterns
// are dropped with a warning, and every requested course is taken out of
// the returned fixed schedule. With AllAllston every fixed Allston course
// that is not requested explicitly is requested with an inferred pattern.
func PrepareRequests(cfg *Configuration, requests []model.Request, fixed model.Schedule) ([]model.Request, model.Schedule, model.Diagnostics) {
	var (
		diags model.Diagnostics
		out   []model.Request
	)
	seen := map[model.CourseName]bool{}
	locator := cfg.Locator()

	add := func(r model.Request) {
		if seen[r.Course] {
			diags.Add(model.WarnDuplicateRequest, r.Course, "listed more than once; keeping the first entry")
			return
		}
		seen[r.Course] = true
		if r.Pattern == (model.Pattern{}) {
			p, ok := InferPattern(fixed[r.Course])
			if !ok {
				diags.Add(model.WarnUninferablePattern, r.Course,
					"meets %s, don't know how to deal with it; ignoring it", describe(fixed[r.Course]))
				return
			}
			r.Pattern, r.Inferred = p, true
		}
		if !slots.IsSupported(r.Pattern) {
			diags.Add(model.WarnUnsupportedPattern, r.Course,
				"don't know how to schedule a course that meets %d a week for %d slots", r.Pattern.Frequency, r.Pattern.Duration)
			return
		}
		out = append(out, r)
	}

	for _, r := range requests {
		add(r)
	}
	if cfg.AllAllston {
		for _, cn := range fixed.Names() {
			// An explicit request for the course wins.
			if locator.InAllston(cn) && !seen[cn] {
				add(model.Request{Course: cn})
			}
		}
	}

	names := make([]model.CourseName, len(out))
	for i, r := range out {
		names[i] = r.Course
	}
	return out, fixed.Without(names...), diags
}

func describe(times []model.CourseTime) string {
	if len(times) == 0 {
		return "nowhere in the fixed schedule"
	}
	parts := make([]string, len(times))
	for i, ct := range times {
		parts[i] = ct.String()
	}
	slices.Sort(parts)
	return strings.Join(parts, ";")
}
