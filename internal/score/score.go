// Package score measures how a course schedule treats historical student
// schedules: pairwise conflicts, trips to Allston and days without lunch.
package score

import (
	"cmp"
	"slices"

	"github.com/rhyrak/allston-schedule/pkg/clock"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

var (
	LunchWindow   = clock.Interval{Start: 11 * 60, End: 14 * 60}
	LunchDuration = clock.Minutes(30)
)

// Input is everything a score is computed from. CoursesToCount, when
// non-nil, restricts conflict counting to pairs touching one of its
// courses, unless both courses of the pair are in LargeCourses.
type Input struct {
	Schedule       model.Schedule
	Conflicts      *model.ConflictTable
	Enrollment     *model.Enrollment
	Locator        *model.CampusLocator
	CoursesToCount map[model.CourseName]bool
	LargeCourses   map[model.CourseName]bool
}

type Result struct {
	Score          Score
	RoundTripBlame *Blame
	LunchBlame     *Blame
	Conflicts      []ConflictHit
}

// ConflictHit is a pair of scheduled courses that meet at the same time.
type ConflictHit struct {
	A      model.CourseName   `json:"a"`
	B      model.CourseName   `json:"b"`
	Weight int                `json:"weight"`
	TimesA []model.CourseTime `json:"-"`
	TimesB []model.CourseTime `json:"-"`
}

type event struct {
	interval clock.Interval
	campus   model.Campus
	course   model.CourseName
}

type studentWeek struct {
	courses []model.CourseName
	allston int
	days    [model.NumDays][]event
	count   int
}

// Compute scores a schedule. Students whose courses are missing from the
// schedule are scored on the courses that are present.
func Compute(in Input) Result {
	weeks := buildWeeks(in)

	var s Score
	var res Result
	s.ConflictScore, res.Conflicts = conflictScore(in)

	s.TransportDays, s.TransportWeeks, res.RoundTripBlame = countRoundTrips(weeks)
	for trips, n := range s.TransportWeeks {
		s.TotalRoundTrips += trips * n
	}

	s.NoLunch, _ = countNoLunches(weeks, false, false)
	s.NoLunchAllstonStudents, _ = countNoLunches(weeks, true, false)
	s.NoLunchDueToAllston, res.LunchBlame = countNoLunches(weeks, true, true)
	s.Simple = simpleScore(&s)

	res.Score = s
	return res
}

func buildWeeks(in Input) []studentWeek {
	entries := in.Enrollment.Entries()
	weeks := make([]studentWeek, 0, len(entries))
	for _, e := range entries {
		w := studentWeek{count: e.Count}
		for _, cn := range e.Set.Names() {
			times, ok := in.Schedule[cn]
			if !ok {
				continue
			}
			w.courses = append(w.courses, cn)
			campus := in.Locator.Locate(cn)
			if campus == model.Allston {
				w.allston++
			}
			for _, ct := range times {
				for _, d := range ct.MeetingDays() {
					w.days[d] = append(w.days[d], event{interval: ct.Interval(), campus: campus, course: cn})
				}
			}
		}
		for d := range w.days {
			slices.SortFunc(w.days[d], compareEvents)
		}
		weeks = append(weeks, w)
	}
	return weeks
}

// compareEvents orders a day by start then end. On equal times Allston
// comes before Cambridge.
func compareEvents(a, b event) int {
	return cmp.Or(
		cmp.Compare(a.interval.Start, b.interval.Start),
		cmp.Compare(a.interval.End, b.interval.End),
		cmp.Compare(b.campus, a.campus),
		cmp.Compare(a.course, b.course),
	)
}

func conflictScore(in Input) (float64, []ConflictHit) {
	var (
		total float64
		hits  []ConflictHit
	)
	if in.Conflicts == nil {
		return 0, nil
	}
	for _, p := range in.Conflicts.Pairs() {
		ta, okA := in.Schedule[p.A]
		tb, okB := in.Schedule[p.B]
		if !okA || !okB {
			continue
		}
		if in.CoursesToCount != nil && !in.CoursesToCount[p.A] && !in.CoursesToCount[p.B] &&
			!(in.LargeCourses[p.A] && in.LargeCourses[p.B]) {
			continue
		}
		if model.TimesConflict(ta, tb) {
			total += float64(p.Weight)
			hits = append(hits, ConflictHit{A: p.A, B: p.B, Weight: p.Weight, TimesA: ta, TimesB: tb})
		}
	}
	slices.SortStableFunc(hits, func(a, b ConflictHit) int {
		return cmp.Compare(a.Weight, b.Weight)
	})
	return total, hits
}

// countRoundTrips walks each day starting in Cambridge; every move into
// Allston is one round trip. Days with more than one trip blame the day's
// Allston courses.
func countRoundTrips(weeks []studentWeek) (map[string]Histogram, Histogram, *Blame) {
	days := make(map[string]Histogram, model.NumDays)
	for d := model.Day(0); d < model.NumDays; d++ {
		days[d.String()] = NewHistogram(3)
	}
	week := NewHistogram(8)
	blame := NewBlame()

	for _, w := range weeks {
		weekTrips := 0
		for d, events := range w.days {
			trips := 0
			at := model.Cambridge
			for _, e := range events {
				if e.campus != at {
					at = e.campus
					if at == model.Allston {
						trips++
					}
				}
			}
			weekTrips += trips
			if trips > 1 {
				var culprits []model.CourseName
				for _, e := range events {
					if e.campus == model.Allston {
						culprits = append(culprits, e.course)
					}
				}
				blame.Add(model.NewCourseSet(culprits...), w.count)
			}
			days[model.Day(d).String()].Add(trips, w.count)
		}
		week.Add(weekTrips, w.count)
	}
	return days, week, blame
}

// countNoLunches builds the histogram of students by number of days with no
// 30 minute gap inside the lunch window. onlyAllston skips students with no
// Allston course. dueToAllston only counts days where Cambridge courses
// leave room for lunch and Allston courses then take it away.
func countNoLunches(weeks []studentWeek, onlyAllston, dueToAllston bool) (Histogram, *Blame) {
	hist := NewHistogram(8)
	blame := NewBlame()

	for _, w := range weeks {
		if onlyAllston && w.allston == 0 {
			continue
		}
		noLunch := 0
		for _, events := range w.days {
			avail := []clock.Interval{LunchWindow}
			for _, e := range events {
				if e.campus == model.Cambridge {
					avail = clock.Subtract(avail, e.interval)
				}
			}
			if !clock.HasGap(avail, LunchDuration) {
				if !dueToAllston {
					noLunch++
				}
				continue
			}

			var culprits []model.CourseName
			for _, e := range events {
				if e.campus != model.Allston {
					continue
				}
				next := clock.Subtract(avail, e.interval)
				if !clock.Equal(avail, next) {
					culprits = append(culprits, e.course)
				}
				avail = next
			}
			if !clock.HasGap(avail, LunchDuration) {
				noLunch++
				blame.Add(model.NewCourseSet(culprits...), w.count)
			}
		}
		hist.Add(noLunch, w.count)
	}
	return hist, blame
}
