package score

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/rhyrak/allston-schedule/pkg/model"
)

// Histogram maps a count (trips, days) to the number of students with it.
type Histogram map[int]int

// NewHistogram pre-seeds keys 0..n-1 with zero.
func NewHistogram(n int) Histogram {
	h := make(Histogram, n)
	for i := 0; i < n; i++ {
		h[i] = 0
	}
	return h
}

func (h Histogram) Add(k, n int) {
	h[k] += n
}

// Score is the full breakdown of a schedule's cost to students.
type Score struct {
	ConflictScore          float64              `json:"conflict_score"`
	TransportDays          map[string]Histogram `json:"transport_days"`
	TransportWeeks         Histogram            `json:"transport_weeks"`
	TotalRoundTrips        int                  `json:"total_round_trips"`
	NoLunch                Histogram            `json:"no_lunch"`
	NoLunchAllstonStudents Histogram            `json:"no_lunch_allston_students"`
	NoLunchDueToAllston    Histogram            `json:"no_lunch_due_to_allston"`
	Simple                 Simple               `json:"simple_score"`
}

// Simple orders schedules: lower is better, compared field by field.
type Simple struct {
	Conflicts  float64 `json:"conflicts"`
	RoundTrips int     `json:"round_trips"`
	Lunch      float64 `json:"lunch"`
}

func (s Simple) Compare(o Simple) int {
	return cmp.Or(
		cmp.Compare(s.Conflicts, o.Conflicts),
		cmp.Compare(s.RoundTrips, o.RoundTrips),
		cmp.Compare(s.Lunch, o.Lunch),
	)
}

func (s Simple) Less(o Simple) bool {
	return s.Compare(o) < 0
}

func (s Simple) String() string {
	return fmt.Sprintf("(%g, %d, %.1f)", s.Conflicts, s.RoundTrips, s.Lunch)
}

// lunchWeights[i] weighs students losing lunch on i days.
var lunchWeights = [...]float64{0, 1, 2.1, 3.2, 4.3, 5.4}

// simpleScore is (conflict score, student-days with two or three round
// trips, weighted lunch-loss days plus one-trip student-days).
func simpleScore(s *Score) Simple {
	out := Simple{Conflicts: s.ConflictScore}
	for _, day := range s.TransportDays {
		out.RoundTrips += day[2] + day[3]
		out.Lunch += float64(day[1])
	}
	for days := len(lunchWeights) - 1; days > 0; days-- {
		out.Lunch += lunchWeights[days] * float64(s.NoLunchDueToAllston[days])
	}
	return out
}

type blameEntry struct {
	set   model.CourseSet
	count int
}

// Blame accumulates student counts against the course sets responsible
// for a bad day.
type Blame struct {
	entries map[string]*blameEntry
}

func NewBlame() *Blame {
	return &Blame{entries: map[string]*blameEntry{}}
}

func (b *Blame) Add(set model.CourseSet, n int) {
	if e, ok := b.entries[set.Key()]; ok {
		e.count += n
		return
	}
	b.entries[set.Key()] = &blameEntry{set: set, count: n}
}

func (b *Blame) Count(set model.CourseSet) int {
	if e, ok := b.entries[set.Key()]; ok {
		return e.count
	}
	return 0
}

func (b *Blame) Len() int {
	return len(b.entries)
}

// Top returns up to k sets, most blamed first, ties broken by key.
func (b *Blame) Top(k int) []model.CourseSet {
	all := make([]*blameEntry, 0, len(b.entries))
	for _, e := range b.entries {
		all = append(all, e)
	}
	slices.SortFunc(all, func(x, y *blameEntry) int {
		return cmp.Or(cmp.Compare(y.count, x.count), cmp.Compare(x.set.Key(), y.set.Key()))
	})
	if k > len(all) {
		k = len(all)
	}
	out := make([]model.CourseSet, k)
	for i := range out {
		out[i] = all[i].set
	}
	return out
}
