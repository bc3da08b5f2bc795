// Package slots is the catalog of teaching periods and the legal weekly
// meeting patterns built from them.
package slots

import (
	"errors"
	"fmt"

	"github.com/rhyrak/allston-schedule/pkg/clock"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

var ErrUnsupportedPattern = errors.New("unsupported meeting pattern")

// Period clocks. Allston periods run 45 minutes behind Cambridge so that
// students have time to cross the river.
var (
	cambridgeClock = [model.Periods]clock.Interval{
		{Start: clock.MustParse("09:00"), End: clock.MustParse("10:15")},
		{Start: clock.MustParse("10:30"), End: clock.MustParse("11:45")},
		{Start: clock.MustParse("12:00"), End: clock.MustParse("13:15")},
		{Start: clock.MustParse("13:30"), End: clock.MustParse("14:45")},
		{Start: clock.MustParse("15:00"), End: clock.MustParse("16:15")},
		{Start: clock.MustParse("16:30"), End: clock.MustParse("17:45")},
		{Start: clock.MustParse("18:00"), End: clock.MustParse("19:15")},
	}
	allstonClock = [model.Periods]clock.Interval{
		{Start: clock.MustParse("09:45"), End: clock.MustParse("11:00")},
		{Start: clock.MustParse("11:15"), End: clock.MustParse("12:30")},
		{Start: clock.MustParse("12:45"), End: clock.MustParse("14:00")},
		{Start: clock.MustParse("14:15"), End: clock.MustParse("15:30")},
		{Start: clock.MustParse("15:45"), End: clock.MustParse("17:00")},
		{Start: clock.MustParse("17:15"), End: clock.MustParse("18:30")},
		{Start: clock.MustParse("18:45"), End: clock.MustParse("20:00")},
	}
)

// Supported lists the catalogued patterns in a stable order.
var Supported = []model.Pattern{
	{Frequency: 1, Duration: 1},
	{Frequency: 1, Duration: 2},
	{Frequency: 2, Duration: 1},
	{Frequency: 2, Duration: 2},
	{Frequency: 3, Duration: 1},
}

var (
	everyDay = [][]model.Day{
		{model.Monday}, {model.Tuesday}, {model.Wednesday}, {model.Thursday}, {model.Friday},
	}
	dayPairs = [][]model.Day{
		{model.Monday, model.Wednesday},
		{model.Wednesday, model.Friday},
		{model.Monday, model.Friday},
		{model.Tuesday, model.Thursday},
	}
	mwf = [][]model.Day{{model.Monday, model.Wednesday, model.Friday}}

	singlePeriods = [][]int{{1}, {2}, {3}, {4}, {5}, {6}, {7}}
	// Double blocks once a week may run into the evening; twice a week
	// they may not.
	onceDoubleBlocks  = [][]int{{1, 2}, {3, 4}, {5, 6}, {6, 7}}
	twiceDoubleBlocks = [][]int{{1, 2}, {3, 4}, {5, 6}}
)

type shape struct {
	days    [][]model.Day
	periods [][]int
}

var catalog = map[model.Pattern]shape{
	{Frequency: 1, Duration: 1}: {everyDay, singlePeriods},
	{Frequency: 1, Duration: 2}: {everyDay, onceDoubleBlocks},
	{Frequency: 2, Duration: 1}: {dayPairs, singlePeriods},
	{Frequency: 2, Duration: 2}: {dayPairs, twiceDoubleBlocks},
	{Frequency: 3, Duration: 1}: {mwf, singlePeriods},
}

// IsSupported reports whether p is in the catalog.
func IsSupported(p model.Pattern) bool {
	_, ok := catalog[p]
	return ok
}

// LegalMeetingTimes enumerates the meeting times for p on campus c, grouped
// by day set and then by period block.
func LegalMeetingTimes(p model.Pattern, c model.Campus) ([]model.MeetingTime, error) {
	sh, ok := catalog[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d per week for %d periods", ErrUnsupportedPattern, p.Frequency, p.Duration)
	}
	out := make([]model.MeetingTime, 0, len(sh.days)*len(sh.periods))
	for _, days := range sh.days {
		for _, block := range sh.periods {
			slots := make([]model.Slot, 0, len(days)*len(block))
			for _, d := range days {
				for _, period := range block {
					slots = append(slots, model.Slot{Day: d, Period: period, Campus: c})
				}
			}
			out = append(out, model.NewMeetingTime(slots...))
		}
	}
	return out, nil
}

// AllSlots lists every teaching slot on campus c in (day, period) order.
func AllSlots(c model.Campus) []model.Slot {
	out := make([]model.Slot, 0, len(model.WeekDays)*model.Periods)
	for _, d := range model.WeekDays {
		for p := 1; p <= model.Periods; p++ {
			out = append(out, model.Slot{Day: d, Period: p, Campus: c})
		}
	}
	return out
}

// PeriodClock returns the clock range of a period on a campus.
func PeriodClock(c model.Campus, period int) clock.Interval {
	if c == model.Allston {
		return allstonClock[period-1]
	}
	return cambridgeClock[period-1]
}

// ClockRange returns the absolute start and end of a slot.
func ClockRange(s model.Slot) clock.Interval {
	return PeriodClock(s.Campus, s.Period)
}

// SlotDistance is the number of periods between two slots on the same day.
// ok is false when the slots fall on different days.
func SlotDistance(a, b model.Slot) (dist int, ok bool) {
	if a.Day != b.Day {
		return 0, false
	}
	d := a.Period - b.Period
	if d < 0 {
		d = -d
	}
	return d, true
}

// Distance is the smallest slot distance between two meeting times; 0 means
// they share a period on some day.
func Distance(a, b model.MeetingTime) (dist int, ok bool) {
	for _, x := range a {
		for _, y := range b {
			if d, same := SlotDistance(x, y); same && (!ok || d < dist) {
				dist, ok = d, true
			}
		}
	}
	return dist, ok
}

// ToCourseTime converts a meeting time into a campus-agnostic record for
// conflict checks. The slots must span at most two consecutive periods.
func ToCourseTime(mt model.MeetingTime) model.CourseTime {
	var ct model.CourseTime
	if len(mt) == 0 {
		return ct
	}
	c := mt.Campus()
	ct.Start = PeriodClock(c, mt.StartPeriod()).Start
	ct.End = PeriodClock(c, mt.EndPeriod()).End
	for _, d := range mt.Days() {
		ct.Days[d] = true
	}
	return ct
}

// SlotTime is ToCourseTime for a single slot.
func SlotTime(s model.Slot) model.CourseTime {
	return ToCourseTime(model.MeetingTime{s})
}

// ConvertToAllston moves a Cambridge-clock record to the Allston start of
// the nearest Cambridge period, keeping its length. onGrid is false when the
// original start was not a Cambridge period start.
func ConvertToAllston(ct model.CourseTime) (out model.CourseTime, onGrid bool) {
	best, bestDiff := 0, -1
	for i, in := range cambridgeClock {
		diff := int(in.Start - ct.Start)
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	length := ct.Minutes()
	out = ct
	out.Start = allstonClock[best].Start
	out.End = out.Start.Add(length)
	return out, bestDiff == 0
}
