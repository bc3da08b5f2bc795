package model

import (
	"fmt"
	"strings"

	"github.com/rhyrak/allston-schedule/pkg/clock"
)

// CourseTime is one campus-agnostic meeting record: the days a course meets
// and its clock range on those days.
type CourseTime struct {
	Start clock.Minutes
	End   clock.Minutes
	Days  [NumDays]bool
}

// NewCourseTime parses start and end and marks the given days.
func NewCourseTime(start, end string, days ...Day) (CourseTime, error) {
	s, err := clock.Parse(start)
	if err != nil {
		return CourseTime{}, err
	}
	e, err := clock.Parse(end)
	if err != nil {
		return CourseTime{}, err
	}
	if e < s {
		return CourseTime{}, fmt.Errorf("course time %s-%s ends before it starts", start, end)
	}
	ct := CourseTime{Start: s, End: e}
	for _, d := range days {
		ct.Days[d] = true
	}
	return ct, nil
}

// MustCourseTime is NewCourseTime for literals.
func MustCourseTime(start, end string, days ...Day) CourseTime {
	ct, err := NewCourseTime(start, end, days...)
	if err != nil {
		panic(err)
	}
	return ct
}

func (ct CourseTime) Interval() clock.Interval {
	return clock.Interval{Start: ct.Start, End: ct.End}
}

// Minutes is the length of one meeting.
func (ct CourseTime) Minutes() int {
	return int(ct.Interval().Len())
}

// MeetingDays lists the days with a meeting, in week order.
func (ct CourseTime) MeetingDays() []Day {
	var out []Day
	for i, on := range ct.Days {
		if on {
			out = append(out, Day(i))
		}
	}
	return out
}

// ConflictsWith reports whether the two records share a day and overlap in
// clock time. It is symmetric.
func (ct CourseTime) ConflictsWith(o CourseTime) bool {
	for i := range ct.Days {
		if ct.Days[i] && o.Days[i] {
			return ct.Interval().Overlaps(o.Interval())
		}
	}
	return false
}

// DayString joins the meeting day names, e.g. "M/W" with sep "/".
func (ct CourseTime) DayString(sep string) string {
	var names []string
	for _, d := range ct.MeetingDays() {
		names = append(names, d.String())
	}
	return strings.Join(names, sep)
}

func (ct CourseTime) String() string {
	return ct.Start.String() + "-" + ct.End.String() + " " + ct.DayString("")
}

// TimesConflict reports whether any record of a overlaps any record of b.
func TimesConflict(a, b []CourseTime) bool {
	for _, x := range a {
		for _, y := range b {
			if x.ConflictsWith(y) {
				return true
			}
		}
	}
	return false
}
