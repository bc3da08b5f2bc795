package model

import (
	"fmt"
	"slices"
	"strings"
)

type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// NumDays covers the whole week; only Monday to Friday carry teaching slots.
const NumDays = 7

// Periods is the number of teaching periods per day.
const Periods = 7

var (
	dayNames = [NumDays]string{"M", "Tu", "W", "Th", "F", "Sa", "Su"}
	dayCodes = [NumDays]byte{'M', 'T', 'W', 'R', 'F', 'S', 'U'}
)

// WeekDays are the days that carry teaching slots.
var WeekDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

// String is the reporting name ("M", "Tu", ... "Su").
func (d Day) String() string {
	if d < 0 || d >= NumDays {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Code is the single letter used in slot codes (R is Thursday).
func (d Day) Code() byte {
	return dayCodes[d]
}

func dayFromCode(b byte) (Day, bool) {
	for i, c := range dayCodes[:5] {
		if c == b {
			return Day(i), true
		}
	}
	return 0, false
}

// Slot is one atomic (day, period, campus) unit of teaching time.
type Slot struct {
	Day    Day
	Period int
	Campus Campus
}

// String renders the compact code, e.g. "M1" or "R5a" for Allston.
func (s Slot) String() string {
	var b strings.Builder
	b.WriteByte(s.Day.Code())
	fmt.Fprintf(&b, "%d", s.Period)
	if s.Campus == Allston {
		b.WriteByte('a')
	}
	return b.String()
}

// ParseSlot reads a compact slot code.
func ParseSlot(code string) (Slot, error) {
	code = strings.TrimSpace(code)
	if len(code) < 2 || len(code) > 3 {
		return Slot{}, fmt.Errorf("malformed slot %q", code)
	}
	d, ok := dayFromCode(code[0])
	if !ok {
		return Slot{}, fmt.Errorf("malformed slot %q: bad day", code)
	}
	p := int(code[1] - '0')
	if p < 1 || p > Periods {
		return Slot{}, fmt.Errorf("malformed slot %q: bad period", code)
	}
	s := Slot{Day: d, Period: p, Campus: Cambridge}
	if len(code) == 3 {
		if code[2] != 'a' {
			return Slot{}, fmt.Errorf("malformed slot %q: bad campus suffix", code)
		}
		s.Campus = Allston
	}
	return s, nil
}

// MustSlot is ParseSlot for literals.
func MustSlot(code string) Slot {
	s, err := ParseSlot(code)
	if err != nil {
		panic(err)
	}
	return s
}

// CompareSlots orders by day, then period, then campus.
func CompareSlots(a, b Slot) int {
	if d := int(a.Day) - int(b.Day); d != 0 {
		return d
	}
	if p := a.Period - b.Period; p != 0 {
		return p
	}
	return int(a.Campus) - int(b.Campus)
}

// MeetingTime is one legal weekly pattern: a set of slots on one campus,
// kept sorted.
type MeetingTime []Slot

// NewMeetingTime sorts a copy of slots.
func NewMeetingTime(slots ...Slot) MeetingTime {
	mt := slices.Clone(slots)
	slices.SortFunc(mt, CompareSlots)
	return mt
}

// ParseMeetingTime reads space separated slot codes ("M1a W1a").
func ParseMeetingTime(s string) (MeetingTime, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '+' || r == ',' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty meeting time")
	}
	slots := make([]Slot, 0, len(fields))
	for _, f := range fields {
		sl, err := ParseSlot(f)
		if err != nil {
			return nil, err
		}
		slots = append(slots, sl)
	}
	mt := NewMeetingTime(slots...)
	for _, sl := range mt[1:] {
		if sl.Campus != mt[0].Campus {
			return nil, fmt.Errorf("meeting time %q mixes campuses", s)
		}
	}
	return mt, nil
}

func (mt MeetingTime) String() string {
	codes := make([]string, len(mt))
	for i, s := range mt {
		codes[i] = s.String()
	}
	return strings.Join(codes, " ")
}

func (mt MeetingTime) Campus() Campus {
	if len(mt) == 0 {
		return Cambridge
	}
	return mt[0].Campus
}

// Days returns the distinct meeting days in week order.
func (mt MeetingTime) Days() []Day {
	var days []Day
	for _, s := range mt {
		if !slices.Contains(days, s.Day) {
			days = append(days, s.Day)
		}
	}
	slices.Sort(days)
	return days
}

// Frequency is the number of distinct meeting days.
func (mt MeetingTime) Frequency() int {
	return len(mt.Days())
}

// StartPeriod is the earliest period used.
func (mt MeetingTime) StartPeriod() int {
	p := Periods + 1
	for _, s := range mt {
		p = min(p, s.Period)
	}
	return p
}

// EndPeriod is the latest period used.
func (mt MeetingTime) EndPeriod() int {
	p := 0
	for _, s := range mt {
		p = max(p, s.Period)
	}
	return p
}

// IsTuTh reports whether every meeting falls on Tuesday or Thursday.
func (mt MeetingTime) IsTuTh() bool {
	for _, d := range mt.Days() {
		if d != Tuesday && d != Thursday {
			return false
		}
	}
	return len(mt) > 0
}

func (mt MeetingTime) Contains(s Slot) bool {
	return slices.Contains(mt, s)
}

func (mt MeetingTime) Equal(o MeetingTime) bool {
	return slices.Equal(mt, o)
}
