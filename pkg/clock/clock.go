// Package clock handles wall-clock times of day and the interval arithmetic
// used for conflict detection and lunch-window checks.
package clock

import (
	"fmt"
	"strings"
	"time"
)

// Minutes counts minutes after midnight.
type Minutes int

// Registrar exports use "9:00:00 AM" while slot tables and hand-written
// inputs use "09:00".
var layouts = []string{
	"3:04:05 PM",
	"3:04:05PM",
	"3:04 PM",
	"3:04PM",
	"15:04:05",
	"15:04",
}

// Parse converts a textual time of day into minutes after midnight.
func Parse(t string) (Minutes, error) {
	s := strings.ToUpper(strings.TrimSpace(t))
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return Minutes(parsed.Hour()*60 + parsed.Minute()), nil
		}
	}
	return 0, fmt.Errorf("unrecognised time %q", t)
}

// MustParse is Parse for package-level tables. It panics on bad input.
func MustParse(t string) Minutes {
	m, err := Parse(t)
	if err != nil {
		panic(err)
	}
	return m
}

// Normalize rewrites a time of day as zero-padded 24 hour "hh:mm", which
// sorts lexically in chronological order. Empty input stays empty.
func Normalize(t string) (string, error) {
	if strings.TrimSpace(t) == "" {
		return "", nil
	}
	m, err := Parse(t)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Add shifts m by d minutes.
func (m Minutes) Add(d int) Minutes {
	return m + Minutes(d)
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start Minutes
	End   Minutes
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// Len is never negative.
func (i Interval) Len() Minutes {
	if i.End < i.Start {
		return 0
	}
	return i.End - i.Start
}

// Overlaps reports whether i and o share any instant. Touching endpoints do
// not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return !(i.End <= o.Start || o.End <= i.Start)
}

// Subtract removes cut from every interval in list. Input intervals are
// expected to be sorted and disjoint; the output keeps that shape and never
// contains an empty interval.
func Subtract(list []Interval, cut Interval) []Interval {
	out := make([]Interval, 0, len(list)+1)
	for _, in := range list {
		if cut.End <= in.Start || cut.Start >= in.End {
			out = append(out, in)
			continue
		}
		if in.Start < cut.Start {
			out = append(out, Interval{Start: in.Start, End: cut.Start})
		}
		if cut.End < in.End {
			out = append(out, Interval{Start: cut.End, End: in.End})
		}
	}
	return out
}

// HasGap reports whether some interval in list is at least d minutes long.
func HasGap(list []Interval, d Minutes) bool {
	for _, in := range list {
		if in.Len() >= d {
			return true
		}
	}
	return false
}

// Equal compares two interval lists element by element.
func Equal(a, b []Interval) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
