package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalCourseName(t *testing.T) {
	assert.Equal(t, CourseName("COMPSCI 50"), Canonical(" compsci", "50 "))

	n, err := ParseCourseName("eng-sci 100hfa")
	require.NoError(t, err)
	assert.Equal(t, CourseName("ENG-SCI 100HFA"), n)
	assert.Equal(t, "ENG-SCI", n.Subject())
	assert.Equal(t, "100HFA", n.Catalog())

	_, err = ParseCourseName("COMPSCI")
	assert.Error(t, err)
}

func TestCrossListIndex(t *testing.T) {
	idx := NewCrossListIndex([]CrossListing{{"COMPSCI 109A", "STAT 121A", "APCOMP 209A"}})

	assert.Equal(t, CourseName("COMPSCI 109A"), idx.Resolve("STAT 121A"))
	assert.Equal(t, CourseName("COMPSCI 109A"), idx.Resolve("COMPSCI 109A"))
	assert.Equal(t, CourseName("ECON 10A"), idx.Resolve("ECON 10A"))
	assert.False(t, idx.IsCanonical("APCOMP 209A"))
	assert.True(t, idx.IsCanonical("COMPSCI 109A"))
	assert.True(t, idx.IsCanonical("ECON 10A"))
}

func TestSlotRoundTrip(t *testing.T) {
	for _, code := range []string{"M1", "T4a", "W7", "R5a", "F3a"} {
		s, err := ParseSlot(code)
		require.NoError(t, err)
		assert.Equal(t, code, s.String())
	}

	s := MustSlot("R5a")
	assert.Equal(t, Thursday, s.Day)
	assert.Equal(t, 5, s.Period)
	assert.Equal(t, Allston, s.Campus)

	for _, bad := range []string{"", "X1", "M0", "M8", "M1b", "M12a"} {
		_, err := ParseSlot(bad)
		assert.Error(t, err, bad)
	}
}

func TestSlotOrdering(t *testing.T) {
	assert.Negative(t, CompareSlots(MustSlot("M7"), MustSlot("T1")))
	assert.Negative(t, CompareSlots(MustSlot("M1"), MustSlot("M2")))
	assert.Zero(t, CompareSlots(MustSlot("W3a"), MustSlot("W3a")))
}

func TestMeetingTime(t *testing.T) {
	mt, err := ParseMeetingTime("W3a M4a M3a W4a")
	require.NoError(t, err)
	assert.Equal(t, "M3a M4a W3a W4a", mt.String())
	assert.Equal(t, 2, mt.Frequency())
	assert.Equal(t, 3, mt.StartPeriod())
	assert.Equal(t, 4, mt.EndPeriod())
	assert.Equal(t, Allston, mt.Campus())
	assert.False(t, mt.IsTuTh())
	assert.True(t, mt.Contains(MustSlot("W4a")))

	tr, err := ParseMeetingTime("T2 R2")
	require.NoError(t, err)
	assert.True(t, tr.IsTuTh())

	_, err = ParseMeetingTime("M1 W1a")
	assert.Error(t, err)
}

func TestCourseTimeConflictIsSymmetric(t *testing.T) {
	times := []CourseTime{
		MustCourseTime("09:00", "10:15", Monday, Wednesday),
		MustCourseTime("10:00", "11:00", Wednesday),
		MustCourseTime("10:15", "11:30", Monday),
		MustCourseTime("09:30", "10:00", Tuesday),
		MustCourseTime("9:30:00 AM", "10:45:00 AM", Monday, Tuesday),
	}
	for _, a := range times {
		for _, b := range times {
			assert.Equal(t, a.ConflictsWith(b), b.ConflictsWith(a), "%s vs %s", a, b)
		}
	}
	assert.True(t, times[0].ConflictsWith(times[1]))
	assert.False(t, times[0].ConflictsWith(times[2]))
	assert.False(t, times[0].ConflictsWith(times[3]))
	assert.True(t, times[3].ConflictsWith(times[4]))
	assert.Equal(t, "M/W", times[0].DayString("/"))
}

func TestConflictTable(t *testing.T) {
	table := NewConflictTable()
	_, dup := table.Set("B 1", "A 1", 10)
	assert.False(t, dup)
	table.Set("A 1", "C 1", 0)
	table.Set("A 1", "D 1", -3)

	assert.Equal(t, 10, table.Weight("A 1", "B 1"))
	assert.Equal(t, 10, table.Weight("B 1", "A 1"))
	assert.Equal(t, 0, table.Weight("A 1", "C 1"))
	assert.Equal(t, 1, table.Len())

	prev, dup := table.Set("A 1", "B 1", 7)
	assert.True(t, dup)
	assert.Equal(t, 10, prev)
	assert.Equal(t, 7, table.Weight("B 1", "A 1"))
	assert.Equal(t, []CourseName{"B 1"}, table.Neighbors("A 1"))
	assert.Equal(t, []WeightedPair{{A: "A 1", B: "B 1", Weight: 7}}, table.Pairs())
}

func TestCourseSetAndEnrollment(t *testing.T) {
	a := NewCourseSet("B 1", "A 1", "B 1")
	b := NewCourseSet("A 1", "B 1")
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Contains("B 1"))
	assert.False(t, a.Contains("C 1"))

	e := NewEnrollment()
	e.Add(a, 3)
	e.Add(b, 2)
	e.Add(NewCourseSet("C 1", "A 1"), 1)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, 5, e.Count(b))
	assert.Equal(t, 6, e.Students())
}

func TestCampusLocator(t *testing.T) {
	l := NewCampusLocator([]CampusRule{
		{Subject: "COMPSCI", AllExcept: []string{"50", "90NCR"}},
		{Subject: "BE", Only: []string{"110"}},
		{Subject: "SEAS", All: true},
	})

	assert.Equal(t, Allston, l.Locate("COMPSCI 124"))
	assert.Equal(t, Cambridge, l.Locate("COMPSCI 50"))
	assert.Equal(t, Allston, l.Locate("BE 110"))
	assert.Equal(t, Cambridge, l.Locate("BE 111"))
	assert.Equal(t, Allston, l.Locate("SEAS 1"))
	assert.Equal(t, Cambridge, l.Locate("ECON 10A"))
	assert.Equal(t, 2, l.CountAllston([]CourseName{"COMPSCI 124", "BE 110", "ECON 10A"}))
}

func TestScheduleWithout(t *testing.T) {
	s := Schedule{}
	s.Add("A 1", MustCourseTime("09:00", "10:00", Monday))
	s.Add("B 1", MustCourseTime("09:00", "10:00", Tuesday))

	out := s.Without("A 1")
	assert.False(t, out.Has("A 1"))
	assert.True(t, s.Has("A 1"))
	assert.Equal(t, []CourseName{"A 1", "B 1"}, s.Names())
}
