package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhyrak/allston-schedule/pkg/clock"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

func TestClockRangeIsMonotonicAndNonOverlapping(t *testing.T) {
	for _, c := range []model.Campus{model.Cambridge, model.Allston} {
		for _, d := range model.WeekDays {
			for p := 1; p < model.Periods; p++ {
				cur := ClockRange(model.Slot{Day: d, Period: p, Campus: c})
				next := ClockRange(model.Slot{Day: d, Period: p + 1, Campus: c})
				assert.Less(t, int(cur.Start), int(cur.End))
				assert.Less(t, int(cur.Start), int(next.Start))
				assert.LessOrEqual(t, int(cur.End), int(next.Start))
				assert.False(t, cur.Overlaps(next))
			}
		}
	}
}

func TestAllstonClockRunsLater(t *testing.T) {
	for p := 1; p <= model.Periods; p++ {
		camb := PeriodClock(model.Cambridge, p)
		alls := PeriodClock(model.Allston, p)
		assert.Equal(t, camb.Start.Add(45), alls.Start)
		assert.Equal(t, camb.Len(), alls.Len())
	}
	assert.Equal(t, "09:45", ClockRange(model.MustSlot("M1a")).Start.String())
	assert.Equal(t, "20:00", ClockRange(model.MustSlot("F7a")).End.String())
}

func TestLegalMeetingTimesSizes(t *testing.T) {
	sizes := map[model.Pattern]int{
		{Frequency: 1, Duration: 1}: 35,
		{Frequency: 1, Duration: 2}: 20,
		{Frequency: 2, Duration: 1}: 28,
		{Frequency: 2, Duration: 2}: 12,
		{Frequency: 3, Duration: 1}: 7,
	}
	for p, n := range sizes {
		for _, c := range []model.Campus{model.Cambridge, model.Allston} {
			mts, err := LegalMeetingTimes(p, c)
			require.NoError(t, err)
			assert.Len(t, mts, n, p.String())
			for _, mt := range mts {
				assert.Equal(t, p.Frequency, mt.Frequency())
				assert.Equal(t, p.Duration, mt.EndPeriod()-mt.StartPeriod()+1)
				for _, s := range mt {
					assert.Equal(t, c, s.Campus)
				}
			}
		}
	}
}

func TestLegalMeetingTimesContents(t *testing.T) {
	mts, err := LegalMeetingTimes(model.Pattern{Frequency: 2, Duration: 2}, model.Allston)
	require.NoError(t, err)
	assert.Equal(t, "M1a M2a W1a W2a", mts[0].String())
	assert.Equal(t, "T5a T6a R5a R6a", mts[len(mts)-1].String())

	once, err := LegalMeetingTimes(model.Pattern{Frequency: 1, Duration: 2}, model.Cambridge)
	require.NoError(t, err)
	assert.Equal(t, "M6 M7", once[3].String())
}

func TestUnsupportedPattern(t *testing.T) {
	for _, p := range []model.Pattern{{Frequency: 3, Duration: 2}, {Frequency: 4, Duration: 1}, {Frequency: 0, Duration: 0}, {Frequency: 1, Duration: 3}} {
		assert.False(t, IsSupported(p))
		_, err := LegalMeetingTimes(p, model.Allston)
		assert.ErrorIs(t, err, ErrUnsupportedPattern)
	}
	for _, p := range Supported {
		assert.True(t, IsSupported(p))
	}
}

func TestDistance(t *testing.T) {
	d, ok := SlotDistance(model.MustSlot("M1"), model.MustSlot("M4"))
	assert.True(t, ok)
	assert.Equal(t, 3, d)

	_, ok = SlotDistance(model.MustSlot("M1"), model.MustSlot("T1"))
	assert.False(t, ok)

	a, _ := model.ParseMeetingTime("M1 W1")
	b, _ := model.ParseMeetingTime("W2 F2")
	d, ok = Distance(a, b)
	assert.True(t, ok)
	assert.Equal(t, 1, d)

	c, _ := model.ParseMeetingTime("T3 R3")
	_, ok = Distance(a, c)
	assert.False(t, ok)
}

func TestToCourseTime(t *testing.T) {
	mt, err := model.ParseMeetingTime("T5a T6a R5a R6a")
	require.NoError(t, err)
	ct := ToCourseTime(mt)
	assert.Equal(t, "15:45", ct.Start.String())
	assert.Equal(t, "18:30", ct.End.String())
	assert.Equal(t, []model.Day{model.Tuesday, model.Thursday}, ct.MeetingDays())

	// Allston period 1 overlaps Cambridge periods 1 and 2.
	a1 := SlotTime(model.MustSlot("M1a"))
	assert.True(t, a1.ConflictsWith(SlotTime(model.MustSlot("M1"))))
	assert.True(t, a1.ConflictsWith(SlotTime(model.MustSlot("M2"))))
	assert.False(t, a1.ConflictsWith(SlotTime(model.MustSlot("M3"))))
	assert.False(t, a1.ConflictsWith(SlotTime(model.MustSlot("T1"))))
}

func TestConvertToAllston(t *testing.T) {
	ct := model.MustCourseTime("12:00", "14:45", model.Monday)
	out, onGrid := ConvertToAllston(ct)
	assert.True(t, onGrid)
	assert.Equal(t, clock.MustParse("12:45"), out.Start)
	assert.Equal(t, clock.MustParse("15:30"), out.End)
	assert.Equal(t, ct.Days, out.Days)

	off := model.MustCourseTime("12:10", "13:00", model.Friday)
	out, onGrid = ConvertToAllston(off)
	assert.False(t, onGrid)
	assert.Equal(t, "12:45", out.Start.String())
	assert.Equal(t, "13:35", out.End.String())
}
