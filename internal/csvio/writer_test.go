package csvio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhyrak/allston-schedule/internal/scheduler"
	"github.com/rhyrak/allston-schedule/internal/score"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

func exportFixture() (placed, fixed model.Schedule, locator *model.CampusLocator) {
	placed = model.Schedule{
		"COMPSCI 121": {model.MustCourseTime("09:45", "11:00", model.Monday, model.Wednesday)},
	}
	fixed = model.Schedule{
		"ECON 10A":  {model.MustCourseTime("10:30", "11:45", model.Tuesday, model.Thursday)},
		"APMTH 10":  {model.MustCourseTime("09:00", "10:15", model.Friday)},
		"COMPSCI 1": {model.MustCourseTime("13:30", "14:45", model.Monday)},
	}
	return placed, fixed, scheduler.NewDefaultConfiguration().Locator()
}

func TestBriefRowsPlacedFirst(t *testing.T) {
	placed, fixed, locator := exportFixture()
	rows := BriefRows(placed, fixed, locator, "")
	require.Len(t, rows, 4)

	var names []string
	for _, r := range rows {
		names = append(names, r.CourseCode)
	}
	assert.Equal(t, []string{"COMPSCI 121", "APMTH 10", "COMPSCI 1", "ECON 10A"}, names)
	assert.Equal(t, model.ScheduleCSVRow{CourseCode: "COMPSCI 121", DayWeek: "M/W", Start: "09:45", End: "11:00", Campus: "Allston"}, *rows[0])
	assert.Equal(t, "Tu/Th", rows[3].DayWeek)
	assert.Equal(t, "Cambridge", rows[3].Campus)
}

func TestBriefRowsAreaFilter(t *testing.T) {
	placed, fixed, locator := exportFixture()
	rows := BriefRows(placed, fixed, locator, "COMPSCI")
	require.Len(t, rows, 2)
	assert.Equal(t, "COMPSCI 121", rows[0].CourseCode)
	assert.Equal(t, "COMPSCI 1", rows[1].CourseCode)
}

func TestExportScheduleString(t *testing.T) {
	placed, fixed, locator := exportFixture()
	out, err := ExportScheduleString(BriefRows(placed, fixed, locator, ""))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "CourseCode,DayWeek,Start,End,Campus", lines[0])
	assert.Equal(t, "COMPSCI 121,M/W,09:45,11:00,Allston", lines[1])
}

func TestRegistrarRows(t *testing.T) {
	placed, fixed, locator := exportFixture()
	combined := fixed.Clone()
	for cn, times := range placed {
		combined[cn] = times
	}
	rows := RegistrarRows(combined, locator, "")
	require.Len(t, rows, 4)

	var cs121 *model.RegistrarCSVRow
	for _, r := range rows {
		if r.Subject == "COMPSCI" && r.Catalog == "121" {
			cs121 = r
		}
	}
	require.NotNil(t, cs121)
	assert.Equal(t, "Y", cs121.Mon)
	assert.Equal(t, "N", cs121.Tues)
	assert.Equal(t, "Y", cs121.Wed)
	assert.Equal(t, "N", cs121.Sun)
	assert.Equal(t, "Allston", cs121.Campus)
}

func TestExportScheduleFile(t *testing.T) {
	_, fixed, locator := exportFixture()
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content that must go away\n"), 0o644))

	require.NoError(t, ExportSchedule(RegistrarRows(fixed.Clone(), locator, ""), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "SUBJECT,CATALOG,Mtg Start,Mtg End,Mon,Tues,Wed,Thurs,Fri,Sat,Sun,Campus\n"))
	assert.NotContains(t, string(data), "stale")
}

func TestPrintSchedule(t *testing.T) {
	placed, fixed, locator := exportFixture()
	var buf bytes.Buffer
	PrintSchedule(&buf, BriefRows(placed, fixed, locator, ""))

	out := buf.String()
	assert.Contains(t, out, " APMTH ")
	assert.Contains(t, out, " COMPSCI ")
	assert.Less(t, strings.Index(out, "APMTH"), strings.Index(out, "COMPSCI"))
	assert.Contains(t, out, "Printed rows: 4")
}

func TestWriteScore(t *testing.T) {
	report := &ScoreReport{
		Score: score.Score{
			TransportWeeks: score.NewHistogram(8),
			Simple:         score.Simple{Conflicts: 1, RoundTrips: 2, Lunch: 3.5},
		},
		History: []scheduler.Step{{Node: 1, ChildIndex: 0}, {Node: 0}},
		Warnings: model.Diagnostics{
			{Code: model.WarnNotOptimal, Message: "limit"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteScore(&buf, report))

	out := buf.String()
	assert.Contains(t, out, `"simple_score"`)
	assert.Contains(t, out, `"round_trips": 2`)
	assert.Contains(t, out, `"code": "not_optimal"`)
	assert.Contains(t, out, `"history"`)
}
