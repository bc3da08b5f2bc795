package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhyrak/allston-schedule/internal/slots"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeInputs(t *testing.T) (dir string, args []string) {
	t.Helper()
	dir = t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	args = []string{
		"--conflicts", write("conflicts.csv", "course1,course2,weight\nCOMPSCI 121,ECON 10A,3\n"),
		"--schedule", write("schedule.csv", "SUBJECT,CATALOG,Mtg Start,Mtg End,Mon,Tues,Wed,Thurs,Fri,Sat,Sun\n"+
			"ECON,10A,10:30 AM,11:45 AM,Y,N,N,N,N,N,N\n"+
			"STAT,110,11:00 AM,12:15 PM,Y,N,N,N,N,N,N\n"),
		"--enrollment", write("enrollment.csv", "courses,count\nCOMPSCI 121;ECON 10A,7\n"),
	}
	return dir, args
}

func TestCatalogCommand(t *testing.T) {
	out, err := execute(t, "catalog", "-f", "3", "-d", "1", "-c", "allston")
	require.NoError(t, err)
	assert.Contains(t, out, "Allston (3,1): 7 meeting times")

	out, err = execute(t, "catalog")
	require.NoError(t, err)
	assert.Equal(t, len(slots.Supported), strings.Count(out, "meeting times ----------"))

	_, err = execute(t, "catalog", "-f", "4", "-d", "1")
	assert.ErrorIs(t, err, slots.ErrUnsupportedPattern)

	_, err = execute(t, "catalog", "-c", "mars")
	assert.Error(t, err)
}

func TestSolveCommand(t *testing.T) {
	dir, args := writeInputs(t)
	courses := filepath.Join(dir, "courses.csv")
	require.NoError(t, os.WriteFile(courses, []byte("course,frequency,duration,candidates\nCOMPSCI 121,1,1,M1a;M3a\n"), 0o644))
	exportFile := filepath.Join(dir, "out.csv")
	scoreFile := filepath.Join(dir, "score.json")
	metricsFile := filepath.Join(dir, "schedule.prom")

	args = append([]string{"solve"}, args...)
	args = append(args,
		"--courses", courses,
		"--out", exportFile,
		"--score-file", scoreFile,
		"--metrics-file", metricsFile,
		"--budget", "20s",
		"--print",
	)
	out, err := execute(t, args...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Passed all tests")
	assert.Contains(t, out, "Printed rows: 3")
	assert.Contains(t, out, "Exported output to: "+exportFile)

	data, err := os.ReadFile(exportFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CourseCode,DayWeek,Start,End,Campus")
	assert.Contains(t, string(data), "COMPSCI 121")
	assert.Contains(t, string(data), "STAT 110")

	report, err := os.ReadFile(scoreFile)
	require.NoError(t, err)
	assert.Contains(t, string(report), `"M3a"`)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `schedule_runs_total{status="success"} 1`)
}

func TestSolveNeedsRequests(t *testing.T) {
	_, args := writeInputs(t)
	_, err := execute(t, append([]string{"solve"}, args...)...)
	assert.ErrorContains(t, err, "nothing to schedule")
}

func TestScoreCommand(t *testing.T) {
	dir, args := writeInputs(t)
	out, err := execute(t, append([]string{"score"}, args...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"conflict_score": 0`)

	scoreFile := filepath.Join(dir, "score.json")
	out, err = execute(t, append([]string{"score", "--score-file", scoreFile}, args...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported score to: "+scoreFile)
	assert.FileExists(t, scoreFile)
}
