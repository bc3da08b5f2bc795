package csvio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/rhyrak/allston-schedule/internal/scheduler"
	"github.com/rhyrak/allston-schedule/internal/score"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// BriefRows formats a solved schedule for the balance tool: the newly placed
// courses first, then the fixed ones, each group sorted by name. A non-empty
// area keeps only that subject.
func BriefRows(placed, fixed model.Schedule, locator *model.CampusLocator, area string) []*model.ScheduleCSVRow {
	var rows []*model.ScheduleCSVRow
	for _, group := range []model.Schedule{placed, fixed} {
		for _, cn := range group.Names() {
			if area != "" && !scheduler.InArea(cn, area) {
				continue
			}
			campus := locator.Locate(cn).String()
			for _, ct := range group[cn] {
				rows = append(rows, &model.ScheduleCSVRow{
					CourseCode: string(cn),
					DayWeek:    ct.DayString("/"),
					Start:      ct.Start.String(),
					End:        ct.End.String(),
					Campus:     campus,
				})
			}
		}
	}
	return rows
}

// RegistrarRows formats a combined schedule in the registrar's layout.
func RegistrarRows(combined model.Schedule, locator *model.CampusLocator, area string) []*model.RegistrarCSVRow {
	var rows []*model.RegistrarCSVRow
	for _, cn := range combined.Names() {
		if area != "" && !scheduler.InArea(cn, area) {
			continue
		}
		subject, catalog := cn.Split()
		campus := locator.Locate(cn).String()
		for _, ct := range combined[cn] {
			var flags [model.NumDays]string
			for d, on := range ct.Days {
				flags[d] = "N"
				if on {
					flags[d] = "Y"
				}
			}
			rows = append(rows, &model.RegistrarCSVRow{
				Subject:  subject,
				Catalog:  catalog,
				MtgStart: ct.Start.String(),
				MtgEnd:   ct.End.String(),
				Mon:      flags[model.Monday],
				Tues:     flags[model.Tuesday],
				Wed:      flags[model.Wednesday],
				Thurs:    flags[model.Thursday],
				Fri:      flags[model.Friday],
				Sat:      flags[model.Saturday],
				Sun:      flags[model.Sunday],
				Campus:   campus,
			})
		}
	}
	return rows
}

// ExportSchedule writes rows to the CSV file at path, replacing any
// existing file.
func ExportSchedule[R any](rows []*R, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()
	if err := gocsv.MarshalFile(&rows, out); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ExportScheduleString renders rows as CSV text.
func ExportScheduleString[R any](rows []*R) (string, error) {
	return gocsv.MarshalString(&rows)
}

// PrintSchedule prints the brief rows grouped by subject.
func PrintSchedule(w io.Writer, rows []*model.ScheduleCSVRow) {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b *model.ScheduleCSVRow) int {
		return strings.Compare(model.CourseName(a.CourseCode).Subject(), model.CourseName(b.CourseCode).Subject())
	})
	subjects := map[string]bool{}
	for _, r := range sorted {
		subject := model.CourseName(r.CourseCode).Subject()
		if !subjects[subject] {
			subjects[subject] = true
			fmt.Fprintf(w, "\n%s %s %s\n", strings.Repeat("-", (32-len(subject))/2), subject, strings.Repeat("-", int(0.5+(32-float32(len(subject)))/2.0)))
		}
		fmt.Fprintf(w, "%-14s %-10s %s-%s   %s\n", r.CourseCode, r.DayWeek, r.Start, r.End, r.Campus)
	}
	fmt.Fprintf(w, "Printed rows: %d\n", len(sorted))
}

// ScoreReport is the JSON document written next to a solved schedule.
type ScoreReport struct {
	Score     score.Score         `json:"score"`
	History   []scheduler.Step    `json:"history,omitempty"`
	Placed    map[string]string   `json:"placed,omitempty"`
	Warnings  []model.Warning     `json:"warnings,omitempty"`
	Solves    int                 `json:"solves,omitempty"`
	Conflicts []score.ConflictHit `json:"conflicts,omitempty"`
}

// NewScoreReport collects the parts of a run worth keeping.
func NewScoreReport(res *scheduler.Result) *ScoreReport {
	placed := make(map[string]string, len(res.Best.Assignment))
	for cn, ch := range res.Best.Assignment {
		placed[string(cn)] = ch.Time.String()
	}
	return &ScoreReport{
		Score:     res.Best.Score.Score,
		History:   res.Best.History(),
		Placed:    placed,
		Warnings:  res.Warnings,
		Solves:    res.Solves,
		Conflicts: res.Best.Score.Conflicts,
	}
}

// WriteScore encodes v as indented JSON.
func WriteScore(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

// ExportScore writes v as JSON to path.
func ExportScore(v any, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()
	return WriteScore(out, v)
}
