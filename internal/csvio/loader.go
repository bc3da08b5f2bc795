package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/gocarina/gocsv"

	"github.com/rhyrak/allston-schedule/internal/scheduler"
	"github.com/rhyrak/allston-schedule/internal/slots"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

var ErrMissingColumn = errors.New("missing column")

// Components that never carry a lecture.
var skippedComponents = []string{"Laboratory", "Discussion", "Conference"}

// normalizeHeader makes header matching case-insensitive and drops the
// unprintable characters some registrar exports carry (a leading BOM).
func normalizeHeader(h string) string {
	h = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, h)
	return strings.ToLower(strings.TrimSpace(h))
}

// Loader reads the scheduling inputs. It carries the configuration needed
// to resolve names and campuses while reading.
type Loader struct {
	Delim          rune
	Locator        *model.CampusLocator
	CrossList      model.CrossListIndex
	ConvertAllston bool
	MinCourses     int
	DropNonAllston bool
	NoLecture      []model.CourseName
}

func NewLoader(cfg *scheduler.Configuration) *Loader {
	return &Loader{
		Delim:          ',',
		Locator:        cfg.Locator(),
		CrossList:      cfg.CrossListIndex(),
		ConvertAllston: cfg.ConvertAllston,
		MinCourses:     cfg.MinCourses,
		DropNonAllston: cfg.DropNonAllstonEnrollments,
		NoLecture:      cfg.NoLectureCourses,
	}
}

func (l *Loader) newReader(data []byte) *headerReader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = l.Delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return &headerReader{Reader: r}
}

// headerReader normalizes the first record it returns.
type headerReader struct {
	*csv.Reader
	seen bool
}

func (r *headerReader) Read() ([]string, error) {
	rec, err := r.Reader.Read()
	if err == nil && !r.seen {
		r.seen = true
		normalizeRecord(rec)
	}
	return rec, err
}

func (r *headerReader) ReadAll() ([][]string, error) {
	all, err := r.Reader.ReadAll()
	if len(all) > 0 && !r.seen {
		r.seen = true
		normalizeRecord(all[0])
	}
	return all, err
}

func normalizeRecord(rec []string) {
	for i := range rec {
		rec[i] = normalizeHeader(rec[i])
	}
}

// readRows unmarshals every row of r into T after checking that one header
// of each required group is present.
func readRows[T any](l *Loader, r io.Reader, required ...[]string) ([]*T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	header, err := l.newReader(data).Read()
	if errors.Is(err, io.EOF) {
		return nil, gocsv.ErrEmptyCSVFile
	}
	if err != nil {
		return nil, err
	}
	present := map[string]bool{}
	for _, h := range header {
		present[h] = true
	}
	for _, group := range required {
		found := false
		for _, name := range group {
			if present[normalizeHeader(name)] {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w %s (headers %v)", ErrMissingColumn, group[0], header)
		}
	}

	var rows []*T
	if err := gocsv.UnmarshalCSV(l.newReader(data), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// resolve canonicalises a course name and maps cross-listed names onto the
// group's canonical one.
func (l *Loader) resolve(raw string) (model.CourseName, error) {
	cn, err := model.ParseCourseName(raw)
	if err != nil {
		return "", err
	}
	return l.CrossList.Resolve(cn), nil
}

func (l *Loader) noLecture(cn model.CourseName) bool {
	for _, n := range l.NoLecture {
		if n == cn {
			return true
		}
	}
	return false
}

// ReadConflicts builds the conflict table. Pairs out of alphabetical order
// are swapped, non-positive weights are dropped and a repeated pair keeps
// the last weight.
func (l *Loader) ReadConflicts(r io.Reader) (*model.ConflictTable, model.Diagnostics, error) {
	var diags model.Diagnostics
	rows, err := readRows[model.ConflictCSVRow](l, r,
		[]string{"course1", "course_1", "first"},
		[]string{"course2", "course_2", "second"},
		[]string{"weight", "score"},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("conflicts: %w", err)
	}

	table := model.NewConflictTable()
	for i, row := range rows {
		a, errA := l.resolve(row.Course1)
		b, errB := l.resolve(row.Course2)
		if err := errors.Join(errA, errB); err != nil {
			diags.Add(model.WarnBadRow, "", "conflicts row %d: %v", i+2, err)
			continue
		}
		if a == b || l.noLecture(a) || l.noLecture(b) {
			continue
		}
		if !(a < b) {
			diags.Add(model.WarnUnorderedConflict, a,
				"the course names aren't in alphabetical order: %s is not alphabetically before %s", a, b)
			a, b = b, a
		}
		if row.Weight <= 0 {
			continue
		}
		if prev, dup := table.Set(a, b, row.Weight); dup {
			diags.Add(model.WarnDuplicateConflict, a, "duplicate entry! %s and %s have weights %d and %d", a, b, prev, row.Weight)
		}
	}
	return table, diags, nil
}

// ReadFixedSchedule reads registrar meeting records. Non-lecture components
// and records without times are skipped. With ConvertAllston, records of
// Allston courses are moved onto the Allston clock.
func (l *Loader) ReadFixedSchedule(r io.Reader) (model.Schedule, model.Diagnostics, error) {
	var diags model.Diagnostics
	rows, err := readRows[model.FixedCSVRow](l, r,
		[]string{"SUBJECT"}, []string{"CATALOG"},
		[]string{"Mtg Start", "Meeting Start"}, []string{"Mtg End", "Meeting End"},
		[]string{"Mon"}, []string{"Tues"}, []string{"Wed"}, []string{"Thurs"},
		[]string{"Fri"}, []string{"Sat"}, []string{"Sun"},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("schedule: %w", err)
	}

	sched := model.Schedule{}
	for i, row := range rows {
		if containsFold(skippedComponents, row.Component) {
			continue
		}
		if strings.TrimSpace(row.MtgStart) == "" || strings.TrimSpace(row.MtgEnd) == "" {
			continue
		}
		cn := l.CrossList.Resolve(model.Canonical(row.Subject, row.Catalog))
		var days []model.Day
		for d, flag := range row.DayFlags() {
			if isYes(flag) {
				days = append(days, model.Day(d))
			}
		}
		ct, err := model.NewCourseTime(row.MtgStart, row.MtgEnd, days...)
		if err != nil {
			diags.Add(model.WarnBadRow, cn, "schedule row %d: %v", i+2, err)
			continue
		}
		if l.ConvertAllston && l.Locator.InAllston(cn) {
			converted, onGrid := slots.ConvertToAllston(ct)
			if !onGrid {
				diags.Add(model.WarnOffGridTime, cn,
					"converting to Allston time, but it is not currently in a Cambridge slot; it is %s-%s. Setting it to %s-%s",
					ct.Start, ct.End, converted.Start, converted.End)
			}
			ct = converted
		}
		if !containsTime(sched[cn], ct) {
			sched.Add(cn, ct)
		}
	}
	return sched, diags, nil
}

// ReadEnrollment reads either raw records (HUID, TERM, SUBJECT, CATALOG)
// grouped per student and term, or pre-aggregated sets (courses, count).
// Courses outside known are dropped before the sets are formed.
func (l *Loader) ReadEnrollment(r io.Reader, known map[model.CourseName]bool) (*model.Enrollment, model.Diagnostics, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("enrollment: %w", err)
	}
	header, err := l.newReader(data).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("enrollment: %w", gocsv.ErrEmptyCSVFile)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("enrollment: %w", err)
	}
	for _, h := range header {
		if h == "courses" {
			return l.readEnrollmentSets(data, known)
		}
	}
	return l.readEnrollmentRecords(data, known)
}

func (l *Loader) readEnrollmentRecords(data []byte, known map[model.CourseName]bool) (*model.Enrollment, model.Diagnostics, error) {
	var diags model.Diagnostics
	rows, err := readRows[model.EnrollmentCSVRow](l, bytes.NewReader(data),
		[]string{"HUID"}, []string{"TERM"}, []string{"SUBJECT"}, []string{"CATALOG"})
	if err != nil {
		return nil, nil, fmt.Errorf("enrollment: %w", err)
	}

	type studentTerm struct{ huid, term string }
	var order []studentTerm
	terms := map[studentTerm][]model.CourseName{}
	for _, row := range rows {
		if strings.Contains(row.Term, "Summer") {
			continue
		}
		cn := l.CrossList.Resolve(model.Canonical(row.Subject, row.Catalog))
		if !known[cn] {
			continue
		}
		key := studentTerm{row.HUID, row.Term}
		if _, ok := terms[key]; !ok {
			order = append(order, key)
		}
		terms[key] = append(terms[key], cn)
	}

	e := model.NewEnrollment()
	for _, key := range order {
		if set := model.NewCourseSet(terms[key]...); l.keep(set) {
			e.Add(set, 1)
		}
	}
	return e, diags, nil
}

func (l *Loader) readEnrollmentSets(data []byte, known map[model.CourseName]bool) (*model.Enrollment, model.Diagnostics, error) {
	var diags model.Diagnostics
	rows, err := readRows[model.EnrollmentSetCSVRow](l, bytes.NewReader(data),
		[]string{"courses"}, []string{"count"})
	if err != nil {
		return nil, nil, fmt.Errorf("enrollment: %w", err)
	}

	e := model.NewEnrollment()
	for i, row := range rows {
		if row.Count <= 0 {
			diags.Add(model.WarnBadRow, "", "enrollment row %d: count %d is not positive", i+2, row.Count)
			continue
		}
		var names []model.CourseName
		bad := false
		for _, part := range strings.Split(row.Courses, ";") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			cn, err := l.resolve(part)
			if err != nil {
				diags.Add(model.WarnBadRow, "", "enrollment row %d: %v", i+2, err)
				bad = true
				break
			}
			if known[cn] {
				names = append(names, cn)
			}
		}
		if bad {
			continue
		}
		if set := model.NewCourseSet(names...); l.keep(set) {
			e.Add(set, row.Count)
		}
	}
	return e, diags, nil
}

// keep drops sets too small to matter and, optionally, sets with no
// Allston course.
func (l *Loader) keep(set model.CourseSet) bool {
	if set.Len() < l.MinCourses {
		return false
	}
	if l.DropNonAllston && l.Locator.CountAllston(set.Names()) == 0 {
		return false
	}
	return true
}

// ReadRequests reads the courses to place. A row without frequency and
// duration asks for the pattern to be inferred later.
func (l *Loader) ReadRequests(r io.Reader) ([]model.Request, model.Diagnostics, error) {
	var diags model.Diagnostics
	rows, err := readRows[model.RequestCSVRow](l, r, []string{"course", "CourseCode"})
	if err != nil {
		return nil, nil, fmt.Errorf("courses: %w", err)
	}

	out := make([]model.Request, 0, len(rows))
	for i, row := range rows {
		cn, err := model.ParseCourseName(row.Course)
		if err != nil {
			diags.Add(model.WarnBadRow, "", "courses row %d: %v", i+2, err)
			continue
		}
		if !l.CrossList.IsCanonical(cn) {
			canonical := l.CrossList.Resolve(cn)
			diags.Add(model.WarnNotCanonical, cn, "cross-listed name; scheduling it as %s", canonical)
			cn = canonical
		}
		req := model.Request{Course: cn}

		freq, dur := strings.TrimSpace(row.Frequency), strings.TrimSpace(row.Duration)
		if freq != "" || dur != "" {
			f, errF := strconv.Atoi(freq)
			d, errD := strconv.Atoi(dur)
			if errF != nil || errD != nil {
				diags.Add(model.WarnBadRow, cn, "courses row %d: frequency %q and duration %q must both be integers", i+2, freq, dur)
				continue
			}
			req.Pattern = model.Pattern{Frequency: f, Duration: d}
		}

		if c := strings.TrimSpace(row.Candidates); c != "" {
			cands, err := parseCandidates(c)
			if err != nil {
				diags.Add(model.WarnBadRow, cn, "courses row %d: %v", i+2, err)
				continue
			}
			req.Candidates = cands
		}
		out = append(out, req)
	}
	return out, diags, nil
}

func parseCandidates(s string) ([]model.MeetingTime, error) {
	var out []model.MeetingTime
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		mt, err := model.ParseMeetingTime(part)
		if err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, nil
}

// ReadLargeCourses reads the list of large courses. Extra columns (per-term
// enrollment) are ignored.
func (l *Loader) ReadLargeCourses(r io.Reader) (map[model.CourseName]bool, model.Diagnostics, error) {
	var diags model.Diagnostics
	rows, err := readRows[model.LargeCourseCSVRow](l, r, []string{"course", "CourseCode"})
	if err != nil {
		return nil, nil, fmt.Errorf("large courses: %w", err)
	}
	out := make(map[model.CourseName]bool, len(rows))
	for i, row := range rows {
		cn, err := l.resolve(row.Course)
		if err != nil {
			diags.Add(model.WarnBadRow, "", "large courses row %d: %v", i+2, err)
			continue
		}
		out[cn] = true
	}
	return out, diags, nil
}

// Inputs is everything one run reads from disk.
type Inputs struct {
	Conflicts    *model.ConflictTable
	Fixed        model.Schedule
	Enrollment   *model.Enrollment
	Requests     []model.Request
	LargeCourses map[model.CourseName]bool
	Warnings     model.Diagnostics
}

// KnownCourses is the set enrollment records are filtered against: every
// course in the fixed schedule plus every requested course.
func KnownCourses(fixed model.Schedule, requests []model.Request) map[model.CourseName]bool {
	known := make(map[model.CourseName]bool, len(fixed)+len(requests))
	for cn := range fixed {
		known[cn] = true
	}
	for _, r := range requests {
		known[r.Course] = true
	}
	return known
}

// LoadInputs reads the files named in cfg. The courses and large courses
// files are optional.
func LoadInputs(cfg *scheduler.Configuration) (*Inputs, error) {
	l := NewLoader(cfg)
	in := &Inputs{}

	var err error
	var diags model.Diagnostics
	if in.Conflicts, diags, err = loadFile(cfg.ConflictsFile, l.ReadConflicts); err != nil {
		return nil, err
	}
	in.Warnings = append(in.Warnings, diags...)

	if in.Fixed, diags, err = loadFile(cfg.ScheduleFile, l.ReadFixedSchedule); err != nil {
		return nil, err
	}
	in.Warnings = append(in.Warnings, diags...)

	if cfg.CoursesFile != "" {
		if in.Requests, diags, err = loadFile(cfg.CoursesFile, l.ReadRequests); err != nil {
			return nil, err
		}
		in.Warnings = append(in.Warnings, diags...)
	}

	if cfg.LargeCoursesFile != "" {
		if in.LargeCourses, diags, err = loadFile(cfg.LargeCoursesFile, l.ReadLargeCourses); err != nil {
			return nil, err
		}
		in.Warnings = append(in.Warnings, diags...)
	}

	known := KnownCourses(in.Fixed, in.Requests)
	in.Enrollment, diags, err = loadFile(cfg.EnrollmentFile, func(r io.Reader) (*model.Enrollment, model.Diagnostics, error) {
		return l.ReadEnrollment(r, known)
	})
	if err != nil {
		return nil, err
	}
	in.Warnings = append(in.Warnings, diags...)
	return in, nil
}

func loadFile[T any](path string, read func(io.Reader) (T, model.Diagnostics, error)) (T, model.Diagnostics, error) {
	var zero T
	f, err := openFile(path)
	if err != nil {
		return zero, nil, err
	}
	defer f.Close()
	v, diags, err := read(f)
	if err != nil {
		return zero, nil, fmt.Errorf("failed to parse data from %s: %w", path, err)
	}
	return v, diags, nil
}

func isYes(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "TRUE", "1", "X":
		return true
	}
	return false
}

func containsFold(s []string, e string) bool {
	e = strings.TrimSpace(e)
	for _, a := range s {
		if strings.EqualFold(a, e) {
			return true
		}
	}
	return false
}

func containsTime(list []model.CourseTime, ct model.CourseTime) bool {
	for _, c := range list {
		if c == ct {
			return true
		}
	}
	return false
}
