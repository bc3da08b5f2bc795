package model

// CSV row layouts for the inputs produced by the enrollment ETL. Readers
// lowercase the header row, so the tags are lowercase; alternative header
// names are comma separated.

// ConflictCSVRow is one weighted course pair.
type ConflictCSVRow struct {
	Course1 string `csv:"course1,course_1,first"`
	Course2 string `csv:"course2,course_2,second"`
	Weight  int    `csv:"weight,score"`
}

// FixedCSVRow is one registrar meeting record.
type FixedCSVRow struct {
	Subject   string `csv:"subject"`
	Catalog   string `csv:"catalog"`
	MtgStart  string `csv:"mtg start,meeting start"`
	MtgEnd    string `csv:"mtg end,meeting end"`
	Mon       string `csv:"mon"`
	Tues      string `csv:"tues"`
	Wed       string `csv:"wed"`
	Thurs     string `csv:"thurs"`
	Fri       string `csv:"fri"`
	Sat       string `csv:"sat"`
	Sun       string `csv:"sun"`
	Component string `csv:"component,omitempty"`
}

// DayFlags returns the Y/N columns in week order.
func (r *FixedCSVRow) DayFlags() [NumDays]string {
	return [NumDays]string{r.Mon, r.Tues, r.Wed, r.Thurs, r.Fri, r.Sat, r.Sun}
}

// EnrollmentCSVRow is one raw student enrollment record.
type EnrollmentCSVRow struct {
	HUID    string `csv:"huid"`
	Term    string `csv:"term"`
	Subject string `csv:"subject"`
	Catalog string `csv:"catalog"`
}

// EnrollmentSetCSVRow is one pre-aggregated enrollment line: the course
// names joined by ';' and the number of students with exactly that set.
type EnrollmentSetCSVRow struct {
	Courses string `csv:"courses"`
	Count   int    `csv:"count"`
}

// RequestCSVRow asks for a course to be placed. Empty frequency and
// duration mean "infer from the fixed schedule". Candidates optionally
// narrows the legal meeting times, separated by ';' ("M1a W1a;T1a R1a").
type RequestCSVRow struct {
	Course     string `csv:"course,coursecode"`
	Frequency  string `csv:"frequency,omitempty"`
	Duration   string `csv:"duration,slots,omitempty"`
	Candidates string `csv:"candidates,omitempty"`
}

// LargeCourseCSVRow lists one large course.
type LargeCourseCSVRow struct {
	Course string `csv:"course,coursecode"`
}
