package model

import "slices"

// Schedule maps a canonical course name to its meeting records. A fixed
// schedule from the registrar and a solved schedule share this shape.
type Schedule map[CourseName][]CourseTime

// Clone copies the map and every record slice.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for k, v := range s {
		out[k] = slices.Clone(v)
	}
	return out
}

// Names returns the course names in sorted order.
func (s Schedule) Names() []CourseName {
	names := make([]CourseName, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (s Schedule) Has(n CourseName) bool {
	_, ok := s[n]
	return ok
}

// Add appends a record for n.
func (s Schedule) Add(n CourseName, ct CourseTime) {
	s[n] = append(s[n], ct)
}

// Without returns a copy of s with the given courses removed.
func (s Schedule) Without(names ...CourseName) Schedule {
	out := s.Clone()
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// ScheduleCSVRow is one line of the brief schedule export.
type ScheduleCSVRow struct {
	CourseCode string `csv:"CourseCode"`
	DayWeek    string `csv:"DayWeek"`
	Start      string `csv:"Start"`
	End        string `csv:"End"`
	Campus     string `csv:"Campus"`
}

// RegistrarCSVRow mirrors the registrar schedule layout, plus the campus.
type RegistrarCSVRow struct {
	Subject  string `csv:"SUBJECT"`
	Catalog  string `csv:"CATALOG"`
	MtgStart string `csv:"Mtg Start"`
	MtgEnd   string `csv:"Mtg End"`
	Mon      string `csv:"Mon"`
	Tues     string `csv:"Tues"`
	Wed      string `csv:"Wed"`
	Thurs    string `csv:"Thurs"`
	Fri      string `csv:"Fri"`
	Sat      string `csv:"Sat"`
	Sun      string `csv:"Sun"`
	Campus   string `csv:"Campus"`
}
