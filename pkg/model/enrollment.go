package model

import (
	"slices"
	"strings"
)

// CourseSet is an immutable, sorted, duplicate-free set of course names.
type CourseSet struct {
	names []CourseName
	key   string
}

func NewCourseSet(names ...CourseName) CourseSet {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = string(n)
	}
	return CourseSet{names: sorted, key: strings.Join(parts, ";")}
}

// Key identifies the set; equal sets have equal keys.
func (s CourseSet) Key() string {
	return s.key
}

// Names returns a copy of the members in sorted order.
func (s CourseSet) Names() []CourseName {
	return slices.Clone(s.names)
}

func (s CourseSet) Len() int {
	return len(s.names)
}

func (s CourseSet) Contains(n CourseName) bool {
	_, found := slices.BinarySearch(s.names, n)
	return found
}

func (s CourseSet) String() string {
	return "{" + strings.ReplaceAll(s.key, ";", ", ") + "}"
}

// EnrollmentEntry is one distinct student schedule and how many students had
// it.
type EnrollmentEntry struct {
	Set   CourseSet
	Count int
}

// Enrollment is the multiset of historical student-term schedules.
type Enrollment struct {
	index   map[string]int
	entries []EnrollmentEntry
}

func NewEnrollment() *Enrollment {
	return &Enrollment{index: map[string]int{}}
}

// Add counts n more students with exactly the courses in set.
func (e *Enrollment) Add(set CourseSet, n int) {
	if i, ok := e.index[set.Key()]; ok {
		e.entries[i].Count += n
		return
	}
	e.index[set.Key()] = len(e.entries)
	e.entries = append(e.entries, EnrollmentEntry{Set: set, Count: n})
}

// Count returns how many students had exactly set.
func (e *Enrollment) Count(set CourseSet) int {
	if i, ok := e.index[set.Key()]; ok {
		return e.entries[i].Count
	}
	return 0
}

// Entries returns the distinct schedules in insertion order.
func (e *Enrollment) Entries() []EnrollmentEntry {
	return slices.Clone(e.entries)
}

// Len is the number of distinct schedules.
func (e *Enrollment) Len() int {
	return len(e.entries)
}

// Students is the total count over all schedules.
func (e *Enrollment) Students() int {
	total := 0
	for _, en := range e.entries {
		total += en.Count
	}
	return total
}
