package model

import (
	"fmt"
	"strings"
)

type Campus int

const (
	Cambridge Campus = iota
	Allston
)

func (c Campus) String() string {
	if c == Allston {
		return "Allston"
	}
	return "Cambridge"
}

func ParseCampus(s string) (Campus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cambridge", "c":
		return Cambridge, nil
	case "allston", "a":
		return Allston, nil
	}
	return Cambridge, fmt.Errorf("unknown campus %q", s)
}

// CampusRule places the courses of one subject in Allston. With AllExcept
// set, every catalog except the listed ones moves; otherwise only the Only
// catalogs move.
type CampusRule struct {
	Subject   string   `json:"subject" mapstructure:"subject" validate:"required"`
	AllExcept []string `json:"all_except,omitempty" mapstructure:"all_except"`
	Only      []string `json:"only,omitempty" mapstructure:"only"`
	All       bool     `json:"all,omitempty" mapstructure:"all"`
}

// CampusLocator answers which campus a course will be taught on. Subjects
// without a rule stay in Cambridge.
type CampusLocator struct {
	rules map[string]CampusRule
}

func NewCampusLocator(rules []CampusRule) *CampusLocator {
	l := &CampusLocator{rules: make(map[string]CampusRule, len(rules))}
	for _, r := range rules {
		l.rules[strings.ToUpper(r.Subject)] = r
	}
	return l
}

func (l *CampusLocator) Locate(n CourseName) Campus {
	subject, catalog := n.Split()
	r, ok := l.rules[subject]
	if !ok {
		return Cambridge
	}
	switch {
	case r.All:
		return Allston
	case r.AllExcept != nil:
		if containsFold(r.AllExcept, catalog) {
			return Cambridge
		}
		return Allston
	case containsFold(r.Only, catalog):
		return Allston
	}
	return Cambridge
}

func (l *CampusLocator) InAllston(n CourseName) bool {
	return l.Locate(n) == Allston
}

// CountAllston counts the Allston courses among names.
func (l *CampusLocator) CountAllston(names []CourseName) int {
	n := 0
	for _, c := range names {
		if l.InAllston(c) {
			n++
		}
	}
	return n
}

func containsFold(s []string, e string) bool {
	for _, a := range s {
		if strings.EqualFold(strings.TrimSpace(a), e) {
			return true
		}
	}
	return false
}
