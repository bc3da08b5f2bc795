package model

import (
	"fmt"
	"strings"
)

// CourseName is the canonical "SUBJECT CATALOG" identity of a course,
// uppercase with a single space separator, e.g. "COMPSCI 50".
type CourseName string

// Canonical builds a CourseName from a subject and catalog number.
func Canonical(subject, catalog string) CourseName {
	return CourseName(strings.ToUpper(strings.TrimSpace(subject) + " " + strings.TrimSpace(catalog)))
}

// ParseCourseName validates s as a canonical name. Surrounding space and
// lowercase letters are accepted and fixed up.
func ParseCourseName(s string) (CourseName, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	subject, catalog, ok := strings.Cut(s, " ")
	if !ok || subject == "" || strings.TrimSpace(catalog) == "" {
		return "", fmt.Errorf("malformed course name %q", s)
	}
	return Canonical(subject, catalog), nil
}

// Split returns the subject and catalog parts.
func (n CourseName) Split() (subject, catalog string) {
	subject, catalog, _ = strings.Cut(string(n), " ")
	return subject, catalog
}

func (n CourseName) Subject() string {
	s, _ := n.Split()
	return s
}

func (n CourseName) Catalog() string {
	_, c := n.Split()
	return c
}

// CrossListing is a group of course names that are the same offering. The
// first name is canonical.
type CrossListing []CourseName

// CrossListIndex maps every listed name to its canonical name.
type CrossListIndex map[CourseName]CourseName

func NewCrossListIndex(groups []CrossListing) CrossListIndex {
	idx := CrossListIndex{}
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		for _, n := range g {
			idx[n] = g[0]
		}
	}
	return idx
}

// Resolve maps n to its canonical cross-listed name, or n itself.
func (idx CrossListIndex) Resolve(n CourseName) CourseName {
	if c, ok := idx[n]; ok {
		return c
	}
	return n
}

// IsCanonical is false for secondary names of a cross-listed group.
func (idx CrossListIndex) IsCanonical(n CourseName) bool {
	c, ok := idx[n]
	return !ok || c == n
}
