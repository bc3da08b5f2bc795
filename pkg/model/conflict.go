package model

import "slices"

type coursePair struct {
	a, b CourseName
}

func orderedPair(a, b CourseName) coursePair {
	if b < a {
		a, b = b, a
	}
	return coursePair{a, b}
}

// ConflictTable holds the badness weight of unordered course pairs. Lookups
// are symmetric.
type ConflictTable struct {
	weights   map[coursePair]int
	neighbors map[CourseName][]CourseName
}

func NewConflictTable() *ConflictTable {
	return &ConflictTable{
		weights:   map[coursePair]int{},
		neighbors: map[CourseName][]CourseName{},
	}
}

// Set records the weight of {a, b}. Non-positive weights are ignored. It
// returns the previous weight and whether the pair was already present.
func (t *ConflictTable) Set(a, b CourseName, w int) (prev int, duplicate bool) {
	if w <= 0 || a == b {
		return 0, false
	}
	p := orderedPair(a, b)
	prev, duplicate = t.weights[p]
	t.weights[p] = w
	if !duplicate {
		t.neighbors[a] = append(t.neighbors[a], b)
		t.neighbors[b] = append(t.neighbors[b], a)
	}
	return prev, duplicate
}

// Weight returns the weight of {a, b}, or 0.
func (t *ConflictTable) Weight(a, b CourseName) int {
	return t.weights[orderedPair(a, b)]
}

// Neighbors lists the courses with a recorded weight against n, sorted.
func (t *ConflictTable) Neighbors(n CourseName) []CourseName {
	out := slices.Clone(t.neighbors[n])
	slices.Sort(out)
	return out
}

func (t *ConflictTable) Len() int {
	return len(t.weights)
}

// WeightedPair is one table entry with A < B.
type WeightedPair struct {
	A, B   CourseName
	Weight int
}

// Pairs returns every entry ordered by (A, B).
func (t *ConflictTable) Pairs() []WeightedPair {
	out := make([]WeightedPair, 0, len(t.weights))
	for p, w := range t.weights {
		out = append(out, WeightedPair{A: p.a, B: p.b, Weight: w})
	}
	slices.SortFunc(out, func(x, y WeightedPair) int {
		if x.A != y.A {
			if x.A < y.A {
				return -1
			}
			return 1
		}
		if x.B < y.B {
			return -1
		}
		if x.B > y.B {
			return 1
		}
		return 0
	})
	return out
}
