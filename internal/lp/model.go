// Package lp holds a small 0-1/integer linear program model, the builders
// that encode logic over its binaries, and a pseudo-boolean solver for it.
package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUnboundedDomain = errors.New("variable domain must be finite")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrEmptyRange      = errors.New("constraint range is empty")
)

// maxDomain bounds the width of an integer variable.
const maxDomain = 1 << 20

// Inf marks a one-sided constraint.
var Inf = math.Inf(1)

type Var int

type Term struct {
	Var  Var
	Coef float64
}

// Sum returns the terms of x1 + x2 + ... + xn.
func Sum(vars ...Var) []Term {
	out := make([]Term, len(vars))
	for i, v := range vars {
		out[i] = Term{Var: v, Coef: 1}
	}
	return out
}

type Constraint struct {
	Name  string
	Lo    float64
	Hi    float64
	Terms []Term
}

type variable struct {
	name   string
	lo, hi int
}

// Model is a minimisation problem over integer variables.
type Model struct {
	vars []variable
	cons []Constraint
	obj  []float64
}

func NewModel() *Model {
	return &Model{}
}

func (m *Model) NewBinary(name string) Var {
	return m.NewInt(name, 0, 1)
}

func (m *Model) NewInt(name string, lo, hi int) Var {
	m.vars = append(m.vars, variable{name: name, lo: lo, hi: hi})
	m.obj = append(m.obj, 0)
	return Var(len(m.vars) - 1)
}

// AddConstraint adds lo <= sum(terms) <= hi. Repeated variables are merged
// and zero coefficients dropped.
func (m *Model) AddConstraint(name string, lo, hi float64, terms ...Term) {
	merged := make([]Term, 0, len(terms))
	pos := make(map[Var]int, len(terms))
	for _, t := range terms {
		if i, ok := pos[t.Var]; ok {
			merged[i].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(merged)
		merged = append(merged, t)
	}
	out := merged[:0]
	for _, t := range merged {
		if t.Coef != 0 {
			out = append(out, t)
		}
	}
	m.cons = append(m.cons, Constraint{Name: name, Lo: lo, Hi: hi, Terms: out})
}

// AddObjective adds coef*v to the objective. Calls accumulate.
func (m *Model) AddObjective(v Var, coef float64) {
	m.obj[v] += coef
}

func (m *Model) ObjectiveCoef(v Var) float64 {
	return m.obj[v]
}

func (m *Model) VarName(v Var) string {
	return m.vars[v].name
}

func (m *Model) NumVars() int {
	return len(m.vars)
}

func (m *Model) NumConstraints() int {
	return len(m.cons)
}

func (m *Model) Constraints() []Constraint {
	return m.cons
}

// Clone copies the model so that constraints can be added to the copy
// without touching m.
func (m *Model) Clone() *Model {
	return &Model{
		vars: append([]variable(nil), m.vars...),
		cons: append([]Constraint(nil), m.cons...),
		obj:  append([]float64(nil), m.obj...),
	}
}

func (m *Model) validate() error {
	for i, v := range m.vars {
		if v.lo > v.hi {
			return fmt.Errorf("%w: %s has [%d,%d]", ErrEmptyRange, v.name, v.lo, v.hi)
		}
		if v.lo == math.MinInt || v.hi == math.MaxInt || v.hi-v.lo > maxDomain {
			return fmt.Errorf("%w: %s (#%d)", ErrUnboundedDomain, v.name, i)
		}
	}
	for _, c := range m.cons {
		if c.Lo > c.Hi {
			return fmt.Errorf("%w: %s", ErrEmptyRange, c.Name)
		}
		for _, t := range c.Terms {
			if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
				return fmt.Errorf("%w: %d in %s", ErrUnknownVariable, t.Var, c.Name)
			}
		}
	}
	return nil
}

// violated reports the first constraint that values break.
func (m *Model) violated(values []int) (string, bool) {
	const eps = 1e-9
	for _, c := range m.cons {
		sum := 0.0
		for _, t := range c.Terms {
			sum += t.Coef * float64(values[t.Var])
		}
		if sum < c.Lo-eps || sum > c.Hi+eps {
			return c.Name, false
		}
	}
	return "", true
}

func (m *Model) objective(values []int) float64 {
	sum := 0.0
	for i, coef := range m.obj {
		sum += coef * float64(values[i])
	}
	return sum
}

type Status int

const (
	Unknown Status = iota
	Optimal
	Feasible
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// Solution is the outcome of a solve. Values are only meaningful when
// Status is Optimal or Feasible.
type Solution struct {
	Status    Status
	Objective float64
	Models    int // improving models the solver found
	Elapsed   time.Duration
	values    []int
}

func (s *Solution) HasValues() bool {
	return s.Status == Optimal || s.Status == Feasible
}

func (s *Solution) Value(v Var) int {
	if !s.HasValues() {
		return 0
	}
	return s.values[v]
}

func (s *Solution) Bool(v Var) bool {
	return s.Value(v) != 0
}

// Solver minimises a model. A limit of 0 means no wall-clock limit.
type Solver interface {
	Solve(ctx context.Context, m *Model, limit time.Duration) (*Solution, error)
}
