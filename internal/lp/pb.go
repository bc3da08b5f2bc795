package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/crillab/gophersat/solver"
)

var (
	ErrNonIntegral = errors.New("constraint coefficients must be integral")
	ErrBadModel    = errors.New("solver returned a model that violates the constraints")
)

// objectiveScale turns fractional objective coefficients into the integer
// costs the pseudo-boolean solver works with.
const objectiveScale = 1000

// PBSolver minimises a model with gophersat's pseudo-boolean optimiser.
// Integer variables are binary encoded. The search is anytime: when the
// limit or the context ends it, the best model found so far is returned
// as Feasible.
type PBSolver struct {
	// Grace is how long Solve waits after asking the solver to stop. The
	// solver only checks for stop between models, so a first model that
	// takes longer than the limit plus Grace is abandoned as Unknown.
	Grace time.Duration
}

func NewPBSolver() *PBSolver {
	return &PBSolver{Grace: 2 * time.Second}
}

func (p *PBSolver) Solve(ctx context.Context, m *Model, limit time.Duration) (*Solution, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	if ctx.Err() != nil {
		return &Solution{Status: Unknown}, nil
	}

	enc, err := encode(m)
	if err != nil {
		return nil, err
	}
	if enc.infeasible {
		return &Solution{Status: Infeasible, Elapsed: time.Since(started)}, nil
	}

	if len(enc.constrs) == 0 {
		values := enc.decode(m, nil)
		return &Solution{Status: Optimal, Objective: m.objective(values), Elapsed: time.Since(started), values: values}, nil
	}

	pb := solver.ParsePBConstrs(enc.constrs)
	if len(enc.costLits) > 0 {
		pb.SetCostFunc(enc.costLits, enc.costWeights)
	}
	s := solver.New(pb)

	results := make(chan solver.Result)
	models := make(chan int, 1)
	go func() {
		n := 0
		for r := range results {
			if r.Status != solver.Unsat {
				n++
			}
		}
		models <- n
	}()

	stop := make(chan struct{})
	done := make(chan solver.Result, 1)
	go func() {
		done <- s.Optimal(results, stop)
	}()

	var deadline <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		deadline = timer.C
	}

	var res solver.Result
	stopped := false
	select {
	case res = <-done:
	case <-deadline:
		stopped = true
	case <-ctx.Done():
		stopped = true
	}
	if stopped {
		close(stop)
		grace := time.NewTimer(p.Grace)
		defer grace.Stop()
		select {
		case res = <-done:
		case <-grace.C:
			// Still looking for a first model; it finishes in the background.
			return &Solution{Status: Unknown, Elapsed: time.Since(started)}, nil
		}
	}

	sol := &Solution{Models: <-models, Elapsed: time.Since(started)}
	if res.Status == solver.Unsat {
		sol.Status = Infeasible
		return sol, nil
	}

	values := enc.decode(m, s.Model())
	if name, ok := m.violated(values); !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadModel, name)
	}
	sol.values = values
	sol.Objective = m.objective(values)
	sol.Status = Optimal
	if stopped {
		sol.Status = Feasible
	}
	return sol, nil
}

// encoding maps a model onto gophersat's 1-based boolean variables. An
// integer variable with domain [lo, hi] becomes lo + sum(2^k * b_k).
type encoding struct {
	bits        [][]int
	constrained map[int]bool
	constrs     []solver.PBConstr
	costLits    []solver.Lit
	costWeights []int
	infeasible  bool
}

func encode(m *Model) (*encoding, error) {
	enc := &encoding{bits: make([][]int, len(m.vars)), constrained: map[int]bool{}}
	next := 1
	for i, v := range m.vars {
		width := 0
		for span := v.hi - v.lo; span > 0; span >>= 1 {
			width++
		}
		for k := 0; k < width; k++ {
			enc.bits[i] = append(enc.bits[i], next)
			next++
		}
		if v.lo+(1<<width)-1 > v.hi {
			// b encodes up to 2^width-1; cap it at hi-lo.
			enc.atMost(enc.expand(Var(i), 1), v.hi-v.lo)
		}
	}

	for _, c := range m.cons {
		terms := make([]pbTerm, 0, len(c.Terms))
		offset := 0
		for _, t := range c.Terms {
			if t.Coef != math.Trunc(t.Coef) {
				return nil, fmt.Errorf("%w: %s", ErrNonIntegral, c.Name)
			}
			coef := int(t.Coef)
			offset += coef * m.vars[t.Var].lo
			terms = append(terms, enc.expand(t.Var, coef)...)
		}
		if !math.IsInf(c.Lo, -1) {
			enc.atLeast(terms, int(math.Ceil(c.Lo))-offset)
		}
		if !math.IsInf(c.Hi, 1) {
			enc.atMost(terms, int(math.Floor(c.Hi))-offset)
		}
	}

	scale := 1.0
	for _, coef := range m.obj {
		if coef != math.Trunc(coef) {
			scale = objectiveScale
			break
		}
	}
	for i, coef := range m.obj {
		if coef == 0 {
			continue
		}
		for _, t := range enc.expand(Var(i), int(math.Round(coef*scale))) {
			lit, w := t.lit, t.weight
			if !enc.constrained[lit] {
				continue
			}
			if w < 0 {
				lit, w = -lit, -w
			}
			enc.costLits = append(enc.costLits, solver.IntToLit(int32(lit)))
			enc.costWeights = append(enc.costWeights, w)
		}
	}
	return enc, nil
}

type pbTerm struct {
	lit    int
	weight int
}

// expand returns coef*(v - lo) over v's bits.
func (e *encoding) expand(v Var, coef int) []pbTerm {
	out := make([]pbTerm, len(e.bits[v]))
	for k, lit := range e.bits[v] {
		out[k] = pbTerm{lit: lit, weight: coef << k}
	}
	return out
}

// atLeast adds sum(terms) >= n. Negative weights are moved onto the
// negated literal so that every weight handed to the solver is positive.
func (e *encoding) atLeast(terms []pbTerm, n int) {
	lits := make([]int, 0, len(terms))
	weights := make([]int, 0, len(terms))
	total := 0
	for _, t := range terms {
		switch {
		case t.weight > 0:
			lits = append(lits, t.lit)
			weights = append(weights, t.weight)
			total += t.weight
		case t.weight < 0:
			lits = append(lits, -t.lit)
			weights = append(weights, -t.weight)
			n -= t.weight
			total -= t.weight
		}
	}
	if n <= 0 {
		return
	}
	if total < n {
		e.infeasible = true
		return
	}
	for _, lit := range lits {
		e.constrained[abs(lit)] = true
	}
	e.constrs = append(e.constrs, solver.GtEq(lits, weights, n))
}

func (e *encoding) atMost(terms []pbTerm, n int) {
	neg := make([]pbTerm, len(terms))
	for i, t := range terms {
		neg[i] = pbTerm{lit: t.lit, weight: -t.weight}
	}
	e.atLeast(neg, -n)
}

// decode reads every model variable from the solver's assignment. Bits
// that no constraint mentions were left out of the solver and take the
// value that is cheaper for the objective.
func (e *encoding) decode(m *Model, assignment []bool) []int {
	values := make([]int, len(m.vars))
	for i, v := range m.vars {
		val := v.lo
		for k, lit := range e.bits[i] {
			set := m.obj[i] < 0
			if e.constrained[lit] && lit-1 < len(assignment) {
				set = assignment[lit-1]
			}
			if set {
				val += 1 << k
			}
		}
		values[i] = val
	}
	return values
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
