package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/lp"
	"github.com/rhyrak/allston-schedule/internal/score"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// Input is one scheduling run. Requests must already be prepared (see
// PrepareRequests): no requested course may appear in Fixed.
type Input struct {
	Requests     []model.Request
	Fixed        model.Schedule
	Conflicts    *model.ConflictTable
	Enrollment   *model.Enrollment
	LargeCourses map[model.CourseName]bool
}

// Node is one solved schedule in the repair search. Nodes are not modified
// after they are created.
type Node struct {
	ID         int
	Assignment Assignment
	Forbidden  []Forbidden
	Score      score.Result
	Simple     score.Simple
	Objective  float64
	Parent     *Node
	ChildIndex int
	// Children are the combinations to forbid when this node is expanded.
	Children []Forbidden
}

// Step is one link in the chain from the initial solution to a node.
type Step struct {
	Node       int          `json:"node"`
	Simple     score.Simple `json:"simple_score"`
	ChildIndex int          `json:"child_index"`
}

// History lists the chain from n back to the initial solution.
func (n *Node) History() []Step {
	var out []Step
	for cur := n; cur != nil; cur = cur.Parent {
		out = append(out, Step{Node: cur.ID, Simple: cur.Simple, ChildIndex: cur.ChildIndex})
	}
	return out
}

// Observer is told about solver calls and search progress.
type Observer interface {
	SolveFinished(status lp.Status, elapsed time.Duration)
	NodeAccepted(n *Node, best bool)
	FrontierChanged(size int)
}

type nopObserver struct{}

func (nopObserver) SolveFinished(lp.Status, time.Duration) {}
func (nopObserver) NodeAccepted(*Node, bool)               {}
func (nopObserver) FrontierChanged(int)                    {}

type Result struct {
	Best     *Node
	Initial  *Node
	Fixed    model.Schedule
	Combined model.Schedule
	Warnings model.Diagnostics
	Solves   int
	Expanded int
	Elapsed  time.Duration
}

// Placed returns the chosen meeting time of every requested course.
func (r *Result) Placed() map[model.CourseName]model.MeetingTime {
	out := make(map[model.CourseName]model.MeetingTime, len(r.Best.Assignment))
	for cn, ch := range r.Best.Assignment {
		out[cn] = ch.Time
	}
	return out
}

type Engine struct {
	cfg      *Configuration
	solver   lp.Solver
	logger   *zap.Logger
	observer Observer
}

func NewEngine(cfg *Configuration, solver lp.Solver, logger *zap.Logger, observer Observer) *Engine {
	if cfg == nil {
		cfg = NewDefaultConfiguration()
	}
	if solver == nil {
		solver = lp.NewPBSolver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Engine{cfg: cfg, solver: solver, logger: logger, observer: observer}
}

type run struct {
	*Engine
	in      Input
	problem *Problem
	locator *model.CampusLocator
	toCount map[model.CourseName]bool
	nextID  int
	solves  int
}

// Run solves the base problem once, then repeatedly forbids the choices
// blamed for extra round trips and lost lunches, keeping the best schedule
// found before the search budget runs out.
func (e *Engine) Run(ctx context.Context, in Input) (*Result, error) {
	started := time.Now()
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(in.Requests) == 0 {
		return nil, ErrNothingToSchedule
	}

	r := &run{Engine: e, in: in, locator: e.cfg.Locator(), toCount: map[model.CourseName]bool{}}
	res := &Result{Fixed: in.Fixed}

	courses := make([]*Course, 0, len(in.Requests))
	for _, req := range in.Requests {
		if in.Fixed.Has(req.Course) {
			return nil, fmt.Errorf("%w: %s is requested but still in the fixed schedule", ErrPrecondition, req.Course)
		}
		c, err := NewCourse(req, r.locator.Locate(req.Course))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
		}
		if len(c.MeetingTimes) == 0 {
			res.Warnings.Add(model.WarnNoCandidates, req.Course, "none of the candidate meeting times is legal; ignoring it")
			continue
		}
		courses = append(courses, c)
		r.toCount[c.Name] = true
	}
	if len(courses) == 0 {
		return nil, ErrNothingToSchedule
	}

	p, err := Build(e.cfg, courses, in.Fixed, in.Conflicts)
	if err != nil {
		return nil, err
	}
	r.problem = p
	e.logger.Info("model built",
		zap.Int("courses", len(courses)),
		zap.Int("variables", p.Model.NumVars()),
		zap.Int("constraints", p.Model.NumConstraints()),
	)

	sol, err := r.solve(ctx, p.Model)
	if err != nil {
		return nil, err
	}
	switch sol.Status {
	case lp.Optimal:
	case lp.Feasible:
		res.Warnings.Add(model.WarnNotOptimal, "", "initial solve hit the %s limit; using the best schedule found", e.cfg.SolveTimeLimit)
	case lp.Infeasible:
		return nil, ErrInfeasibleBase
	default:
		return nil, ErrNoInitialSolution
	}
	initial, err := r.newNode(sol, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	e.observer.NodeAccepted(initial, true)
	e.logger.Info("new best", zap.Int("node", initial.ID), zap.Stringer("score", initial.Simple))

	best := r.search(ctx, initial, started, res)

	res.Initial = initial
	res.Best = best
	res.Combined = mergeSchedules(in.Fixed, best.Assignment.Schedule())
	res.Solves = r.solves
	res.Elapsed = time.Since(started)
	return res, nil
}

func (r *run) search(ctx context.Context, initial *Node, started time.Time, res *Result) *Node {
	best := initial
	pending := []*Node{initial}
	deadline := started.Add(r.cfg.SearchBudget)
	expired := func() bool {
		return ctx.Err() != nil || !time.Now().Before(deadline)
	}

	for len(pending) > 0 {
		if expired() {
			r.logger.Info("search budget reached", zap.Duration("budget", r.cfg.SearchBudget))
			break
		}
		slices.SortStableFunc(pending, func(a, b *Node) int {
			return cmp.Or(a.Simple.Compare(b.Simple), cmp.Compare(a.ID, b.ID))
		})
		n := pending[0]
		pending = pending[1:]
		if len(pending) > r.cfg.FrontierSize {
			pending = pending[:r.cfg.FrontierSize]
		}
		res.Expanded++

		childIndex := 0
		for _, forbid := range n.Children {
			if expired() {
				break
			}
			constraints := append(slices.Clone(n.Forbidden), forbid)
			sol, err := r.solve(ctx, r.problem.WithForbidden(constraints))
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					break
				}
				r.logger.Warn("child solve failed", zap.Int("parent", n.ID), zap.Error(err))
				continue
			}
			if sol.Status != lp.Optimal {
				r.logger.Debug("child dropped", zap.Int("parent", n.ID), zap.Stringer("status", sol.Status))
				continue
			}
			child, err := r.newNode(sol, constraints, n, childIndex)
			if err != nil {
				r.logger.Warn("child decode failed", zap.Int("parent", n.ID), zap.Error(err))
				continue
			}
			childIndex++
			pending = append(pending, child)

			better := child.Simple.Less(best.Simple)
			r.observer.NodeAccepted(child, better)
			if better {
				best = child
				r.logger.Info("new best", zap.Int("node", child.ID), zap.Stringer("score", child.Simple))
			}
		}
		r.observer.FrontierChanged(len(pending))
	}
	return best
}

func (r *run) solve(ctx context.Context, m *lp.Model) (*lp.Solution, error) {
	r.solves++
	sol, err := r.solver.Solve(ctx, m, r.cfg.SolveTimeLimit)
	if err != nil {
		return nil, fmt.Errorf("solve %d: %w", r.solves, err)
	}
	r.observer.SolveFinished(sol.Status, sol.Elapsed)
	r.logger.Debug("solve",
		zap.Int("call", r.solves),
		zap.Stringer("status", sol.Status),
		zap.Float64("objective", sol.Objective),
		zap.Int("models", sol.Models),
		zap.Duration("elapsed", sol.Elapsed),
	)
	return sol, nil
}

func (r *run) newNode(sol *lp.Solution, forbidden []Forbidden, parent *Node, childIndex int) (*Node, error) {
	a, err := r.problem.Decode(sol)
	if err != nil {
		return nil, err
	}
	sc := score.Compute(score.Input{
		Schedule:       mergeSchedules(r.in.Fixed, a.Schedule()),
		Conflicts:      r.in.Conflicts,
		Enrollment:     r.enrollment(),
		Locator:        r.locator,
		CoursesToCount: r.toCount,
		LargeCourses:   r.in.LargeCourses,
	})
	n := &Node{
		ID:         r.nextID,
		Assignment: a,
		Forbidden:  forbidden,
		Score:      sc,
		Simple:     sc.Score.Simple,
		Objective:  sol.Objective,
		Parent:     parent,
		ChildIndex: childIndex,
	}
	r.nextID++

	blamed := append(sc.RoundTripBlame.Top(r.cfg.BlameTopK), sc.LunchBlame.Top(r.cfg.BlameTopK)...)
	for _, set := range blamed {
		var f Forbidden
		for _, cn := range set.Names() {
			if ch, ok := a[cn]; ok {
				f = append(f, ch)
			}
		}
		if len(f) > 0 {
			n.Children = append(n.Children, f)
		}
	}
	return n, nil
}

func (r *run) enrollment() *model.Enrollment {
	if r.in.Enrollment == nil {
		return model.NewEnrollment()
	}
	return r.in.Enrollment
}

func mergeSchedules(fixed, placed model.Schedule) model.Schedule {
	out := fixed.Clone()
	for cn, times := range placed {
		out[cn] = times
	}
	return out
}
