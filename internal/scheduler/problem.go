package scheduler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rhyrak/allston-schedule/internal/lp"
	"github.com/rhyrak/allston-schedule/internal/slots"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// Choice is the meeting time picked for one course.
type Choice struct {
	Course model.CourseName
	Index  int
	Time   model.MeetingTime
}

func (c Choice) String() string {
	return fmt.Sprintf("%s@%s", c.Course, c.Time)
}

// Assignment maps every placed course to its choice.
type Assignment map[model.CourseName]Choice

// Schedule renders the assignment as course times.
func (a Assignment) Schedule() model.Schedule {
	out := make(model.Schedule, len(a))
	for cn, ch := range a {
		out[cn] = []model.CourseTime{slots.ToCourseTime(ch.Time)}
	}
	return out
}

// Forbidden is a combination of choices that must not all recur.
type Forbidden []Choice

func (f Forbidden) String() string {
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Problem is the assembled integer program for one set of courses. The
// base model is never modified after Build; children clone it.
type Problem struct {
	cfg       *Configuration
	Model     *lp.Model
	courses   []*Course
	byName    map[model.CourseName]*Course
	fixed     model.Schedule
	conflicts *model.ConflictTable
	tuesday   map[model.Slot]bool

	patternVars  map[PatternKey]lp.Var
	slotVars     map[SlotKey]lp.Var
	conflictVars map[coursePair]lp.Var
	areaVars     []lp.Var
}

// Build assembles variables, constraints and objective for courses against
// the fixed schedule.
func Build(cfg *Configuration, courses []*Course, fixed model.Schedule, conflicts *model.ConflictTable) (*Problem, error) {
	p := &Problem{
		cfg:          cfg,
		Model:        lp.NewModel(),
		courses:      slices.Clone(courses),
		byName:       make(map[model.CourseName]*Course, len(courses)),
		fixed:        fixed,
		conflicts:    conflicts,
		tuesday:      map[model.Slot]bool{},
		patternVars:  map[PatternKey]lp.Var{},
		slotVars:     map[SlotKey]lp.Var{},
		conflictVars: map[coursePair]lp.Var{},
	}
	slices.SortFunc(p.courses, func(a, b *Course) int { return strings.Compare(string(a.Name), string(b.Name)) })
	for _, c := range p.courses {
		if _, dup := p.byName[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s requested twice", ErrPrecondition, c.Name)
		}
		if fixed.Has(c.Name) {
			return nil, fmt.Errorf("%w: %s is both requested and fixed", ErrPrecondition, c.Name)
		}
		if len(c.MeetingTimes) == 0 {
			return nil, fmt.Errorf("%w: %s has no meeting times", ErrPrecondition, c.Name)
		}
		p.byName[c.Name] = c
	}
	for _, code := range cfg.TuesdayGroup {
		s, err := model.ParseSlot(code)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
		}
		p.tuesday[s] = true
	}

	for _, c := range p.courses {
		p.addCourseVariables(c)
	}
	for _, c := range p.courses {
		p.addSoftPreferences(c)
		p.addConflicts(c)
	}
	p.addAreaBalance()
	return p, nil
}

func (p *Problem) Courses() []*Course {
	return p.courses
}

// WithForbidden returns a copy of the base model in which none of the
// given combinations may all be chosen together.
func (p *Problem) WithForbidden(sets []Forbidden) *lp.Model {
	m := p.Model.Clone()
	for i, set := range sets {
		vars := make([]lp.Var, 0, len(set))
		for _, ch := range set {
			if v, ok := p.PatternVar(ch.Course, ch.Index); ok {
				vars = append(vars, v)
			}
		}
		if len(vars) == 0 {
			continue
		}
		lp.Forbid(m, fmt.Sprintf("forbid %d %s", i, set), vars)
	}
	return m
}

// Decode reads the chosen meeting time of every course from a solution.
func (p *Problem) Decode(sol *lp.Solution) (Assignment, error) {
	if !sol.HasValues() {
		return nil, fmt.Errorf("decode: solution status %s has no values", sol.Status)
	}
	out := make(Assignment, len(p.courses))
	for _, c := range p.courses {
		chosen := -1
		for i := range c.MeetingTimes {
			if sol.Bool(p.patternVars[PatternKey{Course: c.Name, Index: i}]) {
				if chosen >= 0 {
					return nil, fmt.Errorf("decode: %s has more than one meeting time", c.Name)
				}
				chosen = i
			}
		}
		if chosen < 0 {
			return nil, fmt.Errorf("decode: %s has no meeting time", c.Name)
		}
		out[c.Name] = Choice{Course: c.Name, Index: chosen, Time: c.MeetingTimes[chosen]}
	}
	return out, nil
}

// ConflictIndicators reports which modelled conflict indicators are set in
// a solution.
func (p *Problem) ConflictIndicators(sol *lp.Solution) []model.WeightedPair {
	var out []model.WeightedPair
	for pair, v := range p.conflictVars {
		if sol.Bool(v) {
			out = append(out, model.WeightedPair{A: pair.a, B: pair.b, Weight: p.conflicts.Weight(pair.a, pair.b)})
		}
	}
	slices.SortFunc(out, func(x, y model.WeightedPair) int {
		if c := strings.Compare(string(x.A), string(y.A)); c != 0 {
			return c
		}
		return strings.Compare(string(x.B), string(y.B))
	})
	return out
}
