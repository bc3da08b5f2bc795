package scheduler

import (
	"fmt"

	"github.com/rhyrak/allston-schedule/internal/lp"
	"github.com/rhyrak/allston-schedule/internal/slots"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// PatternKey identifies the decision variable for one candidate meeting
// time of a course.
type PatternKey struct {
	Course model.CourseName
	Index  int
}

// SlotKey identifies the occupancy variable of a course in one slot.
type SlotKey struct {
	Course model.CourseName
	Slot   model.Slot
}

// Course is a course being placed: its candidate meeting times and the
// slots they touch, in first-seen order.
type Course struct {
	Name         model.CourseName
	Campus       model.Campus
	Pattern      model.Pattern
	MeetingTimes []model.MeetingTime
	Slots        []model.Slot
}

// NewCourse lists the legal meeting times of a request on its campus. A
// non-empty candidate list narrows them; candidates outside the catalog
// are ignored.
func NewCourse(req model.Request, campus model.Campus) (*Course, error) {
	legal, err := slots.LegalMeetingTimes(req.Pattern, campus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Course, err)
	}
	mts := legal
	if len(req.Candidates) > 0 {
		mts = nil
		for _, mt := range legal {
			for _, cand := range req.Candidates {
				if mt.Equal(cand) {
					mts = append(mts, mt)
					break
				}
			}
		}
	}
	c := &Course{Name: req.Course, Campus: campus, Pattern: req.Pattern, MeetingTimes: mts}
	seen := map[model.Slot]bool{}
	for _, mt := range mts {
		for _, s := range mt {
			if !seen[s] {
				seen[s] = true
				c.Slots = append(c.Slots, s)
			}
		}
	}
	return c, nil
}

// addCourseVariables creates one binary per meeting time under an
// exactly-one row, and one binary per slot that is 1 exactly when the
// chosen meeting time uses it.
func (p *Problem) addCourseVariables(c *Course) {
	m := p.Model
	patterns := make([]lp.Var, len(c.MeetingTimes))
	users := map[model.Slot][]lp.Var{}
	for i, mt := range c.MeetingTimes {
		x := m.NewBinary(fmt.Sprintf("%s in %s", c.Name, mt))
		patterns[i] = x
		p.patternVars[PatternKey{Course: c.Name, Index: i}] = x
		for _, s := range mt {
			key := SlotKey{Course: c.Name, Slot: s}
			v, ok := p.slotVars[key]
			if !ok {
				v = m.NewBinary(fmt.Sprintf("%s in actual %s", c.Name, s))
				p.slotVars[key] = v
			}
			// pattern implies slot
			m.AddConstraint(fmt.Sprintf("%s %d uses %s", c.Name, i, s), 0, lp.Inf,
				lp.Term{Var: v, Coef: 1}, lp.Term{Var: x, Coef: -1})
			users[s] = append(users[s], x)
		}
	}
	lp.ExactlyOne(m, fmt.Sprintf("%s exactly one", c.Name), patterns)

	for _, s := range c.Slots {
		terms := lp.Sum(users[s]...)
		terms = append(terms, lp.Term{Var: p.slotVars[SlotKey{Course: c.Name, Slot: s}], Coef: -1})
		// slot implies one of its patterns
		m.AddConstraint(fmt.Sprintf("%s in %s needs a pattern", c.Name, s), 0, lp.Inf, terms...)
	}
}

func (p *Problem) PatternVar(course model.CourseName, index int) (lp.Var, bool) {
	v, ok := p.patternVars[PatternKey{Course: course, Index: index}]
	return v, ok
}

func (p *Problem) SlotVar(course model.CourseName, s model.Slot) (lp.Var, bool) {
	v, ok := p.slotVars[SlotKey{Course: course, Slot: s}]
	return v, ok
}
