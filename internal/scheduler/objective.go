package scheduler

import (
	"fmt"

	"github.com/rhyrak/allston-schedule/internal/lp"
	"github.com/rhyrak/allston-schedule/internal/slots"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// addSoftPreferences penalises late periods, Friday, the Tuesday afternoon
// group and each subject's avoided slots.
func (p *Problem) addSoftPreferences(c *Course) {
	w := p.cfg.Weights
	nonStandard := containsCourse(p.cfg.NonStandardCourses, c.Name)
	avoided := p.avoidedSlots(c.Name)

	for _, s := range c.Slots {
		v := p.slotVars[SlotKey{Course: c.Name, Slot: s}]
		switch s.Period {
		case 6:
			p.Model.AddObjective(v, w.AvoidPeriod6)
		case 7:
			p.Model.AddObjective(v, w.AvoidPeriod7)
		}
		if p.tuesday[s] {
			switch {
			case nonStandard && s.String() == p.cfg.TuesdayFavoredSlot:
				p.Model.AddObjective(v, w.FavorTuesdayAfternoon*p.cfg.TuesdayFavorMultiplier)
			case nonStandard:
				p.Model.AddObjective(v, w.FavorTuesdayAfternoon)
			default:
				p.Model.AddObjective(v, w.AvoidTuesdayAfternoon)
			}
		}
		if s.Day == model.Friday {
			p.Model.AddObjective(v, w.AvoidFriday)
		}
		if avoided[s] {
			p.Model.AddObjective(v, w.AvoidPreferredSlots)
		}
	}
}

func (p *Problem) avoidedSlots(n model.CourseName) map[model.Slot]bool {
	out := map[model.Slot]bool{}
	for _, pref := range p.cfg.SlotPreferences {
		if !InArea(n, pref.Subject) {
			continue
		}
		list, err := pref.AvoidSlots()
		if err != nil {
			continue
		}
		for _, s := range list {
			out[s] = true
		}
	}
	return out
}

// addConflicts adds one weighted indicator per conflicting pair that
// involves c. A pair of two placed courses is handled once, by the
// alphabetically earlier course.
func (p *Problem) addConflicts(c *Course) {
	if p.conflicts == nil {
		return
	}
	for _, other := range p.conflicts.Neighbors(c.Name) {
		oc, placing := p.byName[other]
		fixed, isFixed := p.fixed[other]
		if !placing && !isFixed {
			continue
		}
		if placing && !(c.Name < other) {
			continue
		}

		weight := p.conflicts.Weight(c.Name, other)
		name := fmt.Sprintf("%s and %s conflict", c.Name, other)
		v := p.Model.NewBinary(name)
		p.Model.AddObjective(v, p.cfg.Weights.BadConflictFactor*float64(weight))
		p.conflictVars[orderedPair(c.Name, other)] = v

		var disjuncts []lp.Var
		if placing {
			for _, s := range c.Slots {
				for _, so := range oc.Slots {
					if !slotsOverlap(s, so) {
						continue
					}
					bothName := fmt.Sprintf("%s using %s and %s using %s", c.Name, s, other, so)
					both := p.Model.NewBinary(bothName)
					lp.Conjunction(p.Model, bothName, both, []lp.Var{
						p.slotVars[SlotKey{Course: c.Name, Slot: s}],
						p.slotVars[SlotKey{Course: other, Slot: so}],
					})
					disjuncts = append(disjuncts, both)
				}
			}
		} else {
			for _, s := range c.Slots {
				if model.TimesConflict([]model.CourseTime{slots.SlotTime(s)}, fixed) {
					disjuncts = append(disjuncts, p.slotVars[SlotKey{Course: c.Name, Slot: s}])
				}
			}
		}
		lp.Disjunction(p.Model, name, v, disjuncts)
	}
}

func slotsOverlap(a, b model.Slot) bool {
	return slots.SlotTime(a).ConflictsWith(slots.SlotTime(b))
}

type coursePair struct {
	a, b model.CourseName
}

func orderedPair(a, b model.CourseName) coursePair {
	if b < a {
		a, b = b, a
	}
	return coursePair{a, b}
}
