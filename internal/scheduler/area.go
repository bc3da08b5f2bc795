package scheduler

import (
	"fmt"

	"github.com/rhyrak/allston-schedule/internal/lp"
)

const daytimePeriods = 5

// addAreaBalance spreads each department group's multi-meeting courses
// across Tue/Thu versus Mon/Wed/Fri and across the five daytime start
// periods. Imbalances are soft.
func (p *Problem) addAreaBalance() {
	w := p.cfg.Weights
	for _, area := range p.cfg.AreaGroups {
		var members []*Course
		for _, c := range p.courses {
			if InArea(c.Name, area) {
				members = append(members, c)
			}
		}
		if len(members) == 0 {
			continue
		}

		var dayTerms []lp.Term
		startTerms := make([][]lp.Term, daytimePeriods+1)
		for _, c := range members {
			for i, mt := range c.MeetingTimes {
				if f := mt.Frequency(); f != 2 && f != 3 {
					continue
				}
				x := p.patternVars[PatternKey{Course: c.Name, Index: i}]
				if mt.IsTuTh() {
					dayTerms = append(dayTerms, lp.Term{Var: x, Coef: 1})
				} else {
					dayTerms = append(dayTerms, lp.Term{Var: x, Coef: -1})
				}
				if start := mt.StartPeriod(); start >= 1 && start <= daytimePeriods {
					startTerms[start] = append(startTerms[start], lp.Term{Var: x, Coef: 1})
				}
			}
		}

		n := len(members)
		dow := p.Model.NewInt(area+" diff between TuTh and MWF courses", 0, n)
		p.Model.AddObjective(dow, w.DayOfWeekImbalance)
		lp.AbsBound(p.Model, area+" day of week", dow, dayTerms)

		tod := p.Model.NewInt(area+" diff between times of day", 0, n)
		p.Model.AddObjective(tod, w.TimeOfDayImbalance)
		for i := 1; i <= daytimePeriods; i++ {
			for j := i + 1; j <= daytimePeriods; j++ {
				diff := append([]lp.Term(nil), startTerms[i]...)
				for _, t := range startTerms[j] {
					diff = append(diff, lp.Term{Var: t.Var, Coef: -t.Coef})
				}
				lp.AbsBound(p.Model, fmt.Sprintf("%s periods %d vs %d", area, i, j), tod, diff)
			}
		}
		p.areaVars = append(p.areaVars, dow, tod)
	}
}
