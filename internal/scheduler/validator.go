package scheduler

import (
	"fmt"

	"github.com/rhyrak/allston-schedule/internal/slots"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

// Validate checks the result for unplaced courses and illegal meeting
// times, and lists the conflicts left in the placed schedule.
// Returns false and a message for invalid results.
func Validate(in Input, res *Result, cfg *Configuration) (bool, string) {
	var message string
	var valid bool = true
	var allPlaced bool = true
	var allLegal bool = true

	locator := cfg.Locator()
	skipped := map[model.CourseName]bool{}
	for _, w := range res.Warnings {
		if w.Code == model.WarnNoCandidates {
			skipped[w.Course] = true
		}
	}

	for _, req := range in.Requests {
		if skipped[req.Course] {
			continue
		}
		ch, ok := res.Best.Assignment[req.Course]
		if !ok {
			allPlaced = false
			message += fmt.Sprintf("- %s has no meeting time\n", req.Course)
			continue
		}
		legal, err := slots.LegalMeetingTimes(req.Pattern, locator.Locate(req.Course))
		if err != nil {
			allLegal = false
			message += fmt.Sprintf("- %s: %v\n", req.Course, err)
			continue
		}
		found := false
		for _, mt := range legal {
			if mt.Equal(ch.Time) {
				found = true
				break
			}
		}
		if !found {
			allLegal = false
			message += fmt.Sprintf("- %s placed at %s, which is not a legal %s meeting time\n", req.Course, ch.Time, req.Pattern)
		}
	}
	valid = allPlaced && allLegal

	conflictCount := 0
	if in.Conflicts != nil {
		for _, p := range in.Conflicts.Pairs() {
			if p.Weight < cfg.ReportConflictWeight {
				continue
			}
			_, placedA := res.Best.Assignment[p.A]
			_, placedB := res.Best.Assignment[p.B]
			if !placedA && !placedB {
				continue
			}
			ta, okA := res.Combined[p.A]
			tb, okB := res.Combined[p.B]
			if okA && okB && model.TimesConflict(ta, tb) {
				conflictCount++
				message += fmt.Sprintf("    %-12s and %-12s conflict (weight %3d)\n", p.A, p.B, p.Weight)
			}
		}
	}

	message = fmt.Sprintf("[INFO]: %d conflicts left with weight >= %d.\n", conflictCount, cfg.ReportConflictWeight) + message
	if allLegal {
		message = "[  OK]: Legal meeting time check.\n" + message
	} else {
		message = "[FAIL]: Legal meeting time check.\n" + message
	}
	if allPlaced {
		message = "[  OK]: Course has meeting time check.\n" + message
	} else {
		message = "[FAIL]: Course has meeting time check.\n" + message
	}

	return valid, message
}
