package model

import "fmt"

// Pattern is a weekly (meetings per week, consecutive periods per meeting)
// request.
type Pattern struct {
	Frequency int `json:"frequency"`
	Duration  int `json:"duration"`
}

func (p Pattern) String() string {
	return fmt.Sprintf("(%d,%d)", p.Frequency, p.Duration)
}

// Request asks for one course to be placed.
type Request struct {
	Course  CourseName
	Pattern Pattern
	// Inferred is set when Pattern came from the course's fixed records.
	Inferred bool
	// Candidates, when non-empty, restricts the legal meeting times to
	// this subset.
	Candidates []MeetingTime
}

// SlotPreference lists slots a subject's courses should stay out of, such
// as a department's faculty lunch or colloquium.
type SlotPreference struct {
	Subject string   `json:"subject" mapstructure:"subject" validate:"required"`
	Avoid   []string `json:"avoid" mapstructure:"avoid" validate:"required,dive,required"`
}

// AvoidSlots parses the avoided slot codes.
func (p SlotPreference) AvoidSlots() ([]Slot, error) {
	out := make([]Slot, 0, len(p.Avoid))
	for _, code := range p.Avoid {
		s, err := ParseSlot(code)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
