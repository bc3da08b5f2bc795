package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rhyrak/allston-schedule/pkg/model"
)

const (
	MajorUnit = 1000000
	MinorUnit = 100
)

// Weights are the objective coefficients. Conflicts must dominate every
// soft preference.
type Weights struct {
	BadConflictFactor     float64 `json:"bad_conflict_factor" mapstructure:"bad_conflict_factor" validate:"gt=0"`
	AvoidTuesdayAfternoon float64 `json:"avoid_tuesday_afternoon" mapstructure:"avoid_tuesday_afternoon" validate:"gte=0"`
	FavorTuesdayAfternoon float64 `json:"favor_tuesday_afternoon" mapstructure:"favor_tuesday_afternoon" validate:"lte=0"`
	AvoidFriday           float64 `json:"avoid_friday" mapstructure:"avoid_friday" validate:"gte=0"`
	AvoidPreferredSlots   float64 `json:"avoid_preferred_slots" mapstructure:"avoid_preferred_slots" validate:"gte=0"`
	DayOfWeekImbalance    float64 `json:"day_of_week_imbalance" mapstructure:"day_of_week_imbalance" validate:"gte=0"`
	TimeOfDayImbalance    float64 `json:"time_of_day_imbalance" mapstructure:"time_of_day_imbalance" validate:"gte=0"`
	AvoidPeriod6          float64 `json:"avoid_period_6" mapstructure:"avoid_period_6" validate:"gte=0"`
	AvoidPeriod7          float64 `json:"avoid_period_7" mapstructure:"avoid_period_7" validate:"gte=0"`
}

type Configuration struct {
	ConflictsFile    string
	ScheduleFile     string
	EnrollmentFile   string
	CoursesFile      string
	LargeCoursesFile string
	ExportFile       string
	ScoreFile        string

	Weights Weights

	SolveTimeLimit time.Duration `validate:"gt=0"`
	SearchBudget   time.Duration `validate:"gte=0"`
	FrontierSize   int           `validate:"gt=0"`
	BlameTopK      int           `validate:"gt=0"`

	AreaGroups []string `validate:"dive,required"`
	// TuesdayGroup slots are avoided by most courses and favoured by the
	// NonStandardCourses, which get TuesdayFavorMultiplier on
	// TuesdayFavoredSlot.
	TuesdayGroup           []string `validate:"dive,len=2|len=3"`
	TuesdayFavoredSlot     string
	TuesdayFavorMultiplier float64 `validate:"gte=0"`
	NonStandardCourses     []model.CourseName
	SlotPreferences        []model.SlotPreference `validate:"dive"`
	CampusRules            []model.CampusRule     `validate:"dive"`
	CrossListings          []model.CrossListing
	NoLectureCourses       []model.CourseName

	MinCourses                int  `validate:"gte=1"`
	DropNonAllstonEnrollments bool
	AllAllston                bool
	ConvertAllston            bool
	// ReportConflictWeight is the weight at which Validate lists a
	// conflict in the placed schedule.
	ReportConflictWeight int `validate:"gte=0"`
}

func NewDefaultConfiguration() *Configuration {
	return &Configuration{
		ConflictsFile:    "./res/private/bad_course_conflicts.csv",
		ScheduleFile:     "./res/private/schedule.csv",
		EnrollmentFile:   "./res/private/enrollment.csv",
		CoursesFile:      "./res/private/courses_to_schedule.csv",
		LargeCoursesFile: "",
		ExportFile:       "schedule.csv",
		ScoreFile:        "",
		Weights: Weights{
			BadConflictFactor:     MajorUnit,
			AvoidTuesdayAfternoon: MajorUnit * 500,
			FavorTuesdayAfternoon: MajorUnit * -5,
			AvoidFriday:           MinorUnit,
			AvoidPreferredSlots:   MinorUnit * 10,
			DayOfWeekImbalance:    MinorUnit,
			TimeOfDayImbalance:    MinorUnit,
			AvoidPeriod6:          MinorUnit * 200,
			AvoidPeriod7:          MajorUnit * 200,
		},
		SolveTimeLimit:         10 * time.Second,
		SearchBudget:           10 * time.Minute,
		FrontierSize:           200,
		BlameTopK:              3,
		AreaGroups:             []string{"APCOMP", "APMTH", "BE", "COMPSCI", "ENG-SCI", "ESE"},
		TuesdayGroup:           []string{"T4a", "T5a", "T5", "T6"},
		TuesdayFavoredSlot:     "T5a",
		TuesdayFavorMultiplier: 3,
		NonStandardCourses:     []model.CourseName{"COMPSCI 109A", "COMPSCI 109B"},
		SlotPreferences: []model.SlotPreference{
			// Faculty lunch and colloquium.
			{Subject: "COMPSCI", Avoid: []string{"F3a", "R5a"}},
		},
		CampusRules: DefaultCampusRules(),
		CrossListings: []model.CrossListing{
			{"COMPSCI 109A", "STAT 121A", "APCOMP 209A"},
			{"COMPSCI 109B", "STAT 121B", "APCOMP 209B"},
		},
		NoLectureCourses: []model.CourseName{
			"EXPOS 20", "MATH 1A", "MATH 1B", "MATH 21A", "MATH 21B", "ECON 970", "EXPOS 10",
			"EXPOS 40", "ENG-SCI 100HFB", "ENG-SCI 91R", "COMPSCI 91R",
		},
		MinCourses:                2,
		DropNonAllstonEnrollments: true,
		ReportConflictWeight:      1,
	}
}

func DefaultCampusRules() []model.CampusRule {
	return []model.CampusRule{
		{Subject: "COMPSCI", AllExcept: []string{"50", "90NCR", "90NBR"}},
		{Subject: "APCOMP", Only: []string{"209A", "227", "298R", "209B", "221", "290R", "297R"}},
		{Subject: "APMTH", Only: []string{"101", "106", "121", "207", "227", "254", "50A", "107", "221", "231"}},
		{Subject: "APPHY", Only: []string{"50B"}},
		{Subject: "BE", Only: []string{"110", "121", "125", "128", "129", "130", "191"}},
		{Subject: "ESE", Only: []string{"166", "6"}},
		{Subject: "ENG-SCI", Only: []string{
			"100HFA", "125", "139", "152", "155", "173", "181", "190", "21", "222", "239", "25",
			"254", "280", "51", "53", "91HFR", "95R", "96", "112", "120", "123", "150", "151",
			"156", "177", "183", "201", "22", "221", "23", "230", "234", "249", "26", "277",
			"298R", "54",
		}},
	}
}

var validate = validator.New()

// Validate checks field ranges and that every configured slot code parses.
func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	for _, code := range c.TuesdayGroup {
		if _, err := model.ParseSlot(code); err != nil {
			return fmt.Errorf("%w: tuesday group: %v", ErrPrecondition, err)
		}
	}
	if c.TuesdayFavoredSlot != "" {
		if _, err := model.ParseSlot(c.TuesdayFavoredSlot); err != nil {
			return fmt.Errorf("%w: tuesday favored slot: %v", ErrPrecondition, err)
		}
	}
	for _, p := range c.SlotPreferences {
		if _, err := p.AvoidSlots(); err != nil {
			return fmt.Errorf("%w: %s preferences: %v", ErrPrecondition, p.Subject, err)
		}
	}
	return nil
}

func (c *Configuration) Locator() *model.CampusLocator {
	return model.NewCampusLocator(c.CampusRules)
}

func (c *Configuration) CrossListIndex() model.CrossListIndex {
	return model.NewCrossListIndex(c.CrossListings)
}

// InArea reports whether a course belongs to a department group.
func InArea(n model.CourseName, area string) bool {
	return strings.EqualFold(n.Subject(), area)
}

func containsCourse(s []model.CourseName, e model.CourseName) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}
