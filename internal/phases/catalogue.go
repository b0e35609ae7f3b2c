package phases

import (
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// template is the static description of a phase before tier adjustments.
type template struct {
	name        interview.Phase
	title       string
	band        interview.Band
	questions   int
	duration    time.Duration
	// tierShifted phases move their band with the candidate tier.
	tierShifted bool
	// fixedCount phases ignore tier adjustments of the question count.
	fixedCount  bool
	minTier     interview.Tier
}

var (
	easyMedium   = interview.Band{Min: interview.Easy, Max: interview.Medium}
	mediumMedium = interview.Band{Min: interview.Medium, Max: interview.Medium}
	mediumHard   = interview.Band{Min: interview.Medium, Max: interview.Hard}
)

// catalogue is ordered the way phases are served.
var catalogue = []template{
	{name: interview.PhaseIntroduction, title: "Introduction", band: easyMedium, questions: 2, duration: 5 * time.Minute, fixedCount: true},
	{name: interview.PhaseWarmUp, title: "Warm-up", band: easyMedium, questions: 3, duration: 8 * time.Minute, fixedCount: true},
	{name: interview.PhaseTechnicalBasic, title: "Technical fundamentals", band: easyMedium, questions: 4, duration: 15 * time.Minute, tierShifted: true},
	{name: interview.PhaseTechnicalAdvanced, title: "Advanced technical", band: mediumHard, questions: 3, duration: 20 * time.Minute, tierShifted: true},
	{name: interview.PhaseBehavioral, title: "Behavioral", band: easyMedium, questions: 4, duration: 15 * time.Minute},
	{name: interview.PhaseProblemSolving, title: "Problem solving", band: mediumHard, questions: 2, duration: 12 * time.Minute, tierShifted: true},
	{name: interview.PhaseSituational, title: "Situational", band: mediumMedium, questions: 2, duration: 10 * time.Minute},
	{name: interview.PhaseLeadership, title: "Leadership", band: mediumHard, questions: 3, duration: 12 * time.Minute, minTier: interview.TierMid},
	{name: interview.PhaseCulturalFit, title: "Cultural fit", band: easyMedium, questions: 2, duration: 8 * time.Minute},
	{name: interview.PhaseClosing, title: "Closing", band: easyMedium, questions: 1, duration: 5 * time.Minute, fixedCount: true},
}

var selection = map[interview.Type][]interview.Phase{
	interview.TypeTechnical: {
		interview.PhaseIntroduction,
		interview.PhaseWarmUp,
		interview.PhaseTechnicalBasic,
		interview.PhaseTechnicalAdvanced,
		interview.PhaseProblemSolving,
		interview.PhaseClosing,
	},
	interview.TypeBehavioral: {
		interview.PhaseIntroduction,
		interview.PhaseWarmUp,
		interview.PhaseBehavioral,
		interview.PhaseSituational,
		interview.PhaseCulturalFit,
		interview.PhaseClosing,
	},
	interview.TypeMixed: {
		interview.PhaseIntroduction,
		interview.PhaseWarmUp,
		interview.PhaseTechnicalBasic,
		interview.PhaseTechnicalAdvanced,
		interview.PhaseBehavioral,
		interview.PhaseProblemSolving,
		interview.PhaseSituational,
		interview.PhaseCulturalFit,
		interview.PhaseClosing,
	},
	interview.TypeLeadership: {
		interview.PhaseIntroduction,
		interview.PhaseWarmUp,
		interview.PhaseBehavioral,
		interview.PhaseSituational,
		interview.PhaseLeadership,
		interview.PhaseCulturalFit,
		interview.PhaseClosing,
	},
}

// Names returns every known phase in serving order.
func Names() []interview.Phase {
	names := make([]interview.Phase, 0, len(catalogue))
	for _, t := range catalogue {
		names = append(names, t.name)
	}
	return names
}
