package phases

import (
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	maxQuestionsPerPhase = 6
	minPhaseDuration     = 3 * time.Minute
)

// draft carries a definition through the planning steps.
type draft struct {
	def      Definition
	template template
}

// planStep adjusts drafts in place and returns how many of them changed.
type planStep struct {
	name  string
	apply func(drafts []draft, tier interview.Tier) int
}

var planSteps = []planStep{
	{name: "shift_bands_by_tier", apply: shiftBands},
	{name: "adjust_question_counts", apply: adjustCounts},
	{name: "apply_minimum_tier", apply: applyMinTier},
	{name: "scale_durations", apply: scaleDurations},
}

func (s *Sequencer) selectPhases(kind interview.Type) []draft {
	names := selection[kind]
	drafts := make([]draft, 0, len(names))
	for _, name := range names {
		for _, t := range s.templates {
			if t.name != name {
				continue
			}
			drafts = append(drafts, draft{
				template: t,
				def: Definition{
					Name:      t.name,
					Title:     t.title,
					Band:      t.band,
					Questions: t.questions,
					Duration:  t.duration,
				},
			})
		}
	}
	return drafts
}

func shiftBands(drafts []draft, tier interview.Tier) int {
	delta := 0
	switch tier {
	case interview.TierJunior:
		delta = -1
	case interview.TierSenior, interview.TierLead:
		delta = 1
	}
	if delta == 0 {
		return 0
	}

	changed := 0
	for i := range drafts {
		if !drafts[i].template.tierShifted {
			continue
		}
		shifted := drafts[i].def.Band.Shift(delta)
		if shifted != drafts[i].def.Band {
			drafts[i].def.Band = shifted
			changed++
		}
	}
	return changed
}

func adjustCounts(drafts []draft, tier interview.Tier) int {
	changed := 0
	for i := range drafts {
		if drafts[i].template.fixedCount {
			continue
		}
		count := drafts[i].def.Questions
		switch tier {
		case interview.TierJunior:
			count = max(1, count-1)
		case interview.TierSenior, interview.TierLead:
			count = min(maxQuestionsPerPhase, count+1)
		}
		if count != drafts[i].def.Questions {
			drafts[i].def.Questions = count
			changed++
		}
	}
	return changed
}

func applyMinTier(drafts []draft, tier interview.Tier) int {
	changed := 0
	for i := range drafts {
		minTier := drafts[i].template.minTier
		if minTier == "" || tier.AtLeast(minTier) {
			continue
		}
		drafts[i].def.Questions = 0
		drafts[i].def.Duration = 0
		changed++
	}
	return changed
}

// scaleDurations keeps the time per question of the catalogue when counts
// were adjusted for the tier.
func scaleDurations(drafts []draft, _ interview.Tier) int {
	changed := 0
	for i := range drafts {
		base := drafts[i].template.questions
		count := drafts[i].def.Questions
		if count == 0 || base == 0 || count == base {
			continue
		}
		scaled := drafts[i].template.duration * time.Duration(count) / time.Duration(base)
		drafts[i].def.Duration = max(minPhaseDuration, scaled)
		changed++
	}
	return changed
}
