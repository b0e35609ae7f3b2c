package difficulty

import (
	"slices"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/phases"
	"go.uber.org/zap"
)

const (
	// IncreaseThreshold is the overall score at or above which difficulty goes up.
	IncreaseThreshold = 8.0
	// DecreaseThreshold is the overall score below which difficulty goes down.
	DecreaseThreshold = 5.0
	// BreakStreak is the number of consecutive high scores that lets difficulty
	// exceed the band of a phase.
	BreakStreak = 2
)

// Action is the reaction to a single evaluation.
type Action int

const (
	Hold Action = iota
	Increase
	Decrease
)

func (a Action) String() string {
	switch a {
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	default:
		return "hold"
	}
}

// ActionFor maps an overall score to an action.
func ActionFor(score float64) Action {
	switch {
	case score >= IncreaseThreshold:
		return Increase
	case score < DecreaseThreshold:
		return Decrease
	default:
		return Hold
	}
}

func (a Action) delta() int {
	switch a {
	case Increase:
		return 1
	case Decrease:
		return -1
	default:
		return 0
	}
}

// Adapter tracks the running difficulty of a session.
type Adapter struct {
	logger *zap.Logger
}

// New returns an adapter.
func New(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{logger: logger}
}

// Initial is the state of a new session.
func Initial() interview.DifficultyState {
	return interview.DifficultyState{Current: interview.Easy}
}

// Update returns the state following a recorded evaluation. next is the phase
// the following question will belong to, nil when the plan is exhausted.
func (a *Adapter) Update(state interview.DifficultyState, eval *interview.Evaluation, next *phases.Definition) interview.DifficultyState {
	out := interview.DifficultyState{
		Current:    state.Current,
		HighStreak: state.HighStreak,
		BandBreaks: slices.Clone(state.BandBreaks),
	}
	if !out.Current.Valid() {
		out.Current = interview.Easy
	}

	action := Hold
	if eval.Graded() {
		score := eval.Overall()
		action = ActionFor(score)
		if score >= IncreaseThreshold {
			out.HighStreak++
		} else {
			out.HighStreak = 0
		}
	}

	proposed := out.Current.Step(action.delta())

	if next != nil {
		upper := next.Band.Max
		if out.Broke(next.Name) {
			upper = upper.Step(1)
		} else if proposed.Level() > upper.Level() && out.HighStreak >= BreakStreak {
			out.BandBreaks = append(out.BandBreaks, next.Name)
			upper = upper.Step(1)
			a.logger.Debug("difficulty band broken",
				zap.String("phase", string(next.Name)),
				zap.String("band", next.Band.String()),
				zap.Int("high_streak", out.HighStreak),
			)
		}
		proposed = interview.Band{Min: next.Band.Min, Max: upper}.Clamp(proposed)
	}

	a.logger.Debug("difficulty updated",
		zap.String("action", action.String()),
		zap.Bool("ungraded", !eval.Graded()),
		zap.String("from", string(state.Current)),
		zap.String("to", string(proposed)),
	)

	out.Current = proposed
	return out
}

// Effective returns the difficulty to request for a question of phase def. It
// does not change the state.
func Effective(state interview.DifficultyState, def phases.Definition) interview.Difficulty {
	current := state.Current
	if !current.Valid() {
		current = interview.Easy
	}
	upper := def.Band.Max
	if state.Broke(def.Name) {
		upper = upper.Step(1)
	}
	return interview.Band{Min: def.Band.Min, Max: upper}.Clamp(current)
}
