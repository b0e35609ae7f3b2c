package phases

import (
	"fmt"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

// Definition is one planned phase.
type Definition struct {
	Name      interview.Phase `json:"name"`
	Title     string          `json:"title"`
	Band      interview.Band  `json:"band"`
	Questions int             `json:"question_count"`
	Duration  time.Duration   `json:"duration"`
}

// Plan is the ordered list of phases for one session.
type Plan []Definition

// Index returns the position of phase in the plan or -1.
func (p Plan) Index(phase interview.Phase) int {
	for i, def := range p {
		if def.Name == phase {
			return i
		}
	}
	return -1
}

// Find returns the definition of phase.
func (p Plan) Find(phase interview.Phase) (Definition, bool) {
	if i := p.Index(phase); i >= 0 {
		return p[i], true
	}
	return Definition{}, false
}

// TotalQuestions sums the question counts.
func (p Plan) TotalQuestions() int {
	total := 0
	for _, def := range p {
		total += def.Questions
	}
	return total
}

// TotalDuration sums the phase durations.
func (p Plan) TotalDuration() time.Duration {
	var total time.Duration
	for _, def := range p {
		total += def.Duration
	}
	return total
}

// Override replaces the catalogue defaults of a phase. Zero values keep the default.
type Override struct {
	Questions int           `mapstructure:"questions"`
	Duration  time.Duration `mapstructure:"duration"`
}

// Sequencer plans phases and moves sessions through them.
type Sequencer struct {
	templates []template
	logger    *zap.Logger
}

// New builds a sequencer applying the per-phase overrides on top of the catalogue.
func New(overrides map[string]Override, logger *zap.Logger) (*Sequencer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	templates := make([]template, len(catalogue))
	copy(templates, catalogue)

	for name, override := range overrides {
		idx := -1
		for i, t := range templates {
			if string(t.name) == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("unknown phase %q in overrides, known phases: %v", name, Names())
		}
		if override.Questions < 0 {
			return nil, fmt.Errorf("phase %q: question count must not be negative", name)
		}
		if override.Duration < 0 {
			return nil, fmt.Errorf("phase %q: duration must not be negative", name)
		}
		if override.Questions > 0 {
			templates[idx].questions = override.Questions
		}
		if override.Duration > 0 {
			templates[idx].duration = override.Duration
		}
	}

	return &Sequencer{templates: templates, logger: logger}, nil
}

// Plan returns the ordered phases for an interview type and tier. The result
// depends only on the inputs and the sequencer configuration.
func (s *Sequencer) Plan(kind interview.Type, tier interview.Tier) Plan {
	drafts := s.selectPhases(kind)

	for _, st := range planSteps {
		changed := st.apply(drafts, tier)
		if changed > 0 {
			s.logger.Debug("plan step",
				zap.String("name", st.name),
				zap.String("interview_type", string(kind)),
				zap.String("experience_tier", string(tier)),
				zap.Int("adjusted", changed),
			)
		}
	}

	plan := make(Plan, 0, len(drafts))
	for _, d := range drafts {
		plan = append(plan, d.def)
	}
	return plan
}

// PlanFor returns the plan of the session's profile.
func (s *Sequencer) PlanFor(session *interview.Session) Plan {
	return s.Plan(session.Profile.Type, session.Profile.Tier)
}

// Current returns the phase at the session cursor. ok is false when every
// phase has been served.
func (s *Sequencer) Current(session *interview.Session) (Definition, bool) {
	plan := s.PlanFor(session)
	if session.PhaseCursor < 0 || session.PhaseCursor >= len(plan) {
		return Definition{}, false
	}
	return plan[session.PhaseCursor], true
}

// ShouldAdvance reports whether the active phase reached its question count.
func (s *Sequencer) ShouldAdvance(session *interview.Session) bool {
	def, ok := s.Current(session)
	if !ok {
		return false
	}
	return session.AskedIn(def.Name) >= def.Questions
}

// Advance moves the cursor past every completed or empty phase and returns the
// number of phases left behind. A cursor past the last phase means the session
// is ready to be finalized.
func (s *Sequencer) Advance(session *interview.Session) int {
	plan := s.PlanFor(session)
	moved := 0
	for session.PhaseCursor < len(plan) {
		def := plan[session.PhaseCursor]
		if session.AskedIn(def.Name) < def.Questions {
			break
		}
		session.PhaseCursor++
		moved++
	}
	return moved
}

// Exhausted reports whether every phase has been served.
func (s *Sequencer) Exhausted(session *interview.Session) bool {
	return session.PhaseCursor >= len(s.PlanFor(session))
}

// SkipOverdue advances past phases whose time window closed before now. It
// never skips while a question waits for an answer and it never skips the
// last phase of the plan.
func (s *Sequencer) SkipOverdue(session *interview.Session, now time.Time) []interview.Phase {
	if _, pending := session.Pending(); pending {
		return nil
	}

	plan := s.PlanFor(session)
	windows := plan.Windows(session.DurationBudget)
	elapsed := session.Elapsed(now)

	var skipped []interview.Phase
	for session.PhaseCursor < len(plan)-1 {
		if elapsed < windows[session.PhaseCursor].End {
			break
		}
		skipped = append(skipped, plan[session.PhaseCursor].Name)
		session.PhaseCursor++
	}

	if len(skipped) > 0 {
		s.logger.Info("skipping overdue phases",
			zap.String("session_id", session.ID),
			zap.Any("phases", skipped),
			zap.Duration("elapsed", elapsed),
		)
	}

	return skipped
}
