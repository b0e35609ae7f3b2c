package interview

import (
	"encoding/json"
	"fmt"
	"time"
)

// Phase names a stage of the interview.
type Phase string

const (
	PhaseIntroduction      Phase = "introduction"
	PhaseWarmUp            Phase = "warm_up"
	PhaseTechnicalBasic    Phase = "technical_basic"
	PhaseTechnicalAdvanced Phase = "technical_advanced"
	PhaseBehavioral        Phase = "behavioral"
	PhaseProblemSolving    Phase = "problem_solving"
	PhaseSituational       Phase = "situational"
	PhaseLeadership        Phase = "leadership"
	PhaseCulturalFit       Phase = "cultural_fit"
	PhaseClosing           Phase = "closing"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// Question is a single asked question.
type Question struct {
	ID               string     `json:"id" yaml:"id"`
	Phase            Phase      `json:"phase" yaml:"-"`
	Difficulty       Difficulty `json:"difficulty" yaml:"-"`
	Text             string     `json:"text" yaml:"text"`
	Category         string     `json:"category,omitempty" yaml:"category"`
	ExpectedDuration int        `json:"expected_duration_seconds,omitempty" yaml:"expected-duration"`
	AskedAt          time.Time  `json:"asked_at" yaml:"-"`
}

// Response is the candidate's answer to one question together with its evaluation.
type Response struct {
	QuestionID string      `json:"question_id"`
	Answer     string      `json:"answer"`
	TimeTaken  float64     `json:"time_taken_seconds"`
	Evaluation *Evaluation `json:"evaluation"`
	AnsweredAt time.Time   `json:"answered_at"`
}

// Session is the root aggregate persisted as one store record.
type Session struct {
	ID             string          `json:"id"`
	Profile        Profile         `json:"profile"`
	Status         Status          `json:"status"`
	PhaseCursor    int             `json:"phase_cursor"`
	Difficulty     DifficultyState `json:"difficulty"`
	Questions      []Question      `json:"questions"`
	Responses      []Response      `json:"responses"`
	CreatedAt      time.Time       `json:"created_at"`
	DurationBudget time.Duration   `json:"duration_budget"`
	EndedAt        *time.Time      `json:"ended_at,omitempty"`
	Report         *Report         `json:"report,omitempty"`
}

// Expired reports whether the duration budget has been exceeded at now.
func (s *Session) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > s.DurationBudget
}

// Elapsed returns the time passed since creation.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// Question returns the asked question with the given id.
func (s *Session) Question(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// Response returns the response recorded for a question.
func (s *Session) Response(questionID string) (*Response, bool) {
	for i := range s.Responses {
		if s.Responses[i].QuestionID == questionID {
			return &s.Responses[i], true
		}
	}
	return nil, false
}

// Pending returns the last asked question when it has no response yet.
func (s *Session) Pending() (*Question, bool) {
	if len(s.Questions) == 0 {
		return nil, false
	}
	last := &s.Questions[len(s.Questions)-1]
	if _, answered := s.Response(last.ID); answered {
		return nil, false
	}
	return last, true
}

// AskedIn counts questions asked in phase.
func (s *Session) AskedIn(phase Phase) int {
	n := 0
	for _, q := range s.Questions {
		if q.Phase == phase {
			n++
		}
	}
	return n
}

// AskedTexts returns the text of every asked question.
func (s *Session) AskedTexts() []string {
	texts := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		texts = append(texts, q.Text)
	}
	return texts
}

// AskedIDs returns the id of every asked question.
func (s *Session) AskedIDs() []string {
	ids := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() (*Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	var out Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &out, nil
}
