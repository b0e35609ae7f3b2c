package interview

import "time"

// Dimension is a named axis of the final assessment.
type Dimension string

const (
	DimensionTechnical      Dimension = "technical"
	DimensionBehavioral     Dimension = "behavioral"
	DimensionCommunication  Dimension = "communication"
	DimensionProblemSolving Dimension = "problem_solving"
	DimensionCulturalFit    Dimension = "cultural_fit"
)

// Recommendation is the hiring signal derived from the overall score.
type Recommendation string

const (
	RecommendHire     Recommendation = "hire_leaning"
	RecommendConsider Recommendation = "consider"
	RecommendReject   Recommendation = "reject_leaning"
)

// Confidence tells how much evidence backs a recommendation.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PhaseScore is the aggregated result of one planned phase. Score is nil when
// the phase has no graded response.
type PhaseScore struct {
	Phase     Phase    `json:"phase"`
	Title     string   `json:"title"`
	Score     *float64 `json:"score"`
	Weight    int      `json:"weight"`
	Asked     int      `json:"asked"`
	Responses int      `json:"responses"`
	Graded    int      `json:"graded"`
}

// Report is a view over the responses of a session.
type Report struct {
	SessionID             string                 `json:"session_id"`
	Candidate             string                 `json:"candidate"`
	Position              string                 `json:"position"`
	Type                  Type                   `json:"interview_type"`
	Tier                  Tier                   `json:"experience_tier"`
	Phases                []PhaseScore           `json:"phases"`
	Dimensions            map[Dimension]*float64 `json:"dimensions"`
	Overall               float64                `json:"overall_score"`
	Recommendation        Recommendation         `json:"hiring_recommendation"`
	Confidence            Confidence             `json:"confidence_level"`
	TotalQuestions        int                    `json:"total_questions"`
	TotalResponses        int                    `json:"total_responses"`
	GradedResponses       int                    `json:"graded_responses"`
	UngradedQuestions     []string               `json:"ungraded_question_ids"`
	AverageResponseTime   float64                `json:"average_response_time_seconds"`
	DifficultyProgression []Difficulty           `json:"difficulty_progression"`
	Strengths             []string               `json:"strengths"`
	Improvements          []string               `json:"areas_for_improvement"`
	SkillGaps             []string               `json:"skill_gaps"`
	Duration              time.Duration          `json:"interview_duration"`
	GeneratedAt           time.Time              `json:"generated_at"`
	Final                 bool                   `json:"final"`
}

// PhaseScore returns the aggregated entry for phase.
func (r *Report) PhaseScore(phase Phase) (PhaseScore, bool) {
	for _, ps := range r.Phases {
		if ps.Phase == phase {
			return ps, true
		}
	}
	return PhaseScore{}, false
}
