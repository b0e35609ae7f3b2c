package interview

import "math"

// SubScore names one scored aspect of a response.
type SubScore string

const (
	ScoreOverall        SubScore = "overall"
	ScoreTechnical      SubScore = "technical_accuracy"
	ScoreCommunication  SubScore = "communication_clarity"
	ScoreProblemSolving SubScore = "problem_solving"
	ScoreRelevance      SubScore = "experience_relevance"
)

// SubScores lists every sub-score in reporting order.
func SubScores() []SubScore {
	return []SubScore{ScoreOverall, ScoreTechnical, ScoreCommunication, ScoreProblemSolving, ScoreRelevance}
}

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Evaluation is the scored outcome of a single response.
type Evaluation struct {
	Scores              map[SubScore]float64 `json:"scores"`
	Strengths           []string             `json:"strengths,omitempty"`
	Improvements        []string             `json:"improvements,omitempty"`
	SkillGaps           []string             `json:"skill_gaps,omitempty"`
	FollowUps           []string             `json:"follow_up_questions,omitempty"`
	SuggestedDifficulty Difficulty           `json:"suggested_difficulty,omitempty"`
	Feedback            string               `json:"feedback,omitempty"`
	Ungraded            bool                 `json:"ungraded"`
}

// UngradedEvaluation is recorded when scoring failed on every attempt.
func UngradedEvaluation() *Evaluation {
	scores := make(map[SubScore]float64, len(SubScores()))
	for _, name := range SubScores() {
		scores[name] = 0
	}
	return &Evaluation{
		Scores:   scores,
		Feedback: "response accepted, scoring is temporarily unavailable",
		Ungraded: true,
	}
}

// Score returns the named sub-score if present.
func (e *Evaluation) Score(name SubScore) (float64, bool) {
	if e == nil || e.Scores == nil {
		return 0, false
	}
	v, ok := e.Scores[name]
	return v, ok
}

// Overall returns the overall score, zero when absent.
func (e *Evaluation) Overall() float64 {
	v, _ := e.Score(ScoreOverall)
	return v
}

// Graded reports whether the evaluation counts towards averages.
func (e *Evaluation) Graded() bool {
	return e != nil && !e.Ungraded
}

// Normalize clamps every score into [0,10], drops NaN values and fills a
// missing overall score with the mean of the other sub-scores.
func (e *Evaluation) Normalize() {
	if e == nil {
		return
	}
	if e.Scores == nil {
		e.Scores = make(map[SubScore]float64)
	}

	for name, v := range e.Scores {
		if math.IsNaN(v) {
			delete(e.Scores, name)
			continue
		}
		e.Scores[name] = ClampScore(v)
	}

	if _, ok := e.Scores[ScoreOverall]; !ok {
		var sum float64
		var n int
		for _, v := range e.Scores {
			sum += v
			n++
		}
		if n > 0 {
			e.Scores[ScoreOverall] = sum / float64(n)
		} else {
			e.Scores[ScoreOverall] = 0
		}
	}

	if e.SuggestedDifficulty != "" && !e.SuggestedDifficulty.Valid() {
		e.SuggestedDifficulty = ""
	}
}

// ClampScore limits v to [MinScore, MaxScore].
func ClampScore(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}
