package scoring

import (
	"sort"
	"strings"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/phases"
)

const (
	// HireThreshold is the lowest overall score leaning towards hiring.
	HireThreshold = 7.5
	// ConsiderThreshold is the lowest overall score worth another look.
	ConsiderThreshold = 5.5
	// MinResponsesForConfidence is the number of graded responses below which
	// confidence stays low whatever the score.
	MinResponsesForConfidence = 3
	// FullConfidenceResponses is the number of graded responses giving high confidence.
	FullConfidenceResponses = 8

	maxHighlights = 5
)

// dimensionSource says which sub-score of which phases feeds a dimension.
type dimensionSource struct {
	dimension interview.Dimension
	score     interview.SubScore
	phases    []interview.Phase
}

var dimensionSources = []dimensionSource{
	{
		dimension: interview.DimensionTechnical,
		score:     interview.ScoreTechnical,
		phases:    []interview.Phase{interview.PhaseTechnicalBasic, interview.PhaseTechnicalAdvanced, interview.PhaseProblemSolving},
	},
	{
		dimension: interview.DimensionBehavioral,
		score:     interview.ScoreOverall,
		phases:    []interview.Phase{interview.PhaseBehavioral, interview.PhaseSituational, interview.PhaseLeadership, interview.PhaseCulturalFit},
	},
	{
		dimension: interview.DimensionCommunication,
		score:     interview.ScoreCommunication,
		phases:    nil,
	},
	{
		dimension: interview.DimensionProblemSolving,
		score:     interview.ScoreProblemSolving,
		phases:    []interview.Phase{interview.PhaseTechnicalAdvanced, interview.PhaseProblemSolving, interview.PhaseSituational, interview.PhaseLeadership},
	},
	{
		dimension: interview.DimensionCulturalFit,
		score:     interview.ScoreOverall,
		phases:    []interview.Phase{interview.PhaseIntroduction, interview.PhaseWarmUp, interview.PhaseCulturalFit, interview.PhaseClosing},
	},
}

// Dimensions lists every reported dimension.
func Dimensions() []interview.Dimension {
	out := make([]interview.Dimension, 0, len(dimensionSources))
	for _, src := range dimensionSources {
		out = append(out, src.dimension)
	}
	return out
}

func (d dimensionSource) covers(phase interview.Phase) bool {
	if d.phases == nil {
		return true
	}
	for _, p := range d.phases {
		if p == phase {
			return true
		}
	}
	return false
}

// Recommend maps an overall score to a hiring recommendation.
func Recommend(overall float64) interview.Recommendation {
	switch {
	case overall >= HireThreshold:
		return interview.RecommendHire
	case overall >= ConsiderThreshold:
		return interview.RecommendConsider
	default:
		return interview.RecommendReject
	}
}

// ConfidenceFor maps the number of graded responses to a confidence level.
func ConfidenceFor(graded int) interview.Confidence {
	switch {
	case graded < MinResponsesForConfidence:
		return interview.ConfidenceLow
	case graded < FullConfidenceResponses:
		return interview.ConfidenceMedium
	default:
		return interview.ConfidenceHigh
	}
}

// Aggregate builds the report of a session against its plan.
func Aggregate(session *interview.Session, plan phases.Plan, at time.Time) *interview.Report {
	report := &interview.Report{
		SessionID:         session.ID,
		Candidate:         session.Profile.Name,
		Position:          session.Profile.Position,
		Type:              session.Profile.Type,
		Tier:              session.Profile.Tier,
		Dimensions:        make(map[interview.Dimension]*float64, len(dimensionSources)),
		TotalQuestions:    len(session.Questions),
		TotalResponses:    len(session.Responses),
		UngradedQuestions: []string{},
		GeneratedAt:       at,
		Duration:          at.Sub(session.CreatedAt),
	}
	if session.EndedAt != nil {
		report.Duration = session.EndedAt.Sub(session.CreatedAt)
	}

	byPhase := make(map[interview.Phase][]*interview.Evaluation)
	answered := make(map[interview.Phase]int)
	var strengths, improvements, gaps counter
	var totalTime float64

	for _, resp := range session.Responses {
		q, ok := session.Question(resp.QuestionID)
		if !ok {
			continue
		}
		answered[q.Phase]++
		totalTime += resp.TimeTaken

		if !resp.Evaluation.Graded() {
			report.UngradedQuestions = append(report.UngradedQuestions, resp.QuestionID)
			continue
		}

		byPhase[q.Phase] = append(byPhase[q.Phase], resp.Evaluation)
		report.GradedResponses++
		strengths.add(resp.Evaluation.Strengths...)
		improvements.add(resp.Evaluation.Improvements...)
		gaps.add(resp.Evaluation.SkillGaps...)
	}

	if report.TotalResponses > 0 {
		report.AverageResponseTime = totalTime / float64(report.TotalResponses)
	}

	var weighted, weights float64
	for _, def := range plan {
		ps := interview.PhaseScore{
			Phase:     def.Name,
			Title:     def.Title,
			Weight:    def.Questions,
			Asked:     session.AskedIn(def.Name),
			Responses: answered[def.Name],
			Graded:    len(byPhase[def.Name]),
		}
		if mean, ok := meanOf(byPhase[def.Name], interview.ScoreOverall); ok {
			ps.Score = &mean
			weighted += mean * float64(def.Questions)
			weights += float64(def.Questions)
		}
		report.Phases = append(report.Phases, ps)
	}

	if weights > 0 {
		report.Overall = weighted / weights
	}

	for _, src := range dimensionSources {
		report.Dimensions[src.dimension] = dimensionScore(src, plan, byPhase)
	}

	report.Recommendation = Recommend(report.Overall)
	report.Confidence = ConfidenceFor(report.GradedResponses)

	for _, q := range session.Questions {
		report.DifficultyProgression = append(report.DifficultyProgression, q.Difficulty)
	}

	report.Strengths = strengths.top(maxHighlights)
	report.Improvements = improvements.top(maxHighlights)
	report.SkillGaps = gaps.top(maxHighlights)

	return report
}

func dimensionScore(src dimensionSource, plan phases.Plan, byPhase map[interview.Phase][]*interview.Evaluation) *float64 {
	var weighted, weights float64
	for _, def := range plan {
		if !src.covers(def.Name) {
			continue
		}
		mean, ok := meanOf(byPhase[def.Name], src.score)
		if !ok {
			continue
		}
		weighted += mean * float64(def.Questions)
		weights += float64(def.Questions)
	}
	if weights == 0 {
		return nil
	}
	score := weighted / weights
	return &score
}

// meanOf averages a sub-score over the evaluations carrying it.
func meanOf(evals []*interview.Evaluation, name interview.SubScore) (float64, bool) {
	var sum float64
	var n int
	for _, e := range evals {
		v, ok := e.Score(name)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// counter keeps the first spelling of every item and how often it was seen.
type counter struct {
	order []string
	seen  map[string]int
	text  map[string]string
}

func (c *counter) add(items ...string) {
	if c.seen == nil {
		c.seen = make(map[string]int)
		c.text = make(map[string]string)
	}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := c.seen[key]; !ok {
			c.order = append(c.order, key)
			c.text[key] = item
		}
		c.seen[key]++
	}
}

func (c *counter) top(limit int) []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.seen[keys[i]] > c.seen[keys[j]]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.text[k])
	}
	return out
}
