// Package heuristic scores answers offline from their length and vocabulary.
// It keeps interviews running without an LLM and gives simulations stable results.
package heuristic

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	// wordsForFullLength is the answer length that earns the whole length score.
	wordsForFullLength = 120
	lengthWeight       = 6.0
	overlapWeight      = 4.0
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "you": {}, "your": {}, "with": {}, "that": {}, "this": {},
	"what": {}, "how": {}, "why": {}, "when": {}, "are": {}, "was": {}, "were": {}, "have": {},
	"did": {}, "does": {}, "about": {}, "tell": {}, "describe": {}, "would": {}, "could": {},
}

// Oracle is a deterministic scorer.
type Oracle struct{}

// New returns a heuristic oracle.
func New() *Oracle {
	return &Oracle{}
}

func (o *Oracle) Evaluate(ctx context.Context, req ai.EvaluationRequest) (*interview.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := tokenize(req.Answer)
	lengthScore := lengthWeight * math.Min(1, float64(len(words))/wordsForFullLength)

	keywords := keywordsOf(req.Question.Text)
	for _, skill := range req.Profile.SkillList() {
		for _, w := range tokenize(skill) {
			keywords[w] = struct{}{}
		}
	}
	matched := overlap(words, keywords)
	overlapScore := 0.0
	if len(keywords) > 0 {
		overlapScore = overlapWeight * math.Min(1, float64(len(matched))/math.Min(4, float64(len(keywords))))
	}

	overall := round(lengthScore + overlapScore)
	eval := &interview.Evaluation{
		Scores: map[interview.SubScore]float64{
			interview.ScoreOverall:        overall,
			interview.ScoreTechnical:      round(overlapScore*1.5 + lengthScore/2),
			interview.ScoreCommunication:  round(lengthScore * 10 / lengthWeight),
			interview.ScoreProblemSolving: round((overall + overlapScore*2.5) / 2),
			interview.ScoreRelevance:      round(overlapScore * 10 / overlapWeight),
		},
	}

	switch {
	case len(words) == 0:
		eval.Improvements = append(eval.Improvements, "No answer was given")
	case len(words) < wordsForFullLength/4:
		eval.Improvements = append(eval.Improvements, "Give a more detailed answer")
	default:
		eval.Strengths = append(eval.Strengths, "Detailed answer")
	}
	if len(matched) > 0 {
		eval.Strengths = append(eval.Strengths, "Addresses the question directly")
	} else if len(words) > 0 {
		eval.Improvements = append(eval.Improvements, "Stay closer to the question")
	}

	for _, skill := range req.Profile.SkillList() {
		name := strings.ToLower(strings.TrimSpace(skill))
		if name != "" && strings.Contains(strings.ToLower(req.Question.Text), name) && !contains(words, name) {
			eval.SkillGaps = append(eval.SkillGaps, skill)
		}
	}

	eval.SuggestedDifficulty = req.Question.Difficulty.Step(0)
	switch {
	case overall >= 8:
		eval.SuggestedDifficulty = req.Question.Difficulty.Step(1)
	case overall < 5:
		eval.SuggestedDifficulty = req.Question.Difficulty.Step(-1)
	}

	eval.Normalize()
	return eval, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

func keywordsOf(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range tokenize(text) {
		if len(w) < 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(words []string, keywords map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range words {
		if _, ok := keywords[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}

func contains(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

func round(v float64) float64 {
	return math.Round(interview.ClampScore(v)*10) / 10
}
