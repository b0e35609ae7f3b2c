package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func evaluationRequest() ai.EvaluationRequest {
	return ai.EvaluationRequest{
		SessionID: "s1",
		Question: interview.Question{
			ID:         "q1",
			Phase:      interview.PhaseTechnicalBasic,
			Difficulty: interview.Medium,
			Text:       "How does a Go map grow?",
		},
		Answer:    "It doubles the bucket array and evacuates incrementally.",
		TimeTaken: 95,
		Profile:   interview.Profile{Name: "Ada", Position: "Go Developer", Tier: interview.TierMid, Type: interview.TypeTechnical},
	}
}

func TestOracleEvaluate(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + `{
		"overall_score": 8.5,
		"technical_accuracy": "9",
		"communication_clarity": 7,
		"problem_solving": 12,
		"strengths": ["Knows runtime internals"],
		"areas_for_improvement": "Mention load factor",
		"suggested_difficulty": "HARD",
		"feedback": "Solid answer"
	}` + "\n```"}

	oracle := NewOracle(stub, zap.NewNop(), 0)
	eval, err := oracle.Evaluate(context.Background(), evaluationRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if eval.Overall() != 8.5 {
		t.Fatalf("expected overall 8.5, got %v", eval.Overall())
	}
	if v, _ := eval.Score(interview.ScoreTechnical); v != 9 {
		t.Fatalf("expected technical score parsed from string, got %v", v)
	}
	if v, _ := eval.Score(interview.ScoreProblemSolving); v != 10 {
		t.Fatalf("expected problem solving clamped to 10, got %v", v)
	}
	if _, ok := eval.Score(interview.ScoreRelevance); ok {
		t.Fatalf("expected missing relevance score to stay absent")
	}
	if len(eval.Improvements) != 1 || eval.Improvements[0] != "Mention load factor" {
		t.Fatalf("expected single improvement, got %v", eval.Improvements)
	}
	if eval.SuggestedDifficulty != interview.Hard {
		t.Fatalf("expected hard suggestion, got %q", eval.SuggestedDifficulty)
	}
	if eval.Ungraded {
		t.Fatalf("expected graded evaluation")
	}

	for _, fragment := range []string{"How does a Go map grow?", "evacuates incrementally", "95 seconds", "technical_basic", `"position": "Go Developer"`} {
		if !strings.Contains(stub.lastPrompt, fragment) {
			t.Fatalf("expected prompt to contain %q", fragment)
		}
	}
	if stub.lastSystem == "" {
		t.Fatalf("expected system instruction to be sent")
	}
}

func TestOracleEvaluateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response string
		err      error
	}{
		{name: "generator failure", err: errors.New("boom")},
		{name: "not json", response: "I think the answer was fine."},
		{name: "no scores", response: `{"feedback": "ok"}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			oracle := NewOracle(&stubGenerator{response: tc.response, err: tc.err}, nil, 0)
			if _, err := oracle.Evaluate(context.Background(), evaluationRequest()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseEvaluationFillsOverall(t *testing.T) {
	eval, err := parseEvaluation(`Here you go: {"technical_accuracy": 6, "communication_clarity": 8}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Overall() != 7 {
		t.Fatalf("expected overall to be the mean 7, got %v", eval.Overall())
	}
}

func TestParseEvaluationIgnoresSurroundingProse(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"{\"overall_score\": 7}\nHope this helps!",
		"Here you go: {\"overall_score\": 7} Let me know if you need more.",
		"```json\n{\"overall_score\": 7}\n```\nThat is my assessment.",
	} {
		eval, err := parseEvaluation(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if eval.Overall() != 7 {
			t.Fatalf("parse %q: expected overall 7, got %v", raw, eval.Overall())
		}
	}
}

func TestQuestionGeneratorToleratesTrailingText(t *testing.T) {
	stub := &stubGenerator{response: "{\"question\": \"How do you review code?\"}\nGood luck with the interview!"}
	gen := NewQuestionGenerator(stub, nil, 0)

	q, err := gen.Next(context.Background(), ai.QuestionRequest{Phase: interview.PhaseWarmUp, Difficulty: interview.Easy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text != "How do you review code?" {
		t.Fatalf("unexpected question text %q", q.Text)
	}
}

func TestQuestionGeneratorNext(t *testing.T) {
	stub := &stubGenerator{response: `{"question": "Describe a time you disagreed with a teammate.", "category": "conflict", "expected_duration_seconds": "180"}`}
	gen := NewQuestionGenerator(stub, zap.NewNop(), 0)

	req := ai.QuestionRequest{
		SessionID:  "s1",
		Phase:      interview.PhaseBehavioral,
		PhaseTitle: "Behavioral",
		Difficulty: interview.Medium,
		Profile:    interview.Profile{Name: "Ada", Position: "Team Lead"},
		Asked:      []string{"Tell me about yourself."},
	}

	q, err := gen.Next(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.ID == "" {
		t.Fatalf("expected generated id")
	}
	if q.Phase != interview.PhaseBehavioral || q.Difficulty != interview.Medium {
		t.Fatalf("unexpected question metadata: %+v", q)
	}
	if q.ExpectedDuration != 180 || q.Category != "conflict" {
		t.Fatalf("unexpected question payload: %+v", q)
	}
	if !strings.Contains(stub.lastPrompt, "- Tell me about yourself.") {
		t.Fatalf("expected asked questions in prompt")
	}

	stub.response = `{"question": "tell me about yourself."}`
	if _, err := gen.Next(context.Background(), req); !errors.Is(err, interview.ErrNoQuestionAvailable) {
		t.Fatalf("expected ErrNoQuestionAvailable for repeated question, got %v", err)
	}
}
