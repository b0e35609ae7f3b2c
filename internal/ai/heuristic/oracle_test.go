package heuristic

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
)

func request(answer string) ai.EvaluationRequest {
	return ai.EvaluationRequest{
		Question: interview.Question{
			ID:         "q1",
			Text:       "Explain how goroutines are scheduled",
			Difficulty: interview.Medium,
		},
		Answer:  answer,
		Profile: interview.Profile{Skills: &interview.SkillSummary{Skills: []string{"Go"}}},
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	oracle := New()
	answer := "Goroutines are scheduled by the Go runtime onto OS threads using an M:N scheduler."

	first, err := oracle.Evaluate(context.Background(), request(answer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := oracle.Evaluate(context.Background(), request(answer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical evaluations, got %+v and %+v", first, second)
	}
}

func TestEvaluateRewardsRelevantDetailedAnswers(t *testing.T) {
	oracle := New()

	empty, _ := oracle.Evaluate(context.Background(), request(""))
	short, _ := oracle.Evaluate(context.Background(), request("goroutines scheduled"))
	long, _ := oracle.Evaluate(context.Background(), request(strings.Repeat("goroutines are scheduled cooperatively by the runtime explain ", 20)))

	if empty.Overall() != 0 {
		t.Fatalf("expected zero for empty answer, got %v", empty.Overall())
	}
	if !(empty.Overall() < short.Overall() && short.Overall() < long.Overall()) {
		t.Fatalf("expected scores to grow with quality: %v, %v, %v", empty.Overall(), short.Overall(), long.Overall())
	}
	if long.Overall() < 8 {
		t.Fatalf("expected a detailed relevant answer to score high, got %v", long.Overall())
	}
	if long.SuggestedDifficulty != interview.Hard {
		t.Fatalf("expected harder suggestion, got %s", long.SuggestedDifficulty)
	}
	for _, name := range interview.SubScores() {
		v, ok := long.Score(name)
		if !ok || v < 0 || v > 10 {
			t.Fatalf("sub-score %s out of range: %v", name, v)
		}
	}
}

func TestEvaluateHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Evaluate(ctx, request("answer")); err == nil {
		t.Fatalf("expected context error")
	}
}
