package questions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/phases"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleBank = `
warm_up:
  easy:
    - id: w1
      text: First easy
    - id: w2
      text: Second easy
  hard:
    - id: w3
      text: Only hard
      category: depth
      expected-duration: 60
`

func TestBankPrefersRequestedDifficulty(t *testing.T) {
	bank, err := Parse([]byte(sampleBank))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, err := bank.Next(context.Background(), ai.QuestionRequest{Phase: interview.PhaseWarmUp, Difficulty: interview.Hard})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "w3" || q.Difficulty != interview.Hard || q.Category != "depth" || q.ExpectedDuration != 60 {
		t.Fatalf("unexpected question: %+v", q)
	}

	q, err = bank.Next(context.Background(), ai.QuestionRequest{
		Phase:      interview.PhaseWarmUp,
		Difficulty: interview.Hard,
		Excluded:   []string{"w3"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "w1" || q.Difficulty != interview.Easy {
		t.Fatalf("expected fallback to nearest difficulty, got %+v", q)
	}
}

func TestBankSkipsAskedAndReportsExhaustion(t *testing.T) {
	bank, err := Parse([]byte(sampleBank))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := ai.QuestionRequest{
		Phase:      interview.PhaseWarmUp,
		Difficulty: interview.Easy,
		Excluded:   []string{"w1"},
		Asked:      []string{"second EASY"},
	}
	q, err := bank.Next(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "w3" {
		t.Fatalf("expected w3, got %s", q.ID)
	}

	req.Excluded = append(req.Excluded, "w3")
	if _, err := bank.Next(context.Background(), req); !errors.Is(err, interview.ErrNoQuestionAvailable) {
		t.Fatalf("expected ErrNoQuestionAvailable, got %v", err)
	}
}

func TestParseRejectsInvalidBanks(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown difficulty": "warm_up:\n  extreme:\n    - id: x\n      text: y\n",
		"missing text":       "warm_up:\n  easy:\n    - id: x\n",
		"duplicate id":       "warm_up:\n  easy:\n    - id: x\n      text: a\n  hard:\n    - id: x\n      text: b\n",
		"not yaml map":       "- just\n- a list\n",
	}

	for name, doc := range cases {
		doc := doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDefaultBankCoversEveryPhase(t *testing.T) {
	bank, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seq, err := phases.New(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, kind := range interview.Types() {
		for _, tier := range []interview.Tier{interview.TierJunior, interview.TierMid, interview.TierSenior, interview.TierLead} {
			for _, def := range seq.Plan(kind, tier) {
				if bank.Size(def.Name) < def.Questions {
					t.Fatalf("%s/%s: bank has %d questions for %s, plan needs %d", kind, tier, bank.Size(def.Name), def.Name, def.Questions)
				}
			}
		}
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	if err := os.WriteFile(path, []byte(sampleBank), 0o644); err != nil {
		t.Fatalf("writing bank: %v", err)
	}

	bank, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bank.Size(interview.PhaseWarmUp) != 3 {
		t.Fatalf("expected 3 questions, got %d", bank.Size(interview.PhaseWarmUp))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

type failingSupply struct{ calls int }

func (f *failingSupply) Next(context.Context, ai.QuestionRequest) (*interview.Question, error) {
	f.calls++
	return nil, errors.New("upstream down")
}

func TestChainFallsThrough(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	bank, err := Parse([]byte(sampleBank))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failing := &failingSupply{}
	chain := NewChain(zap.New(core)).Add("gemini", failing).Add("bank", bank)

	q, err := chain.Next(context.Background(), ai.QuestionRequest{Phase: interview.PhaseWarmUp, Difficulty: interview.Easy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "w1" || failing.calls != 1 {
		t.Fatalf("expected bank question after failure, got %+v (calls=%d)", q, failing.calls)
	}
	if observed.FilterMessage("question supply failed, trying next").Len() != 1 {
		t.Fatalf("expected failure to be logged")
	}

	_, err = NewChain(nil).Add("gemini", failing).Next(context.Background(), ai.QuestionRequest{Phase: interview.PhaseWarmUp})
	if !errors.Is(err, interview.ErrNoQuestionAvailable) {
		t.Fatalf("expected ErrNoQuestionAvailable, got %v", err)
	}
}
