package interview

import (
	"errors"
	"testing"
	"time"
)

func TestDifficultyStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		from   Difficulty
		delta  int
		expect Difficulty
	}{
		{name: "up from easy", from: Easy, delta: 1, expect: Medium},
		{name: "capped at hard", from: Hard, delta: 1, expect: Hard},
		{name: "floored at easy", from: Easy, delta: -1, expect: Easy},
		{name: "two steps", from: Easy, delta: 2, expect: Hard},
		{name: "unknown treated as easy", from: Difficulty("extreme"), delta: 1, expect: Medium},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.from.Step(tt.delta); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestBandClampAndShift(t *testing.T) {
	band := Band{Min: Easy, Max: Medium}

	if got := band.Clamp(Hard); got != Medium {
		t.Fatalf("expected medium, got %s", got)
	}
	if got := band.Clamp(Easy); got != Easy {
		t.Fatalf("expected easy, got %s", got)
	}

	shifted := Band{Min: Medium, Max: Hard}.Shift(1)
	if shifted.Min != Hard || shifted.Max != Hard {
		t.Fatalf("unexpected shifted band %s", shifted)
	}

	if !band.Contains(Medium) || band.Contains(Hard) {
		t.Fatalf("unexpected containment for %s", band)
	}
}

func TestProfileValidate(t *testing.T) {
	t.Parallel()

	valid := Profile{Name: "Ada", Position: "Backend Engineer", Tier: TierMid, Type: TypeTechnical}

	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Profile) {}},
		{name: "missing name", mutate: func(p *Profile) { p.Name = "" }, wantErr: true},
		{name: "missing position", mutate: func(p *Profile) { p.Position = "" }, wantErr: true},
		{name: "unknown type", mutate: func(p *Profile) { p.Type = "panel" }, wantErr: true},
		{name: "unknown tier", mutate: func(p *Profile) { p.Tier = "intern" }, wantErr: true},
		{name: "bad email", mutate: func(p *Profile) { p.Email = "not-an-email" }, wantErr: true},
		{name: "negative experience", mutate: func(p *Profile) { p.Skills = &SkillSummary{ExperienceYears: -1} }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProfile) {
					t.Fatalf("expected ErrInvalidProfile, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Mid ")
	if err != nil || tier != TierMid {
		t.Fatalf("expected mid-level, got %q (%v)", tier, err)
	}

	if _, err := ParseTier("intern"); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}

	if !TierLead.AtLeast(TierMid) || TierJunior.AtLeast(TierMid) {
		t.Fatalf("unexpected tier ordering")
	}
}

func TestEvaluationNormalize(t *testing.T) {
	eval := &Evaluation{
		Scores: map[SubScore]float64{
			ScoreTechnical:     12,
			ScoreCommunication: 6,
		},
		SuggestedDifficulty: "impossible",
	}

	eval.Normalize()

	if got := eval.Scores[ScoreTechnical]; got != 10 {
		t.Fatalf("expected technical score clamped to 10, got %v", got)
	}
	if got := eval.Overall(); got != 8 {
		t.Fatalf("expected overall to be mean 8, got %v", got)
	}
	if eval.SuggestedDifficulty != "" {
		t.Fatalf("expected invalid suggested difficulty to be dropped")
	}
}

func TestUngradedEvaluation(t *testing.T) {
	eval := UngradedEvaluation()
	if eval.Graded() {
		t.Fatalf("expected ungraded evaluation")
	}
	for _, name := range SubScores() {
		if v, ok := eval.Score(name); !ok || v != 0 {
			t.Fatalf("expected zeroed %s, got %v (present=%v)", name, v, ok)
		}
	}
}

func TestSessionPendingAndExpiry(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{CreatedAt: created, DurationBudget: time.Hour}

	if _, ok := s.Pending(); ok {
		t.Fatalf("expected no pending question on empty session")
	}

	s.Questions = append(s.Questions, Question{ID: "q1", Phase: PhaseIntroduction})
	if q, ok := s.Pending(); !ok || q.ID != "q1" {
		t.Fatalf("expected q1 pending")
	}

	s.Responses = append(s.Responses, Response{QuestionID: "q1"})
	if _, ok := s.Pending(); ok {
		t.Fatalf("expected no pending question after response")
	}

	if s.Expired(created.Add(time.Hour)) {
		t.Fatalf("session must not expire exactly at the budget")
	}
	if !s.Expired(created.Add(time.Hour + time.Second)) {
		t.Fatalf("session must expire after the budget")
	}

	clone, err := s.Clone()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clone.Questions[0].Text = "changed"
	if s.Questions[0].Text == "changed" {
		t.Fatalf("clone must not share question storage")
	}
}
