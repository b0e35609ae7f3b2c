package ai

import (
	"context"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// EvaluationRequest carries everything an oracle needs to score one answer.
type EvaluationRequest struct {
	SessionID string
	Question  interview.Question
	Answer    string
	TimeTaken float64
	Profile   interview.Profile
}

// Oracle scores answers. Any error is treated as the oracle being unavailable.
type Oracle interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*interview.Evaluation, error)
}

// QuestionRequest describes the question wanted next.
type QuestionRequest struct {
	SessionID  string
	Phase      interview.Phase
	PhaseTitle string
	Difficulty interview.Difficulty
	Profile    interview.Profile
	// Excluded holds the ids of every question already asked in the session.
	Excluded []string
	// Asked holds the texts of every question already asked in the session.
	Asked []string
}

// QuestionSupply returns a question never shown in the session or
// interview.ErrNoQuestionAvailable.
type QuestionSupply interface {
	Next(ctx context.Context, req QuestionRequest) (*interview.Question, error)
}
