package questions

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

// Chain asks each supply in turn and returns the first question produced.
type Chain struct {
	supplies []namedSupply
	logger   *zap.Logger
}

type namedSupply struct {
	name   string
	supply ai.QuestionSupply
}

// NewChain returns an empty chain.
func NewChain(logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{logger: logger}
}

// Add appends a supply; nil supplies are ignored.
func (c *Chain) Add(name string, supply ai.QuestionSupply) *Chain {
	if supply != nil {
		c.supplies = append(c.supplies, namedSupply{name: name, supply: supply})
	}
	return c
}

func (c *Chain) Next(ctx context.Context, req ai.QuestionRequest) (*interview.Question, error) {
	if len(c.supplies) == 0 {
		return nil, fmt.Errorf("%w: no question supply configured", interview.ErrNoQuestionAvailable)
	}

	var errs []error
	for _, s := range c.supplies {
		q, err := s.supply.Next(ctx, req)
		if err == nil && q != nil {
			return q, nil
		}
		if err == nil {
			err = errors.New("empty question")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		c.logger.Warn("question supply failed, trying next",
			zap.String("supply", s.name),
			zap.String("session_id", req.SessionID),
			zap.String("phase", string(req.Phase)),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	return nil, fmt.Errorf("%w: %w", interview.ErrNoQuestionAvailable, errors.Join(errs...))
}
