package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/google/uuid"
	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
	"go.uber.org/zap"
)

//go:embed question.md
var questionTemplate string

// QuestionGenerator writes interview questions with Gemini.
type QuestionGenerator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewQuestionGenerator returns a question supply backed by generator.
func NewQuestionGenerator(generator contentGenerator, log *zap.Logger, maxLogLength int) *QuestionGenerator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &QuestionGenerator{generator: generator, logger: logger.WithFields(log), maxLogLen: maxLogLength}
}

type questionPayload struct {
	Question         string `mapstructure:"question"`
	Category         string `mapstructure:"category"`
	ExpectedDuration int    `mapstructure:"expected_duration_seconds"`
}

func (q *QuestionGenerator) Next(ctx context.Context, req ai.QuestionRequest) (*interview.Question, error) {
	profileJSON, err := json.MarshalIndent(req.Profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	asked := "none"
	if len(req.Asked) > 0 {
		asked = "- " + strings.Join(req.Asked, "\n- ")
	}

	phase := req.PhaseTitle
	if phase == "" {
		phase = string(req.Phase)
	}

	prompt := fillTemplate(questionTemplate, map[string]string{
		"PROFILE_JSON": string(profileJSON),
		"PHASE":        phase,
		"DIFFICULTY":   string(req.Difficulty),
		"ASKED":        asked,
	})

	q.logger.Debug("gemini question request",
		zap.String("session_id", req.SessionID),
		zap.String("phase", string(req.Phase)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, q.maxLogLen)),
	)

	raw, err := q.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	q.logger.Debug("gemini question response",
		zap.String("session_id", req.SessionID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, q.maxLogLen)),
	)

	var payload questionPayload
	if err := decodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse gemini question: %w", err)
	}

	text := strings.TrimSpace(payload.Question)
	if text == "" {
		return nil, fmt.Errorf("%w: gemini returned an empty question", interview.ErrNoQuestionAvailable)
	}
	for _, prev := range req.Asked {
		if strings.EqualFold(strings.TrimSpace(prev), text) {
			return nil, fmt.Errorf("%w: gemini repeated an asked question", interview.ErrNoQuestionAvailable)
		}
	}

	return &interview.Question{
		ID:               uuid.NewString(),
		Phase:            req.Phase,
		Difficulty:       req.Difficulty,
		Text:             text,
		Category:         strings.TrimSpace(payload.Category),
		ExpectedDuration: payload.ExpectedDuration,
	}, nil
}
