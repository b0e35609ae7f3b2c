package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultMaxLogLength = 200
	systemInstruction   = "You are an expert technical interviewer. You always answer with strict JSON."
)

//go:embed evaluation.md
var evaluationTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Oracle scores answers with Gemini.
type Oracle struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewOracle returns an oracle backed by generator.
func NewOracle(generator contentGenerator, log *zap.Logger, maxLogLength int) *Oracle {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Oracle{generator: generator, logger: logger.WithFields(log), maxLogLen: maxLogLength}
}

// evaluationPayload mirrors the JSON the prompt asks for. Pointers tell a
// missing score from a zero one.
type evaluationPayload struct {
	Overall             *float64 `mapstructure:"overall_score"`
	Technical           *float64 `mapstructure:"technical_accuracy"`
	Communication       *float64 `mapstructure:"communication_clarity"`
	ProblemSolving      *float64 `mapstructure:"problem_solving"`
	Relevance           *float64 `mapstructure:"experience_relevance"`
	Strengths           []string `mapstructure:"strengths"`
	Improvements        []string `mapstructure:"areas_for_improvement"`
	SkillGaps           []string `mapstructure:"skill_gaps"`
	FollowUps           []string `mapstructure:"follow_up_questions"`
	SuggestedDifficulty string   `mapstructure:"suggested_difficulty"`
	Feedback            string   `mapstructure:"feedback"`
}

func (o *Oracle) Evaluate(ctx context.Context, req ai.EvaluationRequest) (*interview.Evaluation, error) {
	if strings.TrimSpace(req.Question.Text) == "" {
		return nil, errors.New("question text is required")
	}

	profileJSON, err := json.MarshalIndent(req.Profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		answer = "(no answer given)"
	}

	prompt := fillTemplate(evaluationTemplate, map[string]string{
		"PROFILE_JSON": string(profileJSON),
		"PHASE":        string(req.Question.Phase),
		"DIFFICULTY":   string(req.Question.Difficulty),
		"QUESTION":     req.Question.Text,
		"TIME_TAKEN":   strconv.FormatFloat(req.TimeTaken, 'f', 0, 64),
		"ANSWER":       answer,
	})

	o.logger.Debug("gemini evaluation request",
		zap.String("session_id", req.SessionID),
		zap.String("question_id", req.Question.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, o.maxLogLen)),
	)

	raw, err := o.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("gemini evaluation response",
		zap.String("session_id", req.SessionID),
		zap.String("question_id", req.Question.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	return parseEvaluation(raw)
}

func parseEvaluation(raw string) (*interview.Evaluation, error) {
	var payload evaluationPayload
	if err := decodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse gemini evaluation: %w", err)
	}

	eval := &interview.Evaluation{
		Scores:       make(map[interview.SubScore]float64),
		Strengths:    compact(payload.Strengths),
		Improvements: compact(payload.Improvements),
		SkillGaps:    compact(payload.SkillGaps),
		FollowUps:    compact(payload.FollowUps),
		Feedback:     strings.TrimSpace(payload.Feedback),
	}

	for name, v := range map[interview.SubScore]*float64{
		interview.ScoreOverall:        payload.Overall,
		interview.ScoreTechnical:      payload.Technical,
		interview.ScoreCommunication:  payload.Communication,
		interview.ScoreProblemSolving: payload.ProblemSolving,
		interview.ScoreRelevance:      payload.Relevance,
	} {
		if v != nil {
			eval.Scores[name] = *v
		}
	}

	if len(eval.Scores) == 0 {
		return nil, errors.New("parse gemini evaluation: response contains no scores")
	}

	if d, err := interview.ParseDifficulty(payload.SuggestedDifficulty); err == nil {
		eval.SuggestedDifficulty = d
	}

	eval.Normalize()
	return eval, nil
}

// decodeJSON extracts the JSON object from raw and decodes it leniently into out.
func decodeJSON(raw string, out any) error {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

func fillTemplate(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
