package questions

import (
	"context"
	"fmt"
	"os"
	"strings"

	_ "embed"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBank []byte

// entry is one question of the bank file.
type entry struct {
	ID               string `yaml:"id"`
	Text             string `yaml:"text"`
	Category         string `yaml:"category"`
	ExpectedDuration int    `yaml:"expected-duration"`
}

// Bank serves questions from a static catalogue keyed by phase and difficulty.
type Bank struct {
	items map[interview.Phase]map[interview.Difficulty][]entry
}

// Default returns the bank shipped with the binary.
func Default() (*Bank, error) {
	return Parse(defaultBank)
}

// Load reads a bank from a YAML file.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document of the form phase -> difficulty -> [questions].
func Parse(data []byte) (*Bank, error) {
	var raw map[string]map[string][]entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding question bank: %w", err)
	}

	bank := &Bank{items: make(map[interview.Phase]map[interview.Difficulty][]entry)}
	seen := make(map[string]struct{})

	for phaseName, byDifficulty := range raw {
		phase := interview.Phase(phaseName)
		for diffName, entries := range byDifficulty {
			diff, err := interview.ParseDifficulty(diffName)
			if err != nil {
				return nil, fmt.Errorf("phase %s: %w", phaseName, err)
			}
			for _, e := range entries {
				e.ID = strings.TrimSpace(e.ID)
				e.Text = strings.TrimSpace(e.Text)
				if e.ID == "" || e.Text == "" {
					return nil, fmt.Errorf("phase %s/%s: question id and text are required", phaseName, diffName)
				}
				if _, dup := seen[e.ID]; dup {
					return nil, fmt.Errorf("duplicate question id %q", e.ID)
				}
				seen[e.ID] = struct{}{}

				if bank.items[phase] == nil {
					bank.items[phase] = make(map[interview.Difficulty][]entry)
				}
				bank.items[phase][diff] = append(bank.items[phase][diff], e)
			}
		}
	}

	return bank, nil
}

// Size returns the number of questions for phase.
func (b *Bank) Size(phase interview.Phase) int {
	n := 0
	for _, entries := range b.items[phase] {
		n += len(entries)
	}
	return n
}

// Next returns the first question of the phase not yet asked, preferring the
// requested difficulty and falling back to the nearest one.
func (b *Bank) Next(ctx context.Context, req ai.QuestionRequest) (*interview.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(req.Excluded)+len(req.Asked))
	for _, id := range req.Excluded {
		excluded[id] = struct{}{}
	}
	askedTexts := make(map[string]struct{}, len(req.Asked))
	for _, text := range req.Asked {
		askedTexts[strings.ToLower(strings.TrimSpace(text))] = struct{}{}
	}

	for _, diff := range preference(req.Difficulty) {
		for _, e := range b.items[req.Phase][diff] {
			if _, used := excluded[e.ID]; used {
				continue
			}
			if _, used := askedTexts[strings.ToLower(e.Text)]; used {
				continue
			}
			return &interview.Question{
				ID:               e.ID,
				Phase:            req.Phase,
				Difficulty:       diff,
				Text:             e.Text,
				Category:         e.Category,
				ExpectedDuration: e.ExpectedDuration,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: bank has no unused %s question for %s", interview.ErrNoQuestionAvailable, req.Difficulty, req.Phase)
}

// preference orders difficulties by distance from want, lower first on ties.
func preference(want interview.Difficulty) []interview.Difficulty {
	switch want {
	case interview.Hard:
		return []interview.Difficulty{interview.Hard, interview.Medium, interview.Easy}
	case interview.Medium:
		return []interview.Difficulty{interview.Medium, interview.Easy, interview.Hard}
	default:
		return []interview.Difficulty{interview.Easy, interview.Medium, interview.Hard}
	}
}
