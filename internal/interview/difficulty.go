package interview

import (
	"fmt"
	"strings"
)

// Difficulty is the level of a question.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var difficultyLevels = []Difficulty{Easy, Medium, Hard}

// Level returns 0 for easy, 1 for medium, 2 for hard and -1 otherwise.
func (d Difficulty) Level() int {
	for i, level := range difficultyLevels {
		if level == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of easy, medium or hard.
func (d Difficulty) Valid() bool {
	return d.Level() >= 0
}

// Step moves d by delta levels, staying within easy..hard.
func (d Difficulty) Step(delta int) Difficulty {
	level := d.Level()
	if level < 0 {
		level = 0
	}
	return DifficultyAt(level + delta)
}

// DifficultyAt returns the difficulty for a level clamped to easy..hard.
func DifficultyAt(level int) Difficulty {
	if level < 0 {
		level = 0
	}
	if level >= len(difficultyLevels) {
		level = len(difficultyLevels) - 1
	}
	return difficultyLevels[level]
}

// ParseDifficulty returns the difficulty named by s.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Band is the range of difficulties a phase accepts before escalation.
type Band struct {
	Min Difficulty `json:"min"`
	Max Difficulty `json:"max"`
}

// Shift moves both bounds by delta levels.
func (b Band) Shift(delta int) Band {
	return Band{Min: b.Min.Step(delta), Max: b.Max.Step(delta)}
}

// Clamp returns d limited to the band.
func (b Band) Clamp(d Difficulty) Difficulty {
	level := d.Level()
	if level < b.Min.Level() {
		return b.Min
	}
	if level > b.Max.Level() {
		return b.Max
	}
	return d
}

// Contains reports whether d lies within the band.
func (b Band) Contains(d Difficulty) bool {
	return d.Level() >= b.Min.Level() && d.Level() <= b.Max.Level()
}

func (b Band) String() string {
	if b.Min == b.Max {
		return string(b.Min)
	}
	return string(b.Min) + "-" + string(b.Max)
}

// DifficultyState is owned by the difficulty adapter.
type DifficultyState struct {
	Current    Difficulty `json:"current"`
	HighStreak int        `json:"high_streak"`
	// BandBreaks lists phases whose upper bound was already exceeded.
	BandBreaks []Phase `json:"band_breaks,omitempty"`
}

// Broke reports whether the band of phase was already broken.
func (s DifficultyState) Broke(phase Phase) bool {
	for _, p := range s.BandBreaks {
		if p == phase {
			return true
		}
	}
	return false
}
