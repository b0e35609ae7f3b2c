package interview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tier is the declared experience level of a candidate.
type Tier string

const (
	TierJunior Tier = "junior"
	TierMid    Tier = "mid-level"
	TierSenior Tier = "senior"
	TierLead   Tier = "lead"
)

var tierOrder = []Tier{TierJunior, TierMid, TierSenior, TierLead}

// Rank returns the position of the tier in junior < mid-level < senior < lead,
// or -1 for an unknown tier.
func (t Tier) Rank() int {
	for i, candidate := range tierOrder {
		if candidate == t {
			return i
		}
	}
	return -1
}

// AtLeast reports whether t is the same as or above min.
func (t Tier) AtLeast(min Tier) bool {
	return t.Rank() >= min.Rank()
}

// ParseTier accepts the canonical names plus a few common spellings.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "junior", "jr":
		return TierJunior, nil
	case "mid-level", "mid", "middle", "mid_level":
		return TierMid, nil
	case "senior", "sr":
		return TierSenior, nil
	case "lead", "principal", "staff":
		return TierLead, nil
	}
	return "", fmt.Errorf("%w: unknown experience tier %q", ErrInvalidProfile, s)
}

// Type is the kind of interview requested for a candidate.
type Type string

const (
	TypeTechnical  Type = "technical"
	TypeBehavioral Type = "behavioral"
	TypeMixed      Type = "mixed"
	TypeLeadership Type = "leadership"
)

// Types lists every supported interview type.
func Types() []Type {
	return []Type{TypeTechnical, TypeBehavioral, TypeMixed, TypeLeadership}
}

// ParseType returns the interview type named by s.
func ParseType(s string) (Type, error) {
	name := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Types() {
		if t == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown interview type %q", ErrInvalidProfile, s)
}

// SkillSummary is produced outside of the engine, usually from a resume.
type SkillSummary struct {
	Skills          []string `json:"skills,omitempty" yaml:"skills" mapstructure:"skills"`
	ExperienceYears float64  `json:"experience_years,omitempty" yaml:"experience-years" mapstructure:"experience-years" validate:"gte=0"`
	Summary         string   `json:"summary,omitempty" yaml:"summary" mapstructure:"summary"`
}

// Profile describes the candidate. The engine never modifies it.
type Profile struct {
	Name     string        `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Email    string        `json:"email,omitempty" yaml:"email" mapstructure:"email" validate:"omitempty,email"`
	Position string        `json:"position" yaml:"position" mapstructure:"position" validate:"required"`
	Tier     Tier          `json:"experience_tier" yaml:"experience-tier" mapstructure:"experience-tier" validate:"required,oneof=junior mid-level senior lead"`
	Type     Type          `json:"interview_type" yaml:"interview-type" mapstructure:"interview-type" validate:"required,oneof=technical behavioral mixed leadership"`
	Skills   *SkillSummary `json:"skills,omitempty" yaml:"skills" mapstructure:"skills" validate:"omitempty"`
}

var validate = validator.New()

// Validate checks the required fields. Every failure wraps ErrInvalidProfile.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: profile is required", ErrInvalidProfile)
	}

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	return nil
}

// SkillList returns the declared skills or nil.
func (p *Profile) SkillList() []string {
	if p == nil || p.Skills == nil {
		return nil
	}
	return p.Skills.Skills
}
