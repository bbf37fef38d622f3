package domain

import "fmt"

// Pace summarizes how quickly the user moves through steps relative to
// how many questions they ask.
type Pace int

const (
	PaceNormal Pace = iota
	PaceSlow
	PaceFast
)

// String returns a human-readable pace.
func (p Pace) String() string {
	switch p {
	case PaceSlow:
		return "slow"
	case PaceFast:
		return "fast"
	default:
		return "normal"
	}
}

// MarshalText encodes the pace as its name.
func (p Pace) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a pace name.
func (p *Pace) UnmarshalText(b []byte) error {
	switch string(b) {
	case "slow":
		*p = PaceSlow
	case "fast":
		*p = PaceFast
	case "normal", "":
		*p = PaceNormal
	default:
		return fmt.Errorf("unknown pace %q", string(b))
	}
	return nil
}

// InteractionPatterns counts how the user interacts.
type InteractionPatterns struct {
	QuickNavigation   int `json:"quick_navigation"`
	DetailedQuestions int `json:"detailed_questions"`
	RepeatRequests    int `json:"repeat_requests"`
}

// SkillIndicators counts questions that hint at the user's skill.
type SkillIndicators struct {
	Technique       int `json:"technique_questions"`
	Timing          int `json:"timing_questions"`
	Troubleshooting int `json:"troubleshooting_questions"`
}

// Total sums all indicators.
func (s SkillIndicators) Total() int {
	return s.Technique + s.Timing + s.Troubleshooting
}

// Confusion records a clarification request against the step it was
// asked on.
type Confusion struct {
	Step     int    `json:"step"`
	Question string `json:"question"`
	StepText string `json:"step_text"`
}

// SessionQuestion is one recorded interaction.
type SessionQuestion struct {
	Input    string     `json:"input"`
	Intent   IntentType `json:"intent"`
	Step     int        `json:"step"`
	Response string     `json:"response"`
}

// UserModel holds the session's learning statistics. It is owned by a
// single session and mutated only by the learning tracker.
type UserModel struct {
	Pace             Pace                `json:"cooking_pace"`
	QuestionPatterns map[IntentType]int  `json:"question_patterns"`
	ConfusionCount   int                 `json:"confusion_count"`
	Interaction      InteractionPatterns `json:"interaction_patterns"`
	Skill            SkillIndicators     `json:"skill_indicators"`
	CommonConfusions []Confusion         `json:"common_confusions"`
	SessionQuestions []SessionQuestion   `json:"session_questions"`
}

// NewUserModel returns an empty model with normal pace.
func NewUserModel() *UserModel {
	return &UserModel{
		Pace:             PaceNormal,
		QuestionPatterns: make(map[IntentType]int),
	}
}

// TotalClassified returns the number of recorded utterances.
func (m *UserModel) TotalClassified() int {
	n := 0
	for _, c := range m.QuestionPatterns {
		n += c
	}
	return n
}

// Confusion level labels.
const (
	ConfusionLow    = "low"
	ConfusionMedium = "medium"
	ConfusionHigh   = "high"
)

// ConfusionLevel labels ConfusionCount: at most 1 is low, 2 to 3 medium,
// above 3 high.
func (m *UserModel) ConfusionLevel() string {
	switch {
	case m.ConfusionCount > 3:
		return ConfusionHigh
	case m.ConfusionCount > 1:
		return ConfusionMedium
	default:
		return ConfusionLow
	}
}

// Skill level labels.
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillExperienced  = "experienced"
)

// SkillLevel estimates skill from the number of skill-indicator
// questions. More than 8 is beginner, more than 3 intermediate, otherwise
// experienced.
func (m *UserModel) SkillLevel() string {
	// More questions maps to a lower label. See DESIGN.md before changing.
	switch total := m.Skill.Total(); {
	case total > 8:
		return SkillBeginner
	case total > 3:
		return SkillIntermediate
	default:
		return SkillExperienced
	}
}
