package learning

import (
	"fmt"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Summary is the end-of-session learning report.
type Summary struct {
	Pace           domain.Pace `json:"pace"`
	TotalQuestions int         `json:"total_questions"`
	SkillLevel     string      `json:"skill_level"`
	MostCommon     string      `json:"most_common_question_type,omitempty"`
	ConfusionLevel string      `json:"confusion_level"`
	ConfusedSteps  int         `json:"steps_needing_clarification"`
	Insights       []string    `json:"insights,omitempty"`
}

// Summarize derives the learning report from the model.
func Summarize(m *domain.UserModel) Summary {
	s := Summary{
		Pace:           m.Pace,
		TotalQuestions: len(m.SessionQuestions),
		SkillLevel:     m.SkillLevel(),
		ConfusionLevel: m.ConfusionLevel(),
		ConfusedSteps:  len(m.CommonConfusions),
	}
	if it, ok := MostCommon(m); ok {
		s.MostCommon = it.String()
	}

	if m.Interaction.DetailedQuestions > 5 {
		s.Insights = append(s.Insights, "You ask detailed questions, which shows good attention to detail.")
	}
	if m.Interaction.QuickNavigation > 8 {
		s.Insights = append(s.Insights, "You move through steps quickly. Confident cooking!")
	}
	if m.Interaction.RepeatRequests > 2 {
		s.Insights = append(s.Insights, "You asked for several repeats, so I'll speak more clearly next time.")
	}
	if m.Skill.Technique > 3 {
		s.Insights = append(s.Insights, "You're learning cooking techniques, great for skill building.")
	}
	if m.Skill.Timing > 2 {
		s.Insights = append(s.Insights, "You're focused on timing, which shows precision cooking.")
	}
	return s
}

// MostCommon returns the most recorded intent. Ties go to the intent that
// comes first in domain.AllIntents.
func MostCommon(m *domain.UserModel) (domain.IntentType, bool) {
	best, bestCount := domain.IntentQuestion, 0
	for _, it := range domain.AllIntents {
		if c := m.QuestionPatterns[it]; c > bestCount {
			best, bestCount = it, c
		}
	}
	return best, bestCount > 0
}

// Lines renders the summary for display.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("Your cooking pace: %s", s.Pace),
		fmt.Sprintf("Total questions asked: %d", s.TotalQuestions),
		fmt.Sprintf("Estimated skill level: %s", s.SkillLevel),
	}
	if s.MostCommon != "" {
		lines = append(lines, fmt.Sprintf("Most common question type: %s", s.MostCommon))
	}
	lines = append(lines, fmt.Sprintf("Confusion level: %s", s.ConfusionLevel))
	if s.ConfusedSteps > 0 {
		lines = append(lines, fmt.Sprintf("Common confusion areas: %d steps needed clarification", s.ConfusedSteps))
	}
	return append(lines, s.Insights...)
}
