package gpt

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Context window sizes.
const (
	upcomingSteps   = 2
	recentTurns     = 3
	confusionRecall = 2
)

// Snapshot is the structured context for one answer: where the user is in
// the recipe, what they asked recently and what the learning model knows
// about them. It is rebuilt every turn.
type Snapshot struct {
	RecipeName  string
	StepNumber  int // 1-based
	TotalSteps  int
	CurrentStep string // "Complete" past the last step
	Upcoming    []string
	Ingredients []string
	Progress    float64

	Pace           domain.Pace
	SkillLevel     string
	ConfusionLevel string
	RecentTurns    []domain.ConversationTurn
	TotalQuestions int
	Interaction    domain.InteractionPatterns
	Skill          domain.SkillIndicators
	ConfusionSteps []int // 1-based steps of the latest clarifications

	Intent    domain.IntentType
	Utterance string
}

// BuildContext assembles the snapshot for the utterance. The model and
// history may be nil. A recipe without steps yields progress 0.
func BuildContext(utterance string, intent domain.IntentType, rs *domain.RecipeSession, model *domain.UserModel, history *domain.TurnHistory) Snapshot {
	s := Snapshot{
		RecipeName:  rs.RecipeName,
		StepNumber:  rs.CurrentStepIndex + 1,
		TotalSteps:  rs.TotalSteps(),
		CurrentStep: "Complete",
		Upcoming:    rs.Upcoming(upcomingSteps),
		Ingredients: append([]string(nil), rs.Ingredients...),
		Progress:    rs.ProgressPercent(),
		Intent:      intent,
		Utterance:   utterance,
	}
	if text, ok := rs.CurrentStep(); ok {
		s.CurrentStep = text
	}

	if model == nil {
		model = domain.NewUserModel()
	}
	s.Pace = model.Pace
	s.SkillLevel = model.SkillLevel()
	s.ConfusionLevel = model.ConfusionLevel()
	s.TotalQuestions = len(model.SessionQuestions)
	s.Interaction = model.Interaction
	s.Skill = model.Skill
	confusions := model.CommonConfusions
	if len(confusions) > confusionRecall {
		confusions = confusions[len(confusions)-confusionRecall:]
	}
	for _, c := range confusions {
		s.ConfusionSteps = append(s.ConfusionSteps, c.Step+1)
	}

	if history != nil {
		s.RecentTurns = history.Recent(recentTurns)
	}
	return s
}

// Render serializes the snapshot into the prompt text sent with the
// answer request.
func (s Snapshot) Render() string {
	var b strings.Builder

	b.WriteString("COOKING CONTEXT:\n\n")
	b.WriteString("RECIPE STATUS:\n")
	fmt.Fprintf(&b, "- Recipe: %s\n", s.RecipeName)
	fmt.Fprintf(&b, "- Progress: %d/%d (%.1f%% complete)\n", min(s.StepNumber, s.TotalSteps), s.TotalSteps, s.Progress)
	fmt.Fprintf(&b, "- Current Step: %s\n", s.CurrentStep)
	if len(s.Upcoming) > 0 {
		fmt.Fprintf(&b, "- Next Steps Preview: %s\n", strings.Join(s.Upcoming, "; "))
	} else {
		b.WriteString("- Next Steps Preview: Recipe complete\n")
	}
	fmt.Fprintf(&b, "- Ingredients: %s\n", orDefault(strings.Join(s.Ingredients, ", "), "Not specified"))

	b.WriteString("\nUSER PROFILE:\n")
	fmt.Fprintf(&b, "- Cooking Pace: %s\n", s.Pace)
	fmt.Fprintf(&b, "- Estimated Skill Level: %s\n", s.SkillLevel)
	fmt.Fprintf(&b, "- Confusion Level: %s\n", s.ConfusionLevel)
	fmt.Fprintf(&b, "- Recent Question Types: %s\n", orDefault(joinIntents(s.RecentTurns), "None"))
	fmt.Fprintf(&b, "- Total Questions This Session: %d\n", s.TotalQuestions)

	b.WriteString("\nINTERACTION PATTERNS:\n")
	fmt.Fprintf(&b, "- Quick Navigation: %d\n", s.Interaction.QuickNavigation)
	fmt.Fprintf(&b, "- Detailed Questions: %d\n", s.Interaction.DetailedQuestions)
	fmt.Fprintf(&b, "- Repeat Requests: %d\n", s.Interaction.RepeatRequests)

	b.WriteString("\nSKILL INDICATORS:\n")
	fmt.Fprintf(&b, "- Technique Questions: %d\n", s.Skill.Technique)
	fmt.Fprintf(&b, "- Timing Questions: %d\n", s.Skill.Timing)
	fmt.Fprintf(&b, "- Troubleshooting Questions: %d\n", s.Skill.Troubleshooting)

	if len(s.RecentTurns) > 0 {
		b.WriteString("\nRECENT CONVERSATION:\n")
		for _, t := range s.RecentTurns {
			fmt.Fprintf(&b, "- [step %d] %s: %q\n", t.StepIndex+1, t.Intent, t.Utterance)
		}
	}

	b.WriteString("\nCURRENT INTERACTION:\n")
	fmt.Fprintf(&b, "- User Intent: %s\n", s.Intent)
	fmt.Fprintf(&b, "- Question: %q\n", s.Utterance)
	if len(s.ConfusionSteps) > 0 {
		steps := make([]string, len(s.ConfusionSteps))
		for i, n := range s.ConfusionSteps {
			steps[i] = fmt.Sprint(n)
		}
		fmt.Fprintf(&b, "- Previous Confusion Steps: %s\n", strings.Join(steps, ", "))
	} else {
		b.WriteString("- Previous Confusion Steps: None\n")
	}

	b.WriteString("\n")
	b.WriteString(PromptAnswerRequirements)
	return b.String()
}

func joinIntents(turns []domain.ConversationTurn) string {
	labels := make([]string, len(turns))
	for i, t := range turns {
		labels[i] = t.Intent.String()
	}
	return strings.Join(labels, ", ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
