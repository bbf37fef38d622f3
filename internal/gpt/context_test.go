package gpt

import (
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
)

func TestBuildContext(t *testing.T) {
	rs := &domain.RecipeSession{
		RecipeName:       "Stir Fry",
		Steps:            []string{"Chop", "Heat oil", "Fry garlic", "Add vegetables", "Season"},
		Ingredients:      []string{"garlic", "oil"},
		CurrentStepIndex: 1,
	}
	model := domain.NewUserModel()
	model.ConfusionCount = 2
	model.Skill = domain.SkillIndicators{Technique: 3, Timing: 1}
	model.CommonConfusions = []domain.Confusion{{Step: 0}, {Step: 1}, {Step: 1}}
	model.SessionQuestions = make([]domain.SessionQuestion, 4)

	history := domain.NewTurnHistory(5)
	for i, it := range []domain.IntentType{domain.IntentNavigation, domain.IntentClarification, domain.IntentTiming, domain.IntentRepeat} {
		history.Push(domain.ConversationTurn{StepIndex: 1, Utterance: "u", Intent: it, Timestamp: time.Unix(int64(i), 0)})
	}

	s := BuildContext("why oil?", domain.IntentTechnique, rs, model, history)

	if s.StepNumber != 2 || s.TotalSteps != 5 || s.CurrentStep != "Heat oil" {
		t.Errorf("position = %d/%d %q", s.StepNumber, s.TotalSteps, s.CurrentStep)
	}
	if len(s.Upcoming) != 2 || s.Upcoming[0] != "Fry garlic" || s.Upcoming[1] != "Add vegetables" {
		t.Errorf("upcoming = %v", s.Upcoming)
	}
	if s.Progress != 20 {
		t.Errorf("progress = %v, want 20", s.Progress)
	}
	if s.ConfusionLevel != domain.ConfusionMedium {
		t.Errorf("confusion = %s, want medium", s.ConfusionLevel)
	}
	if s.SkillLevel != domain.SkillIntermediate {
		t.Errorf("skill = %s, want intermediate", s.SkillLevel)
	}
	if len(s.RecentTurns) != 3 || s.RecentTurns[0].Intent != domain.IntentClarification {
		t.Errorf("recent turns = %+v", s.RecentTurns)
	}
	if len(s.ConfusionSteps) != 2 || s.ConfusionSteps[0] != 2 {
		t.Errorf("confusion steps = %v, want [2 2]", s.ConfusionSteps)
	}
	if s.TotalQuestions != 4 {
		t.Errorf("total questions = %d", s.TotalQuestions)
	}

	out := s.Render()
	for _, want := range []string{
		"Recipe: Stir Fry",
		"Progress: 2/5 (20.0% complete)",
		"Next Steps Preview: Fry garlic; Add vegetables",
		"Recent Question Types: CLARIFICATION, TIMING, REPEAT",
		"Previous Confusion Steps: 2, 2",
		"User Intent: TECHNIQUE",
		"under 60 words",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q\n%s", want, out)
		}
	}
}

func TestBuildContextEmptyRecipe(t *testing.T) {
	rs := domain.NewRecipeSession(&domain.Recipe{Name: "Nothing"})
	s := BuildContext("hello", domain.IntentQuestion, rs, nil, nil)

	if s.Progress != 0 {
		t.Errorf("progress = %v, want 0", s.Progress)
	}
	if s.CurrentStep != "Complete" {
		t.Errorf("current = %q", s.CurrentStep)
	}
	out := s.Render()
	if !strings.Contains(out, "Next Steps Preview: Recipe complete") {
		t.Errorf("render:\n%s", out)
	}
	if !strings.Contains(out, "Ingredients: Not specified") {
		t.Errorf("render:\n%s", out)
	}
}

func TestRenderLastStep(t *testing.T) {
	rs := &domain.RecipeSession{RecipeName: "Toast", Steps: []string{"a", "b"}, CurrentStepIndex: 1}
	out := BuildContext("q", domain.IntentTiming, rs, nil, nil).Render()
	if !strings.Contains(out, "Progress: 2/2 (50.0% complete)") {
		t.Errorf("render:\n%s", out)
	}
	if !strings.Contains(out, "Recipe complete") {
		t.Errorf("expected no preview on last step:\n%s", out)
	}
}
