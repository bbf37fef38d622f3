package gpt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/recipe"
)

// scriptedCompleter answers from a function and records every request.
type scriptedCompleter struct {
	reply func(req domain.CompletionRequest) (string, error)
	reqs  []domain.CompletionRequest
}

func (s *scriptedCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	s.reqs = append(s.reqs, req)
	return s.reply(req)
}

func fixed(reply string) *scriptedCompleter {
	return &scriptedCompleter{reply: func(domain.CompletionRequest) (string, error) { return reply, nil }}
}

func roastSession() *domain.RecipeSession {
	return &domain.RecipeSession{
		RecipeName:  "Roast Chicken",
		Steps:       []string{"Preheat the oven and heat the tray", "Season the chicken", "Roast for 50 minutes"},
		Ingredients: []string{"1 whole chicken", "salt", "olive oil"},
	}
}

func TestClassifyClarificationOnHeatStep(t *testing.T) {
	// The model stands in for a well-behaved classifier: it answers
	// CLARIFICATION only when the prompt carries the disambiguation rule.
	llm := &scriptedCompleter{reply: func(req domain.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "Questions ABOUT the current step should be CLARIFICATION, not NAVIGATION") {
			return "CLARIFICATION", nil
		}
		return "NAVIGATION", nil
	}}
	agent := NewAgent(llm, logger.New(logger.LevelOff, nil))

	got, err := agent.Classify(context.Background(), "what temperature should the oven be", roastSession())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Type != domain.IntentClarification {
		t.Errorf("type = %s, want CLARIFICATION", got.Type)
	}
	if got.Source != domain.SourceModel {
		t.Errorf("source = %s, want model", got.Source)
	}

	req := llm.reqs[0]
	if req.Temperature != classifyTemperature || req.MaxTokens != classifyMaxTokens {
		t.Errorf("params = %v/%d, want %v/%d", req.Temperature, req.MaxTokens, classifyTemperature, classifyMaxTokens)
	}
	for _, want := range []string{"Step 1 of 3", "Roast Chicken", "heat the tray", "what temperature should the oven be"} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestClassifyLabels(t *testing.T) {
	tests := []struct {
		reply   string
		want    domain.IntentType
		wantErr bool
	}{
		{"NAVIGATION", domain.IntentNavigation, false},
		{"  timing\n", domain.IntentTiming, false},
		{"Substitution.", domain.IntentSubstitution, false},
		{"STOP", domain.IntentStop, false},
		{"NAVIGATION or CLARIFICATION", 0, true},
		{"I think it's TIMING", 0, true},
		{"MAYBE", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			agent := NewAgent(fixed(tt.reply), logger.New(logger.LevelOff, nil))
			got, err := agent.Classify(context.Background(), "hm", roastSession())
			if tt.wantErr {
				var ce *domain.ClassificationError
				if !errors.As(err, &ce) {
					t.Fatalf("err = %v, want ClassificationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Type != tt.want {
				t.Errorf("type = %s, want %s", got.Type, tt.want)
			}
		})
	}
}

func TestClassifyServiceFailure(t *testing.T) {
	llm := &scriptedCompleter{reply: func(domain.CompletionRequest) (string, error) {
		return "", &domain.CompletionError{Op: "chat", Err: errors.New("quota exceeded")}
	}}
	agent := NewAgent(llm, logger.New(logger.LevelOff, nil))

	_, err := agent.Classify(context.Background(), "next", roastSession())
	var ce *domain.ClassificationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ClassificationError", err)
	}
	var comp *domain.CompletionError
	if !errors.As(err, &comp) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestAnswerSendsContext(t *testing.T) {
	llm := fixed("Preheat to 220C.")
	agent := NewAgent(llm, logger.New(logger.LevelOff, nil))

	snap := BuildContext("how hot?", domain.IntentTechnique, roastSession(), nil, nil)
	got, err := agent.Answer(context.Background(), snap)
	if err != nil || got != "Preheat to 220C." {
		t.Fatalf("Answer = %q, %v", got, err)
	}

	req := llm.reqs[0]
	if req.System != PromptAnswerSystem {
		t.Errorf("system = %q", req.System)
	}
	if req.Temperature != answerTemperature || req.MaxTokens != answerMaxTokens {
		t.Errorf("params = %v/%d", req.Temperature, req.MaxTokens)
	}
	if !strings.Contains(req.Prompt, "Question: \"how hot?\"") {
		t.Errorf("prompt missing question:\n%s", req.Prompt)
	}
}

func TestGenerateRecipe(t *testing.T) {
	reply := `Recipe Name: Quick Omelette
Ingredients:
- 2 eggs
- salt
Instructions:
1. Beat the eggs with salt.
2. Cook in a hot pan for 2 minutes.`
	agent := NewAgent(fixed(reply), logger.New(logger.LevelOff, nil))

	r, err := agent.GenerateRecipe(context.Background(), recipe.GenerateRequest{MealType: "breakfast", MaxMinutes: 10, SkillLevel: "beginner"})
	if err != nil {
		t.Fatalf("GenerateRecipe: %v", err)
	}
	if r.Name != "Quick Omelette" || len(r.Steps) != 2 || len(r.Ingredients) != 2 {
		t.Errorf("got %+v", r)
	}
}

func TestGenerateRecipeUnparseable(t *testing.T) {
	agent := NewAgent(fixed("Sorry, I can't help with that."), logger.New(logger.LevelOff, nil))
	if _, err := agent.GenerateRecipe(context.Background(), recipe.GenerateRequest{}); err == nil {
		t.Fatal("expected error for reply without a recipe")
	}
}
