package gpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/recipe"
)

// Compile-time interface check.
var _ domain.IntentClassifier = (*Agent)(nil)

// modelConfidence is reported for intents the model labelled.
const modelConfidence = 0.9

// Agent wraps a completion service with cooking-domain prompts.
// It is the single entry-point the controller calls for AI features.
type Agent struct {
	llm domain.Completer
	log *logger.Logger
}

// NewAgent creates a cooking AI agent backed by the given completer.
func NewAgent(llm domain.Completer, log *logger.Logger) *Agent {
	return &Agent{llm: llm, log: log}
}

// Classify asks the model for one intent label. A reply that is not
// exactly one known label fails with a *domain.ClassificationError so the
// caller can fall back to keywords.
func (a *Agent) Classify(ctx context.Context, utterance string, rs *domain.RecipeSession) (domain.Intent, error) {
	step, ok := rs.CurrentStep()
	if !ok {
		step = "Complete"
	}
	prompt := fmt.Sprintf(PromptClassify, utterance,
		min(rs.CurrentStepIndex+1, rs.TotalSteps()), rs.TotalSteps(), rs.RecipeName, step)

	raw, err := timed(ctx, a.llm, "classify", domain.CompletionRequest{
		Prompt:      prompt,
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		return domain.Intent{}, &domain.ClassificationError{Err: err}
	}

	label := strings.Trim(strings.TrimSpace(raw), ".\"'`")
	it, ok := domain.ParseIntentLabel(label)
	if !ok {
		a.log.Debug("gpt: unrecognized intent label %q", raw)
		return domain.Intent{}, &domain.ClassificationError{Raw: raw}
	}

	a.log.Debug("gpt: classified %q -> %s", utterance, it)
	return domain.Intent{Type: it, Confidence: modelConfidence, Source: domain.SourceModel}, nil
}

// Answer asks the model for a context-aware reply to the snapshot's
// question. The reply is the raw answer; personalization happens later.
func (a *Agent) Answer(ctx context.Context, snap Snapshot) (string, error) {
	return timed(ctx, a.llm, "answer", domain.CompletionRequest{
		System:      PromptAnswerSystem,
		Prompt:      snap.Render(),
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
}

// GenerateRecipe asks the model for a new recipe and parses the reply.
func (a *Agent) GenerateRecipe(ctx context.Context, req recipe.GenerateRequest) (*domain.Recipe, error) {
	raw, err := timed(ctx, a.llm, "generate", domain.CompletionRequest{
		System:      PromptGenerateSystem,
		Prompt:      recipe.BuildPrompt(req),
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	r, err := recipe.ParseGenerated(raw, req)
	if err != nil {
		a.log.Error("gpt: failed to parse generated recipe: %v\nraw: %s", err, truncate(raw, 400))
		return nil, fmt.Errorf("gpt: generated recipe: %w", err)
	}
	a.log.Debug("gpt: generated %q with %d steps", r.Name, len(r.Steps))
	return r, nil
}
