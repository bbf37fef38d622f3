package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// stubClassifier returns a fixed intent or error.
type stubClassifier struct {
	intent domain.Intent
	err    error
	block  bool
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, utterance string, session *domain.RecipeSession) (domain.Intent, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return domain.Intent{}, ctx.Err()
	}
	return s.intent, s.err
}

func toastSession() *domain.RecipeSession {
	return &domain.RecipeSession{
		RecipeName:  "Toast",
		Steps:       []string{"Put bread in toaster", "Wait 3 minutes"},
		Ingredients: []string{"2 slices of bread", "butter"},
	}
}

func TestClassifierUsesPrimary(t *testing.T) {
	primary := &stubClassifier{intent: domain.Intent{Type: domain.IntentSubstitution, Confidence: 0.9}}
	c := NewClassifier(primary, logger.New(logger.LevelOff, nil))

	got, err := c.Classify(context.Background(), "next can I swap the butter", toastSession())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Type != domain.IntentSubstitution {
		t.Errorf("type = %s, want SUBSTITUTION", got.Type)
	}
	if got.Source != domain.SourceModel {
		t.Errorf("source = %s, want model", got.Source)
	}
	if len(got.Entities) != 1 || got.Entities[0] != "butter" {
		t.Errorf("entities = %v, want [butter]", got.Entities)
	}
}

func TestClassifierFallsBackOnError(t *testing.T) {
	primary := &stubClassifier{err: &domain.ClassificationError{Raw: "MAYBE NEXT"}}
	var hooked error
	c := NewClassifier(primary, logger.New(logger.LevelOff, nil),
		WithFallbackHook(func(err error) { hooked = err }))

	got, err := c.Classify(context.Background(), "next", toastSession())
	if err != nil {
		t.Fatalf("Classify must not fail, got %v", err)
	}
	if got.Type != domain.IntentNavigation || got.Source != domain.SourceKeyword {
		t.Errorf("got %+v, want keyword NAVIGATION", got)
	}
	var ce *domain.ClassificationError
	if !errors.As(hooked, &ce) {
		t.Errorf("fallback hook got %v, want ClassificationError", hooked)
	}
}

func TestClassifierFallsBackOnTimeout(t *testing.T) {
	primary := &stubClassifier{block: true}
	c := NewClassifier(primary, logger.New(logger.LevelOff, nil),
		WithClassifyTimeout(10*time.Millisecond))

	start := time.Now()
	got, _ := c.Classify(context.Background(), "stop", toastSession())
	if time.Since(start) > time.Second {
		t.Fatal("timeout not applied")
	}
	if got.Type != domain.IntentStop {
		t.Errorf("type = %s, want STOP", got.Type)
	}
}

func TestClassifierKeywordOnly(t *testing.T) {
	c := NewClassifier(nil, logger.New(logger.LevelOff, nil))
	got, _ := c.Classify(context.Background(), "hello", toastSession())
	if got.Type != domain.IntentQuestion {
		t.Errorf("type = %s, want QUESTION", got.Type)
	}
	if got.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", got.Confidence)
	}
}
