package conversation

import (
	"context"
	"testing"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input    string
		wantType domain.IntentType
	}{
		// Navigation
		{"next", domain.IntentNavigation},
		{"Next step please", domain.IntentNavigation},
		{"continue", domain.IntentNavigation},
		{"skip this one", domain.IntentNavigation},
		{"ok move on", domain.IntentNavigation},
		{"next?", domain.IntentNavigation},
		{"next please?", domain.IntentNavigation},
		{"can we continue", domain.IntentNavigation},
		{"could you skip this step", domain.IntentNavigation},

		// Repeat
		{"repeat", domain.IntentRepeat},
		{"again", domain.IntentRepeat},
		{"say that again", domain.IntentRepeat},
		{"can you repeat that?", domain.IntentRepeat},

		// Ingredients
		{"ingredients", domain.IntentIngredients},
		{"what are the ingredients?", domain.IntentIngredients},
		{"read me the ingredients list", domain.IntentIngredients},

		// Stop
		{"stop", domain.IntentStop},
		{"quit", domain.IntentStop},
		{"let's end here", domain.IntentStop},
		{"exit", domain.IntentStop},
		{"Stop cooking!", domain.IntentStop},
		{"okay, quit now", domain.IntentStop},

		// Statements that mention stop words are not commands
		{"I'm at the end of the dough", domain.IntentQuestion},
		{"the sauce won't stop bubbling", domain.IntentQuestion},
		{"can we stop", domain.IntentQuestion},

		// Questions are never commands
		{"how do I end up with crispy skin", domain.IntentQuestion},
		{"should I skip the butter?", domain.IntentQuestion},
		{"what ingredients go in first?", domain.IntentQuestion},
		{"how long does this take", domain.IntentQuestion},

		// Unmatched
		{"hello", domain.IntentQuestion},
		{"flambé the cat", domain.IntentQuestion},
		{"", domain.IntentQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intent, err := parser.Classify(ctx, tt.input, nil)
			if err != nil {
				t.Fatalf("Classify(%q) error: %v", tt.input, err)
			}
			if intent.Type != tt.wantType {
				t.Errorf("Classify(%q) = %s, want %s", tt.input, intent.Type, tt.wantType)
			}
			if intent.Source != domain.SourceKeyword {
				t.Errorf("Classify(%q) source = %s, want keyword", tt.input, intent.Source)
			}
			if intent.Confidence < 0 || intent.Confidence > 1 {
				t.Errorf("Classify(%q) confidence %v out of range", tt.input, intent.Confidence)
			}
		})
	}
}

func TestKeywordParserUnmatchedConfidence(t *testing.T) {
	parser := NewKeywordParser(logger.New(logger.LevelOff, nil))
	got := parser.Match("hello there")
	if got.Type != domain.IntentQuestion || got.Confidence != 0.5 {
		t.Errorf("Match(hello there) = %+v, want QUESTION at 0.5", got)
	}
}

func TestIsQuestion(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"How long do I boil pasta?", true},
		{"what temperature for chicken", true},
		{"why is my sauce lumpy", true},
		{"is the oven hot enough", true},
		{"am i doing this right", true},
		{"something?", true},
		{"next", false},
		{"repeat", false},
		{"hello", false},
		{"showtime", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isQuestion(tt.input); got != tt.want {
				t.Errorf("isQuestion(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractEntities(t *testing.T) {
	ingredients := []string{"2 slices of bread", "butter", "3 eggs", "salt"}

	tests := []struct {
		input string
		want  []string
	}{
		{"can I use margarine instead of butter?", []string{"butter"}},
		{"how many eggs and how much salt", []string{"3 eggs", "salt"}},
		{"is one egg enough", []string{"3 eggs"}},
		{"toast the BREAD", []string{"2 slices of bread"}},
		{"next", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ExtractEntities(tt.input, ingredients)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractEntities(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractEntities(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKeywordParserMatchedConfidence(t *testing.T) {
	parser := NewKeywordParser(logger.New(logger.LevelOff, nil))
	got := parser.Match("next?")
	if got.Type != domain.IntentNavigation || got.Confidence != 0.7 {
		t.Errorf("Match(next?) = %+v, want NAVIGATION at 0.7", got)
	}
}
