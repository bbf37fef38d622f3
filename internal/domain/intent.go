package domain

import (
	"fmt"
	"strings"
)

// IntentType is the classified purpose of an utterance. The set is closed:
// anything the classifier cannot map lands on IntentQuestion through
// FallbackIntent.
type IntentType int

const (
	IntentQuestion IntentType = iota
	IntentNavigation
	IntentClarification
	IntentTiming
	IntentSubstitution
	IntentTechnique
	IntentTroubleshooting
	IntentRepeat
	IntentIngredients
	IntentStop
)

// AllIntents lists every intent in canonical order.
var AllIntents = []IntentType{
	IntentNavigation,
	IntentClarification,
	IntentTiming,
	IntentSubstitution,
	IntentTechnique,
	IntentTroubleshooting,
	IntentRepeat,
	IntentIngredients,
	IntentStop,
	IntentQuestion,
}

// String returns the upper-case label used in prompts and logs.
func (i IntentType) String() string {
	switch i {
	case IntentNavigation:
		return "NAVIGATION"
	case IntentClarification:
		return "CLARIFICATION"
	case IntentTiming:
		return "TIMING"
	case IntentSubstitution:
		return "SUBSTITUTION"
	case IntentTechnique:
		return "TECHNIQUE"
	case IntentTroubleshooting:
		return "TROUBLESHOOTING"
	case IntentRepeat:
		return "REPEAT"
	case IntentIngredients:
		return "INGREDIENTS"
	case IntentStop:
		return "STOP"
	default:
		return "QUESTION"
	}
}

// IsDirect reports whether the controller handles the intent without
// consulting the completion service.
func (i IntentType) IsDirect() bool {
	switch i {
	case IntentNavigation, IntentRepeat, IntentStop, IntentIngredients:
		return true
	}
	return false
}

// ParseIntentLabel maps a label to an IntentType. Matching is
// case-insensitive and ignores surrounding whitespace; anything else,
// including extra words, is rejected.
func ParseIntentLabel(label string) (IntentType, bool) {
	want := strings.ToUpper(strings.TrimSpace(label))
	for _, it := range AllIntents {
		if it.String() == want {
			return it, true
		}
	}
	return IntentQuestion, false
}

// MarshalText encodes the intent as its label, so maps keyed by
// IntentType serialize readably.
func (i IntentType) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText.
func (i *IntentType) UnmarshalText(b []byte) error {
	it, ok := ParseIntentLabel(string(b))
	if !ok {
		return fmt.Errorf("unknown intent %q", string(b))
	}
	*i = it
	return nil
}

// IntentSource records which classifier produced an intent.
type IntentSource int

const (
	SourceModel IntentSource = iota
	SourceKeyword
)

// String returns a human-readable source name.
func (s IntentSource) String() string {
	if s == SourceKeyword {
		return "keyword"
	}
	return "model"
}

// Intent is a classified utterance. Produced fresh per utterance.
type Intent struct {
	Type       IntentType
	Confidence float64 // in [0,1]
	Entities   []string
	Source     IntentSource
}

// FallbackIntent is the intent for utterances no rule recognizes.
func FallbackIntent() Intent {
	return Intent{Type: IntentQuestion, Confidence: 0.5, Source: SourceKeyword}
}
