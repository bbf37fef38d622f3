// Package conversation provides intent classification, text input and user
// notification implementations for the dialogue controller.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentClassifier = (*KeywordParser)(nil)

// keywordConfidence is reported for intents matched by a keyword rule.
const keywordConfidence = 0.7

// KeywordParser matches utterances to intents using a small fixed table.
// It is the local fallback behind the model classifier: synchronous, no
// I/O, and it always returns an intent.
type KeywordParser struct {
	log *logger.Logger
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// Commands that stay commands even when phrased as a question.
var commandRules = []patternRule{
	{regexp.MustCompile(`(?i)^((what are|list|show|tell me|read)( me)? )?(the )?ingredients( list)?( again)?[?.!]*$`), domain.IntentIngredients},
	{regexp.MustCompile(`(?i)\b(repeat|again|say that)\b`), domain.IntentRepeat},
}

// Forward motion wins over a trailing "?" or a polite "can/could/would"
// prefix, so "next?" and "can we continue" still advance.
var navigationRule = patternRule{
	regexp.MustCompile(`(?i)\b(next|continue|skip|move on|go on)\b`), domain.IntentNavigation,
}

// STOP must be the whole utterance, so "I'm at the end of the dough" is
// not a command.
var stopRule = patternRule{
	regexp.MustCompile(`(?i)^((ok|okay|please|let's|let us)[, ]+)?(stop|quit|end|exit)( (cooking|now|here|it|the recipe|please))*[.!]*$`), domain.IntentStop,
}

// NewKeywordParser creates the keyword fallback classifier.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	return &KeywordParser{log: log}
}

// Classify never fails. Unmatched input yields domain.FallbackIntent.
func (p *KeywordParser) Classify(ctx context.Context, utterance string, session *domain.RecipeSession) (domain.Intent, error) {
	return p.Match(utterance), nil
}

// Match runs the keyword table against a single utterance.
func (p *KeywordParser) Match(utterance string) domain.Intent {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return domain.FallbackIntent()
	}

	p.log.Debug("keyword match: %q", trimmed)

	for _, rule := range commandRules {
		if rule.regex.MatchString(trimmed) {
			return keywordIntent(rule.intent)
		}
	}

	if !isContentQuestion(trimmed) && navigationRule.regex.MatchString(trimmed) {
		p.log.Debug("keyword match: %s", navigationRule.intent)
		return keywordIntent(navigationRule.intent)
	}

	if isQuestion(trimmed) {
		p.log.Debug("keyword match: looks like a question")
		return domain.FallbackIntent()
	}

	if stopRule.regex.MatchString(trimmed) {
		p.log.Debug("keyword match: %s", stopRule.intent)
		return keywordIntent(stopRule.intent)
	}

	p.log.Debug("keyword match: no rule, falling back to %s", domain.IntentQuestion)
	return domain.FallbackIntent()
}

func keywordIntent(t domain.IntentType) domain.Intent {
	return domain.Intent{Type: t, Confidence: keywordConfidence, Source: domain.SourceKeyword}
}

// contentPrefixes start questions about the food rather than requests to
// move on: "should I skip the butter?" is not navigation.
var contentPrefixes = []string{
	"how", "what", "why", "when", "where", "who", "which",
	"should", "will", "do", "does", "is", "are", "am i", "explain",
}

// politePrefixes turn a command into a question only in form.
var politePrefixes = []string{"can", "could", "would"}

// isQuestion returns true if the input looks like a question.
func isQuestion(s string) bool {
	return strings.HasSuffix(s, "?") || hasPrefix(s, contentPrefixes) || hasPrefix(s, politePrefixes)
}

func isContentQuestion(s string) bool {
	return hasPrefix(s, contentPrefixes)
}

func hasPrefix(s string, prefixes []string) bool {
	lower := strings.ToLower(s)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix+" ") || lower == prefix {
			return true
		}
	}
	return false
}
