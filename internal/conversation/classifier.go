package conversation

import (
	"context"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/metrics"
)

// Compile-time interface check.
var _ domain.IntentClassifier = (*Classifier)(nil)

// DefaultClassifyTimeout bounds the primary classifier call.
const DefaultClassifyTimeout = 8 * time.Second

// ClassifierOption configures the Classifier.
type ClassifierOption func(*Classifier)

// WithClassifyTimeout sets how long the primary classifier may take
// before the keyword fallback answers instead.
func WithClassifyTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithFallbackHook registers a callback invoked each time the primary
// classifier fails and the keyword table answers.
func WithFallbackHook(fn func(err error)) ClassifierOption {
	return func(c *Classifier) { c.onFallback = fn }
}

// Classifier is the intent classifier the dialogue controller talks to.
// It asks the primary (model-backed) classifier first and recovers from
// any failure or timeout with the keyword table, so Classify never
// returns an error.
type Classifier struct {
	primary    domain.IntentClassifier // nil runs keyword-only
	fallback   *KeywordParser
	log        *logger.Logger
	timeout    time.Duration
	onFallback func(err error)
}

// NewClassifier combines a primary classifier with the keyword fallback.
// A nil primary classifies with keywords alone.
func NewClassifier(primary domain.IntentClassifier, log *logger.Logger, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		primary:  primary,
		fallback: NewKeywordParser(log),
		log:      log,
		timeout:  DefaultClassifyTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify maps the utterance to an intent and attaches the recipe
// ingredients it mentions.
func (c *Classifier) Classify(ctx context.Context, utterance string, session *domain.RecipeSession) (domain.Intent, error) {
	intent := c.classify(ctx, utterance, session)
	if session != nil && len(intent.Entities) == 0 {
		intent.Entities = ExtractEntities(utterance, session.Ingredients)
	}
	return intent, nil
}

func (c *Classifier) classify(ctx context.Context, utterance string, session *domain.RecipeSession) domain.Intent {
	if c.primary == nil {
		return c.fallback.Match(utterance)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	intent, err := c.primary.Classify(cctx, utterance, session)
	if err == nil {
		c.log.Debug("classifier: %q -> %s (model)", utterance, intent.Type)
		return intent
	}

	c.log.Warn("classifier: primary failed, using keywords: %v", err)
	metrics.ClassificationFallbacks.Inc()
	if c.onFallback != nil {
		c.onFallback(err)
	}
	intent = c.fallback.Match(utterance)
	c.log.Debug("classifier: %q -> %s (keyword)", utterance, intent.Type)
	return intent
}
