// Package engine implements the dialogue controller: the per-turn state
// machine that classifies an utterance, acts on the recipe session and
// produces the reply to speak.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/gpt"
	"github.com/hammamikhairi/souschef/internal/learning"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/metrics"
)

// Answerer produces the raw reply to a substantive question.
type Answerer interface {
	Answer(ctx context.Context, snap gpt.Snapshot) (string, error)
}

// Deps are the collaborators the engine cannot run without.
type Deps struct {
	Recipes    domain.RecipeSource
	Sessions   domain.SessionStore
	Classifier domain.IntentClassifier
	Answerer   Answerer
}

// Option configures the engine.
type Option func(*Engine)

// WithHistorySize sets how many conversation turns each session keeps.
// Values are clamped to 3..5.
func WithHistorySize(n int) Option {
	return func(e *Engine) { e.historySize = clamp(n, 3, 5) }
}

// WithAnswerTimeout bounds each completion call made to answer a question.
func WithAnswerTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.answerTimeout = d
		}
	}
}

// WithTurnLog records every processed turn.
func WithTurnLog(l domain.TurnLogger) Option {
	return func(e *Engine) { e.turnLog = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine runs dialogue sessions. It depends only on interfaces and is
// fully testable with fakes. Sessions are independent; turns for the
// same session are serialized.
type Engine struct {
	recipes    domain.RecipeSource
	store      domain.SessionStore
	classifier domain.IntentClassifier
	answerer   Answerer
	log        *logger.Logger

	historySize   int
	answerTimeout time.Duration
	turnLog       domain.TurnLogger
	now           func() time.Time

	// Run loop settings, see run.go.
	listenRetries int
	retryBackoff  time.Duration
	textFallback  domain.Transcriber
	voice         domain.Synthesizer
	out           domain.Notifier
	onProgress    func(Progress)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a dialogue engine with the given dependencies and options.
func New(deps Deps, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		recipes:       deps.Recipes,
		store:         deps.Sessions,
		classifier:    deps.Classifier,
		answerer:      deps.Answerer,
		log:           log,
		historySize:   5,
		answerTimeout: 20 * time.Second,
		now:           time.Now,
		listenRetries: 3,
		retryBackoff:  250 * time.Millisecond,
		locks:         make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartOptions tune a new session.
type StartOptions struct {
	UserID string
	// Profile is the user's saved model. The new session's model starts
	// empty but inherits the saved pace.
	Profile *domain.UserModel
}

// Greeting is what the controller says when a session starts.
type Greeting struct {
	Session *domain.Session
	Reply   string
}

// ListRecipes returns all available recipes.
func (e *Engine) ListRecipes(ctx context.Context) ([]domain.RecipeSummary, error) {
	return e.recipes.List(ctx)
}

// StartRecipe begins a session for a recipe from the recipe source.
func (e *Engine) StartRecipe(ctx context.Context, recipeID string, opts StartOptions) (*Greeting, error) {
	r, err := e.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	return e.Start(ctx, r, opts)
}

// Start begins a session for an already loaded recipe.
func (e *Engine) Start(ctx context.Context, r *domain.Recipe, opts StartOptions) (*Greeting, error) {
	if r == nil {
		return nil, &domain.RecipeLoadError{Source: "session", Err: errors.New("no recipe")}
	}

	model := domain.NewUserModel()
	if opts.Profile != nil {
		model.Pace = opts.Profile.Pace
	}

	now := e.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    opts.UserID,
		Recipe:    domain.NewRecipeSession(r),
		Model:     model,
		History:   domain.NewTurnHistory(e.historySize),
		StartedAt: now,
		UpdatedAt: now,
	}

	if err := e.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	reply := LineWelcome(r.Name)
	if step, ok := session.Recipe.CurrentStep(); ok {
		reply += " " + LineStep(0, step)
		metrics.SessionsActive.Inc()
	} else {
		reply += " " + LineNoSteps()
		metrics.SessionsEnded.WithLabelValues(session.Recipe.Outcome()).Inc()
	}

	e.log.Info("started session %s for recipe %q (%d steps)", session.ID, r.Name, session.Recipe.TotalSteps())
	return &Greeting{Session: session, Reply: reply}, nil
}

// Session returns a session by ID.
func (e *Engine) Session(ctx context.Context, id string) (*domain.Session, error) {
	return e.store.Load(ctx, id)
}

// Status reports a session's progress and what has been learned about the
// user so far.
func (e *Engine) Status(ctx context.Context, id string) (Progress, learning.Summary, error) {
	session, unlock, err := e.acquire(ctx, id)
	if err != nil {
		return Progress{}, learning.Summary{}, err
	}
	defer unlock()
	return ProgressOf(session), learning.Summarize(session.Model), nil
}

// ActiveSessions reports the progress of every session that has not
// ended, oldest first.
func (e *Engine) ActiveSessions(ctx context.Context) ([]Progress, error) {
	list, err := e.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	out := make([]Progress, 0, len(list))
	for _, s := range list {
		session, unlock, err := e.acquire(ctx, s.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue // ended and discarded since the listing
		}
		if err != nil {
			return nil, err
		}
		if !session.Recipe.Ended() {
			out = append(out, ProgressOf(session))
		}
		unlock()
	}
	return out, nil
}

// End discards a session. An unfinished session is interrupted first.
func (e *Engine) End(ctx context.Context, id string) error {
	session, unlock, err := e.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if !session.Recipe.Ended() {
		session.Recipe.Interrupted = true
		e.ended(session)
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.forget(id)
	return nil
}

// acquire locks a session and loads it. The returned func releases the
// lock. Locks are only kept for sessions that exist.
func (e *Engine) acquire(ctx context.Context, id string) (*domain.Session, func(), error) {
	lock := e.lockFor(id)
	lock.Lock()

	session, err := e.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.forget(id)
		}
		lock.Unlock()
		return nil, nil, err
	}
	return session, lock.Unlock, nil
}

func (e *Engine) lockFor(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

func (e *Engine) forget(id string) {
	e.mu.Lock()
	delete(e.locks, id)
	e.mu.Unlock()
}

func (e *Engine) ended(session *domain.Session) {
	metrics.SessionsActive.Dec()
	metrics.SessionsEnded.WithLabelValues(session.Recipe.Outcome()).Inc()
	e.log.Info("session %s %s at step %d/%d", session.ID, session.Recipe.Outcome(),
		min(session.Recipe.CurrentStepIndex+1, session.Recipe.TotalSteps()), session.Recipe.TotalSteps())
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
