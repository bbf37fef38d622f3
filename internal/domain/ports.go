package domain

import "context"

// RecipeSource provides recipes. Implementations can be in-memory, file
// based or backed by the SQLite store.
type RecipeSource interface {
	List(ctx context.Context) ([]RecipeSummary, error)
	Get(ctx context.Context, id string) (*Recipe, error)
	Search(ctx context.Context, query string) ([]RecipeSummary, error)
}

// SessionStore keeps guided sessions by ID.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*Session, error)
}

// CompletionRequest is a single prompt sent to the completion service.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer is the large-language-model completion service. Failures
// surface as errors; callers decide how to degrade.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// IntentClassifier maps an utterance to an intent given the recipe state.
// Implementations may fail; the dialogue controller never sees those
// failures because the combined classifier falls back locally.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string, session *RecipeSession) (Intent, error)
}

// Transcriber is the listen collaborator. A timeout or silence returns
// ErrNoSpeech.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Synthesizer speaks text aloud. It blocks until playback ends.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) error
}

// Notifier delivers messages to the user as text.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// TurnLogger appends turn records to an interaction log.
type TurnLogger interface {
	Append(ctx context.Context, rec TurnRecord) error
}
