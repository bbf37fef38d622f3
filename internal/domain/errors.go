package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrSessionEnded   = errors.New("session has ended")
	ErrNoSpeech       = errors.New("no speech recognized")
	ErrEmptyUtterance = errors.New("empty utterance")
)

// ClassificationError reports that the primary classifier could not
// produce an intent. Callers recover with the keyword fallback.
type ClassificationError struct {
	Raw string // model output, if any
	Err error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification failed: %v", e.Err)
	}
	return fmt.Sprintf("classification failed: unrecognized label %q", e.Raw)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// CompletionError reports a failed call to the completion service.
type CompletionError struct {
	Op  string
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion %s: %v", e.Op, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// RecipeLoadError reports a recipe that could not be loaded. No session
// is created from a source that fails to load.
type RecipeLoadError struct {
	Source string
	Err    error
}

func (e *RecipeLoadError) Error() string {
	return fmt.Sprintf("loading recipe %s: %v", e.Source, e.Err)
}

func (e *RecipeLoadError) Unwrap() error { return e.Err }

// InputTimeoutError reports that the listen budget ran out without input.
type InputTimeoutError struct {
	Attempts int
}

func (e *InputTimeoutError) Error() string {
	return fmt.Sprintf("no input after %d attempts", e.Attempts)
}

func (e *InputTimeoutError) Is(target error) bool {
	return target == ErrNoSpeech
}
