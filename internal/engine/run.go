package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/metrics"
)

// WithListenRetries sets how many empty listens are tolerated before the
// controller falls back to typed input. Values are clamped to 3..5.
func WithListenRetries(n int) Option {
	return func(e *Engine) { e.listenRetries = clamp(n, 3, 5) }
}

// WithRetryBackoff sets the pause between listen attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.retryBackoff = d
		}
	}
}

// WithTextFallback sets the typed-input path used once the listen budget
// runs out.
func WithTextFallback(t domain.Transcriber) Option {
	return func(e *Engine) { e.textFallback = t }
}

// WithVoice speaks every reply. Synthesis failures are logged and never
// end a session.
func WithVoice(s domain.Synthesizer) Option {
	return func(e *Engine) { e.voice = s }
}

// WithNotifier shows every reply as text.
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) { e.out = n }
}

// WithProgressHook is called after the greeting and after every turn.
func WithProgressHook(fn func(Progress)) Option {
	return func(e *Engine) { e.onProgress = fn }
}

// Run drives a started session to its end: speak, listen, turn, repeat.
// It returns when the session is completed or interrupted, or when ctx is
// cancelled. Running out of input ends the session as a STOP, not as an
// error.
func (e *Engine) Run(ctx context.Context, g *Greeting, listen domain.Transcriber) (Progress, error) {
	id := g.Session.ID
	e.say(ctx, g.Reply, false)
	e.progress(ProgressOf(g.Session))

	for {
		session, err := e.store.Load(ctx, id)
		if err != nil {
			return Progress{}, err
		}
		if session.Recipe.Ended() {
			return ProgressOf(session), nil
		}

		utterance, err := e.nextUtterance(ctx, listen)
		switch {
		case ctx.Err() != nil:
			return ProgressOf(session), ctx.Err()
		case err != nil:
			e.log.Info("no input for session %s (%v), stopping", id, err)
			p, ierr := e.interrupt(ctx, id)
			if ierr != nil {
				return p, ierr
			}
			e.say(ctx, LineNoInput(), false)
			e.progress(p)
			return p, nil
		}

		res, err := e.Turn(ctx, id, utterance)
		switch {
		case errors.Is(err, domain.ErrEmptyUtterance):
			continue
		case errors.Is(err, domain.ErrSessionEnded):
			return ProgressOf(session), nil
		case err != nil:
			return ProgressOf(session), err
		}

		e.say(ctx, res.Reply, res.Urgent)
		e.progress(res.Progress)
	}
}

// nextUtterance listens within the retry budget, then tries the typed
// fallback once. Silence and empty transcripts count against the budget.
func (e *Engine) nextUtterance(ctx context.Context, listen domain.Transcriber) (string, error) {
	text, err := e.listenWithRetry(ctx, listen)
	if err == nil || ctx.Err() != nil {
		return text, err
	}
	if e.textFallback == nil || e.textFallback == listen || errors.Is(err, io.EOF) {
		return "", err
	}

	e.log.Debug("listen budget exhausted (%v), asking for typed input", err)
	e.say(ctx, LineNoVoice(), true)
	text, err = e.textFallback.Transcribe(ctx)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", domain.ErrNoSpeech
	}
	return text, nil
}

func (e *Engine) listenWithRetry(ctx context.Context, listen domain.Transcriber) (string, error) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		text, err := listen.Transcribe(ctx)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return "", backoff.Permanent(err)
		case err != nil:
			metrics.ListenTimeouts.Inc()
			return "", err
		case text == "":
			metrics.ListenTimeouts.Inc()
			return "", domain.ErrNoSpeech
		}
		return text, nil
	}

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(e.retryBackoff)),
		backoff.WithMaxTries(uint(e.listenRetries)),
		backoff.WithNotify(func(err error, d time.Duration) {
			e.log.Debug("listen attempt %d/%d: %v", attempts, e.listenRetries, err)
		}),
	)
	if err != nil && errors.Is(err, domain.ErrNoSpeech) {
		return "", &domain.InputTimeoutError{Attempts: attempts}
	}
	return text, err
}

// interrupt ends a session that ran out of input.
func (e *Engine) interrupt(ctx context.Context, id string) (Progress, error) {
	session, unlock, err := e.acquire(ctx, id)
	if err != nil {
		return Progress{}, err
	}
	defer unlock()

	if !session.Recipe.Ended() {
		session.Recipe.Interrupted = true
		session.UpdatedAt = e.now()
		e.ended(session)
		if err := e.store.Save(ctx, session); err != nil {
			return ProgressOf(session), err
		}
	}
	return ProgressOf(session), nil
}

func (e *Engine) say(ctx context.Context, text string, urgent bool) {
	if e.out != nil {
		notify := e.out.Notify
		if urgent {
			notify = e.out.NotifyUrgent
		}
		if err := notify(ctx, text); err != nil {
			e.log.Warn("notify: %v", err)
		}
	}
	if e.voice != nil {
		if err := e.voice.Synthesize(ctx, text); err != nil {
			e.log.Warn("speech synthesis failed, continuing in text: %v", err)
		}
	}
}

func (e *Engine) progress(p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}
