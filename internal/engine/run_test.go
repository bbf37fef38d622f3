package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// scriptedTranscriber hands out lines in order.
type scriptedTranscriber struct {
	mu    sync.Mutex
	lines []string
	err   error // returned once lines run out; defaults to io.EOF
	calls int
}

func (s *scriptedTranscriber) Transcribe(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedTranscriber) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

type recordingNotifier struct {
	msgs   []string
	urgent []string
}

func (n *recordingNotifier) Notify(ctx context.Context, m string) error {
	n.msgs = append(n.msgs, m)
	return nil
}

func (n *recordingNotifier) NotifyUrgent(ctx context.Context, m string) error {
	n.msgs = append(n.msgs, m)
	n.urgent = append(n.urgent, m)
	return nil
}

type recordingSynth struct {
	texts []string
	err   error
}

func (s *recordingSynth) Synthesize(ctx context.Context, text string) error {
	s.texts = append(s.texts, text)
	return s.err
}

func TestRunSilenceEndsAsStop(t *testing.T) {
	f := setupEngine(t, WithListenRetries(4))
	out := &recordingNotifier{}
	f.eng.out = out
	listen := &scriptedTranscriber{err: domain.ErrNoSpeech}

	g := f.start(t, "toast")
	p, err := f.eng.Run(f.ctx, g, listen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !p.Interrupted || p.Completed {
		t.Errorf("progress = %+v, want interrupted", p)
	}
	if listen.calls != 4 {
		t.Errorf("listened %d times, want 4", listen.calls)
	}
	if out.msgs[len(out.msgs)-1] != LineNoInput() {
		t.Errorf("last message = %q", out.msgs[len(out.msgs)-1])
	}
	if f.classifier.calls.Load() != 0 {
		t.Error("running out of input must not classify anything")
	}
}

func TestRunEmptyTranscriptsCountAsSilence(t *testing.T) {
	f := setupEngine(t)
	listen := &scriptedTranscriber{lines: []string{"", "", "next"}}

	text, err := f.eng.listenWithRetry(f.ctx, listen)
	if err != nil || text != "next" {
		t.Fatalf("listenWithRetry = %q, %v", text, err)
	}

	listen = &scriptedTranscriber{lines: []string{"", "", "", "next"}}
	_, err = f.eng.listenWithRetry(f.ctx, listen)
	var timeout *domain.InputTimeoutError
	if !errors.As(err, &timeout) || timeout.Attempts != 3 {
		t.Fatalf("err = %v, want timeout after 3 attempts", err)
	}
	if listen.remaining() != 1 {
		t.Errorf("remaining = %d, want 1", listen.remaining())
	}
}

func TestRunFallsBackToText(t *testing.T) {
	typed := &scriptedTranscriber{lines: []string{"stop"}}
	f := setupEngine(t, WithTextFallback(typed))
	out := &recordingNotifier{}
	f.eng.out = out
	voice := &scriptedTranscriber{err: domain.ErrNoSpeech}

	g := f.start(t, "toast")
	p, err := f.eng.Run(f.ctx, g, voice)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if voice.calls != 3 {
		t.Errorf("voice attempts = %d, want 3", voice.calls)
	}
	if len(out.urgent) != 1 || out.urgent[0] != LineNoVoice() {
		t.Errorf("urgent = %v, want the typed-input prompt", out.urgent)
	}
	if !p.Interrupted {
		t.Errorf("progress = %+v, want the typed stop to interrupt", p)
	}
	if out.msgs[len(out.msgs)-1] != LineStop() {
		t.Errorf("last message = %q", out.msgs[len(out.msgs)-1])
	}
}

func TestRunSynthesisFailureIsNotFatal(t *testing.T) {
	f := setupEngine(t)
	f.eng.voice = &recordingSynth{err: errors.New("speaker unplugged")}
	listen := &scriptedTranscriber{lines: []string{"next", "next"}}

	g := f.start(t, "toast")
	p, err := f.eng.Run(f.ctx, g, listen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !p.Completed {
		t.Errorf("progress = %+v, want completed", p)
	}
}

func TestRunCancelled(t *testing.T) {
	f := setupEngine(t)
	g := f.start(t, "toast")

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	listen := &scriptedTranscriber{err: context.Canceled}
	if _, err := f.eng.Run(ctx, g, listen); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if g.Session.Recipe.Ended() {
		t.Error("cancellation must not end the session")
	}
}

func TestRunInputClosed(t *testing.T) {
	f := setupEngine(t)
	g := f.start(t, "toast")

	p, err := f.eng.Run(f.ctx, g, &scriptedTranscriber{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !p.Interrupted {
		t.Errorf("progress = %+v, want interrupted", p)
	}
}

func TestListenRetriesClamped(t *testing.T) {
	tests := []struct{ in, want int }{{1, 3}, {3, 3}, {4, 4}, {9, 5}}
	for _, tt := range tests {
		e := New(Deps{}, nil, WithListenRetries(tt.in))
		if e.listenRetries != tt.want {
			t.Errorf("WithListenRetries(%d) = %d, want %d", tt.in, e.listenRetries, tt.want)
		}
	}
}
