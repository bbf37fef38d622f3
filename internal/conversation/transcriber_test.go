package conversation

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
)

func TestLineTranscriber(t *testing.T) {
	ch := make(chan string, 1)
	tr := NewLineTranscriber(ch, 20*time.Millisecond)

	ch <- "  next  "
	got, err := tr.Transcribe(context.Background())
	if err != nil || got != "next" {
		t.Fatalf("Transcribe = %q, %v; want next", got, err)
	}

	_, err = tr.Transcribe(context.Background())
	if !errors.Is(err, domain.ErrNoSpeech) {
		t.Errorf("idle Transcribe err = %v, want ErrNoSpeech", err)
	}

	close(ch)
	_, err = tr.Transcribe(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Errorf("closed Transcribe err = %v, want EOF", err)
	}
}

func TestLineTranscriberCancelled(t *testing.T) {
	tr := NewLineTranscriber(make(chan string), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Transcribe(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReaderTranscriber(t *testing.T) {
	tr := NewReaderTranscriber(strings.NewReader("next\nrepeat\n"), time.Second)
	ctx := context.Background()

	for _, want := range []string{"next", "repeat"} {
		got, err := tr.Transcribe(ctx)
		if err != nil || got != want {
			t.Fatalf("Transcribe = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := tr.Transcribe(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want EOF", err)
	}
}
