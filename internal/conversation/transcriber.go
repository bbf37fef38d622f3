package conversation

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.Transcriber = (*LineTranscriber)(nil)
	_ domain.Transcriber = (*ReaderTranscriber)(nil)
)

// LineTranscriber is the text-input path: it waits for a line typed into
// the UI. A wait that hits the timeout reports domain.ErrNoSpeech, like a
// silent microphone would.
type LineTranscriber struct {
	lines   <-chan string
	timeout time.Duration // zero waits until ctx is done
}

// NewLineTranscriber reads lines from ch.
func NewLineTranscriber(ch <-chan string, timeout time.Duration) *LineTranscriber {
	return &LineTranscriber{lines: ch, timeout: timeout}
}

// Transcribe returns the next line.
func (t *LineTranscriber) Transcribe(ctx context.Context) (string, error) {
	var deadline <-chan time.Time
	if t.timeout > 0 {
		timer := time.NewTimer(t.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case line, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	case <-deadline:
		return "", domain.ErrNoSpeech
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ReaderTranscriber reads lines from a plain reader such as stdin. It is
// used when no terminal UI is running.
type ReaderTranscriber struct {
	once  sync.Once
	r     io.Reader
	lines chan string
	line  *LineTranscriber
}

// NewReaderTranscriber scans lines from r in the background.
func NewReaderTranscriber(r io.Reader, timeout time.Duration) *ReaderTranscriber {
	lines := make(chan string)
	return &ReaderTranscriber{
		r:     r,
		lines: lines,
		line:  NewLineTranscriber(lines, timeout),
	}
}

// Transcribe returns the next line read. io.EOF is returned once the
// reader is exhausted.
func (t *ReaderTranscriber) Transcribe(ctx context.Context) (string, error) {
	t.once.Do(func() {
		go func() {
			defer close(t.lines)
			sc := bufio.NewScanner(t.r)
			for sc.Scan() {
				t.lines <- sc.Text()
			}
		}()
	})
	return t.line.Transcribe(ctx)
}
