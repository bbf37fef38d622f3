package speech

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

var _ domain.Transcriber = (*Ear)(nil)

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithInitialSilence sets how long to wait for speech to begin.
func WithInitialSilence(d time.Duration) EarOption {
	return func(e *Ear) {
		if d > 0 {
			e.initialSilence = d
		}
	}
}

// WithEndSilence sets the pause that ends an utterance.
func WithEndSilence(d time.Duration) EarOption {
	return func(e *Ear) {
		if d > 0 {
			e.endSilence = d
		}
	}
}

// WithChunk sets the length of each recorded clip.
func WithChunk(d time.Duration) EarOption {
	return func(e *Ear) {
		if d > 0 {
			e.chunk = d
		}
	}
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// Ear transcribes one spoken utterance at a time with a local whisper
// model. It records short clips until speech has started and then stopped
// for the end-of-speech pause.
type Ear struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger

	initialSilence time.Duration
	endSilence     time.Duration
	chunk          time.Duration
	maxUtterance   time.Duration

	// record captures one clip and returns its raw transcription.
	record func(ctx context.Context, d time.Duration) string
}

// NewEar creates a listener.
//
//   - whisperBin: path to the whisper-cli executable
//   - modelPath:  path to the GGML model file
func NewEar(whisperBin, modelPath string, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		whisperBin:     whisperBin,
		modelPath:      modelPath,
		tempDir:        ".souschef-stt",
		log:            log,
		initialSilence: DefaultInitialSilence,
		endSilence:     DefaultEndSilence,
		chunk:          DefaultChunk,
		maxUtterance:   DefaultMaxUtterance,
	}
	e.record = e.recordChunk
	for _, opt := range opts {
		opt(e)
	}

	if _, err := exec.LookPath(e.whisperBin); err != nil {
		log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
	}
	return e
}

// Transcribe listens for one utterance. Silence for the whole initial
// window returns domain.ErrNoSpeech.
func (e *Ear) Transcribe(ctx context.Context) (string, error) {
	var (
		parts   []string
		silence time.Duration
		total   time.Duration
	)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text := cleanTranscription(e.record(ctx, e.chunk))
		total += e.chunk

		if text == "" {
			silence += e.chunk
			if len(parts) == 0 && silence >= e.initialSilence {
				e.log.Debug("ear: no speech within %s", e.initialSilence)
				return "", domain.ErrNoSpeech
			}
			if len(parts) > 0 && silence >= e.endSilence {
				break
			}
			continue
		}

		silence = 0
		parts = append(parts, text)
		if total >= e.maxUtterance {
			e.log.Debug("ear: utterance cut at %s", e.maxUtterance)
			break
		}
	}

	heard := strings.Join(parts, " ")
	e.log.Info("ear: heard %q", heard)
	return heard, nil
}

// recordChunk records for d and returns whisper's transcription.
func (e *Ear) recordChunk(ctx context.Context, d time.Duration) string {
	var (
		result string
		wg     sync.WaitGroup
	)
	wg.Add(1)
	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(e.whisperBin, e.modelPath, e.tempDir, "wav", callback, verbose)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		sleep(ctx, d)
		return ""
	}
	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		sleep(ctx, d)
		return ""
	}

	sleep(ctx, d)
	t.Stop()
	wg.Wait()

	if ctx.Err() != nil {
		return ""
	}
	return result
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

var (
	// envAnnotation matches whisper annotations like "(keyboard clicking)"
	// or "[laughter]".
	envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z_][a-zA-Z_\s]*[\)\]]`)
	timestamp     = regexp.MustCompile(`^\[[0-9:.\s\->]+\]`)
	spaces        = regexp.MustCompile(`\s+`)
)

// hallucinations are outputs whisper produces on near-silent audio.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"bye!":                    true,
	"the end.":                true,
}

// cleanTranscription drops timestamps, annotations such as [BLANK_AUDIO]
// and known hallucinations. An empty result means silence.
func cleanTranscription(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(timestamp.ReplaceAllString(strings.TrimSpace(s), ""))
	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
