package speech

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

var _ domain.Synthesizer = (*Voice)(nil)

// renderer turns text into WAV audio.
type renderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
	Voice() string
	Rate() string
}

// speaker plays WAV audio, blocking until done.
type speaker interface {
	Play(ctx context.Context, wav []byte) error
}

// Voice speaks replies through a TTS renderer and an audio player. Audio
// for repeated lines comes from the cache. One line plays at a time.
type Voice struct {
	tts    renderer
	player speaker
	cache  *AudioCache
	log    *logger.Logger

	mu sync.Mutex
}

// NewVoice creates a synthesizer. cacheDir may be empty for a memory-only
// cache.
func NewVoice(tts *AzureClient, player *Player, cacheDir string, log *logger.Logger) *Voice {
	return newVoice(tts, player, cacheDir, log)
}

func newVoice(tts renderer, player speaker, cacheDir string, log *logger.Logger) *Voice {
	return &Voice{
		tts:    tts,
		player: player,
		cache:  NewAudioCache(tts.Voice(), tts.Rate(), cacheDir, log),
		log:    log,
	}
}

// Synthesize speaks text and returns once playback has finished.
func (v *Voice) Synthesize(ctx context.Context, text string) error {
	text = cleanForSpeech(text)
	if text == "" {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	audio, ok := v.cache.Get(text)
	if !ok {
		var err error
		audio, err = v.tts.Render(ctx, text)
		if err != nil {
			return fmt.Errorf("speech: %w", err)
		}
		v.cache.Put(text, audio)
	}

	if err := v.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("speech: playback: %w", err)
	}
	return nil
}

var (
	ansiCodes  = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	markdownCh = strings.NewReplacer("**", "", "__", "", "`", "", "#", "")
)

// cleanForSpeech strips terminal colors and markdown that should not be read
// aloud.
func cleanForSpeech(msg string) string {
	msg = ansiCodes.ReplaceAllString(msg, "")
	msg = markdownCh.Replace(msg)
	return strings.Join(strings.Fields(msg), " ")
}
