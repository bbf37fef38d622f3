// Package speech provides the voice collaborators of a cooking session:
// Azure text-to-speech with local playback, and whisper speech-to-text.
package speech

import (
	"context"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

var _ domain.Synthesizer = (*Silent)(nil)

// Silent is a synthesizer that does nothing. Used when voice is disabled.
type Silent struct {
	log *logger.Logger
}

// NewSilent creates a no-op synthesizer.
func NewSilent(log *logger.Logger) *Silent {
	return &Silent{log: log}
}

// Synthesize logs the text and returns immediately.
func (s *Silent) Synthesize(ctx context.Context, text string) error {
	s.log.Debug("speech off: would say %q", text)
	return nil
}
