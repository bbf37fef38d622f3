package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/souschef/internal/logger"
)

// Player plays WAV audio on the default output device via oto.
type Player struct {
	ctx *oto.Context
	log *logger.Logger
}

// NewPlayer initializes the system audio context. It fails when no audio
// device is available.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play blocks until the clip finishes or ctx is cancelled.
func (p *Player) Play(ctx context.Context, wav []byte) error {
	pcm, err := extractPCM(wav)
	if err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(pcm))

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			player.Close()
			return ctx.Err()
		case <-tick.C:
		}
	}
	return player.Close()
}

// extractPCM strips the RIFF header and returns the raw samples of the
// data chunk.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	pos := 12
	for pos <= len(wav)-8 {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		if id == "data" {
			start := pos + 8
			return wav[start:min(start+size, len(wav))], nil
		}
		pos += 8 + size
		// Chunks are word-aligned.
		if size%2 != 0 {
			pos++
		}
	}
	return nil, errors.New("data chunk not found in WAV")
}
