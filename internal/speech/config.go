package speech

import "time"

// Default voice for TTS.
// Full list: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/language-support
const DefaultVoice = "en-US-JennyMultilingualNeural"

// DefaultRate is the SSML prosody rate. Cooking instructions are read a
// little faster than the service default.
const DefaultRate = "+30%"

// DefaultRegion is used when no Azure region is configured.
const DefaultRegion = "westeurope"

// Audio format returned by Azure and expected by the player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters matching the default format.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// Listen timeouts.
const (
	// DefaultInitialSilence is how long the ear waits for speech to start.
	DefaultInitialSilence = 9 * time.Second
	// DefaultEndSilence is the pause that ends an utterance.
	DefaultEndSilence = 2 * time.Second
	// DefaultChunk is the length of each recorded clip.
	DefaultChunk = time.Second
	// DefaultMaxUtterance caps a single utterance.
	DefaultMaxUtterance = 30 * time.Second
)

// Env var names for Azure Speech credentials.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)
