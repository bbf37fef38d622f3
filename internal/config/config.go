// Package config loads Sous-Chef settings from an optional YAML file, a
// .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SOUSCHEF_DIALOGUE_LISTEN_RETRIES.
const EnvPrefix = "SOUSCHEF"

type Config struct {
	GPT      GPTConfig      `mapstructure:"gpt"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Whisper  WhisperConfig  `mapstructure:"whisper"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
	Database DatabaseConfig `mapstructure:"database"`
	TurnLog  TurnLogConfig  `mapstructure:"turnlog"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type GPTConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Key        string        `mapstructure:"key"`
	Model      string        `mapstructure:"model"`
	APIVersion string        `mapstructure:"api_version"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a completion service is configured.
func (g GPTConfig) Enabled() bool { return g.Key != "" }

type SpeechConfig struct {
	Key      string `mapstructure:"key"`
	Region   string `mapstructure:"region"`
	Voice    string `mapstructure:"voice"`
	Rate     string `mapstructure:"rate"`
	CacheDir string `mapstructure:"cache_dir"`
}

// Enabled reports whether text-to-speech credentials are present.
func (s SpeechConfig) Enabled() bool { return s.Key != "" }

type WhisperConfig struct {
	Bin            string        `mapstructure:"bin"`
	Model          string        `mapstructure:"model"`
	InitialSilence time.Duration `mapstructure:"initial_silence"`
	EndSilence     time.Duration `mapstructure:"end_silence"`
}

// Enabled reports whether a local whisper model is configured.
func (w WhisperConfig) Enabled() bool { return w.Bin != "" && w.Model != "" }

type DialogueConfig struct {
	ListenRetries   int           `mapstructure:"listen_retries"`
	HistorySize     int           `mapstructure:"history_size"`
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"`
	AnswerTimeout   time.Duration `mapstructure:"answer_timeout"`
	Voice           bool          `mapstructure:"voice"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type TurnLogConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gpt.endpoint", "")
	v.SetDefault("gpt.key", "")
	v.SetDefault("gpt.model", "gpt-4o-mini")
	v.SetDefault("gpt.api_version", "2024-02-01")
	v.SetDefault("gpt.timeout", 30*time.Second)

	v.SetDefault("speech.key", "")
	v.SetDefault("speech.region", "westeurope")
	v.SetDefault("speech.voice", "en-US-JennyMultilingualNeural")
	v.SetDefault("speech.rate", "+30%")
	v.SetDefault("speech.cache_dir", ".souschef-cache")

	v.SetDefault("whisper.bin", "")
	v.SetDefault("whisper.model", "")
	v.SetDefault("whisper.initial_silence", 9*time.Second)
	v.SetDefault("whisper.end_silence", 2*time.Second)

	v.SetDefault("dialogue.listen_retries", 3)
	v.SetDefault("dialogue.history_size", 5)
	v.SetDefault("dialogue.classify_timeout", 8*time.Second)
	v.SetDefault("dialogue.answer_timeout", 20*time.Second)
	v.SetDefault("dialogue.voice", true)
	v.SetDefault("dialogue.retry_backoff", 250*time.Millisecond)

	v.SetDefault("database.path", "souschef.db")
	v.SetDefault("turnlog.path", "turns.jsonl")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "normal")
	v.SetDefault("log.file", "souschef.log")
}

// legacyEnv maps the plain variable names used by existing deployments
// onto config keys. The first set variable wins.
var legacyEnv = map[string][]string{
	"gpt.endpoint":  {"GPT_CHAT_ENDPOINT"},
	"gpt.key":       {"GPT_CHAT_KEY", "OPENAI_API_KEY"},
	"speech.key":    {"AZURE_SPEECH_KEY"},
	"speech.region": {"AZURE_SPEECH_REGION"},
}

// Load reads configuration. A .env file in the working directory is loaded
// first if present. path names a YAML config file; when empty, an optional
// souschef.yaml in the working directory is used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key, EnvPrefix + "_" + envName(key)}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("souschef")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later and far from
// their source.
func (c *Config) Validate() error {
	durations := []struct {
		key string
		d   time.Duration
	}{
		{"gpt.timeout", c.GPT.Timeout},
		{"whisper.initial_silence", c.Whisper.InitialSilence},
		{"whisper.end_silence", c.Whisper.EndSilence},
		{"dialogue.classify_timeout", c.Dialogue.ClassifyTimeout},
		{"dialogue.answer_timeout", c.Dialogue.AnswerTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", d.key, d.d)
		}
	}
	if c.Dialogue.RetryBackoff < 0 {
		return fmt.Errorf("config: dialogue.retry_backoff must not be negative, got %s", c.Dialogue.RetryBackoff)
	}
	if c.Dialogue.ListenRetries < 1 {
		return fmt.Errorf("config: dialogue.listen_retries must be at least 1, got %d", c.Dialogue.ListenRetries)
	}
	if c.Dialogue.HistorySize < 1 {
		return fmt.Errorf("config: dialogue.history_size must be at least 1, got %d", c.Dialogue.HistorySize)
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
