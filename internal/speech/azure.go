package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hammamikhairi/souschef/internal/logger"
)

// AzureOption configures the Azure TTS client.
type AzureOption func(*AzureClient)

// WithVoice sets the TTS voice.
func WithVoice(voice string) AzureOption {
	return func(c *AzureClient) {
		if voice != "" {
			c.voice = voice
		}
	}
}

// WithRate sets the SSML prosody rate, e.g. "+30%". Empty disables the
// prosody element.
func WithRate(rate string) AzureOption {
	return func(c *AzureClient) { c.rate = rate }
}

// WithAudioFormat sets the audio output format.
func WithAudioFormat(format string) AzureOption {
	return func(c *AzureClient) { c.format = format }
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(c *AzureClient) { c.httpClient.Timeout = d }
}

// WithEndpoint overrides the regional endpoint URL.
func WithEndpoint(url string) AzureOption {
	return func(c *AzureClient) { c.endpoint = url }
}

// AzureClient synthesizes speech via Azure Cognitive Services.
type AzureClient struct {
	subscriptionKey string
	endpoint        string
	voice           string
	rate            string
	format          string
	httpClient      *http.Client
	log             *logger.Logger
}

// NewAzureClient creates an Azure TTS client with the given credentials.
func NewAzureClient(key, region string, log *logger.Logger, opts ...AzureOption) *AzureClient {
	if region == "" {
		region = DefaultRegion
	}
	c := &AzureClient{
		subscriptionKey: key,
		endpoint:        fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		voice:           DefaultVoice,
		rate:            DefaultRate,
		format:          DefaultAudioFormat,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		log:             log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Voice returns the configured voice name.
func (c *AzureClient) Voice() string { return c.voice }

// Rate returns the configured prosody rate.
func (c *AzureClient) Rate() string { return c.rate }

// Render converts text to WAV audio.
func (c *AzureClient) Render(ctx context.Context, text string) ([]byte, error) {
	ssml, err := c.buildSSML(text)
	if err != nil {
		return nil, err
	}
	c.log.Debug("azure tts: synthesizing %d chars with voice %s", len(text), c.voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", "SousChef/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}
	c.log.Debug("azure tts: got %d bytes of audio", len(audio))
	return audio, nil
}

func (c *AzureClient) buildSSML(text string) (string, error) {
	var esc bytes.Buffer
	if err := xml.EscapeText(&esc, []byte(text)); err != nil {
		return "", fmt.Errorf("escaping ssml: %w", err)
	}
	body := esc.String()
	if c.rate != "" {
		body = fmt.Sprintf(`<prosody rate='%s'>%s</prosody>`, c.rate, body)
	}
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'>%s</voice></speak>`,
		c.voice, body,
	), nil
}
