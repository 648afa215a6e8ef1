package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend turns text into encoded speech audio.
type Backend interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, text string) ([]byte, error)

func (f BackendFunc) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f(ctx, text)
}

// maxAudioBytes bounds a single speech response.
const maxAudioBytes = 32 << 20

// HTTPBackend posts {"text": ...} to a speak endpoint and returns the
// response body as audio.
type HTTPBackend struct {
	Endpoint string
	Model    string
	APIKey   string
	Client   *http.Client
}

// NewHTTPBackend builds a backend with a bounded HTTP client.
func NewHTTPBackend(endpoint, model, apiKey string) *HTTPBackend {
	return &HTTPBackend{
		Endpoint: endpoint,
		Model:    model,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (b *HTTPBackend) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}
	if strings.TrimSpace(b.APIKey) == "" {
		return nil, errors.New("speech api key is not configured")
	}

	target, err := b.requestURL()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("encode speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build speech request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+b.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech backend: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech backend returned no audio")
	}
	if len(audio) > maxAudioBytes {
		return nil, fmt.Errorf("speech response exceeds %d bytes", maxAudioBytes)
	}
	return audio, nil
}

func (b *HTTPBackend) requestURL() (string, error) {
	u, err := url.Parse(strings.TrimSpace(b.Endpoint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid speech endpoint %q", b.Endpoint)
	}
	if model := strings.TrimSpace(b.Model); model != "" {
		q := u.Query()
		q.Set("model", model)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
