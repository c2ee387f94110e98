package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPTranscriber sends recorded audio to a speech-to-text HTTP endpoint
// that returns the transcription as JSON.
type HTTPTranscriber struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPTranscriber constructs an HTTPTranscriber for the given endpoint.
// apiKey is optional; when set it is sent as a bearer token.
func NewHTTPTranscriber(endpoint, apiKey string) (*HTTPTranscriber, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("voice: transcriber endpoint must not be empty")
	}
	return &HTTPTranscriber{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Transcribe posts the audio sample and decodes the recognized text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte) (*Transcription, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("voice: audio sample must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("voice: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice: transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice: transcription returned status %d", resp.StatusCode)
	}

	var tr Transcription
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("voice: decoding transcription: %w", err)
	}
	return &tr, nil
}
