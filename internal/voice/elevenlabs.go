package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// defaultTTSModel is the ElevenLabs model used for all synthesis requests.
const defaultTTSModel = "eleven_multilingual_v1"

// ElevenLabsConfig holds the configuration for the ElevenLabs client.
type ElevenLabsConfig struct {
	// APIKey is the ElevenLabs API key. Required.
	APIKey string
	// BaseURL overrides the API endpoint. Defaults to the public API.
	BaseURL string
	// Model is the TTS model ID. Defaults to eleven_multilingual_v1.
	Model string
	// AudioDir is the directory where synthesized files are written.
	// Created if absent. Defaults to "./audio".
	AudioDir string
}

// ElevenLabsTTS synthesizes speech via the ElevenLabs HTTP API and writes
// the result to the local audio directory.
type ElevenLabsTTS struct {
	cfg        *ElevenLabsConfig
	httpClient *http.Client
}

// NewElevenLabsTTS constructs an ElevenLabsTTS client and ensures the audio
// directory exists.
func NewElevenLabsTTS(cfg *ElevenLabsConfig) (*ElevenLabsTTS, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("voice: ELEVENLABS_API_KEY is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.Model == "" {
		cfg.Model = defaultTTSModel
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = "./audio"
	}
	if err := os.MkdirAll(cfg.AudioDir, 0o750); err != nil {
		return nil, fmt.Errorf("voice: creating audio dir %s: %w", cfg.AudioDir, err)
	}

	return &ElevenLabsTTS{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// ttsRequest is the JSON body for a text-to-speech call.
type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize renders text in the given voice and writes the audio to the
// configured directory. format defaults to "mp3". The returned duration is
// estimated from the word count.
func (t *ElevenLabsTTS) Synthesize(ctx context.Context, text, voiceID, format string) (*Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("voice: text must not be empty")
	}
	if voiceID == "" {
		return nil, fmt.Errorf("voice: voice id must not be empty")
	}
	if format == "" {
		format = "mp3"
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: t.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("voice: marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", t.cfg.BaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("voice: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", t.cfg.APIKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice: tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("voice: tts returned status %d: %s", resp.StatusCode, raw)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voice: reading audio body: %w", err)
	}

	fileID := uuid.NewString()
	filename := fmt.Sprintf("%s.%s", fileID, format)
	path := filepath.Join(t.cfg.AudioDir, filename)
	if err := os.WriteFile(path, audio, 0o640); err != nil {
		return nil, fmt.Errorf("voice: writing %s: %w", path, err)
	}

	return &Audio{
		FileID:   fileID,
		Locator:  "/audio/" + filename,
		Path:     path,
		Duration: estimateDuration(text),
		Format:   format,
	}, nil
}

// Voice describes one available ElevenLabs voice.
type Voice struct {
	VoiceID  string            `json:"voice_id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Labels   map[string]string `json:"labels"`
}

// Voices lists the voices available to the configured API key.
func (t *ElevenLabsTTS) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("voice: creating request: %w", err)
	}
	req.Header.Set("xi-api-key", t.cfg.APIKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice: voices request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice: voices returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("voice: decoding voices response: %w", err)
	}
	return parsed.Voices, nil
}
