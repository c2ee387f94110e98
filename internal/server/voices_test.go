package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdfcast/pdfcast-go/internal/voice"
)

// fakeVoiceLister implements VoiceLister for tests.
type fakeVoiceLister struct {
	// voices is returned on success.
	voices []voice.Voice
	// err is returned instead when non-nil.
	err error
}

func (f *fakeVoiceLister) Voices(_ context.Context) ([]voice.Voice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.voices, nil
}

// ---------------------------------------------------------------------------
// GET /api/voices
// ---------------------------------------------------------------------------

func TestHandleListVoices_ReturnsVoices(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.voices = &fakeVoiceLister{voices: []voice.Voice{
		{VoiceID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Category: "premade"},
		{VoiceID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Category: "premade"},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/voices", nil)
	w := httptest.NewRecorder()
	s.handleListVoices(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}

	var resp listVoicesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 || len(resp.Voices) != 2 {
		t.Fatalf("expected 2 voices, got count=%d len=%d", resp.Count, len(resp.Voices))
	}
	if resp.Voices[0].Name != "Adam" || resp.Voices[1].VoiceID != "21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("voices not returned in order: %+v", resp.Voices)
	}
}

func TestHandleListVoices_NarrationDisabled(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	// voices stays nil when no TTS backend is configured.

	req := httptest.NewRequest(http.MethodGet, "/api/voices", nil)
	w := httptest.NewRecorder()
	s.handleListVoices(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestHandleListVoices_BackendError(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.voices = &fakeVoiceLister{err: fmt.Errorf("voice: voices returned status 401")}

	req := httptest.NewRequest(http.MethodGet, "/api/voices", nil)
	w := httptest.NewRecorder()
	s.handleListVoices(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestHandleListVoices_EmptyIsNotNull(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.voices = &fakeVoiceLister{}

	req := httptest.NewRequest(http.MethodGet, "/api/voices", nil)
	w := httptest.NewRecorder()
	s.handleListVoices(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"voices":[]`) {
		t.Errorf("empty voice list must encode as [], got %s", body)
	}
}
