// Package voice turns dialogue transcripts into audio. It defines the
// speech-synthesis and speech-recognition contracts, an ElevenLabs TTS
// implementation, and the narrator that renders a full conversation into
// ordered audio segments.
package voice

import (
	"context"
	"strings"
	"time"
)

// Audio describes one synthesized audio file.
type Audio struct {
	// FileID is the identifier embedded in the file name.
	FileID string `json:"file_id"`
	// Locator is the serving path of the file (e.g. "/audio/<id>.mp3").
	Locator string `json:"audio_url"`
	// Path is the absolute filesystem path of the file.
	Path string `json:"-"`
	// Duration is the estimated playback length.
	Duration time.Duration `json:"duration"`
	// Format is the audio container format (e.g. "mp3").
	Format string `json:"format"`
}

// Synthesizer converts text into speech using a named voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, format string) (*Audio, error)
}

// Transcription is the text recovered from an audio sample.
type Transcription struct {
	// Text is the recognized speech.
	Text string `json:"text"`
	// Confidence is the recognizer's confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Language is the detected language code (e.g. "en").
	Language string `json:"language"`
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (*Transcription, error)
}

// spokenWordsPerMinute is the narration pace used to estimate playback
// duration. Decoding compressed audio to measure it exactly is out of scope.
const spokenWordsPerMinute = 150

// estimateDuration returns the approximate playback length of text when
// spoken at a typical narration pace.
func estimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return time.Duration(float64(words) / spokenWordsPerMinute * float64(time.Minute))
}
