package voice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
	"github.com/pdfcast/pdfcast-go/internal/logging"
)

// defaultVoiceID narrates messages from agents without a configured voice.
const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

// Segment is one narrated transcript message.
type Segment struct {
	// SegmentID is the audio file identifier of this segment.
	SegmentID string `json:"segment_id"`
	// AgentID references the agent whose message this segment narrates.
	AgentID uuid.UUID `json:"agent_id"`
	// Locator is the serving path of the segment audio.
	Locator string `json:"audio_url"`
	// Text is the narrated message content.
	Text string `json:"text_content"`
	// Duration is the estimated playback length of the segment.
	Duration time.Duration `json:"duration"`
	// Order is the segment's position in the episode.
	Order int `json:"order"`
}

// Episode is the complete narrated audio of one conversation.
type Episode struct {
	// PodcastID identifies the episode.
	PodcastID uuid.UUID `json:"podcast_id"`
	// ConversationID references the narrated conversation.
	ConversationID uuid.UUID `json:"conversation_id"`
	// Segments is the ordered list of narrated messages.
	Segments []Segment `json:"segments"`
	// TotalDuration is the sum of all segment durations.
	TotalDuration time.Duration `json:"total_duration"`
	// Format is the audio format of every segment.
	Format string `json:"format"`
	// DownloadURL is where the assembled episode can be fetched.
	DownloadURL string `json:"download_url"`
}

// Narrator renders a conversation transcript into per-message audio
// segments using each agent's configured voice.
type Narrator struct {
	tts Synthesizer
}

// NewNarrator constructs a Narrator over the given Synthesizer.
func NewNarrator(tts Synthesizer) (*Narrator, error) {
	if tts == nil {
		return nil, fmt.Errorf("voice: synthesizer must not be nil")
	}
	return &Narrator{tts: tts}, nil
}

// Narrate synthesizes every message of the conversation in transcript order
// and returns the assembled episode. Messages are rendered sequentially; a
// failed segment aborts the narration.
func (n *Narrator) Narrate(ctx context.Context, conv *dialogue.Conversation, format string) (*Episode, error) {
	if conv == nil {
		return nil, fmt.Errorf("voice: conversation must not be nil")
	}
	if format == "" {
		format = "mp3"
	}

	voices := make(map[uuid.UUID]string, len(conv.Agents))
	for _, a := range conv.Agents {
		voices[a.ID] = a.VoiceID
	}

	podcastID := uuid.New()
	segments := make([]Segment, 0, len(conv.Messages))
	var total time.Duration

	for i, msg := range conv.Messages {
		voiceID := voices[msg.AgentID]
		if voiceID == "" {
			voiceID = defaultVoiceID
		}

		audio, err := n.tts.Synthesize(ctx, msg.Content, voiceID, format)
		if err != nil {
			return nil, fmt.Errorf("voice: narrating message %d: %w", i, err)
		}

		segments = append(segments, Segment{
			SegmentID: audio.FileID,
			AgentID:   msg.AgentID,
			Locator:   audio.Locator,
			Text:      msg.Content,
			Duration:  audio.Duration,
			Order:     i,
		})
		total += audio.Duration
	}

	logging.FromContext(ctx).Info("voice: conversation narrated",
		slog.String("conversation_id", conv.ID.String()),
		slog.Int("segments", len(segments)),
		slog.Duration("total_duration", total),
	)

	return &Episode{
		PodcastID:      podcastID,
		ConversationID: conv.ID,
		Segments:       segments,
		TotalDuration:  total,
		Format:         format,
		DownloadURL:    fmt.Sprintf("/podcasts/%s/download", podcastID),
	}, nil
}
