package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdfcast/pdfcast-go/internal/budget"
	"github.com/pdfcast/pdfcast-go/internal/logging"
)

// Generator is the language-generation capability consumed per turn.
// Each call is independent and may fail; the synthesizer handles failures at
// the call site. Implementations must be safe to call from multiple
// goroutines (turns themselves are strictly sequential).
type Generator interface {
	// Generate produces a completion for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the tunable parameters of the synthesizer.
type Config struct {
	// Rounds is the number of (explainer, curious) exchange pairs generated
	// after the opening question. Defaults to 5 if zero.
	Rounds int

	// HistoryWindow is the number of trailing transcript messages shown to
	// the generator per turn. Defaults to 5 if zero.
	HistoryWindow int

	// MaxContextTokens bounds the estimated size of each per-turn prompt.
	// History is trimmed oldest-first to fit. Defaults to
	// budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int
}

// Synthesizer drives the turn-taking loop between agents, producing an
// ordered transcript. Turn ordering is strictly sequential — each turn's
// prompt depends on all prior turns' outputs.
type Synthesizer struct {
	// gen is the language-generation capability invoked once per turn.
	gen Generator
	// cfg holds the resolved synthesizer configuration.
	cfg Config
}

// NewSynthesizer constructs a Synthesizer from the given Generator and config.
func NewSynthesizer(gen Generator, cfg Config) (*Synthesizer, error) {
	if gen == nil {
		return nil, fmt.Errorf("dialogue: generator must not be nil")
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = 5
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = budget.DefaultMaxContextTokens
	}
	return &Synthesizer{gen: gen, cfg: cfg}, nil
}

// Request describes one conversation to synthesize.
type Request struct {
	// DocumentID references the source document.
	DocumentID string
	// Query steers the conversation topic. Optional.
	Query string
	// Context is the retrieval-grounded context string for all turns.
	Context string
	// Agents is the participant set. Must contain an explainer and a
	// curious agent; a user agent is optional.
	Agents []Agent
}

// Synthesize runs the full turn-taking loop and returns the completed
// conversation. The transcript always holds 1 + 2*Rounds messages: the
// curious agent's opening question followed by alternating explainer and
// curious turns. A failed generation call substitutes an apology message for
// that turn; it never aborts the remaining turns.
//
// Returns ErrMissingRequiredAgent — with no conversation — when the agent
// set lacks an explainer or curious agent.
func (s *Synthesizer) Synthesize(ctx context.Context, req *Request) (*Conversation, error) {
	explainer := findByRole(req.Agents, RoleExplainer)
	curious := findByRole(req.Agents, RoleCurious)
	if explainer == nil || curious == nil {
		return nil, fmt.Errorf("dialogue: synthesize for document %s: %w", req.DocumentID, ErrMissingRequiredAgent)
	}

	topic := req.Query
	if topic == "" {
		topic = "this document"
	}

	now := time.Now()
	conv := &Conversation{
		ID:         uuid.New(),
		DocumentID: req.DocumentID,
		Title:      fmt.Sprintf("Podcast about %s", topic),
		Agents:     req.Agents,
		Messages:   make([]Message, 0, 1+2*s.cfg.Rounds),
		Status:     StatusInProgress,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Opening question from the curious agent, derived from the query.
	conv.Messages = append(conv.Messages, Message{
		AgentID:   curious.ID,
		Content:   fmt.Sprintf("What can you tell me about %s?", topic),
		Timestamp: time.Now(),
	})

	for round := 0; round < s.cfg.Rounds; round++ {
		conv.Messages = append(conv.Messages, s.turn(ctx, explainer, req.Context, conv.Messages))
		conv.Messages = append(conv.Messages, s.turn(ctx, curious, req.Context, conv.Messages))
	}

	conv.Status = StatusCompleted
	conv.UpdatedAt = time.Now()

	logging.FromContext(ctx).Info("dialogue: conversation synthesized",
		slog.String("conversation_id", conv.ID.String()),
		slog.String("document_id", req.DocumentID),
		slog.Int("messages", len(conv.Messages)),
	)

	return conv, nil
}

// turn generates a single message for the given agent. A generation failure
// degrades to an apology message carrying the error text so one bad turn
// does not poison the rest of the conversation.
func (s *Synthesizer) turn(ctx context.Context, agent *Agent, convContext string, transcript []Message) Message {
	prompt := s.buildPrompt(agent, convContext, transcript)

	content, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		logging.FromContext(ctx).Warn("dialogue: turn generation failed, substituting apology",
			slog.String("agent", agent.Name),
			slog.Any("error", err),
		)
		content = fmt.Sprintf("Sorry, I encountered an error generating a response. %s", err)
	}

	return Message{
		AgentID:   agent.ID,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

// buildPrompt assembles the per-turn prompt: persona, retrieval context, and
// a sliding window over the transcript. Only message content and the
// originating agent id are shown to the generator. The window is further
// trimmed oldest-first to fit the token budget.
func (s *Synthesizer) buildPrompt(agent *Agent, convContext string, transcript []Message) string {
	start := len(transcript) - s.cfg.HistoryWindow
	if start < 0 {
		start = 0
	}

	history := make([]string, 0, len(transcript)-start)
	for _, m := range transcript[start:] {
		history = append(history, fmt.Sprintf("%s: %s", m.AgentID, m.Content))
	}

	head := fmt.Sprintf(`You are %s, a %s with the following personality: %s.
Current conversation context: %s
Conversation history:
`, agent.Name, agent.Role, agent.Personality, convContext)
	tail := `

Please generate a response that is appropriate for your role and personality.
Keep responses concise but informative, typically 1-3 sentences.`

	history = budget.TrimHistory(head+tail, history, s.cfg.MaxContextTokens)

	return head + strings.Join(history, "\n") + tail
}
