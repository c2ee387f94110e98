// Package dialogue implements the multi-agent conversation engine: agent
// roles, the retrieval context builder, and the turn-taking synthesizer that
// produces a podcast transcript grounded in retrieved document chunks.
package dialogue

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role identifies an agent's function in the conversation.
type Role string

const (
	// RoleExplainer answers questions with grounded explanations. Required.
	RoleExplainer Role = "explainer"
	// RoleCurious asks the questions that drive the conversation. Required.
	RoleCurious Role = "curious"
	// RoleUser represents the human listener, who may interject. Optional.
	RoleUser Role = "user"
)

// ErrMissingRequiredAgent is returned by Synthesize when the agent set lacks
// an explainer or a curious agent. It is raised before any message is
// produced — no partial conversation is returned.
var ErrMissingRequiredAgent = errors.New("dialogue: explainer and curious agents must be present")

// Agent is a synthetic conversation participant. Created per conversation
// request; immutable.
type Agent struct {
	// ID uniquely identifies the agent within its conversation.
	ID uuid.UUID `json:"id"`
	// Name is the display name used in prompts and transcripts.
	Name string `json:"name"`
	// Role determines the agent's position in the turn-taking loop.
	Role Role `json:"role"`
	// Personality is injected into the agent's generation prompts.
	Personality string `json:"personality"`
	// VoiceID references the speech-synthesis voice for this agent.
	VoiceID string `json:"voice_id"`
}

// Message is a single turn in the transcript. The message sequence is
// append-only during synthesis and owned by its Conversation.
type Message struct {
	// AgentID references the Agent that produced this message.
	AgentID uuid.UUID `json:"agent_id"`
	// Content is the message text.
	Content string `json:"content"`
	// Timestamp records when the message was generated.
	Timestamp time.Time `json:"timestamp"`
	// IsUserMessage is true for interjections by the user role.
	IsUserMessage bool `json:"is_user_message"`
}

// Status describes the lifecycle state of a conversation.
type Status string

const (
	// StatusInProgress marks a conversation still being synthesized.
	StatusInProgress Status = "in_progress"
	// StatusCompleted marks a conversation whose turn budget is exhausted.
	StatusCompleted Status = "completed"
	// StatusFailed marks a conversation terminated by an unrecoverable error.
	StatusFailed Status = "failed"
)

// Conversation is a complete synthesized dialogue over one document.
type Conversation struct {
	// ID uniquely identifies the conversation.
	ID uuid.UUID `json:"id"`
	// DocumentID references the source document.
	DocumentID string `json:"document_id"`
	// Title summarizes the conversation topic.
	Title string `json:"title"`
	// Agents is the participant set for this conversation.
	Agents []Agent `json:"agents"`
	// Messages is the ordered transcript.
	Messages []Message `json:"messages"`
	// Status is the lifecycle state.
	Status Status `json:"status"`
	// CreatedAt is when synthesis started.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the conversation was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// AgentConfig describes an agent to be instantiated for a conversation.
type AgentConfig struct {
	// Name is the agent's display name.
	Name string `json:"name"`
	// Role is the agent's conversational role.
	Role Role `json:"role"`
	// Personality is the free-text persona injected into prompts.
	Personality string `json:"personality"`
	// VoiceID is the speech-synthesis voice reference.
	VoiceID string `json:"voice_id"`
}

// DefaultAgentConfigs returns the standard two-host-plus-listener cast used
// when a generation request does not supply its own agents.
func DefaultAgentConfigs() []AgentConfig {
	return []AgentConfig{
		{
			Name:        "Dr. Knowledge",
			Role:        RoleExplainer,
			Personality: "Expert in the subject matter, patient, and thorough in explanations",
			VoiceID:     "21m00Tcm4TlvDq8ikWAM",
		},
		{
			Name:        "Curious Carl",
			Role:        RoleCurious,
			Personality: "Inquisitive, asks insightful questions, represents the audience's perspective",
			VoiceID:     "AZCnJ6YX1Dv9e0J9z4Jm",
		},
		{
			Name:        "You",
			Role:        RoleUser,
			Personality: "The actual listener, who can ask questions during the conversation",
			VoiceID:     "EXAVITQu4vr4xnSDxMaL",
		},
	}
}

// BuildAgents instantiates Agents from configs, assigning fresh IDs.
func BuildAgents(configs []AgentConfig) []Agent {
	agents := make([]Agent, 0, len(configs))
	for _, cfg := range configs {
		agents = append(agents, Agent{
			ID:          uuid.New(),
			Name:        cfg.Name,
			Role:        cfg.Role,
			Personality: cfg.Personality,
			VoiceID:     cfg.VoiceID,
		})
	}
	return agents
}

// findByRole returns the first agent with the given role, or nil.
func findByRole(agents []Agent, role Role) *Agent {
	for i := range agents {
		if agents[i].Role == role {
			return &agents[i]
		}
	}
	return nil
}
