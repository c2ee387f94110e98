// Package podcast orchestrates the full generation flow: ingest a document,
// synthesize a grounded conversation, narrate it to audio, and persist the
// result. Each stage is reported in a step log so callers can see exactly
// how far a failed run progressed.
package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
	"github.com/pdfcast/pdfcast-go/internal/ingestion"
	"github.com/pdfcast/pdfcast-go/internal/logging"
	"github.com/pdfcast/pdfcast-go/internal/store"
	"github.com/pdfcast/pdfcast-go/internal/voice"
)

// StepStatus describes the outcome of one pipeline stage.
type StepStatus string

const (
	// StepCompleted marks a stage that ran to completion.
	StepCompleted StepStatus = "completed"
	// StepFailed marks the stage where the run aborted.
	StepFailed StepStatus = "failed"
	// StepSkipped marks a stage disabled by configuration.
	StepSkipped StepStatus = "skipped"
	// StepNotAttempted marks stages after a failed one. Side effects of
	// completed stages are kept; nothing is rolled back.
	StepNotAttempted StepStatus = "not_attempted"
)

// Step is one entry in the generation step log.
type Step struct {
	// Step is the stage name.
	Step string `json:"step"`
	// Status is the stage outcome.
	Status StepStatus `json:"status"`
	// Details carries stage-specific counters and identifiers.
	Details map[string]any `json:"details,omitempty"`
}

// Stage names, in execution order.
const (
	stepIngestion    = "Document Ingestion"
	stepConversation = "Conversation Generation"
	stepNarration    = "Audio Narration"
	stepPersistence  = "Persistence"
)

// Podcast is the complete result of one generation run.
type Podcast struct {
	// PodcastID identifies the run.
	PodcastID uuid.UUID `json:"podcast_id"`
	// DocumentID is the identifier assigned to the ingested document.
	DocumentID string `json:"document_id"`
	// Source is the document's display label.
	Source string `json:"source"`
	// Title is the conversation title.
	Title string `json:"title"`
	// Conversation is the synthesized transcript. Nil if synthesis never ran.
	Conversation *dialogue.Conversation `json:"conversation,omitempty"`
	// Episode is the narrated audio manifest. Nil if narration was skipped
	// or never ran.
	Episode *voice.Episode `json:"audio,omitempty"`
	// Status is "completed" or "failed".
	Status string `json:"status"`
	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"created_at"`
	// Steps is the stage-by-stage outcome log.
	Steps []Step `json:"processing_steps"`
}

// Config holds the orchestrator's collaborators. Narrator and Store are
// optional; when nil their stages are skipped.
type Config struct {
	// Pipeline ingests the document into the vector index.
	Pipeline *ingestion.Pipeline
	// ContextBuilder retrieves grounding context for the conversation.
	ContextBuilder *dialogue.ContextBuilder
	// Synthesizer generates the conversation transcript.
	Synthesizer *dialogue.Synthesizer
	// Narrator renders the transcript to audio. Optional.
	Narrator *voice.Narrator
	// Store persists completed runs. Optional.
	Store store.PodcastStore
	// AudioFormat is the narration output format. Defaults to "mp3".
	AudioFormat string
}

// Orchestrator runs the end-to-end podcast generation flow.
type Orchestrator struct {
	cfg Config
}

// NewOrchestrator validates the required collaborators and returns an
// Orchestrator.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("podcast: pipeline must not be nil")
	}
	if cfg.ContextBuilder == nil {
		return nil, fmt.Errorf("podcast: context builder must not be nil")
	}
	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("podcast: synthesizer must not be nil")
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = "mp3"
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Generate runs every stage for the document at locator. agentConfigs may be
// nil, in which case the default cast is used. On a stage failure the
// returned Podcast carries status "failed", the failed stage, and the stages
// never reached; completed stages keep their side effects.
func (o *Orchestrator) Generate(ctx context.Context, locator, query string, agentConfigs []dialogue.AgentConfig) (*Podcast, error) {
	log := logging.FromContext(ctx)
	pod := &Podcast{
		PodcastID: uuid.New(),
		Status:    "failed",
		CreatedAt: time.Now(),
	}

	// Stage 1: extract, chunk, embed, upsert.
	log.Info("podcast: ingesting document", slog.String("locator", locator))
	ingested, err := o.cfg.Pipeline.Ingest(ctx, locator, nil)
	if err != nil {
		pod.Steps = append(pod.Steps, failedStep(stepIngestion, err))
		pod.Steps = appendNotAttempted(pod.Steps, stepConversation, stepNarration, stepPersistence)
		return pod, fmt.Errorf("podcast: ingestion: %w", err)
	}
	pod.DocumentID = ingested.DocumentID
	pod.Source = ingested.Source
	pod.Steps = append(pod.Steps, Step{
		Step:   stepIngestion,
		Status: StepCompleted,
		Details: map[string]any{
			"total_chunks": ingested.ChunkCount,
			"total_pages":  ingested.PageCount,
		},
	})

	// Stage 2: retrieve context and synthesize the conversation.
	log.Info("podcast: generating conversation", slog.String("document_id", pod.DocumentID))
	if len(agentConfigs) == 0 {
		agentConfigs = dialogue.DefaultAgentConfigs()
	}
	agents := dialogue.BuildAgents(agentConfigs)
	convContext := o.cfg.ContextBuilder.BuildContext(ctx, pod.DocumentID, query)

	conv, err := o.cfg.Synthesizer.Synthesize(ctx, &dialogue.Request{
		DocumentID: pod.DocumentID,
		Query:      query,
		Context:    convContext,
		Agents:     agents,
	})
	if err != nil {
		pod.Steps = append(pod.Steps, failedStep(stepConversation, err))
		pod.Steps = appendNotAttempted(pod.Steps, stepNarration, stepPersistence)
		return pod, fmt.Errorf("podcast: conversation: %w", err)
	}
	pod.Conversation = conv
	pod.Title = conv.Title
	pod.Steps = append(pod.Steps, Step{
		Step:   stepConversation,
		Status: StepCompleted,
		Details: map[string]any{
			"messages_generated": len(conv.Messages),
			"agents":             agentNames(conv.Agents),
		},
	})

	// Stage 3: narrate the transcript.
	if o.cfg.Narrator == nil {
		pod.Steps = append(pod.Steps, Step{Step: stepNarration, Status: StepSkipped})
	} else {
		log.Info("podcast: narrating conversation", slog.String("conversation_id", conv.ID.String()))
		episode, err := o.cfg.Narrator.Narrate(ctx, conv, o.cfg.AudioFormat)
		if err != nil {
			pod.Steps = append(pod.Steps, failedStep(stepNarration, err))
			pod.Steps = appendNotAttempted(pod.Steps, stepPersistence)
			return pod, fmt.Errorf("podcast: narration: %w", err)
		}
		pod.Episode = episode
		pod.Steps = append(pod.Steps, Step{
			Step:   stepNarration,
			Status: StepCompleted,
			Details: map[string]any{
				"segments_generated": len(episode.Segments),
				"total_duration":     episode.TotalDuration.Seconds(),
			},
		})
	}

	// Stage 4: persist the run.
	if o.cfg.Store == nil {
		pod.Steps = append(pod.Steps, Step{Step: stepPersistence, Status: StepSkipped})
	} else {
		rec := &store.Record{
			ID:           pod.PodcastID.String(),
			DocumentID:   pod.DocumentID,
			Title:        pod.Title,
			Status:       string(conv.Status),
			Conversation: conv,
			Episode:      pod.Episode,
			CreatedAt:    pod.CreatedAt,
		}
		if err := o.cfg.Store.Save(ctx, rec); err != nil {
			pod.Steps = append(pod.Steps, failedStep(stepPersistence, err))
			return pod, fmt.Errorf("podcast: persistence: %w", err)
		}
		pod.Steps = append(pod.Steps, Step{
			Step:    stepPersistence,
			Status:  StepCompleted,
			Details: map[string]any{"podcast_id": pod.PodcastID.String()},
		})
	}

	pod.Status = "completed"
	log.Info("podcast: generation completed",
		slog.String("podcast_id", pod.PodcastID.String()),
		slog.String("document_id", pod.DocumentID),
		slog.Int("messages", len(conv.Messages)),
	)
	return pod, nil
}

// failedStep builds the step entry for the stage that aborted the run.
func failedStep(name string, err error) Step {
	return Step{
		Step:    name,
		Status:  StepFailed,
		Details: map[string]any{"error": err.Error()},
	}
}

// appendNotAttempted marks every remaining stage as never reached.
func appendNotAttempted(steps []Step, names ...string) []Step {
	for _, n := range names {
		steps = append(steps, Step{Step: n, Status: StepNotAttempted})
	}
	return steps
}

// agentNames lists the display names of the cast for the step log.
func agentNames(agents []dialogue.Agent) []string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, a.Name)
	}
	return names
}
