package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
	"github.com/pdfcast/pdfcast-go/internal/logging"
	"github.com/pdfcast/pdfcast-go/internal/podcast"
	"github.com/pdfcast/pdfcast-go/internal/tracing"
)

// NewGenerateCmd constructs the `pdfcast generate` command, which runs the
// full generation flow for one document: ingest, synthesize the
// conversation, narrate it, and persist the result.
func NewGenerateCmd() *cobra.Command {
	var query string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate [document]",
		Short: "Generate a podcast conversation from a document",
		Long: `Generate a two-host podcast conversation grounded in the given document.

The document is ingested into the vector index, a conversation is
synthesized with retrieval-augmented prompts, and — when ELEVENLABS_API_KEY
is set — the transcript is narrated to audio files under AUDIO_DIR.

Examples:
  pdfcast generate ./papers/attention.txt
  pdfcast generate --query "transformer architectures" ./papers/attention.txt
  pdfcast generate --json ./notes.md > podcast.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			}

			gen, err := buildGenerator(ctx)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			idx, err := buildIndex()
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}
			defer func() { _ = idx.Close() }()

			if _, err := idx.InitializeDefault(ctx, emb); err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			narrator, _, err := buildNarrator(log)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			podcasts, closeStore := openPodcastStore(log)
			defer closeStore()

			orc, err := buildOrchestrator(gen, emb, idx, narrator, podcasts)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			pod, err := orc.Generate(ctx, args[0], query, nil)
			if err != nil {
				if pod != nil {
					printSteps(pod.Steps)
				}
				return fmt.Errorf("generate: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(pod)
			}

			fmt.Printf("%s (podcast_id: %s)\n\n", pod.Title, pod.PodcastID)
			printTranscript(pod.Conversation)
			if pod.Episode != nil {
				fmt.Printf("\nnarrated %d segments, total %s\n",
					len(pod.Episode.Segments), pod.Episode.TotalDuration.Round(time.Second))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Topic to steer the conversation toward")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full podcast as JSON instead of a transcript")

	return cmd
}

// printTranscript writes the conversation to stdout as "Name: text" lines.
func printTranscript(conv *dialogue.Conversation) {
	if conv == nil {
		return
	}
	names := make(map[string]string, len(conv.Agents))
	for _, a := range conv.Agents {
		names[a.ID.String()] = a.Name
	}
	for _, msg := range conv.Messages {
		name := names[msg.AgentID.String()]
		if name == "" {
			name = "Unknown"
		}
		fmt.Printf("%s: %s\n\n", name, msg.Content)
	}
}

// printSteps writes the step log of a failed run to stderr so the operator
// can see which stage aborted.
func printSteps(steps []podcast.Step) {
	for _, s := range steps {
		fmt.Fprintf(os.Stderr, "  %-24s %s\n", s.Step, s.Status)
	}
}
