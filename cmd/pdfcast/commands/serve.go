package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/pdfcast/pdfcast-go/internal/logging"
	"github.com/pdfcast/pdfcast-go/internal/server"
	"github.com/pdfcast/pdfcast-go/internal/tracing"
)

// NewServeCmd constructs the `pdfcast serve` command, which starts the HTTP
// server exposing the podcast generation API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pdfcast HTTP server",
		Long: `Start the pdfcast HTTP server on localhost.

The server exposes podcast generation, stored podcast retrieval, vector
collection administration, and narrated audio downloads over a REST API.

Examples:
  pdfcast serve
  pdfcast serve --port 9090
  MODEL_PROVIDER=gemini pdfcast serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			gen, err := buildGenerator(ctx)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "ollama")))

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			idx, err := buildIndex()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = idx.Close() }()

			if _, err := idx.InitializeDefault(ctx, emb); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			narrator, tts, err := buildNarrator(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			podcasts, closeStore := openPodcastStore(log)
			defer closeStore()

			orc, err := buildOrchestrator(gen, emb, idx, narrator, podcasts)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{
				server.NewQdrantPinger(idx.Client()),
				server.NewModelPinger(gen, getEnvOrDefault("MODEL_PROVIDER", "ollama")),
			}

			cfg := &server.Config{
				Host:     host,
				Port:     port,
				AudioDir: getEnvOrDefault("AUDIO_DIR", "./audio"),
				Logger:   log,
				Pingers:  pingers,
				APIKey:   os.Getenv("PDFCAST_API_KEY"),
			}
			// A typed-nil TTS client must not become a non-nil VoiceLister.
			if tts != nil {
				cfg.Voices = tts
			}

			srv, err := server.New(orc, podcasts, idx, cfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
