package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
	"github.com/pdfcast/pdfcast-go/internal/embedder"
	"github.com/pdfcast/pdfcast-go/internal/extract"
	"github.com/pdfcast/pdfcast-go/internal/generation"
	"github.com/pdfcast/pdfcast-go/internal/ingestion"
	"github.com/pdfcast/pdfcast-go/internal/podcast"
	"github.com/pdfcast/pdfcast-go/internal/provider"
	"github.com/pdfcast/pdfcast-go/internal/store"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
	"github.com/pdfcast/pdfcast-go/internal/voice"
)

// getEnvOrDefault returns the environment variable's value or fallback when
// unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the environment variable parsed as an int, or fallback
// when unset or unparseable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// buildIndex connects to Qdrant using the QDRANT_* environment variables.
// The caller owns the returned index and must Close it.
func buildIndex() (*vectorindex.QdrantIndex, error) {
	idx, err := vectorindex.NewQdrantIndex(&vectorindex.QdrantConfig{
		Host:              getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:              getEnvInt("QDRANT_PORT", 6334),
		DefaultCollection: getEnvOrDefault("QDRANT_COLLECTION", "podcast_chunks"),
		APIKey:            os.Getenv("QDRANT_API_KEY"),
		UseTLS:            os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	return idx, nil
}

// buildEmbedder validates the embedding configuration and constructs the
// embedder from environment variables.
func buildEmbedder(log *slog.Logger) (vectorindex.Embedder, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	return emb, nil
}

// buildGenerator constructs the dialogue turn generator over the configured
// chat model provider.
func buildGenerator(ctx context.Context) (dialogue.Generator, error) {
	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	gen, err := generation.NewChatGenerator(chatModel)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// dialogueConfig reads the synthesizer tuning knobs from the environment.
// Zero values defer to the synthesizer's own defaults.
func dialogueConfig() dialogue.Config {
	return dialogue.Config{
		Rounds:           getEnvInt("PODCAST_ROUNDS", 0),
		HistoryWindow:    getEnvInt("PODCAST_HISTORY_WINDOW", 0),
		MaxContextTokens: getEnvInt("PODCAST_MAX_CONTEXT_TOKENS", 0),
	}
}

// buildNarrator constructs the ElevenLabs narrator when an API key is
// configured. Narration is optional: without ELEVENLABS_API_KEY the
// returned narrator and TTS client are nil and the narration stage is
// skipped. The TTS client is returned alongside the narrator so the server
// can expose voice listing.
func buildNarrator(log *slog.Logger) (*voice.Narrator, *voice.ElevenLabsTTS, error) {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		log.Info("narration disabled", slog.String("reason", "ELEVENLABS_API_KEY not set"))
		return nil, nil, nil
	}

	tts, err := voice.NewElevenLabsTTS(&voice.ElevenLabsConfig{
		APIKey:   apiKey,
		AudioDir: getEnvOrDefault("AUDIO_DIR", "./audio"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise text-to-speech: %w", err)
	}
	narrator, err := voice.NewNarrator(tts)
	if err != nil {
		return nil, nil, err
	}
	return narrator, tts, nil
}

// openPodcastStore opens the SQLite podcast store. PDFCAST_DB overrides the
// default path (~/.pdfcast/podcasts.db); set it to "disabled" to turn off
// persistence. A store failure downgrades to disabled rather than aborting.
// The returned closer is a no-op when the store is disabled.
func openPodcastStore(log *slog.Logger) (store.PodcastStore, func()) {
	dbPath := os.Getenv("PDFCAST_DB")
	if dbPath == "disabled" {
		log.Info("persistence disabled via PDFCAST_DB=disabled")
		return nil, func() {}
	}

	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("persistence: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Warn("persistence: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}

	log.Info("persistence: store opened", slog.String("path", dbPath))
	return st, func() { _ = st.Close() }
}

// buildOrchestrator assembles the full generation flow: ingestion pipeline,
// retrieval context builder, dialogue synthesizer, and the optional narrator
// and store stages.
func buildOrchestrator(gen dialogue.Generator, emb vectorindex.Embedder, idx *vectorindex.QdrantIndex,
	narrator *voice.Narrator, podcasts store.PodcastStore) (*podcast.Orchestrator, error) {

	pipeline, err := ingestion.NewPipeline(extract.NewTextExtractor(nil), emb, idx, &ingestion.Config{
		Collection: idx.DefaultCollection(),
	})
	if err != nil {
		return nil, err
	}

	contextBuilder, err := dialogue.NewContextBuilder(emb, idx, idx.DefaultCollection(), 0)
	if err != nil {
		return nil, err
	}

	synthesizer, err := dialogue.NewSynthesizer(gen, dialogueConfig())
	if err != nil {
		return nil, err
	}

	return podcast.NewOrchestrator(podcast.Config{
		Pipeline:       pipeline,
		ContextBuilder: contextBuilder,
		Synthesizer:    synthesizer,
		Narrator:       narrator,
		Store:          podcasts,
	})
}
