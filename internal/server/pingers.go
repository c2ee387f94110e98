package server

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
)

// ModelPinger probes the dialogue generation backend by requesting a minimal
// single-word completion. It satisfies the Pinger interface and is used by
// GET /api/ready. Each probe consumes a handful of tokens, so readiness
// checks should not be polled aggressively.
type ModelPinger struct {
	// gen is the generator to probe.
	gen dialogue.Generator
	// name identifies the backend in readiness responses (e.g. "ollama").
	name string
}

// NewModelPinger constructs a ModelPinger for the given generator and
// backend name.
func NewModelPinger(gen dialogue.Generator, name string) *ModelPinger {
	return &ModelPinger{gen: gen, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *ModelPinger) Name() string { return p.name }

// Ping sends a one-word prompt to the generation backend.
// Returns nil if the backend produced any response, an error otherwise.
func (p *ModelPinger) Ping(ctx context.Context) error {
	resp, err := p.gen.Generate(ctx, "ping")
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}
	if resp == "" {
		return fmt.Errorf("generate returned an empty response")
	}
	return nil
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
