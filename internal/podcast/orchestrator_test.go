package podcast

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
	"github.com/pdfcast/pdfcast-go/internal/ingestion"
	"github.com/pdfcast/pdfcast-go/internal/store"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
	"github.com/pdfcast/pdfcast-go/internal/voice"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.5, 0.5}
	}
	return out, nil
}

type fakeIndex struct {
	results []vectorindex.SearchResult
}

func (f *fakeIndex) Create(context.Context, vectorindex.CollectionConfig) error { return nil }
func (f *fakeIndex) Exists(context.Context, string) bool                        { return true }
func (f *fakeIndex) Upsert(context.Context, string, []vectorindex.Chunk) error  { return nil }
func (f *fakeIndex) Search(context.Context, string, []float32, int, vectorindex.Filter) ([]vectorindex.SearchResult, error) {
	return f.results, nil
}
func (f *fakeIndex) Info(context.Context, string) (*vectorindex.CollectionInfo, error) {
	return nil, vectorindex.ErrNotFound
}
func (f *fakeIndex) Delete(context.Context, string) error { return nil }
func (f *fakeIndex) Close() error                         { return nil }

type fakeGenerator struct {
	err error
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "an insightful remark", nil
}

type fakeTTS struct {
	err error
}

func (f *fakeTTS) Synthesize(_ context.Context, text, _, format string) (*voice.Audio, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &voice.Audio{FileID: "seg", Locator: "/audio/seg.mp3", Duration: time.Second, Format: format}, nil
}

type fakeStore struct {
	saved   []*store.Record
	saveErr error
}

func (f *fakeStore) Save(_ context.Context, rec *store.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, rec)
	return nil
}
func (f *fakeStore) Get(context.Context, string) (*store.Record, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) List(context.Context, int) ([]*store.Record, error) { return nil, nil }
func (f *fakeStore) Close() error                                       { return nil }

// newTestOrchestrator wires an orchestrator from fakes at the leaves.
// extractErr / genErr / ttsErr / saveErr inject failures per stage.
func newTestOrchestrator(t *testing.T, extractErr, genErr, ttsErr, saveErr error) (*Orchestrator, *fakeStore) {
	t.Helper()

	pipeline, err := ingestion.NewPipeline(
		&fakeExtractor{text: "some words to ingest and discuss", err: extractErr},
		fakeEmbedder{},
		&fakeIndex{},
		&ingestion.Config{Collection: "podcast_chunks"},
	)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	cb, err := dialogue.NewContextBuilder(fakeEmbedder{}, &fakeIndex{}, "podcast_chunks", 0)
	if err != nil {
		t.Fatalf("NewContextBuilder: %v", err)
	}

	synth, err := dialogue.NewSynthesizer(&fakeGenerator{err: genErr}, dialogue.Config{Rounds: 2})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	narrator, err := voice.NewNarrator(&fakeTTS{err: ttsErr})
	if err != nil {
		t.Fatalf("NewNarrator: %v", err)
	}

	st := &fakeStore{saveErr: saveErr}
	o, err := NewOrchestrator(Config{
		Pipeline:       pipeline,
		ContextBuilder: cb,
		Synthesizer:    synth,
		Narrator:       narrator,
		Store:          st,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o, st
}

func stepStatuses(pod *Podcast) map[string]StepStatus {
	out := make(map[string]StepStatus, len(pod.Steps))
	for _, s := range pod.Steps {
		out[s.Step] = s.Status
	}
	return out
}

func Test_Generate_AllStagesComplete(t *testing.T) {
	t.Parallel()

	o, st := newTestOrchestrator(t, nil, nil, nil, nil)
	pod, err := o.Generate(context.Background(), "/data/doc.txt", "testing", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if pod.Status != "completed" {
		t.Errorf("status = %q", pod.Status)
	}
	if pod.Conversation == nil || len(pod.Conversation.Messages) != 5 {
		t.Fatalf("conversation = %+v", pod.Conversation)
	}
	if pod.Episode == nil || len(pod.Episode.Segments) != 5 {
		t.Fatalf("episode = %+v", pod.Episode)
	}
	if pod.Title != "Podcast about testing" {
		t.Errorf("title = %q", pod.Title)
	}

	statuses := stepStatuses(pod)
	for _, name := range []string{stepIngestion, stepConversation, stepNarration, stepPersistence} {
		if statuses[name] != StepCompleted {
			t.Errorf("step %q = %q, want completed", name, statuses[name])
		}
	}

	if len(st.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(st.saved))
	}
	if st.saved[0].ID != pod.PodcastID.String() {
		t.Errorf("saved record id = %q", st.saved[0].ID)
	}
}

func Test_Generate_IngestionFailureStopsRun(t *testing.T) {
	t.Parallel()

	extractErr := errors.New("no such file")
	o, st := newTestOrchestrator(t, extractErr, nil, nil, nil)

	pod, err := o.Generate(context.Background(), "/data/missing.txt", "", nil)
	if !errors.Is(err, extractErr) {
		t.Fatalf("err = %v, want extraction error", err)
	}
	if pod.Status != "failed" {
		t.Errorf("status = %q", pod.Status)
	}

	statuses := stepStatuses(pod)
	if statuses[stepIngestion] != StepFailed {
		t.Errorf("ingestion step = %q", statuses[stepIngestion])
	}
	for _, name := range []string{stepConversation, stepNarration, stepPersistence} {
		if statuses[name] != StepNotAttempted {
			t.Errorf("step %q = %q, want not_attempted", name, statuses[name])
		}
	}
	if len(st.saved) != 0 {
		t.Error("nothing should be persisted on an aborted run")
	}
}

func Test_Generate_NarrationFailureKeepsConversation(t *testing.T) {
	t.Parallel()

	ttsErr := errors.New("tts unavailable")
	o, _ := newTestOrchestrator(t, nil, nil, ttsErr, nil)

	pod, err := o.Generate(context.Background(), "/data/doc.txt", "topic", nil)
	if !errors.Is(err, ttsErr) {
		t.Fatalf("err = %v, want narration error", err)
	}

	// The conversation stage completed; its result stays on the podcast.
	if pod.Conversation == nil {
		t.Fatal("conversation lost on narration failure")
	}
	statuses := stepStatuses(pod)
	if statuses[stepConversation] != StepCompleted {
		t.Errorf("conversation step = %q", statuses[stepConversation])
	}
	if statuses[stepNarration] != StepFailed {
		t.Errorf("narration step = %q", statuses[stepNarration])
	}
	if statuses[stepPersistence] != StepNotAttempted {
		t.Errorf("persistence step = %q", statuses[stepPersistence])
	}
}

func Test_Generate_GeneratorErrorsBecomeApologies(t *testing.T) {
	t.Parallel()

	// A failing generator degrades each turn, never the whole run.
	o, _ := newTestOrchestrator(t, nil, errors.New("model down"), nil, nil)

	pod, err := o.Generate(context.Background(), "/data/doc.txt", "topic", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pod.Status != "completed" {
		t.Errorf("status = %q", pod.Status)
	}
	for i, msg := range pod.Conversation.Messages[1:] {
		want := "Sorry, I encountered an error generating a response. model down"
		if msg.Content != want {
			t.Errorf("message %d = %q", i+1, msg.Content)
		}
	}
}

func Test_Generate_OptionalStagesSkipped(t *testing.T) {
	t.Parallel()

	pipeline, err := ingestion.NewPipeline(
		&fakeExtractor{text: "some words"},
		fakeEmbedder{},
		&fakeIndex{},
		&ingestion.Config{Collection: "c"},
	)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	cb, err := dialogue.NewContextBuilder(fakeEmbedder{}, &fakeIndex{}, "c", 0)
	if err != nil {
		t.Fatalf("NewContextBuilder: %v", err)
	}
	synth, err := dialogue.NewSynthesizer(&fakeGenerator{}, dialogue.Config{Rounds: 1})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	o, err := NewOrchestrator(Config{Pipeline: pipeline, ContextBuilder: cb, Synthesizer: synth})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	pod, err := o.Generate(context.Background(), "doc.txt", "", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pod.Status != "completed" {
		t.Errorf("status = %q", pod.Status)
	}

	statuses := stepStatuses(pod)
	if statuses[stepNarration] != StepSkipped {
		t.Errorf("narration step = %q, want skipped", statuses[stepNarration])
	}
	if statuses[stepPersistence] != StepSkipped {
		t.Errorf("persistence step = %q, want skipped", statuses[stepPersistence])
	}
	if pod.Episode != nil {
		t.Error("episode should be nil when narration is skipped")
	}
}

func Test_Generate_CustomAgents(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, nil, nil, nil, nil)
	configs := []dialogue.AgentConfig{
		{Name: "Professor Ada", Role: dialogue.RoleExplainer, VoiceID: "v1"},
		{Name: "Student Sam", Role: dialogue.RoleCurious, VoiceID: "v2"},
	}

	pod, err := o.Generate(context.Background(), "doc.txt", "math", configs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var names []string
	for _, a := range pod.Conversation.Agents {
		names = append(names, a.Name)
	}
	if fmt.Sprint(names) != "[Professor Ada Student Sam]" {
		t.Errorf("agents = %v", names)
	}
}
