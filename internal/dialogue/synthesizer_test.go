package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeGenerator cycles through scripted responses, recording every prompt.
type fakeGenerator struct {
	responses []string
	err       error
	errOn     int // 1-based call index that fails; 0 means never
	calls     int
	prompts   []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.errOn != 0 && f.calls == f.errOn {
		return "", f.err
	}
	if len(f.responses) > 0 {
		resp := f.responses[(f.calls-1)%len(f.responses)]
		return resp, nil
	}
	return fmt.Sprintf("response %d", f.calls), nil
}

func testAgents(t *testing.T) []Agent {
	t.Helper()
	return BuildAgents(DefaultAgentConfigs())
}

func Test_Synthesize_TranscriptShape(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	s, err := NewSynthesizer(gen, Config{})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	agents := testAgents(t)
	conv, err := s.Synthesize(context.Background(), &Request{
		DocumentID: "doc-1",
		Query:      "quantum computing",
		Context:    "Qubits hold superpositions.",
		Agents:     agents,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if got, want := len(conv.Messages), 11; got != want {
		t.Fatalf("message count = %d, want %d", got, want)
	}
	if got, want := gen.calls, 10; got != want {
		t.Fatalf("generator calls = %d, want %d", got, want)
	}
	if conv.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", conv.Status, StatusCompleted)
	}
	if conv.Title != "Podcast about quantum computing" {
		t.Errorf("title = %q", conv.Title)
	}
	if conv.DocumentID != "doc-1" {
		t.Errorf("document id = %q", conv.DocumentID)
	}
	if conv.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("conversation id not assigned")
	}
}

func Test_Synthesize_TurnOrderAlternates(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	s, err := NewSynthesizer(gen, Config{Rounds: 3})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	agents := testAgents(t)
	explainer := findByRole(agents, RoleExplainer)
	curious := findByRole(agents, RoleCurious)

	conv, err := s.Synthesize(context.Background(), &Request{
		DocumentID: "doc-1",
		Query:      "topic",
		Agents:     agents,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got, want := len(conv.Messages), 7; got != want {
		t.Fatalf("message count = %d, want %d", got, want)
	}

	if conv.Messages[0].AgentID != curious.ID {
		t.Errorf("message 0 from %s, want curious", conv.Messages[0].AgentID)
	}
	for i := 1; i < len(conv.Messages); i++ {
		want := explainer.ID
		if i%2 == 0 {
			want = curious.ID
		}
		if conv.Messages[i].AgentID != want {
			t.Errorf("message %d from %s, want %s", i, conv.Messages[i].AgentID, want)
		}
	}
}

func Test_Synthesize_OpeningQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"with query", "black holes", "What can you tell me about black holes?"},
		{"without query", "", "What can you tell me about this document?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := NewSynthesizer(&fakeGenerator{}, Config{Rounds: 1})
			if err != nil {
				t.Fatalf("NewSynthesizer: %v", err)
			}
			conv, err := s.Synthesize(context.Background(), &Request{
				DocumentID: "doc-1",
				Query:      tt.query,
				Agents:     testAgents(t),
			})
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if got := conv.Messages[0].Content; got != tt.want {
				t.Errorf("opening = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_Synthesize_MissingRequiredAgent(t *testing.T) {
	t.Parallel()

	s, err := NewSynthesizer(&fakeGenerator{}, Config{})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	agents := testAgents(t)
	var withoutCurious []Agent
	for _, a := range agents {
		if a.Role != RoleCurious {
			withoutCurious = append(withoutCurious, a)
		}
	}

	conv, err := s.Synthesize(context.Background(), &Request{
		DocumentID: "doc-1",
		Agents:     withoutCurious,
	})
	if !errors.Is(err, ErrMissingRequiredAgent) {
		t.Fatalf("err = %v, want ErrMissingRequiredAgent", err)
	}
	if conv != nil {
		t.Error("expected no conversation on precondition failure")
	}
}

func Test_Synthesize_TurnFailureSubstitutesApology(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("model overloaded"), errOn: 3}
	s, err := NewSynthesizer(gen, Config{Rounds: 2})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	conv, err := s.Synthesize(context.Background(), &Request{
		DocumentID: "doc-1",
		Query:      "topic",
		Agents:     testAgents(t),
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got, want := len(conv.Messages), 5; got != want {
		t.Fatalf("message count = %d, want %d", got, want)
	}

	// Third generated turn (transcript index 3) fails.
	want := "Sorry, I encountered an error generating a response. model overloaded"
	if got := conv.Messages[3].Content; got != want {
		t.Errorf("apology = %q, want %q", got, want)
	}
	// Later turns recover.
	if got := conv.Messages[4].Content; strings.HasPrefix(got, "Sorry,") {
		t.Errorf("turn after failure did not recover: %q", got)
	}
	if conv.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", conv.Status, StatusCompleted)
	}
}

func Test_Synthesize_PromptCarriesPersonaAndHistory(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{responses: []string{"the answer"}}
	s, err := NewSynthesizer(gen, Config{Rounds: 1})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	agents := testAgents(t)
	_, err = s.Synthesize(context.Background(), &Request{
		DocumentID: "doc-1",
		Query:      "gravity",
		Context:    "Mass curves spacetime.",
		Agents:     agents,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("prompt count = %d, want 2", len(gen.prompts))
	}

	first := gen.prompts[0]
	if !strings.Contains(first, "You are Dr. Knowledge, a explainer") {
		t.Errorf("first prompt missing explainer persona:\n%s", first)
	}
	if !strings.Contains(first, "Mass curves spacetime.") {
		t.Errorf("first prompt missing context:\n%s", first)
	}
	if !strings.Contains(first, "What can you tell me about gravity?") {
		t.Errorf("first prompt missing opening question:\n%s", first)
	}

	second := gen.prompts[1]
	if !strings.Contains(second, "You are Curious Carl, a curious") {
		t.Errorf("second prompt missing curious persona:\n%s", second)
	}
	if !strings.Contains(second, "the answer") {
		t.Errorf("second prompt missing prior turn:\n%s", second)
	}
}

func Test_Synthesize_HistoryWindowBounded(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	s, err := NewSynthesizer(gen, Config{Rounds: 5, HistoryWindow: 2})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	_, err = s.Synthesize(context.Background(), &Request{
		DocumentID: "doc-1",
		Query:      "topic",
		Agents:     testAgents(t),
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	// The last prompt must not contain the opening question, which fell
	// outside the two-message window long before.
	last := gen.prompts[len(gen.prompts)-1]
	if strings.Contains(last, "What can you tell me about topic?") {
		t.Errorf("history window not applied:\n%s", last)
	}
	if !strings.Contains(last, "response 9") {
		t.Errorf("last prompt missing most recent turn:\n%s", last)
	}
}

func Test_NewSynthesizer_NilGenerator(t *testing.T) {
	t.Parallel()

	if _, err := NewSynthesizer(nil, Config{}); err == nil {
		t.Fatal("expected error for nil generator")
	}
}
