package embedder

import (
	"log/slog"
	"testing"
)

func Test_LooksLikeChatModel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model string
		want  bool
	}{
		{"nomic-embed-text", false},
		{"text-embedding-3-small", false},
		{"mxbai-embed-large", false},
		{"gpt-4o", true},
		{"GPT-4o-mini", true},
		{"llama3.1", true},
		{"gemini-pro", true},
		{"mistral-7b", true},
	}
	for _, tc := range cases {
		if got := looksLikeChatModel(tc.model); got != tc.want {
			t.Errorf("looksLikeChatModel(%q): want %v, got %v", tc.model, tc.want, got)
		}
	}
}

func Test_Validate_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if err := Validate(slog.Default()); err == nil {
		t.Error("want error for openai backend with no API key")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if err := Validate(slog.Default()); err != nil {
		t.Errorf("unexpected error with API key set: %v", err)
	}
}

func Test_Validate_OllamaNeedsNothing(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_MODEL", "")

	if err := Validate(slog.Default()); err != nil {
		t.Errorf("unexpected error for ollama backend: %v", err)
	}
}

func Test_DefaultDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "")

	if got := DefaultDimensions("ollama"); got != 768 {
		t.Errorf("ollama dimensions: want 768, got %d", got)
	}
	if got := DefaultDimensions("openai"); got != 1536 {
		t.Errorf("openai dimensions: want 1536, got %d", got)
	}

	t.Setenv("EMBEDDING_DIMENSIONS", "384")
	if got := DefaultDimensions("ollama"); got != 384 {
		t.Errorf("env override: want 384, got %d", got)
	}
}
