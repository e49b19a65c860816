package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func newOpenAITestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, `"API"`) {
			t.Errorf("Expected prompt to name the term, got %+v", req.Messages)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 42},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Define_Success(t *testing.T) {
	server := newOpenAITestServer(t, "API: An interface that lets programs talk to each other.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Define(context.Background(), DefineRequest{Term: "API"})
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	if resp.Definition != "An interface that lets programs talk to each other." {
		t.Errorf("Unexpected definition: %s", resp.Definition)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Define_CapsLength(t *testing.T) {
	server := newOpenAITestServer(t, "<b>A very long definition that keeps going</b>")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5, MaxChars: 10})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Define(context.Background(), DefineRequest{Term: "API"})
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if resp.Definition != "A very lon…" {
		t.Errorf("Expected markup stripped and capped, got %q", resp.Definition)
	}
}

func TestOpenAIProvider_Define_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Define(context.Background(), DefineRequest{Term: "API"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Define_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Define(context.Background(), DefineRequest{Term: "API"}); err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestOpenAIProvider_Define_EmptyDraft(t *testing.T) {
	server := newOpenAITestServer(t, "   ")
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if _, err := provider.Define(context.Background(), DefineRequest{Term: "API"}); err == nil {
		t.Fatal("Expected error for empty draft, got nil")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if p != nil || err != nil {
		t.Errorf("Expected disabled provider, got %v (err=%v)", p, err)
	}

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	if err != nil || p == nil || p.Name() != "openai" {
		t.Errorf("Expected openai provider, got %v (err=%v)", p, err)
	}

	p, err = NewProvider(Config{Provider: "openai"})
	if err == nil || p != nil {
		t.Errorf("Expected error and nil provider without key, got %v", p)
	}

	if _, err := NewProvider(Config{Provider: "bogus"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestCleanDraft(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"A thing."`, "A thing."},
		{"api: A thing.", "A thing."},
		{"API - A thing.", "A thing."},
		{"A thing\n\nwith lines.", "A thing with lines."},
	}
	for _, tt := range tests {
		if got := CleanDraft("API", tt.raw, 0); got != tt.want {
			t.Errorf("CleanDraft(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(DefineRequest{Term: "latency", MaxChars: 100, Context: "networking"})

	for _, want := range []string{`"latency"`, "100 characters", "networking"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q, got %s", want, prompt)
		}
	}
}
