// Package llm drafts glossary definitions with a language model.
// Drafts are suggestions for an editor; nothing here runs during annotation.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/glosshover/internal/annotate"
	"github.com/ppiankov/glosshover/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Define drafts a definition for a single term
	Define(ctx context.Context, req DefineRequest) (*DefineResponse, error)
}

// DefineRequest is the input for one definition draft
type DefineRequest struct {
	// Term is the word or phrase to define
	Term string

	// Context is optional text describing the glossary's subject area
	Context string

	// MaxChars caps the plain-text definition length
	MaxChars int

	// Model overrides the configured model
	Model string
}

// DefineResponse contains the drafted definition
type DefineResponse struct {
	// Definition is plain text, already cleaned and capped
	Definition string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxChars caps drafted definitions
	MaxChars int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns the disabled configuration
func DefaultConfig() Config {
	return Config{
		Provider: "",
		Timeout:  30,
		MaxChars: 280,
	}
}

// ConfigFromModel converts the application configuration
func ConfigFromModel(cfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxChars:   cfg.MaxChars,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
	}
}

const systemPrompt = "You write short, neutral glossary definitions for website tooltips. Reply with the definition only: plain text, no markup, no quotes, no leading term."

// BuildPrompt constructs the user prompt for a definition draft
func BuildPrompt(req DefineRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Define the term %q in one or two sentences.", req.Term)
	if req.MaxChars > 0 {
		fmt.Fprintf(&b, " Stay under %d characters.", req.MaxChars)
	}
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		fmt.Fprintf(&b, "\nThe glossary covers: %s", ctx)
	}
	return b.String()
}

// CleanDraft turns raw model output into a tooltip-ready definition
func CleanDraft(term, raw string, maxChars int) string {
	text := strings.TrimSpace(raw)
	text = strings.Trim(text, "\"'`")

	// Models sometimes echo "Term: definition"
	if rest, ok := cutPrefixFold(text, term+":"); ok {
		text = rest
	}
	if rest, ok := cutPrefixFold(text, term+" -"); ok {
		text = rest
	}

	return annotate.CleanDefinition(text, maxChars)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):]), true
	}
	return s, false
}
