package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/glosshover/internal/model"
	"github.com/ppiankov/glosshover/internal/util"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider drafts definitions through any OpenAI-compatible API
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(model.HTTPConfig{
		HTTPProxy:  config.HTTPProxy,
		HTTPSProxy: config.HTTPSProxy,
	})
	clientConfig.HTTPClient = &http.Client{Transport: transport}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Define drafts a definition using the Chat Completions API
func (p *OpenAIProvider) Define(ctx context.Context, req DefineRequest) (*DefineResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.config.Model
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	maxChars := req.MaxChars
	if maxChars == 0 {
		maxChars = p.config.MaxChars
	}
	req.MaxChars = maxChars

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		MaxTokens:   maxTokensFor(maxChars),
		Temperature: 0.2,
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	definition := CleanDraft(req.Term, resp.Choices[0].Message.Content, maxChars)
	if definition == "" {
		return nil, fmt.Errorf("empty definition from OpenAI for %q", req.Term)
	}

	return &DefineResponse{
		Definition: definition,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// maxTokensFor leaves headroom over the character cap (about 4 chars per token)
func maxTokensFor(maxChars int) int {
	if maxChars <= 0 {
		return 200
	}
	return maxChars/3 + 16
}
