package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"filmdecks-backend/internal/llm"
	"filmdecks-backend/internal/shared/telemetry"
)

const maxTokens = 2048

type kindDefaults struct {
	baseURL  string
	model    string
	jsonMode bool
}

// Every supported vendor exposes an OpenAI-compatible chat completions endpoint.
var defaultsByKind = map[string]kindDefaults{
	llm.KindGroq:        {baseURL: "https://api.groq.com/openai/v1", model: "llama-3.3-70b-versatile", jsonMode: true},
	llm.KindHuggingFace: {baseURL: "https://router.huggingface.co/v1", model: "Qwen/Qwen2.5-72B-Instruct"},
	llm.KindOpenAI:      {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini", jsonMode: true},
	llm.KindAnthropic:   {baseURL: "https://api.anthropic.com/v1/", model: "claude-3-5-haiku-20241022"},
	llm.KindMistral:     {baseURL: "https://api.mistral.ai/v1", model: "mistral-large-latest", jsonMode: true},
}

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Client implements llm.Provider over one OpenAI-compatible endpoint.
type Client struct {
	api      chatAPI
	name     string
	model    string
	jsonMode bool
}

// NewClient constructs a provider for spec using apiKey.
func NewClient(spec llm.ProviderSpec, apiKey string, timeout time.Duration) (*Client, error) {
	defaults, ok := defaultsByKind[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported provider kind %q", spec.Kind)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%s is required", spec.APIKeyEnv)
	}

	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = defaults.baseURL
	if spec.BaseURL != "" {
		cfg.BaseURL = spec.BaseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	model := defaults.model
	if spec.Model != "" {
		model = spec.Model
	}
	name := spec.Name
	if name == "" {
		name = spec.Kind
	}
	return &Client{
		api:      goopenai.NewClientWithConfig(cfg),
		name:     name,
		model:    model,
		jsonMode: defaults.jsonMode,
	}, nil
}

// FromSpecs builds a provider for every enabled spec with a usable key, keeping rank order.
func FromSpecs(specs []llm.ProviderSpec, getenv func(string) string, timeout time.Duration) []llm.Provider {
	providers := make([]llm.Provider, 0, len(specs))
	for _, spec := range specs {
		if spec.Disabled {
			continue
		}
		key, ok := spec.APIKey(getenv)
		if !ok {
			continue
		}
		client, err := NewClient(spec, key, timeout)
		if err != nil {
			telemetry.Warn("ai.provider_skipped", map[string]any{"provider": spec.Name, "error": err})
			continue
		}
		providers = append(providers, client)
	}
	return providers
}

// Name returns the configured provider name.
func (c *Client) Name() string { return c.name }

// AnalyzeStory sends the story prompt and parses the JSON verdict.
func (c *Client) AnalyzeStory(ctx context.Context, input llm.StoryInput) (llm.StoryResult, error) {
	system, user := llm.BuildPrompt(input)
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
	}
	if c.jsonMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		req.Temperature = 0.7
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.StoryResult{}, classify(c.name, err)
	}
	if len(resp.Choices) == 0 {
		return llm.StoryResult{}, fmt.Errorf("%s: response missing choices", c.name)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return llm.StoryResult{}, fmt.Errorf("%s: empty response", c.name)
	}

	telemetry.Info("ai.usage", map[string]any{
		"request_id":        llm.RequestIDFromContext(ctx),
		"provider":          c.name,
		"model":             c.model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	})

	res, err := llm.ParseResult(content)
	if err != nil {
		return llm.StoryResult{}, fmt.Errorf("%s: %w", c.name, err)
	}
	return res, nil
}

// classify marks rate limits, server errors and timeouts as transient.
func classify(name string, err error) error {
	wrapped := fmt.Errorf("%s: %w", name, err)

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && transientStatus(apiErr.HTTPStatusCode) {
		return llm.MarkTransient(wrapped)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && transientStatus(reqErr.HTTPStatusCode) {
		return llm.MarkTransient(wrapped)
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return llm.MarkTransient(wrapped)
	}
	return wrapped
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5")
}

var _ llm.Provider = (*Client)(nil)
