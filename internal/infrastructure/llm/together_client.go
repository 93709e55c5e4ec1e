package llm

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"tabib_ai/internal/usecase/interfaces"

	openai "github.com/sashabaranov/go-openai"
)

var ErrMissingLLMAPIKey = errors.New("missing LLM_API_KEY")
var ErrEmptyCompletion = errors.New("language model returned no choices")

const (
	defaultBaseURL = "https://api.together.xyz/v1"
	defaultModel   = "mistralai/Mixtral-8x7B-Instruct-v0.1"

	mockReply = `{"jahe": "3 gram", "kunyit": "2 gram", "temulawak": "2 gram"}`
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// TogetherClient talks to an OpenAI-compatible chat completion API (Together by default).
type TogetherClient struct {
	client   chatCompleter
	model    string
	mockMode bool
}

var _ interfaces.IRecipeProvider = (*TogetherClient)(nil)

// NewTogetherClient reads LLM_API_KEY, LLM_BASE_URL and LLM_MODEL; LLM_MOCK returns a canned recipe.
func NewTogetherClient() (*TogetherClient, error) {
	if isMockEnabled() {
		log.Printf("[llm][client] mock mode enabled")
		return &TogetherClient{mockMode: true}, nil
	}

	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		log.Printf("[llm][client] missing LLM_API_KEY")
		return nil, ErrMissingLLMAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = getenvDefault("LLM_BASE_URL", defaultBaseURL)
	model := getenvDefault("LLM_MODEL", defaultModel)
	log.Printf("[llm][client] initialized base_url=%s model=%s", cfg.BaseURL, model)

	return &TogetherClient{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *TogetherClient) Ask(ctx context.Context, prompt string) (string, error) {
	if c.mockMode {
		log.Printf("[llm][client] mock reply prompt_len=%d", len(prompt))
		return mockReply, nil
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		log.Printf("[llm][client] completion failed model=%s err=%v", c.model, err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Printf("[llm][client] completion success model=%s reply_len=%d", c.model, len(reply))
	return reply, nil
}

func isMockEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LLM_MOCK"))) {
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
