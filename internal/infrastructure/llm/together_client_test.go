package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	got  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestNewTogetherClient(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		t.Setenv("LLM_MOCK", "")
		t.Setenv("LLM_API_KEY", "")
		if _, err := NewTogetherClient(); !errors.Is(err, ErrMissingLLMAPIKey) {
			t.Fatalf("expected ErrMissingLLMAPIKey, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("LLM_MOCK", "")
		t.Setenv("LLM_API_KEY", "key")
		t.Setenv("LLM_MODEL", "")
		c, err := NewTogetherClient()
		if err != nil || c.model != defaultModel {
			t.Fatalf("unexpected client %+v err=%v", c, err)
		}
	})
}

func TestTogetherClient_Mock(t *testing.T) {
	t.Setenv("LLM_MOCK", "true")
	c, err := NewTogetherClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := c.Ask(context.Background(), "batuk")
	if err != nil || reply != mockReply {
		t.Fatalf("unexpected reply %q err=%v", reply, err)
	}
}

func TestTogetherClient_Ask(t *testing.T) {
	fake := &fakeCompleter{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  {\"jahe\": 3}\n"}}},
	}}
	c := &TogetherClient{client: fake, model: "m"}

	reply, err := c.Ask(context.Background(), "resep untuk batuk")
	if err != nil || reply != `{"jahe": 3}` {
		t.Fatalf("unexpected reply %q err=%v", reply, err)
	}
	if fake.got.Model != "m" || len(fake.got.Messages) != 1 || fake.got.Messages[0].Content != "resep untuk batuk" {
		t.Fatalf("unexpected request %+v", fake.got)
	}
}

func TestTogetherClient_Errors(t *testing.T) {
	c := &TogetherClient{client: &fakeCompleter{err: errors.New("429")}, model: "m"}
	if _, err := c.Ask(context.Background(), "x"); err == nil {
		t.Fatalf("expected transport error")
	}

	c = &TogetherClient{client: &fakeCompleter{}, model: "m"}
	if _, err := c.Ask(context.Background(), "x"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
