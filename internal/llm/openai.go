package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAI is a LanguageModel backed by the chat completions API. Temperature is
// pinned to zero so classification stays stable.
type OpenAI struct {
	client openai.Client
	model  string
	log    *slog.Logger
}

func NewOpenAI(apiKey, model string, log *slog.Logger) *OpenAI {
	if log == nil {
		log = slog.Default()
	}
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		log:    log,
	}
}

func (c *OpenAI) Invoke(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(0),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAI:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.log.Error("openai chat completion failed", "model", c.model, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("openai API error: %w", err)
	}
	c.log.Debug("openai chat completion done", "model", c.model, "duration", time.Since(start))

	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
