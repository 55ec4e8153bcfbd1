package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// Anthropic is a LanguageModel backed by the Messages API. The API key is read
// from ANTHROPIC_API_KEY by the SDK.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	log       *slog.Logger
}

func NewAnthropic(model string, maxTokens int64, log *slog.Logger) *Anthropic {
	if log == nil {
		log = slog.Default()
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return &Anthropic{
		client:    anthropic.NewClient(),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		log:       log,
	}
}

func (c *Anthropic) Invoke(ctx context.Context, messages []Message) (string, error) {
	system, turns := split(messages)

	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(0),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(system, "\n\n")},
		}
	}
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAI {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.log.Error("anthropic API call failed", "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	c.log.Debug("anthropic API call completed", "duration", time.Since(start), "stopReason", msg.StopReason)

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}
