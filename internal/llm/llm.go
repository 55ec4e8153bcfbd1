// Package llm defines the language model contract used by the assistant and
// the provider adapters that satisfy it.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/config"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

// Message is one role-tagged entry in a prompt.
type Message struct {
	Role    Role
	Content string
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func Human(content string) Message  { return Message{Role: RoleHuman, Content: content} }

// LanguageModel accepts ordered role/text pairs and returns one text reply.
type LanguageModel interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

// Func adapts a plain function to LanguageModel.
type Func func(ctx context.Context, messages []Message) (string, error)

func (f Func) Invoke(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// New returns the adapter selected by cfg.Provider.
func New(cfg config.LLMConfig, log *slog.Logger) (LanguageModel, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, log), nil
	case "anthropic":
		return NewAnthropic(cfg.AnthropicModel, cfg.MaxTokens, log), nil
	case "ollama":
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// split separates system instructions from the conversational turns, which is
// the shape the Anthropic API wants.
func split(messages []Message) (system []string, turns []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
