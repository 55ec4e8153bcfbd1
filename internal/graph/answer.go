package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/llm"
)

const (
	groundedPrompt = "You are a helpful assistant. The following context contains the exact answer " +
		"to the user's question. Use the context directly and DO NOT reply with 'I don't know'. " +
		"Respond concisely.\n\nContext:\n%s\n\n"
	openPrompt = "You are a helpful assistant. Answer the question to the best of your ability."
)

func answerPrompt(passages string) string {
	if strings.TrimSpace(passages) == "" {
		return openPrompt
	}
	return fmt.Sprintf(groundedPrompt, passages)
}

// GenerateAnswer makes one model call with the question and, when it is not
// blank, the context embedded verbatim in the system instruction.
func GenerateAnswer(ctx context.Context, lm llm.LanguageModel, question, passages string) (string, error) {
	reply, err := lm.Invoke(ctx, []llm.Message{
		llm.System(answerPrompt(passages)),
		llm.Human(question),
	})
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
