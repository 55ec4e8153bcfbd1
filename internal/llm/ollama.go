package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Options  map[string]any  `json:"options,omitempty"`
}

// Ollama streaming chat chunks look like {"message": {...}, "done": false}.
type ollamaChatChunk struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// Ollama talks to a local Ollama server's /api/chat endpoint.
type Ollama struct {
	baseURL string
	model   string
	http    *http.Client
	log     *slog.Logger
}

func NewOllama(baseURL, model string, log *slog.Logger) *Ollama {
	if log == nil {
		log = slog.Default()
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 2 * time.Minute},
		log:     log,
	}
}

func (o *Ollama) Invoke(ctx context.Context, messages []Message) (string, error) {
	req := ollamaChatRequest{
		Model:   o.model,
		Options: map[string]any{"temperature": 0},
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollamaMessage{Role: ollamaRole(m.Role), Content: m.Content})
	}
	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var reply strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk ollamaChatChunk
		if err := decoder.Decode(&chunk); err == io.EOF {
			break
		} else if err != nil {
			return "", fmt.Errorf("decoding ollama response: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama error: %s", chunk.Error)
		}
		reply.WriteString(chunk.Message.Content)
		if chunk.Done {
			break
		}
	}
	o.log.Debug("ollama chat done", "model", o.model, "replyLen", reply.Len())
	return reply.String(), nil
}

func ollamaRole(r Role) string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleAI:
		return "assistant"
	default:
		return "user"
	}
}
