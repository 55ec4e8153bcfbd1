package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Embedder turns text into vectors. Documents and queries go through separate
// calls because some providers embed them differently.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder returns the embedder for provider ("openai" or "ollama").
func NewEmbedder(provider, model, apiKey, ollamaURL string) (Embedder, error) {
	switch provider {
	case "openai":
		return NewOpenAIEmbedder(apiKey, model), nil
	case "ollama":
		return NewOllamaEmbedder(ollamaURL, model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// openAIBatchSize keeps each request well under the endpoint's 2048-input cap.
const openAIBatchSize = 512

// OpenAIEmbedder calls the OpenAI embeddings endpoint, at most batchSize
// texts per request.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	batchSize int
}

func NewOpenAIEmbedder(apiKey, model string, opts ...option.RequestOption) *OpenAIEmbedder {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model, batchSize: openAIBatchSize}
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no chunks")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("openai embeddings [%d:%d]: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("empty query")
	}
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// request struct for Ollama API
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// response struct from Ollama API
type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

// OllamaEmbedder produces embeddings through a local Ollama server, one call
// per text.
type OllamaEmbedder struct {
	url   string
	model string
	http  *http.Client
}

func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		url:   strings.TrimRight(baseURL, "/") + "/api/embeddings",
		model: model,
		http:  &http.Client{Timeout: time.Minute},
	}
}

func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no chunks")
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed embedding chunk %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("empty query")
	}
	return e.embed(ctx, text)
}

func (e *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	data, err := json.Marshal(ollamaRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error: %s", string(bodyBytes))
	}

	var oResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("failed decode response: %w", err)
	}
	if len(oResp.Embedding) == 0 {
		return nil, errors.New("ollama returned an empty embedding")
	}
	return oResp.Embedding, nil
}
