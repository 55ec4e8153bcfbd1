package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/graph"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing/processingtest"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/storage"
)

type askerFunc func(ctx context.Context, question string) (*graph.State, error)

func (f askerFunc) Run(ctx context.Context, question string) (*graph.State, error) {
	return f(ctx, question)
}

func answering(answer string) askerFunc {
	return func(_ context.Context, question string) (*graph.State, error) {
		s := graph.NewState(question)
		if err := s.SetRoute(graph.RoutePDF); err != nil {
			return nil, err
		}
		if err := s.SetContext("Paris is the capital of France."); err != nil {
			return nil, err
		}
		return s, s.SetAnswer(answer)
	}
}

type weatherFunc func(ctx context.Context, city string) (string, error)

func (f weatherFunc) FetchForCity(ctx context.Context, city string) (string, error) {
	return f(ctx, city)
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Asker == nil {
		cfg.Asker = answering("Paris.")
	}
	s, err := New(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func callTool(t *testing.T, url, name string, args map[string]any) MCPResponse {
	t.Helper()
	resp := postJSON(t, url+"/mcp", MCPRequest{
		ID:     "1",
		Method: "tools/call",
		Params: map[string]any{"name": name, "arguments": args},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out MCPResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "1", out.ID)
	return out
}

func resultText(t *testing.T, r MCPResponse) string {
	t.Helper()
	require.Nil(t, r.Error)
	result, ok := r.Result.(map[string]any)
	require.True(t, ok)
	content := result["content"].([]any)
	require.Len(t, content, 1)
	return content[0].(map[string]any)["text"].(string)
}

func TestAsk(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})

	resp := postJSON(t, srv.URL+"/ask", map[string]string{"question": "What is the capital of France?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "What is the capital of France?", got["question"])
	require.Equal(t, "pdf", got["route"])
	require.Equal(t, "Paris.", got["answer"])
	require.NotEmpty(t, got["run_id"])
}

func TestAsk_BadRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2 := postJSON(t, srv.URL+"/ask", map[string]string{"question": ""})
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	get, err := http.Get(srv.URL + "/ask")
	require.NoError(t, err)
	defer get.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestAsk_PipelineError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Asker: askerFunc(func(context.Context, string) (*graph.State, error) {
		return nil, errors.New("model unavailable")
	})})

	resp := postJSON(t, srv.URL+"/ask", map[string]string{"question": "hi"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestMCP_ToolsList(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	resp := postJSON(t, srv.URL+"/mcp", MCPRequest{ID: "7", Method: "tools/list"})

	var out struct {
		ID     string `json:"id"`
		Result struct {
			Tools []Tool `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "7", out.ID)

	var names []string
	for _, tool := range out.Result.Tools {
		names = append(names, tool.Name)
	}
	require.Equal(t, []string{"ask", "get_weather", "retrieve_context"}, names)
}

func TestMCP_UnknownMethodAndTool(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})

	resp := postJSON(t, srv.URL+"/mcp", MCPRequest{ID: "2", Method: "resources/list"})
	var out MCPResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Error)
	require.Equal(t, codeMethodNotFound, out.Error.Code)

	r := callTool(t, srv.URL, "get_tasks", nil)
	require.NotNil(t, r.Error)
	require.Equal(t, "Tool not found", r.Error.Message)
}

func TestMCP_Ask(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})

	r := callTool(t, srv.URL, "ask", map[string]any{"question": "capital of France?"})
	require.Equal(t, "Paris.", resultText(t, r))

	r = callTool(t, srv.URL, "ask", map[string]any{})
	require.NotNil(t, r.Error)
	require.Equal(t, codeInvalidParams, r.Error.Code)
}

func TestMCP_GetWeather(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Weather: weatherFunc(func(_ context.Context, city string) (string, error) {
		if city == "Atlantis" {
			return "", errors.New("no geocoding result")
		}
		return "Current weather in " + city + ": 20.0°C", nil
	})})

	r := callTool(t, srv.URL, "get_weather", map[string]any{"city": "Paris"})
	require.Equal(t, "Current weather in Paris: 20.0°C", resultText(t, r))

	r = callTool(t, srv.URL, "get_weather", map[string]any{"city": "Atlantis"})
	require.NotNil(t, r.Error)
	require.Contains(t, r.Error.Message, "no geocoding result")
}

func TestMCP_GetWeatherDisabled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	r := callTool(t, srv.URL, "get_weather", map[string]any{"city": "Paris"})
	require.NotNil(t, r.Error)
	require.Equal(t, codeToolDisabled, r.Error.Code)
}

func TestMCP_RetrieveContext(t *testing.T) {
	t.Parallel()

	idx := storage.NewMemoryIndex(processingtest.NewEmbedder())
	require.NoError(t, idx.AddChunks(context.Background(), []processing.Chunk{
		{Source: "landmarks.pdf", Text: "The Eiffel Tower is in Paris."},
		{Source: "landmarks.pdf", Page: 1, Text: "Big Ben is in London."},
	}))
	srv := newTestServer(t, Config{Index: idx, TopK: 5})

	r := callTool(t, srv.URL, "retrieve_context", map[string]any{"query": "The Eiffel Tower is in Paris.", "k": 1})
	require.Equal(t, "The Eiffel Tower is in Paris.", resultText(t, r))

	r = callTool(t, srv.URL, "retrieve_context", map[string]any{"query": "landmarks"})
	require.Len(t, strings.Split(resultText(t, r), "\n\n"), 2)
}

type countingIndex struct{ lastK atomic.Int64 }

func (c *countingIndex) SimilaritySearch(_ context.Context, _ string, k int) ([]storage.Passage, error) {
	c.lastK.Store(int64(k))
	return nil, nil
}

func TestMCP_RetrieveContextClampsK(t *testing.T) {
	t.Parallel()

	idx := &countingIndex{}
	srv := newTestServer(t, Config{Index: idx, TopK: 5})

	for _, tt := range []struct {
		k    any
		want int64
	}{
		{1e18, maxTopK},
		{12, 12},
		{0, 5},
		{"7", 5},
	} {
		r := callTool(t, srv.URL, "retrieve_context", map[string]any{"query": "landmarks", "k": tt.k})
		require.Nil(t, r.Error)
		require.Equal(t, tt.want, idx.lastK.Load(), "k=%v", tt.k)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	history := storage.NewMemoryHistory()
	require.NoError(t, history.Append(context.Background(),
		storage.HistoryEntry{Role: "human", Content: "q1"},
		storage.HistoryEntry{Role: "ai", Content: "a1"},
		storage.HistoryEntry{Role: "human", Content: "q2"},
	))
	srv := newTestServer(t, Config{History: history})

	resp, err := http.Get(srv.URL + "/history?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Entries []storage.HistoryEntry `json:"entries"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, 2, out.Count)
	require.Equal(t, "a1", out.Entries[0].Content)
	require.Equal(t, "q2", out.Entries[1].Content)

	bad, err := http.Get(srv.URL + "/history?limit=abc")
	require.NoError(t, err)
	defer bad.Body.Close()
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/history", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer del.Body.Close()
	require.Equal(t, http.StatusNoContent, del.StatusCode)

	n, err := history.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHistory_Disabled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	resp, err := http.Get(srv.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Checks: map[string]HealthCheck{
		"redis":    func(context.Context) error { return errors.New("connection refused") },
		"postgres": func(context.Context) error { return nil },
	}})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, map[string]string{
		"status":   "degraded",
		"redis":    "disconnected",
		"postgres": "connected",
	}, got)
}

func TestHealth_NoChecks(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	postJSON(t, srv.URL+"/ask", map[string]string{"question": "hi"})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_RequiresAsker(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}
