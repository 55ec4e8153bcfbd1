package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOllama_InvokeStreamsChunks(t *testing.T) {
	t.Parallel()

	var (
		got     ollamaChatRequest
		gotPath string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Paris is "},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"the capital."},"done":true}`)
	}))
	defer srv.Close()

	o := NewOllama(srv.URL+"/", "llama3", nil)
	reply, err := o.Invoke(context.Background(), []Message{System("be brief"), Human("capital of France?")})
	require.NoError(t, err)
	require.Equal(t, "Paris is the capital.", reply)

	require.Equal(t, "/api/chat", gotPath)
	require.Equal(t, "llama3", got.Model)
	require.Equal(t, []ollamaMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "capital of France?"},
	}, got.Messages)
}

func TestOllama_InvokeErrors(t *testing.T) {
	t.Parallel()

	t.Run("http status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewOllama(srv.URL, "missing", nil).Invoke(context.Background(), []Message{Human("hi")})
		require.Error(t, err)
		require.Contains(t, err.Error(), "model not found")
	})

	t.Run("error chunk", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"error":"out of memory"}`)
		}))
		defer srv.Close()

		_, err := NewOllama(srv.URL, "m", nil).Invoke(context.Background(), []Message{Human("hi")})
		require.ErrorContains(t, err, "out of memory")
	})
}

func TestSplit(t *testing.T) {
	t.Parallel()

	system, turns := split([]Message{System("a"), Human("q"), System("b")})
	require.Equal(t, []string{"a", "b"}, system)
	require.Equal(t, []Message{Human("q")}, turns)
}
