package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// MCP envelope. Only tools/list and tools/call are implemented.
type MCPRequest struct {
	ID     string         `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type MCPResponse struct {
	ID     string    `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *MCPError `json:"error,omitempty"`
}

type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32004
	codeToolDisabled   = -32001
)

// maxTopK caps the k a client may ask retrieve_context for.
const maxTopK = 50

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	var req MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusOK, errorResponse(req.ID, codeParseError, "Parse error"))
		return
	}

	var resp MCPResponse
	switch req.Method {
	case "tools/call":
		resp = s.handleToolCall(r.Context(), req)
	case "tools/list":
		resp = MCPResponse{ID: req.ID, Result: map[string]any{"tools": s.availableTools()}}
	default:
		resp = errorResponse(req.ID, codeMethodNotFound, "Method not found")
	}
	if resp.Error != nil {
		s.log.Debug("mcp request failed", "method", req.Method, "error", resp.Error.Message)
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (s *Server) handleToolsList(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{"tools": s.availableTools()})
}

func (s *Server) handleToolCall(ctx context.Context, req MCPRequest) MCPResponse {
	toolName, ok := req.Params["name"].(string)
	if !ok {
		return errorResponse(req.ID, codeInvalidParams, "Invalid tool name")
	}
	arguments, _ := req.Params["arguments"].(map[string]any)

	switch toolName {
	case "ask":
		question, err := stringArg(arguments, "question")
		if err != nil {
			return errorResponse(req.ID, codeInvalidParams, err.Error())
		}
		state, err := s.asker.Run(ctx, question)
		if err != nil {
			return errorResponse(req.ID, codeToolFailed, fmt.Sprintf("Pipeline failed: %v", err))
		}
		return textResult(req.ID, state.Display())

	case "get_weather":
		if s.weather == nil {
			return errorResponse(req.ID, codeToolDisabled, "Weather service not configured")
		}
		city, err := stringArg(arguments, "city")
		if err != nil {
			return errorResponse(req.ID, codeInvalidParams, err.Error())
		}
		summary, err := s.weather.FetchForCity(ctx, city)
		if err != nil {
			return errorResponse(req.ID, codeToolFailed, fmt.Sprintf("Weather lookup failed: %v", err))
		}
		return textResult(req.ID, summary)

	case "retrieve_context":
		if s.index == nil {
			return errorResponse(req.ID, codeToolDisabled, "Vector index not configured")
		}
		query, err := stringArg(arguments, "query")
		if err != nil {
			return errorResponse(req.ID, codeInvalidParams, err.Error())
		}
		k := s.topK
		if v, ok := arguments["k"].(float64); ok && v >= 1 {
			k = int(min(v, maxTopK))
		}
		passages, err := s.index.SimilaritySearch(ctx, query, k)
		if err != nil {
			return errorResponse(req.ID, codeToolFailed, fmt.Sprintf("Retrieval failed: %v", err))
		}
		texts := make([]string, len(passages))
		for i, p := range passages {
			texts[i] = p.Content
		}
		return MCPResponse{ID: req.ID, Result: map[string]any{
			"content":  []map[string]any{{"type": "text", "text": strings.Join(texts, "\n\n")}},
			"passages": passages,
		}}

	default:
		return errorResponse(req.ID, codeMethodNotFound, "Tool not found")
	}
}

func stringArg(arguments map[string]any, name string) (string, error) {
	v, _ := arguments[name].(string)
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("argument %q is required", name)
	}
	return v, nil
}

func textResult(id, text string) MCPResponse {
	return MCPResponse{
		ID:     id,
		Result: map[string]any{"content": []map[string]any{{"type": "text", "text": text}}},
	}
}

func errorResponse(id string, code int, message string) MCPResponse {
	return MCPResponse{ID: id, Error: &MCPError{Code: code, Message: message}}
}

func (s *Server) availableTools() []Tool {
	return []Tool{
		{
			Name:        "ask",
			Description: "Answer a question using live weather or the indexed document",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{
						"type":        "string",
						"description": "The user's question",
					},
				},
				"required": []string{"question"},
			},
		},
		{
			Name:        "get_weather",
			Description: "Get current weather information for a city",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"city": map[string]any{
						"type":        "string",
						"description": "City name",
					},
				},
				"required": []string{"city"},
			},
		},
		{
			Name:        "retrieve_context",
			Description: "Return the passages of the indexed document closest to a query",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Search text",
					},
					"k": map[string]any{
						"type":        "integer",
						"description": "Number of passages (default from RAG_TOP_K)",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
