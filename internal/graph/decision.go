package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/llm"
)

const decisionPrompt = "You are a classifier. If the user is asking about the weather, output 'weather'. " +
	"Otherwise output 'pdf'. Return only that word."

// Classifier picks the route for a question.
type Classifier interface {
	Classify(ctx context.Context, question string) (Route, error)
}

type ClassifierFunc func(ctx context.Context, question string) (Route, error)

func (f ClassifierFunc) Classify(ctx context.Context, question string) (Route, error) {
	return f(ctx, question)
}

// Decider classifies with one language model call. Any reply that mentions
// "weather" routes to the weather path; everything else, including an empty
// or garbled reply, routes to pdf.
type Decider struct {
	LLM llm.LanguageModel
	Log *slog.Logger
}

func (d Decider) Classify(ctx context.Context, question string) (Route, error) {
	reply, err := d.LLM.Invoke(ctx, []llm.Message{
		llm.System(decisionPrompt),
		llm.Human(question),
	})
	if err != nil {
		return "", fmt.Errorf("decision: %w", err)
	}
	route := routeFromReply(reply)
	if d.Log != nil && route == RoutePDF && strings.ToLower(strings.TrimSpace(reply)) != string(RoutePDF) {
		d.Log.Debug("classifier reply not recognised, defaulting to pdf", "reply", reply)
	}
	return route, nil
}

func routeFromReply(reply string) Route {
	if strings.Contains(strings.ToLower(strings.TrimSpace(reply)), "weather") {
		return RouteWeather
	}
	return RoutePDF
}
