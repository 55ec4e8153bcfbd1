package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/llm"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/metrics"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/storage"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/weather"
)

const DefaultTopK = 5

const weatherApology = "Sorry, I couldn’t fetch the weather right now: "

// Deps are the long-lived handles a Pipeline reuses across runs.
type Deps struct {
	LLM     llm.LanguageModel
	Weather weather.Fetcher
	Index   storage.VectorIndex

	// Classifier defaults to a Decider over LLM.
	Classifier Classifier

	// History, when set, receives the question and answer of each successful run.
	History storage.HistoryLog

	TopK   int
	Logger *slog.Logger
}

type Pipeline struct {
	log        *slog.Logger
	lm         llm.LanguageModel
	classifier Classifier
	weather    weather.Fetcher
	index      storage.VectorIndex
	history    storage.HistoryLog
	topK       int
}

func NewPipeline(deps Deps) (*Pipeline, error) {
	var errs []error
	if deps.LLM == nil {
		errs = append(errs, errors.New("language model is required"))
	}
	if deps.Weather == nil {
		errs = append(errs, errors.New("weather fetcher is required"))
	}
	if deps.Index == nil {
		errs = append(errs, errors.New("vector index is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Classifier == nil {
		deps.Classifier = Decider{LLM: deps.LLM, Log: deps.Logger}
	}
	if deps.TopK <= 0 {
		deps.TopK = DefaultTopK
	}

	return &Pipeline{
		log:        deps.Logger,
		lm:         deps.LLM,
		classifier: deps.Classifier,
		weather:    deps.Weather,
		index:      deps.Index,
		history:    deps.History,
		topK:       deps.TopK,
	}, nil
}

type node int

const (
	nodeDecision node = iota
	nodeWeather
	nodeRAG
	nodeAnswer
	nodeDone
)

func (n node) String() string {
	switch n {
	case nodeDecision:
		return "decision"
	case nodeWeather:
		return "weather"
	case nodeRAG:
		return "rag"
	case nodeAnswer:
		return "answer"
	case nodeDone:
		return "done"
	}
	return fmt.Sprintf("node(%d)", int(n))
}

// Run answers one question: decision, then weather or rag, then answer.
// A weather failure becomes an apology context; every other failure is
// returned along with the partially filled state.
func (p *Pipeline) Run(ctx context.Context, question string) (*State, error) {
	s := NewState(question)
	log := p.log.With("run_id", s.RunID)
	start := time.Now()

	for n := nodeDecision; n != nodeDone; {
		nodeStart := time.Now()
		next, err := p.step(ctx, log, n, s)
		metrics.NodeDuration.WithLabelValues(n.String()).Observe(time.Since(nodeStart).Seconds())
		if err != nil {
			route, _ := s.Route()
			metrics.PipelineRunsTotal.WithLabelValues(string(route), "error").Inc()
			return s, err
		}
		n = next
	}

	route, _ := s.Route()
	metrics.PipelineRunsTotal.WithLabelValues(string(route), "success").Inc()
	metrics.PipelineRunDuration.WithLabelValues(string(route)).Observe(time.Since(start).Seconds())
	p.record(ctx, log, s)
	return s, nil
}

func (p *Pipeline) step(ctx context.Context, log *slog.Logger, n node, s *State) (node, error) {
	switch n {
	case nodeDecision:
		route, err := p.classifier.Classify(ctx, s.Question())
		if err != nil {
			return n, err
		}
		log.Debug("decision", "route", route)
		if !route.Valid() {
			return n, fmt.Errorf("%w: %q", ErrUnknownRoute, route)
		}
		if err := s.SetRoute(route); err != nil {
			return n, err
		}
		if route == RouteWeather {
			return nodeWeather, nil
		}
		return nodeRAG, nil

	case nodeWeather:
		return nodeAnswer, s.SetContext(p.weatherContext(ctx, log, s.Question()))

	case nodeRAG:
		passages, err := storage.RetrieveContext(ctx, p.index, s.Question(), p.topK)
		if err != nil {
			return n, err
		}
		log.Debug("retrieved context", "k", p.topK, "length", len(passages))
		return nodeAnswer, s.SetContext(passages)

	case nodeAnswer:
		passages, _ := s.Context()
		answer, err := GenerateAnswer(ctx, p.lm, s.Question(), passages)
		if err != nil {
			return n, err
		}
		log.Debug("answer", "length", len(answer))
		return nodeDone, s.SetAnswer(answer)

	case nodeDone:
		return nodeDone, nil
	}
	return n, fmt.Errorf("unhandled node %s", n)
}

func (p *Pipeline) weatherContext(ctx context.Context, log *slog.Logger, question string) string {
	summary, err := p.weather.FetchForQuery(ctx, question)
	if err != nil {
		metrics.WeatherFallbacksTotal.Inc()
		log.Warn("weather lookup failed", "error", err)
		return weatherApology + err.Error()
	}
	return summary
}

func (p *Pipeline) record(ctx context.Context, log *slog.Logger, s *State) {
	if p.history == nil {
		return
	}
	route, _ := s.Route()
	err := p.history.Append(ctx,
		storage.HistoryEntry{RunID: s.RunID, Role: string(llm.RoleHuman), Content: s.Question(), Route: string(route)},
		storage.HistoryEntry{RunID: s.RunID, Role: string(llm.RoleAI), Content: s.Display(), Route: string(route)},
	)
	if err != nil {
		log.Warn("failed to record history", "error", err)
		return
	}
	if n, err := p.history.Count(ctx); err == nil {
		metrics.HistoryEntries.Set(float64(n))
	}
}
