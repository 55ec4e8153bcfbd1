package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/config"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/graph"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/ingestion"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/llm"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/processing"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/server"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/storage"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/weather"
)

// app holds what the subcommands share: the parsed config, the logger and
// every resource opened on their behalf.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	closers []func() error
	ocr     ingestion.OCRFunc
	checks  map[string]server.HealthCheck
}

func (a *app) onClose(fn func() error) { a.closers = append(a.closers, fn) }

func (a *app) addCheck(name string, check server.HealthCheck) {
	if a.checks == nil {
		a.checks = make(map[string]server.HealthCheck)
	}
	a.checks[name] = check
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// resettable is implemented by the persistent vector backends.
type resettable interface {
	Reset(ctx context.Context) error
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	embedder, err := processing.NewEmbedder(a.cfg.Embedding.Provider, a.cfg.Embedding.Model, a.cfg.LLM.OpenAIAPIKey, a.cfg.LLM.OllamaURL)
	if err != nil {
		return nil, err
	}

	vc := a.cfg.Vector
	var store storage.Store
	switch vc.Backend {
	case "memory":
		// nothing persists between runs, so index the configured document now
		mem := storage.NewMemoryIndex(embedder)
		if _, err := a.indexer(mem).IndexPath(ctx, a.cfg.PDFPath); err != nil {
			return nil, err
		}
		store = mem
	case "sqlite":
		store, err = storage.OpenSQLiteIndex(ctx, vc.Path, vc.CollectionName, embedder)
	case "pgvector":
		pool, perr := storage.NewPool(ctx, vc.DatabaseURL)
		if perr != nil {
			return nil, perr
		}
		a.onClose(func() error { pool.Close(); return nil })
		a.addCheck("postgres", pool.Ping)
		store, err = storage.OpenPGVectorIndex(ctx, pool, vc.CollectionName, embedder)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", vc.Backend)
	}
	if err != nil {
		return nil, err
	}
	a.onClose(store.Close)
	a.log.Debug("vector store ready", "backend", vc.Backend, "collection", vc.CollectionName)
	return store, nil
}

func (a *app) indexer(w ingestion.ChunkWriter) *ingestion.Indexer {
	return &ingestion.Indexer{
		Extractor: ingestion.Extractor{OCR: a.ocr},
		Splitter:  processing.NewSplitter(a.cfg.Vector.ChunkSize, a.cfg.Vector.ChunkOverlap),
		Store:     w,
		Logger:    a.log,
	}
}

func (a *app) newWeather(ctx context.Context) *weather.Service {
	wc := a.cfg.Weather
	client := weather.NewClient(weather.ClientConfig{
		APIKey:     wc.APIKey,
		GeoURL:     wc.GeoURL,
		APIURL:     wc.APIURL,
		Timeout:    wc.HTTPTimeout,
		GeocodeTTL: wc.GeocodeTTL,
		Logger:     a.log,
	})

	var cache weather.Cache = weather.NewMemoryCache(wc.CacheTTL)
	if a.cfg.Redis.Addr != "" {
		rc, err := weather.NewRedisCache(ctx, weather.RedisConfig{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			TTL:      wc.CacheTTL,
		}, a.log)
		if err != nil {
			a.log.Warn("Redis unavailable, caching weather in memory", "error", err)
		} else {
			cache = rc
			a.onClose(rc.Close)
			a.addCheck("redis", rc.Ping)
		}
	}

	svc := weather.NewService(client, weather.ServiceConfig{
		DefaultCity: wc.DefaultCity,
		CountryHint: wc.CountryHint,
		Logger:      a.log,
		Cache:       cache,
	})
	return svc
}

func (a *app) openHistory(ctx context.Context) (storage.HistoryLog, error) {
	if a.cfg.HistoryDatabaseURL == "" {
		return storage.NewMemoryHistory(), nil
	}
	h, err := storage.OpenPostgresHistory(ctx, a.cfg.HistoryDatabaseURL)
	if err != nil {
		return nil, err
	}
	a.onClose(h.Close)
	return h, nil
}

type components struct {
	pipeline *graph.Pipeline
	weather  *weather.Service
	index    storage.VectorIndex
	history  storage.HistoryLog
}

func (a *app) buildPipeline(ctx context.Context) (*components, error) {
	lm, err := llm.New(a.cfg.LLM, a.log)
	if err != nil {
		return nil, err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	history, err := a.openHistory(ctx)
	if err != nil {
		return nil, err
	}
	svc := a.newWeather(ctx)

	p, err := graph.NewPipeline(graph.Deps{
		LLM:     lm,
		Weather: svc,
		Index:   store,
		History: history,
		TopK:    a.cfg.Vector.TopK,
		Logger:  a.log,
	})
	if err != nil {
		return nil, err
	}
	return &components{pipeline: p, weather: svc, index: store, history: history}, nil
}
