// Package setup assembles the query engine from configuration: database,
// decorated index store, analyzer and assembler.
package setup

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index/sqlstore"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/assembler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/tracing"
)

// Runtime owns everything Engine depends on. Close releases it.
type Runtime struct {
	DB     *database.Client
	Store  index.Store
	Engine *executor.Engine

	assembler *assembler.Assembler
}

// Open connects to the configured database and builds the engine. m may be
// nil, in which case store and search metrics are not recorded.
func Open(cfg *config.Config, m *metrics.Metrics) (*Runtime, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	slog.Info("index database connected", "driver", db.Driver)

	rt, err := Build(cfg, sqlstore.New(db), m)
	if err != nil {
		db.Close()
		return nil, err
	}
	rt.DB = db
	return rt, nil
}

// Build wires the engine over an already opened store. The store is wrapped
// with the resilience policy and, when m is set, instrumentation.
func Build(cfg *config.Config, base index.Store, m *metrics.Metrics) (*Runtime, error) {
	var store index.Store = base
	if m != nil {
		store = index.NewInstrumentedStore(store, m)
	}
	store = index.NewResilientStore(store, cfg.Resilience, cfg.Store.LookupTimeout,
		index.WithStateChange(func(name string, from, to resilience.State) {
			slog.Warn("index store circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		}),
	)

	stemmer, err := tokenizer.NewStemmer(cfg.Search.Stemmer)
	if err != nil {
		return nil, err
	}
	analyzer := tokenizer.NewAnalyzer(tokenizer.LoadStopwords(cfg.Search.StopwordsPath), stemmer)

	asm, err := assembler.New(store, AssemblerConfig(cfg.Search), cfg.Search.Workers)
	if err != nil {
		return nil, err
	}

	engine := executor.New(store, analyzer, asm, executor.Options{
		QueryTimeout: cfg.Search.QueryTimeout,
		Tracer:       tracing.NewTracer(cfg.Tracing.Enabled, cfg.Tracing.SampleRate),
		Metrics:      m,
	})
	return &Runtime{Store: store, Engine: engine, assembler: asm}, nil
}

func AssemblerConfig(s config.SearchConfig) assembler.Config {
	return assembler.Config{
		BodyWeight:     s.BodyWeight,
		TitleWeight:    s.TitleWeight,
		PageRankWeight: s.PageRankWeight,
		SnippetResults: s.SnippetResults,
		SnippetLength:  s.SnippetLength,
		MaxResults:     s.MaxResults,
		KeywordLimit:   s.KeywordLimit,
	}
}

func (r *Runtime) Close() error {
	r.assembler.Release()
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}
