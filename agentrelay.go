// Package agentrelay provides a top-level convenience entry point for
// embedding the orchestration pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/agentrelay"
//
//	relay, err := agentrelay.New()
//	relay.RegisterAgent(catalog.AgentProfile{ID: "summarizer", ...})
//	result, err := relay.Orchestrate(ctx, "summarize this document")
//
// This wires the same analyzer, planner, executor and synthesizer the server
// binary uses, with an in-memory handover store and heuristic-only analysis
// by default. Use this package when you want the pipeline in-process instead
// of behind the HTTP API.
package agentrelay

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/analyzer"
	"github.com/BaSui01/agentrelay/catalog"
	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/executor"
	"github.com/BaSui01/agentrelay/orchestrator"
	"github.com/BaSui01/agentrelay/persistence"
	"github.com/BaSui01/agentrelay/planner"
	"github.com/BaSui01/agentrelay/synthesizer"
)

// Relay bundles an assembled pipeline with its supporting catalog, store
// and event bus.
type Relay struct {
	catalog  *catalog.Catalog
	store    persistence.HandoverStore
	events   *executor.EventBus
	pipeline *orchestrator.Orchestrator
	logger   *zap.Logger
}

// Option configures the relay created by [New].
type Option func(*options)

type options struct {
	logger     *zap.Logger
	classifier analyzer.Classifier
	invoker    executor.AgentInvoker
	store      persistence.HandoverStore
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClassifier sets the analysis classifier. The default is the heuristic
// fallback only.
func WithClassifier(c analyzer.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithInvoker sets the agent invoker. The default posts to each agent's
// /execute endpoint over HTTP.
func WithInvoker(inv executor.AgentInvoker) Option {
	return func(o *options) { o.invoker = inv }
}

// WithStore sets the handover record store. The default is in-memory.
func WithStore(store persistence.HandoverStore) Option {
	return func(o *options) { o.store = store }
}

// New assembles a relay with the default pipeline.
func New(opts ...Option) (*Relay, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := o.store
	if store == nil {
		store = persistence.NewMemoryStore(config.StoreConfig{}, logger)
	}

	classifier := o.classifier
	if classifier == nil {
		classifier = analyzer.NewClassifierFromConfig(config.ClassifierConfig{})
	}

	invoker := o.invoker
	if invoker == nil {
		invoker = executor.NewHTTPInvoker(0)
	}

	cat := catalog.New(logger)
	events := executor.NewEventBus(0, logger)

	an := analyzer.New(classifier, logger)
	pl := planner.New(cat, logger)
	ex := executor.New(invoker,
		executor.WithStore(store),
		executor.WithEventBus(events),
		executor.WithLogger(logger),
	)
	sy := synthesizer.New(logger)

	pipeline := orchestrator.New(an, pl, ex, sy, orchestrator.WithLogger(logger))

	return &Relay{
		catalog:  cat,
		store:    store,
		events:   events,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

// Orchestrate runs the full pipeline for query.
func (r *Relay) Orchestrate(ctx context.Context, query string) (*orchestrator.Result, error) {
	return r.pipeline.Orchestrate(ctx, query)
}

// RegisterAgent adds an agent profile to the catalog.
func (r *Relay) RegisterAgent(profile catalog.AgentProfile) error {
	return r.catalog.Register(profile)
}

// Catalog returns the agent catalog.
func (r *Relay) Catalog() *catalog.Catalog {
	return r.catalog
}

// Store returns the handover record store.
func (r *Relay) Store() persistence.HandoverStore {
	return r.store
}

// Events returns the pipeline event bus.
func (r *Relay) Events() *executor.EventBus {
	return r.events
}

// Close releases the event bus and store.
func (r *Relay) Close() error {
	r.events.Close()
	return r.store.Close()
}
