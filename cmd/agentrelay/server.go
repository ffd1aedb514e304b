package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/analyzer"
	"github.com/BaSui01/agentrelay/api/handlers"
	"github.com/BaSui01/agentrelay/catalog"
	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/executor"
	"github.com/BaSui01/agentrelay/internal/metrics"
	"github.com/BaSui01/agentrelay/internal/server"
	"github.com/BaSui01/agentrelay/internal/telemetry"
	"github.com/BaSui01/agentrelay/orchestrator"
	"github.com/BaSui01/agentrelay/persistence"
	"github.com/BaSui01/agentrelay/planner"
	"github.com/BaSui01/agentrelay/synthesizer"
)

// =============================================================================
// 🖥️ Server
// =============================================================================

// Server wires the decision pipeline behind the HTTP surface and manages
// the HTTP and metrics listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	// Pipeline components
	store     persistence.HandoverStore
	catalog   *catalog.Catalog
	refresher *catalog.Refresher
	eventBus  *executor.EventBus
	pipeline  *orchestrator.Orchestrator

	// Handlers
	healthHandler      *handlers.HealthHandler
	orchestrateHandler *handlers.OrchestrateHandler
	agentHandler       *handlers.AgentHandler
	handoverHandler    *handlers.HandoverHandler
	eventsHandler      *handlers.EventsHandler

	metricsCollector *metrics.Collector

	// Lifecycle
	rateLimiterCancel context.CancelFunc
	refresherCancel   context.CancelFunc

	wg sync.WaitGroup
}

// NewServer creates a server instance. Components are assembled in Start.
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		otel:   otel,
	}
}

// =============================================================================
// 🚀 Startup
// =============================================================================

// Start assembles the pipeline and starts all listeners.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("agentrelay", s.logger)

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}

	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("store", s.cfg.Store.Type),
		zap.Int("agents", s.catalog.Len()),
	)

	return nil
}

// =============================================================================
// 🔧 Pipeline assembly
// =============================================================================

// initPipeline builds the analyze → plan → execute → synthesize chain and
// its supporting catalog, store and event bus.
func (s *Server) initPipeline() error {
	store, err := persistence.NewStore(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("open handover store: %w", err)
	}
	s.store = store

	s.catalog = catalog.New(s.logger)
	s.refresher = catalog.NewRefresherFromConfig(s.catalog, s.cfg.Registry, s.logger)

	refresherCtx, refresherCancel := context.WithCancel(context.Background())
	s.refresherCancel = refresherCancel

	// Seed the catalog before accepting traffic, then keep it fresh in
	// the background.
	if _, ok := s.refresher.RefreshNow(refresherCtx); !ok {
		s.logger.Warn("initial catalog refresh failed, starting degraded")
	}
	if err := s.refresher.Start(refresherCtx); err != nil {
		s.logger.Warn("catalog refresher not started", zap.Error(err))
	}

	s.eventBus = executor.NewEventBus(s.cfg.Pipeline.EventBufferSize, s.logger)

	var instruments *telemetry.Instruments
	if s.otel != nil {
		instruments, err = telemetry.NewInstruments()
		if err != nil {
			s.logger.Warn("pipeline instruments unavailable", zap.Error(err))
		}
	}

	classifier := analyzer.NewClassifierFromConfig(s.cfg.Classifier)
	an := analyzer.New(classifier, s.logger)
	pl := planner.New(s.catalog, s.logger)

	invoker := executor.NewHTTPInvoker(s.cfg.Pipeline.InvokeTimeout)
	ex := executor.New(invoker,
		executor.WithStore(s.store),
		executor.WithEventBus(s.eventBus),
		executor.WithMetrics(s.metricsCollector),
		executor.WithTelemetry(instruments),
		executor.WithLogger(s.logger),
	)

	sy := synthesizer.New(s.logger)

	s.pipeline = orchestrator.New(an, pl, ex, sy,
		orchestrator.WithMetrics(s.metricsCollector),
		orchestrator.WithTelemetry(instruments),
		orchestrator.WithLogger(s.logger),
	)

	s.logger.Info("Pipeline assembled",
		zap.String("store", s.cfg.Store.Type),
		zap.Bool("classifier_remote", s.cfg.Classifier.Endpoint != ""),
	)
	return nil
}

// initHandlers wires the HTTP handlers over the assembled pipeline.
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("store", s.store.Ping))

	s.orchestrateHandler = handlers.NewOrchestrateHandler(s.pipeline, s.logger)
	s.agentHandler = handlers.NewAgentHandler(s.catalog, s.logger)
	s.handoverHandler = handlers.NewHandoverHandler(s.store, s.logger)
	s.eventsHandler = handlers.NewEventsHandler(s.eventBus, s.cfg.Server.AllowedOrigins, s.logger)

	s.logger.Info("Handlers initialized")
}

// =============================================================================
// 🌐 HTTP server
// =============================================================================

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// Health and version endpoints
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// API routes
	mux.HandleFunc("/api/v1/orchestrate", s.orchestrateHandler.HandleOrchestrate)
	mux.HandleFunc("/api/v1/agents", s.agentHandler.HandleAgents)
	mux.HandleFunc("/api/v1/agents/", s.agentHandler.HandleGetAgent)
	mux.HandleFunc("/api/v1/handovers", s.handoverHandler.HandleHandovers)
	mux.HandleFunc("/api/v1/handovers/stats", s.handoverHandler.HandleHandoverStats)
	mux.HandleFunc("/api/v1/events", s.eventsHandler.HandleEvents)

	// Middleware chain
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.AllowedOrigins),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics server
// =============================================================================

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 Shutdown
// =============================================================================

// WaitForShutdown blocks until a termination signal, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops all components in reverse startup order.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.refresher != nil {
		s.refresher.Stop()
	}
	if s.refresherCancel != nil {
		s.refresherCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.eventBus != nil {
		s.eventBus.Close()
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("Store shutdown error", zap.Error(err))
		}
	}

	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.wg.Wait()

	s.logger.Info("Graceful shutdown completed")
}
