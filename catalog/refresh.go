package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/internal/tlsutil"
)

// RefresherConfig holds configuration for the catalog refresher.
type RefresherConfig struct {
	// Interval between refresh cycles.
	Interval time.Duration `json:"interval"`

	// ProbeTimeout bounds one agent health probe.
	ProbeTimeout time.Duration `json:"probe_timeout"`

	// ProbeConcurrency is the number of concurrent health probes per
	// cycle. Zero or negative disables probing.
	ProbeConcurrency int `json:"probe_concurrency"`

	// FailureThreshold is the number of consecutive failures before a
	// source is considered degraded or an agent inactive.
	FailureThreshold int `json:"failure_threshold"`
}

// DefaultRefresherConfig returns a RefresherConfig with sensible defaults.
func DefaultRefresherConfig() *RefresherConfig {
	return &RefresherConfig{
		Interval:         30 * time.Second,
		ProbeTimeout:     5 * time.Second,
		ProbeConcurrency: 8,
		FailureThreshold: 3,
	}
}

// RefreshReport summarizes one refresh cycle.
type RefreshReport struct {
	// At is when the cycle started.
	At time.Time `json:"at"`

	// AgentCount is the catalog size after the cycle.
	AgentCount int `json:"agent_count"`

	// Err is the source fetch error, nil on success.
	Err error `json:"-"`

	// Degraded reports the catalog degraded flag after the cycle.
	Degraded bool `json:"degraded"`

	// Duration is how long the cycle took, probes included.
	Duration time.Duration `json:"duration"`
}

// Refresher keeps a catalog in sync with a registry source. It polls on a
// fixed interval, health-probes agent endpoints with bounded concurrency,
// and flips the catalog's degraded flag after repeated source failures.
// Refreshing never blocks selection: readers keep the last good snapshot.
type Refresher struct {
	catalog *Catalog
	source  Source
	config  *RefresherConfig
	logger  *zap.Logger
	client  *http.Client

	// inFlight guards against overlapping cycles; a cycle that finds one
	// running is skipped, not queued.
	inFlight atomic.Bool

	// fetchFailures counts consecutive source failures. Only touched
	// inside a cycle, which runs exclusively under the in-flight guard.
	fetchFailures int

	// probeFailures counts consecutive probe failures per agent.
	probeFailures map[string]int
	probeMu       sync.Mutex

	reports chan RefreshReport
	started atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
}

// NewRefresher creates a refresher for the given catalog and source.
func NewRefresher(cat *Catalog, source Source, cfg *RefresherConfig, logger *zap.Logger) *Refresher {
	if cfg == nil {
		cfg = DefaultRefresherConfig()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefresherConfig().Interval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultRefresherConfig().ProbeTimeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultRefresherConfig().FailureThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		catalog:       cat,
		source:        source,
		config:        cfg,
		logger:        logger.With(zap.String("component", "catalog_refresher")),
		client:        tlsutil.SecureHTTPClient(cfg.ProbeTimeout),
		probeFailures: make(map[string]int),
		reports:       make(chan RefreshReport, 16),
		done:          make(chan struct{}),
	}
}

// NewRefresherFromConfig wires a refresher from the registry section of
// the application config, choosing the HTTP endpoint or static seeds as
// the source.
func NewRefresherFromConfig(cat *Catalog, cfg config.RegistryConfig, logger *zap.Logger) *Refresher {
	rc := DefaultRefresherConfig()
	if cfg.RefreshInterval > 0 {
		rc.Interval = cfg.RefreshInterval
	}
	if cfg.ProbeTimeout > 0 {
		rc.ProbeTimeout = cfg.ProbeTimeout
	}
	rc.ProbeConcurrency = cfg.ProbeConcurrency
	return NewRefresher(cat, NewSourceFromConfig(cfg), rc, logger)
}

// Reports returns the channel carrying one report per completed cycle.
// Sends are non-blocking: a slow consumer loses reports, never stalls
// refreshing. The channel is never closed; consumers select on their own
// shutdown signal.
func (r *Refresher) Reports() <-chan RefreshReport {
	return r.reports
}

// Start runs one synchronous refresh so the catalog is warm, then
// launches the periodic loop. Calling Start twice is an error.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("refresher already started")
	}

	r.RefreshNow(ctx)

	r.wg.Add(1)
	go r.run(ctx)

	r.logger.Info("catalog refresher started",
		zap.Duration("interval", r.config.Interval),
		zap.Int("probe_concurrency", r.config.ProbeConcurrency),
	)
	return nil
}

// Stop terminates the periodic loop and waits for it to exit. Safe to
// call more than once.
func (r *Refresher) Stop() {
	r.stop.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("catalog refresher stopped")
	})
}

func (r *Refresher) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RefreshNow(ctx)
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RefreshNow runs one refresh cycle immediately. Returns false without
// running when another cycle is already in flight.
func (r *Refresher) RefreshNow(ctx context.Context) (RefreshReport, bool) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("refresh already in flight, skipping")
		return RefreshReport{}, false
	}
	defer r.inFlight.Store(false)

	start := time.Now()
	report := RefreshReport{At: start}

	profiles, err := r.source.Fetch(ctx)
	if err != nil {
		r.fetchFailures++
		report.Err = err
		r.logger.Warn("registry fetch failed",
			zap.Int("consecutive_failures", r.fetchFailures),
			zap.Error(err),
		)
		if r.fetchFailures >= r.config.FailureThreshold {
			r.catalog.SetDegraded(true)
		}
	} else {
		r.fetchFailures = 0
		r.catalog.SetDegraded(false)
		r.catalog.Sync(profiles)
		r.pruneFailureCounts(profiles)
		if r.config.ProbeConcurrency > 0 {
			r.probeAll(ctx)
		}
	}

	report.AgentCount = r.catalog.Len()
	report.Degraded = r.catalog.Degraded()
	report.Duration = time.Since(start)

	select {
	case r.reports <- report:
	default:
	}
	return report, true
}

// pruneFailureCounts drops probe counters for agents no longer listed.
func (r *Refresher) pruneFailureCounts(profiles []AgentProfile) {
	current := make(map[string]bool, len(profiles))
	for i := range profiles {
		current[profiles[i].ID] = true
	}

	r.probeMu.Lock()
	defer r.probeMu.Unlock()
	for id := range r.probeFailures {
		if !current[id] {
			delete(r.probeFailures, id)
		}
	}
}

// probeAll health-probes every probeable agent with bounded concurrency.
// Probes are advisory: results adjust agent status, never abort the cycle.
func (r *Refresher) probeAll(ctx context.Context) {
	agents := r.catalog.List()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.ProbeConcurrency)
	for _, agent := range agents {
		if agent.Status == StatusInactive || agent.Endpoint == "" {
			continue
		}
		g.Go(func() error {
			r.probeAgent(ctx, agent)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Refresher) probeAgent(ctx context.Context, agent *AgentProfile) {
	ctx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
	defer cancel()

	healthy := false
	healthURL := strings.TrimRight(agent.Endpoint, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err == nil {
		resp, derr := r.client.Do(req)
		if derr == nil {
			resp.Body.Close()
			healthy = resp.StatusCode >= 200 && resp.StatusCode < 300
		}
	}

	r.probeMu.Lock()
	defer r.probeMu.Unlock()

	if healthy {
		if r.probeFailures[agent.ID] > 0 {
			r.logger.Info("agent health recovered", zap.String("agent_id", agent.ID))
		}
		delete(r.probeFailures, agent.ID)
		r.catalog.SetStatus(agent.ID, StatusActive)
		return
	}

	r.probeFailures[agent.ID]++
	failures := r.probeFailures[agent.ID]
	r.logger.Warn("agent health probe failed",
		zap.String("agent_id", agent.ID),
		zap.Int("consecutive_failures", failures),
	)
	if failures >= r.config.FailureThreshold {
		r.catalog.SetStatus(agent.ID, StatusInactive)
	} else {
		r.catalog.SetStatus(agent.ID, StatusUnknown)
	}
}
