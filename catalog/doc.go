// Package catalog provides the agent catalog: registration, scoring, and
// selection of worker agents for capability-based task assignment.
//
// The catalog is the single owner of agent profiles. Planners and
// analyzers read it; a background refresher writes it. Reads are
// lock-free against atomically published snapshots, so selection keeps
// working at full speed while a refresh cycle runs.
//
// # Capabilities
//
// Capabilities form a closed set of tags (summarize, create_presentation,
// analyze_data, generate_content, code_generation, research, translate,
// calculate, multi_step). Tags outside the set are dropped at parse time
// and never stored.
//
// # Selection
//
// FindBest filters candidates by capability membership and non-inactive
// status, then ranks them with the pure Score function:
//
//   - performance (40%): mean of recorded rating values, 0.5 when none
//   - health (30%): active 1.0, unknown 0.5, inactive 0
//   - schema compatibility (20%): input type, format overlap, length limit
//   - specialization (10%): capability text in the agent's name/description
//
// Ties keep the earliest-registered candidate, so rankings are stable
// across refreshes that merely re-list the same agents.
//
// # Basic Usage
//
// Create a catalog and register agents:
//
//	cat := catalog.New(logger)
//	cat.Register(catalog.AgentProfile{
//	    ID:           "summarizer-1",
//	    Name:         "Summarizer",
//	    Endpoint:     "http://localhost:9101",
//	    Capabilities: []catalog.Capability{catalog.CapabilitySummarize},
//	    Status:       catalog.StatusActive,
//	})
//
//	agent, ok := cat.FindBest(catalog.CapabilitySummarize, catalog.Requirements{
//	    InputType:   "text",
//	    InputLength: 4000,
//	})
//
// # Refreshing
//
// A Refresher polls a Source (registry HTTP endpoint or static config
// seeds) on a fixed interval and reconciles the catalog against the
// listing. Overlapping cycles are skipped by an in-flight guard. Each
// cycle optionally health-probes agent endpoints with bounded
// concurrency; probe results adjust agent status but never block
// selection. Three consecutive source failures flip the catalog's
// degraded flag while selection keeps serving the last good snapshot.
//
//	refresher := catalog.NewRefresherFromConfig(cat, cfg.Registry, logger)
//	if err := refresher.Start(ctx); err != nil {
//	    return err
//	}
//	defer refresher.Stop()
//
//	go func() {
//	    for report := range refresher.Reports() {
//	        logger.Info("catalog refreshed",
//	            zap.Int("agents", report.AgentCount),
//	            zap.Bool("degraded", report.Degraded))
//	    }
//	}()
package catalog
