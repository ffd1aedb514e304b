package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// snapshot is one immutable published state of the catalog. Readers load
// the current snapshot and work on it without locking; writers build a
// new snapshot and publish it whole, so a reader never observes a
// partial update.
type snapshot struct {
	// order holds agent ids in registration order. Selection iterates it
	// so score ties keep the earliest-registered candidate.
	order  []string
	agents map[string]*AgentProfile
}

func emptySnapshot() *snapshot {
	return &snapshot{agents: make(map[string]*AgentProfile)}
}

// clone returns a mutable copy of the snapshot for a writer to modify.
// Profiles are deep-copied so published snapshots stay immutable.
func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		order:  make([]string, len(s.order)),
		agents: make(map[string]*AgentProfile, len(s.agents)),
	}
	copy(next.order, s.order)
	for id, p := range s.agents {
		next.agents[id] = p.Clone()
	}
	return next
}

// Catalog stores agent profiles and selects the best agent for a
// capability. Reads are lock-free against an atomically published
// snapshot; writes serialize on a mutex and publish whole new snapshots.
type Catalog struct {
	// mu serializes writers. Readers never take it.
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]

	// seq hands out registration sequence numbers, monotonic per catalog.
	seq uint64

	// degraded is set by the refresher after repeated source failures.
	// A degraded catalog still serves its last good snapshot.
	degraded atomic.Bool

	logger *zap.Logger
}

// New creates an empty catalog.
func New(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		logger: logger.With(zap.String("component", "agent_catalog")),
	}
	c.snap.Store(emptySnapshot())
	return c
}

// Register adds a profile or, when the id is already present, replaces it
// in place. Replacement keeps the original registration sequence and
// position, so selection tie-breaks stay stable across refreshes.
func (c *Catalog) Register(profile AgentProfile) error {
	if profile.ID == "" {
		return fmt.Errorf("agent id is empty")
	}
	if profile.Status == "" {
		profile.Status = StatusUnknown
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snap.Load().clone()
	stored := profile.Clone()

	if prev, exists := next.agents[profile.ID]; exists {
		stored.Seq = prev.Seq
		stored.RegisteredAt = prev.RegisteredAt
	} else {
		c.seq++
		stored.Seq = c.seq
		stored.RegisteredAt = time.Now()
		next.order = append(next.order, profile.ID)
	}
	next.agents[profile.ID] = stored
	c.snap.Store(next)

	c.logger.Debug("agent registered",
		zap.String("agent_id", profile.ID),
		zap.Int("capabilities", len(profile.Capabilities)),
	)
	return nil
}

// Remove deletes an agent. Returns false when the id is unknown.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	if _, exists := cur.agents[id]; !exists {
		return false
	}

	next := cur.clone()
	delete(next.agents, id)
	for i, oid := range next.order {
		if oid == id {
			next.order = append(next.order[:i], next.order[i+1:]...)
			break
		}
	}
	c.snap.Store(next)

	c.logger.Debug("agent removed", zap.String("agent_id", id))
	return true
}

// SetStatus updates one agent's health status. Returns false when the id
// is unknown.
func (c *Catalog) SetStatus(id string, status AgentStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	prev, exists := cur.agents[id]
	if !exists {
		return false
	}
	if prev.Status == status {
		return true
	}

	next := cur.clone()
	next.agents[id].Status = status
	c.snap.Store(next)

	c.logger.Debug("agent status updated",
		zap.String("agent_id", id),
		zap.String("old_status", string(prev.Status)),
		zap.String("new_status", string(status)),
	)
	return true
}

// Sync reconciles the catalog against a full profile listing from the
// registry source: listed agents are registered or updated, agents absent
// from the listing are removed. One snapshot is published for the whole
// cycle. Profiles without an id are skipped.
func (c *Catalog) Sync(profiles []AgentProfile) (added, updated, removed int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snap.Load().clone()

	seen := make(map[string]bool, len(profiles))
	for i := range profiles {
		p := profiles[i]
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if p.Status == "" {
			p.Status = StatusUnknown
		}

		stored := p.Clone()
		if prev, exists := next.agents[p.ID]; exists {
			stored.Seq = prev.Seq
			stored.RegisteredAt = prev.RegisteredAt
			updated++
		} else {
			c.seq++
			stored.Seq = c.seq
			stored.RegisteredAt = time.Now()
			next.order = append(next.order, p.ID)
			added++
		}
		next.agents[p.ID] = stored
	}

	kept := next.order[:0]
	for _, id := range next.order {
		if seen[id] {
			kept = append(kept, id)
		} else {
			delete(next.agents, id)
			removed++
		}
	}
	next.order = kept

	c.snap.Store(next)

	if added+updated+removed > 0 {
		c.logger.Info("catalog synced",
			zap.Int("added", added),
			zap.Int("updated", updated),
			zap.Int("removed", removed),
			zap.Int("total", len(next.order)),
		)
	}
	return added, updated, removed
}

// Get returns a copy of the profile for the given id.
func (c *Catalog) Get(id string) (*AgentProfile, bool) {
	p, exists := c.snap.Load().agents[id]
	if !exists {
		return nil, false
	}
	return p.Clone(), true
}

// List returns copies of all profiles in registration order.
func (c *Catalog) List() []*AgentProfile {
	snap := c.snap.Load()
	out := make([]*AgentProfile, 0, len(snap.order))
	for _, id := range snap.order {
		out = append(out, snap.agents[id].Clone())
	}
	return out
}

// Len returns the number of registered agents.
func (c *Catalog) Len() int {
	return len(c.snap.Load().agents)
}

// FindBest selects the highest-scoring agent that lists the capability
// and is not inactive. Ties keep the earliest-registered candidate.
// Returns false when no agent is eligible.
func (c *Catalog) FindBest(capability Capability, req Requirements) (*AgentProfile, bool) {
	snap := c.snap.Load()

	var best *AgentProfile
	var bestScore float64
	for _, id := range snap.order {
		p := snap.agents[id]
		if p.Status == StatusInactive || !p.HasCapability(capability) {
			continue
		}
		score := Score(p, capability, req)
		// Strict comparison keeps the earliest on equal scores.
		if best == nil || score > bestScore {
			best = p
			bestScore = score
		}
	}
	if best == nil {
		return nil, false
	}

	c.logger.Debug("agent selected",
		zap.String("capability", string(capability)),
		zap.String("agent_id", best.ID),
		zap.Float64("score", bestScore),
	)
	return best.Clone(), true
}

// Degraded reports whether the refresher has flagged the catalog as
// serving stale data after repeated source failures.
func (c *Catalog) Degraded() bool {
	return c.degraded.Load()
}

// SetDegraded flips the degraded flag. Selection keeps working on the
// last good snapshot either way.
func (c *Catalog) SetDegraded(v bool) {
	if c.degraded.Swap(v) != v {
		if v {
			c.logger.Warn("catalog degraded, serving stale snapshot")
		} else {
			c.logger.Info("catalog recovered")
		}
	}
}
