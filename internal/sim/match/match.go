package match

import (
	"fmt"
	"log"
	"time"

	"ironveld.gg/internal/persistence/snapshot"
	"ironveld.gg/internal/protocol"
)

// Config is the static shape of a match. Dynamic state lives on the
// entities; Config never changes after New.
type Config struct {
	ID                 string
	Seed               int64
	TickRateHz         int
	SnapshotEveryTicks int

	// Epoch anchors simulation time: tick N happens at Epoch + N*interval.
	// Replays of the same tick sequence therefore see identical timestamps.
	Epoch time.Time
}

// TickLogEntry is one tick's record in the persistent log.
type TickLogEntry struct {
	Tick   uint64           `json:"tick"`
	Events []protocol.Event `json:"events,omitempty"`
	Digest string           `json:"digest"`
}

// TickLogger persists tick entries. Implemented in internal/persistence.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickResult summarizes one completed scheduler pass.
type TickResult struct {
	Tick   uint64
	Now    time.Time
	Events []protocol.Event
	Digest string
}

// Match is a single authoritative simulation. All state is owned by the
// match loop goroutine; nothing here is safe for concurrent use. Logical
// concurrency between agents is resolved purely by reservation arithmetic
// and queueing inside one synchronous scheduler pass.
type Match struct {
	cfg    Config
	logger *log.Logger

	sched    *Scheduler
	spatial  *SpatialIndex
	recorder *eventRecorder
	relay    CommandRelay
	systems  *matchSystems

	nodes      []*ResourceNode
	depots     []*Depot
	harvesters []*Harvester
	units      []*CombatUnit
	factories  []*Factory
	commanders []*Commander
	economies  map[TeamID]*Economy

	tickLogger   TickLogger
	snapshotSink chan<- snapshot.SnapshotV1

	// Runtime loop plumbing (see runtime_loop.go).
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	observers     map[string]*observerSession
	stop          chan struct{}
}

func New(cfg Config, logger *log.Logger) *Match {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 4
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = time.Unix(0, 0).UTC()
	}
	m := &Match{
		cfg:           cfg,
		logger:        logger,
		spatial:       NewSpatialIndex(),
		recorder:      &eventRecorder{},
		relay:         unitRelay{},
		economies:     make(map[TeamID]*Economy),
		observerJoin:  make(chan ObserverJoinRequest, 4),
		observerLeave: make(chan string, 4),
		observers:     make(map[string]*observerSession),
		stop:          make(chan struct{}),
	}
	m.sched = NewScheduler(time.Second/time.Duration(cfg.TickRateHz), logger)
	// The systems participant runs first in every pass: movers advance and
	// dock triggers fire before any FSM sees the tick.
	m.systems = &matchSystems{m: m}
	m.sched.Register(m.systems)
	return m
}

func (m *Match) Config() Config        { return m.cfg }
func (m *Match) Scheduler() *Scheduler { return m.sched }
func (m *Match) Spatial() *SpatialIndex { return m.spatial }
func (m *Match) Events() EventSink     { return m.recorder }
func (m *Match) Relay() CommandRelay   { return m.relay }
func (m *Match) CurrentTick() uint64   { return m.sched.Tick() }

func (m *Match) SetTickLogger(l TickLogger) { m.tickLogger = l }

// SetSnapshotSink enables periodic snapshot export. Sends are non-blocking:
// a full channel skips that cadence point rather than stalling the tick.
func (m *Match) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { m.snapshotSink = ch }

func (m *Match) TicksPerSecond() int { return m.cfg.TickRateHz }

// SimTime returns the simulation timestamp of a tick.
func (m *Match) SimTime(tick uint64) time.Time {
	return m.cfg.Epoch.Add(time.Duration(tick) * m.sched.Interval())
}

// Economy returns (creating on first use) the funds ledger for a team.
func (m *Match) Economy(team TeamID) *Economy {
	if e, ok := m.economies[team]; ok {
		return e
	}
	e := NewEconomy(team, 0, m.recorder)
	m.economies[team] = e
	return e
}

func (m *Match) Nodes() []*ResourceNode  { return m.nodes }
func (m *Match) Depots() []*Depot        { return m.depots }
func (m *Match) Harvesters() []*Harvester { return m.harvesters }
func (m *Match) Units() []*CombatUnit    { return m.units }

// AddNode builds a node wired into the match and activates it.
func (m *Match) AddNode(cfg NodeConfig) *ResourceNode {
	cfg.Events = m.recorder
	n := NewResourceNode(cfg)
	m.nodes = append(m.nodes, n)
	m.spatial.Insert(n)
	m.sched.Register(n)
	return n
}

// AddDepot builds a depot depositing into the team's economy.
func (m *Match) AddDepot(cfg DepotConfig) *Depot {
	cfg.Events = m.recorder
	if cfg.Sink == nil {
		cfg.Sink = m.Economy(cfg.Team)
	}
	d := NewDepot(cfg)
	m.depots = append(m.depots, d)
	m.spatial.Insert(d)
	return d
}

// AddHarvester builds a harvester and activates it. Registration order is
// processing order within a tick, which the contention semantics rely on.
func (m *Match) AddHarvester(cfg HarvesterConfig) *Harvester {
	cfg.Spatial = m.spatial
	if cfg.TicksPerSecond <= 0 {
		cfg.TicksPerSecond = m.cfg.TickRateHz
	}
	h := NewHarvester(cfg)
	m.harvesters = append(m.harvesters, h)
	m.spatial.Insert(h)
	m.sched.Register(h)
	return h
}

// AddFactory builds a production queue that spawns into this match.
func (m *Match) AddFactory(cfg FactoryConfig) *Factory {
	cfg.Events = m.recorder
	if cfg.Economy == nil {
		cfg.Economy = m.Economy(cfg.Team)
	}
	if cfg.TicksPerSecond <= 0 {
		cfg.TicksPerSecond = m.cfg.TickRateHz
	}
	if cfg.Spawn == nil {
		cfg.Spawn = m.adoptUnit
	}
	f := NewFactory(cfg)
	m.factories = append(m.factories, f)
	m.sched.Register(f)
	return f
}

// AddUnit places a pre-built combat unit into the match.
func (m *Match) AddUnit(cfg UnitConfig) *CombatUnit {
	cfg.Events = m.recorder
	u := NewCombatUnit(cfg)
	m.adoptUnit(u)
	return u
}

func (m *Match) adoptUnit(u *CombatUnit) {
	m.units = append(m.units, u)
	m.spatial.Insert(u)
}

// AddCommander attaches the opponent FSM for a team.
func (m *Match) AddCommander(cfg CommanderConfig) *Commander {
	cfg.Spatial = m.spatial
	cfg.Events = m.recorder
	if cfg.Relay == nil {
		cfg.Relay = m.relay
	}
	c := NewCommander(cfg)
	m.commanders = append(m.commanders, c)
	m.sched.Register(c)
	return c
}

// StepOnce advances exactly one tick and returns its result. The server
// loop, the replayer, and the tests all come through here, so ordering
// semantics cannot drift between them.
func (m *Match) StepOnce() TickResult {
	tick := m.sched.Tick() + 1
	m.recorder.tick = tick
	ctx := m.sched.Advance(m.SimTime(tick))
	return m.postPass(ctx)
}

func (m *Match) postPass(ctx TickContext) TickResult {
	m.sweepDepleted()
	m.sweepDead()

	result := TickResult{
		Tick:   ctx.Tick,
		Now:    ctx.Now,
		Events: m.recorder.drain(),
		Digest: m.stateDigest(ctx.Tick),
	}
	if m.tickLogger != nil {
		if err := m.tickLogger.WriteTick(TickLogEntry{
			Tick:   result.Tick,
			Events: result.Events,
			Digest: result.Digest,
		}); err != nil && m.logger != nil {
			m.logger.Printf("tick %d: tick log write failed: %v", result.Tick, err)
		}
	}
	if m.snapshotSink != nil && m.cfg.SnapshotEveryTicks > 0 && result.Tick%uint64(m.cfg.SnapshotEveryTicks) == 0 {
		select {
		case m.snapshotSink <- m.ExportSnapshot(result.Tick):
		default:
		}
	}
	return result
}

// sweepDepleted deactivates depleted nodes: out of the spatial index so
// SeekNode stops finding them, out of the scheduler since their passive
// hook has nothing left to do. The objects stay alive; harvesters holding
// stale references degrade through their own transitions.
func (m *Match) sweepDepleted() {
	for _, n := range m.nodes {
		if n.Depleted() && m.sched.Registered(n) {
			m.spatial.Remove(n)
			m.sched.Unregister(n)
		}
	}
}

// sweepDead drops destroyed units from the index and the roster list.
// Commander squads keep their pointers; Alive() filters them out until the
// next wholesale assembly.
func (m *Match) sweepDead() {
	kept := m.units[:0]
	for _, u := range m.units {
		if u.Alive() {
			kept = append(kept, u)
			continue
		}
		m.spatial.Remove(u)
	}
	for i := len(kept); i < len(m.units); i++ {
		m.units[i] = nil
	}
	m.units = kept
}

// matchSystems is the first scheduler participant: per-tick infrastructure
// that must run before any FSM (locomotion advance, dock proximity
// triggers).
type matchSystems struct {
	m *Match
}

func (s *matchSystems) OnTick(ctx TickContext) {
	s.m.systemMovement(ctx)
	s.m.systemDockTriggers()
}

func (m *Match) systemMovement(ctx TickContext) {
	for _, h := range m.harvesters {
		h.advance(ctx.Delta)
	}
	for _, u := range m.units {
		u.advance(ctx.Delta)
	}
}

// systemDockTriggers is the depot proximity volume: harvesters heading for
// a depot get a slot attempt on entry and release on exit. This is the
// assignment path the Docking state waits on; unload completion is the
// other release path, and both converge on Depot.ReleaseDock.
func (m *Match) systemDockTriggers() {
	for _, h := range m.harvesters {
		d := h.TargetDepot()
		if d == nil {
			continue
		}
		inside := Dist(h.Position(), d.EntityPos()) <= d.TriggerRadius
		switch {
		case inside && h.dockSlot < 0:
			if slot, pos, ok := d.TryAssignDock(h.EntityID()); ok {
				h.setDock(slot, pos)
			}
		case !inside && h.dockSlot >= 0:
			d.ReleaseDock(h.EntityID())
			h.clearDock()
		}
	}
}

func (m *Match) nodeByID(id string) *ResourceNode {
	for _, n := range m.nodes {
		if n.id == id {
			return n
		}
	}
	return nil
}

func (m *Match) depotByID(id string) *Depot {
	for _, d := range m.depots {
		if d.id == id {
			return d
		}
	}
	return nil
}

func (m *Match) unitByID(id string) *CombatUnit {
	for _, u := range m.units {
		if u.id == id {
			return u
		}
	}
	return nil
}

// DamageUnit applies damage by unit ID; the entry point combat layers and
// the demo attrition hook use.
func (m *Match) DamageUnit(id string, amount int) error {
	u := m.unitByID(id)
	if u == nil {
		return fmt.Errorf("unknown unit %q", id)
	}
	u.ApplyDamage(amount)
	return nil
}
