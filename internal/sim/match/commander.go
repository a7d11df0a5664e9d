package match

import (
	"time"

	"ironveld.gg/internal/protocol"
)

// CommanderState is the opponent FSM state.
type CommanderState int

const (
	CommanderBootstrap CommanderState = iota
	CommanderEconomy
	CommanderTechProduction
	CommanderAttack
	CommanderRegroup
)

func (s CommanderState) String() string {
	switch s {
	case CommanderBootstrap:
		return "BOOTSTRAP"
	case CommanderEconomy:
		return "ECONOMY"
	case CommanderTechProduction:
		return "TECH_PRODUCTION"
	case CommanderAttack:
		return "ATTACK"
	case CommanderRegroup:
		return "REGROUP"
	default:
		return "UNKNOWN"
	}
}

// BuildPad is one planned structure placement. The cursor over pads only
// ever advances; a failed placement retries the same pad next tick.
type BuildPad struct {
	Pos       Vec2
	Footprint Vec2
	Placed    bool
}

// squadQueryCap bounds squad-assembly spatial queries. A wave never fields
// more units than this, so the query buffer is allocated once.
const squadQueryCap = 64

// Commander is the autonomous opponent: one instance per AI team, alive
// for the whole match. After the linear Bootstrap -> Economy warmup it
// cycles TechProduction <-> Attack <-> Regroup forever.
type Commander struct {
	team  TeamID
	enemy TeamID

	state CommanderState

	enemyPos      Vec2
	enemyResolved bool

	pads      []BuildPad
	padCursor int

	buildItems  []ProductionItem
	buildCursor int

	squad     []*CombatUnit
	rolloutHP int

	nextWaveAt  time.Time
	lastOrderAt time.Time

	stagingPos    Vec2
	stagingRadius float64

	armyValueThreshold int
	backlogThreshold   int
	waveWindowMin      time.Duration
	waveWindowMax      time.Duration
	retreatFraction    float64
	orderCadence       time.Duration

	production ProductionQueue
	relay      CommandRelay
	spatial    *SpatialIndex
	placement  PlacementFunc
	events     EventSink

	queryBuf []Entity
}

type CommanderConfig struct {
	Team      TeamID
	EnemyTeam TeamID

	StagingPos    Vec2
	StagingRadius float64

	Pads       []BuildPad
	BuildItems []ProductionItem

	ArmyValueThreshold int
	BacklogThreshold   int
	WaveWindowMin      time.Duration
	WaveWindowMax      time.Duration
	RetreatFraction    float64
	OrderCadence       time.Duration

	Production ProductionQueue
	Relay      CommandRelay
	Spatial    *SpatialIndex
	Placement  PlacementFunc
	Events     EventSink
}

func NewCommander(cfg CommanderConfig) *Commander {
	events := cfg.Events
	if events == nil {
		events = discardSink{}
	}
	retreat := cfg.RetreatFraction
	if retreat <= 0 || retreat >= 1 {
		retreat = 0.35
	}
	return &Commander{
		team:               cfg.Team,
		enemy:              cfg.EnemyTeam,
		state:              CommanderBootstrap,
		pads:               append([]BuildPad(nil), cfg.Pads...),
		buildItems:         append([]ProductionItem(nil), cfg.BuildItems...),
		stagingPos:         cfg.StagingPos,
		stagingRadius:      cfg.StagingRadius,
		armyValueThreshold: cfg.ArmyValueThreshold,
		backlogThreshold:   cfg.BacklogThreshold,
		waveWindowMin:      cfg.WaveWindowMin,
		waveWindowMax:      cfg.WaveWindowMax,
		retreatFraction:    retreat,
		orderCadence:       cfg.OrderCadence,
		production:         cfg.Production,
		relay:              cfg.Relay,
		spatial:            cfg.Spatial,
		placement:          cfg.Placement,
		events:             events,
		queryBuf:           make([]Entity, 0, squadQueryCap),
	}
}

func (c *Commander) State() CommanderState { return c.state }
func (c *Commander) Squad() []*CombatUnit  { return c.squad }
func (c *Commander) RolloutHP() int        { return c.rolloutHP }
func (c *Commander) PadCursor() int        { return c.padCursor }
func (c *Commander) NextWaveAt() time.Time { return c.nextWaveAt }

func (c *Commander) OnTick(ctx TickContext) {
	switch c.state {
	case CommanderBootstrap:
		c.tickBootstrap()
	case CommanderEconomy:
		c.state = CommanderTechProduction
	case CommanderTechProduction:
		c.tickTechProduction(ctx)
	case CommanderAttack:
		c.tickAttack(ctx)
	case CommanderRegroup:
		c.tickRegroup(ctx)
	}
}

func (c *Commander) tickBootstrap() {
	c.resolveEnemy()
	// Unconditional: an unresolved enemy is retried lazily at wave launch.
	c.state = CommanderEconomy
}

func (c *Commander) resolveEnemy() {
	if c.enemyResolved {
		return
	}
	if ent, ok := c.spatial.Nearest(TagDepot, c.enemy, c.stagingPos, unboundedRadius); ok {
		c.enemyPos = ent.EntityPos()
		c.enemyResolved = true
	}
}

// Harvester counts are externally maintained; the Economy state only exists
// as the bootstrap step between target resolution and tech pacing, so its
// handler above is a bare transition.

func (c *Commander) tickTechProduction(ctx TickContext) {
	if c.nextWaveAt.IsZero() {
		c.scheduleNextWave(ctx.Now)
	}

	// Place the next unplaced pad; a failed footprint check retries the
	// same pad rather than skipping it.
	if c.padCursor < len(c.pads) && c.placement != nil {
		pad := &c.pads[c.padCursor]
		if c.placement(pad.Pos, pad.Footprint) {
			pad.Placed = true
			c.padCursor++
			c.events.Emit(protocol.Event{
				"type": protocol.EventPadPlaced,
				"team": int(c.team),
				"pad":  c.padCursor - 1,
			})
		}
	}

	// Throttle production: a deep backlog means funds are already committed.
	if c.production != nil && len(c.buildItems) > 0 && c.production.Backlog() < c.backlogThreshold {
		item := c.buildItems[c.buildCursor%len(c.buildItems)]
		if c.production.Enqueue(item) {
			c.buildCursor++
		}
	}

	if c.armyValue() >= c.armyValueThreshold || !ctx.Now.Before(c.nextWaveAt) {
		c.launchWave(ctx)
	}
}

func (c *Commander) tickAttack(ctx TickContext) {
	current := 0
	alive := 0
	for _, u := range c.squad {
		if u == nil || !u.Alive() {
			continue
		}
		alive++
		current += u.HP()
	}
	if len(c.squad) == 0 || alive == 0 {
		// Nothing left to retreat.
		c.state = CommanderRegroup
		return
	}
	if c.rolloutHP > 0 && float64(current)/float64(c.rolloutHP) <= c.retreatFraction {
		c.relay.IssueMove(c.squad, c.stagingPos)
		c.lastOrderAt = ctx.Now
		c.events.Emit(protocol.Event{
			"type":       protocol.EventRetreat,
			"team":       int(c.team),
			"current_hp": current,
			"rollout_hp": c.rolloutHP,
		})
		c.state = CommanderRegroup
		return
	}
	// Keep the squad pushing, throttled so we don't spam path requests.
	if c.enemyResolved && c.cadenceElapsed(ctx.Now) {
		c.relay.IssueAttackMove(c.squad, c.enemyPos)
		c.lastOrderAt = ctx.Now
	}
}

func (c *Commander) tickRegroup(ctx TickContext) {
	if c.armyValue() >= c.armyValueThreshold/2 || !ctx.Now.Before(c.nextWaveAt) {
		c.launchWave(ctx)
	}
}

// launchWave assembles the squad wholesale, orders the attack, and advances
// the wave deadline. Shared by TechProduction and Regroup so both attack
// entries behave identically.
func (c *Commander) launchWave(ctx TickContext) {
	c.resolveEnemy()
	c.assembleSquad()
	if c.enemyResolved && len(c.squad) > 0 {
		c.relay.IssueAttackMove(c.squad, c.enemyPos)
		c.lastOrderAt = ctx.Now
	}
	c.scheduleNextWave(ctx.Now)
	c.events.Emit(protocol.Event{
		"type":       protocol.EventWaveLaunched,
		"team":       int(c.team),
		"units":      len(c.squad),
		"rollout_hp": c.rolloutHP,
	})
	c.state = CommanderAttack
}

// assembleSquad rebuilds the roster from scratch; it never patches the old
// one, so stale or destroyed entries cannot survive an assembly point.
func (c *Commander) assembleSquad() {
	c.queryBuf = c.spatial.FindWithin(TagCombatUnit, c.team, c.stagingPos, c.stagingRadius, c.queryBuf)
	squad := make([]*CombatUnit, 0, len(c.queryBuf))
	total := 0
	for _, e := range c.queryBuf {
		u, ok := e.(*CombatUnit)
		if !ok || !u.Alive() {
			continue
		}
		squad = append(squad, u)
		total += u.HP()
	}
	c.squad = squad
	c.rolloutHP = total
}

// armyValue sums the cost of living same-team units around the staging
// point.
func (c *Commander) armyValue() int {
	c.queryBuf = c.spatial.FindWithin(TagCombatUnit, c.team, c.stagingPos, c.stagingRadius, c.queryBuf)
	total := 0
	for _, e := range c.queryBuf {
		if u, ok := e.(*CombatUnit); ok && u.Alive() {
			total += u.Cost()
		}
	}
	return total
}

// scheduleNextWave advances the deadline by the deterministic midpoint of
// the configured window. No randomness: identical configs and identical
// timestamps always yield identical schedules.
func (c *Commander) scheduleNextWave(now time.Time) {
	c.nextWaveAt = now.Add((c.waveWindowMin + c.waveWindowMax) / 2)
}

func (c *Commander) cadenceElapsed(now time.Time) bool {
	if c.lastOrderAt.IsZero() {
		return true
	}
	return now.Sub(c.lastOrderAt) >= c.orderCadence
}
