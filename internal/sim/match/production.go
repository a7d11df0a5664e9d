package match

import (
	"fmt"
	"math"

	"ironveld.gg/internal/protocol"
)

// Factory is the in-process ProductionQueue: a funds-reserving FIFO. Cost
// is debited at enqueue time (that is the reservation; a full backlog or an
// empty ledger simply rejects), and the finished unit spawns at the staging
// point after BuildTime worth of ticks.
type Factory struct {
	id      string
	team    TeamID
	staging Vec2

	economy *Economy
	events  EventSink
	tps     int

	unitHP    int
	unitSpeed float64

	queue []pendingBuild

	nextUnitNum int
	spawn       func(u *CombatUnit)
}

type pendingBuild struct {
	item      ProductionItem
	ticksLeft int
}

type FactoryConfig struct {
	ID             string
	Team           TeamID
	StagingPos     Vec2
	Economy        *Economy
	Events         EventSink
	TicksPerSecond int
	UnitHP         int
	UnitSpeed      float64
	// Spawn receives each finished unit; the match uses it to index the
	// unit and start ticking its mover.
	Spawn func(u *CombatUnit)
}

func NewFactory(cfg FactoryConfig) *Factory {
	events := cfg.Events
	if events == nil {
		events = discardSink{}
	}
	tps := cfg.TicksPerSecond
	if tps <= 0 {
		tps = 4
	}
	unitHP := cfg.UnitHP
	if unitHP <= 0 {
		unitHP = 100
	}
	return &Factory{
		id:        cfg.ID,
		team:      cfg.Team,
		staging:   cfg.StagingPos,
		economy:   cfg.Economy,
		events:    events,
		tps:       tps,
		unitHP:    unitHP,
		unitSpeed: cfg.UnitSpeed,
		spawn:     cfg.Spawn,
	}
}

func (f *Factory) StagingPos() Vec2 { return f.staging }

// Enqueue reserves the item's cost and stages the build. False means the
// funds (or the ledger itself) were not there; the caller retries later.
func (f *Factory) Enqueue(item ProductionItem) bool {
	if f.economy == nil || !f.economy.TryDebit(item.Cost) {
		return false
	}
	ticks := int(math.Ceil(item.BuildTime * float64(f.tps)))
	if ticks < 1 {
		ticks = 1
	}
	f.queue = append(f.queue, pendingBuild{item: item, ticksLeft: ticks})
	return true
}

func (f *Factory) Backlog() int { return len(f.queue) }

// OnTick advances the head of the queue; one unit builds at a time.
func (f *Factory) OnTick(ctx TickContext) {
	if len(f.queue) == 0 {
		return
	}
	f.queue[0].ticksLeft--
	if f.queue[0].ticksLeft > 0 {
		return
	}
	done := f.queue[0].item
	f.queue = f.queue[1:]

	f.nextUnitNum++
	unit := NewCombatUnit(UnitConfig{
		ID:     fmt.Sprintf("%s-u%04d", f.id, f.nextUnitNum),
		Team:   f.team,
		Pos:    f.staging,
		Speed:  f.unitSpeed,
		MaxHP:  f.unitHP,
		Cost:   done.Cost,
		Events: f.events,
	})
	f.events.Emit(protocol.Event{
		"type":    protocol.EventProductionDone,
		"team":    int(f.team),
		"item":    done.ID,
		"unit_id": unit.EntityID(),
	})
	if f.spawn != nil {
		f.spawn(unit)
	}
}
