package match

import (
	"testing"

	"ironveld.gg/internal/protocol"
)

func TestFactoryEnqueueDebitsUpFront(t *testing.T) {
	eco := NewEconomy(2, 500, nil)
	f := NewFactory(FactoryConfig{ID: "F1", Team: 2, Economy: eco, TicksPerSecond: 4})

	item := ProductionItem{ID: "soldier", Cost: 300, BuildTime: 10}
	if !f.Enqueue(item) {
		t.Fatalf("enqueue rejected with sufficient funds")
	}
	if eco.Funds() != 200 {
		t.Fatalf("funds = %d, want 200 (cost reserved at enqueue)", eco.Funds())
	}
	if f.Enqueue(item) {
		t.Fatalf("enqueue accepted with insufficient funds")
	}
	if f.Backlog() != 1 {
		t.Fatalf("backlog = %d, want 1", f.Backlog())
	}
}

func TestFactoryBuildsHeadOnly(t *testing.T) {
	eco := NewEconomy(2, 1000, nil)
	sink := &captureSink{}
	var spawned []*CombatUnit
	f := NewFactory(FactoryConfig{
		ID: "F1", Team: 2, Economy: eco, Events: sink, TicksPerSecond: 4,
		UnitHP: 100, Spawn: func(u *CombatUnit) { spawned = append(spawned, u) },
	})

	// Two items at 1s build time = 4 ticks each, built serially.
	f.Enqueue(ProductionItem{ID: "soldier", Cost: 300, BuildTime: 1})
	f.Enqueue(ProductionItem{ID: "soldier", Cost: 300, BuildTime: 1})

	for i := 0; i < 4; i++ {
		f.OnTick(TickContext{})
	}
	if len(spawned) != 1 {
		t.Fatalf("spawned %d units after 4 ticks, want 1", len(spawned))
	}
	for i := 0; i < 4; i++ {
		f.OnTick(TickContext{})
	}
	if len(spawned) != 2 {
		t.Fatalf("spawned %d units after 8 ticks, want 2", len(spawned))
	}
	if got := sink.countType(protocol.EventProductionDone); got != 2 {
		t.Fatalf("PRODUCTION_DONE events = %d, want 2", got)
	}
	if spawned[0].EntityID() == spawned[1].EntityID() {
		t.Fatalf("duplicate unit id %q", spawned[0].EntityID())
	}
	if spawned[0].HP() != 100 || spawned[0].Cost() != 300 {
		t.Fatalf("unit hp=%d cost=%d, want 100/300", spawned[0].HP(), spawned[0].Cost())
	}
}

func TestUnitDeathEventFiresOnce(t *testing.T) {
	sink := &captureSink{}
	u := NewCombatUnit(UnitConfig{ID: "U1", Team: 2, MaxHP: 50, Events: sink})

	u.ApplyDamage(30)
	u.ApplyDamage(30)
	u.ApplyDamage(30) // already dead; ignored
	if u.HP() != 0 || u.Alive() {
		t.Fatalf("hp = %d alive=%v, want 0/false", u.HP(), u.Alive())
	}
	if got := sink.countType(protocol.EventUnitDied); got != 1 {
		t.Fatalf("UNIT_DIED events = %d, want 1", got)
	}
	if got := sink.countType(protocol.EventUnderAttack); got != 2 {
		t.Fatalf("UNDER_ATTACK events = %d, want 2 (dead units don't report hits)", got)
	}
}
