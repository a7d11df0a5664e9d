package match

// CommandRelay issues bulk movement orders to an explicit roster. The
// roster-first shape means nothing ever has to mutate a shared "selected"
// set to reuse the relay: a player's selection is untouched by AI orders.
type CommandRelay interface {
	IssueMove(roster []*CombatUnit, target Vec2)
	IssueAttackMove(roster []*CombatUnit, target Vec2)
}

// ProductionItem is one queued build.
type ProductionItem struct {
	ID        string
	Cost      int
	BuildTime float64 // seconds
}

// ProductionQueue is the build-order contract the commander drives.
// Enqueue returning false is back-pressure (insufficient funds or a full
// queue); the commander retries on a later tick.
type ProductionQueue interface {
	Enqueue(item ProductionItem) bool
	Backlog() int
}

// PlacementFunc validates a build-pad footprint. The real geometric check
// lives outside the core; tests and the server supply simple ones.
type PlacementFunc func(pos Vec2, footprint Vec2) bool

// unitRelay is the in-process CommandRelay: it steers rosters by writing
// destinations straight into each unit's mover.
type unitRelay struct{}

func (unitRelay) IssueMove(roster []*CombatUnit, target Vec2) {
	for _, u := range roster {
		if u == nil || !u.Alive() {
			continue
		}
		u.aggressive = false
		u.SetDestination(target)
	}
}

func (unitRelay) IssueAttackMove(roster []*CombatUnit, target Vec2) {
	for _, u := range roster {
		if u == nil || !u.Alive() {
			continue
		}
		u.aggressive = true
		u.SetDestination(target)
	}
}
