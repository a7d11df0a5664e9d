package match

import "ironveld.gg/internal/protocol"

// CombatUnit is a squad member. The core never fights battles itself; it
// only needs health handles for squad aggregation, so damage arrives
// through ApplyDamage (scenario tests, and whatever combat layer sits
// above this core).
type CombatUnit struct {
	Mover

	id   string
	team TeamID

	hp    int
	maxHP int
	cost  int // army-value contribution

	aggressive bool // set by attack-move orders

	events EventSink
}

type UnitConfig struct {
	ID     string
	Team   TeamID
	Pos    Vec2
	Speed  float64
	MaxHP  int
	Cost   int
	Events EventSink
}

func NewCombatUnit(cfg UnitConfig) *CombatUnit {
	events := cfg.Events
	if events == nil {
		events = discardSink{}
	}
	maxHP := cfg.MaxHP
	if maxHP <= 0 {
		maxHP = 1
	}
	return &CombatUnit{
		Mover:  NewMover(cfg.Pos, cfg.Speed),
		id:     cfg.ID,
		team:   cfg.Team,
		hp:     maxHP,
		maxHP:  maxHP,
		cost:   cfg.Cost,
		events: events,
	}
}

func (u *CombatUnit) EntityID() string   { return u.id }
func (u *CombatUnit) EntityTag() Tag     { return TagCombatUnit }
func (u *CombatUnit) EntityTeam() TeamID { return u.team }
func (u *CombatUnit) EntityPos() Vec2    { return u.Position() }

func (u *CombatUnit) HP() int    { return u.hp }
func (u *CombatUnit) MaxHP() int { return u.maxHP }
func (u *CombatUnit) Cost() int  { return u.cost }

func (u *CombatUnit) Alive() bool { return u.hp > 0 }

func (u *CombatUnit) Aggressive() bool { return u.aggressive }

// ApplyDamage lowers HP, emitting UNDER_ATTACK on every hit and UNIT_DIED
// exactly once on the transition to zero.
func (u *CombatUnit) ApplyDamage(amount int) {
	if amount <= 0 || u.hp <= 0 {
		return
	}
	u.events.Emit(protocol.Event{
		"type":    protocol.EventUnderAttack,
		"unit_id": u.id,
		"team":    int(u.team),
	})
	u.hp -= amount
	if u.hp <= 0 {
		u.hp = 0
		u.events.Emit(protocol.Event{
			"type":    protocol.EventUnitDied,
			"unit_id": u.id,
			"team":    int(u.team),
		})
	}
}
