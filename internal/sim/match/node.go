package match

import "ironveld.gg/internal/protocol"

// ResourceNode is a depletable ore field. Reservation is the only admission
// control between competing harvesters: a claim made via TryReserve lowers
// what the next caller can see, so over-promising is impossible as long as
// all mutations happen inside one scheduler pass.
type ResourceNode struct {
	id  string
	pos Vec2

	capacity int
	reserved int

	// Informational rate hints read by harvesters and the observer stream.
	YieldPerSecond  int
	ReservePerMiner int

	depletionFired bool
	events         EventSink
}

type NodeConfig struct {
	ID              string
	Pos             Vec2
	Capacity        int
	YieldPerSecond  int
	ReservePerMiner int
	Events          EventSink
}

func NewResourceNode(cfg NodeConfig) *ResourceNode {
	events := cfg.Events
	if events == nil {
		events = discardSink{}
	}
	capacity := cfg.Capacity
	if capacity < 0 {
		capacity = 0
	}
	return &ResourceNode{
		id:              cfg.ID,
		pos:             cfg.Pos,
		capacity:        capacity,
		YieldPerSecond:  cfg.YieldPerSecond,
		ReservePerMiner: cfg.ReservePerMiner,
		events:          events,
	}
}

func (n *ResourceNode) EntityID() string   { return n.id }
func (n *ResourceNode) EntityTag() Tag     { return TagResourceNode }
func (n *ResourceNode) EntityTeam() TeamID { return TeamNeutral }
func (n *ResourceNode) EntityPos() Vec2    { return n.pos }

func (n *ResourceNode) Capacity() int { return n.capacity }
func (n *ResourceNode) Reserved() int { return n.reserved }

// Remaining is the amount still available to promise to a new reservation.
func (n *ResourceNode) Remaining() int { return n.capacity - n.reserved }

func (n *ResourceNode) Depleted() bool { return n.capacity == 0 }

// TryReserve grants up to amount from the unreserved remainder. A zero
// grant is the normal back-pressure signal, not an error; callers re-seek
// or retry.
func (n *ResourceNode) TryReserve(amount int) int {
	if amount <= 0 || n.capacity == 0 {
		return 0
	}
	granted := clampInt(amount, 0, n.capacity-n.reserved)
	n.reserved += granted
	return granted
}

// Release returns an unused reservation, e.g. when a harvester loses its
// target mid-travel with a claim still in flight.
func (n *ResourceNode) Release(amount int) {
	if amount <= 0 {
		return
	}
	n.reserved -= amount
	if n.reserved < 0 {
		n.reserved = 0
	}
}

// MineTick extracts up to amount and returns what was actually mined.
// Reserved is reduced alongside with a defensive floor at zero: mining more
// than was reserved is tolerated (direct commits are legal), never rejected.
// The depletion event fires exactly once, on the transition to zero.
func (n *ResourceNode) MineTick(amount int) int {
	if amount <= 0 {
		return 0
	}
	mined := clampInt(amount, 0, n.capacity)
	n.capacity -= mined
	if n.reserved >= mined {
		n.reserved -= mined
	} else {
		n.reserved = 0
	}
	if n.capacity == 0 && mined > 0 && !n.depletionFired {
		n.depletionFired = true
		n.events.Emit(protocol.Event{
			"type":    protocol.EventNodeDepleted,
			"node_id": n.id,
		})
	}
	return mined
}

// OnTick is the node's passive hook. It currently does nothing; the slot is
// reserved for regeneration.
func (n *ResourceNode) OnTick(TickContext) {}
