package match

import "math"

// HarvesterState is the harvesting agent's FSM state.
type HarvesterState int

const (
	HarvesterIdle HarvesterState = iota
	HarvesterSeekNode
	HarvesterMoveToNode
	HarvesterMine
	HarvesterMoveToRefinery
	HarvesterDocking
	HarvesterUnloading
)

func (s HarvesterState) String() string {
	switch s {
	case HarvesterIdle:
		return "IDLE"
	case HarvesterSeekNode:
		return "SEEK_NODE"
	case HarvesterMoveToNode:
		return "MOVE_TO_NODE"
	case HarvesterMine:
		return "MINE"
	case HarvesterMoveToRefinery:
		return "MOVE_TO_REFINERY"
	case HarvesterDocking:
		return "DOCKING"
	case HarvesterUnloading:
		return "UNLOADING"
	default:
		return "UNKNOWN"
	}
}

const unboundedRadius = math.MaxFloat64

// Harvester cycles between resource nodes and its team's depot forever.
// There is no terminal or error state: any lost target degrades to the
// nearest re-seek state and the cycle continues.
type Harvester struct {
	Mover

	id   string
	team TeamID

	state   HarvesterState
	carried int

	node  *ResourceNode
	depot *Depot

	dockSlot int // -1 = unassigned; >= 0 implies the slot is held in the depot registry
	dockPos  Vec2

	carryCapacity int
	perTickMine   int
	perTickUnload int
	searchRadius  float64
	mineRadius    float64
	dockTolerance float64

	spatial *SpatialIndex
}

type HarvesterConfig struct {
	ID               string
	Team             TeamID
	Pos              Vec2
	MoveSpeed        float64
	CarryCapacity    int
	MineRatePerSec   int
	UnloadRatePerSec int
	SearchRadius     float64
	MineRadius       float64
	DockTolerance    float64
	TicksPerSecond   int
	Spatial          *SpatialIndex
}

func NewHarvester(cfg HarvesterConfig) *Harvester {
	tps := cfg.TicksPerSecond
	if tps <= 0 {
		tps = 4
	}
	perTick := func(ratePerSec int) int {
		n := ratePerSec / tps
		if n < 1 {
			n = 1
		}
		return n
	}
	capacity := cfg.CarryCapacity
	if capacity < 1 {
		capacity = 1
	}
	return &Harvester{
		Mover:         NewMover(cfg.Pos, cfg.MoveSpeed),
		id:            cfg.ID,
		team:          cfg.Team,
		state:         HarvesterIdle,
		dockSlot:      -1,
		carryCapacity: capacity,
		perTickMine:   perTick(cfg.MineRatePerSec),
		perTickUnload: perTick(cfg.UnloadRatePerSec),
		searchRadius:  cfg.SearchRadius,
		mineRadius:    cfg.MineRadius,
		dockTolerance: cfg.DockTolerance,
		spatial:       cfg.Spatial,
	}
}

func (h *Harvester) EntityID() string   { return h.id }
func (h *Harvester) EntityTag() Tag     { return TagHarvester }
func (h *Harvester) EntityTeam() TeamID { return h.team }
func (h *Harvester) EntityPos() Vec2    { return h.Position() }

func (h *Harvester) State() HarvesterState { return h.state }
func (h *Harvester) Carried() int          { return h.carried }
func (h *Harvester) CarryCapacity() int    { return h.carryCapacity }
func (h *Harvester) TargetNode() *ResourceNode { return h.node }
func (h *Harvester) TargetDepot() *Depot       { return h.depot }
func (h *Harvester) DockSlot() int             { return h.dockSlot }

// setDock records a slot assignment made by the depot's proximity trigger.
func (h *Harvester) setDock(slot int, pos Vec2) {
	h.dockSlot = slot
	h.dockPos = pos
}

func (h *Harvester) clearDock() {
	h.dockSlot = -1
	h.dockPos = Vec2{}
}

// OnTick advances the FSM by exactly one state handler. Transitions take
// effect on the next tick; all failure is a transition, never an error.
func (h *Harvester) OnTick(ctx TickContext) {
	switch h.state {
	case HarvesterIdle:
		h.tickIdle()
	case HarvesterSeekNode:
		h.tickSeekNode()
	case HarvesterMoveToNode:
		h.tickMoveToNode()
	case HarvesterMine:
		h.tickMine()
	case HarvesterMoveToRefinery:
		h.tickMoveToRefinery()
	case HarvesterDocking:
		h.tickDocking()
	case HarvesterUnloading:
		h.tickUnloading()
	}
}

func (h *Harvester) tickIdle() {
	if h.carried*2 >= h.carryCapacity {
		h.state = HarvesterMoveToRefinery
		return
	}
	h.state = HarvesterSeekNode
}

func (h *Harvester) tickSeekNode() {
	ent, ok := h.spatial.NearestFunc(TagResourceNode, AnyTeam, h.Position(), h.searchRadius, func(e Entity) bool {
		n, ok := e.(*ResourceNode)
		return ok && !n.Depleted()
	})
	if !ok {
		// Nothing in range; retry from Idle next tick.
		h.state = HarvesterIdle
		return
	}
	h.node = ent.(*ResourceNode)
	h.SetDestination(h.node.EntityPos())
	h.state = HarvesterMoveToNode
}

func (h *Harvester) tickMoveToNode() {
	if h.node == nil || h.node.Depleted() {
		h.node = nil
		h.state = HarvesterSeekNode
		return
	}
	if Dist(h.Position(), h.node.EntityPos()) <= h.mineRadius {
		h.state = HarvesterMine
	}
}

func (h *Harvester) tickMine() {
	if h.node == nil || h.node.Depleted() {
		h.node = nil
		h.state = HarvesterSeekNode
		return
	}
	space := h.carryCapacity - h.carried
	slice := minInt(h.perTickMine, space)
	granted := h.node.TryReserve(slice)
	mined := h.node.MineTick(granted)
	h.carried = clampInt(h.carried+mined, 0, h.carryCapacity)
	if h.carried >= h.carryCapacity || h.node.Depleted() {
		h.state = HarvesterMoveToRefinery
	}
}

func (h *Harvester) tickMoveToRefinery() {
	ent, ok := h.spatial.Nearest(TagDepot, h.team, h.Position(), unboundedRadius)
	if !ok {
		// No depot alive; keep retrying.
		return
	}
	h.depot = ent.(*Depot)
	h.SetDestination(h.depot.EntityPos())
	h.state = HarvesterDocking
}

func (h *Harvester) tickDocking() {
	if h.depot == nil {
		h.clearDock()
		h.state = HarvesterMoveToRefinery
		return
	}
	if h.dockSlot < 0 {
		// No free slot yet; the depot's proximity trigger assigns one
		// outside this tick. Keep waiting.
		return
	}
	h.SetDestination(h.dockPos)
	if Dist(h.Position(), h.dockPos) <= h.dockTolerance {
		h.state = HarvesterUnloading
	}
}

func (h *Harvester) tickUnloading() {
	if h.depot == nil {
		h.clearDock()
		h.state = HarvesterMoveToRefinery
		return
	}
	if h.carried > 0 {
		slice := minInt(h.perTickUnload, h.carried)
		h.depot.CommitUnload(slice)
		h.carried -= slice
	}
	if h.carried == 0 {
		h.depot.ReleaseDock(h.id)
		h.clearDock()
		h.depot = nil
		h.node = nil
		h.state = HarvesterSeekNode
	}
}
