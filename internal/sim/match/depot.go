package match

import "ironveld.gg/internal/protocol"

// FundsSink is where a depot forwards unloaded cargo. *Economy implements it.
type FundsSink interface {
	AddFunds(amount int)
}

// Depot is a refinery with a fixed set of dock slots. A slot index is
// either in the free queue or held by exactly one harvester, never both.
type Depot struct {
	id   string
	team TeamID
	pos  Vec2

	slotOffsets []Vec2 // relative to pos
	free        []int  // FIFO queue of free slot indices
	holders     map[string]int

	// TriggerRadius is the proximity volume: harvesters inside it get a
	// dock assignment attempt, harvesters leaving it release their slot.
	TriggerRadius float64

	sink   FundsSink
	events EventSink
}

type DepotConfig struct {
	ID            string
	Team          TeamID
	Pos           Vec2
	SlotOffsets   []Vec2
	TriggerRadius float64
	Sink          FundsSink
	Events        EventSink
}

func NewDepot(cfg DepotConfig) *Depot {
	events := cfg.Events
	if events == nil {
		events = discardSink{}
	}
	d := &Depot{
		id:            cfg.ID,
		team:          cfg.Team,
		pos:           cfg.Pos,
		slotOffsets:   append([]Vec2(nil), cfg.SlotOffsets...),
		holders:       make(map[string]int),
		TriggerRadius: cfg.TriggerRadius,
		sink:          cfg.Sink,
		events:        events,
	}
	d.free = make([]int, 0, len(d.slotOffsets))
	for i := range d.slotOffsets {
		d.free = append(d.free, i)
	}
	return d
}

func (d *Depot) EntityID() string   { return d.id }
func (d *Depot) EntityTag() Tag     { return TagDepot }
func (d *Depot) EntityTeam() TeamID { return d.team }
func (d *Depot) EntityPos() Vec2    { return d.pos }

func (d *Depot) SlotCount() int { return len(d.slotOffsets) }
func (d *Depot) FreeSlots() int { return len(d.free) }

// SlotPos returns the world position of a slot index.
func (d *Depot) SlotPos(slot int) Vec2 {
	if slot < 0 || slot >= len(d.slotOffsets) {
		return d.pos
	}
	return d.pos.Add(d.slotOffsets[slot])
}

// HeldSlot reports the slot the agent currently holds, or -1.
func (d *Depot) HeldSlot(agentID string) int {
	if slot, ok := d.holders[agentID]; ok {
		return slot
	}
	return -1
}

// TryAssignDock claims a free slot for the agent. An agent that already
// holds a slot gets its existing assignment back (idempotent). Failure
// means every slot is taken; the caller keeps waiting and retries.
func (d *Depot) TryAssignDock(agentID string) (slot int, pos Vec2, ok bool) {
	if held, exists := d.holders[agentID]; exists {
		return held, d.SlotPos(held), true
	}
	if len(d.free) == 0 {
		return -1, Vec2{}, false
	}
	slot = d.free[0]
	d.free = d.free[1:]
	d.holders[agentID] = slot
	d.events.Emit(protocol.Event{
		"type":     protocol.EventDockAssigned,
		"depot_id": d.id,
		"agent_id": agentID,
		"slot":     slot,
	})
	return slot, d.SlotPos(slot), true
}

// ReleaseDock returns the agent's slot to the free queue. Proximity exit
// and unload completion both funnel through this one method, so a slot can
// never be double-released or leaked.
func (d *Depot) ReleaseDock(agentID string) {
	slot, ok := d.holders[agentID]
	if !ok {
		return
	}
	delete(d.holders, agentID)
	d.free = append(d.free, slot)
	d.events.Emit(protocol.Event{
		"type":     protocol.EventDockReleased,
		"depot_id": d.id,
		"agent_id": agentID,
		"slot":     slot,
	})
}

// CommitUnload forwards cargo to the owning economy.
func (d *Depot) CommitUnload(amount int) {
	if amount <= 0 || d.sink == nil {
		return
	}
	d.sink.AddFunds(amount)
}
