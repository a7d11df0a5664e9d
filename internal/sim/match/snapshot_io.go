package match

import (
	"fmt"
	"time"

	"ironveld.gg/internal/persistence/snapshot"
)

// ExportSnapshot captures the match's dynamic state. Static shape (tuning,
// layout, pads) is not exported; import applies on top of a freshly
// constructed match with the same configuration.
func (m *Match) ExportSnapshot(tick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: 1,
			MatchID: m.cfg.ID,
			Tick:    tick,
		},
		Seed:       m.cfg.Seed,
		TickRateHz: m.cfg.TickRateHz,
		EpochUnix:  m.cfg.Epoch.Unix(),
	}

	for _, n := range m.nodes {
		snap.Nodes = append(snap.Nodes, snapshot.NodeV1{
			ID:             n.id,
			Capacity:       n.capacity,
			Reserved:       n.reserved,
			DepletionFired: n.depletionFired,
		})
	}
	for _, d := range m.depots {
		dv := snapshot.DepotV1{
			ID:   d.id,
			Free: append([]int(nil), d.free...),
		}
		if len(d.holders) > 0 {
			dv.Holders = make(map[string]int, len(d.holders))
			for id, slot := range d.holders {
				dv.Holders[id] = slot
			}
		}
		snap.Depots = append(snap.Depots, dv)
	}
	for team, e := range m.economies {
		snap.Economies = append(snap.Economies, snapshot.EconomyV1{Team: int(team), Funds: e.funds})
	}
	for _, h := range m.harvesters {
		hv := snapshot.HarvesterV1{
			ID:       h.id,
			State:    int(h.state),
			Carried:  h.carried,
			Pos:      [2]float64{h.pos.X, h.pos.Y},
			Dest:     [2]float64{h.dest.X, h.dest.Y},
			Moving:   h.moving,
			DockSlot: h.dockSlot,
			DockPos:  [2]float64{h.dockPos.X, h.dockPos.Y},
		}
		if h.node != nil {
			hv.NodeID = h.node.id
		}
		if h.depot != nil {
			hv.DepotID = h.depot.id
		}
		snap.Harvesters = append(snap.Harvesters, hv)
	}
	for _, u := range m.units {
		snap.Units = append(snap.Units, snapshot.UnitV1{
			ID:         u.id,
			Team:       int(u.team),
			HP:         u.hp,
			MaxHP:      u.maxHP,
			Cost:       u.cost,
			Speed:      u.speed,
			Pos:        [2]float64{u.pos.X, u.pos.Y},
			Dest:       [2]float64{u.dest.X, u.dest.Y},
			Moving:     u.moving,
			Aggressive: u.aggressive,
		})
	}
	for _, f := range m.factories {
		fv := snapshot.FactoryV1{ID: f.id, NextUnitNum: f.nextUnitNum}
		for _, p := range f.queue {
			fv.Queue = append(fv.Queue, snapshot.QueueEntryV1{
				ItemID:    p.item.ID,
				Cost:      p.item.Cost,
				BuildTime: p.item.BuildTime,
				TicksLeft: p.ticksLeft,
			})
		}
		snap.Factories = append(snap.Factories, fv)
	}
	for _, c := range m.commanders {
		cv := snapshot.CommanderV1{
			Team:           int(c.team),
			State:          int(c.state),
			EnemyResolved:  c.enemyResolved,
			EnemyPos:       [2]float64{c.enemyPos.X, c.enemyPos.Y},
			PadCursor:      c.padCursor,
			BuildCursor:    c.buildCursor,
			RolloutHP:      c.rolloutHP,
			NextWaveAtUnix: unixOrZero(c.nextWaveAt),
			LastOrderUnix:  unixOrZero(c.lastOrderAt),
		}
		for _, u := range c.squad {
			if u != nil {
				cv.SquadIDs = append(cv.SquadIDs, u.id)
			}
		}
		snap.Commanders = append(snap.Commanders, cv)
	}
	return snap
}

// ImportSnapshot overwrites this match's dynamic state. The match must
// have been constructed with the same static configuration (same IDs, same
// layout) that produced the snapshot.
func (m *Match) ImportSnapshot(snap snapshot.SnapshotV1) error {
	if snap.TickRateHz != m.cfg.TickRateHz {
		return fmt.Errorf("tick rate mismatch: snapshot=%d match=%d", snap.TickRateHz, m.cfg.TickRateHz)
	}

	for _, nv := range snap.Nodes {
		n := m.nodeByID(nv.ID)
		if n == nil {
			return fmt.Errorf("snapshot node %q not in match", nv.ID)
		}
		n.capacity = nv.Capacity
		n.reserved = nv.Reserved
		n.depletionFired = nv.DepletionFired
	}
	for _, dv := range snap.Depots {
		d := m.depotByID(dv.ID)
		if d == nil {
			return fmt.Errorf("snapshot depot %q not in match", dv.ID)
		}
		d.free = append(d.free[:0], dv.Free...)
		d.holders = make(map[string]int, len(dv.Holders))
		for id, slot := range dv.Holders {
			d.holders[id] = slot
		}
	}
	for _, ev := range snap.Economies {
		m.Economy(TeamID(ev.Team)).funds = ev.Funds
	}
	for _, hv := range snap.Harvesters {
		h := m.harvesterByID(hv.ID)
		if h == nil {
			return fmt.Errorf("snapshot harvester %q not in match", hv.ID)
		}
		h.state = HarvesterState(hv.State)
		h.carried = hv.Carried
		h.pos = Vec2{hv.Pos[0], hv.Pos[1]}
		h.dest = Vec2{hv.Dest[0], hv.Dest[1]}
		h.moving = hv.Moving
		h.dockSlot = hv.DockSlot
		h.dockPos = Vec2{hv.DockPos[0], hv.DockPos[1]}
		h.node = m.nodeByID(hv.NodeID)
		h.depot = m.depotByID(hv.DepotID)
	}

	// Units are production output, so they are recreated rather than
	// matched against construction-time state.
	for _, u := range m.units {
		m.spatial.Remove(u)
	}
	m.units = m.units[:0]
	for _, uv := range snap.Units {
		u := NewCombatUnit(UnitConfig{
			ID:     uv.ID,
			Team:   TeamID(uv.Team),
			Pos:    Vec2{uv.Pos[0], uv.Pos[1]},
			Speed:  uv.Speed,
			MaxHP:  uv.MaxHP,
			Cost:   uv.Cost,
			Events: m.recorder,
		})
		u.hp = uv.HP
		u.dest = Vec2{uv.Dest[0], uv.Dest[1]}
		u.moving = uv.Moving
		u.aggressive = uv.Aggressive
		m.adoptUnit(u)
	}

	for _, fv := range snap.Factories {
		f := m.factoryByID(fv.ID)
		if f == nil {
			return fmt.Errorf("snapshot factory %q not in match", fv.ID)
		}
		f.nextUnitNum = fv.NextUnitNum
		f.queue = f.queue[:0]
		for _, q := range fv.Queue {
			f.queue = append(f.queue, pendingBuild{
				item:      ProductionItem{ID: q.ItemID, Cost: q.Cost, BuildTime: q.BuildTime},
				ticksLeft: q.TicksLeft,
			})
		}
	}
	for _, cv := range snap.Commanders {
		c := m.commanderByTeam(TeamID(cv.Team))
		if c == nil {
			return fmt.Errorf("snapshot commander for team %d not in match", cv.Team)
		}
		c.state = CommanderState(cv.State)
		c.enemyResolved = cv.EnemyResolved
		c.enemyPos = Vec2{cv.EnemyPos[0], cv.EnemyPos[1]}
		c.padCursor = cv.PadCursor
		for i := range c.pads {
			c.pads[i].Placed = i < c.padCursor
		}
		c.buildCursor = cv.BuildCursor
		c.rolloutHP = cv.RolloutHP
		c.nextWaveAt = timeOrZero(cv.NextWaveAtUnix)
		c.lastOrderAt = timeOrZero(cv.LastOrderUnix)
		c.squad = c.squad[:0]
		for _, id := range cv.SquadIDs {
			if u := m.unitByID(id); u != nil {
				c.squad = append(c.squad, u)
			}
		}
	}

	m.sched.SetTick(snap.Header.Tick)
	m.sweepDepleted()
	return nil
}

// unixOrZero maps the zero time to 0 so it survives a snapshot roundtrip;
// UnixNano of the zero time is not itself roundtrippable.
func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func timeOrZero(unixNano int64) time.Time {
	if unixNano == 0 {
		return time.Time{}
	}
	return time.Unix(0, unixNano).UTC()
}

func (m *Match) harvesterByID(id string) *Harvester {
	for _, h := range m.harvesters {
		if h.id == id {
			return h
		}
	}
	return nil
}

func (m *Match) factoryByID(id string) *Factory {
	for _, f := range m.factories {
		if f.id == id {
			return f
		}
	}
	return nil
}

func (m *Match) commanderByTeam(team TeamID) *Commander {
	for _, c := range m.commanders {
		if c.team == team {
			return c
		}
	}
	return nil
}
