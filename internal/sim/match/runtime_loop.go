package match

import (
	"context"
	"encoding/json"
	"time"

	"ironveld.gg/internal/protocol"
)

// ObserverJoinRequest attaches a read-only spectator stream. Frames are
// delivered best-effort: a slow observer loses frames, never stalls the
// tick loop.
type ObserverJoinRequest struct {
	SessionID    string
	Out          chan []byte
	WithEntities bool
}

type observerSession struct {
	out          chan []byte
	withEntities bool
}

func (m *Match) ObserverJoin() chan<- ObserverJoinRequest { return m.observerJoin }
func (m *Match) ObserverLeave() chan<- string             { return m.observerLeave }

// Run drives the match at its fixed rate until the context is cancelled or
// Stop is called. The loop goroutine is the only one that ever touches
// simulation state; observer membership changes funnel in through channels
// and are applied between passes.
func (m *Match) Run(ctx context.Context) error {
	// Poll faster than the tick interval so the deadline check sees a
	// "process frame" often enough; the Scheduler's own deadline decides
	// when a pass actually fires.
	poll := m.sched.Interval() / 4
	if poll <= 0 {
		poll = time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		case req := <-m.observerJoin:
			m.observers[req.SessionID] = &observerSession{out: req.Out, withEntities: req.WithEntities}
		case id := <-m.observerLeave:
			delete(m.observers, id)
		case now := <-ticker.C:
			if !m.sched.Due(now) {
				continue
			}
			result := m.StepOnce()
			m.broadcastTick(result)
		}
	}
}

func (m *Match) Stop() { close(m.stop) }

func (m *Match) broadcastTick(result TickResult) {
	if len(m.observers) == 0 {
		return
	}
	base := protocol.TickMsg{
		Type:            protocol.TypeTick,
		ProtocolVersion: protocol.Version,
		Tick:            result.Tick,
		Digest:          result.Digest,
		Events:          result.Events,
	}
	plain, err := json.Marshal(base)
	if err != nil {
		return
	}
	var rich []byte
	for _, obs := range m.observers {
		frame := plain
		if obs.withEntities {
			if rich == nil {
				withEnt := base
				withEnt.Entities = m.entityObs()
				rich, err = json.Marshal(withEnt)
				if err != nil {
					continue
				}
			}
			frame = rich
		}
		sendLatest(obs.out, frame)
	}
}

// entityObs builds the spectator summary for one tick.
func (m *Match) entityObs() []protocol.EntityObs {
	out := make([]protocol.EntityObs, 0, len(m.nodes)+len(m.depots)+len(m.harvesters)+len(m.units))
	for _, n := range m.nodes {
		out = append(out, protocol.EntityObs{
			ID:       n.id,
			Tag:      string(TagResourceNode),
			Pos:      [2]float64{n.pos.X, n.pos.Y},
			Capacity: n.capacity,
			Reserved: n.reserved,
		})
	}
	for _, d := range m.depots {
		out = append(out, protocol.EntityObs{
			ID:   d.id,
			Tag:  string(TagDepot),
			Team: int(d.team),
			Pos:  [2]float64{d.pos.X, d.pos.Y},
		})
	}
	for _, h := range m.harvesters {
		pos := h.Position()
		out = append(out, protocol.EntityObs{
			ID:      h.id,
			Tag:     string(TagHarvester),
			Team:    int(h.team),
			Pos:     [2]float64{pos.X, pos.Y},
			State:   h.state.String(),
			Carried: h.carried,
		})
	}
	for _, u := range m.units {
		pos := u.Position()
		out = append(out, protocol.EntityObs{
			ID:   u.id,
			Tag:  string(TagCombatUnit),
			Team: int(u.team),
			Pos:  [2]float64{pos.X, pos.Y},
			HP:   u.hp,
		})
	}
	return out
}

// sendLatest delivers b without ever blocking: if the channel is full the
// oldest frame is dropped to make room.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
