package match

import "ironveld.gg/internal/protocol"

// EventSink receives simulation events. Components get a sink handle at
// construction; there is no process-wide event bus.
type EventSink interface {
	Emit(ev protocol.Event)
}

// eventRecorder buffers one tick's worth of events. The match drains it
// after every scheduler pass into the tick log and the observer stream.
// It stamps the current tick onto each event so emitters don't have to.
type eventRecorder struct {
	tick   uint64
	events []protocol.Event
}

func (r *eventRecorder) Emit(ev protocol.Event) {
	if ev == nil {
		return
	}
	if _, ok := ev["t"]; !ok {
		ev["t"] = r.tick
	}
	r.events = append(r.events, ev)
}

func (r *eventRecorder) drain() []protocol.Event {
	if len(r.events) == 0 {
		return nil
	}
	out := make([]protocol.Event, len(r.events))
	copy(out, r.events)
	r.events = r.events[:0]
	return out
}

// discardSink drops everything. Constructors fall back to it when no sink
// is configured so components never need a nil check before emitting.
type discardSink struct{}

func (discardSink) Emit(protocol.Event) {}
