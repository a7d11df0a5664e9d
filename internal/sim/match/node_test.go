package match

import (
	"testing"

	"ironveld.gg/internal/protocol"
)

type captureSink struct {
	events []protocol.Event
}

func (s *captureSink) Emit(ev protocol.Event) { s.events = append(s.events, ev) }

func (s *captureSink) countType(typ string) int {
	n := 0
	for _, ev := range s.events {
		if ev["type"] == typ {
			n++
		}
	}
	return n
}

func newTestNode(capacity int, sink EventSink) *ResourceNode {
	return NewResourceNode(NodeConfig{
		ID:              "N1",
		Capacity:        capacity,
		YieldPerSecond:  40,
		ReservePerMiner: 40,
		Events:          sink,
	})
}

func TestNodeReserveClampsToRemainder(t *testing.T) {
	n := newTestNode(50, nil)

	if got := n.TryReserve(40); got != 40 {
		t.Fatalf("first reserve = %d, want 40", got)
	}
	// Second claimant asks for 40 but only 10 is unpromised.
	if got := n.TryReserve(40); got != 10 {
		t.Fatalf("second reserve = %d, want 10", got)
	}
	if got := n.TryReserve(40); got != 0 {
		t.Fatalf("third reserve = %d, want 0", got)
	}
	if n.Reserved() != 50 || n.Capacity() != 50 {
		t.Fatalf("reserved=%d capacity=%d after reservations", n.Reserved(), n.Capacity())
	}
}

func TestNodeReserveRejectsNonPositive(t *testing.T) {
	n := newTestNode(100, nil)
	if got := n.TryReserve(0); got != 0 {
		t.Fatalf("reserve(0) = %d", got)
	}
	if got := n.TryReserve(-5); got != 0 {
		t.Fatalf("reserve(-5) = %d", got)
	}
}

func TestNodeMineConservation(t *testing.T) {
	n := newTestNode(100, nil)
	n.TryReserve(40)

	if got := n.MineTick(40); got != 40 {
		t.Fatalf("mined = %d, want 40", got)
	}
	if n.Capacity() != 60 || n.Reserved() != 0 {
		t.Fatalf("capacity=%d reserved=%d after mine, want 60/0", n.Capacity(), n.Reserved())
	}
}

func TestNodeMineClampsAtCapacity(t *testing.T) {
	n := newTestNode(30, nil)
	if got := n.MineTick(40); got != 30 {
		t.Fatalf("mined = %d, want 30", got)
	}
	if !n.Depleted() {
		t.Fatalf("node should be depleted")
	}
	if got := n.MineTick(40); got != 0 {
		t.Fatalf("mining a depleted node yielded %d", got)
	}
}

func TestNodeMineReservedFloorAtZero(t *testing.T) {
	n := newTestNode(100, nil)
	n.TryReserve(10)
	// Direct commit beyond the reservation is tolerated.
	if got := n.MineTick(25); got != 25 {
		t.Fatalf("mined = %d, want 25", got)
	}
	if n.Reserved() != 0 {
		t.Fatalf("reserved = %d, want 0 (floor)", n.Reserved())
	}
}

func TestNodeDepletionEventFiresOnce(t *testing.T) {
	sink := &captureSink{}
	n := newTestNode(50, sink)

	n.MineTick(30)
	if got := sink.countType(protocol.EventNodeDepleted); got != 0 {
		t.Fatalf("depletion fired early: %d events", got)
	}
	n.MineTick(30)
	n.MineTick(30)
	n.MineTick(30)
	if got := sink.countType(protocol.EventNodeDepleted); got != 1 {
		t.Fatalf("depletion events = %d, want exactly 1", got)
	}
}

func TestNodeReleaseFloorsAtZero(t *testing.T) {
	n := newTestNode(100, nil)
	n.TryReserve(20)
	n.Release(50)
	if n.Reserved() != 0 {
		t.Fatalf("reserved = %d after over-release, want 0", n.Reserved())
	}
	n.Release(-5)
	if n.Reserved() != 0 {
		t.Fatalf("negative release changed reserved to %d", n.Reserved())
	}
}
