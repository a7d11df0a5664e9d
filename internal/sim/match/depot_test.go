package match

import (
	"testing"

	"ironveld.gg/internal/protocol"
)

func newTestDepot(sink EventSink, funds FundsSink) *Depot {
	return NewDepot(DepotConfig{
		ID:   "D1",
		Team: 1,
		Pos:  Vec2{X: 100, Y: 100},
		SlotOffsets: []Vec2{
			{X: 0, Y: 6},
			{X: 0, Y: 12},
		},
		TriggerRadius: 24,
		Sink:          funds,
		Events:        sink,
	})
}

func TestDepotSlotExclusivity(t *testing.T) {
	d := newTestDepot(nil, nil)

	s1, p1, ok := d.TryAssignDock("H1")
	if !ok || s1 != 0 {
		t.Fatalf("first assign: slot=%d ok=%v, want 0/true", s1, ok)
	}
	if want := (Vec2{X: 100, Y: 106}); p1 != want {
		t.Fatalf("slot pos = %+v, want %+v", p1, want)
	}
	s2, _, ok := d.TryAssignDock("H2")
	if !ok || s2 != 1 {
		t.Fatalf("second assign: slot=%d ok=%v, want 1/true", s2, ok)
	}
	if s1 == s2 {
		t.Fatalf("two holders share slot %d", s1)
	}
	// Third arrival finds every slot taken and must wait.
	if _, _, ok := d.TryAssignDock("H3"); ok {
		t.Fatalf("third assign succeeded with 0 free slots")
	}

	d.ReleaseDock("H1")
	s3, _, ok := d.TryAssignDock("H3")
	if !ok || s3 != 0 {
		t.Fatalf("post-release assign: slot=%d ok=%v, want 0/true", s3, ok)
	}
}

func TestDepotAssignIdempotentForHolder(t *testing.T) {
	d := newTestDepot(nil, nil)
	s1, p1, _ := d.TryAssignDock("H1")
	s2, p2, ok := d.TryAssignDock("H1")
	if !ok || s1 != s2 || p1 != p2 {
		t.Fatalf("re-assign for holder changed slot: %d/%v vs %d/%v", s1, p1, s2, p2)
	}
	if d.FreeSlots() != 1 {
		t.Fatalf("free slots = %d, want 1", d.FreeSlots())
	}
}

func TestDepotFreeQueueIsFIFO(t *testing.T) {
	d := newTestDepot(nil, nil)
	d.TryAssignDock("H1") // slot 0
	d.TryAssignDock("H2") // slot 1
	d.ReleaseDock("H2")
	d.ReleaseDock("H1")
	// Queue order is now [1, 0]: first released, first handed out.
	s, _, _ := d.TryAssignDock("H3")
	if s != 1 {
		t.Fatalf("slot = %d, want 1 (FIFO order)", s)
	}
}

func TestDepotReleaseUnknownHolderIsNoop(t *testing.T) {
	sink := &captureSink{}
	d := newTestDepot(sink, nil)
	d.ReleaseDock("H9")
	if d.FreeSlots() != 2 {
		t.Fatalf("free slots = %d after bogus release, want 2", d.FreeSlots())
	}
	if got := sink.countType(protocol.EventDockReleased); got != 0 {
		t.Fatalf("bogus release emitted %d events", got)
	}
}

func TestDepotDoubleReleaseCannotDuplicateSlot(t *testing.T) {
	d := newTestDepot(nil, nil)
	d.TryAssignDock("H1")
	d.ReleaseDock("H1")
	d.ReleaseDock("H1")
	if d.FreeSlots() != 2 {
		t.Fatalf("free slots = %d after double release, want 2", d.FreeSlots())
	}
}

func TestDepotCommitUnloadForwardsFunds(t *testing.T) {
	eco := NewEconomy(1, 0, nil)
	d := newTestDepot(nil, eco)
	d.CommitUnload(100)
	d.CommitUnload(25)
	if eco.Funds() != 125 {
		t.Fatalf("funds = %d, want 125", eco.Funds())
	}
}
