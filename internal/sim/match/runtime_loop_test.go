package match

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ironveld.gg/internal/protocol"
)

func TestRunDeliversObserverFrames(t *testing.T) {
	m := New(Config{ID: "T", TickRateHz: 20}, nil)
	m.AddNode(NodeConfig{ID: "N1", Pos: Vec2{X: 40}, Capacity: 1000, YieldPerSecond: 40, ReservePerMiner: 40})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	out := make(chan []byte, 16)
	m.ObserverJoin() <- ObserverJoinRequest{SessionID: "O1", Out: out, WithEntities: true}

	select {
	case frame := <-out:
		var msg protocol.TickMsg
		if err := json.Unmarshal(frame, &msg); err != nil {
			t.Fatalf("frame not valid json: %v", err)
		}
		if msg.Type != protocol.TypeTick || msg.Tick == 0 || msg.Digest == "" {
			t.Fatalf("frame = %+v", msg)
		}
		if len(msg.Entities) == 0 {
			t.Fatalf("with_entities frame carried no entities")
		}
		if got := msg.Entities[0].Tag; got != string(TagResourceNode) {
			t.Fatalf("entity tag = %q, want %q", got, TagResourceNode)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no observer frame within 3s")
	}

	m.ObserverLeave() <- "O1"
	m.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after Stop", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after Stop")
	}
}

func TestSendLatestDropsOldest(t *testing.T) {
	ch := make(chan []byte, 1)
	sendLatest(ch, []byte("a"))
	sendLatest(ch, []byte("b")) // full: "a" dropped, "b" queued
	got := <-ch
	if string(got) != "b" {
		t.Fatalf("got %q, want the newest frame", got)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra frame %q", extra)
	default:
	}
}
