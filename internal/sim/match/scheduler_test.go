package match

import (
	"testing"
	"time"
)

type countingParticipant struct {
	ticks int
	fn    func(ctx TickContext)
}

func (p *countingParticipant) OnTick(ctx TickContext) {
	p.ticks++
	if p.fn != nil {
		p.fn(ctx)
	}
}

func TestSchedulerRegisterIdempotent(t *testing.T) {
	s := NewScheduler(250*time.Millisecond, nil)
	p := &countingParticipant{}
	s.Register(p)
	s.Register(p)
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	s.Advance(time.Unix(0, 0))
	if p.ticks != 1 {
		t.Fatalf("double-registered participant fired %d times in one pass", p.ticks)
	}
}

func TestSchedulerUnregisterUnknownIsNoop(t *testing.T) {
	s := NewScheduler(250*time.Millisecond, nil)
	p := &countingParticipant{}
	s.Unregister(p) // never registered
	s.Register(p)
	s.Unregister(p)
	s.Unregister(p) // second remove of the same participant
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestSchedulerUnregisterDuringPass(t *testing.T) {
	s := NewScheduler(250*time.Millisecond, nil)

	victim := &countingParticipant{}
	remover := &countingParticipant{}
	remover.fn = func(TickContext) { s.Unregister(victim) }
	// remover runs first, victim must be skipped in the same pass.
	s.Register(remover)
	s.Register(victim)

	s.Advance(time.Unix(0, 0))
	if victim.ticks != 0 {
		t.Fatalf("unregistered participant still fired %d times", victim.ticks)
	}
	s.Advance(time.Unix(0, 0))
	if victim.ticks != 0 {
		t.Fatalf("unregistered participant fired on a later pass")
	}
	if remover.ticks != 2 {
		t.Fatalf("remover fired %d times, want 2", remover.ticks)
	}
}

func TestSchedulerRegisterDuringPassFiresNextTick(t *testing.T) {
	s := NewScheduler(250*time.Millisecond, nil)

	late := &countingParticipant{}
	adder := &countingParticipant{}
	adder.fn = func(TickContext) { s.Register(late) }
	s.Register(adder)

	s.Advance(time.Unix(0, 0))
	if late.ticks != 0 {
		t.Fatalf("mid-pass registration fired in the same pass")
	}
	s.Advance(time.Unix(0, 0))
	if late.ticks != 1 {
		t.Fatalf("late participant fired %d times after second pass, want 1", late.ticks)
	}
}

type panicker struct{}

func (panicker) OnTick(TickContext) { panic("boom") }

func TestSchedulerPanicIsolated(t *testing.T) {
	s := NewScheduler(250*time.Millisecond, nil)
	after := &countingParticipant{}
	s.Register(panicker{})
	s.Register(after)

	s.Advance(time.Unix(0, 0))
	if after.ticks != 1 {
		t.Fatalf("participant after panicker fired %d times, want 1", after.ticks)
	}
	if s.Tick() != 1 {
		t.Fatalf("tick = %d, want 1", s.Tick())
	}
}

func TestSchedulerDueDeadline(t *testing.T) {
	interval := 250 * time.Millisecond
	s := NewScheduler(interval, nil)
	base := time.Unix(100, 0)

	if s.Due(base) {
		t.Fatalf("first Due call should only arm the deadline")
	}
	if s.Due(base.Add(interval - time.Millisecond)) {
		t.Fatalf("fired before the deadline")
	}
	if !s.Due(base.Add(interval)) {
		t.Fatalf("did not fire at the deadline")
	}
	// Deadline advances by the fixed interval, not from "now", so the rate
	// does not drift with polling jitter.
	if s.Due(base.Add(interval + 10*time.Millisecond)) {
		t.Fatalf("fired twice within one interval")
	}
	if !s.Due(base.Add(2 * interval)) {
		t.Fatalf("did not fire at the second deadline")
	}
}

func TestSchedulerPollFiresPass(t *testing.T) {
	interval := 250 * time.Millisecond
	s := NewScheduler(interval, nil)
	p := &countingParticipant{}
	s.Register(p)

	base := time.Unix(0, 0)
	s.Poll(base) // arms
	if fired := s.Poll(base.Add(interval)); !fired {
		t.Fatalf("Poll did not fire at the deadline")
	}
	if p.ticks != 1 || s.Tick() != 1 {
		t.Fatalf("ticks=%d schedTick=%d, want 1/1", p.ticks, s.Tick())
	}
}
