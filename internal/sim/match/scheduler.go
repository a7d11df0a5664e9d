package match

import (
	"log"
	"time"
)

// TickContext is handed to every participant on each scheduler pass.
// Now is simulation time (base + tick*interval), not wall-clock time, so a
// replay that re-runs the same tick sequence sees identical timestamps.
type TickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64 // seconds, always the fixed interval
}

// Participant is one slow-tick subscriber of the Scheduler.
type Participant interface {
	OnTick(ctx TickContext)
}

// Scheduler drives all slow-tick participants at a fixed rate. It is owned
// by the match loop goroutine; none of its methods are safe for concurrent
// use, which is the point: every mutation in the simulation happens inside
// one synchronous scheduler pass.
type Scheduler struct {
	interval time.Duration
	deadline time.Time
	tick     uint64

	participants []Participant
	index        map[Participant]int

	// pass is a reusable scratch copy of the participant list so that
	// register/unregister from inside a callback cannot corrupt the
	// in-progress iteration.
	pass []Participant

	logger *log.Logger
}

func NewScheduler(interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Scheduler{
		interval: interval,
		index:    make(map[Participant]int),
		logger:   logger,
	}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

func (s *Scheduler) Tick() uint64 { return s.tick }

// SetTick fast-forwards the tick counter, used when resuming from a snapshot.
func (s *Scheduler) SetTick(tick uint64) { s.tick = tick }

// Register adds a participant. Registering an already-registered participant
// is a no-op; it will still fire exactly once per pass.
func (s *Scheduler) Register(p Participant) {
	if p == nil {
		return
	}
	if _, ok := s.index[p]; ok {
		return
	}
	s.index[p] = len(s.participants)
	s.participants = append(s.participants, p)
}

// Unregister removes a participant in O(1) by swapping it with the last
// entry. Relative participant order is not guaranteed and nothing may rely
// on it surviving an unregister.
func (s *Scheduler) Unregister(p Participant) {
	i, ok := s.index[p]
	if !ok {
		return
	}
	last := len(s.participants) - 1
	moved := s.participants[last]
	s.participants[i] = moved
	s.index[moved] = i
	s.participants[last] = nil
	s.participants = s.participants[:last]
	delete(s.index, p)
}

// Registered reports whether p currently subscribes to ticks.
func (s *Scheduler) Registered(p Participant) bool {
	_, ok := s.index[p]
	return ok
}

func (s *Scheduler) Len() int { return len(s.participants) }

// Due reports whether the deadline has been reached, advancing it by the
// fixed interval when it has. The first call arms the deadline.
func (s *Scheduler) Due(now time.Time) bool {
	if s.deadline.IsZero() {
		s.deadline = now.Add(s.interval)
		return false
	}
	if now.Before(s.deadline) {
		return false
	}
	s.deadline = s.deadline.Add(s.interval)
	return true
}

// Poll fires at most one pass: if now has reached the deadline, every
// registered participant ticks once. Returns whether a pass fired.
func (s *Scheduler) Poll(now time.Time) bool {
	if !s.Due(now) {
		return false
	}
	s.Advance(now)
	return true
}

// Advance fires one pass unconditionally. The match loop uses Poll; tests
// and the replayer call Advance directly with synthetic timestamps.
func (s *Scheduler) Advance(now time.Time) TickContext {
	s.tick++
	ctx := TickContext{
		Tick:  s.tick,
		Now:   now,
		Delta: s.interval.Seconds(),
	}

	// Snapshot the participant list: entries unregistered mid-pass are
	// skipped (checked against the live index), entries registered mid-pass
	// first fire on the next tick.
	s.pass = append(s.pass[:0], s.participants...)
	for _, p := range s.pass {
		if p == nil {
			continue
		}
		if _, ok := s.index[p]; !ok {
			continue
		}
		s.invoke(p, ctx)
	}
	return ctx
}

// invoke isolates one participant's panic so a single bad actor cannot
// abort the remaining callbacks for the tick. This is deliberate policy:
// the simulation degrades, it does not halt.
func (s *Scheduler) invoke(p Participant, ctx TickContext) {
	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Printf("tick %d: participant panic recovered: %v", ctx.Tick, r)
			}
		}
	}()
	p.OnTick(ctx)
}
