package skirmish

import (
	"testing"

	"ironveld.gg/internal/sim/match"
	"ironveld.gg/internal/sim/tuning"
)

func TestBuildIsDeterministic(t *testing.T) {
	tune := tuning.Defaults()

	a := match.New(match.Config{ID: "m", Seed: 7, TickRateHz: tune.TickRateHz}, nil)
	b := match.New(match.Config{ID: "m", Seed: 7, TickRateHz: tune.TickRateHz}, nil)
	Build(a, tune)
	Build(b, tune)

	for i := 0; i < 200; i++ {
		ra := a.StepOnce()
		rb := b.StepOnce()
		if ra.Digest != rb.Digest {
			t.Fatalf("digest diverged at tick %d", ra.Tick)
		}
	}
}

func TestBuildLayout(t *testing.T) {
	tune := tuning.Defaults()
	m := match.New(match.Config{ID: "m", TickRateHz: tune.TickRateHz}, nil)
	Build(m, tune)

	if got := len(m.Depots()); got != 2 {
		t.Fatalf("depots = %d, want one per team", got)
	}
	if got := len(m.Nodes()); got != 4 {
		t.Fatalf("nodes = %d, want 2 per base", got)
	}
	if got := len(m.Harvesters()); got != playerHarvesters+opponentHarvesters {
		t.Fatalf("harvesters = %d", got)
	}
	if m.Economy(TeamOpponent).Funds() != opponentFunds {
		t.Fatalf("opponent funds = %d, want %d", m.Economy(TeamOpponent).Funds(), opponentFunds)
	}
	if m.Economy(TeamPlayer).Funds() != 0 {
		t.Fatalf("player funds = %d, want 0", m.Economy(TeamPlayer).Funds())
	}
}

func TestOpponentEventuallyFieldsUnits(t *testing.T) {
	tune := tuning.Defaults()
	m := match.New(match.Config{ID: "m", TickRateHz: tune.TickRateHz}, nil)
	Build(m, tune)

	// 3000 starting funds at 300/unit with a serial 10s build queue: units
	// appear well inside a couple of simulated minutes.
	for i := 0; i < 600 && len(m.Units()) == 0; i++ {
		m.StepOnce()
	}
	if len(m.Units()) == 0 {
		t.Fatalf("opponent produced no units after 600 ticks")
	}
}
