package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadAppliesFloors(t *testing.T) {
	path := writeTemp(t, `
tick_rate_hz: 0
node:
  capacity: -10
harvester:
  carry_capacity: 100
commander:
  wave_window_min_sec: 60
  wave_window_max_sec: 30
`)
	tune, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := Defaults()
	if tune.TickRateHz != d.TickRateHz {
		t.Fatalf("tick_rate_hz = %d, want default %d", tune.TickRateHz, d.TickRateHz)
	}
	if tune.Node.Capacity != d.Node.Capacity {
		t.Fatalf("node capacity = %d, want default %d", tune.Node.Capacity, d.Node.Capacity)
	}
	if tune.Harvester.CarryCapacity != 100 {
		t.Fatalf("carry capacity = %d, want 100 (explicit value kept)", tune.Harvester.CarryCapacity)
	}
	// An inverted wave window collapses to min.
	if tune.Commander.WaveWindowMaxSec != tune.Commander.WaveWindowMinSec {
		t.Fatalf("wave window = %d..%d, want max clamped to min",
			tune.Commander.WaveWindowMinSec, tune.Commander.WaveWindowMaxSec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTemp(t, "tick_rate_hz: [not a number")
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}

func TestDefaultsAreSelfConsistent(t *testing.T) {
	d := Defaults()
	if d.TickRateHz != 4 {
		t.Fatalf("tick rate = %d, want 4", d.TickRateHz)
	}
	if d.Commander.RetreatFraction <= 0 || d.Commander.RetreatFraction >= 1 {
		t.Fatalf("retreat fraction %v out of (0,1)", d.Commander.RetreatFraction)
	}
	if d.Commander.WaveWindowMaxSec < d.Commander.WaveWindowMinSec {
		t.Fatalf("wave window inverted in defaults")
	}
}
