package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every numeric knob the simulation reads. Values are loaded
// once at startup and never mutated afterwards, so a Tuning can be shared
// freely across goroutines.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	Node      NodeTuning      `yaml:"node"`
	Depot     DepotTuning     `yaml:"depot"`
	Harvester HarvesterTuning `yaml:"harvester"`
	Commander CommanderTuning `yaml:"commander"`
}

type NodeTuning struct {
	Capacity        int `yaml:"capacity"`
	YieldPerSecond  int `yaml:"yield_per_second"`
	ReservePerMiner int `yaml:"reserve_per_miner"`
}

type DepotTuning struct {
	Slots         int     `yaml:"slots"`
	SlotSpacing   float64 `yaml:"slot_spacing"`
	TriggerRadius float64 `yaml:"trigger_radius"`
}

type HarvesterTuning struct {
	CarryCapacity    int     `yaml:"carry_capacity"`
	MineRatePerSec   int     `yaml:"mine_rate_per_sec"`
	UnloadRatePerSec int     `yaml:"unload_rate_per_sec"`
	SearchRadius     float64 `yaml:"search_radius"`
	MineRadius       float64 `yaml:"mine_radius"`
	DockTolerance    float64 `yaml:"dock_tolerance"`
	MoveSpeed        float64 `yaml:"move_speed"`
}

type CommanderTuning struct {
	ArmyValueThreshold int     `yaml:"army_value_threshold"`
	BacklogThreshold   int     `yaml:"backlog_threshold"`
	WaveWindowMinSec   int     `yaml:"wave_window_min_sec"`
	WaveWindowMaxSec   int     `yaml:"wave_window_max_sec"`
	RetreatFraction    float64 `yaml:"retreat_fraction"`
	OrderCadenceMs     int     `yaml:"order_cadence_ms"`
	StagingRadius      float64 `yaml:"staging_radius"`
}

// Defaults returns the tuning used when no tuning.yaml is present. The
// numbers match the reference skirmish setup the package tests assume.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         4,
		SnapshotEveryTicks: 1200,
		Node: NodeTuning{
			Capacity:        5000,
			YieldPerSecond:  40,
			ReservePerMiner: 40,
		},
		Depot: DepotTuning{
			Slots:         2,
			SlotSpacing:   6,
			TriggerRadius: 24,
		},
		Harvester: HarvesterTuning{
			CarryCapacity:    200,
			MineRatePerSec:   40,
			UnloadRatePerSec: 100,
			SearchRadius:     300,
			MineRadius:       8,
			DockTolerance:    1.5,
			MoveSpeed:        20,
		},
		Commander: CommanderTuning{
			ArmyValueThreshold: 1200,
			BacklogThreshold:   2,
			WaveWindowMinSec:   90,
			WaveWindowMaxSec:   150,
			RetreatFraction:    0.35,
			OrderCadenceMs:     2000,
			StagingRadius:      60,
		},
	}
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyFloors()
	return t, nil
}

// applyFloors replaces zero or nonsense values with defaults. A bad knob
// must not be able to stall the tick loop (divide-by-zero tick rates etc).
func (t *Tuning) applyFloors() {
	d := Defaults()
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.SnapshotEveryTicks < 0 {
		t.SnapshotEveryTicks = 0
	}
	if t.Node.Capacity <= 0 {
		t.Node.Capacity = d.Node.Capacity
	}
	if t.Node.YieldPerSecond <= 0 {
		t.Node.YieldPerSecond = d.Node.YieldPerSecond
	}
	if t.Node.ReservePerMiner <= 0 {
		t.Node.ReservePerMiner = d.Node.ReservePerMiner
	}
	if t.Depot.Slots <= 0 {
		t.Depot.Slots = d.Depot.Slots
	}
	if t.Depot.SlotSpacing <= 0 {
		t.Depot.SlotSpacing = d.Depot.SlotSpacing
	}
	if t.Depot.TriggerRadius <= 0 {
		t.Depot.TriggerRadius = d.Depot.TriggerRadius
	}
	if t.Harvester.CarryCapacity <= 0 {
		t.Harvester.CarryCapacity = d.Harvester.CarryCapacity
	}
	if t.Harvester.MineRatePerSec <= 0 {
		t.Harvester.MineRatePerSec = d.Harvester.MineRatePerSec
	}
	if t.Harvester.UnloadRatePerSec <= 0 {
		t.Harvester.UnloadRatePerSec = d.Harvester.UnloadRatePerSec
	}
	if t.Harvester.SearchRadius <= 0 {
		t.Harvester.SearchRadius = d.Harvester.SearchRadius
	}
	if t.Harvester.MineRadius <= 0 {
		t.Harvester.MineRadius = d.Harvester.MineRadius
	}
	if t.Harvester.DockTolerance <= 0 {
		t.Harvester.DockTolerance = d.Harvester.DockTolerance
	}
	if t.Harvester.MoveSpeed <= 0 {
		t.Harvester.MoveSpeed = d.Harvester.MoveSpeed
	}
	if t.Commander.ArmyValueThreshold <= 0 {
		t.Commander.ArmyValueThreshold = d.Commander.ArmyValueThreshold
	}
	if t.Commander.BacklogThreshold <= 0 {
		t.Commander.BacklogThreshold = d.Commander.BacklogThreshold
	}
	if t.Commander.WaveWindowMinSec <= 0 {
		t.Commander.WaveWindowMinSec = d.Commander.WaveWindowMinSec
	}
	if t.Commander.WaveWindowMaxSec < t.Commander.WaveWindowMinSec {
		t.Commander.WaveWindowMaxSec = t.Commander.WaveWindowMinSec
	}
	if t.Commander.RetreatFraction <= 0 || t.Commander.RetreatFraction >= 1 {
		t.Commander.RetreatFraction = d.Commander.RetreatFraction
	}
	if t.Commander.OrderCadenceMs < 0 {
		t.Commander.OrderCadenceMs = 0
	}
	if t.Commander.StagingRadius <= 0 {
		t.Commander.StagingRadius = d.Commander.StagingRadius
	}
}
