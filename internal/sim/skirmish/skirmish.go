// Package skirmish wires a match from tuning: the standard two-team layout
// used by the server, the replayer, and integration tests. The layout is a
// pure function of the tuning values, so two builds from the same tuning
// produce digest-identical matches.
package skirmish

import (
	"fmt"
	"time"

	"ironveld.gg/internal/sim/match"
	"ironveld.gg/internal/sim/tuning"
)

const (
	// Team 1 is the harvest-economy side, team 2 the scripted opponent.
	TeamPlayer   match.TeamID = 1
	TeamOpponent match.TeamID = 2

	playerHarvesters   = 3
	opponentHarvesters = 2
	opponentFunds      = 3000
	soldierCost        = 300
	soldierBuildSec    = 10.0
	soldierHP          = 100
	soldierSpeed       = 26.0
	padCount           = 4
)

// Build populates m with the standard skirmish. The match must be empty.
func Build(m *match.Match, tune tuning.Tuning) {
	playerBase := match.Vec2{X: 0, Y: 0}
	opponentBase := match.Vec2{X: 900, Y: 0}

	addBase(m, "p1", TeamPlayer, playerBase, match.Vec2{X: 1, Y: 0}, tune, playerHarvesters)
	addBase(m, "p2", TeamOpponent, opponentBase, match.Vec2{X: -1, Y: 0}, tune, opponentHarvesters)

	// The opponent starts funded so its first build order is not gated on
	// harvest income.
	m.Economy(TeamOpponent).AddFunds(opponentFunds)

	staging := opponentBase.Add(match.Vec2{X: -tune.Commander.StagingRadius, Y: 0})
	factory := m.AddFactory(match.FactoryConfig{
		ID:         "p2-factory",
		Team:       TeamOpponent,
		StagingPos: staging,
		UnitHP:     soldierHP,
		UnitSpeed:  soldierSpeed,
	})

	pads := make([]match.BuildPad, 0, padCount)
	for i := 0; i < padCount; i++ {
		pads = append(pads, match.BuildPad{
			Pos:       opponentBase.Add(match.Vec2{X: 30, Y: float64(20 * (i + 1))}),
			Footprint: match.Vec2{X: 12, Y: 12},
		})
	}

	m.AddCommander(match.CommanderConfig{
		Team:          TeamOpponent,
		EnemyTeam:     TeamPlayer,
		StagingPos:    staging,
		StagingRadius: tune.Commander.StagingRadius,
		Pads:          pads,
		BuildItems: []match.ProductionItem{
			{ID: "soldier", Cost: soldierCost, BuildTime: soldierBuildSec},
		},
		ArmyValueThreshold: tune.Commander.ArmyValueThreshold,
		BacklogThreshold:   tune.Commander.BacklogThreshold,
		WaveWindowMin:      time.Duration(tune.Commander.WaveWindowMinSec) * time.Second,
		WaveWindowMax:      time.Duration(tune.Commander.WaveWindowMaxSec) * time.Second,
		RetreatFraction:    tune.Commander.RetreatFraction,
		OrderCadence:       time.Duration(tune.Commander.OrderCadenceMs) * time.Millisecond,
		Production:         factory,
		Placement:          clearGroundPlacement(m),
	})
}

// addBase lays out one side: a depot, a line of resource nodes on the side
// facing the map center, and its starting harvesters. facing is a unit
// vector pointing toward the opposing base.
func addBase(m *match.Match, prefix string, team match.TeamID, base, facing match.Vec2, tune tuning.Tuning, harvesters int) {
	offsets := make([]match.Vec2, 0, tune.Depot.Slots)
	for i := 0; i < tune.Depot.Slots; i++ {
		offsets = append(offsets, match.Vec2{X: 0, Y: tune.Depot.SlotSpacing * float64(i+1)})
	}
	m.AddDepot(match.DepotConfig{
		ID:            prefix + "-depot",
		Team:          team,
		Pos:           base,
		SlotOffsets:   offsets,
		TriggerRadius: tune.Depot.TriggerRadius,
	})

	for i := 0; i < 2; i++ {
		pos := base.Add(facing.Scale(120 + 40*float64(i))).Add(match.Vec2{X: 0, Y: -30})
		m.AddNode(match.NodeConfig{
			ID:              fmt.Sprintf("%s-node%d", prefix, i+1),
			Pos:             pos,
			Capacity:        tune.Node.Capacity,
			YieldPerSecond:  tune.Node.YieldPerSecond,
			ReservePerMiner: tune.Node.ReservePerMiner,
		})
	}

	for i := 0; i < harvesters; i++ {
		m.AddHarvester(match.HarvesterConfig{
			ID:               fmt.Sprintf("%s-harv%d", prefix, i+1),
			Team:             team,
			Pos:              base.Add(match.Vec2{X: 0, Y: 12 * float64(i+1)}),
			MoveSpeed:        tune.Harvester.MoveSpeed,
			CarryCapacity:    tune.Harvester.CarryCapacity,
			MineRatePerSec:   tune.Harvester.MineRatePerSec,
			UnloadRatePerSec: tune.Harvester.UnloadRatePerSec,
			SearchRadius:     tune.Harvester.SearchRadius,
			MineRadius:       tune.Harvester.MineRadius,
			DockTolerance:    tune.Harvester.DockTolerance,
		})
	}
}

// clearGroundPlacement rejects a pad whose footprint would overlap a node
// or a depot; everything else is buildable ground.
func clearGroundPlacement(m *match.Match) match.PlacementFunc {
	return func(pos, footprint match.Vec2) bool {
		r := footprint.Len() / 2
		sp := m.Spatial()
		if _, ok := sp.NearestFunc(match.TagResourceNode, match.AnyTeam, pos, r, nil); ok {
			return false
		}
		if _, ok := sp.NearestFunc(match.TagDepot, match.AnyTeam, pos, r, nil); ok {
			return false
		}
		return true
	}
}
