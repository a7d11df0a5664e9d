// Replay re-runs a recorded match and verifies the per-tick state digests
// against the tick log. A divergence means the simulation is no longer
// deterministic relative to the build that produced the log.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"ironveld.gg/internal/persistence/simlog"
	"ironveld.gg/internal/persistence/snapshot"
	"ironveld.gg/internal/sim/match"
	"ironveld.gg/internal/sim/skirmish"
	"ironveld.gg/internal/sim/tuning"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to resume from (optional; fresh match when empty)")
		logPath    = flag.String("ticks", "", "path to ticks.jsonl.zst")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		matchID    = flag.String("match", "match_1", "match id (fresh match only)")
		seed       = flag.Int64("seed", 1337, "match seed (fresh match only)")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *logPath == "" {
		fmt.Fprintln(os.Stderr, "missing -ticks")
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	id, sd := *matchID, *seed
	var snap snapshot.SnapshotV1
	haveSnap := *snapPath != ""
	if haveSnap {
		snap, err = snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.MatchID != "" {
			id = snap.Header.MatchID
		}
		sd = snap.Seed
		fmt.Printf("snapshot v%d match=%s tick=%d seed=%d nodes=%d harvesters=%d units=%d\n",
			snap.Header.Version, snap.Header.MatchID, snap.Header.Tick, snap.Seed,
			len(snap.Nodes), len(snap.Harvesters), len(snap.Units))
	}

	m := match.New(match.Config{
		ID:         id,
		Seed:       sd,
		TickRateHz: tune.TickRateHz,
	}, logger)
	skirmish.Build(m, tune)
	if haveSnap {
		if err := m.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
	}

	entries, err := simlog.ReadAll(*logPath)
	if err != nil {
		logger.Fatalf("read tick log: %v", err)
	}
	if len(entries) == 0 {
		logger.Fatalf("tick log is empty: %s", *logPath)
	}

	startTick := m.CurrentTick()
	verifyFrom := *fromTick
	if verifyFrom == 0 {
		verifyFrom = startTick + 1
	}

	var checked uint64
	for _, entry := range entries {
		if entry.Tick <= startTick {
			continue
		}
		if *toTick != 0 && entry.Tick > *toTick {
			break
		}
		if entry.Tick != m.CurrentTick()+1 {
			logger.Fatalf("tick gap: log has %d, match is at %d", entry.Tick, m.CurrentTick())
		}

		result := m.StepOnce()
		if result.Tick != entry.Tick {
			logger.Fatalf("internal tick mismatch: stepped=%d entry=%d", result.Tick, entry.Tick)
		}
		if result.Tick >= verifyFrom {
			checked++
			if result.Digest != entry.Digest {
				logger.Fatalf("digest mismatch at tick %d: got=%s want=%s", result.Tick, result.Digest, entry.Digest)
			}
		}
	}
	fmt.Printf("replay ok: checked=%d ticks (from tick=%d)\n", checked, startTick)
}
