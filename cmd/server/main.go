package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"ironveld.gg/internal/persistence/indexdb"
	"ironveld.gg/internal/persistence/simlog"
	"ironveld.gg/internal/persistence/snapshot"
	"ironveld.gg/internal/sim/match"
	"ironveld.gg/internal/sim/skirmish"
	"ironveld.gg/internal/sim/tuning"
	"ironveld.gg/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		matchID    = flag.String("match", "match_1", "match id")
		seed       = flag.Int64("seed", 1337, "match seed (used only when starting a fresh match)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick/event index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	matchDir := filepath.Join(*dataDir, "matches", *matchID)
	_ = os.MkdirAll(matchDir, 0o755)

	// Load tuning (required for a fresh match; a snapshot resume can fall
	// back to defaults since the snapshot carries the effective rates).
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(matchDir)
	}
	tune, tuneErr := tuning.Load(*tuningPath)
	if tuneErr != nil {
		if snapshotToLoad != "" && os.IsNotExist(tuneErr) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
	}

	// Optional: read-model index backend (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		var err error
		idx, err = indexdb.OpenSQLite(filepath.Join(matchDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
	}

	m := match.New(match.Config{
		ID:                 *matchID,
		Seed:               *seed,
		TickRateHz:         tune.TickRateHz,
		SnapshotEveryTicks: tune.SnapshotEveryTicks,
	}, logger)

	// Snapshots hold dynamic state only; layout always comes from tuning.
	skirmish.Build(m, tune)

	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.MatchID != "" && snap.Header.MatchID != *matchID {
			logger.Fatalf("snapshot match id mismatch: flag=%s snap=%s", *matchID, snap.Header.MatchID)
		}
		if err := m.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), m.CurrentTick())
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := simlog.NewWriter(filepath.Join(matchDir, "ticks.jsonl.zst"))
	defer tickLog.Close()
	fanout := multiTickLogger{a: tickLog}
	if idx != nil {
		fanout.b = idx
		idx.RecordRun(*matchID, *seed, tune.TickRateHz)
	}
	m.SetTickLogger(fanout)

	// Snapshot writer: the loop goroutine exports, this one persists.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	m.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(matchDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap.Header.Tick, snap.Seed, len(snap.Harvesters), len(snap.Units), len(snap.Nodes))
				}
			}
		}
	}()

	go func() {
		if err := m.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("match stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		tick := m.CurrentTick()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP ironveld_match_tick Current match tick.\n")
		fmt.Fprintf(rw, "# TYPE ironveld_match_tick gauge\n")
		fmt.Fprintf(rw, "ironveld_match_tick{match=%q} %d\n", *matchID, tick)

		fmt.Fprintf(rw, "# HELP ironveld_match_harvesters Harvester count.\n")
		fmt.Fprintf(rw, "# TYPE ironveld_match_harvesters gauge\n")
		fmt.Fprintf(rw, "ironveld_match_harvesters{match=%q} %d\n", *matchID, len(m.Harvesters()))

		fmt.Fprintf(rw, "# HELP ironveld_match_units Living combat unit count.\n")
		fmt.Fprintf(rw, "# TYPE ironveld_match_units gauge\n")
		fmt.Fprintf(rw, "ironveld_match_units{match=%q} %d\n", *matchID, len(m.Units()))

		fmt.Fprintf(rw, "# HELP ironveld_match_nodes_remaining Total ore remaining across nodes.\n")
		fmt.Fprintf(rw, "# TYPE ironveld_match_nodes_remaining gauge\n")
		remaining := 0
		for _, n := range m.Nodes() {
			remaining += n.Remaining()
		}
		fmt.Fprintf(rw, "ironveld_match_nodes_remaining{match=%q} %d\n", *matchID, remaining)
	})
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			MatchID string `json:"match_id"`
			Tick    uint64 `json:"tick"`
		}{
			MatchID: *matchID,
			Tick:    m.CurrentTick(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})

	obsSrv := observer.NewServer(m, logger)
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(matchDir string) string {
	dir := filepath.Join(matchDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

type multiTickLogger struct {
	a match.TickLogger
	b match.TickLogger
}

func (m multiTickLogger) WriteTick(entry match.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}
