package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"ironveld.gg/internal/sim/match"
)

// SQLiteIndex is a queryable sidecar over the JSONL tick logs. Writes are
// funneled through a single goroutine so the rest of the server never blocks
// on disk; if the indexer falls behind, entries are dropped and the JSONL
// logs remain the source of truth.
type SQLiteIndex struct {
	db     *sql.DB
	ch     chan req
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota
	reqRun
	reqSnapshot
)

type req struct {
	kind     reqKind
	tick     match.TickLogEntry
	run      runRow
	snapshot snapshotRow
}

type runRow struct {
	MatchID   string
	Seed      int64
	TickRate  int
	StartedAt string
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Seed       int64
	Harvesters int
	Units      int
	Nodes      int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection: the writer goroutine owns all writes, and SQLite
	// behaves best without connection churn.
	db.SetMaxOpenConns(1)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go s.loop()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			match_id   TEXT PRIMARY KEY,
			seed       INTEGER NOT NULL,
			tick_rate  INTEGER NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick        INTEGER PRIMARY KEY,
			digest      TEXT NOT NULL,
			event_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq  INTEGER NOT NULL,
			type TEXT NOT NULL,
			json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick       INTEGER PRIMARY KEY,
			path       TEXT NOT NULL,
			seed       INTEGER NOT NULL,
			harvesters INTEGER NOT NULL,
			units      INTEGER NOT NULL,
			nodes      INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	defer s.wg.Done()
	for r := range s.ch {
		switch r.kind {
		case reqTick:
			s.insertTick(r.tick)
		case reqRun:
			s.insertRun(r.run)
		case reqSnapshot:
			s.insertSnapshot(r.snapshot)
		}
	}
}

func (s *SQLiteIndex) insertTick(entry match.TickLogEntry) {
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO ticks (tick, digest, event_count) VALUES (?, ?, ?);`,
		int64(entry.Tick), entry.Digest, len(entry.Events),
	)
	for seq, ev := range entry.Events {
		typ, _ := ev["type"].(string)
		raw, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		_, _ = s.db.Exec(
			`INSERT OR REPLACE INTO events (tick, seq, type, json) VALUES (?, ?, ?, ?);`,
			int64(entry.Tick), seq, typ, string(raw),
		)
	}
}

func (s *SQLiteIndex) insertRun(r runRow) {
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO runs (match_id, seed, tick_rate, started_at) VALUES (?, ?, ?, ?);`,
		r.MatchID, r.Seed, r.TickRate, r.StartedAt,
	)
}

func (s *SQLiteIndex) insertSnapshot(r snapshotRow) {
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO snapshots (tick, path, seed, harvesters, units, nodes) VALUES (?, ?, ?, ?, ?, ?);`,
		int64(r.Tick), r.Path, r.Seed, r.Harvesters, r.Units, r.Nodes,
	)
}

// WriteTick satisfies match.TickLogger. Non-blocking.
func (s *SQLiteIndex) WriteTick(entry match.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) RecordRun(matchID string, seed int64, tickRate int) {
	if s == nil || s.closed.Load() {
		return
	}
	r := runRow{
		MatchID:   matchID,
		Seed:      seed,
		TickRate:  tickRate,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqRun, run: r}:
	default:
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, tick uint64, seed int64, harvesters, units, nodes int) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:       tick,
		Path:       path,
		Seed:       seed,
		Harvesters: harvesters,
		Units:      units,
		Nodes:      nodes,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
