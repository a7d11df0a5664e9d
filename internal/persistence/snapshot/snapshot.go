package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	MatchID string `json:"match_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures the full dynamic state of a match. A snapshot plus
// the tick log from that tick onward reproduces the run exactly.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed       int64 `json:"seed"`
	TickRateHz int   `json:"tick_rate_hz"`
	EpochUnix  int64 `json:"epoch_unix"`

	Nodes      []NodeV1      `json:"nodes"`
	Depots     []DepotV1     `json:"depots"`
	Economies  []EconomyV1   `json:"economies"`
	Harvesters []HarvesterV1 `json:"harvesters"`
	Units      []UnitV1      `json:"units"`
	Factories  []FactoryV1   `json:"factories"`
	Commanders []CommanderV1 `json:"commanders"`
}

type NodeV1 struct {
	ID             string `json:"id"`
	Capacity       int    `json:"capacity"`
	Reserved       int    `json:"reserved"`
	DepletionFired bool   `json:"depletion_fired"`
}

type DepotV1 struct {
	ID      string         `json:"id"`
	Free    []int          `json:"free"`
	Holders map[string]int `json:"holders,omitempty"`
}

type EconomyV1 struct {
	Team  int `json:"team"`
	Funds int `json:"funds"`
}

type HarvesterV1 struct {
	ID       string     `json:"id"`
	State    int        `json:"state"`
	Carried  int        `json:"carried"`
	Pos      [2]float64 `json:"pos"`
	Dest     [2]float64 `json:"dest"`
	Moving   bool       `json:"moving"`
	DockSlot int        `json:"dock_slot"`
	DockPos  [2]float64 `json:"dock_pos"`
	NodeID   string     `json:"node_id,omitempty"`
	DepotID  string     `json:"depot_id,omitempty"`
}

type UnitV1 struct {
	ID         string     `json:"id"`
	Team       int        `json:"team"`
	HP         int        `json:"hp"`
	MaxHP      int        `json:"max_hp"`
	Cost       int        `json:"cost"`
	Speed      float64    `json:"speed"`
	Pos        [2]float64 `json:"pos"`
	Dest       [2]float64 `json:"dest"`
	Moving     bool       `json:"moving"`
	Aggressive bool       `json:"aggressive"`
}

type FactoryV1 struct {
	ID          string         `json:"id"`
	NextUnitNum int            `json:"next_unit_num"`
	Queue       []QueueEntryV1 `json:"queue,omitempty"`
}

type QueueEntryV1 struct {
	ItemID    string  `json:"item_id"`
	Cost      int     `json:"cost"`
	BuildTime float64 `json:"build_time"`
	TicksLeft int     `json:"ticks_left"`
}

type CommanderV1 struct {
	Team           int        `json:"team"`
	State          int        `json:"state"`
	EnemyResolved  bool       `json:"enemy_resolved"`
	EnemyPos       [2]float64 `json:"enemy_pos"`
	PadCursor      int        `json:"pad_cursor"`
	BuildCursor    int        `json:"build_cursor"`
	RolloutHP      int        `json:"rollout_hp"`
	SquadIDs       []string   `json:"squad_ids,omitempty"`
	NextWaveAtUnix int64      `json:"next_wave_at_unix_nano"`
	LastOrderUnix  int64      `json:"last_order_unix_nano"`
}

// WriteSnapshot stores a snapshot as a JSON header line followed by a
// gob-encoded body, zstd-compressed.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line is advisory; the gob body carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
