package match

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"
)

// stateDigest hashes the full dynamic state of the match in a canonical
// order. Two runs diverge the moment their digests do, which is how the
// replayer verifies determinism tick by tick.
func (m *Match) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestU64(h, &tmp, nowTick)
	digestI64(h, &tmp, m.cfg.Seed)

	for _, n := range m.nodes {
		digestString(h, &tmp, n.id)
		digestI64(h, &tmp, int64(n.capacity))
		digestI64(h, &tmp, int64(n.reserved))
		h.Write([]byte{boolByte(n.depletionFired)})
	}

	for _, d := range m.depots {
		digestString(h, &tmp, d.id)
		digestI64(h, &tmp, int64(len(d.free)))
		for _, slot := range d.free {
			digestI64(h, &tmp, int64(slot))
		}
		holders := make([]string, 0, len(d.holders))
		for id := range d.holders {
			holders = append(holders, id)
		}
		sort.Strings(holders)
		for _, id := range holders {
			digestString(h, &tmp, id)
			digestI64(h, &tmp, int64(d.holders[id]))
		}
	}

	teams := make([]int, 0, len(m.economies))
	for team := range m.economies {
		teams = append(teams, int(team))
	}
	sort.Ints(teams)
	for _, team := range teams {
		digestI64(h, &tmp, int64(team))
		digestI64(h, &tmp, int64(m.economies[TeamID(team)].funds))
	}

	for _, hv := range m.harvesters {
		digestString(h, &tmp, hv.id)
		digestI64(h, &tmp, int64(hv.state))
		digestI64(h, &tmp, int64(hv.carried))
		digestI64(h, &tmp, int64(hv.dockSlot))
		digestVec(h, &tmp, hv.Position())
		if hv.node != nil {
			digestString(h, &tmp, hv.node.id)
		} else {
			digestString(h, &tmp, "")
		}
		if hv.depot != nil {
			digestString(h, &tmp, hv.depot.id)
		} else {
			digestString(h, &tmp, "")
		}
	}

	for _, u := range m.units {
		digestString(h, &tmp, u.id)
		digestI64(h, &tmp, int64(u.team))
		digestI64(h, &tmp, int64(u.hp))
		h.Write([]byte{boolByte(u.aggressive)})
		digestVec(h, &tmp, u.Position())
	}

	for _, f := range m.factories {
		digestString(h, &tmp, f.id)
		digestI64(h, &tmp, int64(f.nextUnitNum))
		digestI64(h, &tmp, int64(len(f.queue)))
		for _, p := range f.queue {
			digestString(h, &tmp, p.item.ID)
			digestI64(h, &tmp, int64(p.ticksLeft))
		}
	}

	for _, c := range m.commanders {
		digestI64(h, &tmp, int64(c.team))
		digestI64(h, &tmp, int64(c.state))
		digestI64(h, &tmp, int64(c.padCursor))
		digestI64(h, &tmp, int64(c.buildCursor))
		digestI64(h, &tmp, int64(c.rolloutHP))
		digestI64(h, &tmp, unixOrZero(c.nextWaveAt))
		digestI64(h, &tmp, unixOrZero(c.lastOrderAt))
		h.Write([]byte{boolByte(c.enemyResolved)})
		digestVec(h, &tmp, c.enemyPos)
		digestI64(h, &tmp, int64(len(c.squad)))
		for _, u := range c.squad {
			if u != nil {
				digestString(h, &tmp, u.id)
			}
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestU64(h, tmp, uint64(v))
}

func digestString(h hash.Hash, tmp *[8]byte, s string) {
	digestU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestVec(h hash.Hash, tmp *[8]byte, v Vec2) {
	digestU64(h, tmp, math.Float64bits(v.X))
	digestU64(h, tmp, math.Float64bits(v.Y))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
