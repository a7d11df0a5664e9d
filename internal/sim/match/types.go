package match

import "math"

// TeamID identifies one side of a match. Zero is reserved for "no team"
// (neutral entities such as resource nodes).
type TeamID int

const TeamNeutral TeamID = 0

// Tag classifies entities for spatial queries.
type Tag string

const (
	TagResourceNode Tag = "resource_node"
	TagDepot        Tag = "depot"
	TagHarvester    Tag = "harvester"
	TagCombatUnit   Tag = "combat_unit"
)

// Vec2 is a world-space position in simulation units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

func Dist(a, b Vec2) float64 { return a.Sub(b).Len() }

// Entity is anything the spatial index can hold. Callers that need the
// concrete type assert on the result (the index is the only generic seam).
type Entity interface {
	EntityID() string
	EntityTag() Tag
	EntityTeam() TeamID
	EntityPos() Vec2
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
