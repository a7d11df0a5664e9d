package match

// SpatialIndex answers "entities with tag T within radius R of P" queries.
// Entries keep insertion order, which makes query results (and therefore
// every downstream decision) deterministic across runs.
//
// The entity counts this simulation deals in are small, so a linear scan
// beats maintaining a grid; results are written into caller-owned buffers
// so the hot path never allocates.
type SpatialIndex struct {
	entities []Entity
	index    map[Entity]int
}

func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{index: make(map[Entity]int)}
}

func (ix *SpatialIndex) Insert(e Entity) {
	if e == nil {
		return
	}
	if _, ok := ix.index[e]; ok {
		return
	}
	ix.index[e] = len(ix.entities)
	ix.entities = append(ix.entities, e)
}

func (ix *SpatialIndex) Remove(e Entity) {
	i, ok := ix.index[e]
	if !ok {
		return
	}
	last := len(ix.entities) - 1
	moved := ix.entities[last]
	ix.entities[i] = moved
	ix.index[moved] = i
	ix.entities[last] = nil
	ix.entities = ix.entities[:last]
	delete(ix.index, e)
}

func (ix *SpatialIndex) Len() int { return len(ix.entities) }

// AnyTeam matches every team in queries.
const AnyTeam TeamID = -1

// FindWithin appends matches to out[:0] up to cap(out) and returns the
// filled slice. A full buffer truncates the result; it never grows.
func (ix *SpatialIndex) FindWithin(tag Tag, team TeamID, center Vec2, radius float64, out []Entity) []Entity {
	out = out[:0]
	if cap(out) == 0 {
		return out
	}
	for _, e := range ix.entities {
		if e.EntityTag() != tag {
			continue
		}
		if team != AnyTeam && e.EntityTeam() != team {
			continue
		}
		if Dist(center, e.EntityPos()) > radius {
			continue
		}
		out = append(out, e)
		if len(out) == cap(out) {
			break
		}
	}
	return out
}

// Nearest returns the closest match within radius, or false.
func (ix *SpatialIndex) Nearest(tag Tag, team TeamID, center Vec2, radius float64) (Entity, bool) {
	return ix.NearestFunc(tag, team, center, radius, nil)
}

// NearestFunc is Nearest with an extra predicate (may be nil). Ties go to
// the earlier-inserted entity, keeping target choice deterministic.
func (ix *SpatialIndex) NearestFunc(tag Tag, team TeamID, center Vec2, radius float64, keep func(Entity) bool) (Entity, bool) {
	var best Entity
	bestDist := radius
	for _, e := range ix.entities {
		if e.EntityTag() != tag {
			continue
		}
		if team != AnyTeam && e.EntityTeam() != team {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		d := Dist(center, e.EntityPos())
		if d > bestDist {
			continue
		}
		if best == nil || d < bestDist {
			best = e
			bestDist = d
		}
	}
	return best, best != nil
}
