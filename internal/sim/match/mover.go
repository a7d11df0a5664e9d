package match

// Locomotion is the movement contract FSMs drive. Destination requests are
// fire-and-forget; the mover is advanced by the match movement system, not
// by the FSM itself.
type Locomotion interface {
	SetDestination(p Vec2)
	IsMoving() bool
	Position() Vec2
}

// Mover is a straight-line kinematic implementation of Locomotion. It is
// embedded in harvesters and combat units and advanced once per tick.
type Mover struct {
	pos    Vec2
	dest   Vec2
	speed  float64 // units per second
	moving bool
}

func NewMover(pos Vec2, speed float64) Mover {
	return Mover{pos: pos, speed: speed}
}

func (m *Mover) SetDestination(p Vec2) {
	m.dest = p
	m.moving = Dist(m.pos, p) > 0
}

func (m *Mover) IsMoving() bool { return m.moving }

func (m *Mover) Position() Vec2 { return m.pos }

func (m *Mover) Speed() float64 { return m.speed }

// Teleport places the mover without a travel request (spawn, snapshot restore).
func (m *Mover) Teleport(p Vec2) {
	m.pos = p
	m.moving = false
}

// advance steps toward the destination, clamping at arrival.
func (m *Mover) advance(dt float64) {
	if !m.moving || dt <= 0 {
		return
	}
	delta := m.dest.Sub(m.pos)
	step := m.speed * dt
	if delta.Len() <= step {
		m.pos = m.dest
		m.moving = false
		return
	}
	m.pos = m.pos.Add(delta.Scale(step / delta.Len()))
}
