package protocol

// BootstrapResponse is served over plain HTTP before an observer opens the
// WebSocket stream. It carries everything a client needs to interpret ticks.
type BootstrapResponse struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	MatchID         string      `json:"match_id"`
	Tick            uint64      `json:"tick"`
	MatchParams     MatchParams `json:"match_params"`
}

type MatchParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Seed       int64 `json:"seed"`
}

// SubscribeMsg is the first (and only) message an observer sends.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// WithEntities asks for per-tick entity summaries in addition to events.
	WithEntities bool `json:"with_entities,omitempty"`
}

// TickMsg is one observer frame per simulation tick.
type TickMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	Digest          string      `json:"digest"`
	Events          []Event     `json:"events,omitempty"`
	Entities        []EntityObs `json:"entities,omitempty"`
}

// EntityObs is a compact per-entity summary for spectator rendering.
type EntityObs struct {
	ID    string     `json:"id"`
	Tag   string     `json:"tag"`
	Team  int        `json:"team"`
	Pos   [2]float64 `json:"pos"`
	State string     `json:"state,omitempty"`

	// Tag-specific payloads.
	Capacity int `json:"capacity,omitempty"`
	Reserved int `json:"reserved,omitempty"`
	Carried  int `json:"carried,omitempty"`
	HP       int `json:"hp,omitempty"`
}
