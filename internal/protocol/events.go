package protocol

// Event is a loosely typed simulation event record. Events are produced by
// the match loop, appended to the tick log, and streamed to observers.
// Every event carries at least "t" (tick) and "type".
type Event map[string]interface{}

// Event types emitted by the simulation core.
const (
	EventNodeDepleted   = "NODE_DEPLETED"
	EventDockAssigned   = "DOCK_ASSIGNED"
	EventDockReleased   = "DOCK_RELEASED"
	EventFundsAdded     = "FUNDS_ADDED"
	EventPadPlaced      = "PAD_PLACED"
	EventProductionDone = "PRODUCTION_DONE"
	EventWaveLaunched   = "WAVE_LAUNCHED"
	EventRetreat        = "RETREAT"
	EventUnderAttack    = "UNDER_ATTACK"
	EventUnitDied       = "UNIT_DIED"
)
