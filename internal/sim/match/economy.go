package match

import "ironveld.gg/internal/protocol"

// Economy is one team's funds ledger. Depots deposit into it; the
// production queue debits it.
type Economy struct {
	team   TeamID
	funds  int
	events EventSink
}

func NewEconomy(team TeamID, startingFunds int, events EventSink) *Economy {
	if events == nil {
		events = discardSink{}
	}
	if startingFunds < 0 {
		startingFunds = 0
	}
	return &Economy{team: team, funds: startingFunds, events: events}
}

func (e *Economy) Team() TeamID { return e.team }
func (e *Economy) Funds() int   { return e.funds }

// AddFunds credits the ledger. Non-positive amounts are ignored.
func (e *Economy) AddFunds(amount int) {
	if amount <= 0 {
		return
	}
	e.funds += amount
	e.events.Emit(protocol.Event{
		"type":   protocol.EventFundsAdded,
		"team":   int(e.team),
		"amount": amount,
		"funds":  e.funds,
	})
}

// TryDebit withdraws amount if covered. Returning false is back-pressure,
// not an error.
func (e *Economy) TryDebit(amount int) bool {
	if amount < 0 {
		return false
	}
	if e.funds < amount {
		return false
	}
	e.funds -= amount
	return true
}
