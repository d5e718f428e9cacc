package models

import "time"

// Position is one open lot, keyed by LotID. Partial exits shrink Amount,
// full close removes the record.
type Position struct {
	LotID        string
	Pair         string
	EntryPrice   float64
	Amount       float64
	EntryFee     float64 // absolute, quote currency
	HighestPrice float64

	// guard state
	BreakEvenActivated bool
	TrailingActivated  bool
	CurrentStopPrice   float64 // 0 = no stop armed yet
	ScaleOutDone       bool

	// time-stop state
	OpenedAt          time.Time
	TimeStopDisabled  bool
	TimeStopExpiredAt time.Time // set once, never re-notified

	// risk parameters frozen at open; config edits never touch open lots
	Config ExitConfig
}

func (p *Position) HasStop() bool { return p.CurrentStopPrice > 0 }

// Notional is the entry value of the remaining amount.
func (p *Position) Notional() float64 { return p.EntryPrice * p.Amount }

func (p *Position) Age(now time.Time) time.Duration {
	if p.OpenedAt.IsZero() {
		return 0
	}
	return now.Sub(p.OpenedAt)
}

// Trade is a settled execution record, persisted for the journal.
type Trade struct {
	LotID      string
	Pair       string
	Side       string // BUY/SELL
	Price      float64
	Volume     float64
	Notional   float64
	GrossPnL   float64
	EntryFee   float64
	ExitFee    float64
	NetPnL     float64
	NetPnLPct  float64 // relative to entry notional
	Reason     string
	OrderRef   string
	ExecutedAt time.Time
}
