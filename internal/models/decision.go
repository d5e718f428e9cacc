package models

// Sell reason tags, stable codes for downstream alerting.
const (
	ReasonEmergencyStop = "SL_EMERGENCY"
	ReasonTakeProfit    = "TP_FIXED"
	ReasonTrailHit      = "TRAIL_HIT"
	ReasonBreakEvenHit  = "BE_HIT"
	ReasonScaleOut      = "SCALE_OUT"
	ReasonTimeStop      = "TIME_STOP"
)

// Guard/exit events emitted by the evaluator, at most one per tick.
const (
	EventEmergencyStopLoss = "SG_EMERGENCY_STOPLOSS"
	EventTakeProfitFixed   = "SG_TP_FIXED"
	EventBreakEvenArmed    = "BREAKEVEN_ARMED"
	EventTrailingActivated = "SG_TRAILING_ACTIVATED"
	EventTrailingUpdated   = "TRAILING_UPDATED"
	EventExitTriggered     = "EXIT_TRIGGERED"
	EventScaleOut          = "SG_SCALE_OUT"
	EventTimeStopExpired   = "SG_TIME_STOP"
)

// ExitDecision is the outcome of one evaluation tick for one lot.
// Sell=false with Modified=true means guard state advanced (arm/ratchet)
// and the position must be persisted.
type ExitDecision struct {
	Sell       bool
	SellVolume float64 // 0 = full amount
	Reason     string
	Event      string
	Modified   bool
}

// Market regimes used to select spread thresholds.
const (
	RegimeTrend      = "TREND"
	RegimeRange      = "RANGE"
	RegimeTransition = "TRANSITION"
)

// SpreadDecision is derived per check, never persisted.
type SpreadDecision struct {
	SpreadPct    float64
	EffectivePct float64
	ThresholdPct float64
	Allowed      bool
	Reason       string
}

// Spread gate reason codes.
const (
	SpreadOK          = "ok"
	SpreadDisabled    = "gate_disabled"
	SpreadBelowFloor  = "below_floor"
	SpreadMissingData = "missing_data"
	SpreadTooHigh     = "spread_too_high"
)
