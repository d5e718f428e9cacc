package exits

import (
	"testing"

	"trade_guard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() models.ExitConfig {
	return models.ExitConfig{
		BreakEvenAtPct:    1.0,
		FeeCushionPct:     0.85,
		TrailStartPct:     2.0,
		TrailDistancePct:  1.0,
		TrailStepPct:      0.25,
		TakeProfitEnabled: true,
		TakeProfitPct:     5.0,
		EmergencyStopPct:  10.0,
	}
}

func openLot(entry float64) models.Position {
	return models.Position{
		LotID:        "lot-1",
		Pair:         "BTC/USD",
		EntryPrice:   entry,
		Amount:       1.0,
		HighestPrice: entry,
	}
}

func TestEvaluateEmergencyStopLoss(t *testing.T) {
	cfg := testConfig()
	p := openLot(100)

	dec := Evaluate(&p, 90, cfg) // exactly -10%
	require.True(t, dec.Sell)
	assert.Equal(t, models.ReasonEmergencyStop, dec.Reason)
	assert.Equal(t, models.EventEmergencyStopLoss, dec.Event)
	assert.Zero(t, dec.SellVolume, "emergency closes in full")
}

func TestEvaluateEmergencyBeatsTrailHit(t *testing.T) {
	// a stop already armed well above the crash price: the crash must
	// still report SL_EMERGENCY, never TRAIL_HIT
	cfg := testConfig()
	p := openLot(100)
	p.TrailingActivated = true
	p.CurrentStopPrice = 101

	dec := Evaluate(&p, 89, cfg)
	require.True(t, dec.Sell)
	assert.Equal(t, models.ReasonEmergencyStop, dec.Reason)
}

func TestEvaluateTakeProfit(t *testing.T) {
	cfg := testConfig()
	p := openLot(100)

	dec := Evaluate(&p, 105, cfg)
	require.True(t, dec.Sell)
	assert.Equal(t, models.ReasonTakeProfit, dec.Reason)
	assert.Equal(t, models.EventTakeProfitFixed, dec.Event)

	// disabled TP never sells on profit alone
	cfg.TakeProfitEnabled = false
	p2 := openLot(100)
	dec = Evaluate(&p2, 105, cfg)
	assert.False(t, dec.Sell)
}

func TestEvaluateBreakEvenArming(t *testing.T) {
	cfg := testConfig()
	p := openLot(100)

	dec := Evaluate(&p, 101, cfg) // +1% hits beAtPct
	assert.False(t, dec.Sell)
	assert.True(t, dec.Modified)
	assert.Equal(t, models.EventBreakEvenArmed, dec.Event)
	require.True(t, p.BreakEvenActivated)
	assert.InDelta(t, 100.85, p.CurrentStopPrice, 1e-9)
}

func TestEvaluateBreakEvenIdempotent(t *testing.T) {
	cfg := testConfig()
	p := openLot(100)

	_ = Evaluate(&p, 101, cfg)
	stop := p.CurrentStopPrice

	// same inputs again: no new event, stop untouched, flag stays
	dec := Evaluate(&p, 101, cfg)
	assert.Empty(t, dec.Event)
	assert.False(t, dec.Modified)
	assert.True(t, p.BreakEvenActivated)
	assert.Equal(t, stop, p.CurrentStopPrice)
}

func TestEvaluateTrailingActivationKeepsBetterStop(t *testing.T) {
	cfg := testConfig()
	p := openLot(100)
	p.BreakEvenActivated = true
	p.CurrentStopPrice = 101.5 // already better than the trail candidate

	dec := Evaluate(&p, 102, cfg) // trail candidate 102*(0.99)=100.98 < 101.5
	assert.True(t, p.TrailingActivated)
	assert.Equal(t, 101.5, p.CurrentStopPrice, "ratchet never loosens break-even")
	assert.False(t, dec.Sell)
}

func TestEvaluateBreakEvenNeverLowersArmedStop(t *testing.T) {
	// trailing already ratcheted to 102 before break-even triggered (a
	// restart can replay ticks in that order): arming the floor must not
	// pull the stop back down, and the stop hit must still fire
	cfg := testConfig()
	p := openLot(100)
	p.TrailingActivated = true
	p.CurrentStopPrice = 102

	dec := Evaluate(&p, 101.5, cfg)
	assert.Equal(t, 102.0, p.CurrentStopPrice, "stop only ever tightens")
	require.True(t, dec.Sell)
	assert.Equal(t, models.ReasonTrailHit, dec.Reason)
}

func TestEvaluateZeroThresholdsStayDormant(t *testing.T) {
	// a preset that only configures the emergency stop and time stop must
	// not arm anything at entry price, let alone sell
	cfg := models.ExitConfig{
		EmergencyStopPct: 10.0,
		TimeStopHours:    48,
		TimeStopMode:     models.TimeStopSoft,
	}
	p := openLot(100)

	dec := Evaluate(&p, 100, cfg)
	assert.False(t, dec.Sell)
	assert.False(t, p.BreakEvenActivated)
	assert.False(t, p.TrailingActivated)
	assert.False(t, p.HasStop())
	assert.False(t, dec.Modified)

	// profit does not change that
	dec = Evaluate(&p, 105, cfg)
	assert.False(t, dec.Sell)
	assert.False(t, p.HasStop())
}

func TestEvaluateTrailingStopMonotonic(t *testing.T) {
	cfg := testConfig()
	p := openLot(100)

	_ = Evaluate(&p, 103, cfg) // activates trailing, stop = 101.97
	require.True(t, p.TrailingActivated)
	first := p.CurrentStopPrice
	assert.InDelta(t, 101.97, first, 1e-9)

	// price up but within the step: stop holds
	_ = Evaluate(&p, 103.1, cfg)
	assert.Equal(t, first, p.CurrentStopPrice)

	// price beyond the step: stop ratchets up
	dec := Evaluate(&p, 104, cfg)
	assert.Greater(t, p.CurrentStopPrice, first)
	assert.Equal(t, models.EventTrailingUpdated, dec.Event)

	// stop never moves down
	prev := p.CurrentStopPrice
	_ = Evaluate(&p, 103.2, cfg)
	assert.GreaterOrEqual(t, p.CurrentStopPrice, prev)
}

func TestEvaluateStopHitReasons(t *testing.T) {
	cfg := testConfig()

	// trailing active -> TRAIL_HIT
	p := openLot(100)
	p.TrailingActivated = true
	p.CurrentStopPrice = 102

	dec := Evaluate(&p, 101.5, cfg)
	require.True(t, dec.Sell)
	assert.Equal(t, models.ReasonTrailHit, dec.Reason)
	assert.Equal(t, models.EventExitTriggered, dec.Event)

	// break-even only -> BE_HIT
	p2 := openLot(100)
	p2.BreakEvenActivated = true
	p2.CurrentStopPrice = 100.85

	dec = Evaluate(&p2, 100.5, cfg)
	require.True(t, dec.Sell)
	assert.Equal(t, models.ReasonBreakEvenHit, dec.Reason)
}

func TestEvaluateScaleOutOnce(t *testing.T) {
	cfg := testConfig()
	cfg.TakeProfitEnabled = false
	cfg.ScaleOutEnabled = true
	cfg.ScaleOutAtPct = 3.0
	cfg.ScaleOutFrac = 0.5

	p := openLot(100)
	p.Amount = 2.0

	dec := Evaluate(&p, 103, cfg)
	require.True(t, dec.Sell)
	assert.Equal(t, models.ReasonScaleOut, dec.Reason)
	assert.InDelta(t, 1.0, dec.SellVolume, 1e-9)
	assert.True(t, p.ScaleOutDone)

	// never twice
	dec = Evaluate(&p, 103.01, cfg)
	assert.NotEqual(t, models.ReasonScaleOut, dec.Reason)
}

func TestEvaluateHighestPriceTracked(t *testing.T) {
	cfg := testConfig()
	p := openLot(100)

	_ = Evaluate(&p, 100.5, cfg)
	assert.Equal(t, 100.5, p.HighestPrice)

	_ = Evaluate(&p, 100.2, cfg)
	assert.Equal(t, 100.5, p.HighestPrice)
}
