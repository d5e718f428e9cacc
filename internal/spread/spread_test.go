package spread

import (
	"testing"

	"trade_guard/internal/models"

	"github.com/stretchr/testify/assert"
)

func gateConfig() Config {
	return Config{
		Enabled:       true,
		FloorPct:      0.10,
		MaxPct:        3.0,
		DefaultPct:    1.0,
		TrendPct:      1.5,
		RangePct:      2.0,
		TransitionPct: 1.0,
	}
}

func TestCheckRegimeThresholds(t *testing.T) {
	cfg := gateConfig()

	// bid=99 ask=101 -> spread 2.0% of midpoint
	dec := Check(99, 101, models.RegimeTrend, "kraken", cfg)
	assert.False(t, dec.Allowed)
	assert.Equal(t, models.SpreadTooHigh, dec.Reason)
	assert.InDelta(t, 2.0, dec.SpreadPct, 1e-9)
	assert.InDelta(t, 1.5, dec.ThresholdPct, 1e-9)

	// same quote under RANGE (threshold 2.0): allowed, non-strict
	dec = Check(99, 101, models.RegimeRange, "kraken", cfg)
	assert.True(t, dec.Allowed)
	assert.Equal(t, models.SpreadOK, dec.Reason)
}

func TestCheckUnknownRegimeFallsBack(t *testing.T) {
	cfg := gateConfig()
	dec := Check(99.5, 100.5, "WEIRD", "kraken", cfg) // ~1.0%
	assert.InDelta(t, 1.0, dec.ThresholdPct, 1e-9)
	assert.True(t, dec.Allowed)
}

func TestCheckMissingData(t *testing.T) {
	cfg := gateConfig()
	for _, q := range [][2]float64{{0, 101}, {99, 0}, {-1, 101}, {99, -5}} {
		dec := Check(q[0], q[1], models.RegimeRange, "kraken", cfg)
		assert.False(t, dec.Allowed)
		assert.Equal(t, models.SpreadMissingData, dec.Reason)
	}
}

func TestCheckFloorAlwaysAllows(t *testing.T) {
	cfg := gateConfig()
	cfg.TrendPct = 0.0001 // threshold tighter than any real quote
	dec := Check(99.99, 100.01, models.RegimeTrend, "kraken", cfg) // 0.02% < floor
	assert.True(t, dec.Allowed)
	assert.Equal(t, models.SpreadBelowFloor, dec.Reason)
}

func TestCheckVenueMarkup(t *testing.T) {
	cfg := gateConfig()
	cfg.VenueMarkupPct = map[string]float64{"paper": 1.5}

	// 0.5% raw spread, +1.5 markup = 2.0% effective, TREND threshold 1.5
	dec := Check(99.75, 100.25, models.RegimeTrend, "paper", cfg)
	assert.False(t, dec.Allowed)
	assert.InDelta(t, 2.0, dec.EffectivePct, 1e-9)

	// same quote on a venue without markup passes
	dec = Check(99.75, 100.25, models.RegimeTrend, "kraken", cfg)
	assert.True(t, dec.Allowed)
}

func TestCheckGlobalCap(t *testing.T) {
	cfg := gateConfig()
	cfg.RangePct = 10 // over the 3.0 cap
	dec := Check(98, 102, models.RegimeRange, "kraken", cfg) // ~4.0%
	assert.False(t, dec.Allowed)
	assert.InDelta(t, 3.0, dec.ThresholdPct, 1e-9)
}

func TestCheckDisabledGate(t *testing.T) {
	cfg := gateConfig()
	cfg.Enabled = false
	dec := Check(0, 0, "", "", cfg)
	assert.True(t, dec.Allowed)
	assert.Equal(t, models.SpreadDisabled, dec.Reason)
}
