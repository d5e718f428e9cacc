// Package spread implements the pre-trade liquidity veto: a pure check of
// the quoted bid/ask spread against regime-dependent thresholds.
package spread

import (
	"trade_guard/internal/models"
)

type Config struct {
	Enabled  bool    `mapstructure:"enabled" yaml:"enabled"`
	FloorPct float64 `mapstructure:"floor_pct" yaml:"floor_pct"` // below this spread is frictional noise, always allow
	MaxPct   float64 `mapstructure:"max_pct" yaml:"max_pct"`     // global cap on every regime threshold

	DefaultPct    float64 `mapstructure:"default_pct" yaml:"default_pct"`
	TrendPct      float64 `mapstructure:"trend_pct" yaml:"trend_pct"`
	RangePct      float64 `mapstructure:"range_pct" yaml:"range_pct"`
	TransitionPct float64 `mapstructure:"transition_pct" yaml:"transition_pct"`

	// venues without a public order book get a fixed execution markup
	// added on top of the observed spread
	VenueMarkupPct map[string]float64 `mapstructure:"venue_markup_pct" yaml:"venue_markup_pct"`
}

// Check decides whether an order on the given venue may be placed at the
// current quote. Derived only, never persisted.
func Check(bid, ask float64, regime, venue string, cfg Config) models.SpreadDecision {
	if !cfg.Enabled {
		return models.SpreadDecision{Allowed: true, Reason: models.SpreadDisabled}
	}
	if bid <= 0 || ask <= 0 {
		return models.SpreadDecision{Allowed: false, Reason: models.SpreadMissingData}
	}

	mid := (bid + ask) / 2
	spreadPct := (ask - bid) / mid * 100
	effective := spreadPct + cfg.VenueMarkupPct[venue]

	if effective < cfg.FloorPct {
		return models.SpreadDecision{
			SpreadPct:    spreadPct,
			EffectivePct: effective,
			Allowed:      true,
			Reason:       models.SpreadBelowFloor,
		}
	}

	threshold := cfg.thresholdFor(regime)
	dec := models.SpreadDecision{
		SpreadPct:    spreadPct,
		EffectivePct: effective,
		ThresholdPct: threshold,
	}
	if effective > threshold {
		dec.Reason = models.SpreadTooHigh
		return dec
	}
	dec.Allowed = true
	dec.Reason = models.SpreadOK
	return dec
}

func (c Config) thresholdFor(regime string) float64 {
	t := c.DefaultPct
	switch regime {
	case models.RegimeTrend:
		t = c.TrendPct
	case models.RegimeRange:
		t = c.RangePct
	case models.RegimeTransition:
		t = c.TransitionPct
	}
	if t <= 0 {
		t = c.DefaultPct
	}
	if c.MaxPct > 0 && t > c.MaxPct {
		t = c.MaxPct
	}
	return t
}
