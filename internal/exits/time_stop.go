package exits

import (
	"time"

	"trade_guard/internal/models"
)

// TimeStopDue reports whether the age alert for this lot should fire now.
// Fires at most once per lot: the runner stamps TimeStopExpiredAt only after
// a successful notification, so an unavailable channel retries next tick.
func TimeStopDue(p *models.Position, cfg models.ExitConfig, now time.Time) bool {
	if cfg.TimeStopHours <= 0 || p.TimeStopDisabled {
		return false
	}
	if !p.TimeStopExpiredAt.IsZero() {
		return false
	}
	maxAge := time.Duration(cfg.TimeStopHours * float64(time.Hour))
	return p.Age(now) >= maxAge
}

// TimeStopForcesClose reports whether the configured mode instructs an
// immediate close rather than an advisory alert.
func TimeStopForcesClose(cfg models.ExitConfig) bool {
	return cfg.TimeStopMode == models.TimeStopHard
}
