package models

const (
	TimeStopSoft = "soft"
	TimeStopHard = "hard"
)

// ExitConfig holds scalar risk thresholds, all percentages of entry price
// unless noted. Snapshotted into a Position at open time.
type ExitConfig struct {
	BreakEvenAtPct    float64 `mapstructure:"be_at_pct" yaml:"be_at_pct"`
	FeeCushionPct     float64 `mapstructure:"fee_cushion_pct" yaml:"fee_cushion_pct"`
	TrailStartPct     float64 `mapstructure:"trail_start_pct" yaml:"trail_start_pct"`
	TrailDistancePct  float64 `mapstructure:"trail_distance_pct" yaml:"trail_distance_pct"`
	TrailStepPct      float64 `mapstructure:"trail_step_pct" yaml:"trail_step_pct"`
	TakeProfitEnabled bool    `mapstructure:"tp_fixed_enabled" yaml:"tp_fixed_enabled"`
	TakeProfitPct     float64 `mapstructure:"tp_fixed_pct" yaml:"tp_fixed_pct"`
	EmergencyStopPct  float64 `mapstructure:"ultimate_stop_loss_pct" yaml:"ultimate_stop_loss_pct"`
	TimeStopHours     float64 `mapstructure:"time_stop_hours" yaml:"time_stop_hours"`
	TimeStopMode      string  `mapstructure:"time_stop_mode" yaml:"time_stop_mode"` // soft | hard

	ScaleOutEnabled bool    `mapstructure:"scale_out_enabled" yaml:"scale_out_enabled"`
	ScaleOutAtPct   float64 `mapstructure:"scale_out_at_pct" yaml:"scale_out_at_pct"`
	ScaleOutFrac    float64 `mapstructure:"scale_out_frac" yaml:"scale_out_frac"`
}
