package config

import (
	"strings"
	"sync"

	"trade_guard/internal/models"
	"trade_guard/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Presets holds the per-pair exit risk parameters, hot-reloaded from disk.
// Active returns a value copy: callers snapshot it into the lot at open time
// and later edits never touch open positions.
type Presets struct {
	mu       sync.RWMutex
	defaults models.ExitConfig
	perPair  map[string]models.ExitConfig
}

func NewPresets(cfg *Config) (*Presets, error) {
	v := viper.New()
	v.SetConfigFile(cfg.PresetsFile)

	v.SetDefault("exit.be_at_pct", 1.0)
	v.SetDefault("exit.fee_cushion_pct", 0.85)
	v.SetDefault("exit.trail_start_pct", 2.0)
	v.SetDefault("exit.trail_distance_pct", 1.0)
	v.SetDefault("exit.trail_step_pct", 0.25)
	v.SetDefault("exit.tp_fixed_enabled", false)
	v.SetDefault("exit.tp_fixed_pct", 5.0)
	v.SetDefault("exit.ultimate_stop_loss_pct", 10.0)
	v.SetDefault("exit.time_stop_hours", 48.0)
	v.SetDefault("exit.time_stop_mode", models.TimeStopSoft)
	v.SetDefault("exit.scale_out_enabled", false)
	v.SetDefault("exit.scale_out_at_pct", 3.0)
	v.SetDefault("exit.scale_out_frac", 0.5)

	p := &Presets{}

	if err := v.ReadInConfig(); err != nil {
		// missing presets file is fine, defaults apply
		logger.Warn("presets: %v, using defaults", err)
	}
	if err := p.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(in fsnotify.Event) {
		if err := p.reload(v); err != nil {
			logger.Error("presets reload failed: %v", err)
			return
		}
		logger.Info("presets reloaded from %s", in.Name)
	})
	v.WatchConfig()

	return p, nil
}

// NewStaticPresets returns a preset set with fixed defaults and no file
// watching behind it.
func NewStaticPresets(def models.ExitConfig) *Presets {
	return &Presets{defaults: def, perPair: map[string]models.ExitConfig{}}
}

func (p *Presets) reload(v *viper.Viper) error {
	var def models.ExitConfig
	if err := v.UnmarshalKey("exit", &def); err != nil {
		return err
	}

	perPair := map[string]models.ExitConfig{}
	raw := map[string]models.ExitConfig{}
	if err := v.UnmarshalKey("pairs", &raw); err != nil {
		return err
	}
	for pair, ec := range raw {
		perPair[strings.ToUpper(pair)] = ec
	}

	p.mu.Lock()
	p.defaults = def
	p.perPair = perPair
	p.mu.Unlock()
	return nil
}

// Active returns the exit configuration in effect for the pair right now.
func (p *Presets) Active(pair string) models.ExitConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if ec, ok := p.perPair[strings.ToUpper(pair)]; ok {
		return ec
	}
	return p.defaults
}
