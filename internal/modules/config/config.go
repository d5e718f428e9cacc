package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"trade_guard/internal/spread"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	venueKeyENV       = "VENUE_API_KEY"
	venueSecretENV    = "VENUE_API_SECRET"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB     string `yaml:"db_dsn"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Venue struct {
		Active    string  `yaml:"active"` // kraken | paper
		APIKey    string  `yaml:"api_key"`
		APISecret string  `yaml:"api_secret"`
		// fixed execution markup for venues without a public order book
		PaperMarkupPct float64 `yaml:"paper_markup_pct"`
	} `yaml:"venue"`

	// instruments the scheduling loop tracks
	Pairs        []string      `yaml:"pairs"`
	TickInterval time.Duration `yaml:"-"` // TICK_INTERVAL env, e.g. "15s"

	// execution gates
	QuoteCurrency    string  `yaml:"quote_currency"`     // approved settlement currency
	MinOrderNotional float64 `yaml:"min_order_notional"` // absolute floor, quote units
	TakerFeePct      float64 `yaml:"taker_fee_pct"`
	DCAEnabled       bool    `yaml:"dca_enabled"`

	Spread spread.Config `yaml:"spread"`

	// per-pair exit presets, hot-reloadable
	PresetsFile string `yaml:"presets_file"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		TickInterval:     durationFromEnv("TICK_INTERVAL", "15s"),
		QuoteCurrency:    getenvDefault("QUOTE_CURRENCY", "USD"),
		MinOrderNotional: floatFromEnv("MIN_ORDER_NOTIONAL", 10),
		TakerFeePct:      floatFromEnv("TAKER_FEE_PCT", 0.40),
		DCAEnabled:       boolFromEnv("DCA_ENABLED", true),
		PresetsFile:      getenvDefault("PRESETS_FILE", "configs/presets.yaml"),
		Spread: spread.Config{
			Enabled:       true,
			FloorPct:      floatFromEnv("SPREAD_FLOOR_PCT", 0.10),
			MaxPct:        floatFromEnv("SPREAD_MAX_PCT", 3.0),
			DefaultPct:    floatFromEnv("SPREAD_DEFAULT_PCT", 1.0),
			TrendPct:      floatFromEnv("SPREAD_TREND_PCT", 1.5),
			RangePct:      floatFromEnv("SPREAD_RANGE_PCT", 2.0),
			TransitionPct: floatFromEnv("SPREAD_TRANSITION_PCT", 1.0),
		},
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if k := os.Getenv(venueKeyENV); k != "" {
		config.Venue.APIKey = k
	}
	if s := os.Getenv(venueSecretENV); s != "" {
		config.Venue.APISecret = s
	}

	if config.Venue.PaperMarkupPct > 0 {
		if config.Spread.VenueMarkupPct == nil {
			config.Spread.VenueMarkupPct = map[string]float64{}
		}
		config.Spread.VenueMarkupPct["paper"] = config.Venue.PaperMarkupPct
	}

	return &config, nil
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
