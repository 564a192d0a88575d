package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Symbols  map[string]SymbolConfig `mapstructure:"symbols"`
	Venues   VenuesConfig            `mapstructure:"venues"`
	Alert    AlertConfig             `mapstructure:"alert"`
	Telegram TelegramConfig          `mapstructure:"telegram"`
	Log      LogConfig               `mapstructure:"log"`
	Postgres PostgresConfig          `mapstructure:"postgres"`
	Server   ServerConfig            `mapstructure:"server"`
}

// SymbolConfig maps one tracked symbol (e.g. "BTC") to its venue-specific
// identifiers. Gate and OKX quote sizes in contracts, so both carry a
// contracts-to-base-units multiplier.
type SymbolConfig struct {
	Binance          string  `mapstructure:"binance"`
	Bybit            string  `mapstructure:"bybit"`
	Gate             string  `mapstructure:"gate"`
	OKX              string  `mapstructure:"okx"`
	GateContractSize float64 `mapstructure:"gate_contract_size"`
	OKXContractSize  float64 `mapstructure:"okx_contract_size"`
}

type VenuesConfig struct {
	BinanceWSURL string `mapstructure:"binance_ws_url"`
	BybitWSURL   string `mapstructure:"bybit_ws_url"`
	GateWSURL    string `mapstructure:"gate_ws_url"`
	OKXWSURL     string `mapstructure:"okx_ws_url"`
}

// AlertConfig holds the tunable thresholds of the spike detector.
type AlertConfig struct {
	HistoryWindow int     `mapstructure:"history_window"` // closed candles in the rolling average
	WarmupSeconds int     `mapstructure:"warmup_seconds"` // no alerts before this much runtime
	VolumeRatio   float64 `mapstructure:"volume_ratio"`   // current/avg volume trigger
	DeltaPercent  float64 `mapstructure:"delta_percent"`  // |delta| share of candle volume trigger
	QueueSize     int     `mapstructure:"queue_size"`     // notification dispatch queue depth
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"` // listen address for the state/control API
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../../config")

	setDefaults(v)

	// Support environment variables with dot notation (e.g., TELEGRAM_BOT_TOKEN)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// Viper lowercases map keys; symbols are addressed upper-case everywhere.
	symbols := make(map[string]SymbolConfig, len(cfg.Symbols))
	for name, sc := range cfg.Symbols {
		symbols[strings.ToUpper(name)] = sc
	}
	cfg.Symbols = symbols

	if len(cfg.Symbols) == 0 {
		log.Fatal("config: no symbols configured")
	}

	// Alerting is a core promise; refuse to start without a notification channel.
	if err := cfg.Telegram.Resolve(cfg.Log.Environment); err != nil {
		log.Fatalf("telegram config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("venues.binance_ws_url", "wss://fstream.binance.com/ws/")
	v.SetDefault("venues.bybit_ws_url", "wss://stream.bybit.com/v5/public/linear")
	v.SetDefault("venues.gate_ws_url", "wss://fx-ws.gateio.ws/v4/ws/usdt")
	v.SetDefault("venues.okx_ws_url", "wss://ws.okx.com:8443/ws/v5/public")

	v.SetDefault("alert.history_window", 5)
	v.SetDefault("alert.warmup_seconds", 360)
	v.SetDefault("alert.volume_ratio", 7.5)
	v.SetDefault("alert.delta_percent", 30.0)
	v.SetDefault("alert.queue_size", 64)

	v.SetDefault("server.addr", ":8085")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}
