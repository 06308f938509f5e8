// Package config provides configuration management for the Gatekeeper application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields. A missing config file is not an error; defaults and environment
// variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GATEKEEPER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults mirrors the thresholds the research pipeline shipped with.
// Threshold values are configuration, not part of the algorithm contract.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gatekeeper")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gatekeeper")
	v.SetDefault("database.user", "gatekeeper")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("market_data.base_url", "https://data.alpaca.markets")
	v.SetDefault("market_data.timeframe", "3Min")
	v.SetDefault("market_data.feed", "sip")
	v.SetDefault("market_data.page_limit", 10000)
	v.SetDefault("market_data.lookback_days", 30)
	v.SetDefault("market_data.timeout_seconds", 30)
	v.SetDefault("market_data.max_retries", 5)
	v.SetDefault("market_data.rate_limit_per_second", 3.0)

	v.SetDefault("universe.symbols", []string{"QQQ", "SPY", "AAPL", "IWM"})

	v.SetDefault("backtest.fee_per_trade", 0.02)
	v.SetDefault("backtest.slippage_per_trade", 0.03)

	v.SetDefault("rolling.folds", 4)
	v.SetDefault("rolling.min_fold_bars", 50)

	v.SetDefault("stress.factor", 2.0)

	v.SetDefault("gate.min_trade_count", 40)
	v.SetDefault("gate.min_profit_factor", 1.10)
	v.SetDefault("gate.min_stability", 0.75)
	v.SetDefault("gate.max_stress_degradation", 0.30)
	v.SetDefault("gate.fallback_symbol", "QQQ")
	v.SetDefault("gate.allowed_deploy_set", []string{"QQQ"})

	v.SetDefault("refresh.min_improvement", 0.01)
	v.SetDefault("refresh.min_trade_count", 40)
	v.SetDefault("refresh.min_stability", 0.75)
	v.SetDefault("refresh.expectancy_floor", -0.20)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.cron_spec", "30 21 * * 1-5")
	v.SetDefault("scheduler.timezone", "UTC")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
