// Package config provides configuration management for the Gatekeeper application.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	MarketData MarketDataConfig `mapstructure:"market_data" validate:"required"`
	Universe   UniverseConfig   `mapstructure:"universe" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Rolling    RollingConfig    `mapstructure:"rolling" validate:"required"`
	Stress     StressConfig     `mapstructure:"stress" validate:"required"`
	Gate       GateConfig       `mapstructure:"gate" validate:"required"`
	Refresh    RefreshConfig    `mapstructure:"refresh" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// MarketDataConfig represents the bar provider configuration
type MarketDataConfig struct {
	BaseURL             string  `mapstructure:"base_url" validate:"required,url"`
	APIKey              string  `mapstructure:"api_key"`
	APISecret           string  `mapstructure:"api_secret"`
	Timeframe           string  `mapstructure:"timeframe" validate:"required"`
	Feed                string  `mapstructure:"feed" validate:"required"`
	PageLimit           int     `mapstructure:"page_limit" validate:"required,gt=0"`
	LookbackDays        int     `mapstructure:"lookback_days" validate:"required,gt=0"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries          int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSecond  float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
}

// UniverseConfig lists the candidate symbols evaluated each run
type UniverseConfig struct {
	Symbols []string `mapstructure:"symbols" validate:"required,min=1,symbols"`
}

// BacktestConfig represents simulation cost parameters
type BacktestConfig struct {
	FeePerTrade      float64 `mapstructure:"fee_per_trade" validate:"gte=0"`
	SlippagePerTrade float64 `mapstructure:"slippage_per_trade" validate:"gte=0"`
}

// RollingConfig represents walk-forward validation configuration
type RollingConfig struct {
	Folds       int `mapstructure:"folds" validate:"required,gt=0"`
	MinFoldBars int `mapstructure:"min_fold_bars" validate:"required,gt=0"`
}

// StressConfig represents cost-stress configuration
type StressConfig struct {
	Factor float64 `mapstructure:"factor" validate:"required,gt=1"`
}

// GateConfig represents promotion gate thresholds and deploy policy
type GateConfig struct {
	MinTradeCount        int      `mapstructure:"min_trade_count" validate:"required,gt=0"`
	MinProfitFactor      float64  `mapstructure:"min_profit_factor" validate:"required,gt=0"`
	MinStability         float64  `mapstructure:"min_stability" validate:"gte=0,lte=1"`
	MaxStressDegradation float64  `mapstructure:"max_stress_degradation" validate:"gte=0,lt=1"`
	FallbackSymbol       string   `mapstructure:"fallback_symbol" validate:"required"`
	AllowedDeploySet     []string `mapstructure:"allowed_deploy_set" validate:"required,min=1,symbols"`
}

// RefreshConfig represents champion/challenger refresh configuration
type RefreshConfig struct {
	MinImprovement  float64 `mapstructure:"min_improvement" validate:"gte=0"`
	MinTradeCount   int     `mapstructure:"min_trade_count" validate:"required,gt=0"`
	MinStability    float64 `mapstructure:"min_stability" validate:"gte=0,lte=1"`
	ExpectancyFloor float64 `mapstructure:"expectancy_floor"`
}

// SchedulerConfig represents the daily cycle schedule
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CronSpec string `mapstructure:"cron_spec"`
	Timezone string `mapstructure:"timezone"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
