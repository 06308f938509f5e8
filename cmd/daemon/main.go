// Package main provides the entry point for the gatekeeper daemon,
// which runs the research cycle on a schedule and serves health and
// metrics endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/backtest"
	"github.com/yourusername/gatekeeper/internal/config"
	"github.com/yourusername/gatekeeper/internal/database"
	"github.com/yourusername/gatekeeper/internal/evaluation"
	"github.com/yourusername/gatekeeper/internal/health"
	"github.com/yourusername/gatekeeper/internal/learning"
	"github.com/yourusername/gatekeeper/internal/logger"
	"github.com/yourusername/gatekeeper/internal/marketdata"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/repository"
	"github.com/yourusername/gatekeeper/internal/scheduler"
	"github.com/yourusername/gatekeeper/internal/service"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

func main() {
	configPath := os.Getenv("GATEKEEPER_CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Gatekeeper daemon starting")

	metrics.InitRegistry()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.Initialize(ctx, db); err != nil {
		appLog.WithError(err).Fatal("Failed to initialize schema")
	}
	appLog.Info("Database connection established")

	repos := repository.NewRepositories(db)
	repos.Refresh.SetBootstrapSymbol(cfg.Gate.FallbackSymbol)

	cycle := buildCycle(cfg, repos, appLog)

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Port:        fmt.Sprintf("%d", cfg.Metrics.Port),
		MetricsPath: cfg.Metrics.Path,
		Logger:      appLog,
		DB:          db,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	runCycle := func(ctx context.Context) error {
		_, err := cycle.RunCycle(ctx)
		if err == nil {
			healthServer.RecordRun(time.Now())
		}
		return err
	}

	sched := scheduler.NewScheduler(runCycle, cfg.Scheduler.Timezone, appLog)
	if cfg.Scheduler.Enabled {
		if err := sched.ScheduleDailyCycle(cfg.Scheduler.CronSpec); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule daily cycle")
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
		appLog.WithField("next_run", sched.GetNextRun().Format(time.RFC3339)).Info("Daily cycle scheduled")
	} else {
		appLog.Info("Scheduler disabled, running one cycle immediately")
		if err := runCycle(ctx); err != nil {
			appLog.WithError(err).Error("Research cycle failed")
		}
	}

	healthServer.SetReady(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLog.WithField("signal", sig.String()).Info("Shutdown signal received")

	healthServer.SetReady(false)
	if sched.IsRunning() {
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Failed to stop scheduler")
		}
	}
	cancel()
	appLog.Info("Gatekeeper daemon stopped")
}

func buildCycle(cfg *config.Config, repos *repository.Repositories, appLog *logrus.Logger) *service.CycleService {
	sim := backtest.SimConfig{
		FeePerTrade:      decimal.NewFromFloat(cfg.Backtest.FeePerTrade),
		SlippagePerTrade: decimal.NewFromFloat(cfg.Backtest.SlippagePerTrade),
		CostMultiplier:   1.0,
	}

	providerCfg := marketdata.DefaultProviderConfig()
	providerCfg.BaseURL = cfg.MarketData.BaseURL
	providerCfg.APIKey = cfg.MarketData.APIKey
	providerCfg.APISecret = cfg.MarketData.APISecret
	providerCfg.Timeframe = cfg.MarketData.Timeframe
	providerCfg.Feed = cfg.MarketData.Feed
	providerCfg.PageLimit = cfg.MarketData.PageLimit
	providerCfg.Timeout = time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second
	providerCfg.MaxRetries = cfg.MarketData.MaxRetries
	providerCfg.RateLimit = cfg.MarketData.RateLimitPerSecond

	source := marketdata.NewHTTPBarSource(providerCfg, appLog)
	accessor := marketdata.NewSeriesAccessor(source, repos.Bars, appLog)

	universe := evaluation.NewUniverseEvaluator(sim, appLog)
	rolling := evaluation.NewRollingValidator(evaluation.RollingConfig{
		Folds:       cfg.Rolling.Folds,
		MinFoldBars: cfg.Rolling.MinFoldBars,
	}, universe, appLog)
	stress := evaluation.NewStressTester(sim, cfg.Stress.Factor, appLog)
	gate := evaluation.NewPromotionGate(evaluation.GateConfig{
		MinTradeCount:        cfg.Gate.MinTradeCount,
		MinProfitFactor:      cfg.Gate.MinProfitFactor,
		MinStability:         cfg.Gate.MinStability,
		MaxStressDegradation: cfg.Gate.MaxStressDegradation,
		FallbackSymbol:       cfg.Gate.FallbackSymbol,
	}, appLog)

	params := models.DefaultStrategyParams()

	pipeline := service.NewPipeline(service.PipelineConfig{
		Symbols:          cfg.Universe.Symbols,
		Params:           params,
		AllowedDeploySet: cfg.Gate.AllowedDeploySet,
		LookbackDays:     cfg.MarketData.LookbackDays,
	}, accessor, universe, rolling, stress, gate, appLog)

	search := learning.NewChallengerSearch(learning.DefaultSearchConfig(), universe, rolling, stress, appLog)
	decay := learning.NewDecayCheck(learning.DecayConfig{ExpectancyFloor: cfg.Refresh.ExpectancyFloor})
	engine := learning.NewEngine(repos.Refresh, learning.RefreshConfig{
		MinImprovement:   cfg.Refresh.MinImprovement,
		MinTradeCount:    cfg.Refresh.MinTradeCount,
		MinStability:     cfg.Refresh.MinStability,
		AllowedDeploySet: cfg.Gate.AllowedDeploySet,
	}, decay, appLog)

	return service.NewCycleService(
		pipeline, search, engine, repos.Refresh, repos.Leaderboard,
		params, cfg.Gate.FallbackSymbol, appLog,
	)
}
