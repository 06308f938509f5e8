// Package main provides the gatekeeper research CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gatekeeper/internal/backtest"
	"github.com/yourusername/gatekeeper/internal/config"
	"github.com/yourusername/gatekeeper/internal/database"
	"github.com/yourusername/gatekeeper/internal/evaluation"
	"github.com/yourusername/gatekeeper/internal/learning"
	"github.com/yourusername/gatekeeper/internal/logger"
	"github.com/yourusername/gatekeeper/internal/marketdata"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/repository"
	"github.com/yourusername/gatekeeper/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	auditLimit int

	cfg    *config.Config
	appLog *logrus.Logger
	db     *database.DB
	repos  *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Number of audit entries to show")

	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(championCmd)
}

var rootCmd = &cobra.Command{
	Use:   "gatekeeper",
	Short: "Deploy-scope gating and champion refresh for the trading research pipeline",
	Long: `Gatekeeper evaluates a candidate symbol universe with walk-forward
validation and cost stress, fuses the results in the promotion gate,
enforces the deploy-scope policy, and refreshes the champion strategy
against a challenger leaderboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd.Context()); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Initialize(ctx, db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	repos = repository.NewRepositories(db)
	repos.Refresh.SetBootstrapSymbol(cfg.Gate.FallbackSymbol)

	return nil
}

func buildCycle() *service.CycleService {
	sim := backtest.SimConfig{
		FeePerTrade:      decimal.NewFromFloat(cfg.Backtest.FeePerTrade),
		SlippagePerTrade: decimal.NewFromFloat(cfg.Backtest.SlippagePerTrade),
		CostMultiplier:   1.0,
	}

	source := marketdata.NewHTTPBarSource(marketdata.ProviderConfig{
		BaseURL:      cfg.MarketData.BaseURL,
		APIKey:       cfg.MarketData.APIKey,
		APISecret:    cfg.MarketData.APISecret,
		Timeframe:    cfg.MarketData.Timeframe,
		Feed:         cfg.MarketData.Feed,
		PageLimit:    cfg.MarketData.PageLimit,
		Timeout:      durationSeconds(cfg.MarketData.TimeoutSeconds),
		MaxRetries:   cfg.MarketData.MaxRetries,
		RetryWaitMin: marketdata.DefaultProviderConfig().RetryWaitMin,
		RetryWaitMax: marketdata.DefaultProviderConfig().RetryWaitMax,
		RateLimit:    cfg.MarketData.RateLimitPerSecond,
	}, appLog)
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

func durationSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run one deploy-gating pipeline pass and print the promotion matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		cycle := buildCycle()
		result, err := cycle.Pipeline().Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Print(result.Report.RenderConsole())
		fmt.Println(result.ScopeMessage)
		return nil
	},
}

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one complete research cycle: gating pipeline plus champion refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		cycle := buildCycle()
		result, err := cycle.RunCycle(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Print(result.Run.Report.RenderConsole())
		fmt.Println(result.Run.ScopeMessage)
		fmt.Printf("\nRefresh: %s (%s)\n", result.Refresh.State, result.Refresh.Decision)
		fmt.Printf("Champion: %s v%d expectancy=%.4f\n",
			result.Refresh.Champion.Symbol,
			result.Refresh.Champion.Version,
			result.Refresh.Champion.Metrics.Expectancy,
		)
		if result.Refresh.Rationale != "" {
			fmt.Printf("Rationale: %s\n", result.Refresh.Rationale)
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent champion refresh audit entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := repos.Audit.List(cmd.Context(), auditLimit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No audit entries recorded yet.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %-7s  %s v%d -> %s v%d\n  %s\n",
				e.RunAt.Format("2006-01-02 15:04:05"),
				e.Decision,
				e.ChampionBefore.Symbol, e.ChampionBefore.Version,
				e.ChampionAfter.Symbol, e.ChampionAfter.Version,
				e.Rationale,
			)
		}
		return nil
	},
}

var championCmd = &cobra.Command{
	Use:   "champion",
	Short: "Show the current champion record",
	RunE: func(cmd *cobra.Command, args []string) error {
		champion, err := repos.Refresh.Current(cmd.Context())
		if err != nil {
			if err == models.ErrNotFound {
				fmt.Println("No champion recorded yet.")
				return nil
			}
			return err
		}

		fmt.Printf("Champion %s (candidate %d) v%d\n", champion.Symbol, champion.CandidateID, champion.Version)
		fmt.Printf("  expectancy=%.4f  profit_factor=%.2f  trades=%d  stability=%.2f  score=%.4f\n",
			champion.Metrics.Expectancy,
			champion.Metrics.ProfitFactor,
			champion.Metrics.TradeCount,
			champion.Stability,
			champion.Score,
		)
		fmt.Printf("  params: disp=%.2f rr=%.2f reclaim=%.3f\n",
			champion.Params.DisplacementATRMult,
			champion.Params.RRTarget,
			champion.Params.ReclaimBufferATR,
		)
		fmt.Printf("  last updated: %s\n", champion.LastUpdated.Format("2006-01-02 15:04:05"))
		return nil
	},
}
