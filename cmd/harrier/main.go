// Harrier - Transaction fraud and compliance screening.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/opensource-finance/harrier/internal/anomaly"
	"github.com/opensource-finance/harrier/internal/api"
	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/compliance"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/fraud"
	"github.com/opensource-finance/harrier/internal/orchestrator"
	"github.com/opensource-finance/harrier/internal/policy"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/riskrules"
	"github.com/opensource-finance/harrier/internal/sanctions"
	"github.com/opensource-finance/harrier/internal/spend"
	"github.com/opensource-finance/harrier/internal/velocity"
	"github.com/opensource-finance/harrier/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Local development overrides; missing file is fine.
	_ = godotenv.Load()

	cfg, err := domain.LoadConfig(os.Getenv("HARRIER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting harrier",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"embedder", cfg.Embedder.Type,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Fraud side: velocity tracking, risk factor rules, anomaly ensemble
	velocityTracker := velocity.NewTracker(cacheImpl, logger)

	ruleEngine, err := riskrules.NewEngine()
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}
	defer ruleEngine.Close()
	if err := ruleEngine.LoadRules(riskrules.BuiltinFactorRules()); err != nil {
		slog.Error("failed to load risk factor rules", "error", err)
		os.Exit(1)
	}
	slog.Info("risk factor rules loaded", "rules_count", ruleEngine.RulesCount())

	scorer := anomaly.NewScorer(anomaly.WithMaxWorkers(cfg.Screening.DetectorWorkers))
	fraudSvc := fraud.NewService(scorer, ruleEngine, velocityTracker, logger)
	slog.Info("fraud service initialized", "model_version", anomaly.ModelVersion)

	// Compliance side: embedder, policy index, sanctions screener
	embedder, err := newEmbedder(cfg.Embedder)
	if err != nil {
		slog.Error("failed to initialize embedder", "error", err)
		os.Exit(1)
	}

	policyIndex := policy.NewIndex(embedder)
	if err := policyIndex.Add(ctx, policy.DefaultPolicies()); err != nil {
		slog.Error("failed to seed policy index", "error", err)
		os.Exit(1)
	}
	slog.Info("policy index initialized",
		"policies", policyIndex.Size(),
		"embedder", cfg.Embedder.Type,
	)

	screener := sanctions.NewScreener(sanctions.DefaultWatchlist(), sanctions.DefaultPEPTerms())
	if cfg.Watchlist.Path != "" {
		refreshWatchlist(screener, cfg.Watchlist.Path)
	}
	slog.Info("sanctions screener initialized", "entries", screener.Size())

	checker := compliance.NewChecker(screener, policyIndex, cfg.Screening.PolicyTopK, logger)

	// Pipeline orchestrator with advisory spend analysis
	spendAnalyzer := spend.NewAnalyzer(nil)
	stepTimeout := time.Duration(cfg.Screening.StepTimeout) * time.Second
	pipeline := orchestrator.New(fraudSvc, checker, spendAnalyzer, stepTimeout, logger)

	// Scheduled watchlist refresh
	var scheduler *cron.Cron
	if cfg.Watchlist.Path != "" && cfg.Watchlist.Cron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Watchlist.Cron, func() {
			refreshWatchlist(screener, cfg.Watchlist.Path)
		})
		if err != nil {
			slog.Error("invalid watchlist cron expression", "cron", cfg.Watchlist.Cron, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		slog.Info("watchlist refresh scheduled", "cron", cfg.Watchlist.Cron, "path", cfg.Watchlist.Path)
	}

	// Async worker for bus-driven screening
	var asyncWorker *worker.Worker
	if cfg.Screening.AsyncWorker {
		asyncWorker = worker.NewWorker(busImpl, repo, pipeline, logger)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Server, pipeline, repo, cacheImpl, busImpl, policyIndex, screener, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("harrier is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	if asyncWorker != nil {
		asyncWorker.Stop()
	}
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("harrier shutdown complete")
}

func newLogger(cfg domain.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func newEmbedder(cfg domain.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "local", "":
		return policy.NewHashEmbedder(cfg.LocalDim), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini embedder requires GEMINI_API_KEY")
		}
		return policy.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiDim), nil
	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", cfg.Type)
	}
}

// refreshWatchlist loads entries from the configured file and appends any
// the screener does not already carry. Load failures keep the current list.
func refreshWatchlist(screener *sanctions.Screener, path string) {
	entries, pepTerms, err := sanctions.LoadWatchlistFile(path)
	if err != nil {
		slog.Error("watchlist refresh failed", "path", path, "error", err)
		return
	}

	known := make(map[string]bool, screener.Size())
	for _, e := range screener.Entries() {
		known[e.ListSource+":"+e.Name] = true
	}
	var fresh []domain.SanctionsEntry
	for _, e := range entries {
		if !known[e.ListSource+":"+e.Name] {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) > 0 {
		screener.AddEntries(fresh)
	}
	screener.AddPEPTerms(pepTerms)

	slog.Info("watchlist refreshed",
		"path", path,
		"file_entries", len(entries),
		"new_entries", len(fresh),
		"pep_terms", len(screener.PEPTerms()),
		"total", screener.Size(),
	)
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🦅 HARRIER                  ║")
	fmt.Println("  ║   Fraud & Compliance Screening Engine     ║")
	fmt.Println("  ║      Every transaction, screened.         ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /screen             - Screen a transaction")
	fmt.Println("    GET  /dispositions       - List screening dispositions")
	fmt.Println("    GET  /dispositions/{id}  - Get disposition by transaction ID")
	fmt.Println("    GET  /policies           - List compliance policies")
	fmt.Println("    POST /policies           - Add compliance policies")
	fmt.Println("    GET  /watchlist          - List sanctions watchlist")
	fmt.Println("    POST /watchlist          - Add watchlist entries")
	fmt.Println("    GET  /health             - Health check")
	fmt.Println()
}
