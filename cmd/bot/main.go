// Package main runs the sniper bot: chain discovery, security analysis,
// dry-run trading and position monitoring, plus the read-only HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/agelookup"
	"bsc-token-sniper/internal/api"
	"bsc-token-sniper/internal/chain"
	"bsc-token-sniper/internal/config"
	"bsc-token-sniper/internal/dedup"
	"bsc-token-sniper/internal/discovery"
	"bsc-token-sniper/internal/freshness"
	"bsc-token-sniper/internal/goplus"
	"bsc-token-sniper/internal/notify"
	"bsc-token-sniper/internal/orchestrator"
	"bsc-token-sniper/internal/portfolio"
	"bsc-token-sniper/internal/retry"
	"bsc-token-sniper/internal/security"
	"bsc-token-sniper/internal/storage"
	chstore "bsc-token-sniper/internal/storage/clickhouse"
	filestore "bsc-token-sniper/internal/storage/file"
	"bsc-token-sniper/internal/storage/migrations"
	pgstore "bsc-token-sniper/internal/storage/postgres"
	"bsc-token-sniper/internal/trading"
)

// headPollInterval is the RPC fallback cadence when no WebSocket endpoint
// is configured. BSC produces a block roughly every 3 seconds.
const headPollInterval = time.Second

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(log); err != nil {
		log.WithError(err).Fatal("bot exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	node := chain.NewHTTPClient(cfg.RPCEndpoint,
		chain.WithMaxRetries(cfg.MaxRetries),
		chain.WithRetryDelay(cfg.RetryDelay),
	)

	// Position store: Postgres when configured, JSON file otherwise.
	var positionStore storage.PositionStore
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		positionStore = pgstore.NewPositionStore(pool)
		log.Info("using postgres position store")
	} else {
		store, err := filestore.NewPositionStore(cfg.PortfolioPath)
		if err != nil {
			return fmt.Errorf("open portfolio file: %w", err)
		}
		positionStore = store
		log.WithField("path", cfg.PortfolioPath).Info("using file position store")
	}

	// Verdict history sink is optional.
	var verdicts storage.VerdictSink
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("migrate clickhouse: %w", err)
		}
		defer conn.Close()
		verdicts = chstore.NewVerdictStore(conn)
		log.Info("verdict history enabled")
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		notifier = notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log)
		log.Info("telegram notifications enabled")
	}

	quoter := trading.NewQuoter(node, cfg.RouterAddress, cfg.WBNBAddress)
	var executorOpts []trading.DryRunOption
	if cfg.WalletAddress != "" {
		executorOpts = append(executorOpts,
			trading.WithWallet(node, cfg.WalletAddress, cfg.GasReserveBNB))
	}
	executor := trading.NewDryRunExecutor(quoter, log, executorOpts...)

	ledger := portfolio.NewLedger(positionStore, executor, portfolio.Options{
		Targets: []portfolio.ProfitTarget{
			{Label: "5x", GainPercent: 500, SellPercent: cfg.ProfitTake5xPct},
			{Label: "10x", GainPercent: 1000, SellPercent: cfg.ProfitTake10xPct},
		},
		MaxPositions: cfg.MaxTrackedTokens,
		Logger:       log,
	})
	if err := ledger.Load(ctx); err != nil {
		return fmt.Errorf("restore portfolio: %w", err)
	}

	classifier := freshness.NewClassifier(
		agelookup.NewClient(cfg.ExplorerAPIURL, cfg.ExplorerAPIKey),
		freshness.Config{
			MaxAgeMinutes: cfg.MaxTokenAgeMinutes,
			Denylist:      cfg.Denylist,
		},
	)

	engine, err := orchestrator.New(orchestrator.Options{
		Classifier: classifier,
		Dedup:      dedup.NewSet(dedup.DefaultCapacity),
		Risk:       goplus.NewClient(goplus.WithAPIKey(cfg.GoPlusAPIKey)),
		Scorer: security.NewScorer(security.Config{
			FreshThreshold:    cfg.FreshThreshold,
			StandardThreshold: cfg.StandardThreshold,
			MinHolderCount:    cfg.MinHoldersCount,
		}),
		Executor:        executor,
		Ledger:          ledger,
		BuyAmountBNB:    cfg.BuyAmountBNB,
		Verdicts:        verdicts,
		Notifier:        notifier,
		Retry:           retry.Policy{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay},
		MonitorSchedule: fmt.Sprintf("@every %s", cfg.MonitorInterval),
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	// Block heads: WebSocket subscription when available, RPC polling
	// otherwise.
	heads, closeHeads, err := subscribeHeads(ctx, cfg, node, log)
	if err != nil {
		return err
	}
	defer closeHeads()

	watcher := discovery.NewWatcher(node, discovery.Options{
		FactoryAddress: cfg.FactoryAddress,
		Logger:         log,
	})
	go func() {
		if err := watcher.Run(ctx, heads); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("watcher stopped")
		}
	}()

	// Read-only HTTP API.
	apiServer := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: api.NewServer(ledger, verdicts).Router(),
	}
	go func() {
		log.WithField("addr", cfg.APIAddr).Info("api listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("api server stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		apiServer.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"factory":    cfg.FactoryAddress,
		"router":     cfg.RouterAddress,
		"buy_amount": cfg.BuyAmountBNB.String(),
		"max_age":    cfg.MaxTokenAgeMinutes,
	}).Info("sniper bot starting")

	if err := engine.Run(ctx, watcher.Events()); err != nil && err != context.Canceled {
		return err
	}
	log.Info("sniper bot stopped")
	return nil
}

// subscribeHeads returns a head stream and its cleanup func.
func subscribeHeads(ctx context.Context, cfg *config.Config, node *chain.HTTPClient, log *logrus.Logger) (<-chan chain.Head, func(), error) {
	if cfg.WSEndpoint == "" {
		log.Info("no websocket endpoint, polling for heads")
		return discovery.PollHeads(ctx, node, headPollInterval), func() {}, nil
	}

	ws, err := chain.NewWSClient(ctx, cfg.WSEndpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect websocket: %w", err)
	}
	heads, err := ws.SubscribeNewHeads(ctx)
	if err != nil {
		ws.Close()
		return nil, nil, fmt.Errorf("subscribe heads: %w", err)
	}
	log.WithField("endpoint", redactEndpoint(cfg.WSEndpoint)).Info("subscribed to new heads")
	return heads, func() { ws.Close() }, nil
}

// redactEndpoint strips the path, which usually embeds the provider key.
func redactEndpoint(endpoint string) string {
	if i := strings.Index(endpoint, "//"); i >= 0 {
		if j := strings.Index(endpoint[i+2:], "/"); j >= 0 {
			return endpoint[:i+2+j]
		}
	}
	return endpoint
}
