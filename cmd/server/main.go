// Package main serves the read-only HTTP API over a stored portfolio
// without running the trading engine.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/api"
	"bsc-token-sniper/internal/config"
	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/portfolio"
	"bsc-token-sniper/internal/storage"
	chstore "bsc-token-sniper/internal/storage/clickhouse"
	filestore "bsc-token-sniper/internal/storage/file"
	pgstore "bsc-token-sniper/internal/storage/postgres"
)

// readOnlySeller rejects sales; this process only reads the portfolio.
type readOnlySeller struct{}

func (readOnlySeller) Sell(context.Context, string, int64) (*domain.TradeResult, error) {
	return nil, fmt.Errorf("read-only server cannot sell")
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var positionStore storage.PositionStore
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		positionStore = pgstore.NewPositionStore(pool)
	} else {
		store, err := filestore.NewPositionStore(cfg.PortfolioPath)
		if err != nil {
			return fmt.Errorf("open portfolio file: %w", err)
		}
		positionStore = store
	}

	var verdicts storage.VerdictSink
	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		defer conn.Close()
		verdicts = chstore.NewVerdictStore(conn)
	}

	ledger := portfolio.NewLedger(positionStore, readOnlySeller{}, portfolio.Options{
		MaxPositions: cfg.MaxTrackedTokens,
		Logger:       log,
	})
	if err := ledger.Load(ctx); err != nil {
		return fmt.Errorf("load portfolio: %w", err)
	}

	server := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: api.NewServer(ledger, verdicts).Router(),
	}
	go func() {
		log.WithField("addr", cfg.APIAddr).Info("api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("api server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
