// Package orchestrator drives the snipe pipeline: discovery events flow
// through the freshness gate, deduplication, security analysis and, for
// passing tokens, a buy that opens a portfolio position. Scheduled jobs
// refresh positions and post portfolio summaries.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/dedup"
	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/freshness"
	"bsc-token-sniper/internal/notify"
	"bsc-token-sniper/internal/observability"
	"bsc-token-sniper/internal/portfolio"
	"bsc-token-sniper/internal/retry"
	"bsc-token-sniper/internal/security"
	"bsc-token-sniper/internal/storage"
	"bsc-token-sniper/internal/trading"
)

// Default schedules for the background jobs.
const (
	DefaultMonitorSchedule = "@every 30s"
	DefaultSummarySchedule = "@every 1h"
)

// DefaultWorkers bounds concurrent event processing. Discovery bursts when
// one block carries several launches; analysis is provider-bound, so a few
// workers keep the window short without hammering the providers.
const DefaultWorkers = 4

// RiskProvider fetches raw risk attributes for a token.
type RiskProvider interface {
	TokenSecurity(ctx context.Context, tokenAddress string) (domain.RiskAttributes, error)
}

// Options configures an Engine.
type Options struct {
	// Required components.
	Classifier *freshness.Classifier
	Dedup      *dedup.Set
	Risk       RiskProvider
	Scorer     *security.Scorer
	Executor   trading.Executor
	Ledger     *portfolio.Ledger

	// BuyAmountBNB is the fixed position size.
	BuyAmountBNB decimal.Decimal

	// Verdicts receives every verdict for later analysis (nil disables).
	Verdicts storage.VerdictSink

	// Notifier receives lifecycle events (nil uses notify.Nop).
	Notifier notify.Notifier

	// Retry is the buy retry policy (zero value uses retry.Default).
	Retry retry.Policy

	// Schedules for the background jobs (empty uses defaults).
	MonitorSchedule string
	SummarySchedule string

	// Workers bounds concurrent event processing (0 uses DefaultWorkers).
	Workers int

	Logger *logrus.Logger
}

// Engine coordinates the pipeline components.
type Engine struct {
	classifier *freshness.Classifier
	dedup      *dedup.Set
	risk       RiskProvider
	scorer     *security.Scorer
	executor   trading.Executor
	ledger     *portfolio.Ledger
	verdicts   storage.VerdictSink
	notifier   notify.Notifier
	policy     retry.Policy
	buyAmount  decimal.Decimal

	monitorSchedule string
	summarySchedule string
	workers         int
	cron            *cron.Cron

	log *logrus.Logger
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Classifier == nil:
		return nil, fmt.Errorf("classifier is required")
	case opts.Dedup == nil:
		return nil, fmt.Errorf("dedup set is required")
	case opts.Risk == nil:
		return nil, fmt.Errorf("risk provider is required")
	case opts.Scorer == nil:
		return nil, fmt.Errorf("scorer is required")
	case opts.Executor == nil:
		return nil, fmt.Errorf("executor is required")
	case opts.Ledger == nil:
		return nil, fmt.Errorf("ledger is required")
	case opts.BuyAmountBNB.Sign() <= 0:
		return nil, fmt.Errorf("buy amount must be positive")
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	monitorSchedule := opts.MonitorSchedule
	if monitorSchedule == "" {
		monitorSchedule = DefaultMonitorSchedule
	}
	summarySchedule := opts.SummarySchedule
	if summarySchedule == "" {
		summarySchedule = DefaultSummarySchedule
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Engine{
		classifier:      opts.Classifier,
		dedup:           opts.Dedup,
		risk:            opts.Risk,
		scorer:          opts.Scorer,
		executor:        opts.Executor,
		ledger:          opts.Ledger,
		verdicts:        opts.Verdicts,
		notifier:        notifier,
		policy:          policy,
		buyAmount:       opts.BuyAmountBNB,
		monitorSchedule: monitorSchedule,
		summarySchedule: summarySchedule,
		workers:         workers,
		log:             log,
	}, nil
}

// Run consumes discovery events until the channel closes or the context is
// cancelled. Events are fanned out to a bounded worker pool; scheduled
// monitoring starts alongside. On shutdown, in-flight events finish before
// Run returns so executed trades are always persisted.
func (e *Engine) Run(ctx context.Context, events <-chan domain.DiscoveryEvent) error {
	if err := e.startJobs(ctx); err != nil {
		return err
	}
	defer e.stopJobs()

	e.notifier.Status(ctx, "🚀 Sniper bot started")
	defer e.notifier.Status(context.WithoutCancel(ctx), "🛑 Sniper bot stopped")

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range events {
				e.HandleEvent(ctx, event)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		// Workers drain naturally once the producer closes the channel;
		// the watcher closes it when the same context is cancelled.
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

// HandleEvent pushes one discovery event through the pipeline.
func (e *Engine) HandleEvent(ctx context.Context, event domain.DiscoveryEvent) {
	token := strings.ToLower(event.TokenAddress)
	log := e.log.WithFields(logrus.Fields{"token": token, "source": event.Type})

	if e.classifier.Denied(token) {
		log.Debug("token denylisted")
		return
	}

	event.AgeMinutes = e.classifier.AgeMinutes(ctx, token)
	if !e.classifier.Eligible(event.AgeMinutes) {
		observability.RecordSkippedOld()
		log.WithField("age_minutes", event.AgeMinutes).Debug("token too old")
		return
	}

	if !e.dedup.Admit(token) {
		observability.RecordDeduplicated()
		log.Debug("token already processed")
		return
	}
	observability.RecordDiscovery(string(event.Type))
	observability.UpdateDedupSetSize(e.dedup.Len())
	log.WithField("age_minutes", event.AgeMinutes).Info("fresh token discovered")
	e.notifier.Discovery(ctx, event)

	verdict, attrs, err := e.analyze(ctx, token)
	if err != nil {
		log.WithError(err).Error("security analysis failed")
		e.notifier.Error(ctx, "security analysis", err)
		return
	}
	if !verdict.Safe {
		log.WithFields(logrus.Fields{
			"score": verdict.Score,
			"risks": verdict.Risks,
		}).Info("token rejected")
		return
	}

	e.buy(ctx, token, attrs)
}

// analyze fetches risk attributes, scores them and records the verdict.
func (e *Engine) analyze(ctx context.Context, token string) (*domain.SecurityVerdict, domain.RiskAttributes, error) {
	started := time.Now()
	attrs, err := e.risk.TokenSecurity(ctx, token)
	observability.RecordProviderCall("goplus", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, attrs, fmt.Errorf("fetch risk attributes: %w", err)
	}

	// Every token reaching this point passed the freshness gate.
	verdict := e.scorer.Score(token, attrs, true)
	observability.RecordVerdict(verdict.Safe, verdict.Score)

	if e.verdicts != nil {
		if err := e.verdicts.Insert(ctx, verdict); err != nil {
			e.log.WithField("token", token).WithError(err).Warn("verdict insert failed")
		}
	}
	e.notifier.Verdict(ctx, verdict)
	return verdict, attrs, nil
}

// buy executes the purchase with retries and opens the position. A failed
// purchase releases the token from the dedup set so a later liquidity event
// can retry it.
func (e *Engine) buy(ctx context.Context, token string, attrs domain.RiskAttributes) {
	log := e.log.WithField("token", token)

	var result *domain.TradeResult
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		var buyErr error
		result, buyErr = e.executor.Buy(ctx, token, e.buyAmount)
		if errors.Is(buyErr, trading.ErrInsufficientFunds) {
			// Retrying cannot refill the wallet.
			return retry.Permanent(buyErr)
		}
		return buyErr
	})
	if err != nil {
		observability.RecordPurchase("failed")
		e.dedup.Release(token)
		observability.UpdateDedupSetSize(e.dedup.Len())
		log.WithError(err).Error("purchase failed")
		e.notifier.Error(ctx, "token purchase", err)
		return
	}

	entryPrice := decimal.Zero
	if result.AmountTokens > 0 {
		entryPrice = result.AmountBNB.Div(decimal.NewFromInt(result.AmountTokens))
	}
	position := &domain.TokenPosition{
		TokenAddress:   token,
		TokenName:      attrs.TokenName,
		TokenSymbol:    attrs.TokenSymbol,
		AmountTokens:   result.AmountTokens,
		AmountInvested: result.AmountBNB,
		EntryPrice:     entryPrice,
		EntryTimestamp: result.Timestamp,
		EntryTxHash:    result.TxHash,
	}

	added, err := e.ledger.AddPosition(ctx, position)
	if err != nil {
		log.WithError(err).Error("position tracking failed")
		e.notifier.Error(ctx, "position tracking", err)
		return
	}
	if !added {
		log.Warn("purchase filled but position not tracked")
		return
	}

	observability.RecordPurchase("success")
	observability.UpdateOpenPositions(len(e.ledger.MonitoredAddresses()))
	log.WithFields(logrus.Fields{
		"tokens": result.AmountTokens,
		"spent":  result.AmountBNB.String(),
		"tx":     result.TxHash,
	}).Info("token purchased")
	e.notifier.PurchaseSuccess(ctx, position)
}

// RefreshPositions reprices all monitored positions, fires due profit
// targets and notifies about each one.
func (e *Engine) RefreshPositions(ctx context.Context) {
	events := e.ledger.RefreshAll(ctx, e.executor)
	for _, event := range events {
		observability.RecordProfitTake(event.Sale.Target)
		e.notifier.ProfitTake(ctx, event)
	}
	observability.UpdateOpenPositions(len(e.ledger.MonitoredAddresses()))
}

// PostSummary pushes the current portfolio digest to the notifier.
func (e *Engine) PostSummary(ctx context.Context) {
	summary := e.ledger.Summary()
	if summary.TotalPositions == 0 {
		return
	}
	e.notifier.Summary(ctx, summary)
}

func (e *Engine) startJobs(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(e.monitorSchedule, func() { e.RefreshPositions(ctx) }); err != nil {
		return fmt.Errorf("schedule position monitor: %w", err)
	}
	if _, err := c.AddFunc(e.summarySchedule, func() { e.PostSummary(ctx) }); err != nil {
		return fmt.Errorf("schedule summary: %w", err)
	}
	c.Start()
	e.cron = c
	return nil
}

func (e *Engine) stopJobs() {
	if e.cron != nil {
		<-e.cron.Stop().Done()
	}
}
