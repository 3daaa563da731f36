package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/chain"
	"bsc-token-sniper/internal/dedup"
	"bsc-token-sniper/internal/domain"
)

// Processed-transaction dedup bounds. One launch transaction can emit both
// a PairCreated and a Mint log; only the first observation produces an
// event.
const (
	DefaultProcessedTxCapacity = 10000
)

// ERC-20 pair selectors used to resolve the token side of a Mint event.
const (
	selectorToken0 = "0x0dfe1681"
	selectorToken1 = "0xd21220a7"
)

// NodeClient is the chain surface the watcher needs.
type NodeClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Logs(ctx context.Context, fromBlock, toBlock uint64, topics [][]string) ([]chain.Log, error)
	Call(ctx context.Context, to string, data string) (string, error)
}

// Options configures a Watcher.
type Options struct {
	// FactoryAddress restricts PairCreated events to one factory
	// (lowercased compare). Empty accepts any emitter.
	FactoryAddress string
	// ProcessedTxCapacity bounds the seen-transaction set.
	ProcessedTxCapacity int
	Logger              *logrus.Logger
}

// Watcher turns block headers into an ordered stream of discovery events.
type Watcher struct {
	node      NodeClient
	factory   string
	processed *dedup.Set
	events    chan domain.DiscoveryEvent
	log       *logrus.Logger
}

// NewWatcher creates a Watcher.
func NewWatcher(node NodeClient, opts Options) *Watcher {
	capacity := opts.ProcessedTxCapacity
	if capacity <= 0 {
		capacity = DefaultProcessedTxCapacity
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Watcher{
		node:      node,
		factory:   strings.ToLower(opts.FactoryAddress),
		processed: dedup.NewSet(capacity),
		events:    make(chan domain.DiscoveryEvent, 256),
		log:       log,
	}
}

// Events returns the discovery stream. Closed when Run returns.
func (w *Watcher) Events() <-chan domain.DiscoveryEvent {
	return w.events
}

// Run consumes block heads until the context is cancelled or the heads
// channel closes. Events for each block are emitted in log order, so a
// pair's creation is always seen before its first liquidity addition.
func (w *Watcher) Run(ctx context.Context, heads <-chan chain.Head) error {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case head, ok := <-heads:
			if !ok {
				return nil
			}
			if err := w.processBlock(ctx, head); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.log.WithField("block", head.Number).WithError(err).Warn("block processing failed")
			}
		}
	}
}

// processBlock fetches matching logs for one block and emits events.
func (w *Watcher) processBlock(ctx context.Context, head chain.Head) error {
	logs, err := w.node.Logs(ctx, head.Number, head.Number, [][]string{{PairCreatedTopic, MintTopic}})
	if err != nil {
		return fmt.Errorf("fetch logs for block %d: %w", head.Number, err)
	}

	for _, l := range logs {
		if len(l.Topics) == 0 {
			continue
		}
		if w.factory != "" &&
			strings.EqualFold(l.Topics[0], PairCreatedTopic) &&
			strings.ToLower(l.Address) != w.factory {
			continue
		}

		// One event per transaction; a launch tx emits several logs.
		if !w.processed.Admit(l.TxHash) {
			continue
		}

		event, err := ParseLog(l)
		if err != nil {
			w.log.WithField("tx", l.TxHash).WithError(err).Debug("unparseable log")
			continue
		}
		event.BlockTime = head.Timestamp

		if event.Type == domain.DiscoveryLiquidityAddition {
			token, err := w.resolveToken(ctx, event.PairAddress)
			if err != nil {
				w.log.WithField("pair", event.PairAddress).WithError(err).Warn("token resolution failed")
				continue
			}
			if token == "" {
				// Not a WBNB pair; nothing to snipe.
				continue
			}
			event.TokenAddress = token
		}

		w.log.WithFields(logrus.Fields{
			"token": event.TokenAddress,
			"pair":  event.PairAddress,
			"type":  event.Type,
			"block": event.BlockNumber,
		}).Info("token discovered")

		select {
		case w.events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// resolveToken reads token0/token1 from a pair contract and returns the
// non-WBNB side, or empty when neither side is WBNB.
func (w *Watcher) resolveToken(ctx context.Context, pairAddress string) (string, error) {
	token0Raw, err := w.node.Call(ctx, pairAddress, selectorToken0)
	if err != nil {
		return "", fmt.Errorf("call token0: %w", err)
	}
	token0, err := addressFromWord(token0Raw)
	if err != nil {
		return "", err
	}

	token1Raw, err := w.node.Call(ctx, pairAddress, selectorToken1)
	if err != nil {
		return "", fmt.Errorf("call token1: %w", err)
	}
	token1, err := addressFromWord(token1Raw)
	if err != nil {
		return "", err
	}

	switch {
	case token0 == WBNBAddress:
		return token1, nil
	case token1 == WBNBAddress:
		return token0, nil
	default:
		return "", nil
	}
}

// PollHeads emits a head for every new block, for nodes without WebSocket
// access. The channel closes when the context is cancelled.
func PollHeads(ctx context.Context, node NodeClient, interval time.Duration) <-chan chain.Head {
	heads := make(chan chain.Head, 16)

	go func() {
		defer close(heads)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			current, err := node.BlockNumber(ctx)
			if err != nil {
				continue
			}
			if last == 0 {
				last = current
				continue
			}
			for n := last + 1; n <= current; n++ {
				select {
				case heads <- chain.Head{Number: n, Timestamp: time.Now().UTC()}:
				case <-ctx.Done():
					return
				}
			}
			last = current
		}
	}()

	return heads
}
