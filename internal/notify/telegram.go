package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/portfolio"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// DefaultTimeout bounds one sendMessage round trip.
const DefaultTimeout = 10 * time.Second

// Telegram delivers notifications through the Bot API sendMessage method.
// Failures are logged and swallowed; a dead chat must not stall the bot.
type Telegram struct {
	apiBase    string
	token      string
	chatID     string
	httpClient *http.Client
	log        *logrus.Logger
}

// TelegramOption configures a Telegram notifier.
type TelegramOption func(*Telegram)

// WithAPIBase overrides the Bot API endpoint. Used in tests.
func WithAPIBase(base string) TelegramOption {
	return func(t *Telegram) {
		t.apiBase = strings.TrimSuffix(base, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(t *Telegram) {
		t.httpClient = client
	}
}

// NewTelegram creates a Telegram notifier for one bot token and chat.
func NewTelegram(token, chatID string, log *logrus.Logger, opts ...TelegramOption) *Telegram {
	if log == nil {
		log = logrus.New()
	}
	t := &Telegram{
		apiBase:    DefaultAPIBase,
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ Notifier = (*Telegram)(nil)

// Discovery announces a token candidate that passed the freshness gate.
func (t *Telegram) Discovery(ctx context.Context, event domain.DiscoveryEvent) {
	t.send(ctx, fmt.Sprintf(
		"🔍 <b>New token discovered</b>\nToken: <code>%s</code>\nSource: %s\nAge: %.1f min\nBlock: %d",
		event.TokenAddress, event.Type, event.AgeMinutes, event.BlockNumber))
}

// Verdict announces a completed security analysis.
func (t *Telegram) Verdict(ctx context.Context, verdict *domain.SecurityVerdict) {
	icon := "❌"
	outcome := "REJECTED"
	if verdict.Safe {
		icon = "✅"
		outcome = "PASSED"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>Security analysis %s</b>\nToken: <code>%s</code>\nScore: %d/100 (threshold %d)",
		icon, outcome, verdict.TokenAddress, verdict.Score, verdict.Threshold)
	if len(verdict.Risks) > 0 {
		fmt.Fprintf(&b, "\nRisks: %s", strings.Join(verdict.Risks, ", "))
	}
	if len(verdict.Strengths) > 0 {
		fmt.Fprintf(&b, "\nStrengths: %s", strings.Join(verdict.Strengths, ", "))
	}
	t.send(ctx, b.String())
}

// PurchaseSuccess announces a filled buy.
func (t *Telegram) PurchaseSuccess(ctx context.Context, position *domain.TokenPosition) {
	t.send(ctx, fmt.Sprintf(
		"💰 <b>Token purchased</b>\nToken: %s (<code>%s</code>)\nSpent: %s BNB\nTokens: %d\nEntry price: %s BNB\nTx: <code>%s</code>",
		position.TokenSymbol, position.TokenAddress,
		position.AmountInvested.String(), position.AmountTokens,
		position.EntryPrice.String(), position.EntryTxHash))
}

// ProfitTake announces a fired profit target.
func (t *Telegram) ProfitTake(ctx context.Context, event portfolio.ProfitEvent) {
	var b strings.Builder
	fmt.Fprintf(&b,
		"🎯 <b>Profit target %s hit</b>\nToken: %s (<code>%s</code>)\nSold: %d tokens\nReceived: %s BNB\nGain: %.1f%%",
		event.Sale.Target, event.TokenSymbol, event.TokenAddress,
		event.Sale.TokensSold, event.Sale.ProceedsReceived.String(),
		event.Sale.ProfitPercent)
	if event.Completed {
		b.WriteString("\n🏁 All targets hit, monitoring stopped")
	}
	t.send(ctx, b.String())
}

// Error announces an operational failure.
func (t *Telegram) Error(ctx context.Context, during string, err error) {
	t.send(ctx, fmt.Sprintf("⚠️ <b>Error</b> during %s:\n<code>%v</code>", during, err))
}

// Status announces a free-form state change.
func (t *Telegram) Status(ctx context.Context, message string) {
	t.send(ctx, message)
}

// Summary announces the periodic portfolio digest.
func (t *Telegram) Summary(ctx context.Context, summary *domain.PortfolioSummary) {
	t.send(ctx, fmt.Sprintf(
		"📊 <b>Portfolio summary</b>\nPositions: %d (%d active, %d completed)\nInvested: %s BNB\nCurrent value: %s BNB\nP&L: %s BNB (%.1f%%)",
		summary.TotalPositions, summary.ActivePositions, summary.CompletedPositions,
		summary.TotalInvested.String(), summary.CurrentValue.String(),
		summary.PnLAmount.String(), summary.PnLPercent))
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) send(ctx context.Context, text string) {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		t.log.WithError(err).Error("encode telegram message")
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.log.WithError(err).Error("build telegram request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.WithError(err).Warn("telegram delivery failed")
		return
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.log.WithError(err).Warn("decode telegram response")
		return
	}
	if !result.OK {
		t.log.WithFields(logrus.Fields{
			"status":      resp.StatusCode,
			"description": result.Description,
		}).Warn("telegram rejected message")
	}
}
