package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSClient subscribes to newHeads over a node WebSocket endpoint. The
// subscription survives reconnects: after a dropped connection the client
// redials and resubscribes, delivering heads into the same channel.
type WSClient struct {
	endpoint string
	config   WSConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	heads      chan Head
	subscribed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSClient creates a WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		heads:    make(chan Head, 1024),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *WSClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeNewHeads subscribes to new block headers. May be called once per
// client.
func (c *WSClient) SubscribeNewHeads(ctx context.Context) (<-chan Head, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}
	if c.subscribed.Swap(true) {
		return nil, fmt.Errorf("already subscribed")
	}

	if err := c.writeSubscribe(); err != nil {
		c.subscribed.Store(false)
		return nil, err
	}
	return c.heads, nil
}

func (c *WSClient) writeSubscribe() error {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "eth_subscribe",
		Params:  []interface{}{"newHeads"},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the WebSocket connection and the heads channel.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.heads)
	return nil
}

// readLoop reads messages and dispatches head notifications.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect redials and renews the newHeads subscription.
func (c *WSClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Will retry on next read error
		return
	}

	if c.subscribed.Load() {
		c.writeSubscribe()
	}
}

// handleMessage parses an incoming frame. Subscription confirmations and
// error responses are ignored; only head notifications matter.
func (c *WSClient) handleMessage(message []byte) {
	var notif wsHeadNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "eth_subscription" {
		return
	}
	if notif.Params == nil {
		return
	}

	number, err := hexToUint64(notif.Params.Result.Number)
	if err != nil {
		return
	}
	ts, err := hexToUint64(notif.Params.Result.Timestamp)
	if err != nil {
		return
	}

	head := Head{
		Number:    number,
		Hash:      notif.Params.Result.Hash,
		Timestamp: time.Unix(int64(ts), 0).UTC(),
	}

	// Block until the consumer drains; heads must not be dropped.
	select {
	case c.heads <- head:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A failed ping surfaces as a read error; the reader
				// drives reconnection.
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types.

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsHeadNotification struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  *wsHeadParams `json:"params"`
}

type wsHeadParams struct {
	Subscription string    `json:"subscription"`
	Result       wsRawHead `json:"result"`
}

type wsRawHead struct {
	Number    string `json:"number"`
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
}
