package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient is an EVM JSON-RPC 2.0 client over HTTP.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new node RPC client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
// Node-side RPC errors are returned immediately; transport errors retry.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// BlockNumber retrieves the latest block number.
func (c *HTTPClient) BlockNumber(ctx context.Context) (uint64, error) {
	var result string
	if err := c.call(ctx, "eth_blockNumber", nil, &result); err != nil {
		return 0, err
	}
	return hexToUint64(result)
}

// rawBlock is the wire format of eth_getBlockByNumber with full
// transactions.
type rawBlock struct {
	Number       string  `json:"number"`
	Hash         string  `json:"hash"`
	Timestamp    string  `json:"timestamp"`
	Transactions []rawTx `json:"transactions"`
}

type rawTx struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	To    string `json:"to"`
	Input string `json:"input"`
	Value string `json:"value"`
}

// BlockByNumber retrieves a block with full transaction bodies.
// Returns nil if the block does not exist yet.
func (c *HTTPClient) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	params := []interface{}{uint64ToHex(number), true}

	var result *rawBlock
	if err := c.call(ctx, "eth_getBlockByNumber", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	blockNumber, err := hexToUint64(result.Number)
	if err != nil {
		return nil, err
	}
	ts, err := hexToUint64(result.Timestamp)
	if err != nil {
		return nil, err
	}

	block := &Block{
		Number:    blockNumber,
		Hash:      result.Hash,
		Timestamp: time.Unix(int64(ts), 0).UTC(),
	}
	for _, tx := range result.Transactions {
		block.Transactions = append(block.Transactions, Transaction{
			Hash:  tx.Hash,
			From:  tx.From,
			To:    tx.To,
			Input: tx.Input,
			Value: tx.Value,
		})
	}
	return block, nil
}

// rawReceipt is the wire format of eth_getTransactionReceipt.
type rawReceipt struct {
	TransactionHash string   `json:"transactionHash"`
	Status          string   `json:"status"`
	BlockNumber     string   `json:"blockNumber"`
	GasUsed         string   `json:"gasUsed"`
	Logs            []rawLog `json:"logs"`
}

type rawLog struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
}

// TransactionReceipt retrieves a transaction receipt.
// Returns nil if the transaction is not mined yet.
func (c *HTTPClient) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	params := []interface{}{txHash}

	var result *rawReceipt
	if err := c.call(ctx, "eth_getTransactionReceipt", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	status, err := hexToUint64(result.Status)
	if err != nil {
		return nil, err
	}
	blockNumber, err := hexToUint64(result.BlockNumber)
	if err != nil {
		return nil, err
	}
	gasUsed, err := hexToUint64(result.GasUsed)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		TxHash:      result.TransactionHash,
		Status:      status == 1,
		BlockNumber: blockNumber,
		GasUsed:     gasUsed,
	}
	for _, l := range result.Logs {
		logBlock, err := hexToUint64(l.BlockNumber)
		if err != nil {
			return nil, err
		}
		receipt.Logs = append(receipt.Logs, Log{
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        l.Data,
			TxHash:      result.TransactionHash,
			BlockNumber: logBlock,
		})
	}
	return receipt, nil
}

// Logs retrieves logs for an inclusive block range. Topics follow the
// eth_getLogs position semantics: topics[0] is a set of alternatives for
// the first topic.
func (c *HTTPClient) Logs(ctx context.Context, fromBlock, toBlock uint64, topics [][]string) ([]Log, error) {
	filter := map[string]interface{}{
		"fromBlock": uint64ToHex(fromBlock),
		"toBlock":   uint64ToHex(toBlock),
	}
	if len(topics) > 0 {
		filter["topics"] = topics
	}

	var result []rawLog
	if err := c.call(ctx, "eth_getLogs", []interface{}{filter}, &result); err != nil {
		return nil, err
	}

	logs := make([]Log, 0, len(result))
	for _, l := range result {
		blockNumber, err := hexToUint64(l.BlockNumber)
		if err != nil {
			return nil, err
		}
		logs = append(logs, Log{
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        l.Data,
			TxHash:      l.TransactionHash,
			BlockNumber: blockNumber,
		})
	}
	return logs, nil
}

// Call executes a read-only contract call against the latest block and
// returns the raw hex result.
func (c *HTTPClient) Call(ctx context.Context, to string, data string) (string, error) {
	params := []interface{}{
		map[string]string{"to": to, "data": data},
		"latest",
	}

	var result string
	if err := c.call(ctx, "eth_call", params, &result); err != nil {
		return "", err
	}
	return result, nil
}

// Balance retrieves an account balance in wei.
func (c *HTTPClient) Balance(ctx context.Context, address string) (*big.Int, error) {
	params := []interface{}{address, "latest"}

	var result string
	if err := c.call(ctx, "eth_getBalance", params, &result); err != nil {
		return nil, err
	}
	return hexToBig(result)
}
