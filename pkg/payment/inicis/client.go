package inicis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

const (
	refundPath        = "/v2/pg/refund"
	partialRefundPath = "/v2/pg/partialRefund"
	maxMsgRunes       = 100
)

// Client represents an Inicis INIAPI client
type Client struct {
	config     Config
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new Inicis client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// Sign builds the signatures needed to open the payment window
func (c *Client) Sign(orderID string, price int64) PaymentSignature {
	ts := Timestamp(c.now())
	return PaymentSignature{
		MID:          c.config.MID,
		OrderID:      orderID,
		Price:        price,
		Timestamp:    ts,
		Signature:    Signature(orderID, price, ts),
		MKey:         MKey(c.config.SignKey),
		Verification: Verification(orderID, price, c.config.SignKey, ts),
	}
}

// Refund cancels a completed payment. A nil partialAmount refunds in full.
func (c *Client) Refund(ctx context.Context, tid, msg string, partialAmount *int64, clientIP string) (*RefundResponse, error) {
	if tid == "" {
		return nil, fmt.Errorf("%w: tid is required", ErrInvalidRequest)
	}
	msg = truncateRunes(msg, maxMsgRunes)

	path := refundPath
	if partialAmount != nil {
		path = partialRefundPath
	}

	req := RefundRequest{
		Type:      "Refund",
		PayMethod: "Card",
		Timestamp: c.now().Format("20060102150405"),
		ClientIP:  clientIP,
		MID:       c.config.MID,
		TID:       tid,
		Msg:       msg,
		Price:     partialAmount,
		HashData:  RefundHash(c.config.MID, tid, partialAmount, msg),
	}
	if partialAmount != nil {
		req.Type = "PartialRefund"
	}

	body, status, err := c.doRequest(ctx, path, req)
	if err != nil {
		return nil, err
	}

	var resp RefundResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refund response (status %d): %w", status, err)
	}
	if status != http.StatusOK || !resp.Success() {
		return &resp, fmt.Errorf("%w: [%s] %s", ErrRefundFailed, resp.ResultCode, resp.ResultMsg)
	}
	return &resp, nil
}

// doRequest performs an HTTP request to INIAPI
func (c *Client) doRequest(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
