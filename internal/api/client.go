package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/lastprice/internal/model"
)

// Client provides access to a last price server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// RequestLastPrice fetches the last price of an instrument.
func (c *Client) RequestLastPrice(ctx context.Context, instrument string) (*LastPriceResponse, error) {
	var resp LastPriceResponse
	if err := c.call(ctx, http.MethodGet, "/v1/prices/"+url.PathEscape(instrument), nil, &resp, true); err != nil {
		return nil, fmt.Errorf("request last price: %w", err)
	}
	return &resp, nil
}

// StartBatchRun opens a batch run. It is never retried.
func (c *Client) StartBatchRun(ctx context.Context) (*StartBatchRunResponse, error) {
	var resp StartBatchRunResponse
	if err := c.call(ctx, http.MethodPost, "/v1/batches", nil, &resp, false); err != nil {
		return nil, fmt.Errorf("start batch run: %w", err)
	}
	return &resp, nil
}

// UploadChunk stages records into a batch run. Re-sending a chunk leaves the
// batch unchanged, so transport failures are retried.
func (c *Client) UploadChunk(ctx context.Context, batchID int64, records []model.PriceRecord) (*StatusResponse, error) {
	var resp StatusResponse
	req := UploadChunkRequest{Records: records}
	if err := c.call(ctx, http.MethodPost, batchPath(batchID)+"/chunks", req, &resp, true); err != nil {
		return nil, fmt.Errorf("upload chunk: %w", err)
	}
	return &resp, nil
}

// CancelBatchRun discards a batch run.
func (c *Client) CancelBatchRun(ctx context.Context, batchID int64) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call(ctx, http.MethodDelete, batchPath(batchID), nil, &resp, true); err != nil {
		return nil, fmt.Errorf("cancel batch run: %w", err)
	}
	return &resp, nil
}

// CompleteBatchRun publishes a batch run. It is never retried.
func (c *Client) CompleteBatchRun(ctx context.Context, batchID int64) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call(ctx, http.MethodPost, batchPath(batchID)+"/complete", nil, &resp, false); err != nil {
		return nil, fmt.Errorf("complete batch run: %w", err)
	}
	return &resp, nil
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.call(ctx, http.MethodGet, "/health", nil, &resp, true); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &resp, nil
}

func batchPath(id int64) string {
	return "/v1/batches/" + strconv.FormatInt(id, 10)
}
