// Package client is a JSON HTTP client for the pollvm API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/api"
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/common/util"
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest is returned for 400 responses.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrConflict is returned for 409 responses.
	ErrConflict = errors.New("conflict")
)

// A wrapper around zap.Logger to make it compatible with
// retryablehttp.LeveledLogger interface.
type retryableHttpLogger struct {
	inner *zap.Logger
}

func (r retryableHttpLogger) Error(format string, args ...any) {
	r.inner.Sugar().Errorw(format, args...)
}

func (r retryableHttpLogger) Info(format string, args ...any) {
	r.inner.Sugar().Infow(format, args...)
}

func (r retryableHttpLogger) Warn(format string, args ...any) {
	r.inner.Sugar().Warnw(format, args...)
}

func (r retryableHttpLogger) Debug(format string, args ...any) {
	r.inner.Sugar().Debugw(format, args...)
}

// Opt modifies Client.
type Opt func(*Client)

// WithLogger sets logger for the client and the retries.
func WithLogger(logger *zap.Logger) Opt {
	return func(c *Client) {
		c.logger = logger
		c.client.Logger = &retryableHttpLogger{inner: logger}
	}
}

// WithRetries sets the maximal number of retries and the minimal delay between them.
func WithRetries(retries int, delay time.Duration) Opt {
	return func(c *Client) {
		c.client.RetryMax = retries
		c.client.RetryWaitMin = delay
		c.client.RetryWaitMax = 4 * delay
	}
}

// WithHTTPClient overwrites the underlying http client.
func WithHTTPClient(client *http.Client) Opt {
	return func(c *Client) {
		c.client.HTTPClient = client
	}
}

// Client for the pollvm API.
type Client struct {
	logger  *zap.Logger
	baseURL *url.URL
	client  *retryablehttp.Client
}

// New creates client for the server at address.
func New(address string, opts ...Opt) (*Client, error) {
	baseURL, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parsing address: %w", err)
	}
	if baseURL.Scheme == "" {
		baseURL.Scheme = "http"
	}
	c := &Client{
		logger:  zap.NewNop(),
		baseURL: baseURL,
		client: &retryablehttp.Client{
			HTTPClient:   http.DefaultClient,
			RetryMax:     3,
			RetryWaitMin: 100 * time.Millisecond,
			RetryWaitMax: time.Second,
			Backoff:      retryablehttp.LinearJitterBackoff,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody, resBody any) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}
	target := c.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response body (%w)", err)
	}
	if res.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(bytes.NewReader(data)).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = string(data)
		}
		c.logger.Debug("request failed", zap.String("status", res.Status), zap.String("error", apiErr.Error))
		switch res.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Error)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", ErrInvalidRequest, apiErr.Error)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrConflict, apiErr.Error)
		default:
			return fmt.Errorf("unrecognized error: status code: %s, body: %s", res.Status, apiErr.Error)
		}
	}
	if resBody != nil {
		if err := json.Unmarshal(data, resBody); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}

// Submit signed transaction and wait for the result.
func (c *Client) Submit(ctx context.Context, raw []byte) (*api.TransactionResponse, error) {
	var rst api.TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/transactions", nil, &api.SubmitRequest{Tx: util.Encode(raw)}, &rst); err != nil {
		return nil, err
	}
	return &rst, nil
}

// Transaction returns result of the applied transaction.
func (c *Client) Transaction(ctx context.Context, id types.TransactionID) (*api.TransactionResponse, error) {
	var rst api.TransactionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/transactions/"+id.String(), nil, nil, &rst); err != nil {
		return nil, err
	}
	return &rst, nil
}

// Transactions returns transactions signed by the principal ordered by nonce.
func (c *Client) Transactions(ctx context.Context, principal types.Address) ([]api.TransactionResponse, error) {
	var rst []api.TransactionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+principal.String()+"/transactions", nil, nil, &rst); err != nil {
		return nil, err
	}
	return rst, nil
}

// Account returns the latest state of the account.
func (c *Client) Account(ctx context.Context, address types.Address) (*api.AccountResponse, error) {
	var rst api.AccountResponse
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+address.String(), nil, nil, &rst); err != nil {
		return nil, err
	}
	return &rst, nil
}

// Poll returns decoded poll.
func (c *Client) Poll(ctx context.Context, address types.Address) (*api.PollResponse, error) {
	var rst api.PollResponse
	if err := c.do(ctx, http.MethodGet, "/v1/polls/"+address.String(), nil, nil, &rst); err != nil {
		return nil, err
	}
	return &rst, nil
}

// Polls returns polls created by the creator.
func (c *Client) Polls(ctx context.Context, creator types.Address) ([]api.PollRecord, error) {
	var rst []api.PollRecord
	query := url.Values{"creator": []string{creator.String()}}
	if err := c.do(ctx, http.MethodGet, "/v1/polls", query, nil, &rst); err != nil {
		return nil, err
	}
	return rst, nil
}
