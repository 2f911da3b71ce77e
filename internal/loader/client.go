package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/integration"
)

// RequestIDHeader carries a per-load id so server logs can be correlated
const RequestIDHeader = "X-Request-Id"

const maxBodyBytes = 32 << 20

// Fetcher performs the single outbound request of a load
type Fetcher interface {
	Fetch(ctx context.Context, sel integration.Selector, creds auth.Bundle) (json.RawMessage, error)
}

// Client fetches integration items from the remote service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the service rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch posts the serialized credentials to the selector's load endpoint and
// returns the response body untouched. Any failure is a *LoadError.
func (c *Client) Fetch(ctx context.Context, sel integration.Selector, creds auth.Bundle) (json.RawMessage, error) {
	credJSON, err := json.Marshal(creds)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("failed to encode credentials: %w", err)}
	}

	form := url.Values{}
	form.Set("credentials", string(credJSON))

	endpoint := c.baseURL + sel.Path()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("failed to build request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	log := c.logger.With().
		Str("request_id", requestID).
		Str("integration", string(sel)).
		Str("path", sel.Path()).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("request failed")
		return nil, &LoadError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("failed to read response")
		return nil, &LoadError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	log = log.With().Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Logger()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := extractDetail(body)
		log.Warn().Str("detail", detail).Msg("load rejected")
		return nil, &LoadError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if !json.Valid(body) {
		log.Warn().Int("bytes", len(body)).Msg("malformed response body")
		return nil, &LoadError{StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not valid JSON")}
	}

	log.Debug().Int("bytes", len(body)).Msg("load succeeded")
	return json.RawMessage(body), nil
}
