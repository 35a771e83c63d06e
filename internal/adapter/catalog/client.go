package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/vidcat/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "vidcat/1.0"

	// maxBodyBytes bounds how much of a response is read
	maxBodyBytes = 8 << 20
)

// Operation names used in errors and logs
const (
	OpList = "list"
	OpPlay = "play"
)

// Options tunes the catalog client
type Options struct {
	Timeout           time.Duration // Per-request timeout, default 30s
	RequestsPerSecond float64       // Client-side pacing, 0 disables it
	HTTPClient        *http.Client  // Overrides Timeout when set
}

// Client implements domain.CatalogRepository over the catalog HTTP API:
//
//	GET {base}catalog?prefix=<prefix>
//	GET {base}play?key=<key>
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a catalog API client. baseURL is normalised to end in "/".
func NewClient(baseURL string, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    NormalizeBaseURL(baseURL),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// NormalizeBaseURL trims whitespace and guarantees a trailing slash
func NormalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}

// ListCatalog fetches the listing for prefix ("" = root)
func (c *Client) ListCatalog(ctx context.Context, prefix string) (domain.CatalogListing, error) {
	query := url.Values{}
	query.Set("prefix", prefix)

	body, err := c.doRequest(ctx, OpList, "catalog", query)
	if err != nil {
		return domain.CatalogListing{}, err
	}

	p, err := unwrapEnvelope(body)
	if err != nil {
		return domain.CatalogListing{}, c.malformed(OpList, err, body)
	}

	listing, err := decodeListing(p, prefix)
	if err != nil {
		return domain.CatalogListing{}, c.malformed(OpList, err, body)
	}

	c.logger.Debug("catalog listed", "prefix", prefix, "folders", len(listing.Folders), "files", len(listing.Files))
	return listing, nil
}

// ResolvePlayURL resolves a file key to a playable (usually signed) URL
func (c *Client) ResolvePlayURL(ctx context.Context, key string) (string, error) {
	query := url.Values{}
	query.Set("key", key)

	body, err := c.doRequest(ctx, OpPlay, "play", query)
	if err != nil {
		return "", err
	}

	p, err := unwrapEnvelope(body)
	if err != nil {
		return "", c.malformed(OpPlay, err, body)
	}

	playURL, err := decodePlayURL(p)
	if err != nil {
		if errors.Is(err, domain.ErrMissingURL) {
			c.logger.Warn("play response without URL", "key", key)
			return "", &domain.CatalogError{Sentinel: domain.ErrMissingURL, Operation: OpPlay}
		}
		return "", c.malformed(OpPlay, err, body)
	}

	return playURL, nil
}

// doRequest performs a GET against the catalog API and returns the raw body
func (c *Client) doRequest(ctx context.Context, op, endpoint string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.CatalogError{Sentinel: domain.ErrNetwork, Operation: op, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug("catalog request", "op", op, "url", reqURL, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "op", op, "error", err, "request_id", requestID)
		return nil, &domain.CatalogError{Sentinel: domain.ErrNetwork, Operation: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.CatalogError{Sentinel: domain.ErrNetwork, Operation: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("catalog request error", "op", op, "status", resp.StatusCode, "body", truncate(string(body), 256), "request_id", requestID)
		return nil, &domain.CatalogError{Sentinel: domain.ErrNetwork, Operation: op, Status: resp.StatusCode}
	}

	return body, nil
}

func (c *Client) malformed(op string, err error, body []byte) error {
	c.logger.Error("malformed catalog response", "op", op, "error", err, "bodyLen", len(body))
	return &domain.CatalogError{Sentinel: domain.ErrMalformedResponse, Operation: op, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
