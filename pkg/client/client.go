// Package client provides the GitHub REST client used by an export run:
// bearer-authenticated page fetches, credential and connectivity checks,
// rate budget reads and optional ETag revalidation.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/stars-export/pkg/cache"
	"github.com/Sternrassler/stars-export/pkg/ratelimit"
	"github.com/Sternrassler/stars-export/pkg/record"
	gh "github.com/google/go-github/v80/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Prometheus metrics for GitHub client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stars_requests_total",
		Help: "Total GitHub API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stars_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stars_errors_total",
		Help: "Total GitHub API errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com/"

	// DefaultAPIVersion is sent as X-GitHub-Api-Version.
	DefaultAPIVersion = "2022-11-28"

	// DefaultUserAgent identifies the exporter to GitHub.
	DefaultUserAgent = "stars-export/0.1.0"

	// MaxPerPage is the largest page size the starred endpoint accepts.
	MaxPerPage = 100

	mediaType       = "application/vnd.github+json"
	endpointStarred = "starred"
)

// Client talks to the GitHub REST API on behalf of one account.
type Client struct {
	httpClient *http.Client
	github     *gh.Client
	cache      *cache.Manager
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token is the bearer credential. It is never logged.
	Token string

	// User-Agent header (required by GitHub)
	UserAgent string

	// BaseURL of the REST API, with or without trailing slash.
	BaseURL string

	// APIVersion is sent as X-GitHub-Api-Version.
	APIVersion string

	// Timeout per HTTP request.
	Timeout time.Duration

	// PerPage is the starred page size (1-100).
	PerPage int

	// Cache enables ETag revalidation of pages. Optional.
	Cache *cache.Manager
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token string) Config {
	return Config{
		Token:      token,
		UserAgent:  DefaultUserAgent,
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		Timeout:    30 * time.Second,
		PerPage:    MaxPerPage,
	}
}

// Page is one decoded page of starred repositories.
type Page struct {
	// URL is the address the page was fetched from.
	URL string

	// Repositories in API order.
	Repositories []record.Raw

	// Link is the raw pagination header.
	Link string

	// Budget is the rate budget after this request, nil when unknown.
	Budget *ratelimit.Budget

	// FromCache is true when the body was replayed after a 304.
	FromCache bool
}

// New creates a new GitHub client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PerPage <= 0 || cfg.PerPage > MaxPerPage {
		cfg.PerPage = MaxPerPage
	}

	logger := log.With().Str("component", "github-client").Logger()

	// The oauth2 transport adds "Authorization: Bearer <token>" to every request.
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = cfg.Timeout

	ghClient := gh.NewClient(httpClient)
	ghClient.BaseURL = baseURL
	ghClient.UserAgent = cfg.UserAgent

	return &Client{
		httpClient: httpClient,
		github:     ghClient,
		cache:      cfg.Cache,
		baseURL:    baseURL,
		config:     cfg,
		logger:     logger,
	}, nil
}

// BaseURL returns the API base URL with a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// StarredURL returns the first page address of a user's starred repositories.
func (c *Client) StarredURL(username string) string {
	return fmt.Sprintf("%susers/%s/starred?per_page=%d", c.baseURL.String(), url.PathEscape(username), c.config.PerPage)
}

// FetchPage performs one GET of a starred page. Non-2xx responses, network
// failures and undecodable bodies return a *TransportError.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpointStarred).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &TransportError{URL: pageURL, ErrorClass: ErrorClassClient, Err: fmt.Errorf("create request: %w", err)}
	}
	c.setHeaders(req)

	cacheKey := cache.PageKey(pageURL)
	var cached *cache.Entry
	if c.cache != nil {
		cached, err = c.cache.Lookup(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn().Err(err).Str("url", pageURL).Msg("Cache lookup error")
		}
		if cached.Condition(req) {
			c.logger.Debug().Str("url", pageURL).Str("etag", cached.ETag).Msg("Making conditional request")
		}
	}

	c.logger.Debug().Str("url", pageURL).Msg("Executing GitHub request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpointStarred, "network_error").Inc()
		c.logger.Error().Err(err).Str("url", pageURL).Msg("HTTP request failed")
		return nil, &TransportError{URL: pageURL, ErrorClass: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpointStarred, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &TransportError{URL: pageURL, StatusCode: resp.StatusCode, Status: resp.Status, ErrorClass: ErrorClassNetwork, Err: fmt.Errorf("read body: %w", err)}
	}

	page := &Page{URL: pageURL}

	switch {
	case resp.StatusCode == http.StatusNotModified && cached != nil:
		body = cached.Body
		page.Link = cached.Link
		page.FromCache = true
		if err := c.cache.Refresh(ctx, cacheKey); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		c.logger.Debug().Str("url", pageURL).Msg("304 Not Modified - replaying cached page")

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		errClass := classifyStatus(resp)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("url", pageURL).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("GitHub request error")
		return nil, &TransportError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(redact(strings.TrimSpace(string(body)), c.config.Token), maxErrorBody),
			ErrorClass: errClass,
		}

	default:
		page.Link = resp.Header.Get("Link")
	}

	if err := json.Unmarshal(body, &page.Repositories); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassParse)).Inc()
		return nil, &TransportError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			ErrorClass: ErrorClassParse,
			Err:        err,
		}
	}

	// Only bodies that decoded are kept for revalidation.
	if !page.FromCache {
		c.storePage(ctx, cacheKey, resp, body)
	}

	page.Budget = c.budgetFor(ctx, resp.Header)

	return page, nil
}

// RateLimitStatus reads the core rate budget from the rate_limit endpoint.
func (c *Client) RateLimitStatus(ctx context.Context) (*ratelimit.Budget, error) {
	limits, _, err := c.github.RateLimit.Get(ctx)
	requestsTotal.WithLabelValues("rate_limit", statusLabel(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("get rate limit: %w", err)
	}

	core := limits.GetCore()
	if core == nil {
		return nil, fmt.Errorf("rate limit response has no core resource")
	}

	return &ratelimit.Budget{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		ResetAt:   core.Reset.Time.UTC(),
	}, nil
}

// ValidateCredentials confirms the token is accepted and the username exists.
// Rejections return *AuthenticationError; an unreachable host returns
// *ConnectivityError.
func (c *Client) ValidateCredentials(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return &AuthenticationError{Reason: "username is required"}
	}

	// An empty user selects the authenticated user.
	if _, _, err := c.github.Users.Get(ctx, ""); err != nil {
		requestsTotal.WithLabelValues("user", statusLabel(err)).Inc()
		return c.credentialError(err, "")
	}

	if _, _, err := c.github.Users.Get(ctx, username); err != nil {
		requestsTotal.WithLabelValues("user", statusLabel(err)).Inc()
		return c.credentialError(err, username)
	}

	c.logger.Info().Str("username", username).Msg("GitHub credentials validated")
	return nil
}

// CheckConnectivity confirms the API host answers at all. It sends no
// credential; any HTTP response counts as reachable.
func CheckConnectivity(ctx context.Context, httpClient *http.Client, baseURL string) error {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return err
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{Host: base.Host, Err: err}
	}
	resp.Body.Close()

	return nil
}

// setHeaders adds the headers GitHub expects on every REST call.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", mediaType)
	req.Header.Set("X-GitHub-Api-Version", c.config.APIVersion)
	req.Header.Set("User-Agent", c.config.UserAgent)
}

// budgetFor reads the budget from headers, asking the rate_limit endpoint
// when the headers are missing. Failures leave the budget unknown.
func (c *Client) budgetFor(ctx context.Context, headers http.Header) *ratelimit.Budget {
	budget, ok, err := ratelimit.BudgetFromHeaders(headers)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to parse rate limit headers")
	}
	if ok {
		return &budget
	}

	status, err := c.RateLimitStatus(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error checking rate limit")
		return nil
	}
	return status
}

// storePage caches a successful page for later revalidation.
func (c *Client) storePage(ctx context.Context, key cache.Key, resp *http.Response, body []byte) {
	if c.cache == nil {
		return
	}

	entry := cache.NewEntry(resp.Header, body, time.Now(), c.cache.TTL())
	if entry == nil {
		return
	}

	if err := c.cache.Save(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache page")
		return
	}
	c.logger.Debug().Str("key", key.String()).Dur("ttl", c.cache.TTL()).Msg("Cached page")
}

// credentialError maps a go-github failure to the error kinds callers act on.
func (c *Client) credentialError(err error, username string) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &AuthenticationError{
			Username:   username,
			StatusCode: ghErr.Response.StatusCode,
			Reason:     redact(ghErr.Message, c.config.Token),
		}
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return &AuthenticationError{
			Username:   username,
			StatusCode: rateErr.Response.StatusCode,
			Reason:     "rate limit exceeded during validation",
		}
	}

	return &ConnectivityError{Host: c.baseURL.Host, Err: err}
}

func statusLabel(err error) string {
	if err == nil {
		return "200"
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return strconv.Itoa(ghErr.Response.StatusCode)
	}
	return "error"
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	return u, nil
}
