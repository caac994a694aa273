// Package salestracker reads prospects, subscriptions and contracts from the
// external sales-tracking platform.
package salestracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/pkg/config"
	"github.com/HatimBenzahra/rework-sub001/pkg/httputil"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
	"github.com/HatimBenzahra/rework-sub001/pkg/redis"
)

const prospectsPath = "/api/v1/prospects?include=subscriptions.contracts"

// Client handles communication with the sales-tracking API.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	logger     *logger.Logger
}

// NewHTTPClient builds the throttled, retrying transport for the feed. When a
// token URL is configured every request carries a client-credentials token.
func NewHTTPClient(cfg config.FeedConfig, limiter *redis.RateLimiter, log *logger.Logger) *httputil.Client {
	hc := httputil.New(log).
		WithTimeout(cfg.Timeout).
		WithRateLimiter(limiter, redis.FeedRateLimit(cfg.RatePerSec))

	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		hc.WithHTTPClient(cc.Client(context.Background()))
	}
	return hc
}

// NewClient creates a new sales-tracking API client
func NewClient(cfg config.FeedConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     log.WithField("module", "salestracker"),
	}
}

// Snapshot is one fetched feed with its raw body.
type Snapshot struct {
	Feed      Feed
	Raw       []byte
	FetchedAt time.Time
}

// FetchFeed reads every prospect with its subscriptions and contracts.
// Token failures wrap contracts.ErrUpstreamAuth, everything else
// contracts.ErrUpstreamUnavailable.
func (c *Client) FetchFeed(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	url := c.baseURL + prospectsPath

	var feed Feed
	raw, err := c.httpClient.GetJSON(ctx, url, &feed)
	if err != nil {
		return nil, classify(err)
	}

	c.logger.WithFields(map[string]interface{}{
		"prospects": len(feed.Prospects),
		"contracts": feed.ContractCount(),
		"bytes":     len(raw),
		"duration":  time.Since(start).String(),
	}).Info("Fetched contract feed")

	return &Snapshot{Feed: feed, Raw: raw, FetchedAt: time.Now().UTC()}, nil
}

func classify(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", contracts.ErrUpstreamAuth, err)
	}

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", contracts.ErrUpstreamAuth, err)
		}
	}

	return fmt.Errorf("%w: %v", contracts.ErrUpstreamUnavailable, err)
}
