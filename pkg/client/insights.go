package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"calbook/pkg/model"

	"golang.org/x/sync/singleflight"
)

const (
	RecentRatingsPath = "/api/v1/insights.recentRatings"

	// DefaultStaleTime is how long a recent-ratings result is served without refetching.
	DefaultStaleTime = 30 * time.Second

	fetchTimeout = 15 * time.Second
)

type cacheEntry struct {
	rows      []model.RatingRow
	fetchedAt time.Time
}

// InsightsClient performs cached reads against the insights service. Identical
// in-flight reads collapse into one request and results stay fresh for
// StaleTime. It owns a dedicated transport so its requests never share a
// connection pool with other traffic.
type InsightsClient struct {
	http      *HttpClient
	transport *http.Transport
	staleTime time.Duration
	now       func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewInsightsClient(baseURL string, staleTime time.Duration) *InsightsClient {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &InsightsClient{
		http:      NewHttpClient(baseURL, transport),
		transport: transport,
		staleTime: staleTime,
		now:       time.Now,
		entries:   make(map[string]cacheEntry),
	}
}

// Cached returns a fresh cached result for scope, if any.
func (c *InsightsClient) Cached(scope model.RatingsScope) ([]model.RatingRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[scope.CacheKey()]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return entry.rows, true
}

// RecentRatings blocks until the read completes or ctx is done.
func (c *InsightsClient) RecentRatings(ctx context.Context, scope model.RatingsScope) ([]model.RatingRow, error) {
	select {
	case res := <-c.RecentRatingsAsync(ctx, scope):
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.RatingRow), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RecentRatingsAsync starts, or joins, the read for scope. The shared fetch is
// detached from ctx cancellation so an abandoned caller still warms the cache.
func (c *InsightsClient) RecentRatingsAsync(ctx context.Context, scope model.RatingsScope) <-chan singleflight.Result {
	if rows, ok := c.Cached(scope); ok {
		ch := make(chan singleflight.Result, 1)
		ch <- singleflight.Result{Val: rows}
		return ch
	}

	key := scope.CacheKey()
	fetchCtx := context.WithoutCancel(ctx)
	return c.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(fetchCtx, fetchTimeout)
		defer cancel()

		rows, err := c.fetch(ctx, scope)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{rows: rows, fetchedAt: c.now()}
		c.mu.Unlock()
		return rows, nil
	})
}

func (c *InsightsClient) fetch(ctx context.Context, scope model.RatingsScope) ([]model.RatingRow, error) {
	resp, err := c.http.GET(ctx, RecentRatingsPath+"?"+scope.Query().Encode())
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("recent ratings request failed with status %d: %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("could not decode recent ratings wrapper: %w", err)
	}

	rows := []model.RatingRow{}
	if len(wrapper.Data) > 0 && string(wrapper.Data) != "null" {
		if err := json.Unmarshal(wrapper.Data, &rows); err != nil {
			return nil, fmt.Errorf("could not decode recent ratings: %w", err)
		}
	}
	return rows, nil
}

// Invalidate drops every cached result.
func (c *InsightsClient) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *InsightsClient) Close() {
	c.transport.CloseIdleConnections()
}
