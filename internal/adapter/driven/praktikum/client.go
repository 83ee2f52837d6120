// Package praktikum implements the ReviewClient port against the homework
// status API.
package praktikum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewClient = (*Client)(nil)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// Client implements the driven.ReviewClient port.
type Client struct {
	http     *http.Client
	endpoint *url.URL
	token    string
}

// NewClient creates a status API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (sleeps when the server signals a rate limit)
//
// Requests time out after 30s.
func NewClient(endpoint, token string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = 30 * time.Second

	return NewClientWithHTTPClient(rateLimitClient, endpoint, token)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, endpoint, token string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing status API URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("status API URL %q must be absolute", endpoint)
	}

	return &Client{
		http:     httpClient,
		endpoint: u,
		token:    token,
	}, nil
}

// FetchStatuses requests the statuses changed since the given Unix timestamp
// and returns the raw JSON body. Transport failures and non-2xx responses are
// returned as *model.ProtocolError.
func (c *Client) FetchStatuses(ctx context.Context, since int64) ([]byte, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(since, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, model.NewProtocolError("build status request", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.NewProtocolError("request statuses", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, model.NewProtocolError("read status response", err)
	}

	slog.Debug("statuses fetched",
		"from_date", since,
		"status", resp.StatusCode,
		"cached", resp.Header.Get(httpcache.XFromCache) != "",
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.NewProtocolError(errorMessage(resp.StatusCode, body), nil)
	}

	return body, nil
}

// errorMessage prefers the message the API put in an error body and falls
// back to the HTTP status.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		var nested struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Error != "" {
			return nested.Error
		}
		var s string
		if err := json.Unmarshal(payload.Error, &s); err == nil && s != "" {
			return s
		}
	}
	return fmt.Sprintf("unexpected HTTP status %d %s", status, http.StatusText(status))
}
