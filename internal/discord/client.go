// Package discord implements the client side of the remote message
// retrieval service. The client issues exactly one request per call;
// retry, pacing and circuit breaking live in the fetcher.
package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dmr/internal/models"
	"dmr/internal/providers"
	"dmr/internal/structures"
)

const userAgent = "dmr (https://github.com/dmr, 1.0)"

type MessageSource interface {
	GetMessages(ctx context.Context, channelID, before string, limit int) ([]*models.Message, error)
}

type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) MessageSource {
	return &Client{
		http:    &http.Client{Timeout: conf.Discord.Timeout},
		baseURL: conf.Discord.BaseURL,
		token:   conf.Discord.Token,
		logger:  logger,
	}
}

// GetMessages fetches one page of messages strictly before the given
// cursor, newest first. An empty cursor fetches the most recent page.
func (c *Client) GetMessages(ctx context.Context, channelID, before string, limit int) ([]*models.Message, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if before != "" {
		q.Set("before", before)
	}
	endpoint := fmt.Sprintf("%s/channels/%s/messages?%s", c.baseURL, url.PathEscape(channelID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bot "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debugf(providers.TypeFetch, "page request channel=%s before=%q status=%d latency=%s",
		channelID, before, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransientError{Err: err}
		}
		return models.MessagesFromAPI(body)

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp)}

	case resp.StatusCode >= 500:
		return nil, &TransientError{Err: fmt.Errorf("server error: HTTP %d", resp.StatusCode)}

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
}

// parseRetryAfter reads the Retry-After header, accepting both integral
// seconds and the fractional form the platform emits in JSON errors.
func parseRetryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(h, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return 0
}
