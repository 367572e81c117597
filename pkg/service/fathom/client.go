package fathom

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/secmon-lab/meetlink/pkg/utils/safe"
)

const (
	DefaultBaseURL = "https://api.fathom.ai/external/v1"
	DefaultTimeout = 30 * time.Second

	// maxPages stops a server that keeps returning cursors
	maxPages = 100
)

type client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
	nowFn   func() time.Time
}

type Option func(*client)

func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client. The client itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

// WithTimeout bounds each page request, body included. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// New creates a Fathom client authenticated with apiKey
func New(apiKey string, opts ...Option) (Service, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, goerr.Wrap(ErrMissingCredentials, "failed to create fathom client")
	}

	c := &client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		http:    http.DefaultClient,
		nowFn:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) FetchMeetings(ctx context.Context, since time.Time) ([]*model.Meeting, error) {
	var (
		meetings []*model.Meeting
		cursor   string
		seen     = make(map[string]struct{})
		fetched  = c.nowFn().UTC()
	)

	for page := 0; page < maxPages; page++ {
		items, next, err := c.fetchPage(ctx, since, cursor)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			m, err := decodeMeeting(item, fetched)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to decode fathom meeting", goerr.V("page", page))
			}
			meetings = append(meetings, m)
		}

		if next == "" {
			return meetings, nil
		}
		if _, dup := seen[next]; dup {
			logging.From(ctx).Warn("fathom returned a repeated cursor, stop paging", "cursor", next)
			return meetings, nil
		}
		seen[next] = struct{}{}
		cursor = next
	}

	logging.From(ctx).Warn("fathom pagination limit reached", "pages", maxPages, "meetings", len(meetings))
	return meetings, nil
}

func (c *client) fetchPage(ctx context.Context, since time.Time, cursor string) ([]json.RawMessage, string, error) {
	q := url.Values{}
	q.Set("created_after", since.UTC().Format(time.RFC3339))
	q.Set("include_transcript", "true")
	q.Set("include_summary", "true")
	q.Set("include_action_items", "true")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := c.baseURL + "/meetings?" + q.Encode()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to build fathom request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", goerr.Wrap(ErrUpstreamUnavailable, "fathom request failed",
			goerr.V("error", err.Error()), goerr.V("cursor", cursor))
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", goerr.Wrap(ErrUpstreamUnavailable, "failed to read fathom response",
			goerr.V("error", err.Error()))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", goerr.Wrap(ErrRateLimited, "fathom rejected the request",
			goerr.V("retry_after", resp.Header.Get("Retry-After")))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", goerr.Wrap(ErrUpstreamUnavailable, "fathom returned an error status",
			goerr.V("status", resp.StatusCode), goerr.V("body", truncate(string(body), 512)))
	}

	items, next, err := decodeEnvelope(body)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to decode fathom response", goerr.V("body", truncate(string(body), 512)))
	}
	return items, next, nil
}

// decodeEnvelope accepts a bare array or an object carrying the array under a known key
func decodeEnvelope(body []byte) ([]json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", goerr.Wrap(err, "invalid meeting array")
		}
		return items, "", nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, "", goerr.Wrap(err, "invalid meeting envelope")
	}

	var next string
	if raw, ok := envelope["next_cursor"]; ok {
		// null or non-string cursors end pagination
		_ = json.Unmarshal(raw, &next)
	}

	for _, key := range []string{"items", "meetings", "calls", "data"} {
		raw, ok := envelope[key]
		if !ok || string(raw) == "null" {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, "", goerr.Wrap(err, "invalid meeting list", goerr.V("key", key))
		}
		return items, next, nil
	}
	return nil, next, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
