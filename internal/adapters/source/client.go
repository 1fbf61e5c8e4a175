// Package source fetches leaderboard pages from the contest HTTP API.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/boardsync/internal/domain/failure"
	"github.com/okian/boardsync/internal/domain/model"
	"github.com/okian/boardsync/pkg/logger"
	"github.com/okian/boardsync/pkg/metrics"
)

// Defaults for the leaderboard client.
const (
	defaultBaseURL   = "https://www.hackerrank.com"
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	errorBodyLimit   = 512
	microsPerMilli   = 1000
)

// Sentinel kinds for request validation.
var (
	ErrInvalidPage = errors.New("invalid page request")
	ErrStatus      = errors.New("unexpected status")
	ErrNoModels    = errors.New("missing models field")
)

// Page is one decoded leaderboard page.
type Page struct {
	Offset  int
	Limit   int
	Records model.ExportBatch
	// Received is the number of rows upstream returned, malformed ones included.
	Received int
	// Skipped counts malformed rows that were dropped.
	Skipped int
	// Total is the upstream participant count, or -1 when absent.
	Total int
	// HasMore is the upstream continuation flag, nil when absent.
	HasMore *bool
}

// Client issues leaderboard page requests for one contest.
type Client struct {
	contest    string
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	logger     logger.Logger
}

// New constructs a Client for contest.
func New(contest string, opts ...Option) *Client {
	c := &Client{
		contest:   contest,
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	hc := http.Client{}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	hc.Timeout = c.timeout
	c.httpClient = &hc
	if c.logger == nil {
		c.logger = logger.Named("source")
	}
	return c
}

// Contest returns the contest slug this client targets.
func (c *Client) Contest() string { return c.contest }

// Endpoint returns the leaderboard REST URL without query parameters.
func (c *Client) Endpoint() string {
	return c.baseURL + "/rest/contests/" + url.PathEscape(c.contest) + "/leaderboard"
}

// FetchPage requests the records in [offset, offset+limit). Transport
// failures and non-2xx responses are failure.ErrFetch; an undecodable body or
// a missing models field is failure.ErrParse. Malformed individual rows are
// skipped and counted in Page.Skipped.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) (Page, error) {
	const op = "source.fetch_page"
	if offset < 0 || limit <= 0 {
		return Page{}, failure.Fetch(op, offset, fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidPage, offset, limit))
	}

	req, err := c.newRequest(ctx, offset, limit)
	if err != nil {
		return Page{}, failure.Fetch(op, offset, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordFetchError("fetch")
		return Page{}, failure.Fetch(op, offset, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug(ctx, "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		metrics.RecordFetchError("fetch")
		return Page{}, failure.Fetch(op, offset, fmt.Errorf("%w: HTTP %d: %s", ErrStatus, resp.StatusCode, string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordFetchError("fetch")
		return Page{}, failure.Fetch(op, offset, fmt.Errorf("read body: %w", err))
	}
	metrics.RecordPageFetched(float64(time.Since(start).Microseconds()) / microsPerMilli)

	page, err := c.decodePage(ctx, body, offset, limit)
	if err != nil {
		metrics.RecordFetchError("parse")
		return Page{}, failure.Parse(op, offset, err)
	}
	return page, nil
}

func (c *Client) newRequest(ctx context.Context, offset, limit int) (*http.Request, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL+"/contests/"+url.PathEscape(c.contest)+"/leaderboard")
	req.Header.Set("Origin", c.baseURL)
	return req, nil
}

// pageBody mirrors the subset of the response envelope we read.
type pageBody struct {
	Models  *[]json.RawMessage `json:"models"`
	Total   *flexNumber        `json:"total"`
	HasMore *bool              `json:"has_more"`
}

func (c *Client) decodePage(ctx context.Context, body []byte, offset, limit int) (Page, error) {
	var env pageBody
	if err := json.Unmarshal(body, &env); err != nil {
		return Page{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Models == nil {
		return Page{}, ErrNoModels
	}

	page := Page{
		Offset:   offset,
		Limit:    limit,
		Records:  make(model.ExportBatch, 0, len(*env.Models)),
		Received: len(*env.Models),
		Total:    -1,
		HasMore:  env.HasMore,
	}
	if env.Total != nil && env.Total.valid {
		page.Total = int(env.Total.value)
	}

	for i, raw := range *env.Models {
		rec, err := decodeRecord(raw)
		if err != nil {
			page.Skipped++
			metrics.RecordRecordSkipped()
			c.logger.Warn(ctx, "skipping malformed participant record",
				logger.Int("offset", offset),
				logger.Int("index", i),
				logger.Error(failure.Parse("source.decode_record", offset+i, err)),
			)
			continue
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}
