// Package recordhttp talks to a collection-records REST API of the form
// /api/collections/{collection}/records.
package recordhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"landing-analytics/internal/sync/core/domain"
	"landing-analytics/internal/sync/core/ports"

	"golang.org/x/time/rate"
)

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// RequestsPerSecond <= 0 disables client-side rate limiting.
	RequestsPerSecond float64
	Burst             int

	HTTPClient *http.Client
}

// Client implements ports.RecordStore over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.RecordStore = (*Client)(nil)

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: hc,
		limiter:    limiter,
	}
}

type wireRecord struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type wirePage struct {
	Page       int          `json:"page"`
	PerPage    int          `json:"perPage"`
	TotalItems int          `json:"totalItems"`
	TotalPages int          `json:"totalPages"`
	Items      []wireRecord `json:"items"`
}

func (c *Client) List(ctx context.Context, collection string, q domain.ListQuery) (*domain.RecordPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("perPage", strconv.Itoa(q.PerPage))
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.ID != "" {
		params.Set("filter", fmt.Sprintf("(id=%s)", strconv.Quote(q.ID)))
	}

	resp, err := c.do(ctx, http.MethodGet, c.recordsPath(collection)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, collection, ""); err != nil {
		return nil, err
	}

	var page wirePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode %s page: %v", domain.ErrNetworkFailure, collection, err)
	}

	out := &domain.RecordPage{
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		Items:      make([]domain.Record, 0, len(page.Items)),
	}
	for _, it := range page.Items {
		out.Items = append(out.Items, domain.Record{ID: it.ID, Timestamp: it.Timestamp, Data: it.Data})
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, collection string, r domain.Record) error {
	resp, err := c.do(ctx, http.MethodPost, c.recordsPath(collection), wireRecord{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Data:      r.Data,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp, collection, r.ID)
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.recordsPath(collection)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp, collection, id)
}

func (c *Client) recordsPath(collection string) string {
	return fmt.Sprintf("%s/api/collections/%s/records", c.baseURL, url.PathEscape(collection))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %v", domain.ErrNetworkFailure, err)
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrNetworkFailure, method, endpoint, err)
	}
	return resp, nil
}

// checkStatus maps non-2xx responses to the sync sentinels. The response
// body is drained so the connection can be reused.
func checkStatus(resp *http.Response, collection, id string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, collection, id)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s/%s", domain.ErrRecordExists, collection, id)
	default:
		return fmt.Errorf("%w: %s returned status %d: %s",
			domain.ErrNetworkFailure, collection, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
