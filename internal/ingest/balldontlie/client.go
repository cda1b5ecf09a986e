package balldontlie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	BaseURL        = "https://api.balldontlie.io/v1"
	DefaultTimeout = 15 * time.Second
)

// StatsQuery selects which stat lines the /stats endpoint returns.
type StatsQuery struct {
	Seasons   []int
	PerPage   int
	PlayerIDs []int
}

// DefaultStatsQuery is Giannis Antetokounmpo's 2023 season, first page only.
func DefaultStatsQuery() StatsQuery {
	return StatsQuery{
		Seasons:   []int{2023},
		PerPage:   100,
		PlayerIDs: []int{95},
	}
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("balldontlie: %s returned status %d: %s", e.URL, e.Code, e.Body)
}

// Client issues requests against the balldontlie API.
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit caps outgoing requests at perMinute, allowing bursts of
// burst. perMinute <= 0 leaves the client unthrottled.
func WithRateLimit(perMinute float64, burst int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(perMinute/60), burst)
		c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
}

// New creates a client. An empty baseURL falls back to BaseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: resty.New().
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatsURL renders the /stats URL for q. The array brackets are left unescaped
// because that is the form the API documents.
func (c *Client) StatsURL(q StatsQuery) string {
	params := make([]string, 0, len(q.Seasons)+len(q.PlayerIDs)+1)
	for _, season := range q.Seasons {
		params = append(params, fmt.Sprintf("seasons[]=%d", season))
	}
	if q.PerPage > 0 {
		params = append(params, fmt.Sprintf("per_page=%d", q.PerPage))
	}
	for _, id := range q.PlayerIDs {
		params = append(params, fmt.Sprintf("player_ids[]=%d", id))
	}

	url := c.baseURL + "/stats"
	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}
	return url
}

// FetchStats issues a single GET for the first page of q and returns the raw body.
func (c *Client) FetchStats(ctx context.Context, q StatsQuery) ([]byte, error) {
	url := c.StatsURL(q)
	c.logger.Debug("fetching stats", zap.String("url", url))

	req := c.http.R().SetContext(ctx)
	if c.apiKey != "" {
		req.SetHeader("Authorization", c.apiKey)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("requesting stats: %w", err)
	}

	if !resp.IsSuccess() {
		body := resp.String()
		if len(body) > 200 {
			body = body[:200]
		}
		return nil, &StatusError{Code: resp.StatusCode(), URL: url, Body: body}
	}

	c.logger.Info("fetched stats",
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("elapsed", resp.Time()),
	)
	return resp.Body(), nil
}

// FetchEnvelope is FetchStats followed by decoding the body.
func (c *Client) FetchEnvelope(ctx context.Context, q StatsQuery) (*Envelope, error) {
	body, err := c.FetchStats(ctx, q)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding stats response: %w", err)
	}
	return &env, nil
}

// Save writes body to path, indented with four spaces when it is valid JSON.
func Save(path string, body []byte) error {
	out := body
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err == nil {
		out = buf.Bytes()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
