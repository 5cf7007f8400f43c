package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/rickgao/futures-data/internal/model"
)

// Default daily table endpoints. Overridable per exchange via WithSource
// for tests and mirrors.
var defaultSources = map[model.Exchange]string{
	model.SHFE:  "https://www.shfe.com.cn/data/tradedata/future/dailydata",
	model.CZCE:  "http://www.czce.com.cn/cn/DFSStaticFiles/Future",
	model.DCE:   "http://www.dce.com.cn/publicweb/quotesdata/exportDayQuotesChData.html",
	model.CFFEX: "http://www.cffex.com.cn/sj/hqsj/rtj",
	model.GFEX:  "http://www.gfex.com.cn/u/interfacesWebTiDayQuotes/loadList",
}

// SourceError represents a bad response from an exchange site.
type SourceError struct {
	Exchange   model.Exchange
	StatusCode int
	Message    string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source error %d: %s", e.Exchange, e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *SourceError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client downloads and parses daily quote tables.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	sources    map[model.Exchange]string

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a fetch client with the default public endpoints.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		limiter:      rate.NewLimiter(rate.Limit(2), 1),
		sources:      make(map[model.Exchange]string, len(defaultSources)),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
	for ex, u := range defaultSources {
		c.sources[ex] = u
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithRateLimit caps outgoing requests per second across all exchanges.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSource overrides the base URL for one exchange.
func WithSource(ex model.Exchange, baseURL string) ClientOption {
	return func(c *Client) {
		c.sources[ex] = baseURL
	}
}

// Daily downloads and parses the daily quote table for one exchange and
// trading date. A date the exchange has not published yet yields an empty
// slice and no error.
func (c *Client) Daily(ctx context.Context, ex model.Exchange, date model.Date) ([]model.RawRecord, error) {
	switch ex {
	case model.SHFE:
		return c.dailySHFE(ctx, date)
	case model.CZCE:
		return c.dailyCZCE(ctx, date)
	case model.DCE:
		return c.dailyDCE(ctx, date)
	case model.CFFEX:
		return c.dailyCFFEX(ctx, date)
	case model.GFEX:
		return c.dailyGFEX(ctx, date)
	default:
		return nil, fmt.Errorf("unknown exchange %q", ex)
	}
}

// doRequest performs one rate-limited HTTP request and returns the body.
func (c *Client) doRequest(ctx context.Context, ex model.Exchange, method, fullURL string, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("User-Agent", "futures-data/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &SourceError{
			Exchange:   ex,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	return data, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, ex model.Exchange, method, fullURL string, form url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying fetch",
				"attempt", attempt,
				"backoff", jitter,
				"exchange", ex,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		data, err := c.doRequest(ctx, ex, method, fullURL, form)
		if err == nil {
			return data, nil
		}

		lastErr = err

		srcErr, ok := err.(*SourceError)
		if !ok || !srcErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// notPublished reports the 404 case: the exchange has no table for the
// requested date (holiday declared late, or today's table not up yet).
func notPublished(err error) bool {
	srcErr, ok := err.(*SourceError)
	return ok && srcErr.StatusCode == http.StatusNotFound
}

// decodeGBK converts a GBK response body to UTF-8.
func decodeGBK(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode gbk: %w", err)
	}
	return out, nil
}
