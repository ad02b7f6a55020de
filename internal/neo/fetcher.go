package neo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultFeedURL is the NASA NeoWs feed endpoint.
	DefaultFeedURL = "https://api.nasa.gov/neo/rest/v1/feed"

	// DemoAPIKey works without registration but is heavily rate limited.
	DemoAPIKey = "DEMO_KEY"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// MaxWindow is the longest date range the feed accepts.
	MaxWindow = 7 * 24 * time.Hour

	dateLayout = "2006-01-02"
)

// StatusError is returned for a non-2xx feed response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("neo feed: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("neo feed: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrFeedStatus }

// Fetcher retrieves the NEO feed over HTTP.
type Fetcher struct {
	client  *http.Client
	url     string
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithURL sets a custom feed URL.
func WithURL(u string) FetcherOption {
	return func(f *Fetcher) {
		f.url = u
	}
}

// WithAPIKey sets the api_key query parameter. Empty keeps DEMO_KEY.
func WithAPIKey(key string) FetcherOption {
	return func(f *Fetcher) {
		if key != "" {
			f.apiKey = key
		}
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRateLimit throttles outgoing requests to perSec with a burst of one.
// Zero or negative disables throttling.
func WithRateLimit(perSec float64) FetcherOption {
	return func(f *Fetcher) {
		if perSec <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// NewFetcher creates a feed fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		url:     DefaultFeedURL,
		apiKey:  DemoAPIKey,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// FetchResult contains the result of a fetch operation. Exactly one of Feed
// and Error is set.
type FetchResult struct {
	Feed      *Feed
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
	Duration  time.Duration
	Error     error
}

// Window returns the feed's maximum window starting at day.
func Window(day time.Time) (time.Time, time.Time) {
	start := day.UTC().Truncate(24 * time.Hour)
	return start, start.Add(MaxWindow)
}

// Fetch retrieves and parses the feed for [start, end].
func (f *Fetcher) Fetch(ctx context.Context, start, end time.Time) FetchResult {
	begin := time.Now()
	result := FetchResult{
		Start:     start,
		End:       end,
		FetchedAt: begin,
	}

	raw, err := f.fetchRaw(ctx, start, end)
	result.Duration = time.Since(begin)
	if err != nil {
		result.Error = err
		return result
	}

	feed, err := Parse(raw)
	if err != nil {
		result.Error = fmt.Errorf("parse neo feed: %w", err)
		return result
	}
	result.Feed = feed
	return result
}

func (f *Fetcher) fetchRaw(ctx context.Context, start, end time.Time) ([]byte, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("neo feed: end %s before start %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	if end.Sub(start) > MaxWindow {
		return nil, fmt.Errorf("neo feed: window %s to %s exceeds 7 days", start.Format(dateLayout), end.Format(dateLayout))
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("neo feed rate limit: %w", err)
		}
	}

	u, err := url.Parse(f.url)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	q := u.Query()
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("api_key", f.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ls-impact/1.0 (impact simulator)")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch neo feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// URL returns the configured feed URL.
func (f *Fetcher) URL() string {
	return f.url
}
