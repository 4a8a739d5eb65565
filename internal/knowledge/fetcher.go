package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// Fetch tuning defaults, applied when FetchConfig fields are zero.
const (
	DefaultFetchParallelism = 2
	DefaultFetchDelay       = time.Second
	DefaultFetchTimeout     = 30 * time.Second
)

// FetchConfig tunes the collector used to download knowledge sources.
type FetchConfig struct {
	Parallelism int
	Delay       time.Duration
	Timeout     time.Duration
}

// FetchResult is one downloaded source body with its reported content type.
type FetchResult struct {
	Body        []byte
	ContentType string
}

// Fetcher downloads knowledge source URLs with bounded parallelism and
// per-domain politeness delay.
type Fetcher struct {
	cfg    FetchConfig
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. Zero config fields get defaults.
func NewFetcher(cfg FetchConfig, logger *slog.Logger) *Fetcher {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultFetchParallelism
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultFetchDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{cfg: cfg, logger: logger}
}

// FetchAll downloads every URL and returns results keyed by URL.
// All downloads share one async collector so parallelism and delay apply
// across sources. Any failed URL fails the whole batch; the error joins
// one wrapped entry per failure.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) (map[string]FetchResult, error) {
	collector := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent("swimbench-knowledge-loader/1.0"),
		colly.StdlibContext(ctx),
	)
	collector.SetRequestTimeout(f.cfg.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: f.cfg.Parallelism,
		Delay:       f.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configuring fetch limits: %w", err)
	}

	var mu sync.Mutex
	results := make(map[string]FetchResult, len(urls))
	var errs []error

	collector.OnResponse(func(r *colly.Response) {
		url := r.Request.URL.String()
		f.logger.Debug("fetched source", "url", url, "bytes", len(r.Body), "status", r.StatusCode)

		mu.Lock()
		defer mu.Unlock()
		results[url] = FetchResult{
			Body:        r.Body,
			ContentType: r.Headers.Get("Content-Type"),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		url := "unknown"
		if r != nil && r.Request != nil && r.Request.URL != nil {
			url = r.Request.URL.String()
		}
		f.logger.Warn("fetching source failed", "url", url, "status", statusOf(r), "error", err)

		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, fmt.Errorf("fetching %q: %w", url, err))
	})

	seen := make(map[string]bool, len(urls))
	for _, url := range urls {
		if seen[url] {
			continue
		}
		seen[url] = true
		if err := collector.Visit(url); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("fetching %q: %w", url, err))
			mu.Unlock()
		}
	}
	collector.Wait()

	if len(errs) > 0 {
		return results, errors.Join(errs...)
	}
	return results, nil
}

func statusOf(r *colly.Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}
