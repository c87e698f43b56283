package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/aluiziolira/go-scrape-forex/config"
	"github.com/gocolly/colly/v2"
)

// Fetcher retrieves rendered markup for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
	Close() error
}

// PageFetcher fetches calendar pages through a synchronous colly collector.
// The transport is wrapped with the Cloudflare bypass headers the source
// site requires.
type PageFetcher struct {
	collector *colly.Collector
	transport *http.Transport

	mu       sync.Mutex
	body     string
	fetchErr error
}

// NewPageFetcher builds a fetcher configured from cfg.
func NewPageFetcher(cfg *config.Config) (*PageFetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	collector.WithTransport(cloudflarebp.AddCloudFlareByPass(transport))

	f := &PageFetcher{
		collector: collector,
		transport: transport,
	}
	collector.OnResponse(func(r *colly.Response) {
		f.mu.Lock()
		f.body = string(r.Body)
		f.mu.Unlock()
	})
	collector.OnError(func(_ *colly.Response, err error) {
		f.mu.Lock()
		f.fetchErr = err
		f.mu.Unlock()
	})
	return f, nil
}

// Fetch loads one page and returns its markup. The collector is not async,
// so Visit blocks until the response callbacks have run.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", TransientFetchError{URL: pageURL, Err: err}
	}

	f.mu.Lock()
	f.body = ""
	f.fetchErr = nil
	f.mu.Unlock()

	if err := f.collector.Visit(pageURL); err != nil {
		return "", TransientFetchError{URL: pageURL, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return "", TransientFetchError{URL: pageURL, Err: f.fetchErr}
	}
	if f.body == "" {
		return "", TransientFetchError{URL: pageURL, Err: errors.New("empty response body")}
	}
	return f.body, nil
}

// Close releases the fetcher's network resources.
func (f *PageFetcher) Close() error {
	f.transport.CloseIdleConnections()
	return nil
}
