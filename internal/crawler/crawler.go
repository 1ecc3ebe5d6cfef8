// Package crawler implements live acquisition of city-website content: a
// polite, bounded crawl that feeds every admitted page through the shared
// HTML extractor and accumulates the resulting RawDocument set.
package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/harlibot/harlibot/internal/document"
	"github.com/harlibot/harlibot/internal/extract"
)

// MaxRetries is the per-request retry budget; a request that still fails is
// dropped and logged, never aborts the crawl.
const MaxRetries = 3

// denyPatterns exclude administrative, binary, and low-value paths.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/login`),
	regexp.MustCompile(`(?i)/admin`),
	regexp.MustCompile(`(?i)/wp-admin`),
	regexp.MustCompile(`(?i)/print/`),
	regexp.MustCompile(`(?i)\.(pdf|doc|docx|xls|xlsx|zip|jpg|jpeg|png|gif)$`),
	regexp.MustCompile(`(?i)calendar/`),
}

// allowPrefixes are the path prefixes known to carry service content; they
// are admitted first, with other same-domain URLs admitted by default.
var allowPrefixes = []string{
	"/government/", "/services/", "/residents/", "/business/", "/news-events/",
}

// Options bound the crawl.
type Options struct {
	SeedURL        string
	AllowedDomain  string
	MaxPages       int           // total pages fetched per run
	Concurrency    int           // parallel fetches
	RequestsPerMin int           // politeness ceiling
	Timeout        time.Duration // per-request
}

// Crawler runs one bounded crawl and collects the documents it finds.
type Crawler struct {
	opts    Options
	logger  *slog.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	byHash  map[string]document.RawDocument
	fetched int
	dropped int
	retries map[string]int
}

// New creates a crawler with the given bounds. Zero option fields get the
// documented defaults (500 pages, 3 workers, 30 requests/minute, 60s).
func New(opts Options, logger *slog.Logger) *Crawler {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 500
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.RequestsPerMin <= 0 {
		opts.RequestsPerMin = 30
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		opts:    opts,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMin)/60.0), 1),
		byHash:  make(map[string]document.RawDocument),
		retries: make(map[string]int),
	}
}

// Crawl fetches same-domain pages starting from the seed URL and returns the
// collected documents ordered by URL. The full set is returned once at the
// end; nothing is persisted incrementally.
func (c *Crawler) Crawl(ctx context.Context) ([]document.RawDocument, error) {
	collector := colly.NewCollector(
		colly.AllowedDomains(c.opts.AllowedDomain, "www."+c.opts.AllowedDomain),
		colly.DisallowedURLFilters(denyPatterns...),
		colly.Async(true),
	)
	collector.SetRequestTimeout(c.opts.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*" + c.opts.AllowedDomain + "*",
		Parallelism: c.opts.Concurrency,
	}); err != nil {
		return nil, err
	}

	collector.OnRequest(func(r *colly.Request) {
		if err := ctx.Err(); err != nil {
			r.Abort()
			return
		}
		c.mu.Lock()
		over := c.fetched >= c.opts.MaxPages
		if !over {
			c.fetched++
		}
		c.mu.Unlock()
		if over {
			r.Abort()
			return
		}
		if err := c.limiter.Wait(ctx); err != nil {
			r.Abort()
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		u, err := url.Parse(link)
		if err != nil || !Admitted(u.Path, c.sameDomain(u.Hostname())) {
			return
		}
		// Visit ignores already-seen and filtered URLs.
		_ = e.Request.Visit(link)
	})

	collector.OnResponse(func(r *colly.Response) {
		doc, err := extract.FromHTML(bytes.NewReader(r.Body), r.Request.URL.String(), c.opts.AllowedDomain)
		if err != nil {
			c.logger.Warn("failed to extract page", "url", r.Request.URL, "error", err)
			return
		}
		if doc == nil {
			c.logger.Debug("skipping page with insufficient content", "url", r.Request.URL)
			return
		}
		c.mu.Lock()
		c.byHash[doc.URLHash] = *doc
		c.mu.Unlock()
	})

	collector.OnError(func(r *colly.Response, err error) {
		url := r.Request.URL.String()
		c.mu.Lock()
		attempts := c.retries[url]
		c.retries[url] = attempts + 1
		c.mu.Unlock()
		if attempts+1 < MaxRetries {
			c.logger.Debug("retrying request", "url", url, "attempt", attempts+1, "error", err)
			_ = r.Request.Retry()
			return
		}
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		c.logger.Warn("dropping request after retries", "url", url, "error", err)
	})

	if err := collector.Visit(c.opts.SeedURL); err != nil {
		return nil, err
	}
	collector.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	docs := make([]document.RawDocument, 0, len(c.byHash))
	for _, doc := range c.byHash {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].URL < docs[j].URL })

	c.logger.Info("crawl complete",
		"documents", len(docs), "fetched", c.fetched, "dropped", c.dropped)
	return docs, nil
}

// sameDomain reports whether host is the crawl domain, with or without the
// www prefix.
func (c *Crawler) sameDomain(host string) bool {
	return host == c.opts.AllowedDomain || host == "www."+c.opts.AllowedDomain
}

// Admitted is the URL admission policy: deny patterns always win, allow-list
// prefixes are admitted outright, and any other URL is admitted only when it
// is same-domain. It gates link discovery; the collector's domain and URL
// filters back it for the seed and for redirects.
func Admitted(path string, sameDomain bool) bool {
	for _, pattern := range denyPatterns {
		if pattern.MatchString(path) {
			return false
		}
	}
	for _, prefix := range allowPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return sameDomain
}
