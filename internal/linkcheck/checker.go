// Package linkcheck verifies that glossary permalinks still resolve.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/glosshover/internal/model"
	"github.com/ppiankov/glosshover/internal/util"
)

const checkMaxRetries = 3

// checkSleepFunc waits between retries (injectable for tests)
var checkSleepFunc = sleepContext

// sleepContext waits for d or until ctx is done, whichever comes first
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LinkStatus is the outcome of checking one term's permalink
type LinkStatus struct {
	TermID      string `json:"term_id"`
	Term        string `json:"term"`
	URL         string `json:"url"`
	StatusCode  int    `json:"status_code,omitempty"`
	OK          bool   `json:"ok"`
	Dead        bool   `json:"dead"`              // 404/410 or unreachable
	Skipped     bool   `json:"skipped,omitempty"` // relative link without a base URL
	RedirectURL string `json:"redirect_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Checker checks permalinks concurrently
type Checker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	base       *url.URL
}

// NewChecker creates a checker using the HTTP settings
func NewChecker(cfg model.HTTPConfig, maxWorkers int) *Checker {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &Checker{
		httpClient: util.NewHTTPClient(cfg, 3),
		maxWorkers: maxWorkers,
		userAgent:  cfg.UserAgent,
	}
}

// WithBase resolves relative permalinks against base, e.g. https://example.com
func (c *Checker) WithBase(base string) (*Checker, error) {
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", base)
	}
	c.base = u
	return c, nil
}

// Check checks the permalink of every term that has one. Results keep term order.
func (c *Checker) Check(ctx context.Context, terms []model.Term) []LinkStatus {
	var linked []model.Term
	for _, t := range terms {
		if t.HasPermalink() {
			linked = append(linked, t)
		}
	}
	if len(linked) == 0 {
		return []LinkStatus{}
	}

	results := make([]LinkStatus, len(linked))
	var wg sync.WaitGroup

	// Create semaphore to limit concurrent requests
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, t := range linked {
		wg.Add(1)
		go func(idx int, term model.Term) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = LinkStatus{
					TermID: term.ID,
					Term:   term.Term,
					URL:    term.Permalink,
					Error:  "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, term)
		}(i, t)
	}

	wg.Wait()
	return results
}

// resolve returns the absolute URL to request, or "" when it cannot be checked
func (c *Checker) resolve(permalink string) string {
	u, err := url.Parse(strings.TrimSpace(permalink))
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	if c.base == nil {
		return ""
	}
	return c.base.ResolveReference(u).String()
}

func (c *Checker) checkOne(ctx context.Context, term model.Term) LinkStatus {
	status := LinkStatus{TermID: term.ID, Term: term.Term, URL: term.Permalink}

	target := c.resolve(term.Permalink)
	if target == "" {
		status.Skipped = true
		return status
	}
	status.URL = target

	resp, err := c.do(ctx, http.MethodHead, target)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		_ = resp.Body.Close()
		resp, err = c.do(ctx, http.MethodGet, target)
	}
	if err != nil {
		status.Error = fmt.Sprintf("request failed: %v", err)
		status.Dead = true
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		status.OK = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		status.Dead = true
	}

	if final := resp.Request.URL.String(); final != target {
		status.RedirectURL = final
	}
	return status
}

func (c *Checker) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.httpClient.Do(req)
}

// checkWithRetry retries transient failures with exponential backoff
func (c *Checker) checkWithRetry(ctx context.Context, term model.Term) LinkStatus {
	var status LinkStatus
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		status = c.checkOne(ctx, term)
		if !isRetryable(status) || ctx.Err() != nil {
			return status
		}
		if attempt < checkMaxRetries-1 {
			if err := checkSleepFunc(ctx, time.Duration(1<<uint(attempt))*time.Second); err != nil {
				return status
			}
		}
	}
	return status
}

// isRetryable reports results that indicate a transient failure
func isRetryable(status LinkStatus) bool {
	if status.StatusCode >= 500 && status.StatusCode < 600 {
		return true
	}
	if status.StatusCode == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(status.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
