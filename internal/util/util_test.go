package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/glosshover/internal/model"
)

func TestRobotsChecker_Check(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: glosshover\nDisallow: /private\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("glosshover/0.1 (+https://example.com)", server.Client())

	tests := []struct {
		path    string
		allowed bool
	}{
		{"/docs/page", true},
		{"/private/page", false},
		{"/", true},
	}

	for _, tt := range tests {
		decision, err := checker.Check(context.Background(), server.URL+tt.path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if decision.Allowed != tt.allowed {
			t.Errorf("%s: expected allowed=%v, got %v", tt.path, tt.allowed, decision.Allowed)
		}
		if decision.CrawlDelay != 2*time.Second {
			t.Errorf("Expected crawl delay 2s, got %v", decision.CrawlDelay)
		}
	}

	if robotsHits.Load() != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", robotsHits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	decision, err := NewRobotsChecker("glosshover", server.Client()).Check(context.Background(), server.URL+"/x")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !decision.Allowed {
		t.Error("Expected missing robots.txt to allow")
	}
}

func TestRobotsChecker_NonHTTPAllowed(t *testing.T) {
	decision, err := NewRobotsChecker("glosshover", nil).Check(context.Background(), "file:///tmp/x.html")
	if err != nil || !decision.Allowed {
		t.Errorf("Expected non-HTTP URLs to be allowed, got %v (err=%v)", decision, err)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"glosshover/0.1 (+https://x)": "glosshover",
		"bot":                         "bot",
		"":                            "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc(model.HTTPConfig{
		HTTPProxy:  "http://plain-proxy:3128",
		HTTPSProxy: "http://tls-proxy:3128",
	})

	for scheme, want := range map[string]string{"http": "plain-proxy:3128", "https": "tls-proxy:3128"} {
		req := &http.Request{URL: &url.URL{Scheme: scheme, Host: "example.com"}}
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got.Host != want {
			t.Errorf("%s: expected proxy %s, got %s", scheme, want, got.Host)
		}
	}
}

func TestNewHTTPClient_RedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(model.HTTPConfig{Timeout: 5 * time.Second}, 3)
	_, err := client.Get(server.URL + "/")
	if err == nil {
		t.Fatal("Expected redirect loop to fail")
	}
}
