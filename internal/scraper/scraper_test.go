// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package scraper

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/trendscope/internal/models"
	"github.com/tomtom215/trendscope/internal/testinfra"
)

const trendingPage = `<!doctype html>
<html><body>
<ul class="trends">
  <li class="trend"><a class="name" href="/tag/golang">#golang</a><span class="count">12.5K posts</span></li>
  <li class="trend"><a class="name" href="/tag/rust">#rust</a><span class="count">9,800 posts</span></li>
  <li class="trend"><a class="name" href="https://other.example/tag/zig">#zig</a><span class="count">3M posts</span></li>
</ul>
</body></html>`

const robotsDisallowPrivate = "User-agent: *\nDisallow: /private\n"

func hashtagTarget(baseURL, path string) Target {
	return Target{
		Platform: models.PlatformInstagram,
		URL:      baseURL + path,
		Item:     "li.trend",
		Title:    "a.name",
		Link:     "a.name@href",
		Volume:   ".count",
		Kind:     models.DataTypeHashtags,
	}
}

func newTestScraper(minDelay time.Duration) *Scraper {
	return New(Config{UserAgent: "TrendscopeBot/1.0 (+test)", MinDelay: minDelay, RobotsTTL: time.Hour, Timeout: 5 * time.Second})
}

func TestScrape_ExtractsItems(t *testing.T) {
	up := testinfra.NewMockUpstream(t)
	up.Script("/robots.txt", testinfra.Response{Status: http.StatusOK, Body: robotsDisallowPrivate})
	up.Script("/explore", testinfra.HTML(trendingPage))

	s := newTestScraper(time.Millisecond)
	snap, err := s.Scrape(context.Background(), hashtagTarget(up.URL(), "/explore"))
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if snap.Origin != models.OriginScraper || snap.Platform != models.PlatformInstagram {
		t.Errorf("unexpected snapshot header %+v", snap)
	}
	if len(snap.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(snap.Items))
	}

	first := snap.Items[0]
	if first.ID != "#golang" || first.Volume != 12500 || first.Kind != models.DataTypeHashtags {
		t.Errorf("unexpected first item %+v", first)
	}
	if first.URL != up.URL()+"/tag/golang" {
		t.Errorf("relative link not resolved: %s", first.URL)
	}
	if snap.Items[1].Volume != 9800 || snap.Items[2].Volume != 3000000 {
		t.Errorf("unexpected volumes %d, %d", snap.Items[1].Volume, snap.Items[2].Volume)
	}
	if got := up.Captures()[1].Headers.Get("User-Agent"); got != "TrendscopeBot/1.0 (+test)" {
		t.Errorf("page request User-Agent = %q", got)
	}
}

func TestScrape_RobotsDisallowIssuesNoRequest(t *testing.T) {
	up := testinfra.NewMockUpstream(t)
	up.Script("/robots.txt", testinfra.Response{Status: http.StatusOK, Body: robotsDisallowPrivate})
	up.Script("/private/trends", testinfra.HTML(trendingPage))

	s := newTestScraper(time.Millisecond)
	_, err := s.Scrape(context.Background(), hashtagTarget(up.URL(), "/private/trends"))
	if models.CodeOf(err) != models.ErrCodeScrapingForbidden {
		t.Fatalf("expected scraping_forbidden, got %v", err)
	}
	if n := up.Count("/private/trends"); n != 0 {
		t.Errorf("disallowed page was requested %d times", n)
	}
}

func TestScrape_RobotsStatusHandling(t *testing.T) {
	tests := []struct {
		name        string
		robotsCode  int
		wantAllowed bool
	}{
		{"missing robots allows all", http.StatusNotFound, true},
		{"server error disallows all", http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := testinfra.NewMockUpstream(t)
			up.Script("/robots.txt", testinfra.Status(tt.robotsCode))
			up.Script("/explore", testinfra.HTML(trendingPage))

			_, err := newTestScraper(time.Millisecond).Scrape(context.Background(), hashtagTarget(up.URL(), "/explore"))
			if tt.wantAllowed && err != nil {
				t.Errorf("expected scrape to proceed, got %v", err)
			}
			if !tt.wantAllowed && models.CodeOf(err) != models.ErrCodeScrapingForbidden {
				t.Errorf("expected scraping_forbidden, got %v", err)
			}
		})
	}
}

func TestScrape_PerHostDelayAndRobotsCache(t *testing.T) {
	up := testinfra.NewMockUpstream(t)
	up.Script("/robots.txt", testinfra.Response{Status: http.StatusOK, Body: "User-agent: *\nAllow: /\n"})
	up.Script("/explore", testinfra.HTML(trendingPage))

	const delay = 150 * time.Millisecond
	s := newTestScraper(delay)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := s.Scrape(ctx, hashtagTarget(up.URL(), "/explore")); err != nil {
			t.Fatalf("scrape %d: %v", i, err)
		}
	}

	if n := up.Count("/robots.txt"); n != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", n)
	}
	caps := up.Captures()
	if len(caps) != 3 {
		t.Fatalf("expected 3 requests (robots + 2 pages), got %d", len(caps))
	}
	// Allow for timer granularity on the receiving side.
	const tolerance = 10 * time.Millisecond
	for i := 1; i < len(caps); i++ {
		if gap := caps[i].At.Sub(caps[i-1].At); gap < delay-tolerance {
			t.Errorf("request %d followed the previous one after %v, want >= %v", i, gap, delay)
		}
	}
}

func TestScrape_PageErrors(t *testing.T) {
	tests := []struct {
		status int
		want   models.ErrorCode
	}{
		{http.StatusForbidden, models.ErrCodeScrapingForbidden},
		{http.StatusBadGateway, models.ErrCodeTransientUpstream},
		{http.StatusGone, models.ErrCodeSourceError},
	}
	for _, tt := range tests {
		up := testinfra.NewMockUpstream(t)
		up.Script("/robots.txt", testinfra.Status(http.StatusNotFound))
		up.Script("/explore", testinfra.Status(tt.status))

		_, err := newTestScraper(time.Millisecond).Scrape(context.Background(), hashtagTarget(up.URL(), "/explore"))
		if models.CodeOf(err) != tt.want {
			t.Errorf("HTTP %d: got %v, want %s", tt.status, err, tt.want)
		}
	}
}

func TestScrape_InvalidTarget(t *testing.T) {
	t.Parallel()

	s := newTestScraper(time.Millisecond)
	for _, target := range []Target{
		{Platform: models.PlatformTikTok, URL: "ftp://example.com/x", Item: "li"},
		{Platform: models.PlatformTikTok, URL: "https://example.com/x"},
	} {
		if _, err := s.Scrape(context.Background(), target); models.CodeOf(err) != models.ErrCodeSourceError {
			t.Errorf("target %+v: expected source_error, got %v", target, err)
		}
	}
}

func TestParseSelector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, css, attr string
	}{
		{"a.name", "a.name", ""},
		{"a.name@href", "a.name", "href"},
		{"@data-id", "", "data-id"},
		{"a[href^='mailto:x@y']", "a[href^='mailto:x@y']", ""},
	}
	for _, tt := range tests {
		css, attr := parseSelector(tt.in)
		if css != tt.css || attr != tt.attr {
			t.Errorf("parseSelector(%q) = (%q, %q), want (%q, %q)", tt.in, css, attr, tt.css, tt.attr)
		}
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := map[string]int64{
		"1,234":       1234,
		"12.5K posts": 12500,
		"3M":          3000000,
		"1.2b views":  1200000000,
		"no digits":   0,
		"42":          42,
		"1.234":       1234,
		"1.234.567":   1234567,
		"12.5":        13,
		"0.4 posts":   0,
	}
	for in, want := range tests {
		if got := parseCount(in); got != want {
			t.Errorf("parseCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestRobotsAgent(t *testing.T) {
	t.Parallel()

	if got := robotsAgent("TrendscopeBot/1.0 (+https://example.com)"); got != "TrendscopeBot" {
		t.Errorf("robotsAgent = %q", got)
	}
}
