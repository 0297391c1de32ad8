// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// Defaults for Config fields left zero.
const (
	DefaultMinDelay  = time.Second
	DefaultRobotsTTL = time.Hour
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "TrendscopeBot/1.0"
)

const maxRobotsSize = 512 << 10

// Config holds politeness settings.
type Config struct {
	UserAgent string
	// MinDelay is the minimum spacing between requests to one host,
	// robots.txt fetches included.
	MinDelay  time.Duration
	RobotsTTL time.Duration
	Timeout   time.Duration
}

type hostState struct {
	limiter *rate.Limiter

	mu        sync.Mutex
	robots    *robotstxt.RobotsData
	fetchedAt time.Time
}

// Scraper reads trend items from public web pages when an official API is
// unavailable. It honours robots.txt and spaces requests to each host.
type Scraper struct {
	cfg      Config
	client   *http.Client
	renderer Renderer
	now      func() time.Time
	logger   zerolog.Logger

	mu    sync.Mutex
	hosts map[string]*hostState
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithRenderer replaces the default HTTP renderer.
func WithRenderer(r Renderer) Option {
	return func(s *Scraper) { s.renderer = r }
}

// WithHTTPClient sets the client used for robots.txt and the default renderer.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// New creates a Scraper.
func New(cfg Config, opts ...Option) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = DefaultMinDelay
	}
	if cfg.RobotsTTL <= 0 {
		cfg.RobotsTTL = DefaultRobotsTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	s := &Scraper{
		cfg:    cfg,
		now:    time.Now,
		logger: logging.WithComponent("scraper"),
		hosts:  make(map[string]*hostState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: cfg.Timeout}
	}
	if s.renderer == nil {
		s.renderer = &HTTPRenderer{Client: s.client, UserAgent: cfg.UserAgent}
	}
	return s
}

func (s *Scraper) host(host string) *hostState {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.hosts[host]
	if !ok {
		hs = &hostState{limiter: rate.NewLimiter(rate.Every(s.cfg.MinDelay), 1)}
		s.hosts[host] = hs
	}
	return hs
}

// Scrape fetches t.URL and extracts items. A path disallowed by robots.txt
// fails with scraping_forbidden before the page is requested.
func (s *Scraper) Scrape(ctx context.Context, t Target) (*models.RawTrendSnapshot, error) {
	snap, err := s.scrape(ctx, t)
	outcome := "success"
	if err != nil {
		outcome = string(models.CodeOf(err))
		var se *models.SourceError
		if errors.As(err, &se) && se.Platform == "" {
			se.Platform = t.Platform
		}
	}
	metrics.ScrapeRequests.WithLabelValues(string(t.Platform), outcome).Inc()
	return snap, err
}

func (s *Scraper) scrape(ctx context.Context, t Target) (*models.RawTrendSnapshot, error) {
	u, err := url.Parse(t.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, models.NewSourceError(t.Platform, models.ErrCodeSourceError, "invalid scrape URL %q", t.URL)
	}
	if strings.TrimSpace(t.Item) == "" {
		return nil, models.NewSourceError(t.Platform, models.ErrCodeSourceError, "scrape target has no item selector")
	}

	hs := s.host(u.Host)
	robots, err := s.robots(ctx, hs, u)
	if err != nil {
		return nil, err
	}
	if !robots.TestAgent(robotsPath(u), robotsAgent(s.cfg.UserAgent)) {
		s.logger.Info().Str("platform", string(t.Platform)).Str("url", t.URL).Msg("robots.txt disallows scrape target")
		return nil, models.NewSourceError(t.Platform, models.ErrCodeScrapingForbidden, "robots.txt disallows %s", u.Path)
	}

	if err := hs.limiter.Wait(ctx); err != nil {
		return nil, ctxErr(ctx, err)
	}
	body, err := s.renderer.Render(ctx, t.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &models.SourceError{Code: models.ErrCodeSourceError, Platform: t.Platform, Message: "parse page failed", Err: err}
	}
	return &models.RawTrendSnapshot{
		Platform:   t.Platform,
		Origin:     models.OriginScraper,
		CapturedAt: s.now().UTC(),
		Items:      extract(doc, t, u),
	}, nil
}

// robots returns the cached rules for u's host, refetching after RobotsTTL.
func (s *Scraper) robots(ctx context.Context, hs *hostState, u *url.URL) (*robotstxt.RobotsData, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.robots != nil && s.now().Sub(hs.fetchedAt) < s.cfg.RobotsTTL {
		return hs.robots, nil
	}

	if err := hs.limiter.Wait(ctx); err != nil {
		return nil, ctxErr(ctx, err)
	}
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create robots request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &models.SourceError{Code: models.ErrCodeTransientUpstream, Message: "robots.txt request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))

	// 4xx allows everything and 5xx disallows everything.
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, &models.SourceError{Code: models.ErrCodeSourceError, Message: "unparseable robots.txt", Err: err}
	}
	hs.robots = data
	hs.fetchedAt = s.now()
	return data, nil
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// rate.Limiter.Wait fails early when the wait would exceed the deadline.
	return context.DeadlineExceeded
}

func robotsPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// robotsAgent is the product token robots.txt groups are matched against.
func robotsAgent(userAgent string) string {
	agent := userAgent
	if i := strings.IndexAny(agent, "/ "); i > 0 {
		agent = agent[:i]
	}
	return agent
}

// extract reads one RawItem per element matching t.Item.
func extract(doc *goquery.Document, t Target, base *url.URL) []models.RawItem {
	items := make([]models.RawItem, 0)
	doc.Find(t.Item).Each(func(_ int, sel *goquery.Selection) {
		title := field(sel, t.Title)
		if t.Title == "" {
			title = strings.Join(strings.Fields(sel.Text()), " ")
		}
		link := resolve(base, field(sel, t.Link))
		id := field(sel, t.ID)
		if id == "" {
			id = link
		}
		if id == "" && title == "" {
			return
		}
		item := models.RawItem{
			Kind:  t.Kind,
			ID:    id,
			Title: title,
			URL:   link,
		}
		count := parseCount(field(sel, t.Volume))
		switch t.Kind {
		case models.DataTypeHashtags, models.DataTypeKeywords:
			item.ID = firstNonEmpty(field(sel, t.ID), title)
			item.Volume = count
		default:
			item.Views = count
		}
		items = append(items, item)
	})
	return items
}

// field evaluates a "css@attr" selector relative to sel.
func field(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	css, attr := parseSelector(selector)
	target := sel
	if css != "" {
		target = sel.Find(css).First()
	}
	if target.Length() == 0 {
		return ""
	}
	if attr != "" {
		v, _ := target.Attr(attr)
		return strings.TrimSpace(v)
	}
	return strings.Join(strings.Fields(target.Text()), " ")
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
