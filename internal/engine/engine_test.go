// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/trendscope/internal/cache"
	"github.com/tomtom215/trendscope/internal/models"
)

// fakeSource returns canned data and counts calls.
type fakeSource struct {
	platform models.PlatformID
	delay    time.Duration
	fail     map[models.DataType]error
	hashtags []models.HashtagEntry

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Platform() models.PlatformID { return f.platform }

func (f *fakeSource) Fetch(ctx context.Context, dataTypes []models.DataType, _ models.TimeRange) (models.TrendData, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.Failed(f.platform, ctx.Err(), time.Now()), ctx.Err()
		}
	}
	for _, dt := range dataTypes {
		if err := f.fail[dt]; err != nil {
			return models.Failed(f.platform, err, time.Now()), err
		}
	}

	td := models.TrendData{
		Platform:     f.platform,
		Hashtags:     []models.HashtagEntry{},
		Keywords:     []models.KeywordEntry{},
		ViralContent: []models.ViralEntry{},
		FetchedAt:    time.Now().UTC(),
		Status:       models.StatusOK,
		Origin:       models.OriginAPI,
	}
	for _, dt := range dataTypes {
		switch dt {
		case models.DataTypeHashtags:
			td.Hashtags = append(td.Hashtags, f.hashtags...)
		case models.DataTypeKeywords:
			td.Keywords = append(td.Keywords, models.KeywordEntry{Keyword: "launch", Volume: 3, Score: 40})
		case models.DataTypeViralContent:
			td.ViralContent = append(td.ViralContent, models.ViralEntry{ID: string(f.platform) + "-1", Views: 100})
		}
	}
	return td, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func defaultHashtags() []models.HashtagEntry {
	return []models.HashtagEntry{{Tag: "beta", Volume: 10}, {Tag: "alpha", Volume: 10}, {Tag: "gamma", Volume: 99}}
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []models.TrendData
}

func (r *recordingPublisher) Publish(_ context.Context, td models.TrendData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, td)
	return nil
}

func (r *recordingPublisher) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func newTestCache(now func() time.Time) *cache.TrendCache {
	return newTestCacheTTL(now, func(models.DataType) time.Duration { return 10 * time.Minute })
}

func newTestCacheTTL(now func() time.Time, ttl cache.TTLFunc) *cache.TrendCache {
	opts := []cache.Option{}
	if now != nil {
		opts = append(opts, cache.WithClock(now))
	}
	return cache.New(cache.NewMemoryStore(4), ttl, opts...)
}

// steppedClock is a manually advanced clock shared by cache and engine.
type steppedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppedClock() *steppedClock {
	return &steppedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// shortKeywordTTL expires keywords after a minute and everything else after ten.
func shortKeywordTTL(dt models.DataType) time.Duration {
	if dt == models.DataTypeKeywords {
		return time.Minute
	}
	return 10 * time.Minute
}

func mustQuery(t *testing.T, platforms []models.PlatformID, types []models.DataType) models.TrendQuery {
	t.Helper()
	q, err := models.NewTrendQuery(platforms, types, models.TimeRangeDay)
	if err != nil {
		t.Fatalf("NewTrendQuery: %v", err)
	}
	return q
}

func TestFetchTrends_OneResultPerPlatformInOrder(t *testing.T) {
	yt := &fakeSource{platform: models.PlatformYouTube, hashtags: defaultHashtags()}
	rd := &fakeSource{platform: models.PlatformReddit, fail: map[models.DataType]error{
		models.DataTypeHashtags: models.NewSourceError(models.PlatformReddit, models.ErrCodeSourceError, "HTTP 400"),
	}}
	e := New(newTestCache(nil), []Source{yt, rd})

	platforms := []models.PlatformID{models.PlatformReddit, models.PlatformTikTok, models.PlatformYouTube}
	results := e.FetchTrends(context.Background(), mustQuery(t, platforms, []models.DataType{models.DataTypeHashtags}))

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, p := range platforms {
		if results[i].Platform != p {
			t.Errorf("result %d platform = %s, want %s", i, results[i].Platform, p)
		}
	}
	if results[0].Status != models.StatusFailed || results[0].Error == nil || results[0].Error.Code != models.ErrCodeSourceError {
		t.Errorf("reddit: unexpected result %+v", results[0])
	}
	if results[1].Status != models.StatusFailed || results[1].Error == nil {
		t.Errorf("unconfigured tiktok should fail with an error, got %+v", results[1])
	}
	if results[2].Status != models.StatusOK || results[2].Error != nil {
		t.Errorf("youtube: unexpected result %+v", results[2])
	}
}

// TestFetchTrends_PartialFailureProperty checks over random failure sets
// that every platform gets exactly one result carrying data or an error.
// Keywords expire first; platforms whose refetch fails keep their cached
// hashtags and viral content and come back partial.
func TestFetchTrends_PartialFailureProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 25; round++ {
		clock := newSteppedClock()
		var sources []*fakeSource
		var asSources []Source
		for _, p := range models.AllPlatforms {
			fs := &fakeSource{platform: p, hashtags: defaultHashtags()}
			sources = append(sources, fs)
			asSources = append(asSources, fs)
		}
		e := New(newTestCacheTTL(clock.Now, shortKeywordTTL), asSources, WithClock(clock.Now))
		q := mustQuery(t, models.AllPlatforms, nil)

		for i, td := range e.FetchTrends(context.Background(), q) {
			if td.Status != models.StatusOK {
				t.Fatalf("round %d: warm-up result %d is %s", round, i, td.Status)
			}
		}

		clock.Advance(2 * time.Minute)
		failing := map[models.PlatformID]bool{}
		for _, fs := range sources {
			if rng.Intn(2) == 0 {
				failing[fs.platform] = true
				fs.fail = map[models.DataType]error{models.DataTypeKeywords: fmt.Errorf("round %d: boom", round)}
			}
		}

		results := e.FetchTrends(context.Background(), q)
		if len(results) != len(models.AllPlatforms) {
			t.Fatalf("round %d: %d results, want %d", round, len(results), len(models.AllPlatforms))
		}
		for i, td := range results {
			p := models.AllPlatforms[i]
			if td.Platform != p {
				t.Fatalf("round %d: result %d is %s, want %s", round, i, td.Platform, p)
			}
			if failing[p] {
				if td.Status != models.StatusPartial || td.Error == nil {
					t.Errorf("round %d: %s expected partial with error, got %s", round, p, td.Status)
				}
				if len(td.Hashtags) == 0 || len(td.ViralContent) == 0 {
					t.Errorf("round %d: %s lost its cached data types", round, p)
				}
			} else if td.Status != models.StatusOK || td.Error != nil {
				t.Errorf("round %d: %s expected ok, got %s", round, p, td.Status)
			}
		}
	}
}

// TestFetchTrends_TimeoutIsPerDataType: hashtags are cached, the keyword
// refetch outlives the query timeout, so the platform comes back partial
// rather than failed.
func TestFetchTrends_TimeoutIsPerDataType(t *testing.T) {
	clock := newSteppedClock()
	yt := &fakeSource{platform: models.PlatformYouTube, hashtags: defaultHashtags()}
	e := New(newTestCacheTTL(clock.Now, shortKeywordTTL), []Source{yt},
		WithQueryTimeout(100*time.Millisecond), WithClock(clock.Now))
	q := mustQuery(t, []models.PlatformID{models.PlatformYouTube}, []models.DataType{models.DataTypeHashtags, models.DataTypeKeywords})

	if res := e.FetchTrends(context.Background(), q); res[0].Status != models.StatusOK {
		t.Fatalf("warm-up status = %s", res[0].Status)
	}
	clock.Advance(2 * time.Minute)
	yt.delay = 5 * time.Second

	res := e.FetchTrends(context.Background(), q)[0]
	if res.Status != models.StatusPartial {
		t.Fatalf("status = %s, want partial", res.Status)
	}
	if res.Error == nil || res.Error.Code != models.ErrCodeTimeout {
		t.Errorf("expected a timeout annotation, got %+v", res.Error)
	}
	if len(res.Hashtags) != 3 || len(res.Keywords) != 0 {
		t.Errorf("expected cached hashtags only, got %d hashtags and %d keywords", len(res.Hashtags), len(res.Keywords))
	}
}

// TestFetchTrends_SlowSourceTimesOut: youtube answers, instagram does not
// answer within the query timeout.
func TestFetchTrends_SlowSourceTimesOut(t *testing.T) {
	yt := &fakeSource{platform: models.PlatformYouTube, hashtags: defaultHashtags()}
	ig := &fakeSource{platform: models.PlatformInstagram, delay: 5 * time.Second}
	e := New(newTestCache(nil), []Source{yt, ig}, WithQueryTimeout(100*time.Millisecond))

	start := time.Now()
	results := e.FetchTrends(context.Background(),
		mustQuery(t, []models.PlatformID{models.PlatformYouTube, models.PlatformInstagram}, []models.DataType{models.DataTypeHashtags}))
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("FetchTrends took %v despite the query timeout", elapsed)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	youtube, instagram := results[0], results[1]
	if youtube.Status != models.StatusOK {
		t.Fatalf("youtube status = %s", youtube.Status)
	}
	var tags []string
	for _, h := range youtube.Hashtags {
		tags = append(tags, h.Tag)
	}
	if fmt.Sprint(tags) != "[gamma alpha beta]" {
		t.Errorf("youtube hashtags not ranked: %v", tags)
	}
	if instagram.Status != models.StatusFailed || instagram.Error == nil || instagram.Error.Code != models.ErrCodeTimeout {
		t.Errorf("instagram: expected failed/timeout, got %+v", instagram)
	}
}

// TestFetchTrends_CachedSecondQuery: the same query twice within the TTL
// reaches the source once.
func TestFetchTrends_CachedSecondQuery(t *testing.T) {
	yt := &fakeSource{platform: models.PlatformYouTube, hashtags: defaultHashtags()}
	pub := &recordingPublisher{}
	e := New(newTestCache(nil), []Source{yt}, WithPublisher(pub))
	q := mustQuery(t, []models.PlatformID{models.PlatformYouTube}, []models.DataType{models.DataTypeHashtags, models.DataTypeKeywords})

	first := e.FetchTrends(context.Background(), q)
	second := e.FetchTrends(context.Background(), q)

	if yt.Calls() != 1 {
		t.Errorf("expected one source call for all data types, got %d", yt.Calls())
	}
	if first[0].Status != models.StatusOK || second[0].Status != models.StatusOK {
		t.Fatalf("unexpected statuses %s, %s", first[0].Status, second[0].Status)
	}
	if len(second[0].Hashtags) != 3 || len(second[0].Keywords) != 1 {
		t.Errorf("cached result incomplete: %+v", second[0])
	}
	if pub.Count() != 1 {
		t.Errorf("expected one publish for the fresh result, got %d", pub.Count())
	}
}

func TestFetchTrends_FailuresNotCached(t *testing.T) {
	rd := &fakeSource{platform: models.PlatformReddit, fail: map[models.DataType]error{
		models.DataTypeHashtags: models.NewSourceError(models.PlatformReddit, models.ErrCodeTransientUpstream, "HTTP 503"),
	}}
	pub := &recordingPublisher{}
	e := New(newTestCache(nil), []Source{rd}, WithPublisher(pub))
	q := mustQuery(t, []models.PlatformID{models.PlatformReddit}, []models.DataType{models.DataTypeHashtags})

	e.FetchTrends(context.Background(), q)
	e.FetchTrends(context.Background(), q)
	if rd.Calls() != 2 {
		t.Errorf("failed results must not be cached: %d calls", rd.Calls())
	}
	if pub.Count() != 0 {
		t.Errorf("failed results must not be published, got %d", pub.Count())
	}
}

func TestFetchTrends_GrowthAndPrediction(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	yt := &fakeSource{platform: models.PlatformYouTube, hashtags: []models.HashtagEntry{{Tag: "eclipse", Volume: 100}}}
	e := New(newTestCache(clock), []Source{yt})
	q := mustQuery(t, []models.PlatformID{models.PlatformYouTube}, []models.DataType{models.DataTypeHashtags})

	e.FetchTrends(context.Background(), q)
	advance(11 * time.Minute)
	yt.hashtags = []models.HashtagEntry{{Tag: "eclipse", Volume: 250}}
	res := e.FetchTrends(context.Background(), q)

	if yt.Calls() != 2 {
		t.Fatalf("expected a refetch after expiry, got %d calls", yt.Calls())
	}
	if g := res[0].Hashtags[0].Growth; g != 1.5 {
		t.Errorf("growth = %v, want 1.5", g)
	}

	// Every data type is recorded on a fetch, so the keyword shows up too.
	preds := e.Predict(context.Background(), nil, 5)
	if fmt.Sprint(preds) != "[#eclipse launch]" {
		t.Errorf("Predict = %v", preds)
	}
	if got := e.Predict(context.Background(), []models.PlatformID{models.PlatformReddit}, 5); len(got) != 0 {
		t.Errorf("expected no predictions for reddit, got %v", got)
	}
}

func TestFetchTrends_CallerCancellation(t *testing.T) {
	ig := &fakeSource{platform: models.PlatformInstagram, delay: time.Second}
	e := New(newTestCache(nil), []Source{ig})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	results := e.FetchTrends(ctx, mustQuery(t, []models.PlatformID{models.PlatformInstagram}, nil))

	if len(results) != 1 || results[0].Status != models.StatusFailed {
		t.Fatalf("expected one failed result, got %+v", results)
	}
	if results[0].Error.Code != models.ErrCodeTimeout {
		t.Errorf("expected timeout code, got %s", results[0].Error.Code)
	}
}

// TestFetchTrends_CancelledLeaderDoesNotFailFollower: the query that starts
// an upstream fetch is cancelled; a concurrent query for the same platform
// still gets the result of that one fetch.
func TestFetchTrends_CancelledLeaderDoesNotFailFollower(t *testing.T) {
	yt := &fakeSource{platform: models.PlatformYouTube, hashtags: defaultHashtags(), delay: 200 * time.Millisecond}
	e := New(newTestCache(nil), []Source{yt})
	q := mustQuery(t, []models.PlatformID{models.PlatformYouTube}, nil)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan models.TrendData, 1)
	go func() { leader <- e.FetchTrends(leaderCtx, q)[0] }()
	time.Sleep(20 * time.Millisecond)
	time.AfterFunc(30*time.Millisecond, cancel)

	follower := e.FetchTrends(context.Background(), q)[0]
	if follower.Status != models.StatusOK || follower.Error != nil {
		t.Fatalf("follower: status=%s error=%+v", follower.Status, follower.Error)
	}
	if len(follower.Hashtags) != 3 {
		t.Errorf("follower hashtags = %+v", follower.Hashtags)
	}
	if got := <-leader; got.Status != models.StatusFailed {
		t.Errorf("cancelled leader status = %s, want failed", got.Status)
	}
	if yt.Calls() != 1 {
		t.Errorf("expected one shared upstream call, got %d", yt.Calls())
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	types := []models.DataType{models.DataTypeHashtags, models.DataTypeKeywords}
	ok := models.TrendData{Status: models.StatusOK, Origin: models.OriginScraper, Hashtags: []models.HashtagEntry{{Tag: "a"}}}
	bad := models.Failed(models.PlatformTwitter, errors.New("nope"), time.Now())

	tests := []struct {
		name  string
		parts []models.TrendData
		want  models.Status
	}{
		{"all ok", []models.TrendData{ok, ok}, models.StatusOK},
		{"mixed", []models.TrendData{ok, bad}, models.StatusPartial},
		{"all failed", []models.TrendData{bad, bad}, models.StatusFailed},
	}
	for _, tt := range tests {
		got := merge(models.PlatformTwitter, types, tt.parts)
		if got.Status != tt.want {
			t.Errorf("%s: status = %s, want %s", tt.name, got.Status, tt.want)
		}
		if tt.want != models.StatusOK && got.Error == nil {
			t.Errorf("%s: expected an error annotation", tt.name)
		}
		if got.Hashtags == nil || got.Keywords == nil || got.ViralContent == nil {
			t.Errorf("%s: nil entry slice", tt.name)
		}
	}
	if got := merge(models.PlatformTwitter, types, []models.TrendData{ok, bad}); got.Origin != models.OriginScraper {
		t.Errorf("origin = %q, want scraper", got.Origin)
	}
}
