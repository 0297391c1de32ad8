// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trendscope/internal/engine"
	"github.com/tomtom215/trendscope/internal/models"
	"github.com/tomtom215/trendscope/internal/source"
)

var _ TrendEngine = (*engine.Engine)(nil)

type fakeEngine struct {
	mu        sync.Mutex
	platforms []models.PlatformID
	queries   []models.TrendQuery
	predicted []models.PlatformID
	limit     int
}

func (f *fakeEngine) FetchTrends(_ context.Context, q models.TrendQuery) []models.TrendData {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	out := make([]models.TrendData, 0, len(q.Platforms()))
	for _, p := range q.Platforms() {
		if p == models.PlatformTwitter {
			err := models.NewSourceError(p, models.ErrCodeExpiredCredentials, "token revoked")
			out = append(out, models.Failed(p, err, time.Now()))
			continue
		}
		out = append(out, models.TrendData{
			Platform: p,
			Status:   models.StatusOK,
			Origin:   models.OriginAPI,
			Hashtags: []models.HashtagEntry{{Tag: "launch", Volume: 10}},
		})
	}
	return out
}

func (f *fakeEngine) Predict(_ context.Context, platforms []models.PlatformID, limit int) []string {
	f.predicted, f.limit = platforms, limit
	return []string{"#launch"}
}

func (f *fakeEngine) Platforms() []models.PlatformID { return f.platforms }

func (f *fakeEngine) Sources() []source.Status {
	out := make([]source.Status, len(f.platforms))
	for i, p := range f.platforms {
		out[i] = source.Status{Platform: p, CircuitState: source.StateClosed}
	}
	return out
}

func (f *fakeEngine) Source(p models.PlatformID) (source.Status, error) {
	for _, q := range f.platforms {
		if q == p {
			return source.Status{Platform: p, CircuitState: source.StateOpen}, nil
		}
	}
	return source.Status{}, fmt.Errorf("platform %q is not enabled", p)
}

func (f *fakeEngine) HistoryLen() int { return 3 }
func (f *fakeEngine) Ready() bool     { return len(f.platforms) > 0 }

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T, eng *fakeEngine) http.Handler {
	t.Helper()
	return NewRouter(NewHandler(eng, nil, nil), nil).SetupChi()
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestTrends(t *testing.T) {
	eng := &fakeEngine{platforms: []models.PlatformID{models.PlatformYouTube, models.PlatformTwitter}}
	h := newTestServer(t, eng)

	rec, env := get(t, h, "/api/v1/trends?platforms=twitter,YouTube&types=hashtags&range=7d")
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var results []models.TrendData
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(results) != 2 || results[0].Platform != models.PlatformTwitter || results[1].Platform != models.PlatformYouTube {
		t.Fatalf("results not in query order: %+v", results)
	}
	if results[0].Status != models.StatusFailed || results[0].Error == nil || !results[0].Error.ReauthRequired {
		t.Errorf("expected failed twitter result with reauth flag, got %+v", results[0])
	}

	q := eng.queries[0]
	if q.TimeRange() != models.TimeRangeWeek || !q.Has(models.DataTypeHashtags) || q.Has(models.DataTypeKeywords) {
		t.Errorf("unexpected query %s", q)
	}
}

func TestTrends_DefaultsToEnabledPlatforms(t *testing.T) {
	eng := &fakeEngine{platforms: []models.PlatformID{models.PlatformReddit, models.PlatformTikTok}}
	h := newTestServer(t, eng)

	rec, _ := get(t, h, "/api/v1/trends")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	q := eng.queries[0]
	if got := q.Platforms(); len(got) != 2 || got[0] != models.PlatformReddit {
		t.Errorf("unexpected platforms %v", got)
	}
	if q.TimeRange() != models.TimeRangeDay || len(q.DataTypes()) != 3 {
		t.Errorf("unexpected defaults %s", q)
	}
}

func TestTrends_Validation(t *testing.T) {
	eng := &fakeEngine{platforms: []models.PlatformID{models.PlatformYouTube}}
	h := newTestServer(t, eng)

	tests := []struct {
		name, target, want string
	}{
		{"unknown platform", "/api/v1/trends?platforms=myspace", `unknown platform "myspace"`},
		{"unknown type", "/api/v1/trends?platforms=youtube&types=memes", `unknown data type "memes"`},
		{"bad range", "/api/v1/trends?platforms=youtube&range=90d", `invalid time range "90d"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := get(t, h, tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env.Error == nil || env.Error.Code != ErrCodeValidation || !strings.Contains(env.Error.Message, tt.want) {
				t.Errorf("unexpected error %+v", env.Error)
			}
		})
	}
	if len(eng.queries) != 0 {
		t.Errorf("invalid requests reached the engine %d times", len(eng.queries))
	}
}

func TestTrends_NoSourcesConfigured(t *testing.T) {
	h := newTestServer(t, &fakeEngine{})

	rec, env := get(t, h, "/api/v1/trends")
	if rec.Code != http.StatusBadRequest || env.Error == nil {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPredictions(t *testing.T) {
	eng := &fakeEngine{platforms: []models.PlatformID{models.PlatformTikTok}}
	h := newTestServer(t, eng)

	rec, env := get(t, h, "/api/v1/trends/predictions?platforms=tiktok&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.PredictionResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Identifiers) != 1 || resp.Identifiers[0] != "#launch" || resp.HistorySize != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
	if eng.limit != 5 || len(eng.predicted) != 1 {
		t.Errorf("engine called with %v, %d", eng.predicted, eng.limit)
	}

	for _, target := range []string{
		"/api/v1/trends/predictions?limit=0",
		"/api/v1/trends/predictions?limit=abc",
		"/api/v1/trends/predictions?platforms=friendster",
	} {
		if rec, _ := get(t, h, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestSources(t *testing.T) {
	eng := &fakeEngine{platforms: []models.PlatformID{models.PlatformYouTube, models.PlatformReddit}}
	h := newTestServer(t, eng)

	rec, env := get(t, h, "/api/v1/sources")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var statuses []source.Status
	if err := json.Unmarshal(env.Data, &statuses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(statuses) != 2 || statuses[1].Platform != models.PlatformReddit {
		t.Errorf("unexpected statuses %+v", statuses)
	}

	if rec, _ := get(t, h, "/api/v1/sources/youtube"); rec.Code != http.StatusOK {
		t.Errorf("enabled platform: status %d", rec.Code)
	}
	if rec, _ := get(t, h, "/api/v1/sources/tiktok"); rec.Code != http.StatusNotFound {
		t.Errorf("disabled platform: status %d, want 404", rec.Code)
	}
	if rec, _ := get(t, h, "/api/v1/sources/myspace"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown platform: status %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	ready := newTestServer(t, &fakeEngine{platforms: []models.PlatformID{models.PlatformYouTube}})
	notReady := newTestServer(t, &fakeEngine{})

	if rec, _ := get(t, notReady, "/api/v1/health/live"); rec.Code != http.StatusOK {
		t.Errorf("live: status %d", rec.Code)
	}
	if rec, _ := get(t, ready, "/api/v1/health/ready"); rec.Code != http.StatusOK {
		t.Errorf("ready: status %d", rec.Code)
	}
	if rec, env := get(t, notReady, "/api/v1/health/ready"); rec.Code != http.StatusServiceUnavailable || env.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("not ready: status %d", rec.Code)
	}
}

func TestWebSocketWithoutHub(t *testing.T) {
	h := newTestServer(t, &fakeEngine{})
	if rec, _ := get(t, h, "/api/v1/ws"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsAndNotFound(t *testing.T) {
	h := newTestServer(t, &fakeEngine{platforms: []models.PlatformID{models.PlatformYouTube}})
	get(t, h, "/api/v1/sources")

	rec, _ := get(t, h, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("metrics endpoint missing API metrics: %d", rec.Code)
	}
	if rec, env := get(t, h, "/nope"); rec.Code != http.StatusNotFound || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: status %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	eng := &fakeEngine{platforms: []models.PlatformID{models.PlatformYouTube}}
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})
	h := NewRouter(NewHandler(eng, nil, nil), mw).SetupChi()

	var last int
	for i := 0; i < 3; i++ {
		rec, _ := get(t, h, "/api/v1/sources")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}
