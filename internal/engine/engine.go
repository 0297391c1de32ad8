// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/trendscope/internal/cache"
	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
	"github.com/tomtom215/trendscope/internal/ranking"
	"github.com/tomtom215/trendscope/internal/source"
)

// Defaults for Engine options.
const (
	DefaultQueryTimeout   = 5 * time.Second
	DefaultMaxConcurrency = 8
)

// Source acquires trend data for one platform. *source.Adapter implements it.
type Source interface {
	Platform() models.PlatformID
	Fetch(ctx context.Context, dataTypes []models.DataType, timeRange models.TimeRange) (models.TrendData, error)
}

// statusReporter is implemented by sources that expose operational state.
type statusReporter interface {
	Status() source.Status
}

// Publisher receives every fresh, non-failed platform result. Publish is
// called on the query path and must not block for long.
type Publisher interface {
	Publish(ctx context.Context, td models.TrendData) error
}

// Engine answers trend queries by fanning out to platform sources through
// the trend cache, then ranking and merging the results.
type Engine struct {
	sources    map[models.PlatformID]Source
	order      []models.PlatformID
	cache      *cache.TrendCache
	ranker     *ranking.Ranker
	predictor  ranking.Predictor
	history    *History
	publishers []Publisher
	timeout    time.Duration
	slots      *semaphore.Weighted
	now        func() time.Time
	logger     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRanker replaces the default engagement ranker.
func WithRanker(r *ranking.Ranker) Option {
	return func(e *Engine) { e.ranker = r }
}

// WithPredictor replaces the default momentum predictor.
func WithPredictor(p ranking.Predictor) Option {
	return func(e *Engine) { e.predictor = p }
}

// WithPublisher adds a sink for fresh results.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publishers = append(e.publishers, p)
		}
	}
}

// WithQueryTimeout bounds each FetchTrends call.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMaxConcurrency caps upstream fetches in flight across all queries.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithHistory sets the recorder used for growth and prediction.
func WithHistory(h *History) Option {
	return func(e *Engine) { e.history = h }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over sources. Sources are reported in the order
// given; a later source for the same platform replaces an earlier one.
func New(c *cache.TrendCache, sources []Source, opts ...Option) *Engine {
	e := &Engine{
		sources: make(map[models.PlatformID]Source, len(sources)),
		cache:   c,
		timeout: DefaultQueryTimeout,
		now:     time.Now,
		logger:  logging.WithComponent("engine"),
	}
	for _, s := range sources {
		p := s.Platform()
		if _, dup := e.sources[p]; !dup {
			e.order = append(e.order, p)
		}
		e.sources[p] = s
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ranker == nil {
		e.ranker = ranking.NewRanker(nil)
	}
	if e.predictor == nil {
		e.predictor = ranking.NewMomentumPredictor()
	}
	if e.history == nil {
		e.history = NewHistory(DefaultHistorySize)
	}
	if e.slots == nil {
		e.slots = semaphore.NewWeighted(DefaultMaxConcurrency)
	}
	if e.timeout <= 0 {
		e.timeout = DefaultQueryTimeout
	}
	return e
}

// Platforms returns the configured platforms in registration order.
func (e *Engine) Platforms() []models.PlatformID {
	return append([]models.PlatformID(nil), e.order...)
}

// FetchTrends returns one TrendData per requested platform, in query order.
// It never fails: platform errors are carried in each result's Error. Data
// types still being fetched when the query timeout expires are reported as
// failed with code timeout, so a platform with some types already available
// comes back partial.
func (e *Engine) FetchTrends(ctx context.Context, q models.TrendQuery) []models.TrendData {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	platforms := q.Platforms()
	results := make([]models.TrendData, len(platforms))
	// fetchPlatform returns once ctx is done, so Wait is bounded by the timeout.
	var g errgroup.Group
	for i, p := range platforms {
		g.Go(func() error {
			results[i] = e.fetchPlatform(ctx, p, q)
			return nil
		})
	}
	_ = g.Wait()

	for _, td := range results {
		code := ""
		if td.Error != nil {
			code = string(td.Error.Code)
		}
		metrics.RecordPlatformResult(string(td.Platform), string(td.Status), code)
	}
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	logging.Ctx(ctx).Debug().
		Str("query", q.String()).
		Dur("duration", time.Since(start)).
		Msg("trend query complete")
	return results
}

// fetchPlatform collects the query's data types for one platform, from the
// cache or from one shared upstream fetch, and merges them.
func (e *Engine) fetchPlatform(ctx context.Context, p models.PlatformID, q models.TrendQuery) models.TrendData {
	src, ok := e.sources[p]
	if !ok {
		err := models.NewSourceError(p, models.ErrCodeSourceError, "platform %s is not enabled", p)
		return models.Failed(p, err, e.now().UTC())
	}

	dataTypes := q.DataTypes()
	group := cache.GroupKey{Platform: p, TimeRange: q.TimeRange()}
	got, err := e.cache.GetOrFetchGroup(ctx, group, dataTypes, func(ctx context.Context) (map[models.DataType]models.TrendData, error) {
		return e.fetchFresh(ctx, src, q.TimeRange()), nil
	})

	parts := make([]models.TrendData, len(dataTypes))
	for i, dt := range dataTypes {
		td, ok := got[dt]
		if !ok {
			td = e.unavailable(ctx, p, dt, err)
		}
		parts[i] = td
	}
	return merge(p, dataTypes, parts)
}

// unavailable is the result for a data type the query could not obtain.
func (e *Engine) unavailable(ctx context.Context, p models.PlatformID, dt models.DataType, err error) models.TrendData {
	switch {
	case ctx.Err() != nil:
		err = models.NewSourceError(p, models.ErrCodeTimeout, "source did not respond within %s", e.timeout)
	case err == nil:
		err = models.NewSourceError(p, models.ErrCodeSourceError, "no %s result", dt)
	}
	return models.Failed(p, err, e.now().UTC())
}

// fetchFresh makes one upstream call covering every data type and prepares
// each type's result for the cache: hashtag growth from history, ranking,
// then recording. A successful fetch is published merged.
func (e *Engine) fetchFresh(ctx context.Context, src Source, tr models.TimeRange) map[models.DataType]models.TrendData {
	p := src.Platform()
	out := make(map[models.DataType]models.TrendData, len(models.AllDataTypes))
	failAll := func(td models.TrendData) map[models.DataType]models.TrendData {
		for _, dt := range models.AllDataTypes {
			out[dt] = td
		}
		return out
	}

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return failAll(models.Failed(p, err, e.now().UTC()))
	}
	td, err := src.Fetch(ctx, models.AllDataTypes, tr)
	e.slots.Release(1)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("platform", string(p)).
			Msg("source fetch failed")
		if td.Status != models.StatusFailed {
			td = models.Failed(p, err, e.now().UTC())
		}
		return failAll(td)
	}

	parts := make([]models.TrendData, len(models.AllDataTypes))
	for i, dt := range models.AllDataTypes {
		part := only(td, dt)
		if dt == models.DataTypeHashtags {
			if prev, ok := e.history.Latest(p, dt); ok {
				ranking.FillGrowth(&part, prev)
			}
		}
		part = e.ranker.Rank(part)
		e.history.Record(dt, part)
		out[dt] = part
		parts[i] = part
	}
	e.publish(ctx, merge(p, models.AllDataTypes, parts))
	return out
}

// only returns a copy of td carrying the entries of dt alone.
func only(td models.TrendData, dt models.DataType) models.TrendData {
	out := td
	out.Hashtags = []models.HashtagEntry{}
	out.Keywords = []models.KeywordEntry{}
	out.ViralContent = []models.ViralEntry{}
	switch dt {
	case models.DataTypeHashtags:
		out.Hashtags = append(out.Hashtags, td.Hashtags...)
	case models.DataTypeKeywords:
		out.Keywords = append(out.Keywords, td.Keywords...)
	case models.DataTypeViralContent:
		out.ViralContent = append(out.ViralContent, td.ViralContent...)
	}
	return out
}

func (e *Engine) publish(ctx context.Context, td models.TrendData) {
	for _, pub := range e.publishers {
		if err := pub.Publish(ctx, td); err != nil {
			e.logger.Warn().Err(err).Str("platform", string(td.Platform)).Msg("failed to publish trend update")
		}
	}
}

// merge combines per-type results. All ok is ok, none ok is failed and
// anything in between is partial with the first failure's error.
func merge(p models.PlatformID, dataTypes []models.DataType, parts []models.TrendData) models.TrendData {
	out := models.TrendData{
		Platform:     p,
		Hashtags:     []models.HashtagEntry{},
		Keywords:     []models.KeywordEntry{},
		ViralContent: []models.ViralEntry{},
	}
	succeeded, failed := 0, 0
	for i, part := range parts {
		if part.FetchedAt.After(out.FetchedAt) {
			out.FetchedAt = part.FetchedAt
		}
		if part.Status == models.StatusFailed {
			failed++
			if out.Error == nil {
				out.Error = part.Error
			}
			continue
		}
		succeeded++
		if out.Origin == "" {
			out.Origin = part.Origin
		}
		switch dataTypes[i] {
		case models.DataTypeHashtags:
			out.Hashtags = append(out.Hashtags, part.Hashtags...)
		case models.DataTypeKeywords:
			out.Keywords = append(out.Keywords, part.Keywords...)
		case models.DataTypeViralContent:
			out.ViralContent = append(out.ViralContent, part.ViralContent...)
		}
	}

	switch {
	case failed == 0:
		out.Status = models.StatusOK
	case succeeded == 0:
		out.Status = models.StatusFailed
	default:
		out.Status = models.StatusPartial
	}
	return out
}

// Predict forecasts rising trends from recorded history for platforms, or
// for every platform when none are given.
func (e *Engine) Predict(ctx context.Context, platforms []models.PlatformID, limit int) []string {
	history := e.history.Snapshot(platforms...)
	predictions := e.predictor.Predict(history)
	predictions = ranking.Top(predictions, limit)
	logging.Ctx(ctx).Debug().
		Int("history", len(history)).
		Int("predictions", len(predictions)).
		Msg("predicted trends")
	return predictions
}

// HistoryLen returns the number of results recorded for prediction.
func (e *Engine) HistoryLen() int {
	return e.history.Len()
}

// Sources returns the status of every configured source that reports one.
func (e *Engine) Sources() []source.Status {
	out := make([]source.Status, 0, len(e.order))
	for _, p := range e.order {
		if r, ok := e.sources[p].(statusReporter); ok {
			out = append(out, r.Status())
		}
	}
	return out
}

// Source returns the status of one platform.
func (e *Engine) Source(p models.PlatformID) (source.Status, error) {
	s, ok := e.sources[p]
	if !ok {
		return source.Status{}, fmt.Errorf("platform %q is not enabled", p)
	}
	r, ok := s.(statusReporter)
	if !ok {
		return source.Status{Platform: p}, nil
	}
	return r.Status(), nil
}

// Ready reports whether at least one source is configured.
func (e *Engine) Ready() bool {
	return len(e.order) > 0
}
