// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package ranking

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/trendscope/internal/models"
)

// Predictor forecasts which trends will keep rising. history is ordered
// oldest first and may mix platforms.
type Predictor interface {
	Predict(history []models.TrendData) []string
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(history []models.TrendData) []string

// Predict implements Predictor.
func (f PredictorFunc) Predict(history []models.TrendData) []string { return f(history) }

// Momentum defaults.
const (
	DefaultMomentumLimit    = 10
	DefaultMomentumHalfLife = 6 * time.Hour
)

// MomentumPredictor scores each hashtag and keyword by growth-weighted
// volume:
//
//	score = latest * (1 + max(growth, 0)) * 0.5^(age / HalfLife)
//
// where latest is the volume in the newest snapshot that mentions the
// trend, growth is its relative change since the oldest such snapshot and
// age is how long ago the newest sighting was. Hashtags are returned with
// a leading '#'.
type MomentumPredictor struct {
	Limit    int
	HalfLife time.Duration
	Now      func() time.Time
}

// NewMomentumPredictor returns a predictor with default settings.
func NewMomentumPredictor() *MomentumPredictor {
	return &MomentumPredictor{Limit: DefaultMomentumLimit, HalfLife: DefaultMomentumHalfLife, Now: time.Now}
}

type sighting struct {
	first, last int64
	lastSeen    time.Time
	samples     int
}

func (s *sighting) observe(volume int64, at time.Time) {
	if s.samples == 0 {
		s.first = volume
	}
	s.last = volume
	s.lastSeen = at
	s.samples++
}

// Predict implements Predictor.
func (p *MomentumPredictor) Predict(history []models.TrendData) []string {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultMomentumLimit
	}
	halfLife := p.HalfLife
	if halfLife <= 0 {
		halfLife = DefaultMomentumHalfLife
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	seen := make(map[string]*sighting)
	observe := func(id string, volume int64, at time.Time) {
		s, ok := seen[id]
		if !ok {
			s = &sighting{}
			seen[id] = s
		}
		s.observe(volume, at)
	}
	for _, td := range history {
		if td.Status == models.StatusFailed {
			continue
		}
		for _, h := range td.Hashtags {
			observe("#"+h.Tag, h.Volume, td.FetchedAt)
		}
		for _, k := range td.Keywords {
			observe(k.Keyword, k.Volume, td.FetchedAt)
		}
	}

	type candidate struct {
		id    string
		score float64
	}
	at := now()
	candidates := make([]candidate, 0, len(seen))
	for id, s := range seen {
		growth := 0.0
		if s.samples > 1 && s.first > 0 {
			growth = math.Max(float64(s.last-s.first)/float64(s.first), 0)
		}
		age := at.Sub(s.lastSeen)
		if age < 0 {
			age = 0
		}
		decay := math.Pow(0.5, float64(age)/float64(halfLife))
		candidates = append(candidates, candidate{id: id, score: float64(s.last) * (1 + growth) * decay})
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})

	out := make([]string, 0, min(limit, len(candidates)))
	for _, c := range Top(candidates, limit) {
		out = append(out, c.id)
	}
	return out
}
