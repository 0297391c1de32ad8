// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package engine

import (
	"slices"
	"strings"
	"sync"

	"github.com/tomtom215/trendscope/internal/models"
)

// DefaultHistorySize is how many fresh results are kept per platform and
// data type.
const DefaultHistorySize = 48

type historyKey struct {
	platform models.PlatformID
	dataType models.DataType
}

// History keeps the most recent fresh results per platform and data type,
// oldest first. Stored results are never modified.
type History struct {
	mu      sync.RWMutex
	size    int
	records map[historyKey][]models.TrendData
}

// NewHistory creates a recorder keeping size results per series.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, records: make(map[historyKey][]models.TrendData)}
}

// Record appends td to the series for its platform and dataType, dropping
// the oldest result when the series is full.
func (h *History) Record(dataType models.DataType, td models.TrendData) {
	k := historyKey{platform: td.Platform, dataType: dataType}
	h.mu.Lock()
	defer h.mu.Unlock()
	series := append(h.records[k], td)
	if len(series) > h.size {
		series = slices.Clone(series[len(series)-h.size:])
	}
	h.records[k] = series
}

// Latest returns the newest result for platform and dataType.
func (h *History) Latest(platform models.PlatformID, dataType models.DataType) (models.TrendData, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	series := h.records[historyKey{platform: platform, dataType: dataType}]
	if len(series) == 0 {
		return models.TrendData{}, false
	}
	return series[len(series)-1], true
}

// Snapshot returns every recorded result for platforms, or for all
// platforms when none are given, ordered by fetch time.
func (h *History) Snapshot(platforms ...models.PlatformID) []models.TrendData {
	h.mu.RLock()
	var out []models.TrendData
	for k, series := range h.records {
		if len(platforms) > 0 && !slices.Contains(platforms, k.platform) {
			continue
		}
		out = append(out, series...)
	}
	h.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b models.TrendData) int {
		if c := a.FetchedAt.Compare(b.FetchedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.Platform), string(b.Platform))
	})
	return out
}

// Len returns the total number of recorded results.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, series := range h.records {
		n += len(series)
	}
	return n
}
