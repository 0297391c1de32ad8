// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/trendscope/internal/models"
)

// EventTypeTrendUpdate marks a fresh platform result.
const EventTypeTrendUpdate = "trend_update"

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "trends"

// Event is the envelope published for every fresh platform result.
type Event struct {
	EventID     string            `json:"event_id"`
	Type        string            `json:"type"`
	Platform    models.PlatformID `json:"platform"`
	PublishedAt time.Time         `json:"published_at"`
	Data        models.TrendData  `json:"data"`
}

// NewTrendEvent wraps td in an event with a fresh ID.
func NewTrendEvent(td models.TrendData) Event {
	return Event{
		EventID:     uuid.NewString(),
		Type:        EventTypeTrendUpdate,
		Platform:    td.Platform,
		PublishedAt: time.Now().UTC(),
		Data:        td,
	}
}

// Subject returns the subject a platform's events are published on.
func Subject(prefix string, p models.PlatformID) string {
	return subjectPrefix(prefix) + "." + string(p)
}

// WildcardSubject matches events for every platform under prefix.
func WildcardSubject(prefix string) string {
	return subjectPrefix(prefix) + ".>"
}

func subjectPrefix(prefix string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return DefaultSubjectPrefix
	}
	return prefix
}

// Encode serializes an event.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Decode parses an event and rejects payloads without an ID or platform.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.EventID == "" {
		return Event{}, fmt.Errorf("event has no event_id")
	}
	if !e.Platform.Valid() {
		return Event{}, fmt.Errorf("event has unknown platform %q", e.Platform)
	}
	return e, nil
}
