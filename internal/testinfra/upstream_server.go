// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// CapturedRequest is one request seen by a MockUpstream.
type CapturedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
	At      time.Time
}

// Response is a scripted reply.
type Response struct {
	Status     int
	Body       string
	RetryAfter time.Duration
	Header     http.Header
	Delay      time.Duration
}

// MockUpstream is an httptest server standing in for a platform API or a
// scraped web page. Replies are taken from a per-path script in order; once
// a script runs out its last reply repeats. Paths without a script get
// Default.
type MockUpstream struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []CapturedRequest
	scripts  map[string][]Response
	Default  Response
}

// NewMockUpstream starts a server that is closed when t finishes.
func NewMockUpstream(t *testing.T) *MockUpstream {
	t.Helper()

	m := &MockUpstream{
		scripts: make(map[string][]Response),
		Default: Response{Status: http.StatusNotFound},
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Server.Close)
	return m
}

// Script sets the replies for path.
func (m *MockUpstream) Script(path string, responses ...Response) {
	m.mu.Lock()
	m.scripts[path] = responses
	m.mu.Unlock()
}

// URL returns the server base URL.
func (m *MockUpstream) URL() string {
	return m.Server.URL
}

// Captures returns a copy of every request seen so far.
func (m *MockUpstream) Captures() []CapturedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CapturedRequest, len(m.captures))
	copy(out, m.captures)
	return out
}

// Count returns how many requests hit path.
func (m *MockUpstream) Count(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.captures {
		if c.Path == path {
			n++
		}
	}
	return n
}

func (m *MockUpstream) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	m.mu.Lock()
	m.captures = append(m.captures, CapturedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
		Body:    body,
		At:      time.Now(),
	})
	resp := m.Default
	if script, ok := m.scripts[r.URL.Path]; ok && len(script) > 0 {
		resp = script[0]
		if len(script) > 1 {
			m.scripts[r.URL.Path] = script[1:]
		}
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if resp.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(resp.RetryAfter/time.Second)))
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.Body)
}

// JSON is a 200 reply with a JSON content type.
func JSON(body string) Response {
	return Response{
		Status: http.StatusOK,
		Body:   body,
		Header: http.Header{"Content-Type": []string{"application/json"}},
	}
}

// HTML is a 200 reply with an HTML content type.
func HTML(body string) Response {
	return Response{
		Status: http.StatusOK,
		Body:   body,
		Header: http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
	}
}

// Status is an empty reply with the given status code.
func Status(code int) Response {
	return Response{Status: code}
}
