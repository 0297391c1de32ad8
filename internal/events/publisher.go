// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// SinkNATS labels NATS publishes in metrics.
const SinkNATS = "nats"

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// PublisherConfig configures the NATS connection.
type PublisherConfig struct {
	URL            string
	SubjectPrefix  string
	ConnectTimeout time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
}

// PublisherConfigFrom maps the application's NATS settings.
func PublisherConfigFrom(cfg config.NATSConfig) PublisherConfig {
	return PublisherConfig{
		URL:            cfg.URL,
		SubjectPrefix:  cfg.SubjectPrefix,
		ConnectTimeout: cfg.ConnectTimeout,
		MaxReconnects:  -1,
		ReconnectWait:  time.Second,
	}
}

// Publisher sends fresh trend results to NATS, one subject per platform.
// Publishes go through a circuit breaker so a broker outage does not slow
// down the query path.
type Publisher struct {
	nc      *nats.Conn
	prefix  string
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects to cfg.URL.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = time.Second
	}
	logger := logging.WithComponent("events")

	nc, err := nats.Connect(cfg.URL,
		nats.Name("trendscope"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}

	return &Publisher{
		nc:     nc,
		prefix: cfg.SubjectPrefix,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "nats-publisher",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}, nil
}

// Conn exposes the underlying connection so subscribers can share it.
func (p *Publisher) Conn() *nats.Conn {
	return p.nc
}

// SubjectPrefix returns the configured prefix.
func (p *Publisher) SubjectPrefix() string {
	return subjectPrefix(p.prefix)
}

// Publish sends td as a trend_update event on <prefix>.<platform>. The
// event ID is set as the message ID for broker-side deduplication.
func (p *Publisher) Publish(ctx context.Context, td models.TrendData) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ev := NewTrendEvent(td)
	data, err := Encode(ev)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(SinkNATS, "error").Inc()
		return err
	}
	msg := &nats.Msg{
		Subject: Subject(p.prefix, td.Platform),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, ev.EventID)

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.nc.PublishMsg(msg)
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(SinkNATS, "error").Inc()
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	metrics.EventsPublished.WithLabelValues(SinkNATS, "success").Inc()
	p.logger.Debug().
		Str("subject", msg.Subject).
		Str("event_id", ev.EventID).
		Msg("published trend update")
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.nc.Drain()
}

// Subscribe delivers decoded events for every platform under prefix to
// handler. Undecodable messages are logged and dropped.
func Subscribe(nc *nats.Conn, prefix string, handler func(Event)) (*nats.Subscription, error) {
	logger := logging.WithComponent("events")
	sub, err := nc.Subscribe(WildcardSubject(prefix), func(msg *nats.Msg) {
		ev, err := Decode(msg.Data)
		if err != nil {
			logger.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed trend event")
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", WildcardSubject(prefix), err)
	}
	return sub, nil
}
