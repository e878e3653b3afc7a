// Package outcome accumulates per-period resolution counters and the
// (proxy, connection kind, result code) histogram, and flushes both to the
// telemetry sink after a period of activity.
package outcome

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/hostrelay/go-proxyroute/internal/telemetry"
)

// EmptyProxy is recorded when a request went out without any resolved spec.
const EmptyProxy = "EMPTY"

// CacheStatsFunc supplies the cache size and rollover count included in
// every flushed event.
type CacheStatsFunc func() (size int, rolls int64)

type Aggregator struct {
	mu      sync.Mutex
	buckets []telemetry.Bucket // first-seen order, deduplicated by triple
	armed   bool
	timer   *clock.Timer

	counters *Counters
	sink     telemetry.Sink
	clock    clock.Clock
	idle     time.Duration
	stats    CacheStatsFunc
	logger   *slog.Logger
	enabled  bool
}

func New(logger *slog.Logger, sink telemetry.Sink, clk clock.Clock, idle time.Duration, enabled bool, stats CacheStatsFunc) *Aggregator {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Aggregator{
		counters: newCounters(),
		sink:     sink,
		clock:    clk,
		idle:     idle,
		stats:    stats,
		logger:   logger,
		enabled:  enabled,
	}
}

func (a *Aggregator) Counters() *Counters {
	return a.counters
}

// Record folds one terminal request event into the period's histogram.
// Bucket lookup is a linear scan; a period holds few distinct triples.
func (a *Aggregator) Record(proxy, kind, code string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.buckets {
		b := &a.buckets[i]
		if b.Proxy == proxy && b.Kind == kind && b.Code == code {
			b.Count++
			return
		}
	}
	a.buckets = append(a.buckets, telemetry.Bucket{Proxy: proxy, Kind: kind, Code: code, Count: 1})
}

// Touch arms the flush timer on the first resolution after a flush. It is
// deliberately not re-armed by later resolutions, so an idle process does
// not flush empty periods over and over.
func (a *Aggregator) Touch() {
	if !a.enabled {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.armed {
		return
	}
	a.armed = true
	a.timer = a.clock.AfterFunc(a.idle, func() { a.Flush() })
}

// Flush emits the period's counters and buckets as one event and starts a
// fresh period.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	buckets := a.buckets
	a.buckets = nil
	a.armed = false
	a.mu.Unlock()

	total, async, errs, latencyMs, cacheHits, envHits, settingsHits, loopback, noProxy := a.counters.snapshot()
	a.counters.reset()

	event := telemetry.Event{
		ID:             telemetry.NewEventID(),
		Name:           telemetry.EventName,
		Total:          total,
		Async:          async,
		Errors:         errs,
		AsyncLatencyMs: latencyMs,
		CacheHits:      cacheHits,
		EnvHits:        envHits,
		SettingsHits:   settingsHits,
		LoopbackBypass: loopback,
		NoProxyBypass:  noProxy,
		Buckets:        buckets,
	}
	if a.stats != nil {
		event.CacheSize, event.CacheRolls = a.stats()
	}

	a.sink.Send(event)

	if a.logger != nil {
		a.logger.Debug("resolution period flushed", "total", total, "buckets", len(buckets))
	}
}

func (a *Aggregator) Close() error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.armed = false
	a.mu.Unlock()
	return nil
}
