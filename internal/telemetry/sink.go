// Package telemetry defines the event the aggregator flushes once per
// period and the sink it is delivered to. The host usually supplies its
// own sink; the zerolog-backed LogSink is the fallback.
package telemetry

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventName is the single event this subsystem emits.
const EventName = "resolveProxy"

// Bucket is one aggregated (proxy, connection kind, result code) triple.
type Bucket struct {
	Proxy string `json:"proxy"`
	Kind  string `json:"kind"`
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// Event is one flushed telemetry period.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Total          int64 `json:"total"`
	Async          int64 `json:"async"`
	Errors         int64 `json:"errors"`
	AsyncLatencyMs int64 `json:"asyncLatencyMs"`
	CacheHits      int64 `json:"cacheHits"`
	EnvHits        int64 `json:"envHits"`
	SettingsHits   int64 `json:"settingsHits"`
	LoopbackBypass int64 `json:"loopbackBypass"`
	NoProxyBypass  int64 `json:"noProxyBypass"`

	CacheSize  int   `json:"cacheSize"`
	CacheRolls int64 `json:"cacheRolls"`

	Buckets []Bucket `json:"buckets"`
}

// NewEventID tags each flushed period.
func NewEventID() string {
	return uuid.NewString()
}

type Sink interface {
	Send(event Event)
}

// LogSink emits events through the global zerolog logger.
type LogSink struct{}

func NewLogSink() LogSink { return LogSink{} }

func (LogSink) Send(e Event) {
	log.Info().
		Str("event", e.Name).
		Str("id", e.ID).
		Int64("total", e.Total).
		Int64("async", e.Async).
		Int64("errors", e.Errors).
		Int64("async_latency_ms", e.AsyncLatencyMs).
		Int64("cache_hits", e.CacheHits).
		Int64("env_hits", e.EnvHits).
		Int64("settings_hits", e.SettingsHits).
		Int64("loopback_bypass", e.LoopbackBypass).
		Int64("no_proxy_bypass", e.NoProxyBypass).
		Int("cache_size", e.CacheSize).
		Int64("cache_rolls", e.CacheRolls).
		Interface("buckets", e.Buckets).
		Msg("proxy resolution period flushed")
}

// NopSink swallows events.
type NopSink struct{}

func (NopSink) Send(Event) {}
