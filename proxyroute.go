// Package proxyroute resolves, per outbound HTTP/HTTPS request, which
// proxy (if any) should carry it, and rewires request dispatch through the
// chosen proxy. Resolution walks loopback bypass, no-proxy list, settings
// proxy, environment proxy, a bounded two-generation origin cache, and
// finally an external asynchronous resolver; connection outcomes are
// aggregated and flushed to a telemetry sink once per activity period.
package proxyroute

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/benbjohnson/clock"

	"github.com/hostrelay/go-proxyroute/config"
	"github.com/hostrelay/go-proxyroute/internal/cache"
	"github.com/hostrelay/go-proxyroute/internal/engine"
	"github.com/hostrelay/go-proxyroute/internal/intercept"
	"github.com/hostrelay/go-proxyroute/internal/outcome"
	"github.com/hostrelay/go-proxyroute/internal/telemetry"
)

// ResolveProxyFunc is the external asynchronous resolver the host wires in
// (an OS or enterprise PAC lookup). See engine.ResolveProxyFunc.
type ResolveProxyFunc = engine.ResolveProxyFunc

// RequestOptions re-exports the explicit options form of a call.
type RequestOptions = intercept.RequestOptions

type ProxyRoute interface {
	engine.Resolver
	Do(ctx context.Context, opts RequestOptions) (*http.Response, error)
	Get(ctx context.Context, rawURL string) (*http.Response, error)
	Substitutes(opts RequestOptions) bool
	Variant(mode config.Mode) *intercept.Interceptor
	Agent() http.RoundTripper
	Flush()
	io.Closer
}

type Router struct {
	engine.Resolver
	*intercept.Interceptor

	agent *intercept.Agent
	agg   *outcome.Aggregator
}

// New wires the cache, the outcome aggregator, the resolution engine and
// the default interceptor variant together. A nil sink falls back to the
// log sink.
func New(cfg *config.Config, logger *slog.Logger, external ResolveProxyFunc, sink telemetry.Sink) *Router {
	if sink == nil {
		sink = telemetry.NewLogSink()
	}

	cacher := cache.New(cfg.Cache.Capacity, logger)
	agg := outcome.New(logger, sink, clock.New(), cfg.Telemetry.FlushAfterIdle, cfg.Telemetry.Enabled,
		func() (int, int64) { return cacher.Len(), cacher.Rolls() })
	eng := engine.New(cfg, logger, external, cacher, agg)
	agent := intercept.NewAgent(eng, agg.Record, logger)

	return &Router{
		Resolver:    eng,
		Interceptor: intercept.New(eng, agent, config.ModeDefault),
		agent:       agent,
		agg:         agg,
	}
}

// Variant is one patched entry-point surface bound to a fixed substitution
// mode; the host decides per call-site which variant it hands out. All
// variants share one agent, so connection pooling is shared too.
func (r *Router) Variant(mode config.Mode) *intercept.Interceptor {
	return intercept.New(r.Resolver, r.agent, mode)
}

// Agent exposes the proxy-aware http.RoundTripper for hosts that build
// their own clients.
func (r *Router) Agent() http.RoundTripper {
	return r.agent
}

// Flush forces the current telemetry period out, regardless of the idle
// timer.
func (r *Router) Flush() {
	r.agg.Flush()
}

func (r *Router) Close() error {
	return r.agg.Close()
}
