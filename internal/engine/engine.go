// Package engine decides, per outbound request, which proxy carries it.
// The precedence chain encodes "explicit wins over implicit, local wins
// over remote, cached wins over a fresh expensive lookup": loopback
// bypass, no-proxy list, configured settings proxy, environment proxy,
// cache, and only then the external asynchronous resolver.
package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hostrelay/go-proxyroute/config"
	"github.com/hostrelay/go-proxyroute/internal/cache"
	"github.com/hostrelay/go-proxyroute/internal/outcome"
	"github.com/hostrelay/go-proxyroute/internal/proxyspec"
)

// ResolveProxyFunc is the external asynchronous resolver (an OS-level or
// enterprise PAC resolver). It returns the PAC token form
// ("PROXY host:port", "DIRECT", ...); an empty result means "no proxy
// known for this URL".
type ResolveProxyFunc func(ctx context.Context, rawURL string) (string, error)

// Source names the precedence step that produced a resolution, for
// logging and tests.
type Source string

const (
	SourceLoopback Source = "loopback"
	SourceNoProxy  Source = "no_proxy"
	SourceSettings Source = "settings"
	SourceEnv      Source = "env"
	SourceCache    Source = "cache"
	SourceLookup   Source = "lookup"
	SourceNone     Source = "none"
)

// Result is one resolution outcome. OK=false means no spec could be
// resolved and the caller should fall through to an unproxied attempt.
// Collect marks resolutions whose requests take part in outcome
// aggregation (cache hits and fresh lookups).
type Result struct {
	Spec    proxyspec.Spec
	OK      bool
	Collect bool
	Source  Source
}

type Resolver interface {
	Resolve(ctx context.Context, target *url.URL) Result
	ProxyFunc() func(*http.Request) (*url.URL, error)
	ApplyConfig(cfg *config.Config)
	Mode() config.Mode
}

// settings is the host-configuration-derived part of the engine state,
// swapped wholesale on every config change.
type settings struct {
	proxy *proxyspec.Spec
	mode  config.Mode
}

type Engine struct {
	settings atomic.Pointer[settings]
	env      envState
	cache    cache.Cacher
	agg      *outcome.Aggregator
	external ResolveProxyFunc
	logger   *slog.Logger
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	external ResolveProxyFunc,
	cacher cache.Cacher,
	agg *outcome.Aggregator,
) *Engine {
	return newEngine(cfg, logger, external, cacher, agg, os.LookupEnv)
}

func newEngine(
	cfg *config.Config,
	logger *slog.Logger,
	external ResolveProxyFunc,
	cacher cache.Cacher,
	agg *outcome.Aggregator,
	lookup lookupFunc,
) *Engine {
	e := &Engine{
		env:      snapshotEnv(lookup),
		cache:    cacher,
		agg:      agg,
		external: external,
		logger:   logger,
	}
	e.ApplyConfig(cfg)

	logger.Info("proxy resolution engine is running",
		"env_proxy", e.env.rawProxy,
		"env_no_proxy", !e.env.noProxy.Empty(),
	)
	return e
}

// ApplyConfig re-reads the settings proxy and support mode after a host
// configuration change. The cache and counters survive unchanged.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	st := &settings{mode: cfg.Proxy.Support}
	if spec, ok := proxyspec.ParseURL(cfg.Proxy.URL); ok {
		st.proxy = &spec
	}
	e.settings.Store(st)

	e.logger.Debug("proxy settings applied",
		"configured", st.proxy != nil,
		"support", string(st.mode),
	)
}

// Mode is the live configured proxy-support mode.
func (e *Engine) Mode() config.Mode {
	return e.settings.Load().mode
}

// Resolve walks the precedence chain, short-circuiting on the first match.
// Only the final step suspends on the external resolver; everything before
// it is synchronous.
func (e *Engine) Resolve(ctx context.Context, target *url.URL) Result {
	defer e.agg.Touch()

	counters := e.agg.Counters()
	counters.IncTotal()

	host := strings.ToLower(target.Hostname())
	port := effectivePort(target)

	if isLoopback(host) {
		counters.IncLoopbackBypass()
		e.logger.Debug("resolve proxy", "url", target.Redacted(), "source", string(SourceLoopback))
		return Result{Spec: proxyspec.Spec{Kind: proxyspec.Direct}, OK: true, Source: SourceLoopback}
	}

	if e.env.noProxy.Match(host, port) {
		counters.IncNoProxyBypass()
		e.logger.Debug("resolve proxy", "url", target.Redacted(), "source", string(SourceNoProxy))
		return Result{Spec: proxyspec.Spec{Kind: proxyspec.Direct}, OK: true, Source: SourceNoProxy}
	}

	if st := e.settings.Load(); st.proxy != nil {
		counters.IncSettingsHits()
		e.logger.Debug("resolve proxy", "url", target.Redacted(), "source", string(SourceSettings), "spec", st.proxy.String())
		return Result{Spec: *st.proxy, OK: true, Source: SourceSettings}
	}

	if e.env.proxy != nil {
		counters.IncEnvHits()
		e.logger.Debug("resolve proxy", "url", target.Redacted(), "source", string(SourceEnv), "spec", e.env.proxy.String())
		return Result{Spec: *e.env.proxy, OK: true, Source: SourceEnv}
	}

	origin := originOf(target.Scheme, host, port)

	if spec, ok := e.cache.Get(origin); ok {
		counters.IncCacheHits()
		e.logger.Debug("resolve proxy", "url", target.Redacted(), "source", string(SourceCache), "spec", spec.String())
		return Result{Spec: spec, OK: true, Collect: true, Source: SourceCache}
	}

	start := time.Now()
	raw, err := e.external(ctx, target.String())
	if err != nil {
		counters.IncErrors()
		e.logger.Error("resolve proxy lookup failed", "url", target.Redacted(), "err", err)
		return Result{Source: SourceNone}
	}

	spec, ok := proxyspec.ParsePAC(raw)
	if !ok {
		// The resolver answered but knows no route; not cached, the caller
		// falls through to a direct attempt.
		e.logger.Debug("resolve proxy", "url", target.Redacted(), "source", string(SourceNone), "raw", raw)
		return Result{Source: SourceNone}
	}

	e.cache.Set(origin, spec)
	counters.IncAsync()
	counters.AddAsyncLatencyMs(time.Since(start).Milliseconds())

	e.logger.Debug("resolve proxy", "url", target.Redacted(), "source", string(SourceLookup), "spec", spec.String())
	return Result{Spec: spec, OK: true, Collect: true, Source: SourceLookup}
}

// ProxyFunc adapts Resolve to the http.Transport.Proxy contract. Direct
// routes and unresolvable targets both mean "no proxy".
func (e *Engine) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		res := e.Resolve(req.Context(), req.URL)
		if !res.OK {
			return nil, nil
		}
		u, ok := res.Spec.URL()
		if !ok {
			return nil, nil
		}
		return u, nil
	}
}

func isLoopback(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1", "::ffff:127.0.0.1":
		return true
	}
	return false
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	}
	return ""
}

// originOf is the cache key: scheme+host+port, path and query dropped,
// because proxy choice is assumed constant per origin.
func originOf(scheme, host, port string) string {
	return strings.ToLower(scheme) + "://" + host + ":" + port
}
