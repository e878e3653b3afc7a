// Package intercept wraps the request-initiating entry points: it decides
// per call whether the proxy-aware agent is substituted in, normalizes
// URL-form calls, and funnels connection outcomes into the aggregator.
package intercept

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	xproxy "golang.org/x/net/proxy"

	"github.com/hostrelay/go-proxyroute/internal/engine"
	"github.com/hostrelay/go-proxyroute/internal/outcome"
	"github.com/hostrelay/go-proxyroute/internal/proxyspec"
)

// RecordFunc receives the terminal outcome of one proxied request.
type RecordFunc func(proxy, kind, code string)

// Agent is the proxy-aware http.RoundTripper handed to substituted calls.
// Each connection attempt resolves the target through the engine, then
// dials through the resolved spec: HTTP/HTTPS proxies via the transport's
// proxy hook, SOCKS via a golang.org/x/net SOCKS5 dialer. One underlying
// transport per distinct spec is kept so connection pooling survives
// across requests to the same proxy.
type Agent struct {
	resolver engine.Resolver
	record   RecordFunc
	logger   *slog.Logger

	direct http.RoundTripper

	mu      sync.Mutex
	proxied map[string]http.RoundTripper
}

func NewAgent(resolver engine.Resolver, record RecordFunc, logger *slog.Logger) *Agent {
	return &Agent{
		resolver: resolver,
		record:   record,
		logger:   logger,
		direct:   &http.Transport{Proxy: nil},
		proxied:  make(map[string]http.RoundTripper),
	}
}

func (a *Agent) RoundTrip(req *http.Request) (*http.Response, error) {
	res := a.resolver.Resolve(req.Context(), req.URL)

	resp, err := a.transportFor(res).RoundTrip(req)

	if res.Collect && a.record != nil {
		a.record(bucketProxy(res), connectionKind(req), resultCode(resp, err))
	}
	return resp, err
}

func (a *Agent) transportFor(res engine.Result) http.RoundTripper {
	if !res.OK || res.Spec.Kind == proxyspec.Direct {
		return a.direct
	}

	key := res.Spec.String()

	a.mu.Lock()
	defer a.mu.Unlock()

	if rt, ok := a.proxied[key]; ok {
		return rt
	}

	rt := a.buildTransport(res.Spec)
	a.proxied[key] = rt
	return rt
}

func (a *Agent) buildTransport(spec proxyspec.Spec) http.RoundTripper {
	if spec.Kind == proxyspec.SOCKS {
		dialer, err := xproxy.SOCKS5("tcp", spec.HostPort, nil, &net.Dialer{})
		if err != nil {
			a.logger.Error("socks dialer setup failed, dialing direct", "proxy", spec.HostPort, "err", err)
			return a.direct
		}
		ctxDialer, ok := dialer.(xproxy.ContextDialer)
		if !ok {
			a.logger.Error("socks dialer has no context dial, dialing direct", "proxy", spec.HostPort)
			return a.direct
		}
		return &http.Transport{DialContext: ctxDialer.DialContext}
	}

	u, _ := spec.URL()
	return &http.Transport{Proxy: http.ProxyURL(u)}
}

func bucketProxy(res engine.Result) string {
	if !res.OK {
		return outcome.EmptyProxy
	}
	return res.Spec.Token()
}

func connectionKind(req *http.Request) string {
	if req.URL != nil && req.URL.Scheme == "https" {
		return "HTTPS"
	}
	return "HTTP"
}

func resultCode(resp *http.Response, err error) string {
	if err != nil {
		return errCode(err)
	}
	return "HTTP_" + strconv.Itoa(resp.StatusCode)
}
