package intercept

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/hostrelay/go-proxyroute/config"
	"github.com/hostrelay/go-proxyroute/internal/engine"
)

// RequestOptions is the explicit options form of a request-initiating
// call. Either URL or the (Scheme, Hostname, Port, Path) fields describe
// the target; URL wins when both are present.
type RequestOptions struct {
	URL string

	Scheme   string
	Hostname string
	Port     string
	Path     string

	Method string
	Header http.Header
	Body   io.Reader

	Username string
	Password string

	// Transport is a caller-supplied connection agent. Mode "on" leaves
	// requests with their own agent alone; mode "override" replaces it.
	Transport http.RoundTripper

	// SocketPath marks unix-socket requests, which are never proxied.
	SocketPath string

	// Proxy is the per-call override. When set it wins over the mode.
	Proxy *bool
}

// Interceptor is one patched variant of the two request-initiating entry
// points, bound to a fixed substitution mode. Mode "default" re-reads the
// live configured mode on every call.
type Interceptor struct {
	resolver engine.Resolver
	agent    *Agent
	mode     config.Mode
}

func New(resolver engine.Resolver, agent *Agent, mode config.Mode) *Interceptor {
	return &Interceptor{resolver: resolver, agent: agent, mode: mode}
}

// Do is the options-form entry point.
func (i *Interceptor) Do(ctx context.Context, opts RequestOptions) (*http.Response, error) {
	if err := normalize(&opts); err != nil {
		return nil, err
	}

	req, err := buildRequest(ctx, &opts)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Transport: i.transport(&opts)}
	return client.Do(req)
}

// Get is the url-form entry point.
func (i *Interceptor) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return i.Do(ctx, RequestOptions{URL: rawURL})
}

// Substitutes reports the decision for a call with these options, without
// dispatching it.
func (i *Interceptor) Substitutes(opts RequestOptions) bool {
	return i.useProxy(&opts)
}

func (i *Interceptor) transport(opts *RequestOptions) http.RoundTripper {
	if i.useProxy(opts) {
		return i.agent
	}
	if opts.Transport != nil {
		return opts.Transport
	}
	return http.DefaultTransport
}

// useProxy applies the per-call override first, then the variant's mode.
func (i *Interceptor) useProxy(opts *RequestOptions) bool {
	if opts.Proxy != nil {
		return *opts.Proxy
	}

	mode := i.mode
	if mode == config.ModeDefault {
		mode = i.resolver.Mode()
	}

	switch mode {
	case config.ModeOn:
		return opts.Transport == nil
	case config.ModeOverride:
		return opts.SocketPath == ""
	default:
		// off, and on_request without a per-call override
		return false
	}
}

// normalize folds a url-form call into the options fields: IPv6 brackets
// stripped from the hostname, path carries the query, basic auth lifted
// from the URL credentials, default port from the scheme.
func normalize(opts *RequestOptions) error {
	if opts.URL != "" {
		u, err := url.Parse(opts.URL)
		if err != nil {
			return fmt.Errorf("parse request url: %w", err)
		}
		opts.Scheme = u.Scheme
		opts.Hostname = u.Hostname()
		opts.Port = u.Port()
		opts.Path = u.Path
		if u.RawQuery != "" {
			opts.Path += "?" + u.RawQuery
		}
		if u.User != nil {
			opts.Username = u.User.Username()
			opts.Password, _ = u.User.Password()
		}
	}

	if opts.Scheme == "" {
		opts.Scheme = "http"
	}
	opts.Scheme = strings.ToLower(opts.Scheme)
	if opts.Hostname == "" {
		return fmt.Errorf("request options carry no hostname")
	}
	if opts.Port == "" {
		opts.Port = defaultPort(opts.Scheme)
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	return nil
}

func buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	target := &url.URL{
		Scheme: opts.Scheme,
		Host:   net.JoinHostPort(opts.Hostname, opts.Port),
	}
	path := opts.Path
	if q := strings.IndexByte(path, '?'); q >= 0 {
		target.RawQuery = path[q+1:]
		path = path[:q]
	}
	target.Path = path

	req, err := http.NewRequestWithContext(ctx, opts.Method, target.String(), opts.Body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vv := range opts.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if opts.Username != "" || opts.Password != "" {
		req.SetBasicAuth(opts.Username, opts.Password)
	}
	return req, nil
}

func defaultPort(scheme string) string {
	if scheme == "https" || scheme == "wss" {
		return "443"
	}
	return "80"
}
