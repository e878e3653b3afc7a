package engine

import (
	"github.com/hostrelay/go-proxyroute/internal/noproxy"
	"github.com/hostrelay/go-proxyroute/internal/proxyspec"
)

// envState is the one-time snapshot of the process proxy environment,
// taken at engine construction. Later environment changes are ignored on
// purpose; only host configuration is re-read at runtime.
type envState struct {
	proxy    *proxyspec.Spec
	noProxy  noproxy.Matcher
	rawProxy string
}

type lookupFunc func(name string) (string, bool)

// snapshotEnv prefers the https variants over the http ones, each in
// lowercase then uppercase form.
func snapshotEnv(lookup lookupFunc) envState {
	var st envState

	for _, name := range []string{"https_proxy", "HTTPS_PROXY", "http_proxy", "HTTP_PROXY"} {
		value, ok := lookup(name)
		if !ok || value == "" {
			continue
		}
		if spec, ok := proxyspec.ParseURL(value); ok {
			st.proxy = &spec
			st.rawProxy = value
		}
		break
	}

	for _, name := range []string{"no_proxy", "NO_PROXY"} {
		if value, ok := lookup(name); ok && value != "" {
			st.noProxy = noproxy.Compile(value)
			break
		}
	}

	return st
}
