// Package proxyspec holds the normalized proxy specification exchanged
// between configuration, the resolution engine, the cache and the agent.
// The external token form ("PROXY host:port", "HTTPS host:port",
// "SOCKS host:port", "DIRECT") matches what PAC-style resolvers return.
package proxyspec

import (
	"net/url"
	"strings"
)

type Kind int

const (
	Direct Kind = iota
	HTTP
	HTTPS
	SOCKS
)

// Spec is a tagged proxy route. The zero value is Direct with an empty
// host; "no spec at all" is expressed by the ok=false returns below, never
// by a sentinel value.
type Spec struct {
	Kind     Kind
	HostPort string
}

// ParseURL parses a configured proxy URL ("http://proxy:8080") into a Spec.
// A missing scheme separator or an unrecognized scheme means "not
// configured" (ok=false), never an error. The host:port remainder is kept
// as-is, validation is the transport's job.
func ParseURL(raw string) (Spec, bool) {
	s := strings.TrimSpace(raw)
	idx := strings.Index(s, "://")
	if idx < 0 {
		return Spec{}, false
	}
	rest := s[idx+len("://"):]
	switch strings.ToLower(s[:idx]) {
	case "http":
		return Spec{Kind: HTTP, HostPort: rest}, true
	case "https":
		return Spec{Kind: HTTPS, HostPort: rest}, true
	case "socks":
		return Spec{Kind: SOCKS, HostPort: rest}, true
	default:
		return Spec{}, false
	}
}

// ParsePAC decodes the resolver token form. Only the first ";"-separated
// element of a PAC result list is considered.
func ParsePAC(raw string) (Spec, bool) {
	first := raw
	if idx := strings.IndexByte(first, ';'); idx >= 0 {
		first = first[:idx]
	}
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return Spec{}, false
	}
	switch strings.ToUpper(fields[0]) {
	case "DIRECT":
		return Spec{Kind: Direct}, true
	case "PROXY":
		if len(fields) < 2 {
			return Spec{}, false
		}
		return Spec{Kind: HTTP, HostPort: fields[1]}, true
	case "HTTPS":
		if len(fields) < 2 {
			return Spec{}, false
		}
		return Spec{Kind: HTTPS, HostPort: fields[1]}, true
	case "SOCKS", "SOCKS5":
		if len(fields) < 2 {
			return Spec{}, false
		}
		return Spec{Kind: SOCKS, HostPort: fields[1]}, true
	default:
		return Spec{}, false
	}
}

// String renders the external token form.
func (s Spec) String() string {
	switch s.Kind {
	case HTTP:
		return "PROXY " + s.HostPort
	case HTTPS:
		return "HTTPS " + s.HostPort
	case SOCKS:
		return "SOCKS " + s.HostPort
	default:
		return "DIRECT"
	}
}

// Token is the bucket identity used by outcome aggregation: the proxy
// host:port, or "DIRECT".
func (s Spec) Token() string {
	if s.Kind == Direct {
		return "DIRECT"
	}
	return s.HostPort
}

// URL converts the spec into a proxy URL usable by http.Transport.
// Direct routes have no proxy URL (ok=false).
func (s Spec) URL() (*url.URL, bool) {
	var scheme string
	switch s.Kind {
	case HTTP:
		scheme = "http"
	case HTTPS:
		scheme = "https"
	case SOCKS:
		scheme = "socks5"
	default:
		return nil, false
	}
	return &url.URL{Scheme: scheme, Host: s.HostPort}, true
}
