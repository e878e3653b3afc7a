package proxyspec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		ok   bool
		spec Spec
	}{
		{"http://proxy:8080", true, Spec{Kind: HTTP, HostPort: "proxy:8080"}},
		{"HTTP://proxy:8080", true, Spec{Kind: HTTP, HostPort: "proxy:8080"}},
		{"https://sec.proxy:3128", true, Spec{Kind: HTTPS, HostPort: "sec.proxy:3128"}},
		{"socks://10.0.0.1:1080", true, Spec{Kind: SOCKS, HostPort: "10.0.0.1:1080"}},
		{"  http://padded:80  ", true, Spec{Kind: HTTP, HostPort: "padded:80"}},
		{"ftp://x", false, Spec{}},
		{"proxy:8080", false, Spec{}},
		{"", false, Spec{}},
	} {
		spec, ok := ParseURL(tc.raw)
		require.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		if tc.ok {
			require.Equal(t, tc.spec, spec, "raw=%q", tc.raw)
		}
	}
}

func TestParseURL_KeepsHostCase(t *testing.T) {
	spec, ok := ParseURL("http://MyProxy:8080")
	require.True(t, ok)
	require.Equal(t, "MyProxy:8080", spec.HostPort)
}

func TestParsePAC(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		ok   bool
		spec Spec
	}{
		{"DIRECT", true, Spec{Kind: Direct}},
		{"PROXY a:8080", true, Spec{Kind: HTTP, HostPort: "a:8080"}},
		{"HTTPS a:443", true, Spec{Kind: HTTPS, HostPort: "a:443"}},
		{"SOCKS a:1080", true, Spec{Kind: SOCKS, HostPort: "a:1080"}},
		{"SOCKS5 a:1080", true, Spec{Kind: SOCKS, HostPort: "a:1080"}},
		{"PROXY a:8080; DIRECT", true, Spec{Kind: HTTP, HostPort: "a:8080"}},
		{"  direct  ", true, Spec{Kind: Direct}},
		{"PROXY", false, Spec{}},
		{"BOGUS a:1", false, Spec{}},
		{"", false, Spec{}},
	} {
		spec, ok := ParsePAC(tc.raw)
		require.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		if tc.ok {
			require.Equal(t, tc.spec, spec, "raw=%q", tc.raw)
		}
	}
}

func TestTokenForm(t *testing.T) {
	require.Equal(t, "PROXY a:8080", Spec{Kind: HTTP, HostPort: "a:8080"}.String())
	require.Equal(t, "DIRECT", Spec{Kind: Direct}.String())
	require.Equal(t, "a:8080", Spec{Kind: HTTP, HostPort: "a:8080"}.Token())
	require.Equal(t, "DIRECT", Spec{Kind: Direct}.Token())
}

func TestProxyURL(t *testing.T) {
	u, ok := Spec{Kind: SOCKS, HostPort: "a:1080"}.URL()
	require.True(t, ok)
	require.Equal(t, "socks5://a:1080", u.String())

	_, ok = Spec{Kind: Direct}.URL()
	require.False(t, ok)
}
