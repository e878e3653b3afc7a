package noproxy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	m := Compile(".foo.com,bar.com:8080")

	require.True(t, m.Match("x.foo.com", "80"))
	require.True(t, m.Match("x.foo.com", "443"))
	require.True(t, m.Match("foo.com", "80"))
	require.True(t, m.Match("bar.com", "8080"))
	require.False(t, m.Match("bar.com", "80"))
	require.False(t, m.Match("foo.com.evil.com", "80"))
	require.False(t, m.Match("unrelated.org", "80"))
}

func TestMatcher_Wildcard(t *testing.T) {
	m := Compile("*")
	require.True(t, m.Match("anything.example", "1234"))
	require.False(t, m.Empty())
}

func TestMatcher_Empty(t *testing.T) {
	for _, list := range []string{"", "   ", ",,,", ":8080,:"} {
		m := Compile(list)
		require.True(t, m.Empty(), "list=%q", list)
		require.False(t, m.Match("foo.com", "80"), "list=%q", list)
	}
}

func TestMatcher_CaseAndSpacing(t *testing.T) {
	m := Compile(" .Foo.COM , BAR.com:8080 ")
	require.True(t, m.Match("X.FOO.com", "443"))
	require.True(t, m.Match("bar.com", "8080"))
}
