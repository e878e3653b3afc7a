// Package noproxy compiles a comma-separated bypass list (the no_proxy
// environment convention) into a hostname/port predicate.
package noproxy

import "strings"

type rule struct {
	// suffix always carries a leading dot, so "foo.com" in the list
	// matches "foo.com" and "x.foo.com" but never "foo.com.evil.com".
	suffix string
	port   string
}

type Matcher struct {
	all   bool
	rules []rule
}

// Compile parses the raw list. Malformed entries are dropped, an empty or
// unusable value compiles to a never-matching predicate.
func Compile(list string) Matcher {
	value := strings.ToLower(strings.TrimSpace(list))
	if value == "" {
		return Matcher{}
	}
	if value == "*" {
		return Matcher{all: true}
	}

	var rules []rule
	for _, entry := range strings.Split(value, ",") {
		name, port, _ := strings.Cut(strings.TrimSpace(entry), ":")
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, ".") {
			name = "." + name
		}
		rules = append(rules, rule{suffix: name, port: port})
	}
	return Matcher{rules: rules}
}

// Match reports whether hostname (with effective port) is on the bypass
// list. Any single rule matching satisfies the predicate.
func (m Matcher) Match(hostname, port string) bool {
	if m.all {
		return true
	}
	host := "." + strings.ToLower(hostname)
	for _, r := range m.rules {
		if !strings.HasSuffix(host, r.suffix) {
			continue
		}
		if r.port == "" || r.port == port {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher can never match anything.
func (m Matcher) Empty() bool {
	return !m.all && len(m.rules) == 0
}
