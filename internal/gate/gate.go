// Package gate decides, from the isAuthenticated cookie alone, whether a
// page request is served or redirected. The remote API is never called.
package gate

import (
	"strings"
	"sync/atomic"
	"time"
)

type Action int

const (
	Allow Action = iota
	RedirectLanding
	RedirectHome
)

func (a Action) String() string {
	switch a {
	case RedirectLanding:
		return "redirect_landing"
	case RedirectHome:
		return "redirect_home"
	}
	return "allow"
}

// Decision is what the gate does with a request.
type Decision struct {
	Action   Action
	Location string // empty when Action is Allow
}

// Decide applies r to path. Authenticated users are sent home from
// guest-only pages, anonymous users are sent to the landing route from
// protected pages. Public prefixes always pass, and so does anything no
// rule mentions.
func (r Rules) Decide(path string, authenticated bool) Decision {
	if authenticated && matchAny(r.GuestOnly, path) {
		return Decision{Action: RedirectHome, Location: r.Home}
	}
	if matchAny(r.Public, path) {
		return Decision{Action: Allow}
	}
	if !authenticated && matchAny(r.Protected, path) {
		return Decision{Action: RedirectLanding, Location: r.Landing}
	}
	return Decision{Action: Allow}
}

func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if match(p, path) {
			return true
		}
	}
	return false
}

// match reports whether path is prefix or below it: /dashboard matches
// /dashboard/stats but not /dashboards.
func match(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Gate holds the current rules. Safe for concurrent use; rules are
// swapped whole on reload.
type Gate struct {
	rules      atomic.Pointer[Rules]
	lastReload atomic.Int64
}

// New returns a gate serving rules.
func New(rules Rules) *Gate {
	g := &Gate{}
	g.Swap(rules)
	return g
}

// Swap replaces the rules.
func (g *Gate) Swap(rules Rules) {
	g.rules.Store(&rules)
	g.lastReload.Store(time.Now().UnixNano())
}

func (g *Gate) Rules() Rules { return *g.rules.Load() }

// LastReload is when the rules were last swapped.
func (g *Gate) LastReload() time.Time { return time.Unix(0, g.lastReload.Load()) }

func (g *Gate) Decide(path string, authenticated bool) Decision {
	return g.rules.Load().Decide(path, authenticated)
}
