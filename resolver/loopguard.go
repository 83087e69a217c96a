package resolver

import (
	"sync"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

// loopKey identifies an in-flight sub-query by (name, type, class).
type loopKey struct {
	name  string
	typ   dnsmsg.Type
	class dnsmsg.Class
}

// loopGuard tracks the (name, type, class) triples currently being
// resolved within one top-level Resolve call. Re-entering with an
// identical triple — whether from a referral chase, a glue lookup, or
// a validator fetching DS/DNSKEY — raises ErrResolveLoop instead of
// recursing forever.
type loopGuard struct {
	mu      sync.Mutex
	pending map[loopKey]bool
}

func newLoopGuard() *loopGuard {
	return &loopGuard{pending: make(map[loopKey]bool)}
}

// Enter records (name, type, class) as in-flight and returns a release
// function to call when the sub-resolve completes, by success or
// error. The returned function satisfies the narrow interface the
// DNSSEC validator uses to scope its own DS/DNSKEY fetches to the same
// loop protection as ordinary referral chasing.
func (g *loopGuard) Enter(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (func(), error) {
	key := loopKey{name: name.String(), typ: typ, class: class}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending[key] {
		return nil, ErrResolveLoop
	}
	g.pending[key] = true
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.pending, key)
	}, nil
}
