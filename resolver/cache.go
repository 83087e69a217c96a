package resolver

import (
	"net/netip"
	"sync"
	"time"

	"github.com/lattice-dns/dnscore/dnsmsg"
	"github.com/lattice-dns/dnscore/dnssec"
)

type cacheKey struct {
	name  string
	typ   dnsmsg.Type
	class dnsmsg.Class
}

type recordEntry struct {
	records    []*dnsmsg.Resource
	validation dnssec.Result
	expiry     time.Time
}

// RecordCache is the positive/negative answer cache keyed by
// (name, type, class). A negative entry stores a nil record list
// expiring at insert-time + the SOA's negative caching TTL
// (min(MINIMUM, SOA.ttl)).
type RecordCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*recordEntry
}

func NewRecordCache() *RecordCache {
	return &RecordCache{entries: make(map[cacheKey]*recordEntry)}
}

// Get returns the cached RRset for (name, type, class) if it has not
// yet expired.
func (c *RecordCache) Get(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) ([]*dnsmsg.Resource, dnssec.Result, bool) {
	key := cacheKey{name.String(), typ, class}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, dnssec.Indeterminate, false
	}
	if time.Now().After(e.expiry) {
		return nil, dnssec.Indeterminate, false
	}
	return e.records, e.validation, true
}

// Put inserts an RRset (or, for a negative entry, a nil slice) valid
// for ttl from now. Concurrent resolves racing on the same key each
// insert; the cache enforces last-writer-wins with TTL clamping — a
// fresher validation grade always wins, and among equal grades the
// entry expiring later wins.
func (c *RecordCache) Put(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, records []*dnsmsg.Resource, validation dnssec.Result, ttl time.Duration) {
	key := cacheKey{name.String(), typ, class}
	expiry := time.Now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		if validation < existing.validation {
			return
		}
		if validation == existing.validation && expiry.Before(existing.expiry) {
			return
		}
	}
	c.entries[key] = &recordEntry{records: records, validation: validation, expiry: expiry}
}

// MinTTL returns the smallest TTL among rrset, the basis of a positive
// cache entry's lifetime.
func MinTTL(rrset []*dnsmsg.Resource) time.Duration {
	if len(rrset) == 0 {
		return 0
	}
	min := rrset[0].TTL
	for _, rr := range rrset[1:] {
		if rr.TTL < min {
			min = rr.TTL
		}
	}
	return time.Duration(min) * time.Second
}

// NegativeTTL computes the negative caching TTL for a zone's SOA
// record: min(SOA MINIMUM field, SOA.TTL).
func NegativeTTL(soa *dnsmsg.Resource) time.Duration {
	rd, ok := soa.Data.(*dnsmsg.RDataSOA)
	if !ok {
		return 0
	}
	ttl := soa.TTL
	if rd.Minimum < ttl {
		ttl = rd.Minimum
	}
	return time.Duration(ttl) * time.Second
}

type nsAddr struct {
	ip     netip.Addr
	expire time.Time
}

// NameserverCache maps a delegated zone to the addresses of servers
// known to be authoritative for it.
type NameserverCache struct {
	mu    sync.RWMutex
	zones map[string][]nsAddr
}

func NewNameserverCache() *NameserverCache {
	return &NameserverCache{zones: make(map[string][]nsAddr)}
}

// Put records ip as an address for zone, valid for ttl.
func (c *NameserverCache) Put(zone dnsmsg.Name, ip netip.Addr, ttl time.Duration) {
	key := zone.String()
	expire := time.Now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.zones[key] {
		if a.ip == ip {
			c.zones[key][i].expire = expire
			return
		}
	}
	c.zones[key] = append(c.zones[key], nsAddr{ip: ip, expire: expire})
}

// Get returns the non-expired addresses known for zone, most specific
// zone cut first: callers should query progressively shorter suffixes
// of the target name and use the first non-empty result.
func (c *NameserverCache) Get(zone dnsmsg.Name) []netip.Addr {
	key := zone.String()
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []netip.Addr
	for _, a := range c.zones[key] {
		if now.Before(a.expire) {
			out = append(out, a.ip)
		}
	}
	return out
}

// Best walks zone's ancestors, including zone itself, returning the
// addresses cached for the most specific ancestor that has any.
func (c *NameserverCache) Best(zone dnsmsg.Name) []netip.Addr {
	labels := zone.LabelCount()
	for k := 0; k <= labels; k++ {
		candidate := zone.ParentAt(k)
		if addrs := c.Get(candidate); len(addrs) > 0 {
			return addrs
		}
	}
	return nil
}
