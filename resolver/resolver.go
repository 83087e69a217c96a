package resolver

import (
	"context"
	"crypto/rand"
	"math/big"
	"net"
	"net/netip"
	"time"

	"github.com/lattice-dns/dnscore/dnsmsg"
	"github.com/lattice-dns/dnscore/dnssec"
)

// DefaultMaxReferrals bounds an iterative resolve.
const DefaultMaxReferrals = 20

// Resolver implements both the iterative referral chaser and the stub
// resolver over one shared state: transport, caches and metrics.
type Resolver struct {
	Transport    Transport
	Records      *RecordCache
	Nameservers  *NameserverCache
	Upstreams    []netip.Addr // stub-mode recursive servers
	MaxReferrals int
	QueryTimeout time.Duration
	Metrics      *Metrics

	// Disk, if set, backs Records with a pebble-based warm-start source:
	// a cache miss checks Disk before going to the network, and a fresh
	// positive answer is persisted there too, so a restarted resolver
	// doesn't have to re-walk every referral chain from the root.
	Disk *DiskCache
}

// New returns an iterative Resolver seeded with the IANA root hints.
func New(transport Transport) *Resolver {
	r := &Resolver{
		Transport:    transport,
		Records:      NewRecordCache(),
		Nameservers:  NewNameserverCache(),
		MaxReferrals: DefaultMaxReferrals,
		QueryTimeout: QueryTimeout,
	}
	for _, addr := range RootAddrs() {
		r.Nameservers.Put(dnsmsg.Root(), addr, 365*24*time.Hour)
	}
	return r
}

// ResolveMessage implements dnssec.InternalResolver, letting a
// Validator fetch DNSKEY/DS records through this same resolver.
func (r *Resolver) ResolveMessage(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (*dnsmsg.Message, error) {
	return r.resolveMessage(ctx, name, typ, class, newLoopGuard())
}

// Resolve runs the iterative referral chaser for (name, type, class)
// and returns the answer RRset.
func (r *Resolver) Resolve(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) ([]*dnsmsg.Resource, error) {
	msg, err := r.resolveMessage(ctx, name, typ, class, newLoopGuard())
	if err != nil {
		return nil, err
	}
	return answerRRset(msg, name, typ), nil
}

func (r *Resolver) resolveMessage(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, guard *loopGuard) (*dnsmsg.Message, error) {
	release, err := guard.Enter(name, typ, class)
	if err != nil {
		return nil, err
	}
	defer release()

	if records, _, ok := r.Records.Get(name, typ, class); ok {
		r.countCache(true)
		return syntheticAnswer(name, typ, class, records), nil
	}
	if records, ok := r.loadDiskWarmStart(name, typ, class); ok {
		r.countCache(true)
		return syntheticAnswer(name, typ, class, records), nil
	}
	r.countCache(false)

	if len(r.Upstreams) > 0 {
		return r.resolveStub(ctx, name, typ, class, guard)
	}
	return r.resolveIterative(ctx, name, typ, class, guard)
}

func (r *Resolver) resolveIterative(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, guard *loopGuard) (*dnsmsg.Message, error) {
	// DS records are owned by the child name but served by the parent
	// zone (RFC 4035 section 3.2.1): a delegation's child zone has no
	// obligation to answer queries for its own DS record, and answering
	// from the child's own authoritative servers (which Best(name) would
	// happily return if a prior A/AAAA lookup already cached them) would
	// yield a spurious NODATA instead of the parent-served DS-or-NSEC
	// proof. Start nameserver selection one zone cut higher so the query
	// lands on the parent, while still asking the parent about name
	// itself.
	lookupZone := name
	if typ == dnsmsg.DS && !name.IsRoot() {
		lookupZone = name.Parent()
	}
	servers := r.Nameservers.Best(lookupZone)
	referrals := 0

	for referrals < r.MaxReferrals {
		if len(servers) == 0 {
			return nil, ErrNoNameservers
		}
		server, rest := pickServer(servers)

		msg, err := r.query(ctx, server, name, typ, class)
		if err != nil {
			servers = rest
			continue
		}

		switch classifyResponse(msg, name, typ) {
		case classAnswer:
			r.cachePositive(name, typ, class, msg)
			r.countQuery("answer")
			return msg, nil

		case classNegative:
			r.cacheNegative(name, typ, class, msg)
			r.countQuery("nxdomain")
			return msg, ErrNxDomain

		case classReferral:
			next, err := r.followReferral(ctx, msg, guard)
			if err != nil {
				return nil, err
			}
			if len(next) == 0 {
				r.countQuery("no_progress")
				return nil, ErrNoProgress
			}
			servers = next
			referrals++
			if r.Metrics != nil {
				r.Metrics.Referrals.Observe(float64(referrals))
			}

		default:
			r.countQuery("no_progress")
			return nil, ErrNoProgress
		}
	}
	r.countQuery("referral_exhausted")
	return nil, ErrReferralExhausted
}

// followReferral caches the NS records' glue (or resolves it when
// missing) and returns the address set for the delegated zone.
func (r *Resolver) followReferral(ctx context.Context, msg *dnsmsg.Message, guard *loopGuard) ([]netip.Addr, error) {
	var nsNames []dnsmsg.Name
	var zone dnsmsg.Name
	for _, rr := range msg.Authority {
		if rr.Type != dnsmsg.NS {
			continue
		}
		zone = rr.Name
		if ns, ok := rr.Data.(*dnsmsg.RDataLabel); ok {
			nsNames = append(nsNames, ns.Label)
		}
	}
	if len(nsNames) == 0 {
		return nil, nil
	}

	ttl := 24 * time.Hour
	for _, rr := range msg.Additional {
		switch rd := rr.Data.(type) {
		case *dnsmsg.RDataIP:
			addr, ok := ipToAddr(rd.IP)
			if !ok {
				continue
			}
			for _, ns := range nsNames {
				if rr.Name.EqualFold(ns) {
					r.Nameservers.Put(zone, addr, time.Duration(rr.TTL)*time.Second)
				}
			}
		}
	}

	if addrs := r.Nameservers.Get(zone); len(addrs) > 0 {
		return addrs, nil
	}

	// No glue: resolve a nameserver name directly, guarded against the
	// same loop protector so a malicious delegation can't recurse forever.
	for _, ns := range nsNames {
		rrset, err := r.resolveGlue(ctx, ns, guard)
		if err != nil {
			continue
		}
		for _, rr := range rrset {
			rd, ok := rr.Data.(*dnsmsg.RDataIP)
			if !ok {
				continue
			}
			if addr, ok := ipToAddr(rd.IP); ok {
				r.Nameservers.Put(zone, addr, ttl)
			}
		}
	}
	return r.Nameservers.Get(zone), nil
}

func (r *Resolver) resolveGlue(ctx context.Context, ns dnsmsg.Name, guard *loopGuard) ([]*dnsmsg.Resource, error) {
	msg, err := r.resolveMessage(ctx, ns, dnsmsg.AAAA, dnsmsg.IN, guard)
	var out []*dnsmsg.Resource
	if err == nil {
		out = append(out, answerRRset(msg, ns, dnsmsg.AAAA)...)
	}
	msg, err2 := r.resolveMessage(ctx, ns, dnsmsg.A, dnsmsg.IN, guard)
	if err2 == nil {
		out = append(out, answerRRset(msg, ns, dnsmsg.A)...)
	}
	if len(out) == 0 && err != nil {
		return nil, err
	}
	return out, nil
}

// resolveStub issues one recursion-desired query and follows CNAME
// chains.
func (r *Resolver) resolveStub(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, guard *loopGuard) (*dnsmsg.Message, error) {
	current := name
	for hops := 0; hops < r.MaxReferrals; hops++ {
		if len(r.Upstreams) == 0 {
			return nil, ErrNoNameservers
		}
		server, _ := pickServer(r.Upstreams)
		msg, err := r.query(ctx, server, current, typ, class)
		if err != nil {
			return nil, err
		}

		if len(answerRRset(msg, current, typ)) > 0 {
			r.cachePositive(name, typ, class, msg)
			return msg, nil
		}
		cname := cnameTarget(msg, current)
		if cname.IsRoot() {
			r.cacheNegative(name, typ, class, msg)
			return msg, ErrNxDomain
		}
		current = cname
	}
	return nil, ErrReferralExhausted
}

type responseClass int

const (
	classNoProgress responseClass = iota
	classAnswer
	classNegative
	classReferral
)

func classifyResponse(msg *dnsmsg.Message, name dnsmsg.Name, typ dnsmsg.Type) responseClass {
	rc := msg.Bits.GetRCode()
	if rc == dnsmsg.ErrName {
		return classNegative
	}
	if len(answerRRset(msg, name, typ)) > 0 {
		return classAnswer
	}
	if !cnameTarget(msg, name).IsRoot() {
		return classAnswer
	}
	for _, rr := range msg.Authority {
		if rr.Type == dnsmsg.SOA {
			return classNegative
		}
	}
	for _, rr := range msg.Authority {
		if rr.Type == dnsmsg.NS && rr.Name.IsAncestorOrEqual(name) {
			return classReferral
		}
	}
	return classNoProgress
}

func answerRRset(msg *dnsmsg.Message, name dnsmsg.Name, typ dnsmsg.Type) []*dnsmsg.Resource {
	var out []*dnsmsg.Resource
	for _, rr := range msg.Answer {
		if rr.Type == typ && rr.Name.EqualFold(name) {
			out = append(out, rr)
		}
	}
	return out
}

func cnameTarget(msg *dnsmsg.Message, name dnsmsg.Name) dnsmsg.Name {
	for _, rr := range msg.Answer {
		if rr.Type == dnsmsg.CNAME && rr.Name.EqualFold(name) {
			if rd, ok := rr.Data.(*dnsmsg.RDataLabel); ok {
				return rd.Label
			}
		}
	}
	return dnsmsg.Root()
}

func (r *Resolver) query(ctx context.Context, server netip.Addr, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (*dnsmsg.Message, error) {
	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	q := dnsmsg.NewQuery(name.String(), class, typ)
	q.Bits.SetRecDesired(false)
	q.Randomize0x20()

	wire, err := q.MarshalBinary()
	if err != nil {
		return nil, err
	}

	resp, err := r.Transport.Send(qctx, server, wire, false)
	if err != nil {
		return nil, err
	}

	msg := &dnsmsg.Message{}
	if err := msg.UnmarshalBinary(resp); err != nil {
		return nil, ErrFormat
	}
	if msg.Bits.IsTrunc() {
		resp, err = r.Transport.Send(qctx, server, wire, true)
		if err != nil {
			return nil, err
		}
		msg = &dnsmsg.Message{}
		if err := msg.UnmarshalBinary(resp); err != nil {
			return nil, ErrFormat
		}
	}
	if len(msg.Question) == 0 || !msg.Question[0].Name.EqualFold(name) {
		return nil, ErrFormat
	}
	if msg.Bits.GetRCode() == dnsmsg.ErrServFail || msg.Bits.GetRCode() == dnsmsg.ErrRefused {
		return nil, ErrServerFailure
	}
	return msg, nil
}

func (r *Resolver) queryTimeout() time.Duration {
	if r.QueryTimeout > 0 {
		return r.QueryTimeout
	}
	return QueryTimeout
}

func (r *Resolver) cachePositive(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, msg *dnsmsg.Message) {
	rrset := answerRRset(msg, name, typ)
	if len(rrset) == 0 {
		return
	}
	r.Records.Put(name, typ, class, rrset, dnssec.Unsigned, MinTTL(rrset))
	if r.Disk != nil {
		r.Disk.Store(name, typ, class, msg)
	}
}

// loadDiskWarmStart checks the optional on-disk cache for (name, type,
// class), promoting a hit into Records so subsequent lookups avoid the
// disk. TTLs are taken at face value from the persisted message since
// DiskCache does not track elapsed time across a restart — a warm
// start trades some staleness for skipping the referral walk.
func (r *Resolver) loadDiskWarmStart(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) ([]*dnsmsg.Resource, bool) {
	if r.Disk == nil {
		return nil, false
	}
	msg, ok, err := r.Disk.Load(name, typ, class)
	if err != nil || !ok {
		return nil, false
	}
	rrset := answerRRset(msg, name, typ)
	if len(rrset) == 0 {
		return nil, false
	}
	r.Records.Put(name, typ, class, rrset, dnssec.Unsigned, MinTTL(rrset))
	return rrset, true
}

func (r *Resolver) cacheNegative(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, msg *dnsmsg.Message) {
	var soa *dnsmsg.Resource
	for _, rr := range msg.Authority {
		if rr.Type == dnsmsg.SOA {
			soa = rr
			break
		}
	}
	var ttl time.Duration
	if soa != nil {
		ttl = NegativeTTL(soa)
	}
	r.Records.Put(name, typ, class, nil, dnssec.Unsigned, ttl)
}

func syntheticAnswer(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, records []*dnsmsg.Resource) *dnsmsg.Message {
	msg := dnsmsg.NewQuery(name.String(), class, typ)
	msg.Answer = records
	msg.Bits.SetResponse(true)
	return msg
}

func (r *Resolver) countQuery(outcome string) {
	if r.Metrics != nil {
		r.Metrics.Queries.WithLabelValues(outcome).Inc()
	}
}

func ipToAddr(ip net.IP) (netip.Addr, bool) {
	if v4 := ip.To4(); v4 != nil {
		return netip.AddrFrom4([4]byte(v4)), true
	}
	if v6 := ip.To16(); v6 != nil {
		return netip.AddrFrom16([16]byte(v6)), true
	}
	return netip.Addr{}, false
}

func (r *Resolver) countCache(hit bool) {
	if r.Metrics == nil {
		return
	}
	if hit {
		r.Metrics.CacheHits.Inc()
	} else {
		r.Metrics.CacheMisses.Inc()
	}
}

// pickServer chooses a server with a preference for IPv6, randomised
// among ties, and returns the remaining candidates for rotation on
// failure.
func pickServer(servers []netip.Addr) (netip.Addr, []netip.Addr) {
	var v6, v4 []netip.Addr
	for _, a := range servers {
		if a.Is6() && !a.Is4In6() {
			v6 = append(v6, a)
		} else {
			v4 = append(v4, a)
		}
	}
	if len(v6) > 0 {
		idx := randIndex(len(v6))
		return v6[idx], append(without(v6, idx), v4...)
	}
	idx := randIndex(len(v4))
	return v4[idx], without(v4, idx)
}

func without(addrs []netip.Addr, idx int) []netip.Addr {
	out := make([]netip.Addr, 0, len(addrs)-1)
	out = append(out, addrs[:idx]...)
	out = append(out, addrs[idx+1:]...)
	return out
}

func randIndex(n int) int {
	if n <= 1 {
		return 0
	}
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(i.Int64())
}
