package resolver

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

// fakeTransport answers every query from a canned table keyed by
// question name+type, ignoring the destination server — enough to
// drive the stub resolver and CNAME chasing without real sockets.
type fakeTransport struct {
	answers map[string]*dnsmsg.Message
}

func (f *fakeTransport) Send(ctx context.Context, server netip.Addr, query []byte, stream bool) ([]byte, error) {
	q := &dnsmsg.Message{}
	if err := q.UnmarshalBinary(query); err != nil {
		return nil, err
	}
	key := q.Question[0].Name.String() + q.Question[0].Type.String()
	resp, ok := f.answers[key]
	if !ok {
		resp = dnsmsg.New()
		resp.Bits.SetResponse(true)
		resp.Bits.SetRCode(dnsmsg.ErrName)
	}
	resp.ID = q.ID
	resp.Question = q.Question
	resp.Bits.SetResponse(true)
	return resp.MarshalBinary()
}

func answerMsg(name dnsmsg.Name, typ dnsmsg.Type, rr *dnsmsg.Resource) *dnsmsg.Message {
	m := dnsmsg.New()
	m.Answer = []*dnsmsg.Resource{rr}
	return m
}

func TestResolverStubModeResolvesDirectAnswer(t *testing.T) {
	name := dnsmsg.MustParseName("www.example.com.")
	rr := &dnsmsg.Resource{Name: name, Type: dnsmsg.A, Class: dnsmsg.IN, TTL: 300, Data: &dnsmsg.RDataIP{IP: net.ParseIP("192.0.2.1").To4(), Type: dnsmsg.A}}

	ft := &fakeTransport{answers: map[string]*dnsmsg.Message{
		"www.example.com.A": answerMsg(name, dnsmsg.A, rr),
	}}

	r := New(ft)
	r.Upstreams = []netip.Addr{netip.MustParseAddr("192.0.2.53")}

	rrset, err := r.Resolve(context.Background(), name, dnsmsg.A, dnsmsg.IN)
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if len(rrset) != 1 || rrset[0].Data.String() != rr.Data.String() {
		t.Errorf("unexpected rrset: %+v", rrset)
	}

	// Second resolve should be served from cache, not the transport.
	ft.answers = nil
	rrset2, err := r.Resolve(context.Background(), name, dnsmsg.A, dnsmsg.IN)
	if err != nil {
		t.Fatalf("cached Resolve failed: %s", err)
	}
	if len(rrset2) != 1 {
		t.Errorf("expected cached answer, got %+v", rrset2)
	}
}

func TestResolverStubModeFollowsCNAME(t *testing.T) {
	alias := dnsmsg.MustParseName("alias.example.com.")
	target := dnsmsg.MustParseName("target.example.com.")
	rr := &dnsmsg.Resource{Name: target, Type: dnsmsg.A, Class: dnsmsg.IN, TTL: 300, Data: &dnsmsg.RDataIP{IP: net.ParseIP("192.0.2.2").To4(), Type: dnsmsg.A}}

	cnameMsg := dnsmsg.New()
	cnameMsg.Answer = []*dnsmsg.Resource{
		{Name: alias, Type: dnsmsg.CNAME, Class: dnsmsg.IN, TTL: 300, Data: &dnsmsg.RDataLabel{Label: target, Type: dnsmsg.CNAME}},
	}

	ft := &fakeTransport{answers: map[string]*dnsmsg.Message{
		"alias.example.com.A":  cnameMsg,
		"target.example.com.A": answerMsg(target, dnsmsg.A, rr),
	}}

	r := New(ft)
	r.Upstreams = []netip.Addr{netip.MustParseAddr("192.0.2.53")}

	rrset, err := r.Resolve(context.Background(), alias, dnsmsg.A, dnsmsg.IN)
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if len(rrset) != 1 || !rrset[0].Name.EqualFold(target) {
		t.Errorf("expected CNAME to be followed to target, got %+v", rrset)
	}
}

func TestResolverStubModeNxDomain(t *testing.T) {
	name := dnsmsg.MustParseName("nope.example.com.")
	ft := &fakeTransport{answers: map[string]*dnsmsg.Message{}}

	r := New(ft)
	r.Upstreams = []netip.Addr{netip.MustParseAddr("192.0.2.53")}

	_, err := r.Resolve(context.Background(), name, dnsmsg.A, dnsmsg.IN)
	if err != ErrNxDomain {
		t.Fatalf("expected ErrNxDomain, got %v", err)
	}
}

func TestClassifyResponseReferral(t *testing.T) {
	name := dnsmsg.MustParseName("www.example.com.")
	msg := dnsmsg.New()
	msg.Authority = []*dnsmsg.Resource{
		{Name: dnsmsg.MustParseName("example.com."), Type: dnsmsg.NS, Class: dnsmsg.IN, TTL: 3600, Data: &dnsmsg.RDataLabel{Label: dnsmsg.MustParseName("ns1.example.com."), Type: dnsmsg.NS}},
	}
	if got := classifyResponse(msg, name, dnsmsg.A); got != classReferral {
		t.Errorf("expected classReferral, got %v", got)
	}
}

func TestClassifyResponseNegativeBySOA(t *testing.T) {
	name := dnsmsg.MustParseName("nope.example.com.")
	msg := dnsmsg.New()
	msg.Authority = []*dnsmsg.Resource{
		{Name: dnsmsg.MustParseName("example.com."), Type: dnsmsg.SOA, Class: dnsmsg.IN, TTL: 3600, Data: &dnsmsg.RDataSOA{Minimum: 60}},
	}
	if got := classifyResponse(msg, name, dnsmsg.A); got != classNegative {
		t.Errorf("expected classNegative, got %v", got)
	}
}

func TestRecordCacheTTLExpiry(t *testing.T) {
	c := NewRecordCache()
	name := dnsmsg.MustParseName("example.com.")
	rr := &dnsmsg.Resource{Name: name, Type: dnsmsg.A, Class: dnsmsg.IN, TTL: 1}

	c.Put(name, dnsmsg.A, dnsmsg.IN, []*dnsmsg.Resource{rr}, 0, -time.Second)
	if _, _, ok := c.Get(name, dnsmsg.A, dnsmsg.IN); ok {
		t.Errorf("expected expired entry to miss")
	}
}

func TestLoopGuardDetectsReentry(t *testing.T) {
	g := newLoopGuard()
	name := dnsmsg.MustParseName("example.com.")

	release, err := g.Enter(name, dnsmsg.A, dnsmsg.IN)
	if err != nil {
		t.Fatalf("first Enter failed: %s", err)
	}

	if _, err := g.Enter(name, dnsmsg.A, dnsmsg.IN); err != ErrResolveLoop {
		t.Errorf("expected ErrResolveLoop on reentry, got %v", err)
	}

	release()
	if _, err := g.Enter(name, dnsmsg.A, dnsmsg.IN); err != nil {
		t.Errorf("expected Enter to succeed after release, got %v", err)
	}
}

// recordingTransport answers every query with the same canned message
// and records the destination server of each query sent to it, so a
// test can assert which zone's nameservers an iterative resolve
// actually contacted.
type recordingTransport struct {
	servers []netip.Addr
	answer  *dnsmsg.Message
}

func (rt *recordingTransport) Send(ctx context.Context, server netip.Addr, query []byte, stream bool) ([]byte, error) {
	rt.servers = append(rt.servers, server)
	q := &dnsmsg.Message{}
	if err := q.UnmarshalBinary(query); err != nil {
		return nil, err
	}
	resp := rt.answer
	resp.ID = q.ID
	resp.Question = q.Question
	resp.Bits.SetResponse(true)
	return resp.MarshalBinary()
}

func TestResolveIterativeRoutesDSQueryToParentZone(t *testing.T) {
	child := dnsmsg.MustParseName("child.example.com.")
	parent := dnsmsg.MustParseName("example.com.")
	childAddr := netip.MustParseAddr("192.0.2.10")
	parentAddr := netip.MustParseAddr("192.0.2.20")

	ds := &dnsmsg.Resource{
		Name: child, Type: dnsmsg.DS, Class: dnsmsg.IN, TTL: 3600,
		Data: &dnsmsg.RDataDS{KeyTag: 1, Algorithm: dnsmsg.AlgorithmRSASHA256, DigestType: dnsmsg.DigestSHA256, Digest: []byte{1, 2, 3, 4}},
	}
	rt := &recordingTransport{answer: answerMsg(child, dnsmsg.DS, ds)}

	r := New(rt)
	// child's own authoritative server is cached (e.g. from an earlier
	// A-record lookup), and so is the parent zone's.
	r.Nameservers.Put(child, childAddr, time.Hour)
	r.Nameservers.Put(parent, parentAddr, time.Hour)

	_, err := r.Resolve(context.Background(), child, dnsmsg.DS, dnsmsg.IN)
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if len(rt.servers) == 0 || rt.servers[0] != parentAddr {
		t.Errorf("expected DS query to go to parent zone's nameserver %s, got %v", parentAddr, rt.servers)
	}
}

func TestNameserverCacheBestWalksAncestors(t *testing.T) {
	c := NewNameserverCache()
	zone := dnsmsg.MustParseName("example.com.")
	addr := netip.MustParseAddr("192.0.2.53")
	c.Put(zone, addr, time.Hour)

	got := c.Best(dnsmsg.MustParseName("www.example.com."))
	if len(got) != 1 || got[0] != addr {
		t.Errorf("expected to find zone-cut nameservers via ancestor walk, got %+v", got)
	}
}
