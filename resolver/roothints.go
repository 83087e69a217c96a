package resolver

import "net/netip"

// RootHint is one IANA root server's published address.
type RootHint struct {
	Name string
	IPv4 netip.Addr
	IPv6 netip.Addr
}

// RootHints is the starting nameserver set for iterative resolution
// when no closer zone cut is cached, the published IANA root server
// addresses as of this writing.
var RootHints = []RootHint{
	{"a.root-servers.net", netip.MustParseAddr("198.41.0.4"), netip.MustParseAddr("2001:503:ba3e::2:30")},
	{"b.root-servers.net", netip.MustParseAddr("170.247.170.2"), netip.MustParseAddr("2801:1b8:10::b")},
	{"c.root-servers.net", netip.MustParseAddr("192.33.4.12"), netip.MustParseAddr("2001:500:2::c")},
	{"d.root-servers.net", netip.MustParseAddr("199.7.91.13"), netip.MustParseAddr("2001:500:2d::d")},
	{"e.root-servers.net", netip.MustParseAddr("192.203.230.10"), netip.MustParseAddr("2001:500:a8::e")},
	{"f.root-servers.net", netip.MustParseAddr("192.5.5.241"), netip.MustParseAddr("2001:500:2f::f")},
	{"g.root-servers.net", netip.MustParseAddr("192.112.36.4"), netip.MustParseAddr("2001:500:12::d0d")},
	{"h.root-servers.net", netip.MustParseAddr("198.97.190.53"), netip.MustParseAddr("2001:500:1::53")},
	{"i.root-servers.net", netip.MustParseAddr("192.36.148.17"), netip.MustParseAddr("2001:7fe::53")},
	{"j.root-servers.net", netip.MustParseAddr("192.58.128.30"), netip.MustParseAddr("2001:503:c27::2:30")},
	{"k.root-servers.net", netip.MustParseAddr("193.0.14.129"), netip.MustParseAddr("2001:7fd::1")},
	{"l.root-servers.net", netip.MustParseAddr("199.7.83.42"), netip.MustParseAddr("2001:500:9f::42")},
	{"m.root-servers.net", netip.MustParseAddr("202.12.27.33"), netip.MustParseAddr("2001:dc3::35")},
}

// RootAddrs returns every root hint address, IPv6 first to match the
// preference order nameserver selection applies.
func RootAddrs() []netip.Addr {
	addrs := make([]netip.Addr, 0, len(RootHints)*2)
	for _, h := range RootHints {
		if h.IPv6.IsValid() {
			addrs = append(addrs, h.IPv6)
		}
	}
	for _, h := range RootHints {
		if h.IPv4.IsValid() {
			addrs = append(addrs, h.IPv4)
		}
	}
	return addrs
}
