package dnssec

import (
	"encoding/hex"
	"sync"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

// TrustAnchor is a single trusted DS record for a zone, the seed of a
// DNSSEC chain of trust.
type TrustAnchor struct {
	Zone dnsmsg.Name
	DS   *dnsmsg.RDataDS
}

// TrustAnchorStore holds the set of trust anchors a validator starts
// its chain walk from. It is immutable after initialization: callers
// build the full set up front and never mutate it concurrently with
// lookups.
type TrustAnchorStore struct {
	mu      sync.RWMutex
	anchors map[string][]*TrustAnchor
}

// NewTrustAnchorStore creates an empty store.
func NewTrustAnchorStore() *TrustAnchorStore {
	return &TrustAnchorStore{anchors: make(map[string][]*TrustAnchor)}
}

// Add registers a trust anchor for a zone.
func (s *TrustAnchorStore) Add(zone dnsmsg.Name, ds *dnsmsg.RDataDS) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := zone.String()
	s.anchors[key] = append(s.anchors[key], &TrustAnchor{Zone: zone, DS: ds})
}

// For returns the trust anchors configured for a zone, or nil if the
// zone has none (the validator must then walk up from a delegating
// ancestor).
func (s *TrustAnchorStore) For(zone dnsmsg.Name) []*TrustAnchor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchors[zone.String()]
}

// rootTrustAnchor is the IANA-published root zone KSK (KSK-2017, tag
// 20326, algorithm 8/RSASHA256, digest type 2/SHA-256), the well-known
// starting point for validating any chain down from the root.
//
// https://data.iana.org/root-anchors/root-anchors.xml
const rootTrustAnchorDigestHex = "E06D44B80B8F1D39A95C0B0D7C65D08458E880409BBC683457104237C7F8EC8D"

// DefaultTrustAnchors returns a store seeded with the IANA root trust
// anchor, the starting point a resolver uses when no explicit anchors
// are configured.
func DefaultTrustAnchors() *TrustAnchorStore {
	store := NewTrustAnchorStore()
	digest, err := hex.DecodeString(rootTrustAnchorDigestHex)
	if err != nil {
		// Built from a constant; a decode failure here is a bug in
		// this file, not a runtime condition callers can act on.
		panic("dnssec: malformed root trust anchor digest: " + err.Error())
	}
	store.Add(dnsmsg.Root(), &dnsmsg.RDataDS{
		KeyTag:     20326,
		Algorithm:  dnsmsg.AlgorithmRSASHA256,
		DigestType: dnsmsg.DigestSHA256,
		Digest:     digest,
	})
	return store
}
