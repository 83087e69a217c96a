package resolver

import (
	"context"

	"github.com/lattice-dns/dnscore/dnsmsg"
	"github.com/lattice-dns/dnscore/dnssec"
)

// SecureResolver wraps a Resolver with DNSSEC validation: every answer
// it returns has gone through dnssec.Validator, using the same
// Resolver (and its caches) to fetch supporting DNSKEY/DS records.
type SecureResolver struct {
	Resolver *Resolver
	Anchors  *dnssec.TrustAnchorStore
	Crypto   dnssec.CryptoProvider
}

// NewSecureResolver builds a SecureResolver over an iterative or stub
// Resolver, using the IANA root trust anchor and the standard-library
// crypto provider unless overridden.
func NewSecureResolver(r *Resolver) *SecureResolver {
	return &SecureResolver{
		Resolver: r,
		Anchors:  dnssec.DefaultTrustAnchors(),
		Crypto:   dnssec.DefaultProvider,
	}
}

// Resolve performs a resolve and validates the result, returning the
// RRset only if validation reaches Signed. Unsigned zones (no RRSIGs
// at all) are returned as-is: this is the resolver's policy choice to
// tolerate islands without DNSSEC rather than reject them outright.
func (s *SecureResolver) Resolve(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) ([]*dnsmsg.Resource, dnssec.Result, error) {
	guard := newLoopGuard()
	msg, err := s.Resolver.resolveMessage(ctx, name, typ, class, guard)
	if err != nil && err != ErrNxDomain {
		return nil, dnssec.Indeterminate, err
	}

	rrset := answerRRset(msg, name, typ)
	validator := &dnssec.Validator{
		Anchors:  s.Anchors,
		Crypto:   s.Crypto,
		Resolver: s.Resolver,
		Guard:    guard,
	}

	result, verr := validator.Validate(ctx, name, typ, class, rrset, msg)
	if verr != nil {
		return nil, result, verr
	}

	switch result {
	case dnssec.Bogus:
		return nil, result, ErrBogus
	case dnssec.Signed, dnssec.Unsigned:
		if err == ErrNxDomain {
			return nil, result, ErrNxDomain
		}
		return rrset, result, nil
	default:
		return nil, result, ErrIndeterminate
	}
}
