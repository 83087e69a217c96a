package dnssec

import (
	"context"
	"errors"
	"time"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

// Result is the outcome of a validation attempt.
type Result int

const (
	Indeterminate Result = iota
	Unsigned
	Signed
	Bogus
)

func (r Result) String() string {
	switch r {
	case Indeterminate:
		return "Indeterminate"
	case Unsigned:
		return "Unsigned"
	case Signed:
		return "Signed"
	case Bogus:
		return "Bogus"
	default:
		return "Result(?)"
	}
}

// InternalResolver is the narrow collaborator the validator uses to
// fetch DNSKEY/DS sets it doesn't already have, instead of depending
// on a concrete resolver type.
type InternalResolver interface {
	ResolveMessage(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (*dnsmsg.Message, error)
}

// LoopGuard scopes re-entrant DNSKEY/DS fetches the same way the
// resolver scopes referral chasing: validation callbacks that require
// more records inherit the same protector.
type LoopGuard interface {
	Enter(name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (release func(), err error)
}

// Validator implements the DNSSEC validation state machine: positive
// validation by signature, negative validation by NSEC/NSEC3 proof,
// and the trust chain walk from a configured set of anchors.
type Validator struct {
	Anchors  *TrustAnchorStore
	Crypto   CryptoProvider
	Resolver InternalResolver
	Guard    LoopGuard
}

// NewValidator creates a Validator with the default trust anchors and
// the standard-library crypto provider.
func NewValidator(resolver InternalResolver) *Validator {
	return &Validator{
		Anchors:  DefaultTrustAnchors(),
		Crypto:   DefaultProvider,
		Resolver: resolver,
	}
}

// Validate determines whether the RRset answering (name, typ, class)
// — possibly empty, in which case msg's authority section must carry
// an NSEC/NSEC3 denial proof — is Signed, Unsigned, Bogus or
// Indeterminate.
func (v *Validator) Validate(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class, rrset []*dnsmsg.Resource, msg *dnsmsg.Message) (Result, error) {
	if len(rrset) == 0 {
		return v.validateAbsence(ctx, name, typ, msg)
	}

	rrsigs := collectRRSIGs(msg, name, typ)
	if len(rrsigs) == 0 {
		return Unsigned, nil
	}

	now := time.Now()
	var lastErr error
	indeterminate := false
	for _, sig := range rrsigs {
		if !sig.SignerName.IsAncestorOrEqual(name) {
			continue
		}
		if !timeValid(sig, now) {
			continue
		}
		keys, keyResult, err := v.zoneKeys(ctx, sig.SignerName)
		if err != nil {
			lastErr = err
			continue
		}
		if keyResult == Unsigned {
			return Unsigned, nil
		}
		if keyResult == Indeterminate {
			indeterminate = true
			continue
		}
		if keyResult != Signed {
			continue
		}
		if verifySignature(sig, rrset, keys, v.Crypto) {
			return Signed, nil
		}
	}
	if lastErr != nil {
		return Indeterminate, lastErr
	}
	if indeterminate {
		return Indeterminate, nil
	}
	return Bogus, nil
}

// zoneKeys returns the validated DNSKEY set for zone, walking the
// trust chain from a configured anchor: if zone itself carries a
// trust anchor, its DNSKEY set is fetched and checked directly
// against it; otherwise the chain climbs to zone's parent, validating
// a DS RRset signed by the parent's own (recursively trusted) keys.
func (v *Validator) zoneKeys(ctx context.Context, zone dnsmsg.Name) ([]*dnsmsg.RDataDNSKEY, Result, error) {
	if anchors := v.Anchors.For(zone); len(anchors) > 0 {
		ds := make([]*dnsmsg.RDataDS, len(anchors))
		for i, a := range anchors {
			ds[i] = a.DS
		}
		return v.fetchAndValidateDNSKEYSet(ctx, zone, ds)
	}

	if zone.IsRoot() {
		return nil, Indeterminate, errors.New("dnssec: no trust anchor for root zone")
	}

	// The DS RRset for zone is served by zone's parent, not zone itself
	// (RFC 4035 section 3.2.1); v.resolve dispatches through the same
	// InternalResolver the iterative resolver uses, which special-cases
	// dnsmsg.DS to start server selection at the parent zone cut.
	dsMsg, err := v.resolve(ctx, zone, dnsmsg.DS, dnsmsg.IN)
	if err != nil {
		return nil, Indeterminate, err
	}
	dsRRs := extractType(dsMsg, zone, dnsmsg.DS)
	if len(dsRRs) == 0 {
		if proveDSOptOut(dsMsg, zone) {
			return nil, Unsigned, nil
		}
		return nil, Indeterminate, nil
	}

	dsResult, err := v.Validate(ctx, zone, dnsmsg.DS, dnsmsg.IN, dsRRs, dsMsg)
	if err != nil {
		return nil, Indeterminate, err
	}
	if dsResult != Signed {
		return nil, Bogus, nil
	}

	ds := make([]*dnsmsg.RDataDS, 0, len(dsRRs))
	for _, rr := range dsRRs {
		if d, ok := rr.Data.(*dnsmsg.RDataDS); ok {
			ds = append(ds, d)
		}
	}
	return v.fetchAndValidateDNSKEYSet(ctx, zone, ds)
}

// fetchAndValidateDNSKEYSet fetches zone's DNSKEY RRset, confirms at
// least one key matches a trusted DS, and verifies the DNSKEY RRset's
// own (self-)signature against that key set.
func (v *Validator) fetchAndValidateDNSKEYSet(ctx context.Context, zone dnsmsg.Name, trusted []*dnsmsg.RDataDS) ([]*dnsmsg.RDataDNSKEY, Result, error) {
	dkMsg, err := v.resolve(ctx, zone, dnsmsg.DNSKEY, dnsmsg.IN)
	if err != nil {
		return nil, Indeterminate, err
	}
	dkRRs := extractType(dkMsg, zone, dnsmsg.DNSKEY)
	if len(dkRRs) == 0 {
		return nil, Bogus, errors.New("dnssec: no DNSKEY RRset at " + zone.String())
	}

	keys := make([]*dnsmsg.RDataDNSKEY, 0, len(dkRRs))
	for _, rr := range dkRRs {
		if k, ok := rr.Data.(*dnsmsg.RDataDNSKEY); ok {
			keys = append(keys, k)
		}
	}

	matched := false
	for _, ds := range trusted {
		for _, k := range keys {
			if VerifyDSWith(v.Crypto, ds, zone, k) {
				matched = true
			}
		}
	}
	if !matched {
		return nil, Bogus, nil
	}

	rrsigs := collectRRSIGs(dkMsg, zone, dnsmsg.DNSKEY)
	now := time.Now()
	for _, sig := range rrsigs {
		if !sig.SignerName.EqualFold(zone) || !timeValid(sig, now) {
			continue
		}
		if verifySignature(sig, dkRRs, keys, v.Crypto) {
			return keys, Signed, nil
		}
	}
	return nil, Bogus, nil
}

func (v *Validator) resolve(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (*dnsmsg.Message, error) {
	if v.Resolver == nil {
		return nil, errors.New("dnssec: validator has no resolver configured")
	}
	if v.Guard != nil {
		release, err := v.Guard.Enter(name, typ, class)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	return v.Resolver.ResolveMessage(ctx, name, typ, class)
}

// validateAbsence proves a negative answer via NSEC or NSEC3,
// requiring every supporting RRset to itself validate.
func (v *Validator) validateAbsence(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, msg *dnsmsg.Message) (Result, error) {
	var nsecs, nsec3s []*dnsmsg.Resource
	for _, rr := range msg.Authority {
		switch rr.Type {
		case dnsmsg.NSEC:
			nsecs = append(nsecs, rr)
		case dnsmsg.NSEC3:
			nsec3s = append(nsec3s, rr)
		}
	}

	if len(nsecs) > 0 {
		if result, err := v.validateSupporting(ctx, nsecs, dnsmsg.NSEC, msg); err != nil || result != Signed {
			if err != nil {
				return Indeterminate, err
			}
			return Bogus, nil
		}
		if ProveNameError(name, nsecs) || ProveNoData(name, typ, nsecs) {
			return Signed, nil
		}
		return Bogus, nil
	}

	if len(nsec3s) > 0 {
		if result, err := v.validateSupporting(ctx, nsec3s, dnsmsg.NSEC3, msg); err != nil || result != Signed {
			if err != nil {
				return Indeterminate, err
			}
			return Bogus, nil
		}
		return v.validateNSEC3Absence(name, typ, nsec3s)
	}

	return Indeterminate, nil
}

// validateSupporting groups records of typ by owner name and
// validates each group's RRSIG, since an authority section may carry
// NSEC/NSEC3 RRsets owned by more than one name.
func (v *Validator) validateSupporting(ctx context.Context, rrs []*dnsmsg.Resource, typ dnsmsg.Type, msg *dnsmsg.Message) (Result, error) {
	byOwner := make(map[string][]*dnsmsg.Resource)
	var order []string
	for _, rr := range rrs {
		key := rr.Name.String()
		if _, ok := byOwner[key]; !ok {
			order = append(order, key)
		}
		byOwner[key] = append(byOwner[key], rr)
	}
	for _, key := range order {
		group := byOwner[key]
		result, err := v.Validate(ctx, group[0].Name, typ, group[0].Class, group, msg)
		if err != nil {
			return Indeterminate, err
		}
		if result != Signed {
			return result, nil
		}
	}
	return Signed, nil
}

func (v *Validator) validateNSEC3Absence(name dnsmsg.Name, typ dnsmsg.Type, nsec3s []*dnsmsg.Resource) (Result, error) {
	first, ok := nsec3s[0].Data.(*dnsmsg.RDataNSEC3)
	if !ok {
		return Bogus, errors.New("dnssec: malformed NSEC3 record")
	}
	alg, iter, salt := first.HashAlgorithm, first.Iterations, first.Salt

	encloser, nextCloser, _, err := ClosestEncloser(name, nsec3s, alg, iter, salt)
	if err != nil {
		return Bogus, err
	}

	coveringNextCloser, err := FindCoveringNSEC3(nextCloser, nsec3s, alg, iter, salt)
	if err != nil {
		return Bogus, err
	}
	if coveringNextCloser == nil {
		return Bogus, nil
	}

	if typ == dnsmsg.DS {
		if rd, ok := coveringNextCloser.Data.(*dnsmsg.RDataNSEC3); ok && rd.IsOptOut() {
			return Unsigned, nil
		}
	}

	wildcard := encloser.Wildcard(encloser.LabelCount())
	wildcardMatch, err := FindMatchingNSEC3(wildcard, nsec3s, alg, iter, salt)
	if err != nil {
		return Bogus, err
	}
	if wildcardMatch != nil {
		// The wildcard exists; this is a no-data proof at the wildcard,
		// so its type bitmap must omit typ (and CNAME).
		if rd, ok := wildcardMatch.Data.(*dnsmsg.RDataNSEC3); ok && !rd.HasType(typ) && !rd.HasType(dnsmsg.CNAME) {
			return Signed, nil
		}
		return Bogus, nil
	}
	coveringWildcard, err := FindCoveringNSEC3(wildcard, nsec3s, alg, iter, salt)
	if err != nil {
		return Bogus, err
	}
	if coveringWildcard == nil {
		return Bogus, nil
	}
	return Signed, nil
}

// proveDSOptOut checks whether dsMsg's authority section carries an
// NSEC3 opt-out proof for zone's non-existent DS.
func proveDSOptOut(dsMsg *dnsmsg.Message, zone dnsmsg.Name) bool {
	var nsec3s []*dnsmsg.Resource
	for _, rr := range dsMsg.Authority {
		if rr.Type == dnsmsg.NSEC3 {
			nsec3s = append(nsec3s, rr)
		}
	}
	if len(nsec3s) == 0 {
		return false
	}
	first, ok := nsec3s[0].Data.(*dnsmsg.RDataNSEC3)
	if !ok {
		return false
	}
	rr, err := FindCoveringNSEC3(zone, nsec3s, first.HashAlgorithm, first.Iterations, first.Salt)
	if err != nil || rr == nil {
		return false
	}
	rd, ok := rr.Data.(*dnsmsg.RDataNSEC3)
	return ok && rd.IsOptOut()
}

func collectRRSIGs(msg *dnsmsg.Message, name dnsmsg.Name, typ dnsmsg.Type) []*dnsmsg.RDataRRSIG {
	var out []*dnsmsg.RDataRRSIG
	for _, section := range [][]*dnsmsg.Resource{msg.Answer, msg.Authority} {
		for _, rr := range section {
			if rr.Type != dnsmsg.RRSIG || !rr.Name.EqualFold(name) {
				continue
			}
			sig, ok := rr.Data.(*dnsmsg.RDataRRSIG)
			if !ok || sig.TypeCovered != typ {
				continue
			}
			out = append(out, sig)
		}
	}
	return out
}

func extractType(msg *dnsmsg.Message, name dnsmsg.Name, typ dnsmsg.Type) []*dnsmsg.Resource {
	var out []*dnsmsg.Resource
	for _, section := range [][]*dnsmsg.Resource{msg.Answer, msg.Authority} {
		for _, rr := range section {
			if rr.Type == typ && rr.Name.EqualFold(name) {
				out = append(out, rr)
			}
		}
	}
	return out
}

func verifySignature(sig *dnsmsg.RDataRRSIG, rrset []*dnsmsg.Resource, keys []*dnsmsg.RDataDNSKEY, crypto CryptoProvider) bool {
	key := FindMatchingKey(sig, keys)
	if key == nil || !key.IsZoneKey() {
		return false
	}
	data, err := BuildSignedData(sig, rrset)
	if err != nil {
		return false
	}
	return crypto.Verify(key.Algorithm, key.PublicKey, data, sig.Signature)
}

// timeValid checks inception <= now <= expiration using RFC 1982
// serial arithmetic, so a signature validity window that wraps the
// 32-bit Unix epoch is handled correctly.
func timeValid(sig *dnsmsg.RDataRRSIG, now time.Time) bool {
	n := uint32(now.Unix())
	return !dnsmsg.SerialBefore(n, sig.Inception) && !dnsmsg.SerialBefore(sig.Expiration, n)
}
