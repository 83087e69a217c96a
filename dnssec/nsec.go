package dnssec

import "github.com/lattice-dns/dnscore/dnsmsg"

// CoversNSEC reports whether the NSEC record rr's (owner, next) range
// proves that name does not exist, per RFC 4034 Section 4.1: owner <
// name < next in canonical order, or — for the last NSEC in the zone,
// whose next wraps to the zone apex — name is greater than owner.
func CoversNSEC(rr *dnsmsg.Resource, nsec *dnsmsg.RDataNSEC, name dnsmsg.Name) bool {
	owner := rr.Name
	next := nsec.NextDomain

	if owner.CompareCanonical(next) < 0 {
		return owner.CompareCanonical(name) < 0 && name.CompareCanonical(next) < 0
	}
	// Wraparound: rr is the last NSEC record, covering names after
	// owner and before the zone apex (next).
	return owner.CompareCanonical(name) < 0 || name.CompareCanonical(next) < 0
}

// FindCoveringNSEC returns the first record in nsecs whose range
// covers name, or nil if none does.
func FindCoveringNSEC(name dnsmsg.Name, nsecs []*dnsmsg.Resource) *dnsmsg.Resource {
	for _, rr := range nsecs {
		nsec, ok := rr.Data.(*dnsmsg.RDataNSEC)
		if !ok {
			continue
		}
		if CoversNSEC(rr, nsec, name) {
			return rr
		}
	}
	return nil
}

// FindMatchingNSEC returns the record in nsecs whose owner equals
// name, or nil if there is no exact match (used to prove a name
// exists but lacks a specific type).
func FindMatchingNSEC(name dnsmsg.Name, nsecs []*dnsmsg.Resource) *dnsmsg.Resource {
	for _, rr := range nsecs {
		if rr.Name.EqualFold(name) {
			return rr
		}
	}
	return nil
}

// ProveNameError proves that name does not exist in the zone: an NSEC
// record must cover name directly, and another (or the same) NSEC
// record must cover the wildcard at name's closest encloser, ruling
// out a wildcard match (RFC 4035 Section 5.4).
func ProveNameError(name dnsmsg.Name, nsecs []*dnsmsg.Resource) bool {
	direct := FindCoveringNSEC(name, nsecs)
	if direct == nil {
		return false
	}
	encloser := closestEncloserNSEC(name, nsecs)
	wildcard := encloser.Wildcard(encloser.LabelCount())
	return FindCoveringNSEC(wildcard, nsecs) != nil
}

// closestEncloserNSEC finds the longest ancestor of name that has a
// matching NSEC owner (i.e. provably exists in the zone).
func closestEncloserNSEC(name dnsmsg.Name, nsecs []*dnsmsg.Resource) dnsmsg.Name {
	labels := name.LabelCount()
	for k := 0; k <= labels; k++ {
		candidate := name.ParentAt(k)
		if FindMatchingNSEC(candidate, nsecs) != nil {
			return candidate
		}
	}
	return dnsmsg.Root()
}

// ProveNoData proves that name exists but does not carry records of
// typ: the matching NSEC's type bitmap must omit typ (and, per RFC
// 4035 Section 5.4, must not be a CNAME either since that would
// redirect instead of denying).
func ProveNoData(name dnsmsg.Name, typ dnsmsg.Type, nsecs []*dnsmsg.Resource) bool {
	match := FindMatchingNSEC(name, nsecs)
	if match == nil {
		return false
	}
	nsec, ok := match.Data.(*dnsmsg.RDataNSEC)
	if !ok {
		return false
	}
	return !nsec.HasType(typ) && !nsec.HasType(dnsmsg.CNAME)
}
