package dnssec

import (
	"crypto/sha1"
	"encoding/base32"
	"strings"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

var base32HexNoPad = base32.HexEncoding.WithPadding(base32.NoPadding)

// HashName computes the NSEC3 hash of a name per RFC 5155 Section 5:
// IH(salt, x, 0) = H(x || salt), IH(salt, x, k) = H(IH(salt, x, k-1) || salt).
// x is the canonical wire form of the name; the result is iterations+1
// applications of the digest.
func HashName(name dnsmsg.Name, alg dnsmsg.NSEC3HashAlg, iterations uint16, salt []byte) ([]byte, error) {
	if alg != dnsmsg.NSEC3HashSHA1 {
		return nil, ErrUnsupportedAlgorithm
	}
	x := name.Canonical()
	h := sha1.New()
	h.Write(x)
	h.Write(salt)
	sum := h.Sum(nil)
	for i := uint16(0); i < iterations; i++ {
		h.Reset()
		h.Write(sum)
		h.Write(salt)
		sum = h.Sum(nil)
	}
	return sum, nil
}

// nsec3OwnerHash extracts the raw hash from an NSEC3 record's owner
// name (its leftmost label, base32hex-encoded per RFC 5155 Section 1).
func nsec3OwnerHash(owner dnsmsg.Name) ([]byte, bool) {
	labels := owner.Labels()
	if len(labels) == 0 {
		return nil, false
	}
	b, err := base32HexDecode(string(labels[0]))
	if err != nil {
		return nil, false
	}
	return b, true
}

func base32HexDecode(s string) ([]byte, error) {
	return base32HexNoPad.DecodeString(strings.ToUpper(s))
}

// nsec3Covers reports whether the NSEC3 record rr covers hashedName: the
// hash falls strictly between the record's owner hash and its
// NextHashedOwner in hash order, handling the wraparound case where
// the owner hash is the greatest in the hash ring (RFC 5155 section
// 8.4: strict ordering, with the wrapped record recognised by
// owner > next).
func nsec3Covers(owner dnsmsg.Name, rr *dnsmsg.RDataNSEC3, hashedName []byte) bool {
	ownerHash, ok := nsec3OwnerHash(owner)
	if !ok {
		return false
	}
	next := rr.NextHashedOwner

	cmpOwner := compareBytes(ownerHash, hashedName)
	cmpNext := compareBytes(hashedName, next)

	if compareBytes(ownerHash, next) < 0 {
		// Normal case: owner < next in the ring.
		return cmpOwner < 0 && cmpNext < 0
	}
	// Wraparound: this is the last NSEC3 in hash order, and it covers
	// everything after owner and before next (wrapping past the
	// maximum hash value).
	return cmpOwner < 0 || cmpNext < 0
}

func compareBytes(a, b []byte) int {
	la, lb := len(a), len(b)
	m := la
	if lb < m {
		m = lb
	}
	for i := 0; i < m; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

// FindCoveringNSEC3 returns the first record in nsec3s whose hash
// range covers name under the given hash parameters, or nil if none
// does.
func FindCoveringNSEC3(name dnsmsg.Name, nsec3s []*dnsmsg.Resource, alg dnsmsg.NSEC3HashAlg, iterations uint16, salt []byte) (*dnsmsg.Resource, error) {
	hashed, err := HashName(name, alg, iterations, salt)
	if err != nil {
		return nil, err
	}
	for _, rr := range nsec3s {
		rd, ok := rr.Data.(*dnsmsg.RDataNSEC3)
		if !ok {
			continue
		}
		if nsec3Covers(rr.Name, rd, hashed) {
			return rr, nil
		}
	}
	return nil, nil
}

// FindMatchingNSEC3 returns the record in nsec3s whose owner hash
// equals hash(name), or nil if there is no exact match.
func FindMatchingNSEC3(name dnsmsg.Name, nsec3s []*dnsmsg.Resource, alg dnsmsg.NSEC3HashAlg, iterations uint16, salt []byte) (*dnsmsg.Resource, error) {
	hashed, err := HashName(name, alg, iterations, salt)
	if err != nil {
		return nil, err
	}
	for _, rr := range nsec3s {
		ownerHash, ok := nsec3OwnerHash(rr.Name)
		if !ok {
			continue
		}
		if compareBytes(ownerHash, hashed) == 0 {
			return rr, nil
		}
	}
	return nil, nil
}

// ClosestEncloser walks up from name toward the root, returning the
// first ancestor (including name itself) with a matching NSEC3 record
// — the closest encloser in RFC 5155 Section 8.3 terms — along with
// the next-closer name one label below it.
func ClosestEncloser(name dnsmsg.Name, nsec3s []*dnsmsg.Resource, alg dnsmsg.NSEC3HashAlg, iterations uint16, salt []byte) (encloser, nextCloser dnsmsg.Name, match *dnsmsg.Resource, err error) {
	labels := name.LabelCount()
	prev := name
	for k := labels; k >= 0; k-- {
		candidate := name.ParentAt(labels - k)
		rr, ferr := FindMatchingNSEC3(candidate, nsec3s, alg, iterations, salt)
		if ferr != nil {
			return dnsmsg.Name{}, dnsmsg.Name{}, nil, ferr
		}
		if rr != nil {
			return candidate, prev, rr, nil
		}
		prev = candidate
	}
	return dnsmsg.Name{}, dnsmsg.Name{}, nil, nil
}
