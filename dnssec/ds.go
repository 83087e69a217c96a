package dnssec

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

var (
	// ErrUnsupportedDigestType indicates the digest algorithm is not supported.
	ErrUnsupportedDigestType = errors.New("dnssec: unsupported digest type")
)

// ComputeDS creates a DS record from a DNSKEY record using the
// standard-library crypto provider's digest implementation.
func ComputeDS(owner dnsmsg.Name, key *dnsmsg.RDataDNSKEY, digestType dnsmsg.DigestType) (*dnsmsg.RDataDS, error) {
	return ComputeDSWith(DefaultProvider, owner, key, digestType)
}

// ComputeDSWith is ComputeDS against a caller-supplied CryptoProvider,
// so a hardware-backed or FIPS-restricted digest implementation feeds
// the same DS construction.
func ComputeDSWith(crypto CryptoProvider, owner dnsmsg.Name, key *dnsmsg.RDataDNSKEY, digestType dnsmsg.DigestType) (*dnsmsg.RDataDS, error) {
	digest, err := computeDSDigest(crypto, owner, key, digestType)
	if err != nil {
		return nil, err
	}

	return &dnsmsg.RDataDS{
		KeyTag:     KeyTag(key),
		Algorithm:  key.Algorithm,
		DigestType: digestType,
		Digest:     digest,
	}, nil
}

// computeDSDigest hashes owner || DNSKEY RDATA per RFC 4034 section 5.1.4.
func computeDSDigest(crypto CryptoProvider, owner dnsmsg.Name, key *dnsmsg.RDataDNSKEY, digestType dnsmsg.DigestType) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(owner.Canonical())

	// DNSKEY RDATA: Flags (2) + Protocol (1) + Algorithm (1) + PublicKey
	binary.Write(&buf, binary.BigEndian, key.Flags)
	buf.WriteByte(key.Protocol)
	buf.WriteByte(byte(key.Algorithm))
	buf.Write(key.PublicKey)

	return crypto.Digest(digestType, buf.Bytes())
}

// VerifyDS checks if a DS record correctly authenticates a DNSKEY,
// using the standard-library crypto provider's digest implementation.
func VerifyDS(ds *dnsmsg.RDataDS, owner dnsmsg.Name, key *dnsmsg.RDataDNSKEY) bool {
	return VerifyDSWith(DefaultProvider, ds, owner, key)
}

// VerifyDSWith is VerifyDS against a caller-supplied CryptoProvider.
func VerifyDSWith(crypto CryptoProvider, ds *dnsmsg.RDataDS, owner dnsmsg.Name, key *dnsmsg.RDataDNSKEY) bool {
	if ds.KeyTag != KeyTag(key) {
		return false
	}
	if ds.Algorithm != key.Algorithm {
		return false
	}

	digest, err := computeDSDigest(crypto, owner, key, ds.DigestType)
	if err != nil {
		return false
	}

	return bytes.Equal(ds.Digest, digest)
}

// ValidateDelegation validates that a DS record set properly authenticates
// at least one DNSKEY in the child zone's DNSKEY set.
func ValidateDelegation(dsRecords []*dnsmsg.RDataDS, owner dnsmsg.Name, keys []*dnsmsg.RDataDNSKEY) (*dnsmsg.RDataDNSKEY, error) {
	for _, ds := range dsRecords {
		for _, key := range keys {
			if VerifyDS(ds, owner, key) && key.IsKSK() {
				return key, nil
			}
		}
	}
	return nil, errors.New("dnssec: no DS record matches any KSK")
}
