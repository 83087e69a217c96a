package dnssec

import (
	"errors"
	"time"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

var (
	// ErrSignatureExpired indicates the RRSIG has expired.
	ErrSignatureExpired = errors.New("dnssec: signature expired")
	// ErrSignatureNotYetValid indicates the RRSIG inception time is in the future.
	ErrSignatureNotYetValid = errors.New("dnssec: signature not yet valid")
	// ErrNoMatchingKey indicates no DNSKEY matched the RRSIG key tag.
	ErrNoMatchingKey = errors.New("dnssec: no matching DNSKEY for RRSIG")
	// ErrInvalidSignature indicates cryptographic verification failed.
	ErrInvalidSignature = errors.New("dnssec: signature verification failed")
	// ErrUnsupportedAlgorithm indicates the algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.New("dnssec: unsupported algorithm")
	// ErrInvalidKey indicates the public key format is invalid.
	ErrInvalidKey = errors.New("dnssec: invalid public key")
	// ErrTypeMismatch indicates the RRset type doesn't match RRSIG TypeCovered.
	ErrTypeMismatch = errors.New("dnssec: RRset type does not match RRSIG TypeCovered")
)

// VerifyRRSIG verifies an RRSIG signature over an RRset against one
// candidate DNSKEY, using the standard-library crypto provider. It is
// the single-key primitive the Validator's trust-chain walk runs
// against every DNSKEY it considers; embedders doing one-shot
// verification outside a full trust chain can call it directly.
func VerifyRRSIG(rrsig *dnsmsg.RDataRRSIG, key *dnsmsg.RDataDNSKEY, rrset []*dnsmsg.Resource) error {
	return VerifyRRSIGAt(rrsig, key, rrset, time.Now())
}

// VerifyRRSIGAt is VerifyRRSIG at a caller-supplied time, useful for
// testing or re-checking historical records.
func VerifyRRSIGAt(rrsig *dnsmsg.RDataRRSIG, key *dnsmsg.RDataDNSKEY, rrset []*dnsmsg.Resource, at time.Time) error {
	return VerifyRRSIGWith(DefaultProvider, rrsig, key, rrset, at)
}

// VerifyRRSIGWith is VerifyRRSIGAt against a caller-supplied
// CryptoProvider, so the same time/key-tag/algorithm/type checks run
// whether the signature math comes from the standard library or a
// hardware-backed provider.
func VerifyRRSIGWith(crypto CryptoProvider, rrsig *dnsmsg.RDataRRSIG, key *dnsmsg.RDataDNSKEY, rrset []*dnsmsg.Resource, at time.Time) error {
	now := uint32(at.Unix())
	if dnsmsg.SerialBefore(rrsig.Expiration, now) {
		return ErrSignatureExpired
	}
	if dnsmsg.SerialBefore(now, rrsig.Inception) {
		return ErrSignatureNotYetValid
	}
	if KeyTag(key) != rrsig.KeyTag {
		return ErrNoMatchingKey
	}
	if key.Algorithm != rrsig.Algorithm {
		return ErrNoMatchingKey
	}
	if len(rrset) > 0 && rrset[0].Type != rrsig.TypeCovered {
		return ErrTypeMismatch
	}

	signedData, err := BuildSignedData(rrsig, rrset)
	if err != nil {
		return err
	}
	if !crypto.Verify(rrsig.Algorithm, key.PublicKey, signedData, rrsig.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// FindMatchingKey searches a list of DNSKEYs for one whose key tag and
// algorithm match rrsig. Returns nil if no matching key is found.
func FindMatchingKey(rrsig *dnsmsg.RDataRRSIG, keys []*dnsmsg.RDataDNSKEY) *dnsmsg.RDataDNSKEY {
	for _, key := range keys {
		if KeyTag(key) == rrsig.KeyTag && key.Algorithm == rrsig.Algorithm {
			return key
		}
	}
	return nil
}
