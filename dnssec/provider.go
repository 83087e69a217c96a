package dnssec

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"math/big"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

// CryptoProvider is the cryptographic primitive provider consumed by
// the validator: signature verification and digest computation. The
// validator does no crypto of its own beyond this interface, so an
// embedder can swap in a hardware-backed or FIPS-restricted provider.
type CryptoProvider interface {
	// Verify checks a signature over data using the given algorithm
	// and DNSKEY public key material (wire format).
	Verify(algorithm dnsmsg.Algorithm, pubkey, data, signature []byte) bool
	// Digest hashes data with the given DS digest algorithm.
	Digest(digestType dnsmsg.DigestType, data []byte) ([]byte, error)
}

// DefaultProvider is the CryptoProvider backed by the standard
// library's crypto/rsa, crypto/ecdsa and crypto/ed25519 packages.
var DefaultProvider CryptoProvider = stdlibProvider{}

type stdlibProvider struct{}

func (stdlibProvider) Verify(algorithm dnsmsg.Algorithm, pubkey, data, signature []byte) bool {
	var err error
	switch algorithm {
	case dnsmsg.AlgorithmRSASHA256:
		err = verifyRSA(pubkey, data, signature, crypto.SHA256)
	case dnsmsg.AlgorithmRSASHA512:
		err = verifyRSA(pubkey, data, signature, crypto.SHA512)
	case dnsmsg.AlgorithmECDSAP256:
		err = verifyECDSA(pubkey, data, signature, crypto.SHA256, 32)
	case dnsmsg.AlgorithmECDSAP384:
		err = verifyECDSA(pubkey, data, signature, crypto.SHA384, 48)
	case dnsmsg.AlgorithmED25519:
		err = verifyEd25519(pubkey, data, signature)
	default:
		err = ErrUnsupportedAlgorithm
	}
	return err == nil
}

func (stdlibProvider) Digest(digestType dnsmsg.DigestType, data []byte) ([]byte, error) {
	switch digestType {
	case dnsmsg.DigestSHA1:
		h := sha1.Sum(data)
		return h[:], nil
	case dnsmsg.DigestSHA256:
		h := sha256.Sum256(data)
		return h[:], nil
	case dnsmsg.DigestSHA384:
		h := sha512.Sum384(data)
		return h[:], nil
	default:
		return nil, ErrUnsupportedDigestType
	}
}

// verifyRSA verifies an RSA signature per RFC 3110's wire-format public key.
func verifyRSA(pubKeyData, data, sig []byte, hashFunc crypto.Hash) error {
	pubKey, err := parseRSAPublicKey(pubKeyData)
	if err != nil {
		return err
	}

	var hash []byte
	switch hashFunc {
	case crypto.SHA256:
		h := sha256.Sum256(data)
		hash = h[:]
	case crypto.SHA512:
		h := sha512.Sum512(data)
		hash = h[:]
	default:
		return ErrUnsupportedAlgorithm
	}

	if err := rsa.VerifyPKCS1v15(pubKey, hashFunc, hash, sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// parseRSAPublicKey parses an RSA public key from DNSKEY RDATA format (RFC 3110).
// Format: 1-byte or 3-byte exponent length prefix, then exponent, then modulus.
func parseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) < 3 {
		return nil, ErrInvalidKey
	}

	var expLen int
	var offset int

	if data[0] == 0 {
		if len(data) < 4 {
			return nil, ErrInvalidKey
		}
		expLen = int(data[1])<<8 | int(data[2])
		offset = 3
	} else {
		expLen = int(data[0])
		offset = 1
	}

	if len(data) < offset+expLen {
		return nil, ErrInvalidKey
	}

	expBytes := data[offset : offset+expLen]
	modBytes := data[offset+expLen:]
	if len(modBytes) == 0 {
		return nil, ErrInvalidKey
	}

	exp := new(big.Int).SetBytes(expBytes)
	mod := new(big.Int).SetBytes(modBytes)
	if !exp.IsInt64() || exp.Int64() > int64(1<<31-1) {
		return nil, ErrInvalidKey
	}

	return &rsa.PublicKey{N: mod, E: int(exp.Int64())}, nil
}

// verifyECDSA verifies an ECDSA signature in RFC 6605 r||s wire format.
func verifyECDSA(pubKeyData, data, sig []byte, hashFunc crypto.Hash, coordLen int) error {
	pubKey, err := parseECDSAPublicKey(pubKeyData, coordLen)
	if err != nil {
		return err
	}
	if len(sig) != coordLen*2 {
		return ErrInvalidSignature
	}

	r := new(big.Int).SetBytes(sig[:coordLen])
	s := new(big.Int).SetBytes(sig[coordLen:])

	var hash []byte
	switch hashFunc {
	case crypto.SHA256:
		h := sha256.Sum256(data)
		hash = h[:]
	case crypto.SHA384:
		h := sha512.Sum384(data)
		hash = h[:]
	default:
		return ErrUnsupportedAlgorithm
	}

	if !ecdsa.Verify(pubKey, hash, r, s) {
		return ErrInvalidSignature
	}
	return nil
}

// parseECDSAPublicKey parses an ECDSA public key from DNSKEY RDATA format (RFC 6605).
// Format: X coordinate (coordLen bytes) || Y coordinate (coordLen bytes).
func parseECDSAPublicKey(data []byte, coordLen int) (*ecdsa.PublicKey, error) {
	if len(data) != coordLen*2 {
		return nil, ErrInvalidKey
	}

	var curve elliptic.Curve
	switch coordLen {
	case 32:
		curve = elliptic.P256()
	case 48:
		curve = elliptic.P384()
	default:
		return nil, ErrInvalidKey
	}

	x := new(big.Int).SetBytes(data[:coordLen])
	y := new(big.Int).SetBytes(data[coordLen:])
	if !curve.IsOnCurve(x, y) {
		return nil, ErrInvalidKey
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// verifyEd25519 verifies a raw Ed25519 signature (RFC 8080).
func verifyEd25519(pubKeyData, data, sig []byte) error {
	if len(pubKeyData) != ed25519.PublicKeySize {
		return ErrInvalidKey
	}
	if len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKeyData), data, sig) {
		return ErrInvalidSignature
	}
	return nil
}
