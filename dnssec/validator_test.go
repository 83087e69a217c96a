package dnssec

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

// fakeResolver answers ResolveMessage from a canned table keyed by
// name+type, standing in for resolver.Resolver in these tests.
type fakeResolver struct {
	answers map[string]*dnsmsg.Message
}

func (f *fakeResolver) ResolveMessage(ctx context.Context, name dnsmsg.Name, typ dnsmsg.Type, class dnsmsg.Class) (*dnsmsg.Message, error) {
	msg, ok := f.answers[name.String()+typ.String()]
	if !ok {
		return dnsmsg.New(), nil
	}
	return msg, nil
}

// signedZone is a single self-signed zone: its DNSKEY answer message,
// a signed A RRset + answer message, the RRset alone, and the trust
// anchor store seeded with its DS.
type signedZone struct {
	dnskeyMsg *dnsmsg.Message
	answerMsg *dnsmsg.Message
	rrset     []*dnsmsg.Resource
	anchors   *TrustAnchorStore
}

func buildSignedZone(t *testing.T, zone, name dnsmsg.Name) signedZone {
	t.Helper()

	key, priv, err := GenerateKey(dnsmsg.AlgorithmECDSAP256, 256)
	if err != nil {
		t.Fatalf("GenerateKey failed: %s", err)
	}
	key.Flags = 257 // combined KSK+ZSK, signs both DNSKEY and the A RRset

	signer, err := NewSigner(key, priv)
	if err != nil {
		t.Fatalf("NewSigner failed: %s", err)
	}

	dnskeyRR := &dnsmsg.Resource{Name: zone, Type: dnsmsg.DNSKEY, Class: dnsmsg.IN, TTL: 3600, Data: key}
	dnskeySig, err := signer.SignRRsetWithDuration([]*dnsmsg.Resource{dnskeyRR}, zone, 3600, time.Hour)
	if err != nil {
		t.Fatalf("signing DNSKEY RRset failed: %s", err)
	}
	dnskeyMsg := dnsmsg.New()
	dnskeyMsg.Answer = []*dnsmsg.Resource{
		dnskeyRR,
		{Name: zone, Type: dnsmsg.RRSIG, Class: dnsmsg.IN, TTL: 3600, Data: dnskeySig},
	}

	aRR := &dnsmsg.Resource{Name: name, Type: dnsmsg.A, Class: dnsmsg.IN, TTL: 300, Data: &dnsmsg.RDataIP{IP: net.ParseIP("192.0.2.10").To4(), Type: dnsmsg.A}}
	aSig, err := signer.SignRRsetWithDuration([]*dnsmsg.Resource{aRR}, zone, 300, time.Hour)
	if err != nil {
		t.Fatalf("signing A RRset failed: %s", err)
	}
	sigRR := &dnsmsg.Resource{Name: name, Type: dnsmsg.RRSIG, Class: dnsmsg.IN, TTL: 300, Data: aSig}

	answerMsg := dnsmsg.New()
	answerMsg.Answer = []*dnsmsg.Resource{aRR, sigRR}

	ds, err := ComputeDS(zone, key, dnsmsg.DigestSHA256)
	if err != nil {
		t.Fatalf("ComputeDS failed: %s", err)
	}
	anchors := NewTrustAnchorStore()
	anchors.Add(zone, ds)

	return signedZone{
		dnskeyMsg: dnskeyMsg,
		answerMsg: answerMsg,
		rrset:     []*dnsmsg.Resource{aRR},
		anchors:   anchors,
	}
}

func TestValidatorSignedPositive(t *testing.T) {
	zone := dnsmsg.MustParseName("example.com.")
	name := dnsmsg.MustParseName("www.example.com.")

	z := buildSignedZone(t, zone, name)
	resolver := &fakeResolver{answers: map[string]*dnsmsg.Message{
		zone.String() + dnsmsg.DNSKEY.String(): z.dnskeyMsg,
	}}

	v := &Validator{Anchors: z.anchors, Crypto: DefaultProvider, Resolver: resolver}
	result, err := v.Validate(context.Background(), name, dnsmsg.A, dnsmsg.IN, z.rrset, z.answerMsg)
	if err != nil {
		t.Fatalf("Validate returned error: %s", err)
	}
	if result != Signed {
		t.Errorf("expected Signed, got %s", result)
	}
}

func TestValidatorUnsignedWhenNoRRSIG(t *testing.T) {
	name := dnsmsg.MustParseName("plain.example.net.")
	rr := &dnsmsg.Resource{Name: name, Type: dnsmsg.A, Class: dnsmsg.IN, TTL: 300, Data: &dnsmsg.RDataIP{IP: net.ParseIP("192.0.2.20").To4(), Type: dnsmsg.A}}

	m := dnsmsg.New()
	m.Answer = []*dnsmsg.Resource{rr}

	v := &Validator{Anchors: NewTrustAnchorStore(), Crypto: DefaultProvider}
	result, err := v.Validate(context.Background(), name, dnsmsg.A, dnsmsg.IN, []*dnsmsg.Resource{rr}, m)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result != Unsigned {
		t.Errorf("expected Unsigned, got %s", result)
	}
}

func TestValidatorBogusOnTamperedSignature(t *testing.T) {
	zone := dnsmsg.MustParseName("example.com.")
	name := dnsmsg.MustParseName("www.example.com.")

	z := buildSignedZone(t, zone, name)
	resolver := &fakeResolver{answers: map[string]*dnsmsg.Message{
		zone.String() + dnsmsg.DNSKEY.String(): z.dnskeyMsg,
	}}

	// Replace the valid RRSIG with a bogus one covering the same RRset.
	m := dnsmsg.New()
	m.Answer = []*dnsmsg.Resource{
		z.rrset[0],
		{Name: name, Type: dnsmsg.RRSIG, Class: dnsmsg.IN, TTL: 300, Data: &dnsmsg.RDataRRSIG{
			TypeCovered: dnsmsg.A,
			Algorithm:   dnsmsg.AlgorithmECDSAP256,
			SignerName:  zone,
			KeyTag:      1,
			Signature:   []byte("not a real signature"),
			Inception:   uint32(time.Now().Add(-time.Hour).Unix()),
			Expiration:  uint32(time.Now().Add(time.Hour).Unix()),
		}},
	}

	v := &Validator{Anchors: z.anchors, Crypto: DefaultProvider, Resolver: resolver}
	result, err := v.Validate(context.Background(), name, dnsmsg.A, dnsmsg.IN, z.rrset, m)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result != Bogus {
		t.Errorf("expected Bogus, got %s", result)
	}
}
