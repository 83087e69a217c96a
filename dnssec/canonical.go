package dnssec

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/lattice-dns/dnscore/dnsmsg"
)

// CanonicalRRset sorts an RRset in canonical order as specified in RFC 4034 Section 6.3.
// Records are sorted by their RDATA in canonical wire format.
func CanonicalRRset(rrset []*dnsmsg.Resource) []*dnsmsg.Resource {
	if len(rrset) <= 1 {
		return rrset
	}

	// Make a copy to avoid modifying the original
	sorted := make([]*dnsmsg.Resource, len(rrset))
	copy(sorted, rrset)

	sort.Slice(sorted, func(i, j int) bool {
		rdataI, _ := sorted[i].CanonicalRData()
		rdataJ, _ := sorted[j].CanonicalRData()
		return bytes.Compare(rdataI, rdataJ) < 0
	})

	return sorted
}

// BuildSignedData constructs the data to be signed/verified for an RRSIG
// as specified in RFC 4034 Section 3.1.8.1.
func BuildSignedData(rrsig *dnsmsg.RDataRRSIG, rrset []*dnsmsg.Resource) ([]byte, error) {
	var buf bytes.Buffer

	// RRSIG RDATA (without signature)
	// Type Covered (2) + Algorithm (1) + Labels (1) + Original TTL (4) +
	// Signature Expiration (4) + Signature Inception (4) + Key Tag (2) + Signer's Name
	binary.Write(&buf, binary.BigEndian, uint16(rrsig.TypeCovered))
	buf.WriteByte(byte(rrsig.Algorithm))
	buf.WriteByte(rrsig.Labels)
	binary.Write(&buf, binary.BigEndian, rrsig.OrigTTL)
	binary.Write(&buf, binary.BigEndian, rrsig.Expiration)
	binary.Write(&buf, binary.BigEndian, rrsig.Inception)
	binary.Write(&buf, binary.BigEndian, rrsig.KeyTag)
	buf.Write(rrsig.SignerName.Canonical())

	// RRset in canonical order, each record rendered as owner | type |
	// class | RRSIG's original TTL | RDLENGTH | canonical RDATA.
	sortedRRset := CanonicalRRset(rrset)
	for _, rr := range sortedRRset {
		name := rr.Name
		if int(rrsig.Labels) < name.LabelCount() {
			name = name.Wildcard(int(rrsig.Labels))
		}
		owner := &dnsmsg.Resource{Name: name, Type: rr.Type, Class: rr.Class, Data: rr.Data}
		rrBytes, err := owner.CanonicalBytes(rrsig.OrigTTL)
		if err != nil {
			return nil, err
		}
		buf.Write(rrBytes)
	}

	return buf.Bytes(), nil
}
