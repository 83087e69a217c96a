package dnsmsg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// RData is the interface implemented by all DNS resource record data types.
// Each record type (A, AAAA, MX, TXT, etc.) has its own implementation.
type RData interface {
	// String returns a human-readable representation of the record data.
	String() string
	// GetType returns the DNS record type (e.g., A, AAAA, MX).
	GetType() Type
	// encode writes the record data in wire format to the context.
	encode(c *context) error
}

// RDataFromString parses a string representation into the appropriate RData type.
// The format depends on the record type:
//   - A: IPv4 address (e.g., "192.168.1.1")
//   - AAAA: IPv6 address (e.g., "2001:db8::1")
//   - MX: "preference server" (e.g., "10 mail.example.com.")
//   - SOA: "mname rname serial refresh retry expire minimum"
//   - TXT: one or more quoted strings, concatenated (e.g., "\"hello world\"")
//   - NS, CNAME, PTR: domain name (e.g., "ns1.example.com.")
func RDataFromString(t Type, str string) (RData, error) {
	switch t {
	// RFC 1035
	case A:
		ip := net.ParseIP(str).To4()
		if len(ip) != 4 {
			return nil, errors.New("could not parse ip")
		}
		return &RDataIP{ip, t}, nil
	case NS, MD, MF, CNAME, MG, MB, MR, PTR, DNAME:
		n, err := ParseName(str)
		if err != nil {
			return nil, err
		}
		return &RDataLabel{n, t}, nil
	case SOA:
		var mname, rname string
		soa := &RDataSOA{}
		if _, err := fmt.Sscanf(str, "%s %s %d %d %d %d %d", &mname, &rname, &soa.Serial, &soa.Refresh, &soa.Retry, &soa.Expire, &soa.Minimum); err != nil {
			return nil, err
		}
		var err error
		if soa.MName, err = ParseName(mname); err != nil {
			return nil, err
		}
		if soa.RName, err = ParseName(rname); err != nil {
			return nil, err
		}
		return soa, nil
	case NULL:
		return &RDataRaw{nil, t}, nil
	case HINFO:
		hi := &RDataHINFO{}
		_, err := fmt.Sscanf(str, "%q %q", &hi.CPU, &hi.OS)
		return hi, err
	case MX:
		var server string
		mx := &RDataMX{}
		if _, err := fmt.Sscanf(str, "%d %s", &mx.Pref, &server); err != nil {
			return nil, err
		}
		n, err := ParseName(server)
		if err != nil {
			return nil, err
		}
		mx.Server = n
		return mx, nil
	case TXT:
		var txt string
		for _, f := range splitFields(str) {
			s, err := strconv.Unquote(f)
			if err != nil {
				return nil, err
			}
			txt += s
		}
		return RDataTXT(txt), nil
	// RFC 3596
	case AAAA:
		ip := net.ParseIP(str).To16()
		if len(ip) != 16 {
			return nil, errors.New("could not parse ipv6")
		}
		return &RDataIP{ip, t}, nil
	// RFC 2782
	case SRV:
		var target string
		srv := &RDataSRV{}
		if _, err := fmt.Sscanf(str, "%d %d %d %s", &srv.Priority, &srv.Weight, &srv.Port, &target); err != nil {
			return nil, err
		}
		n, err := ParseName(target)
		if err != nil {
			return nil, err
		}
		srv.Target = n
		return srv, nil
	// RFC 8659
	case CAA:
		caa := &RDataCAA{}
		_, err := fmt.Sscanf(str, "%d %s %q", &caa.Flags, &caa.Tag, &caa.Value)
		return caa, err
	// RFC 7553
	case URI:
		uri := &RDataURI{}
		_, err := fmt.Sscanf(str, "%d %d %q", &uri.Priority, &uri.Weight, &uri.Target)
		return uri, err
	// RFC 1183
	case RP:
		var mbox, txt string
		if _, err := fmt.Sscanf(str, "%s %s", &mbox, &txt); err != nil {
			return nil, err
		}
		rp := &RDataRP{}
		var err error
		if rp.Mbox, err = ParseName(mbox); err != nil {
			return nil, err
		}
		if rp.Txt, err = ParseName(txt); err != nil {
			return nil, err
		}
		return rp, nil
	case AFSDB:
		var hostname string
		afsdb := &RDataAFSDB{}
		if _, err := fmt.Sscanf(str, "%d %s", &afsdb.Subtype, &hostname); err != nil {
			return nil, err
		}
		n, err := ParseName(hostname)
		if err != nil {
			return nil, err
		}
		afsdb.Hostname = n
		return afsdb, nil
	}
	return nil, fmt.Errorf("while parsing %s string: %w", t.String(), ErrNotSupport)
}

func (c *context) parseRData(t Type, d []byte) (RData, error) {
	// Parse rdata.
	// Anything short enough (max 5 lines) can be put in here to avoid too many method?
	// This might change in the future, in which case this will be refactored.

	switch t {
	// RFC 1035
	case A:
		if len(d) != 4 {
			return nil, ErrInvalidLen
		}
		return &RDataIP{d, t}, nil
	case NS, MD, MF, CNAME, MB, MG, MR, PTR, DNAME:
		n, _, err := c.readNameIn(d)
		if err != nil {
			return nil, err
		}
		return &RDataLabel{n, t}, nil
	case SOA:
		res := &RDataSOA{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	case NULL:
		return &RDataRaw{d, t}, nil
	case MX:
		if len(d) < 3 {
			return nil, ErrInvalidLen
		}
		n, _, err := c.readNameIn(d[2:])
		if err != nil {
			return nil, err
		}
		return &RDataMX{binary.BigEndian.Uint16(d[:2]), n}, nil
	case TXT:
		return parseTXT(d)
	// RFC 3596
	case AAAA:
		if len(d) != 16 {
			return nil, ErrInvalidLen
		}
		return &RDataIP{d, t}, nil
	// RFC 6891
	case OPT:
		res := &RDataOPT{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 4034 - DNSSEC
	case DNSKEY, CDNSKEY:
		res := &RDataDNSKEY{typ: t}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	case RRSIG:
		res := &RDataRRSIG{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	case DS, CDS:
		res := &RDataDS{typ: t}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	case NSEC:
		res := &RDataNSEC{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 5155 - NSEC3
	case NSEC3:
		res := &RDataNSEC3{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	case NSEC3PARAM:
		res := &RDataNSEC3PARAM{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 4398 - CERT
	case CERT:
		res := &RDataCERT{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 8945 - TSIG
	case TSIG:
		res := &RDataTSIG{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 2930 - TKEY
	case TKEY:
		res := &RDataTKEY{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 2782 - SRV
	case SRV:
		res := &RDataSRV{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 6698 - TLSA, RFC 8162 - SMIMEA (identical wire format)
	case TLSA, SMIMEA:
		res := &RDataTLSA{typ: t}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 4255 - SSHFP
	case SSHFP:
		res := &RDataSSHFP{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 8659 - CAA
	case CAA:
		res := &RDataCAA{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 7553 - URI
	case URI:
		res := &RDataURI{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 3403 - NAPTR
	case NAPTR:
		res := &RDataNAPTR{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 1035 - HINFO
	case HINFO:
		res := &RDataHINFO{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 1183 - RP
	case RP:
		res := &RDataRP{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 1183 - AFSDB
	case AFSDB:
		res := &RDataAFSDB{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 9460 - SVCB/HTTPS (identical wire format)
	case SVCB, HTTPS:
		res := &RDataSVCB{typ: t}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 1876 - LOC
	case LOC:
		res := &RDataLOC{}
		if err := res.decode(c, d); err != nil {
			return nil, err
		}
		return res, nil
	// RFC 7929 - OPENPGPKEY (opaque key material, no further structure)
	case OPENPGPKEY:
		return &RDataRaw{d, t}, nil
	}
	return nil, fmt.Errorf("while parsing %s: %w", t.String(), ErrNotSupport)
}
