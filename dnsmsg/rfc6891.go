package dnsmsg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// DnsOpt is one EDNS(0) option (RFC 6891 section 6.1.2): an option
// code plus its opaque option-specific data.
type DnsOpt struct {
	Code uint16
	Data []byte
}

func (opt *DnsOpt) String() string {
	return fmt.Sprintf("OPT(code=%d)", opt.Code)
}

// EDNS(0) option codes in common use (IANA "DNS EDNS0 Option Codes" registry).
const (
	OptCodeECS        uint16 = 8  // RFC 7871 - Client Subnet
	OptCodeCookie     uint16 = 10 // RFC 7873
	OptCodeTCPKeepAlv uint16 = 11 // RFC 7828
	OptCodePadding    uint16 = 12 // RFC 7830
)

type OptRCode uint32

// RDataOPT is the RDATA of the OPT pseudo-record (RFC 6891 section
// 6.1.2): an options list only. The extended RCODE, version, DO bit,
// and Z field live in the owning Resource's TTL field, not here
// (RFC 6891 section 6.1.3) -- use the Resource.OPT* helpers below.
type RDataOPT struct {
	Opts []DnsOpt
}

func (opt *RDataOPT) decode(c *context, d []byte) error {
	r := bytes.NewReader(d)
	var err error

	for r.Len() > 0 {
		o := &DnsOpt{}
		var l uint16
		err = binary.Read(r, binary.BigEndian, &o.Code)
		if err != nil {
			return err
		}
		err = binary.Read(r, binary.BigEndian, &l)
		if err != nil {
			return err
		}

		o.Data = make([]byte, l)
		_, err = io.ReadFull(r, o.Data)
		if err != nil {
			return err
		}
		opt.Opts = append(opt.Opts, *o)
	}
	return nil
}

func (opt *RDataOPT) GetType() Type {
	return OPT
}

func (opt *RDataOPT) String() string {
	// This shouldn't happen
	return "OPT(...)"
}

func (opt *RDataOPT) encode(c *context) error {
	for _, o := range opt.Opts {
		l := len(o.Data)
		if l > 0xffff {
			return ErrInvalidLen
		}

		err := binary.Write(c, binary.BigEndian, o.Code)
		if err != nil {
			return err
		}
		err = binary.Write(c, binary.BigEndian, uint16(l))
		if err != nil {
			return err
		}

		_, err = c.Write(o.Data)
		if err != nil {
			return err
		}
	}
	return nil
}

// Option returns the first option with the given code, if present.
func (opt *RDataOPT) Option(code uint16) (DnsOpt, bool) {
	for _, o := range opt.Opts {
		if o.Code == code {
			return o, true
		}
	}
	return DnsOpt{}, false
}

const (
	ednsDOBit = 1 << 15 // set in the low 16 bits of TTL (the flags word)
)

// NewOPT builds an Additional-section OPT pseudo-record advertising
// udpPayloadSize and, when do is set, the DNSSEC OK bit (RFC 3225).
func NewOPT(udpPayloadSize uint16, do bool) *Resource {
	var ttl uint32
	if do {
		ttl |= ednsDOBit
	}
	return &Resource{
		Name:  Root(),
		Type:  OPT,
		Class: Class(udpPayloadSize),
		TTL:   ttl,
		Data:  &RDataOPT{},
	}
}

// OPTUDPSize returns the UDP payload size advertised by an OPT record
// (its CLASS field, repurposed per RFC 6891 section 6.1.2).
func (r *Resource) OPTUDPSize() uint16 {
	return uint16(r.Class)
}

// OPTExtendedRCode returns the upper 8 bits of the extended 12-bit
// RCODE, stored in the top byte of TTL (RFC 6891 section 6.1.3).
func (r *Resource) OPTExtendedRCode() uint8 {
	return uint8(r.TTL >> 24)
}

// OPTVersion returns the EDNS version, the second byte of TTL.
func (r *Resource) OPTVersion() uint8 {
	return uint8(r.TTL >> 16)
}

// OPTDNSSECOK reports whether the DO bit is set.
func (r *Resource) OPTDNSSECOK() bool {
	return r.TTL&ednsDOBit != 0
}

// SetOPTExtendedRCode sets the combined 12-bit RCODE's upper 8 bits
// into this OPT record's TTL, preserving version/DO/Z.
func (r *Resource) SetOPTExtendedRCode(ext uint8) {
	r.TTL = (r.TTL &^ (0xff << 24)) | uint32(ext)<<24
}

// FullRCode combines a message header's 4-bit RCODE with this OPT
// record's extended RCODE bits into the full 12-bit value (RFC 6891
// section 6.1.3).
func (r *Resource) FullRCode(headerRCode RCode) int {
	return int(r.OPTExtendedRCode())<<4 | int(headerRCode&0x0f)
}
