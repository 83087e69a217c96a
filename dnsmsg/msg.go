package dnsmsg

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
)

// Message is a full DNS message: header plus the four sections
// (RFC 1035 section 4.1).
type Message struct {
	// Header
	ID   uint16
	Bits HeaderBits

	Question   []*Question // QD
	Answer     []*Resource // AN
	Authority  []*Resource // NS
	Additional []*Resource // AR
}

// New returns an empty query message.
func New() *Message {
	return &Message{}
}

// NewQuery builds a single-question query message with the recursion
// desired bit set and a random ID, ready for Randomize0x20 and sending.
func NewQuery(name string, class Class, typ Type) *Message {
	n, err := ParseName(name)
	if err != nil {
		n = Root()
	}

	var idBuf [2]byte
	rand.Read(idBuf[:])

	m := New()
	m.ID = binary.BigEndian.Uint16(idBuf[:])
	m.Bits.SetRecDesired(true)
	m.Question = []*Question{{Name: n, Type: typ, Class: class}}
	return m
}

// String renders a short single-line summary of the message, useful for
// logging: the ID, header flags, and each section's records.
func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %d %s", m.ID, m.Bits.String())

	writeSection := func(label string, rrs []*Resource) {
		var filtered []*Resource
		for _, r := range rrs {
			if r.Type != OPT {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			return
		}
		b.WriteString(" " + label + ":")
		for _, r := range filtered {
			fmt.Fprintf(&b, " %s %s %s %d %s", r.Name.String(), r.Class, r.Type, r.TTL, r.Data)
		}
	}

	if len(m.Question) > 0 {
		b.WriteString(" QD:")
		for _, q := range m.Question {
			fmt.Fprintf(&b, " %s %s %s", q.Name.String(), q.Class, q.Type)
		}
	}
	writeSection("AN", m.Answer)
	writeSection("NS", m.Authority)
	writeSection("AR", m.Additional)

	if opt := m.OPT(); opt != nil {
		fmt.Fprintf(&b, " ReqUDPSize=%d", opt.OPTUDPSize())
		if rd, ok := opt.Data.(*RDataOPT); ok {
			for _, o := range rd.Opts {
				fmt.Fprintf(&b, " %s", o.String())
			}
		}
	}

	return b.String()
}

// MarshalBinary encodes the message with name compression enabled
// (RFC 1035 section 4.1.4).
func (m *Message) MarshalBinary() ([]byte, error) {
	return m.encode(&context{labelMap: make(map[string]uint16)})
}

// MarshalCanonical encodes the message with compression disabled and
// all label letters lowercased, as required when building a TSIG or
// RRSIG signing buffer over a whole message.
func (m *Message) MarshalCanonical() ([]byte, error) {
	return m.encode(&context{canonical: true})
}

func (m *Message) encode(c *context) ([]byte, error) {
	if len(m.Question) > 0xffff || len(m.Answer) > 0xffff || len(m.Authority) > 0xffff || len(m.Additional) > 0xffff {
		return nil, ErrInvalidLen
	}

	if err := binary.Write(c, binary.BigEndian, m.ID); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, m.Bits.Sanitized()); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, uint16(len(m.Question))); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, uint16(len(m.Answer))); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, uint16(len(m.Authority))); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, uint16(len(m.Additional))); err != nil {
		return nil, err
	}

	for _, q := range m.Question {
		if err := q.encode(c); err != nil {
			return nil, err
		}
	}
	for _, r := range m.Answer {
		if err := r.encode(c); err != nil {
			return nil, err
		}
	}
	for _, r := range m.Authority {
		if err := r.encode(c); err != nil {
			return nil, err
		}
	}
	for _, r := range m.Additional {
		if err := r.encode(c); err != nil {
			return nil, err
		}
	}

	return c.rawMsg, nil
}

// UnmarshalBinary decodes d into m, replacing its contents. It is
// equivalent to Parse but satisfies encoding.BinaryUnmarshaler.
func (m *Message) UnmarshalBinary(d []byte) error {
	parsed, err := Parse(d)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// OPT returns the message's EDNS(0) pseudo-record, if any. Per spec
// section 3 exactly zero or one may be present, always in Additional.
func (m *Message) OPT() *Resource {
	for _, r := range m.Additional {
		if r.Type == OPT {
			return r
		}
	}
	return nil
}

// Randomize0x20 flips the ASCII case of each letter in every question
// name with probability 1/2, for query-entropy hardening against
// off-path spoofing. The decoder/encoder never does this implicitly;
// callers opt in per query.
func (m *Message) Randomize0x20() error {
	for _, q := range m.Question {
		randomized, err := randomizeCase(q.Name)
		if err != nil {
			return err
		}
		q.Name = randomized
	}
	return nil
}

func randomizeCase(n Name) (Name, error) {
	labels := n.Labels()
	out := make([][]byte, len(labels))
	var bit [1]byte
	for i, l := range labels {
		nl := make([]byte, len(l))
		copy(nl, l)
		for j, c := range nl {
			if (c|0x20) < 'a' || (c|0x20) > 'z' {
				continue // not an ASCII letter
			}
			if _, err := rand.Read(bit[:]); err != nil {
				return Name{}, err
			}
			if bit[0]&1 == 1 {
				nl[j] = c ^ 0x20
			}
		}
		out[i] = nl
	}
	return Name{labels: out}, nil
}
