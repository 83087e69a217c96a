package dnsmsg

import "encoding/binary"

// Resource is a single resource record: a Name/Type/Class/TTL header
// plus a typed RDATA payload (RFC 1035 section 4.1.3).
type Resource struct {
	Name  Name
	Type  Type
	Class Class
	TTL   uint32

	Data RData
}

func (r *Resource) encode(c *context) error {
	if err := c.appendName(r.Name); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, r.Type); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, r.Class); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, r.TTL); err != nil {
		return err
	}

	lenPos := c.Len()
	if err := binary.Write(c, binary.BigEndian, uint16(0)); err != nil {
		return err
	}
	dataStart := c.Len()

	if r.Data != nil {
		if err := r.Data.encode(c); err != nil {
			return err
		}
	}

	c.putUint16(lenPos, uint16(c.Len()-dataStart))
	return nil
}

func (c *context) parseResource() (*Resource, error) {
	name, err := c.parseName()
	if err != nil {
		return nil, err
	}
	r := &Resource{Name: name}

	if err := binary.Read(c, binary.BigEndian, &r.Type); err != nil {
		return nil, err
	}
	if err := binary.Read(c, binary.BigEndian, &r.Class); err != nil {
		return nil, err
	}
	if err := binary.Read(c, binary.BigEndian, &r.TTL); err != nil {
		return nil, err
	}

	var l uint16 // RDLENGTH
	if err := binary.Read(c, binary.BigEndian, &l); err != nil {
		return nil, err
	}

	rdbuf, err := c.readLen(int(l))
	if err != nil {
		return nil, fmtErr(err)
	}

	r.Data, err = c.parseRData(r.Type, rdbuf)
	if err != nil {
		return nil, fmtErr(err)
	}

	return r, nil
}

// CanonicalBytes renders the RRSIG signing-buffer form of this record
// (RFC 4034 section 6.2): canonical owner
// name, type, class, the *original* TTL from the covering RRSIG (not
// this record's own TTL, which a resolver may have decremented),
// RDATA length, and canonical RDATA.
func (r *Resource) CanonicalBytes(origTTL uint32) ([]byte, error) {
	c := &context{canonical: true}
	if err := c.appendName(r.Name); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, r.Type); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, r.Class); err != nil {
		return nil, err
	}
	if err := binary.Write(c, binary.BigEndian, origTTL); err != nil {
		return nil, err
	}

	lenPos := c.Len()
	if err := binary.Write(c, binary.BigEndian, uint16(0)); err != nil {
		return nil, err
	}
	dataStart := c.Len()
	if r.Data != nil {
		if err := r.Data.encode(c); err != nil {
			return nil, err
		}
	}
	c.putUint16(lenPos, uint16(c.Len()-dataStart))
	return c.rawMsg, nil
}

// CanonicalRData returns just the canonical wire encoding of this
// record's RDATA (no owner/type/class/ttl/length prefix).
func (r *Resource) CanonicalRData() ([]byte, error) {
	if r.Data == nil {
		return nil, nil
	}
	c := &context{canonical: true}
	if err := r.Data.encode(c); err != nil {
		return nil, err
	}
	return c.rawMsg, nil
}
