package dnsmsg

import "encoding/binary"

func Parse(d []byte) (*Message, error) {
	c := &context{rawMsg: d}

	msg := &Message{}

	// read stuff
	err := binary.Read(c, binary.BigEndian, &msg.ID)
	if err != nil {
		return nil, err
	}
	err = binary.Read(c, binary.BigEndian, &msg.Bits)
	if err != nil {
		return nil, err
	}

	// count of the various types
	var QD, AN, NS, AR uint16

	err = binary.Read(c, binary.BigEndian, &QD)
	if err != nil {
		return nil, err
	}
	err = binary.Read(c, binary.BigEndian, &AN)
	if err != nil {
		return nil, err
	}
	err = binary.Read(c, binary.BigEndian, &NS)
	if err != nil {
		return nil, err
	}
	err = binary.Read(c, binary.BigEndian, &AR)
	if err != nil {
		return nil, err
	}

	for i := 0; i < int(QD); i++ {
		q, err := c.parseQuestion()
		if err != nil {
			return nil, err
		}
		msg.Question = append(msg.Question, q)
	}
	for i := 0; i < int(AN); i++ {
		r, err := c.parseResource()
		if err != nil {
			return nil, err
		}
		msg.Answer = append(msg.Answer, r)
	}
	for i := 0; i < int(NS); i++ {
		r, err := c.parseResource()
		if err != nil {
			return nil, err
		}
		msg.Authority = append(msg.Authority, r)
	}
	for i := 0; i < int(AR); i++ {
		r, err := c.parseResource()
		if err != nil {
			return nil, err
		}
		msg.Additional = append(msg.Additional, r)
	}

	if err := msg.checkOPTPlacement(); err != nil {
		return nil, err
	}

	return msg, nil
}

// checkOPTPlacement enforces RFC 6891 section 6.1.1: the OPT
// pseudo-record, if present, lives only in Additional and there is
// exactly one.
func (m *Message) checkOPTPlacement() error {
	count := 0
	for _, r := range m.Answer {
		if r.Type == OPT {
			return ErrBadOPT
		}
	}
	for _, r := range m.Authority {
		if r.Type == OPT {
			return ErrBadOPT
		}
	}
	for _, r := range m.Additional {
		if r.Type == OPT {
			count++
		}
	}
	if count > 1 {
		return ErrBadOPT
	}
	return nil
}
