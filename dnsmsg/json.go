package dnsmsg

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// jsonMessage mirrors the RFC 8427 section 2.2 top-level object.
type jsonMessage struct {
	ID                 uint16         `json:"ID"`
	QR                 int            `json:"QR"`
	Opcode             int            `json:"Opcode"`
	AA                 int            `json:"AA"`
	TC                 int            `json:"TC"`
	RD                 int            `json:"RD"`
	RA                 int            `json:"RA"`
	AD                 int            `json:"AD,omitempty"`
	CD                 int            `json:"CD,omitempty"`
	RCODE              int            `json:"RCODE"`
	QDCOUNT            int            `json:"QDCOUNT"`
	ANCOUNT            int            `json:"ANCOUNT"`
	NSCOUNT            int            `json:"NSCOUNT"`
	ARCOUNT            int            `json:"ARCOUNT"`
	QuestionSection    []jsonQuestion `json:"questionRRs,omitempty"`
	AnswerSection      []jsonRR       `json:"answerRRs,omitempty"`
	AuthoritySection   []jsonRR       `json:"authorityRRs,omitempty"`
	AdditionalSection  []jsonRR       `json:"additionalRRs,omitempty"`
}

type jsonQuestion struct {
	Name      string `json:"NAME"`
	Type      uint16 `json:"TYPE"`
	TypeName  string `json:"TYPEname,omitempty"`
	Class     uint16 `json:"CLASS"`
	ClassName string `json:"CLASSname,omitempty"`
}

type jsonRR struct {
	Name      string `json:"NAME"`
	Type      uint16 `json:"TYPE"`
	TypeName  string `json:"TYPEname,omitempty"`
	Class     uint16 `json:"CLASS"`
	ClassName string `json:"CLASSname,omitempty"`
	TTL       uint32 `json:"TTL"`
	RDLength  int    `json:"RDLENGTH"`
	RDataHex  string `json:"RDATAHEX"`
}

// MarshalJSON encodes the message per RFC 8427 section 2, with every
// record additionally carrying its RDATAHEX wire-format bytes (the
// format's mandatory fallback representation; section 2.1's optional
// rdataXXX per-type breakdown is not produced since the wire form
// round-trips losslessly on its own).
func (m *Message) MarshalJSON() ([]byte, error) {
	jm := jsonMessage{
		ID:      m.ID,
		QR:      boolToInt(m.Bits.IsResponse()),
		Opcode:  int(m.Bits.OpCode()),
		AA:      boolToInt(m.Bits.IsAuth()),
		TC:      boolToInt(m.Bits.IsTrunc()),
		RD:      boolToInt(m.Bits.IsRecDesired()),
		RA:      boolToInt(m.Bits.IsRecAvailable()),
		RCODE:   int(m.Bits.GetRCode()),
		QDCOUNT: len(m.Question),
		ANCOUNT: len(m.Answer),
		NSCOUNT: len(m.Authority),
		ARCOUNT: len(m.Additional),
	}

	for _, q := range m.Question {
		jm.QuestionSection = append(jm.QuestionSection, jsonQuestion{
			Name:      q.Name.String(),
			Type:      uint16(q.Type),
			TypeName:  q.Type.String(),
			Class:     uint16(q.Class),
			ClassName: q.Class.String(),
		})
	}

	var err error
	if jm.AnswerSection, err = resourcesToJSON(m.Answer); err != nil {
		return nil, err
	}
	if jm.AuthoritySection, err = resourcesToJSON(m.Authority); err != nil {
		return nil, err
	}
	if jm.AdditionalSection, err = resourcesToJSON(m.Additional); err != nil {
		return nil, err
	}

	return json.Marshal(jm)
}

func resourcesToJSON(rrs []*Resource) ([]jsonRR, error) {
	var out []jsonRR
	for _, r := range rrs {
		rdata, err := r.CanonicalRData()
		if err != nil {
			return nil, err
		}
		out = append(out, jsonRR{
			Name:      r.Name.String(),
			Type:      uint16(r.Type),
			TypeName:  r.Type.String(),
			Class:     uint16(r.Class),
			ClassName: r.Class.String(),
			TTL:       r.TTL,
			RDLength:  len(rdata),
			RDataHex:  hex.EncodeToString(rdata),
		})
	}
	return out, nil
}

// UnmarshalJSON decodes a message from RFC 8427 JSON form, the
// inverse of MarshalJSON. Only the RDATAHEX representation is
// consulted for RDATA; a record with an empty RDATAHEX and nonzero
// RDLENGTH is rejected as malformed.
func (m *Message) UnmarshalJSON(data []byte) error {
	var jm jsonMessage
	if err := json.Unmarshal(data, &jm); err != nil {
		return err
	}

	m.ID = jm.ID
	m.Bits.SetResponse(jm.QR != 0)
	m.Bits.SetOpCode(OpCode(jm.Opcode))
	m.Bits.SetAuth(jm.AA != 0)
	m.Bits.SetTrunc(jm.TC != 0)
	m.Bits.SetRecDesired(jm.RD != 0)
	m.Bits.SetRecAvailable(jm.RA != 0)
	m.Bits.SetRCode(RCode(jm.RCODE))

	for _, q := range jm.QuestionSection {
		name, err := ParseName(q.Name)
		if err != nil {
			return err
		}
		m.Question = append(m.Question, &Question{Name: name, Type: Type(q.Type), Class: Class(q.Class)})
	}

	var err error
	if m.Answer, err = jsonToResources(jm.AnswerSection); err != nil {
		return err
	}
	if m.Authority, err = jsonToResources(jm.AuthoritySection); err != nil {
		return err
	}
	if m.Additional, err = jsonToResources(jm.AdditionalSection); err != nil {
		return err
	}

	return nil
}

func jsonToResources(rrs []jsonRR) ([]*Resource, error) {
	var out []*Resource
	for _, jr := range rrs {
		name, err := ParseName(jr.Name)
		if err != nil {
			return nil, err
		}
		rdata, err := hex.DecodeString(jr.RDataHex)
		if err != nil {
			return nil, fmt.Errorf("dnsmsg: bad RDATAHEX for %s: %w", jr.Name, err)
		}
		if len(rdata) != jr.RDLength {
			return nil, fmt.Errorf("%w: RDLENGTH mismatch for %s", ErrInvalidLen, jr.Name)
		}

		typ := Type(jr.Type)
		c := &context{marshal: true}
		data, err := c.parseRData(typ, rdata)
		if err != nil {
			return nil, err
		}

		out = append(out, &Resource{
			Name:  name,
			Type:  typ,
			Class: Class(jr.Class),
			TTL:   jr.TTL,
			Data:  data,
		})
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
