package dnsmsg

import "encoding/binary"

// Question is a single entry of the question section (RFC 1035
// section 4.1.2).
type Question struct {
	Name  Name
	Type  Type
	Class Class
}

func (q *Question) encode(c *context) error {
	if err := c.appendName(q.Name); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, q.Type); err != nil {
		return err
	}
	return binary.Write(c, binary.BigEndian, q.Class)
}

func (c *context) parseQuestion() (*Question, error) {
	name, err := c.parseName()
	if err != nil {
		return nil, err
	}
	q := &Question{Name: name}

	if err := binary.Read(c, binary.BigEndian, &q.Type); err != nil {
		return nil, err
	}
	if err := binary.Read(c, binary.BigEndian, &q.Class); err != nil {
		return nil, err
	}

	return q, nil
}

// EqualCase reports whether two questions are case-sensitively equal;
// used to validate the 0x20-encoded echo of a query's question
// section in its response.
func (q *Question) EqualCase(o *Question) bool {
	return q.Type == o.Type && q.Class == o.Class && q.Name.Equal(o.Name)
}
