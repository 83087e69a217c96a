package dnsmsg

import (
	"fmt"
	"strconv"
	"strings"
)

// Text renders a resource record in master-file presentation format
// (RFC 1035 section 5.1): "owner TTL class type rdata".
func (r *Resource) Text() string {
	rdata := "\\# 0"
	if r.Data != nil {
		rdata = r.Data.String()
	}
	return fmt.Sprintf("%s\t%d\t%s\t%s\t%s", r.Name.String(), r.TTL, r.Class.String(), r.Type.String(), rdata)
}

// ParseResourceText parses a resource record from its master-file
// presentation form, the inverse of Resource.Text: "owner TTL class
// type rdata...". TTL and class may be omitted, matching common zone
// file shorthand; when omitted the class defaults to IN and the TTL
// to zero.
func ParseResourceText(line string) (*Resource, error) {
	fields := splitFields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: too few fields in %q", ErrInvalidLabel, line)
	}

	name, err := ParseName(fields[0])
	if err != nil {
		return nil, err
	}
	fields = fields[1:]

	r := &Resource{Name: name, Class: IN}

	if len(fields) > 0 {
		if ttl, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
			r.TTL = uint32(ttl)
			fields = fields[1:]
		}
	}
	if len(fields) > 0 {
		if class, err := ParseClass(strings.ToUpper(fields[0])); err == nil {
			r.Class = class
			fields = fields[1:]
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: missing type in %q", ErrInvalidLabel, line)
	}

	typ, ok := StringToType[strings.ToUpper(fields[0])]
	if !ok {
		var n uint16
		if _, err := fmt.Sscanf(strings.ToUpper(fields[0]), "TYPE%d", &n); err != nil {
			return nil, fmt.Errorf("unknown type %q: %w", fields[0], ErrNotSupport)
		}
		typ = Type(n)
	}
	r.Type = typ
	fields = fields[1:]

	rdataStr := strings.TrimSpace(strings.Join(fields, " "))
	if rdataStr == "" {
		r.Data = &RDataRaw{nil, typ}
		return r, nil
	}

	data, err := RDataFromString(typ, rdataStr)
	if err != nil {
		return nil, err
	}
	r.Data = data
	return r, nil
}

// splitFields splits a presentation-format line on whitespace while
// keeping double-quoted substrings (e.g. TXT strings) intact.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	hasCur := false

	flush := func() {
		if hasCur {
			fields = append(fields, cur.String())
			cur.Reset()
			hasCur = false
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
			hasCur = true
		case c == '\\' && i+1 < len(line):
			cur.WriteByte(c)
			cur.WriteByte(line[i+1])
			hasCur = true
			i++
		case (c == ' ' || c == '\t') && !inQuotes:
			flush()
		default:
			cur.WriteByte(c)
			hasCur = true
		}
	}
	flush()
	return fields
}
