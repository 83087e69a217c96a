package dnsmsg

import (
	"net"
	"testing"
)

func TestResourceTextRoundTrip(t *testing.T) {
	cases := []*Resource{
		{Name: MustParseName("example.com."), Type: A, Class: IN, TTL: 300, Data: &RDataIP{IP: net.ParseIP("192.0.2.1").To4(), Type: A}},
		{Name: MustParseName("example.com."), Type: NS, Class: IN, TTL: 3600, Data: &RDataLabel{Label: MustParseName("ns1.example.com."), Type: NS}},
		{Name: MustParseName("example.com."), Type: MX, Class: IN, TTL: 3600, Data: &RDataMX{Pref: 10, Server: MustParseName("mail.example.com.")}},
	}

	for _, r := range cases {
		text := r.Text()
		parsed, err := ParseResourceText(text)
		if err != nil {
			t.Fatalf("ParseResourceText(%q) failed: %s", text, err)
		}
		if !parsed.Name.Equal(r.Name) || parsed.Type != r.Type || parsed.Class != r.Class || parsed.TTL != r.TTL {
			t.Errorf("round trip mismatch for %q: got %+v", text, parsed)
		}
		if parsed.Data.String() != r.Data.String() {
			t.Errorf("rdata round trip mismatch: got %q want %q", parsed.Data.String(), r.Data.String())
		}
	}
}

func TestParseResourceTextDefaultsClass(t *testing.T) {
	r, err := ParseResourceText("example.com. 300 A 192.0.2.1")
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	if r.Class != IN {
		t.Errorf("expected default class IN, got %s", r.Class)
	}
	if r.TTL != 300 {
		t.Errorf("expected TTL 300, got %d", r.TTL)
	}
}

func TestParseResourceTextTXTQuoting(t *testing.T) {
	r, err := ParseResourceText(`example.com. 300 IN TXT "hello world"`)
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	txt, ok := r.Data.(RDataTXT)
	if !ok {
		t.Fatalf("expected RDataTXT, got %T", r.Data)
	}
	if string(txt) != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", string(txt))
	}
}
