package main

import (
	"log"
	"net"

	"github.com/lattice-dns/dnscore/dnsmsg"
	"github.com/lattice-dns/dnscore/resolver"
)

// handleQuery resolves a client's question through iterative DNSSEC
// validating resolution and builds the reply.
func handleQuery(msg *dnsmsg.Message, raddr net.Addr) (*dnsmsg.Message, error) {
	resp := dnsmsg.New()
	resp.ID = msg.ID
	resp.Bits.SetResponse(true)
	resp.Bits.SetRecAvailable(true)
	resp.Question = msg.Question

	if len(msg.Question) != 1 {
		resp.Bits.SetRCode(dnsmsg.ErrFormat)
		return resp, nil
	}
	q := msg.Question[0]

	ctx := shutdownContext()
	rrset, result, err := sec.Resolve(ctx, q.Name, q.Type, q.Class)
	switch err {
	case nil:
		resp.Answer = rrset
		resp.Bits.SetRCode(dnsmsg.NoError)
		log.Printf("[resolve] %s %s -> %d records (%s)", q.Name, q.Type, len(rrset), result)
	case resolver.ErrNxDomain:
		resp.Bits.SetRCode(dnsmsg.ErrName)
	case resolver.ErrBogus:
		reportBogus(err)
		resp.Bits.SetRCode(dnsmsg.ErrServFail)
	case resolver.ErrReferralExhausted, resolver.ErrNoProgress, resolver.ErrNoNameservers:
		reportBogus(err)
		resp.Bits.SetRCode(dnsmsg.ErrServFail)
	default:
		resp.Bits.SetRCode(dnsmsg.ErrServFail)
	}

	return resp, nil
}
