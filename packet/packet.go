// Package packet implements a small network packet abstraction: a
// sender/receiver address-and-port header plus a quarantine-owned payload,
// with a filter predicate for dropping packets by source address.
//
// The header carries no data a caller needs to reach through the
// quarantine's handle-based accounting (it is never passed to
// Quarantine.Free directly, never resized, never shared across arenas), so
// it is allocated as an ordinary Go value rather than a quarantine block,
// letting the garbage collector reclaim it. The payload keeps using the
// quarantine, since its lifetime is meant to be explicit and arena-scoped.
package packet

import (
	"net/netip"

	"github.com/trion-lang/trion/quarantine"
	"github.com/trion-lang/trion/trionerr"
)

// Header is the fixed metadata every packet carries: a sender and receiver
// address/port pair. Ports default to zero when not supplied.
type Header struct {
	SrcIP   netip.Addr
	SrcPort uint16
	DstIP   netip.Addr
	DstPort uint16
}

// Packet is a header plus a quarantine-owned payload block.
type Packet struct {
	Header  Header
	Payload *quarantine.Block
}

// Bytes returns the packet's payload bytes.
func (p *Packet) Bytes() []byte {
	return p.Payload.Bytes()
}

// Create allocates a payload block of size n from q, copies data into it
// (truncating or zero-padding to n), and returns a Packet whose Header is
// not quarantine-tracked.
func Create(q *quarantine.Quarantine, src netip.Addr, srcPort uint16, dst netip.Addr, dstPort uint16, data []byte, n int) (*Packet, error) {
	block, err := q.Alloc(n)
	if err != nil {
		return nil, trionerr.Wrap(err, "packet: create: alloc payload")
	}
	copy(block.Bytes(), data)

	return &Packet{
		Header: Header{
			SrcIP:   src,
			SrcPort: srcPort,
			DstIP:   dst,
			DstPort: dstPort,
		},
		Payload: block,
	}, nil
}

// DropIfSrcIP reports whether p should be dropped because its source
// address matches ip.
func DropIfSrcIP(p *Packet, ip netip.Addr) bool {
	return p.Header.SrcIP == ip
}
