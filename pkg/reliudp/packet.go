package reliudp

import (
	"net"
	"strconv"
)

// PeerAddr is the opaque endpoint identifier the core keys every
// per-peer table on. Two addresses are the same peer iff this struct
// compares equal, so it is deliberately a value type (not *net.UDPAddr,
// whose pointer identity is not what "same peer" means here).
type PeerAddr struct {
	IP   string
	Port int
}

// PeerAddrFromUDP converts a socket-level address into the core's key type.
func PeerAddrFromUDP(addr *net.UDPAddr) PeerAddr {
	return PeerAddr{IP: addr.IP.String(), Port: addr.Port}
}

// UDPAddr reconstructs a *net.UDPAddr suitable for WriteToUDP.
func (p PeerAddr) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(p.IP), Port: p.Port}
}

func (p PeerAddr) String() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// RawPacket is exactly what the OS handed back (or is about to be
// handed to the OS): an address plus the bytes of one datagram.
type RawPacket struct {
	Addr  PeerAddr
	Bytes []byte
}

// WithPayload is a RawPacket whose marker has already been validated
// and stripped. The Codec never exposes a Sequenced or Full view of
// bytes that haven't passed through this step.
type WithPayload struct {
	Addr  PeerAddr
	Bytes []byte
}

// Sequenced adds the per-peer send sequence number.
type Sequenced struct {
	Addr   PeerAddr
	SeqNum uint16
	Bytes  []byte
}

// FullPacket is the wire-complete logical packet: everything the Codec
// can read off (or write into) a datagram.
type FullPacket struct {
	Addr     PeerAddr
	SeqNum   uint16
	AckNum   uint16
	AckField uint32
	Bytes    []byte
}
