package reliudp

import "encoding/binary"

// Marker is the fixed 3-byte tag that distinguishes this protocol's
// datagrams from arbitrary UDP traffic.
var Marker = [3]byte{0x30, 0x31, 0x32}

// Wire layout, relative to the start of a raw datagram.
const (
	markerSize = 3
	seqSize    = 2
	ackNumSize = 2
	ackFldSize = 4

	// HeaderSize is the fixed on-wire header length: marker + seq_num
	// + ack_num + ack_field.
	HeaderSize = markerSize + seqSize + ackNumSize + ackFldSize

	// RecvBufferBytes is the fixed OS read buffer size; the payload
	// ceiling is RecvBufferBytes - HeaderSize.
	RecvBufferBytes = 256

	// MaxPayloadBytes is the largest payload that fits in one
	// RecvBufferBytes datagram. Encode does not check it; a longer
	// payload is encoded as given.
	MaxPayloadBytes = RecvBufferBytes - HeaderSize
)

// StripMarker validates and removes the leading marker from a raw
// datagram. ok is false if the datagram is too short to carry a
// marker or the marker bytes don't match — this is the single
// MarkerMismatch rejection point in the whole codec.
func StripMarker(raw RawPacket) (WithPayload, bool) {
	if len(raw.Bytes) < markerSize {
		return WithPayload{}, false
	}
	b := raw.Bytes
	if b[0] != Marker[0] || b[1] != Marker[1] || b[2] != Marker[2] {
		return WithPayload{}, false
	}
	return WithPayload{Addr: raw.Addr, Bytes: b[markerSize:]}, true
}

// StripSequenceAndAcks reads seq_num, ack_num and ack_field off a
// marker-stripped datagram and returns the remainder as the opaque
// payload. ok is false if the remaining bytes are shorter than a full
// header (corrupt datagram that happened to carry a valid marker).
func StripSequenceAndAcks(p WithPayload) (FullPacket, bool) {
	const rest = seqSize + ackNumSize + ackFldSize
	if len(p.Bytes) < rest {
		return FullPacket{}, false
	}
	b := p.Bytes
	return FullPacket{
		Addr:     p.Addr,
		SeqNum:   binary.BigEndian.Uint16(b[0:2]),
		AckNum:   binary.BigEndian.Uint16(b[2:4]),
		AckField: binary.BigEndian.Uint32(b[4:8]),
		Bytes:    b[rest:],
	}, true
}

// Decode turns exactly what the OS returned for one datagram — no
// declared length, the wire carries none — into a FullPacket. It is
// the composition of StripMarker then StripSequenceAndAcks.
func Decode(addr PeerAddr, datagram []byte) (FullPacket, bool) {
	withPayload, ok := StripMarker(RawPacket{Addr: addr, Bytes: datagram})
	if !ok {
		return FullPacket{}, false
	}
	return StripSequenceAndAcks(withPayload)
}

// Encode serializes a FullPacket onto the wire: Marker ++ seq_num ++
// ack_num ++ ack_field ++ payload, all multi-byte fields big-endian.
func Encode(p FullPacket) []byte {
	out := make([]byte, HeaderSize+len(p.Bytes))
	copy(out[0:], Marker[:])
	binary.BigEndian.PutUint16(out[3:], p.SeqNum)
	binary.BigEndian.PutUint16(out[5:], p.AckNum)
	binary.BigEndian.PutUint32(out[7:], p.AckField)
	copy(out[HeaderSize:], p.Bytes)
	return out
}
