package reliudp

import (
	"bytes"
	"testing"
)

func samplePacket() FullPacket {
	return FullPacket{
		Addr:     PeerAddr{IP: "127.0.0.1", Port: 7777},
		SeqNum:   300,
		AckNum:   600,
		AckField: 111111111,
		Bytes:    []byte{1, 2, 3, 4, 5},
	}
}

func TestEncodeMatchesWireScenario(t *testing.T) {
	got := Encode(samplePacket())
	want := []byte{0x30, 0x31, 0x32, 0x01, 0x2C, 0x02, 0x58, 0x06, 0x9F, 0x6B, 0xC7, 0x01, 0x02, 0x03, 0x04, 0x05}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % X, want % X", got, want)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	p := samplePacket()
	wire := Encode(p)
	decoded, ok := Decode(p.Addr, wire)
	if !ok {
		t.Fatalf("Decode rejected a packet produced by Encode")
	}
	if decoded.SeqNum != p.SeqNum || decoded.AckNum != p.AckNum || decoded.AckField != p.AckField {
		t.Errorf("Decode = %+v, want %+v", decoded, p)
	}
	if !bytes.Equal(decoded.Bytes, p.Bytes) {
		t.Errorf("Decode payload = % X, want % X", decoded.Bytes, p.Bytes)
	}
}

func TestDecodeRoundTripMaxPayload(t *testing.T) {
	p := samplePacket()
	p.Bytes = bytes.Repeat([]byte{0xAB}, MaxPayloadBytes)
	wire := Encode(p)
	if len(wire) != RecvBufferBytes {
		t.Fatalf("encoded max-payload packet is %d bytes, want %d", len(wire), RecvBufferBytes)
	}
	decoded, ok := Decode(p.Addr, wire)
	if !ok {
		t.Fatalf("Decode rejected a max-size packet")
	}
	if !bytes.Equal(decoded.Bytes, p.Bytes) {
		t.Errorf("payload mismatch after round trip at max size")
	}
}

func TestDecodeRejectsMarkerMismatch(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0x30},
		{0x30, 0x31},
		{0x30, 0x31, 0x33, 0, 0, 0, 0, 0, 0, 0, 0},
		bytes.Repeat([]byte{0xFF}, 20),
	}
	for i, datagram := range cases {
		if _, ok := Decode(PeerAddr{}, datagram); ok {
			t.Errorf("case %d: Decode accepted %v, want reject", i, datagram)
		}
	}
}

func TestDecodeRejectsShortHeaderDespiteMarker(t *testing.T) {
	datagram := append([]byte{}, Marker[:]...)
	datagram = append(datagram, 0, 1, 0, 2) // seq + partial ack_num
	if _, ok := Decode(PeerAddr{}, datagram); ok {
		t.Errorf("Decode accepted a short-but-marked datagram")
	}
}

func TestDecodeEmptyPayloadIsValid(t *testing.T) {
	p := samplePacket()
	p.Bytes = nil
	wire := Encode(p)
	decoded, ok := Decode(p.Addr, wire)
	if !ok {
		t.Fatalf("Decode rejected a zero-payload packet")
	}
	if len(decoded.Bytes) != 0 {
		t.Errorf("payload = %v, want empty", decoded.Bytes)
	}
}
