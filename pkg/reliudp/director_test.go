package reliudp

import (
	"testing"
	"time"
)

func newTestDirector(cfg Config) (*Director, chan FullPacket, chan FullPacket, chan AppPacket, chan AppPacket) {
	sockIn := make(chan FullPacket, 16)
	sockOut := make(chan FullPacket, 16)
	appIn := make(chan AppPacket, 16)
	appOut := make(chan AppPacket, 16)
	d := NewDirector(cfg, sockIn, sockOut, appIn, appOut, nil, nil)
	return d, sockIn, sockOut, appIn, appOut
}

// TestDirectorAtMostNAttempts checks testable property 7: the
// Director never transmits more than MAX_RESEND_ATTEMPTS copies of any
// (peer, original-payload) pair.
func TestDirectorAtMostNAttempts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxResendAttempts = 3
	cfg.PacketDropTime = 5 * time.Second
	d, _, sockOut, appIn, _ := newTestDirector(cfg)

	start := time.Now()
	current := start
	d.pending.nowForTest = func() time.Time { return current }

	peer := PeerAddr{IP: "10.0.0.9", Port: 9}
	appIn <- AppPacket{Addr: peer, Bytes: []byte("hello")}

	sent := 0
	for i := 0; i < 10; i++ {
		if err := d.tick(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		for {
			select {
			case <-sockOut:
				sent++
				continue
			default:
			}
			break
		}
		current = current.Add(cfg.PacketDropTime + time.Millisecond)
	}

	if sent != cfg.MaxResendAttempts {
		t.Fatalf("sent %d copies, want exactly %d (MaxResendAttempts)", sent, cfg.MaxResendAttempts)
	}
	if d.pending.Len() != 0 {
		t.Errorf("pending table should be empty after giving up, got %d entries", d.pending.Len())
	}
}

// TestDirectorAckClearsPending checks testable property 8: a Full
// packet acknowledging seq_num a, with bit i of ack_field set, clears
// both (peer, a) and (peer, a-(i+1) mod 2^16) from the PendingTable
// after Phase 1 runs.
func TestDirectorAckClearsPending(t *testing.T) {
	cfg := DefaultConfig()
	d, sockIn, sockOut, appIn, _ := newTestDirector(cfg)

	peer := PeerAddr{IP: "10.0.0.10", Port: 10}
	appIn <- AppPacket{Addr: peer, Bytes: []byte("one")}
	appIn <- AppPacket{Addr: peer, Bytes: []byte("two")}

	if err := d.tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	drainFullPackets(sockOut)
	if d.pending.Len() != 2 {
		t.Fatalf("pending.Len() = %d, want 2 after two sends", d.pending.Len())
	}

	// acknowledge seq 2 outright, and seq 1 via bit 0 (2-(0+1)=1).
	sockIn <- FullPacket{Addr: peer, SeqNum: 100, AckNum: 2, AckField: 0b1}
	if err := d.tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if d.pending.Len() != 0 {
		t.Errorf("pending.Len() = %d, want 0 after ack clears both sends", d.pending.Len())
	}
}

// TestDirectorEndToEndReliableSend exercises scenario S6: peer A sends
// payload X to peer B's Director; B's Director hands it to the
// application and later acks it; A's Director clears the pending
// entry once it observes that ack.
func TestDirectorEndToEndReliableSend(t *testing.T) {
	cfg := DefaultConfig()
	a, aSockIn, aSockOut, aAppIn, _ := newTestDirector(cfg)
	b, bSockIn, bSockOut, bAppIn, bAppOut := newTestDirector(cfg)

	peerA := PeerAddr{IP: "10.0.0.1", Port: 1}
	peerB := PeerAddr{IP: "10.0.0.2", Port: 2}

	aAppIn <- AppPacket{Addr: peerB, Bytes: []byte("X")}
	if err := a.tick(); err != nil {
		t.Fatalf("a.tick: %v", err)
	}

	sent := drainFullPackets(aSockOut)
	if len(sent) != 1 || sent[0].SeqNum != 1 {
		t.Fatalf("A should have sent exactly one packet with seq_num=1, got %+v", sent)
	}

	// deliver A's packet to B, addressed from A's perspective.
	delivered := sent[0]
	delivered.Addr = peerA
	bSockIn <- delivered
	if err := b.tick(); err != nil {
		t.Fatalf("b.tick: %v", err)
	}

	select {
	case got := <-bAppOut:
		if got.Addr != peerA || string(got.Bytes) != "X" {
			t.Fatalf("app_out = %+v, want (peerA, X)", got)
		}
	default:
		t.Fatal("B's Director did not forward the payload to its application")
	}

	// B now sends anything back to A; its Director attaches ack_num=1.
	bAppIn <- AppPacket{Addr: peerA, Bytes: []byte("ack-carrier")}
	if err := b.tick(); err != nil {
		t.Fatalf("b.tick: %v", err)
	}
	back := drainFullPackets(bSockOut)
	if len(back) != 1 || back[0].AckNum != 1 {
		t.Fatalf("B's reply should carry ack_num=1, got %+v", back)
	}

	reply := back[0]
	reply.Addr = peerB
	aSockIn <- reply
	if err := a.tick(); err != nil {
		t.Fatalf("a.tick: %v", err)
	}

	if a.pending.Len() != 0 {
		t.Errorf("A's pending table should be empty once it observes B's ack, got %d entries", a.pending.Len())
	}
}

func drainFullPackets(ch chan FullPacket) []FullPacket {
	var out []FullPacket
	for {
		select {
		case p := <-ch:
			out = append(out, p)
		default:
			return out
		}
	}
}
