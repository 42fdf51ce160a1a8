package reliudp

// PeerAcks is the sliding selective-ack window kept per remote peer.
// AckNum is the highest sequence number received from the peer under
// wrap-aware 16-bit ordering; bit i of AckField (0-indexed) is set iff
// AckNum-(i+1) mod 2^16 has also been received. Only the 32 most
// recent predecessors of AckNum are representable.
type PeerAcks struct {
	AckNum   uint16
	AckField uint32
}

// ackWindow is the number of prior sequence numbers AckField can
// represent, and the in-window limit for both the newer and the older
// case below (the newer/older decision itself is made at 2^15).
const ackWindow = 32

// Record folds a newly received sequence number into the window. It
// is the sole mutator of PeerAcks and never fails.
//
// delta16 is (seqNum - AckNum) computed in uint16 arithmetic, i.e. mod
// 2^16, then read as signed over (-2^15, 2^15]: 0 is a duplicate,
// 1..32768 means seqNum is newer, 32769..65535 means seqNum is older.
func (p *PeerAcks) Record(seqNum uint16) {
	delta16 := seqNum - p.AckNum
	switch {
	case delta16 == 0:
		return
	case delta16 <= 1<<15:
		p.recordNewer(uint32(delta16))
	default:
		p.recordOlder(uint32(65536 - uint32(delta16)))
	}
}

func (p *PeerAcks) recordNewer(d uint32) {
	if d < ackWindow {
		p.AckField = (p.AckField << d) | (1 << (d - 1))
	} else {
		p.AckField = 0
	}
	p.AckNum += uint16(d)
}

func (p *PeerAcks) recordOlder(d uint32) {
	if d >= 1 && d <= ackWindow {
		p.AckField |= 1 << (d - 1)
	}
	// d > ackWindow: too old to represent, no change.
}
