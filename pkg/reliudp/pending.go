package reliudp

import "time"

// pendingKey identifies one outstanding send awaiting acknowledgement.
type pendingKey struct {
	Addr   PeerAddr
	SeqNum uint16
}

// pendingEntry is the value half of the PendingTable.
type pendingEntry struct {
	Packet     FullPacket
	EnqueuedAt time.Time
	TryCount   int
}

// PendingTable indexes (peer, seq_num) -> (packet, send time, try
// count) for every send awaiting acknowledgement. It is owned
// exclusively by the Director; nothing else reads or mutates it.
type PendingTable struct {
	entries    map[pendingKey]pendingEntry
	dropAfter  time.Duration
	nowForTest func() time.Time
}

// NewPendingTable builds an empty table that classifies an entry as
// dropped once it has waited longer than dropAfter (spec's
// PACKET_DROP_TIME).
func NewPendingTable(dropAfter time.Duration) *PendingTable {
	return &PendingTable{
		entries:    make(map[pendingKey]pendingEntry),
		dropAfter:  dropAfter,
		nowForTest: time.Now,
	}
}

func (t *PendingTable) now() time.Time {
	if t.nowForTest != nil {
		return t.nowForTest()
	}
	return time.Now()
}

// Insert records a freshly sent packet with the given try count
// (starting at 1 on a packet's first transmission), replacing any
// prior entry under the same key.
func (t *PendingTable) Insert(p FullPacket, tryCount int) {
	t.entries[pendingKey{Addr: p.Addr, SeqNum: p.SeqNum}] = pendingEntry{
		Packet:     p,
		EnqueuedAt: t.now(),
		TryCount:   tryCount,
	}
}

// Remove erases the entry for (addr, seqNum), if any.
func (t *PendingTable) Remove(addr PeerAddr, seqNum uint16) {
	delete(t.entries, pendingKey{Addr: addr, SeqNum: seqNum})
}

// droppedPacket is one PendingTable entry whose deadline has passed.
type droppedPacket struct {
	Packet   FullPacket
	TryCount int
}

// ExtractExpired atomically removes and returns every entry whose age
// exceeds dropAfter.
func (t *PendingTable) ExtractExpired() []droppedPacket {
	now := t.now()
	var dropped []droppedPacket
	for key, entry := range t.entries {
		if now.Sub(entry.EnqueuedAt) > t.dropAfter {
			dropped = append(dropped, droppedPacket{Packet: entry.Packet, TryCount: entry.TryCount})
			delete(t.entries, key)
		}
	}
	return dropped
}

// ClearAcked removes every pending entry that a received Full packet
// acknowledges: the key (peer, ack_num) itself, plus (peer,
// ack_num-(i+1) mod 2^16) for every bit i set in ack_field.
func (t *PendingTable) ClearAcked(addr PeerAddr, ackNum uint16, ackField uint32) {
	delete(t.entries, pendingKey{Addr: addr, SeqNum: ackNum})
	for i := uint32(0); i < ackWindow; i++ {
		if ackField&(1<<i) == 0 {
			continue
		}
		seq := ackNum - uint16(i+1)
		delete(t.entries, pendingKey{Addr: addr, SeqNum: seq})
	}
}

// Len reports the number of outstanding pendings, for metrics.
func (t *PendingTable) Len() int {
	return len(t.entries)
}
