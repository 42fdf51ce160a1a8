package reliudp

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AppPacket is the shape application code exchanges with the Director
// at the app_in/app_out boundary: a peer and an opaque payload.
type AppPacket struct {
	Addr  PeerAddr
	Bytes []byte
}

// outboundUnit is one payload on its way to the send phase, carrying
// how many times it has already been transmitted (0 for a brand new
// application send).
type outboundUnit struct {
	Addr     PeerAddr
	Bytes    []byte
	TryCount int
}

// Director is the single logical worker that owns all per-peer
// protocol state: next send sequence number, received-ack bitmap, and
// the PendingTable. Nothing outside Run ever touches this state, so it
// carries no locks.
type Director struct {
	sockIn  <-chan FullPacket
	sockOut chan<- FullPacket
	appIn   <-chan AppPacket
	appOut  chan<- AppPacket

	cfg     Config
	pending *PendingTable
	acks    map[PeerAddr]*PeerAcks
	seqNums map[PeerAddr]uint16

	log *logrus.Entry

	metrics *Metrics
}

// NewDirector wires a Director over the four channels described in
// spec §5: sockIn/sockOut face the socket threads, appIn/appOut face
// the application.
func NewDirector(cfg Config, sockIn <-chan FullPacket, sockOut chan<- FullPacket, appIn <-chan AppPacket, appOut chan<- AppPacket, log *logrus.Entry, metrics *Metrics) *Director {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Director{
		sockIn:  sockIn,
		sockOut: sockOut,
		appIn:   appIn,
		appOut:  appOut,
		cfg:     cfg,
		pending: NewPendingTable(cfg.PacketDropTime),
		acks:    make(map[PeerAddr]*PeerAcks),
		seqNums: make(map[PeerAddr]uint16),
		log:     log.WithField("component", "director"),
		metrics: metrics,
	}
}

// Run executes the unbounded phase loop until ctx is cancelled or one
// of the application channels closes out from under it. A closed
// channel is fatal per spec §4.4/§7: Run returns ErrChannelClosed and
// any in-flight pendings are abandoned.
func (d *Director) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.DirectorPollPeriod)
	defer ticker.Stop()

	for {
		if err := d.tick(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick runs one iteration's four phases, in the order the spec
// requires: an ack arriving in Phase 1 must clear a pending before
// Phase 3 re-evaluates it in the same iteration.
func (d *Director) tick() error {
	if err := d.drainInbound(); err != nil {
		return err
	}
	outboundNew, err := d.drainOutbound()
	if err != nil {
		return err
	}

	outbound := append(d.extractSurvivingDrops(), outboundNew...)
	d.send(outbound)

	return nil
}

// drainInbound is Phase 1: clear acks, fold the sequence number into
// the sender's AckTracker, forward the payload to the application.
func (d *Director) drainInbound() error {
	for {
		select {
		case pkt, ok := <-d.sockIn:
			if !ok {
				return errors.Wrap(ErrChannelClosed, "sock_in")
			}
			d.pending.ClearAcked(pkt.Addr, pkt.AckNum, pkt.AckField)
			d.ackTrackerFor(pkt.Addr).Record(pkt.SeqNum)
			if d.metrics != nil {
				d.metrics.ObserveReceived(pkt.Addr)
			}
			select {
			case d.appOut <- AppPacket{Addr: pkt.Addr, Bytes: pkt.Bytes}:
			default:
				d.log.WithField("peer", pkt.Addr).Warn("app_out full, dropping inbound payload")
			}
		default:
			return nil
		}
	}
}

// drainOutbound is Phase 2: every pending application write becomes a
// fresh outbound unit with try_count 0.
func (d *Director) drainOutbound() ([]outboundUnit, error) {
	var units []outboundUnit
	for {
		select {
		case pkt, ok := <-d.appIn:
			if !ok {
				return units, errors.Wrap(ErrChannelClosed, "app_in")
			}
			units = append(units, outboundUnit{Addr: pkt.Addr, Bytes: pkt.Bytes, TryCount: 0})
		default:
			return units, nil
		}
	}
}

// extractSurvivingDrops is Phase 3: pull every expired PendingTable
// entry, discard the ones that already hit MAX_RESEND_ATTEMPTS, and
// turn the rest back into outbound units carrying their existing
// try_count.
func (d *Director) extractSurvivingDrops() []outboundUnit {
	dropped := d.pending.ExtractExpired()
	units := make([]outboundUnit, 0, len(dropped))
	for _, entry := range dropped {
		if entry.TryCount >= d.cfg.MaxResendAttempts {
			if d.metrics != nil {
				d.metrics.ObserveAbandoned(entry.Packet.Addr)
			}
			d.log.WithFields(logrus.Fields{
				"peer":    entry.Packet.Addr,
				"seq_num": entry.Packet.SeqNum,
				"tries":   entry.TryCount,
			}).Warn("giving up on unacked packet")
			continue
		}
		units = append(units, outboundUnit{Addr: entry.Packet.Addr, Bytes: entry.Packet.Bytes, TryCount: entry.TryCount})
		if d.metrics != nil {
			d.metrics.ObserveRetransmitted(entry.Packet.Addr)
		}
	}
	return units
}

// send is Phase 4: allocate a sequence number, attach the current ack
// state, record a fresh pending entry, and emit the wire-complete
// packet.
func (d *Director) send(units []outboundUnit) {
	for _, unit := range units {
		seqNum := d.nextSeqNum(unit.Addr)
		acks := d.ackTrackerFor(unit.Addr)

		full := FullPacket{
			Addr:     unit.Addr,
			SeqNum:   seqNum,
			AckNum:   acks.AckNum,
			AckField: acks.AckField,
			Bytes:    unit.Bytes,
		}

		d.pending.Insert(full, unit.TryCount+1)
		if d.metrics != nil {
			d.metrics.ObserveSent(unit.Addr)
			d.metrics.SetPendingCount(d.pending.Len())
		}

		select {
		case d.sockOut <- full:
		default:
			d.log.WithField("peer", unit.Addr).Warn("sock_out full, dropping send")
		}
	}
}

func (d *Director) nextSeqNum(addr PeerAddr) uint16 {
	next := d.seqNums[addr] + 1
	d.seqNums[addr] = next
	return next
}

func (d *Director) ackTrackerFor(addr PeerAddr) *PeerAcks {
	acks, ok := d.acks[addr]
	if !ok {
		acks = &PeerAcks{}
		d.acks[addr] = acks
	}
	return acks
}
