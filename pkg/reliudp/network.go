package reliudp

import (
	"context"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// Network is the library's top-level handle: a running socket
// listener, socket sender and Director, reachable only through Send
// and Recv. Closing it tears down all three goroutines.
type Network struct {
	conn   *net.UDPConn
	cancel context.CancelFunc
	wg     sync.WaitGroup

	appIn  chan AppPacket
	appOut chan AppPacket

	log *logrus.Entry
}

// Send enqueues a best-effort, at-most-MAX_RESEND_ATTEMPTS delivery of
// bytes to addr. It never blocks the caller past the channel's buffer.
func (n *Network) Send(addr PeerAddr, bytes []byte) {
	select {
	case n.appIn <- AppPacket{Addr: addr, Bytes: bytes}:
	default:
		n.log.WithField("peer", addr).Warn("app_in full, dropping outbound send request")
	}
}

// Recv returns the channel of payloads arriving from remote peers.
// Callers range over it until Close.
func (n *Network) Recv() <-chan AppPacket {
	return n.appOut
}

// Close stops the Director and both socket threads and releases the
// UDP socket. It does not wait for in-flight pendings to drain; per
// spec there is no graceful shutdown in the core.
func (n *Network) Close() error {
	n.cancel()
	err := n.conn.Close()
	n.wg.Wait()
	return err
}

// appChannelBuffer sizes the bounded Go channels standing in for the
// original's unbounded mpsc queues. A full buffer is reported via a
// log warning and the enqueue is dropped rather than blocking the
// Director, preserving the "never blocks on a single channel"
// requirement under Go's bounded-channel model.
const appChannelBuffer = 1024

// StartNetwork binds a UDP socket at bindAddr and starts the receive
// thread, send thread and Director, wired together exactly as
// described in spec §5: sock_in/sock_out between the socket threads
// and the Director, app_in/app_out between the Director and the
// caller.
func StartNetwork(ctx context.Context, bindAddr string, cfg Config, log *logrus.Entry, metrics *Metrics) (*Network, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	udpAddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, wrapBindFailure(err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, wrapBindFailure(err)
	}

	sockIn := make(chan FullPacket, appChannelBuffer)
	sockOut := make(chan FullPacket, appChannelBuffer)
	appIn := make(chan AppPacket, appChannelBuffer)
	appOut := make(chan AppPacket, appChannelBuffer)

	runCtx, cancel := context.WithCancel(ctx)

	n := &Network{
		conn:   conn,
		cancel: cancel,
		appIn:  appIn,
		appOut: appOut,
		log:    log.WithField("component", "network"),
	}

	director := NewDirector(cfg, sockIn, sockOut, appIn, appOut, log, metrics)

	n.wg.Add(3)
	go n.recvLoop(runCtx, conn, sockIn, cfg.RecvBufferBytes)
	go n.sendLoop(runCtx, conn, sockOut)
	go func() {
		defer n.wg.Done()
		if err := director.Run(runCtx); err != nil {
			n.log.WithError(err).Error("director stopped")
		}
	}()

	return n, nil
}

// recvLoop is the receive thread: read one datagram, decode it, and
// forward it non-blockingly to the Director. Decode failures and
// socket errors are logged, never propagated — per spec §7 these are
// local to the I/O thread.
func (n *Network) recvLoop(ctx context.Context, conn *net.UDPConn, sockIn chan<- FullPacket, bufSize int) {
	defer n.wg.Done()
	buf := make([]byte, bufSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		read, udpAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.log.WithError(err).Warn("socket receive failed")
			continue
		}

		datagram := make([]byte, read)
		copy(datagram, buf[:read])

		pkt, ok := Decode(PeerAddrFromUDP(udpAddr), datagram)
		if !ok {
			n.log.WithField("peer", udpAddr).Debug("dropping datagram that failed marker/header validation")
			continue
		}

		select {
		case sockIn <- pkt:
		default:
			n.log.WithField("peer", udpAddr).Warn("sock_in full, dropping decoded packet")
		}
	}
}

// sendLoop is the send thread: block on sock_out, serialize, write.
func (n *Network) sendLoop(ctx context.Context, conn *net.UDPConn, sockOut <-chan FullPacket) {
	defer n.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-sockOut:
			if !ok {
				return
			}
			wire := Encode(pkt)
			if _, err := conn.WriteToUDP(wire, pkt.Addr.UDPAddr()); err != nil {
				n.log.WithField("peer", pkt.Addr).WithError(err).Warn("socket send failed")
			}
		}
	}
}
