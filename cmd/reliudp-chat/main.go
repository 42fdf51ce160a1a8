package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ventosilenzioso/reliudp/internal/chatframe"
	"github.com/ventosilenzioso/reliudp/internal/peerreg"
	"github.com/ventosilenzioso/reliudp/pkg/logger"
	"github.com/ventosilenzioso/reliudp/pkg/reliudp"
)

const version = "0.1.0"

type options struct {
	listen     string
	peers      []string
	metricsURL string
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "reliudp-chat",
		Short: "Best-effort reliable chat demo over reliudp",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	root.Flags().StringVar(&opts.listen, "listen", "0.0.0.0:7777", "address to bind the UDP socket on")
	root.Flags().StringArrayVar(&opts.peers, "peer", nil, "address:port of a peer to chat with (repeatable)")
	root.Flags().StringVar(&opts.metricsURL, "metrics-listen", "", "if set, serve Prometheus metrics on this address")

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Fatal("%v", err)
	}
}

func run(ctx context.Context, opts *options) error {
	logger.Banner("reliudp chat demo", version)

	cfg, err := reliudp.LoadConfig(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	metrics := reliudp.NewMetrics()
	registry := prometheus.NewRegistry()
	for _, c := range metrics.Collectors() {
		registry.MustRegister(c)
	}
	if opts.metricsURL != "" {
		go serveMetrics(opts.metricsURL, registry)
	}

	log := logger.Entry()
	network, err := reliudp.StartNetwork(ctx, opts.listen, cfg, log, metrics)
	if err != nil {
		return err
	}
	defer network.Close()
	logger.Success("listening on %s", opts.listen)

	peers := peerreg.New()
	peers.On(peerreg.EventPeerConnected, func(e peerreg.Event) {
		logger.InfoCyan("peer connected: %v", e.Peer)
	})
	peers.On(peerreg.EventPeerTimedOut, func(e peerreg.Event) {
		logger.Warn("peer timed out: %v", e.Peer)
	})

	peerAddrs := make([]reliudp.PeerAddr, 0, len(opts.peers))
	for _, raw := range opts.peers {
		addr, err := parsePeerAddr(raw)
		if err != nil {
			return err
		}
		peerAddrs = append(peerAddrs, addr)
	}

	go readStdinAndSend(ctx, network, peerAddrs)
	go expirePeersPeriodically(ctx, peers)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case pkt, ok := <-network.Recv():
			if !ok {
				return nil
			}
			line, err := chatframe.DecodeLine(pkt.Bytes)
			if err != nil {
				log.WithField("peer", pkt.Addr).WithError(err).Warn("dropping malformed frame")
				continue
			}
			peers.Touch(pkt.Addr, time.Now())
			fmt.Printf("%s: %s\n", pkt.Addr, line)
		}
	}
}

func readStdinAndSend(ctx context.Context, network *reliudp.Network, peers []reliudp.PeerAddr) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		payload := chatframe.EncodeLine(scanner.Text())
		for _, peer := range peers {
			network.Send(peer, payload)
		}
	}
}

func expirePeersPeriodically(ctx context.Context, peers *peerreg.Registry) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			peers.ExpireStale(now, 30*time.Second)
		}
	}
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped: %v", err)
	}
}

func parsePeerAddr(raw string) (reliudp.PeerAddr, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return reliudp.PeerAddr{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return reliudp.PeerAddr{}, err
	}
	return reliudp.PeerAddr{IP: host, Port: port}, nil
}
