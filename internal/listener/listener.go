// Package listener owns the UDP sockets: it reads datagrams, strips the
// four leading 0xFF bytes, and hands the rest to master.Dispatch, and it
// implements master.Sender to write responses back out. Spec §5 allows
// independent IPv4 and IPv6 receive loops because the registry already
// serializes its own state; this package runs exactly those two loops
// under one errgroup, grounded on the teacher's cmd/gameserver/main.go
// use of golang.org/x/sync/errgroup to run sibling server loops under a
// single cancellable group.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sync/errgroup"

	"github.com/quake3/masterd/internal/master"
	"github.com/quake3/masterd/internal/registry"
)

// wirePrefix is the four 0xFF bytes every datagram is framed with
// (spec §6).
var wirePrefix = [4]byte{0xff, 0xff, 0xff, 0xff}

const readBufferSize = 2048

// Runner owns the listening sockets and runs the receive loops.
type Runner struct {
	collab *master.Collaborators
	v4conn *ipv4.PacketConn
	v6conn *ipv6.PacketConn
}

// New opens UDP sockets for addr4 and addr6 and wraps each with the
// golang.org/x/net packet-conn type so the loops share one Sender
// implementation, grounded on joshuafuller-beacon's use of
// ipv4.NewPacketConn to wrap a net.PacketConn for a mDNS responder.
// Either address may be empty to skip that family.
func New(collab *master.Collaborators, addr4, addr6 string) (*Runner, error) {
	r := &Runner{collab: collab}

	if addr4 != "" {
		conn, err := net.ListenPacket("udp4", addr4)
		if err != nil {
			return nil, fmt.Errorf("listening udp4 on %s: %w", addr4, err)
		}
		r.v4conn = ipv4.NewPacketConn(conn)
	}

	if addr6 != "" {
		conn, err := net.ListenPacket("udp6", addr6)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("listening udp6 on %s: %w", addr6, err)
		}
		r.v6conn = ipv6.NewPacketConn(conn)
	}

	collab.Sender = r
	return r, nil
}

// Close releases both sockets, ignoring a nil conn for a family that
// was never opened.
func (r *Runner) Close() error {
	var err error
	if r.v4conn != nil {
		err = errors.Join(err, r.v4conn.Close())
	}
	if r.v6conn != nil {
		err = errors.Join(err, r.v6conn.Close())
	}
	return err
}

// Run drives the IPv4 and IPv6 receive loops until ctx is canceled or
// either loop returns a non-cancellation error, then closes both
// sockets. This is the "independent per-family loops" shape spec §5
// allows, run under one errgroup the way the teacher's gameserver main
// runs its sibling background loops.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if r.v4conn != nil {
		g.Go(func() error { return r.receiveLoop(gctx, r.v4conn, nil) })
	}
	if r.v6conn != nil {
		g.Go(func() error { return r.receiveLoop(gctx, nil, r.v6conn) })
	}

	go func() {
		<-gctx.Done()
		r.Close()
	}()

	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// receiveLoop reads one family's socket until it errors or is closed.
// Exactly one of v4/v6 is non-nil; each read picks the non-nil one.
func (r *Runner) receiveLoop(ctx context.Context, v4 *ipv4.PacketConn, v6 *ipv6.PacketConn) error {
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		var n int
		var src net.Addr
		var err error
		if v4 != nil {
			n, _, src, err = v4.ReadFrom(buf)
		} else {
			n, _, src, err = v6.ReadFrom(buf)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading datagram: %w", err)
		}

		peer, ok := addrPortOf(src)
		if !ok {
			slog.Debug("dropping datagram from unparseable source", "src", src)
			continue
		}

		datagram := buf[:n]
		if len(datagram) < len(wirePrefix) || [4]byte(datagram[:4]) != wirePrefix {
			slog.Debug("dropping datagram with missing wire prefix", "peer", peer)
			continue
		}

		master.Dispatch(r.collab, peer, datagram[len(wirePrefix):])
	}
}

// SendTo implements master.Sender: it selects the socket for addr's
// family and writes the framed datagram.
func (r *Runner) SendTo(addr registry.Address, payload []byte) error {
	udpAddr := net.UDPAddrFromAddrPort(addr)
	if addr.Addr().Is4() || addr.Addr().Is4In6() {
		if r.v4conn == nil {
			return fmt.Errorf("sending to %s: no ipv4 socket", addr)
		}
		_, err := r.v4conn.WriteTo(payload, nil, udpAddr)
		return err
	}
	if r.v6conn == nil {
		return fmt.Errorf("sending to %s: no ipv6 socket", addr)
	}
	_, err := r.v6conn.WriteTo(payload, nil, udpAddr)
	return err
}

func addrPortOf(a net.Addr) (netip.AddrPort, bool) {
	udpAddr, ok := a.(*net.UDPAddr)
	if !ok {
		return netip.AddrPort{}, false
	}
	ap := udpAddr.AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), true
}
