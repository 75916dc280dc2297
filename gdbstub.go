// gdbstub.go - TCP server speaking the GDB Remote Serial Protocol;
// translates packets into core/debugger/bus operations

package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const defaultGDBPort = 3333

// GDBStub serves one RSP client at a time over TCP, looping to accept
// reconnects until its context is cancelled.
type GDBStub struct {
	sim *Simulator
}

// NewGDBStub returns a stub wrapping sim. It does not start listening.
func NewGDBStub(sim *Simulator) *GDBStub {
	return &GDBStub{sim: sim}
}

// ListenAndServe binds 0.0.0.0:port (SO_REUSEADDR set before bind) and
// serves RSP sessions, one connection at a time, until ctx is cancelled
// or the listener errors.
func (g *GDBStub) ListenAndServe(ctx context.Context, port int) error {
	if port == 0 {
		port = defaultGDBPort
	}
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return fmt.Errorf("gdbstub: listen: %w", err)
	}
	log.Printf("gdbstub: listening on %s", ln.Addr())

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	group.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return err
				}
			}
			setTCPNoDelay(conn)
			g.handleSession(conn)
		}
	})
	return group.Wait()
}

// setTCPNoDelay sets TCP_NODELAY on an accepted connection directly via
// the socket, rather than through net.TCPConn's wrapper.
func setTCPNoDelay(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return
	}
	raw.Control(func(fd uintptr) {
		unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
}

// handleSession runs the packet loop for one client until it detaches,
// kills the session, or disconnects.
func (g *GDBStub) handleSession(conn net.Conn) {
	defer conn.Close()
	log.Printf("gdbstub: client connected from %s", conn.RemoteAddr())

	r := bufio.NewReader(conn)
	for {
		if b, err := r.ReadByte(); err == nil && b == 0x03 {
			g.sim.Halt()
			continue
		} else if err == nil {
			r.UnreadByte()
		} else {
			return
		}

		payload, checksumOK, ok := readPacket(r)
		if !ok {
			return
		}
		if !checksumOK {
			conn.Write([]byte{'-'})
			continue
		}
		conn.Write([]byte{'+'})

		reply, closeSession := g.dispatch(conn, r, payload)
		if reply != "" {
			conn.Write(framePacket(reply))
		}
		if closeSession {
			return
		}
	}
}

// continueLoop steps the core until a breakpoint, a fault, or an
// in-band 0x03 from the client arrives; it polls the socket
// non-blockingly between steps, the only place external input preempts
// the emulated CPU.
func (g *GDBStub) continueLoop(conn net.Conn, r *bufio.Reader) string {
	g.sim.Resume()
	for {
		conn.SetReadDeadline(time.Now().Add(time.Millisecond))
		b, err := r.Peek(1)
		conn.SetReadDeadline(time.Time{})
		if err == nil && len(b) == 1 && b[0] == 0x03 {
			r.Discard(1)
			g.sim.Halt()
			return "S05"
		}

		switch st := g.sim.Step(); st {
		case StatusOk:
			// keep going
		case StatusBreakpointHit:
			return "S05"
		default:
			g.sim.Halt()
			return "S05"
		}
	}
}
