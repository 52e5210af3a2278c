// Package udp is the lightweight datagram path cars use for liveness. A
// datagram's first byte selects the operation; everything heavier goes over
// HTTP.
package udp

import (
	"context"
	"log/slog"
	"net"

	"carlink/internal/service"

	"github.com/google/uuid"
)

const (
	opPing      = 0x00
	opHeartbeat = 0x01
)

type Server struct {
	cars service.CarService
}

func NewServer(cars service.CarService) *Server {
	return &Server{cars: cars}
}

// Serve reads datagrams until ctx is cancelled or the connection fails.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
			// Serve already returned on its own; the connection is the
			// caller's to close.
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.handle(ctx, conn, buf[:n], addr)
	}
}

func (s *Server) handle(ctx context.Context, conn net.PacketConn, pkt []byte, addr net.Addr) {
	if len(pkt) == 0 {
		return
	}
	switch pkt[0] {
	case opPing:
		_, _ = conn.WriteTo([]byte("pong"), addr)
	case opHeartbeat:
		// Payload is the car's uuid in canonical textual form.
		id, err := uuid.ParseBytes(pkt[1:])
		if err != nil {
			return
		}
		if err := s.cars.Heartbeat(ctx, id); err != nil {
			slog.Debug("udp heartbeat rejected", "car_id", id, "error", err)
		}
	}
}
