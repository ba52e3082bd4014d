// Package connection implements the directory and game server channels: a
// transport-backed link with a reader and a writer goroutine, typed request
// senders, and delivery of decoded commands onto the shared queue.
package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/cory-johannsen/vno/internal/config"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// FrameConn is an established, frame-oriented link.
//
// ReadFrame is called only by the reader goroutine and WriteFrame only by the
// writer goroutine, so implementations need not serialize either side.
// ReadFrame returns io.EOF when the remote side closes cleanly.
type FrameConn interface {
	ReadFrame() (protocol.Frame, error)
	WriteFrame(protocol.Frame) error
	Close() error
}

// Transport dials FrameConns.
type Transport interface {
	// Dial opens a link to addr ("host:port").
	Dial(ctx context.Context, addr string) (FrameConn, error)
}

// NewTransport builds the transport selected by cfg.Kind.
//
// Precondition: cfg must have passed config validation.
// Postcondition: Returns a usable Transport or a non-nil error.
func NewTransport(cfg config.TransportConfig) (Transport, error) {
	switch cfg.Kind {
	case config.TransportTCP:
		return &TCPTransport{
			DialTimeout:  cfg.DialTimeout,
			WriteTimeout: cfg.WriteTimeout,
			MaxFrameSize: cfg.MaxFrameSize,
			ProxyAddr:    cfg.SOCKS5Proxy,
		}, nil
	case config.TransportGRPC:
		return &GRPCTransport{
			Method:      cfg.GRPCMethod,
			DialTimeout: cfg.DialTimeout,
		}, nil
	case config.TransportWebSocket:
		return &WebSocketTransport{
			Path:         cfg.WSPath,
			DialTimeout:  cfg.DialTimeout,
			WriteTimeout: cfg.WriteTimeout,
			MaxFrameSize: cfg.MaxFrameSize,
		}, nil
	}
	return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
}

func writeDeadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
