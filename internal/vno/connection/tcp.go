package connection

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/proxy"

	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// TCPTransport carries varint length-delimited frames over a TCP stream,
// optionally through a SOCKS5 proxy.
type TCPTransport struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxFrameSize bounds inbound frames; zero selects protocol.DefaultMaxFrameSize.
	MaxFrameSize int
	// ProxyAddr is a SOCKS5 "host:port"; empty dials directly.
	ProxyAddr string
}

// Dial implements Transport.
func (t *TCPTransport) Dial(ctx context.Context, addr string) (FrameConn, error) {
	d := &net.Dialer{Timeout: t.DialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if t.ProxyAddr == "" {
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = t.dialProxy(ctx, d, addr)
	}
	if err != nil {
		return nil, err
	}

	maxSize := t.MaxFrameSize
	if maxSize <= 0 {
		maxSize = protocol.DefaultMaxFrameSize
	}
	return &tcpConn{
		conn:         conn,
		r:            bufio.NewReader(conn),
		maxFrameSize: maxSize,
		writeTimeout: t.WriteTimeout,
	}, nil
}

func (t *TCPTransport) dialProxy(ctx context.Context, forward *net.Dialer, addr string) (net.Conn, error) {
	pd, err := proxy.SOCKS5("tcp", t.ProxyAddr, nil, forward)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy %s: %w", t.ProxyAddr, err)
	}
	cd, ok := pd.(proxy.ContextDialer)
	if !ok {
		return pd.Dial("tcp", addr)
	}
	if t.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.DialTimeout)
		defer cancel()
	}
	return cd.DialContext(ctx, "tcp", addr)
}

type tcpConn struct {
	conn         net.Conn
	r            *bufio.Reader
	maxFrameSize int
	writeTimeout time.Duration
}

func (c *tcpConn) ReadFrame() (protocol.Frame, error) {
	return protocol.ReadDelimited(c.r, c.maxFrameSize)
}

func (c *tcpConn) WriteFrame(f protocol.Frame) error {
	if err := c.conn.SetWriteDeadline(writeDeadline(c.writeTimeout)); err != nil {
		return err
	}
	return protocol.WriteDelimited(c.conn, f)
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}
