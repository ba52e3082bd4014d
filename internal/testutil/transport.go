package testutil

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cory-johannsen/vno/internal/vno/connection"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// ErrLinkClosed is returned by MemConn writes after Close or Hangup.
var ErrLinkClosed = errors.New("memory link closed")

// RecordingTransport is an in-memory connection.Transport. Every dialed link
// records the frames written to it and replays frames injected by the test.
type RecordingTransport struct {
	// DialErr, when set, fails every Dial.
	DialErr error

	mu    sync.Mutex
	conns map[string]*MemConn
	dials []string
}

// NewRecordingTransport creates a transport with no links.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{conns: make(map[string]*MemConn)}
}

// Dial implements connection.Transport.
func (t *RecordingTransport) Dial(ctx context.Context, addr string) (connection.FrameConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials = append(t.dials, addr)
	if t.DialErr != nil {
		return nil, t.DialErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := newMemConn(addr)
	t.conns[addr] = c
	return c, nil
}

// Dials returns every address passed to Dial, in order.
func (t *RecordingTransport) Dials() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.dials...)
}

// Conn returns the most recent link dialed to addr, or nil.
func (t *RecordingTransport) Conn(addr string) *MemConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[addr]
}

// MemConn is one in-memory link. Safe for concurrent use.
type MemConn struct {
	Addr string

	inbound chan protocol.Frame
	closed  chan struct{}
	once    sync.Once

	mu     sync.Mutex
	sent   []protocol.Frame
	notify chan struct{}
	// block, when non-nil, stalls WriteFrame until it is closed.
	block chan struct{}
}

func newMemConn(addr string) *MemConn {
	return &MemConn{
		Addr:    addr,
		inbound: make(chan protocol.Frame),
		closed:  make(chan struct{}),
		notify:  make(chan struct{}, 1),
	}
}

// ReadFrame implements connection.FrameConn.
func (c *MemConn) ReadFrame() (protocol.Frame, error) {
	select {
	case f := <-c.inbound:
		return f, nil
	case <-c.closed:
		return protocol.Frame{}, io.EOF
	}
}

// WriteFrame implements connection.FrameConn.
func (c *MemConn) WriteFrame(f protocol.Frame) error {
	c.mu.Lock()
	block := c.block
	c.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-c.closed:
			return ErrLinkClosed
		}
	}

	select {
	case <-c.closed:
		return ErrLinkClosed
	default:
	}
	c.mu.Lock()
	c.sent = append(c.sent, f)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Close implements connection.FrameConn.
func (c *MemConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Hangup ends the link as if the server closed it.
func (c *MemConn) Hangup() { _ = c.Close() }

// Closed reports whether the link has ended.
func (c *MemConn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Block makes subsequent writes stall until the returned release func is called.
func (c *MemConn) Block() (release func()) {
	ch := make(chan struct{})
	c.mu.Lock()
	c.block = ch
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.block = nil
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Deliver injects f as if the server sent it, blocking until the reader takes it.
func (c *MemConn) Deliver(t testing.TB, f protocol.Frame) {
	t.Helper()
	select {
	case c.inbound <- f:
	case <-c.closed:
		t.Fatalf("delivering %s frame: link closed", f.Type)
	case <-time.After(5 * time.Second):
		t.Fatalf("delivering %s frame: reader not consuming", f.Type)
	}
}

// Sent returns a copy of every frame written so far.
func (c *MemConn) Sent() []protocol.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Frame(nil), c.sent...)
}

// SentTypes returns the type of every frame written so far.
func (c *MemConn) SentTypes() []string {
	sent := c.Sent()
	types := make([]string, len(sent))
	for i, f := range sent {
		types[i] = f.Type
	}
	return types
}

// WaitSent blocks until at least n frames were written.
//
// Postcondition: Returns the written frames or fails the test on timeout.
func (c *MemConn) WaitSent(t testing.TB, n int, timeout time.Duration) []protocol.Frame {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if sent := c.Sent(); len(sent) >= n {
			return sent
		}
		select {
		case <-c.notify:
		case <-deadline:
			t.Fatalf("waiting for %d frames, got %v", n, c.SentTypes())
			return nil
		}
	}
}
