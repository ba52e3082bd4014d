package connection

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/vno/internal/vno/command"
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
	"github.com/cory-johannsen/vno/internal/vno/queue"
)

// Status is the lifecycle phase of a Channel.
type Status int32

// Channel statuses.
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// String returns the upper-case status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	}
	return "UNKNOWN"
}

// Options configures a Channel.
type Options struct {
	Role      model.Role
	Endpoint  string
	Transport Transport
	// Queue receives every decoded inbound command in arrival order.
	Queue *queue.Queue[command.Command]
	// ClientID and Version are announced in the hello frame.
	ClientID string
	Version  string
	Logger   *zap.Logger
}

type writeRequest struct {
	frame  protocol.Frame
	result chan error
}

// Channel is one logical link to a remote endpoint. It is single-use: it
// connects at most once and, once closed, stays closed.
type Channel struct {
	role      model.Role
	endpoint  string
	transport Transport
	q         *queue.Queue[command.Command]
	clientID  string
	version   string
	logger    *zap.Logger

	status atomic.Int32
	dialed atomic.Bool

	writes    chan writeRequest
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	conn  FrameConn
	group *errgroup.Group
}

// New creates a disconnected Channel.
//
// Precondition: opts.Transport and opts.Queue must be non-nil.
func New(opts Options) *Channel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		role:      opts.Role,
		endpoint:  opts.Endpoint,
		transport: opts.Transport,
		q:         opts.Queue,
		clientID:  opts.ClientID,
		version:   opts.Version,
		logger:    logger.With(zap.String("role", string(opts.Role)), zap.String("endpoint", opts.Endpoint)),
		writes:    make(chan writeRequest),
		done:      make(chan struct{}),
	}
}

// Role returns the channel role.
func (c *Channel) Role() model.Role { return c.role }

// Endpoint returns the remote "host:port".
func (c *Channel) Endpoint() string { return c.endpoint }

// Status returns the current lifecycle phase.
func (c *Channel) Status() Status { return Status(c.status.Load()) }

// Connect dials the endpoint, announces the client, and starts the reader and
// writer goroutines.
//
// Postcondition: On success Status is StatusConnected. On failure Status is
// StatusDisconnected and the error is a *Error. A second call fails with
// ErrAlreadyConnected.
func (c *Channel) Connect(ctx context.Context) error {
	if !c.dialed.CompareAndSwap(false, true) {
		return &Error{Op: "connect", Endpoint: c.endpoint, Err: ErrAlreadyConnected}
	}
	c.status.Store(int32(StatusConnecting))

	conn, err := c.transport.Dial(ctx, c.endpoint)
	if err != nil {
		c.status.Store(int32(StatusDisconnected))
		return &Error{Op: "connect", Endpoint: c.endpoint, Err: err}
	}
	if err := conn.WriteFrame(protocol.Hello(c.clientID, c.version)); err != nil {
		_ = conn.Close()
		c.status.Store(int32(StatusDisconnected))
		return &Error{Op: protocol.TypeHello, Endpoint: c.endpoint, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing() {
		_ = conn.Close()
		c.status.Store(int32(StatusDisconnected))
		return &Error{Op: "connect", Endpoint: c.endpoint, Err: ErrNotConnected}
	}
	c.conn = conn
	c.group = &errgroup.Group{}
	c.status.Store(int32(StatusConnected))
	c.group.Go(func() error { return c.readLoop(conn) })
	c.group.Go(func() error { return c.writeLoop(conn) })

	c.logger.Info("channel connected")
	return nil
}

// Send hands f to the writer goroutine and waits for the write to finish.
//
// Postcondition: Returns a *Error wrapping ErrNotConnected unless the channel is
// connected, or an error wrapping ErrInterrupted if ctx ends first.
func (c *Channel) Send(ctx context.Context, f protocol.Frame) error {
	if c.Status() != StatusConnected {
		return &Error{Op: f.Type, Endpoint: c.endpoint, Err: ErrNotConnected}
	}
	req := writeRequest{frame: f, result: make(chan error, 1)}

	select {
	case c.writes <- req:
	case <-c.done:
		return &Error{Op: f.Type, Endpoint: c.endpoint, Err: ErrNotConnected}
	case <-ctx.Done():
		return interrupted(ctx, f.Type)
	}

	select {
	case err := <-req.result:
		if err != nil {
			return &Error{Op: f.Type, Endpoint: c.endpoint, Err: err}
		}
		return nil
	case <-ctx.Done():
		return interrupted(ctx, f.Type)
	}
}

// Close ends the link and waits for the reader and writer goroutines.
// Close is idempotent.
func (c *Channel) Close() error {
	c.shutdown()
	c.mu.Lock()
	g := c.group
	c.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Done is closed once the channel has shut down.
func (c *Channel) Done() <-chan struct{} { return c.done }

func (c *Channel) closing() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Channel) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.status.Store(int32(StatusDisconnected))
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			if err := conn.Close(); err != nil {
				c.logger.Debug("closing transport", zap.Error(err))
			}
		}
	})
}

// readLoop decodes inbound frames onto the queue until the link ends, then
// announces the closure with a ChannelClosed command.
func (c *Channel) readLoop(conn FrameConn) error {
	defer c.q.Push(command.ChannelClosed{Role: c.role})

	for {
		f, err := conn.ReadFrame()
		if err != nil {
			if errors.Is(err, protocol.ErrMissingField) || errors.Is(err, protocol.ErrFieldType) {
				c.logger.Warn("dropping malformed frame", zap.Error(err))
				continue
			}
			if c.closing() {
				return nil
			}
			c.shutdown()
			if errors.Is(err, io.EOF) {
				c.logger.Info("remote closed channel")
				return nil
			}
			c.logger.Warn("channel read failed", zap.Error(err))
			return &Error{Op: "read", Endpoint: c.endpoint, Err: err}
		}

		cmd, err := command.Decode(f)
		if err != nil {
			c.logger.Warn("dropping frame", zap.String("type", f.Type), zap.Error(err))
			continue
		}
		if !c.q.Push(cmd) {
			return nil
		}
	}
}

func (c *Channel) writeLoop(conn FrameConn) error {
	for {
		select {
		case <-c.done:
			return nil
		case req := <-c.writes:
			err := conn.WriteFrame(req.frame)
			req.result <- err
			if err != nil {
				if c.closing() {
					return nil
				}
				c.logger.Warn("channel write failed", zap.String("type", req.frame.Type), zap.Error(err))
				c.shutdown()
				return &Error{Op: req.frame.Type, Endpoint: c.endpoint, Err: err}
			}
		}
	}
}
