package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// sessionStream describes the bidirectional stream carrying frames.
var sessionStream = &grpc.StreamDesc{
	StreamName:    "Stream",
	ServerStreams: true,
	ClientStreams: true,
}

// GRPCTransport carries frames as google.protobuf.Struct messages on one
// bidirectional stream per link.
type GRPCTransport struct {
	// Method is the full stream method, e.g. "/vno.v1.Session/Stream".
	Method      string
	DialTimeout time.Duration
	// DialOptions are appended after the insecure credentials default.
	DialOptions []grpc.DialOption
}

// Dial implements Transport. addr is resolved with the passthrough resolver.
func (t *GRPCTransport) Dial(ctx context.Context, addr string) (FrameConn, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, t.DialOptions...)

	cc, err := grpc.NewClient("passthrough:///"+addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating grpc client for %s: %w", addr, err)
	}
	if err := waitReady(ctx, cc, t.DialTimeout); err != nil {
		_ = cc.Close()
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := cc.NewStream(streamCtx, sessionStream, t.Method)
	if err != nil {
		cancel()
		_ = cc.Close()
		return nil, fmt.Errorf("opening stream %s: %w", t.Method, err)
	}
	return &grpcConn{cc: cc, stream: stream, cancel: cancel}, nil
}

// waitReady blocks until cc is READY, ctx ends, or timeout elapses.
func waitReady(ctx context.Context, cc *grpc.ClientConn, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cc.Connect()
	for {
		state := cc.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return fmt.Errorf("grpc connection shut down")
		}
		if !cc.WaitForStateChange(ctx, state) {
			return fmt.Errorf("waiting for grpc connection (last state %s): %w", state, ctx.Err())
		}
	}
}

type grpcConn struct {
	cc        *grpc.ClientConn
	stream    grpc.ClientStream
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

func (c *grpcConn) ReadFrame() (protocol.Frame, error) {
	msg := &structpb.Struct{}
	if err := c.stream.RecvMsg(msg); err != nil {
		return protocol.Frame{}, err
	}
	return protocol.FromProto(msg)
}

func (c *grpcConn) WriteFrame(f protocol.Frame) error {
	msg, err := f.ToProto()
	if err != nil {
		return err
	}
	return c.stream.SendMsg(msg)
}

func (c *grpcConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stream.CloseSend()
		c.cancel()
		c.closeErr = c.cc.Close()
	})
	return c.closeErr
}
