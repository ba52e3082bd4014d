package testutil

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// Peer is the server side of one accepted client link.
type Peer struct {
	t      testing.TB
	frames chan protocol.Frame
	write  func(protocol.Frame) error
	closer func() error
	done   chan struct{}
	once   sync.Once
}

func newPeer(t testing.TB, read func() (protocol.Frame, error), write func(protocol.Frame) error, closer func() error) *Peer {
	p := &Peer{
		t:      t,
		frames: make(chan protocol.Frame, 64),
		write:  write,
		closer: closer,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.frames)
		for {
			f, err := read()
			if err != nil {
				return
			}
			select {
			case p.frames <- f:
			case <-p.done:
				return
			}
		}
	}()
	return p
}

// Recv returns the next frame sent by the client.
//
// Postcondition: Returns the frame or fails the test on timeout or hang-up.
func (p *Peer) Recv(timeout time.Duration) protocol.Frame {
	p.t.Helper()
	select {
	case f, ok := <-p.frames:
		if !ok {
			p.t.Fatalf("peer closed while waiting for a frame")
		}
		return f
	case <-time.After(timeout):
		p.t.Fatalf("no frame within %s", timeout)
	}
	return protocol.Frame{}
}

// Expect receives the next frame and fails the test unless it has type typ.
func (p *Peer) Expect(typ string, timeout time.Duration) protocol.Frame {
	p.t.Helper()
	f := p.Recv(timeout)
	if f.Type != typ {
		p.t.Fatalf("expected %q frame, got %q (%v)", typ, f.Type, f.Fields)
	}
	return f
}

// Send writes f to the client.
func (p *Peer) Send(f protocol.Frame) {
	p.t.Helper()
	if err := p.write(f); err != nil {
		p.t.Fatalf("sending %s frame: %v", f.Type, err)
	}
}

// WaitHangup reports whether the client closed the link within timeout.
func (p *Peer) WaitHangup(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case _, ok := <-p.frames:
			if !ok {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

// Close ends the link from the server side. Close is idempotent.
func (p *Peer) Close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.closer()
	})
}

// FrameServer accepts client links over one transport and hands each to the
// test as a Peer.
type FrameServer struct {
	t     testing.TB
	addr  string
	peers chan *Peer
	stop  func()
}

// Addr returns the "host:port" clients dial.
func (s *FrameServer) Addr() string { return s.addr }

// Accept returns the next connected client.
//
// Postcondition: Returns a Peer or fails the test on timeout.
func (s *FrameServer) Accept(timeout time.Duration) *Peer {
	s.t.Helper()
	select {
	case p := <-s.peers:
		s.t.Cleanup(p.Close)
		return p
	case <-time.After(timeout):
		s.t.Fatalf("no client connected to %s within %s", s.addr, timeout)
	}
	return nil
}

// NewTCPFrameServer listens on a loopback port for length-delimited frame links.
//
// Postcondition: The server is stopped when the test ends.
func NewTCPFrameServer(t testing.TB) *FrameServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	s := &FrameServer{t: t, addr: listener.Addr().String(), peers: make(chan *Peer, 8)}
	quit := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-quit:
					return
				default:
					continue
				}
			}
			r := bufio.NewReader(conn)
			s.peers <- newPeer(t,
				func() (protocol.Frame, error) { return protocol.ReadDelimited(r, protocol.DefaultMaxFrameSize) },
				func(f protocol.Frame) error { return protocol.WriteDelimited(conn, f) },
				conn.Close,
			)
		}
	}()

	s.stop = func() {
		close(quit)
		_ = listener.Close()
		wg.Wait()
	}
	t.Cleanup(s.stop)
	t.Logf("tcp frame server listening on %s", s.addr)
	return s
}

// NewWebSocketFrameServer serves binary-message frame links at path.
//
// Postcondition: The server is stopped when the test ends.
func NewWebSocketFrameServer(t testing.TB, path string) *FrameServer {
	t.Helper()
	s := &FrameServer{t: t, peers: make(chan *Peer, 8)}
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		var writeMu sync.Mutex
		s.peers <- newPeer(t,
			func() (protocol.Frame, error) {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return protocol.Frame{}, err
				}
				return protocol.Unmarshal(data)
			},
			func(f protocol.Frame) error {
				data, err := protocol.Marshal(f)
				if err != nil {
					return err
				}
				writeMu.Lock()
				defer writeMu.Unlock()
				return conn.WriteMessage(websocket.BinaryMessage, data)
			},
			func() error {
				writeMu.Lock()
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteMessage(websocket.CloseMessage, msg)
				writeMu.Unlock()
				return conn.Close()
			},
		)
	})

	srv := httptest.NewServer(mux)
	s.addr = strings.TrimPrefix(srv.URL, "http://")
	s.stop = srv.Close
	t.Cleanup(s.stop)
	t.Logf("websocket frame server listening on %s%s", s.addr, path)
	return s
}

// GRPCFrameServer is a FrameServer over an in-memory gRPC listener.
type GRPCFrameServer struct {
	*FrameServer
	listener *bufconn.Listener
}

// DialOption routes client connections to the in-memory listener.
func (s *GRPCFrameServer) DialOption() grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return s.listener.DialContext(ctx)
	})
}

// NewGRPCFrameServer serves bidirectional frame streams on method, for any
// service name, over bufconn.
//
// Postcondition: The server is stopped when the test ends.
func NewGRPCFrameServer(t testing.TB, method string) *GRPCFrameServer {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := &GRPCFrameServer{
		FrameServer: &FrameServer{t: t, addr: "bufnet", peers: make(chan *Peer, 8)},
		listener:    lis,
	}

	handler := func(_ any, stream grpc.ServerStream) error {
		got, _ := grpc.MethodFromServerStream(stream)
		if got != method {
			return status.Errorf(codes.Unimplemented, "unknown method %s", got)
		}
		ended := make(chan struct{})
		var endOnce sync.Once
		p := newPeer(t,
			func() (protocol.Frame, error) {
				msg := &structpb.Struct{}
				if err := stream.RecvMsg(msg); err != nil {
					return protocol.Frame{}, err
				}
				return protocol.FromProto(msg)
			},
			func(f protocol.Frame) error {
				msg, err := f.ToProto()
				if err != nil {
					return err
				}
				return stream.SendMsg(msg)
			},
			func() error {
				endOnce.Do(func() { close(ended) })
				return nil
			},
		)
		s.peers <- p
		select {
		case <-ended:
		case <-stream.Context().Done():
		}
		return nil
	}

	srv := grpc.NewServer(grpc.UnknownServiceHandler(handler))
	go func() {
		_ = srv.Serve(lis)
	}()
	s.stop = srv.Stop
	t.Cleanup(s.stop)
	return s
}
