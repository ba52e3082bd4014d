package connection_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/vno/internal/config"
	"github.com/cory-johannsen/vno/internal/testutil"
	"github.com/cory-johannsen/vno/internal/vno/command"
	"github.com/cory-johannsen/vno/internal/vno/connection"
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
	"github.com/cory-johannsen/vno/internal/vno/queue"
)

const grpcMethod = "/vno.v1.Session/Stream"

// exerciseTransport runs one full link lifecycle against srv.
func exerciseTransport(t *testing.T, tr connection.Transport, srv *testutil.FrameServer) {
	t.Helper()
	q := queue.New[command.Command]()
	g := connection.NewGame(connection.Options{
		Endpoint:  srv.Addr(),
		Transport: tr,
		Queue:     q,
		ClientID:  "client-1",
		Version:   "test",
		Logger:    zaptest.NewLogger(t),
	})
	defer func() { _ = g.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Connect(ctx))

	peer := srv.Accept(wait)
	hello := peer.Expect(protocol.TypeHello, wait)
	assert.Equal(t, "client-1", hello.StringOr("client_id", ""))

	require.NoError(t, g.SendCharacterRequest(ctx, 7))
	req := peer.Expect(protocol.TypeCharacterRequest, wait)
	id, err := req.Int("id")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	peer.Send(protocol.NewFrame(protocol.TypeCharacter, map[string]any{
		"id":           7,
		"name":         "Franziska",
		"display_name": "Franzy",
	}))
	cmd := take(t, q)
	add, ok := cmd.(command.AddCharacter)
	require.True(t, ok, "got %T", cmd)
	assert.Equal(t, 7, add.Character.ID)
	assert.Equal(t, "Franzy", add.Character.ShowName())

	peer.Close()
	closed, ok := take(t, q).(command.ChannelClosed)
	require.True(t, ok)
	assert.Equal(t, model.RoleGame, closed.Role)
	assert.Equal(t, connection.StatusDisconnected, g.Status())
}

func TestTCPTransport_RoundTrip(t *testing.T) {
	srv := testutil.NewTCPFrameServer(t)
	exerciseTransport(t, &connection.TCPTransport{DialTimeout: time.Second}, srv)
}

func TestWebSocketTransport_RoundTrip(t *testing.T) {
	srv := testutil.NewWebSocketFrameServer(t, "/vno")
	exerciseTransport(t, &connection.WebSocketTransport{Path: "/vno", DialTimeout: time.Second}, srv)
}

func TestWebSocketTransport_TextMessageDropped(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		data, err := protocol.Marshal(protocol.NewFrame(protocol.TypeCharacter, map[string]any{"id": 2, "name": "Maya"}))
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not a frame"))
		_ = conn.WriteMessage(websocket.BinaryMessage, data)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	q := queue.New[command.Command]()
	g := connection.NewGame(connection.Options{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Transport: &connection.WebSocketTransport{DialTimeout: time.Second},
		Queue:     q,
		ClientID:  "client-1",
		Logger:    zaptest.NewLogger(t),
	})
	defer func() { _ = g.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Connect(ctx))

	cmd := take(t, q)
	add, ok := cmd.(command.AddCharacter)
	require.True(t, ok, "got %T", cmd)
	assert.Equal(t, "Maya", add.Character.Name)
	assert.Equal(t, connection.StatusConnected, g.Status())
}

func TestGRPCTransport_RoundTrip(t *testing.T) {
	srv := testutil.NewGRPCFrameServer(t, grpcMethod)
	tr := &connection.GRPCTransport{
		Method:      grpcMethod,
		DialTimeout: time.Second,
		DialOptions: []grpc.DialOption{srv.DialOption()},
	}
	exerciseTransport(t, tr, srv.FrameServer)
}

func TestTCPTransport_ClientCloseHangsUpPeer(t *testing.T) {
	srv := testutil.NewTCPFrameServer(t)
	g, _ := newGameAt(t, &connection.TCPTransport{}, srv.Addr())
	require.NoError(t, g.Connect(context.Background()))

	peer := srv.Accept(wait)
	peer.Expect(protocol.TypeHello, wait)
	require.NoError(t, g.Close())
	assert.True(t, peer.WaitHangup(wait))
}

func TestTCPTransport_DialRefused(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	_, err = (&connection.TCPTransport{DialTimeout: time.Second}).Dial(context.Background(), addr)
	assert.Error(t, err)
}

func TestTCPTransport_ProxyUnreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	proxyAddr := lis.Addr().String()
	require.NoError(t, lis.Close())

	tr := &connection.TCPTransport{DialTimeout: time.Second, ProxyAddr: proxyAddr}
	_, err = tr.Dial(context.Background(), "game.example:27016")
	assert.Error(t, err)
}

func TestGRPCTransport_DialTimeout(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	tr := &connection.GRPCTransport{Method: grpcMethod, DialTimeout: 200 * time.Millisecond}
	_, err = tr.Dial(context.Background(), addr)
	assert.Error(t, err)
}

func TestNewTransport(t *testing.T) {
	cfg := config.Default().Transport

	cfg.Kind = config.TransportTCP
	tr, err := connection.NewTransport(cfg)
	require.NoError(t, err)
	assert.IsType(t, &connection.TCPTransport{}, tr)

	cfg.Kind = config.TransportGRPC
	tr, err = connection.NewTransport(cfg)
	require.NoError(t, err)
	assert.IsType(t, &connection.GRPCTransport{}, tr)

	cfg.Kind = config.TransportWebSocket
	tr, err = connection.NewTransport(cfg)
	require.NoError(t, err)
	assert.IsType(t, &connection.WebSocketTransport{}, tr)

	cfg.Kind = "carrier-pigeon"
	_, err = connection.NewTransport(cfg)
	assert.Error(t, err)
}

func newGameAt(t *testing.T, tr connection.Transport, addr string) (*connection.Game, *queue.Queue[command.Command]) {
	t.Helper()
	q := queue.New[command.Command]()
	g := connection.NewGame(connection.Options{
		Endpoint:  addr,
		Transport: tr,
		Queue:     q,
		ClientID:  "client-1",
		Version:   "test",
		Logger:    zaptest.NewLogger(t),
	})
	t.Cleanup(func() { _ = g.Close() })
	return g, q
}
