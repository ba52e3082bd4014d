package connection_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/vno/internal/testutil"
	"github.com/cory-johannsen/vno/internal/vno/auth"
	"github.com/cory-johannsen/vno/internal/vno/command"
	"github.com/cory-johannsen/vno/internal/vno/connection"
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
	"github.com/cory-johannsen/vno/internal/vno/queue"
)

const (
	endpoint = "game.example:27016"
	wait     = 2 * time.Second
)

func newGame(t *testing.T, tr connection.Transport) (*connection.Game, *queue.Queue[command.Command]) {
	t.Helper()
	return newGameAt(t, tr, endpoint)
}

func take(t *testing.T, q *queue.Queue[command.Command]) command.Command {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	cmd, err := q.Take(ctx)
	require.NoError(t, err)
	return cmd
}

func TestChannel_ConnectSendsHello(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	g, _ := newGame(t, tr)

	assert.Equal(t, connection.StatusDisconnected, g.Status())
	require.NoError(t, g.Connect(context.Background()))
	assert.Equal(t, connection.StatusConnected, g.Status())
	assert.Equal(t, model.RoleGame, g.Role())

	sent := tr.Conn(endpoint).Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, protocol.TypeHello, sent[0].Type)
	assert.Equal(t, "client-1", sent[0].StringOr("client_id", ""))
}

func TestChannel_ConnectTwiceFails(t *testing.T) {
	g, _ := newGame(t, testutil.NewRecordingTransport())
	require.NoError(t, g.Connect(context.Background()))

	err := g.Connect(context.Background())
	var cerr *connection.Error
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, connection.ErrAlreadyConnected)
	assert.Equal(t, endpoint, cerr.Endpoint)
	assert.Equal(t, connection.StatusConnected, g.Status())
}

func TestChannel_DialFailure(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	tr.DialErr = errors.New("connection refused")
	g, _ := newGame(t, tr)

	err := g.Connect(context.Background())
	var cerr *connection.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "connect", cerr.Op)
	assert.Equal(t, connection.StatusDisconnected, g.Status())
}

func TestChannel_SendBeforeConnect(t *testing.T) {
	g, _ := newGame(t, testutil.NewRecordingTransport())
	err := g.SendAreaRequest(context.Background(), 1)
	assert.ErrorIs(t, err, connection.ErrNotConnected)
}

func TestChannel_GameRequests(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	g, _ := newGame(t, tr)
	require.NoError(t, g.Connect(context.Background()))
	ctx := context.Background()

	require.NoError(t, g.SendAreaRequest(ctx, 1))
	require.NoError(t, g.SendCharacterRequest(ctx, 2))
	require.NoError(t, g.SendItemRequest(ctx, 3))
	require.NoError(t, g.SendTrackRequest(ctx, 4))
	require.NoError(t, g.SendChangeRequest(ctx))
	require.NoError(t, g.SendPickRequest(ctx, 2, ""))
	require.NoError(t, g.SendICMessage(ctx, protocol.ICMessage{CharacterName: "Maya", Message: "hi"}))
	require.NoError(t, g.SendPlayRequest(ctx, "Maya", 2, "Trial", 4, model.Looping))
	require.NoError(t, g.SendModRequest(ctx, "secret"))

	assert.Equal(t, []string{
		protocol.TypeHello,
		protocol.TypeAreaRequest,
		protocol.TypeCharacterRequest,
		protocol.TypeItemRequest,
		protocol.TypeTrackRequest,
		protocol.TypeChange,
		protocol.TypePick,
		protocol.TypeIC,
		protocol.TypePlay,
		protocol.TypeModRequest,
	}, tr.Conn(endpoint).SentTypes())
}

func TestDirectory_LoginHashesPassword(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	d := connection.NewDirectory(connection.Options{
		Endpoint:  "master:6543",
		Transport: tr,
		Queue:     queue.New[command.Command](),
		Logger:    zaptest.NewLogger(t),
	})
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Connect(context.Background()))
	assert.Equal(t, model.RoleDirectory, d.Role())

	h, err := auth.NewHasher(auth.AlgorithmMD5)
	require.NoError(t, err)
	require.NoError(t, d.SendLoginRequest(context.Background(), h, "nick", "abc"))
	require.NoError(t, d.SendServerRequest(context.Background(), 0))

	sent := tr.Conn("master:6543").Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, protocol.TypeLogin, sent[1].Type)
	assert.Equal(t, "nick", sent[1].StringOr("login", ""))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", sent[1].StringOr("password", ""))
	assert.Equal(t, protocol.TypeServerQuery, sent[2].Type)
}

func TestChannel_SendInterruptedByContext(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	g, _ := newGame(t, tr)
	require.NoError(t, g.Connect(context.Background()))

	release := tr.Conn(endpoint).Block()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := g.SendAreaRequest(ctx, 1)
	assert.ErrorIs(t, err, connection.ErrInterrupted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_InboundFramesQueuedInOrder(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	g, q := newGame(t, tr)
	require.NoError(t, g.Connect(context.Background()))
	conn := tr.Conn(endpoint)

	conn.Deliver(t, protocol.NewFrame(protocol.TypeCharacter, map[string]any{"id": 1, "name": "Phoenix"}))
	conn.Deliver(t, protocol.NewFrame("bogus", nil))
	conn.Deliver(t, protocol.NewFrame(protocol.TypeCharacter, map[string]any{"id": 2, "name": "Maya"}))

	first, ok := take(t, q).(command.AddCharacter)
	require.True(t, ok)
	assert.Equal(t, "Phoenix", first.Character.Name)

	second, ok := take(t, q).(command.AddCharacter)
	require.True(t, ok)
	assert.Equal(t, "Maya", second.Character.Name)
}

func TestChannel_RemoteHangupQueuesChannelClosed(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	g, q := newGame(t, tr)
	require.NoError(t, g.Connect(context.Background()))

	tr.Conn(endpoint).Hangup()

	cmd := take(t, q)
	closed, ok := cmd.(command.ChannelClosed)
	require.True(t, ok, "got %T", cmd)
	assert.Equal(t, model.RoleGame, closed.Role)

	select {
	case <-g.Done():
	case <-time.After(wait):
		t.Fatal("channel not done after hangup")
	}
	assert.Equal(t, connection.StatusDisconnected, g.Status())
	assert.ErrorIs(t, g.SendAreaRequest(context.Background(), 1), connection.ErrNotConnected)
}

func TestChannel_CloseIdempotent(t *testing.T) {
	tr := testutil.NewRecordingTransport()
	g, _ := newGame(t, tr)
	require.NoError(t, g.Connect(context.Background()))

	assert.NoError(t, g.Close())
	assert.NoError(t, g.Close())
	assert.True(t, tr.Conn(endpoint).Closed())
	assert.Equal(t, connection.StatusDisconnected, g.Status())
}

func TestChannel_CloseBeforeConnect(t *testing.T) {
	g, _ := newGame(t, testutil.NewRecordingTransport())
	assert.NoError(t, g.Close())
	assert.Error(t, g.Connect(context.Background()))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "DISCONNECTED", connection.StatusDisconnected.String())
	assert.Equal(t, "CONNECTING", connection.StatusConnecting.String())
	assert.Equal(t, "CONNECTED", connection.StatusConnected.String())
}

func TestError_Message(t *testing.T) {
	err := &connection.Error{Op: "pick", Endpoint: endpoint, Err: connection.ErrNotConnected}
	assert.Equal(t, "pick game.example:27016: not connected", err.Error())
	assert.ErrorIs(t, err, connection.ErrNotConnected)
}
