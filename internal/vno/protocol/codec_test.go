package protocol_test

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

func TestDelimited_MultipleFramesInOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, protocol.WriteDelimited(&buf, protocol.Login("alice", "abc")))
	require.NoError(t, protocol.WriteDelimited(&buf, protocol.ServerQuery(0)))
	require.NoError(t, protocol.WriteDelimited(&buf, protocol.Change()))

	r := bufio.NewReader(&buf)
	f1, err := protocol.ReadDelimited(r, protocol.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeLogin, f1.Type)
	login, err := f1.String("login")
	require.NoError(t, err)
	assert.Equal(t, "alice", login)

	f2, err := protocol.ReadDelimited(r, protocol.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeServerQuery, f2.Type)
	idx, err := f2.Int("index")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	f3, err := protocol.ReadDelimited(r, protocol.DefaultMaxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeChange, f3.Type)

	_, err = protocol.ReadDelimited(r, protocol.DefaultMaxFrameSize)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDelimited_RejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	big := make([]byte, 512)
	for i := range big {
		big[i] = 'x'
	}
	require.NoError(t, protocol.WriteDelimited(&buf, protocol.ModRequest(string(big))))

	_, err := protocol.ReadDelimited(bufio.NewReader(&buf), 64)
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestFromProto_RequiresType(t *testing.T) {
	_, err := protocol.Unmarshal(nil)
	assert.ErrorIs(t, err, protocol.ErrMissingField)
}

func TestToProto_RequiresType(t *testing.T) {
	_, err := protocol.Frame{}.ToProto()
	assert.ErrorIs(t, err, protocol.ErrMissingField)
}

func TestFrame_Accessors(t *testing.T) {
	f := protocol.NewFrame("x", map[string]any{
		"n":    2.0,
		"frac": 2.5,
		"s":    "str",
		"b":    true,
	})

	n, err := f.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.Int("frac")
	assert.ErrorIs(t, err, protocol.ErrFieldType)

	_, err = f.Int("missing")
	assert.ErrorIs(t, err, protocol.ErrMissingField)

	_, err = f.String("n")
	assert.ErrorIs(t, err, protocol.ErrFieldType)

	assert.Equal(t, "str", f.StringOr("s", "def"))
	assert.Equal(t, "def", f.StringOr("missing", "def"))
	assert.Equal(t, 7, f.IntOr("missing", 7))
	assert.True(t, f.BoolOr("b", false))
}

func TestFrame_IntRejectsHugeFloats(t *testing.T) {
	f := protocol.NewFrame("x", map[string]any{
		"huge":  1e20,
		"neg":   -1e20,
		"limit": float64(1 << 53),
	})

	_, err := f.Int("huge")
	assert.ErrorIs(t, err, protocol.ErrFieldType)
	_, err = f.Int("neg")
	assert.ErrorIs(t, err, protocol.ErrFieldType)
	assert.Equal(t, -1, f.IntOr("huge", -1))

	n, err := f.Int("limit")
	require.NoError(t, err)
	assert.Equal(t, 1<<53, n)
}

func TestICMessage_Frame(t *testing.T) {
	msg := protocol.ICMessage{
		CharacterName: "Phoenix",
		CharacterID:   3,
		SpriteName:    "pointing",
		Message:       "Objection!",
		BoxName:       "0",
		Color:         model.ColorRed,
		Background:    "courtroom",
		Position:      model.PositionLeft,
		Flip:          model.FlipFlipped,
		SFX:           "objection",
	}
	data, err := protocol.Marshal(msg.Frame())
	require.NoError(t, err)
	got, err := protocol.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, protocol.TypeIC, got.Type)
	assert.Equal(t, "Phoenix", got.StringOr("character_name", ""))
	assert.Equal(t, 3, got.IntOr("character_id", 0))
	assert.Equal(t, model.ColorRed.Code(), got.IntOr("color", -1))
	assert.Equal(t, model.FlipFlipped.Code(), got.IntOr("flip", -1))
}

func TestProperty_EntityRequestIDSurvivesEncoding(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.IntRange(1, 1<<20).Draw(rt, "id")
		var buf bytes.Buffer
		if err := protocol.WriteDelimited(&buf, protocol.EntityRequest(protocol.TypeCharacterRequest, id)); err != nil {
			rt.Fatalf("write: %v", err)
		}
		f, err := protocol.ReadDelimited(bufio.NewReader(&buf), protocol.DefaultMaxFrameSize)
		if err != nil {
			rt.Fatalf("read: %v", err)
		}
		got, err := f.Int("id")
		if err != nil || got != id {
			rt.Fatalf("id %d decoded as %d (%v)", id, got, err)
		}
	})
}
