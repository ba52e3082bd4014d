package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/scene"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startPresenter(t *testing.T, speed time.Duration) (*Presenter, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	p := NewPresenter(out, speed, false)
	done := make(chan error, 1)
	go func() { done <- p.Start(context.Background()) }()
	t.Cleanup(func() {
		p.Stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("presenter did not stop")
		}
	})
	return p, out
}

func contains(out *syncBuffer, s string) func() bool {
	return func() bool { return strings.Contains(out.String(), s) }
}

func TestPresenter_PrintsWholeMessageWithoutDelay(t *testing.T) {
	p, out := startPresenter(t, 0)
	p.Present(scene.View{BoxName: "Phoenix", Text: "Hold it!", Color: model.ColorBlue, SFX: "holdit"})
	require.Eventually(t, contains(out, "Phoenix: Hold it! *holdit*\n"), time.Second, 5*time.Millisecond)
}

func TestPresenter_RevealsProgressively(t *testing.T) {
	p, out := startPresenter(t, 5*time.Millisecond)
	p.Present(scene.View{BoxName: "Maya", Text: "Nick!"})
	require.Eventually(t, contains(out, "Maya: Nick!\n"), 2*time.Second, 5*time.Millisecond)
}

func TestPresenter_NewestReplacesRevealing(t *testing.T) {
	p, out := startPresenter(t, 20*time.Millisecond)
	long := strings.Repeat("a", 200)
	p.Present(scene.View{BoxName: "Edgeworth", Text: long})
	require.Eventually(t, contains(out, "Edgeworth: a"), 2*time.Second, 5*time.Millisecond)

	p.Present(scene.View{BoxName: "Judge", Text: "Order."})
	require.Eventually(t, contains(out, "Judge: Order.\n"), 5*time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), " ...\n")
	assert.NotContains(t, out.String(), long)
}

func TestPresenter_PresentNeverBlocks(t *testing.T) {
	p := NewPresenter(&syncBuffer{}, time.Second, false)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			p.Present(scene.View{Text: "spam"})
		}
		p.Present(scene.View{Text: "last"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Present blocked without a running presenter")
	}
	v, ok := p.take()
	require.True(t, ok)
	assert.Equal(t, "last", v.Text)
}

func TestPresenter_StageLine(t *testing.T) {
	p, out := startPresenter(t, 0)
	p.Present(scene.View{
		BoxName:    "Phoenix",
		Text:       "Take that!",
		Background: "court",
		Sprites: []scene.Placement{
			{Sprite: scene.Sprite{Character: "Phoenix", Name: "point"}, Position: model.PositionLeft},
			{Sprite: scene.Sprite{Character: "Edgeworth", Name: "sweat"}, Position: model.PositionRight},
		},
	})
	require.Eventually(t, contains(out, "Take that!"), time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), "[court] left: Phoenix (point) right: Edgeworth (sweat)\n")
}

func TestPresenter_ColorOutput(t *testing.T) {
	out := &syncBuffer{}
	p := NewPresenter(out, 0, true)
	p.reveal(context.Background(), scene.View{BoxName: "Judge", Text: "Guilty", Color: model.ColorRed})
	assert.Equal(t, Colorize(Bold, "Judge")+": "+Colorize(Red, "Guilty")+"\n", out.String())
}

func TestPresenter_Printf(t *testing.T) {
	out := &syncBuffer{}
	p := NewPresenter(out, 0, false)
	p.Printf("%d players", 4)
	assert.Equal(t, "4 players\n", out.String())
}

func TestPresenter_StopIdempotent(t *testing.T) {
	p := NewPresenter(&syncBuffer{}, 0, false)
	p.Stop()
	p.Stop()
	assert.NoError(t, p.Start(context.Background()))
}
