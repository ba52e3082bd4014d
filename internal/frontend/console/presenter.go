package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cory-johannsen/vno/internal/vno/scene"
)

// Presenter writes in-character messages to a terminal, revealing the text
// one rune per tick. A newer message cuts the one being revealed short.
// It also serializes the console's own output to the same writer.
type Presenter struct {
	out   io.Writer
	speed time.Duration
	style styler

	outMu sync.Mutex

	mu      sync.Mutex
	pending *scene.View

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// NewPresenter creates a Presenter writing to out. A zero speed prints each
// message at once.
//
// Precondition: out must be non-nil; speed must not be negative.
func NewPresenter(out io.Writer, speed time.Duration, color bool) *Presenter {
	return &Presenter{
		out:   out,
		speed: speed,
		style: styler(color),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
	}
}

// Present implements scene.Presenter. It never blocks; a view not yet started
// is replaced by v.
func (p *Presenter) Present(v scene.View) {
	p.mu.Lock()
	p.pending = &v
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start reveals presented views until Stop is called or ctx ends.
func (p *Presenter) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stop:
			return nil
		case <-p.wake:
		}
		if v, ok := p.take(); ok {
			p.reveal(ctx, v)
		}
	}
}

// Stop ends Start. Stop is idempotent.
func (p *Presenter) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Printf writes a console line.
func (p *Presenter) Printf(format string, args ...any) {
	p.write(fmt.Sprintf(format, args...) + "\n")
}

func (p *Presenter) take() (scene.View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return scene.View{}, false
	}
	v := *p.pending
	p.pending = nil
	return v, true
}

func (p *Presenter) superseded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

func (p *Presenter) write(s string) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	_, _ = io.WriteString(p.out, s)
}

func (p *Presenter) reveal(ctx context.Context, v scene.View) {
	if stage := p.stageLine(v); stage != "" {
		p.write(stage + "\n")
	}
	p.write(p.style.paint(Bold, v.BoxName) + ": ")

	color := MessageColorCode(v.Color)
	if p.speed <= 0 {
		p.write(p.style.paint(color, v.Text))
		p.finish(v)
		return
	}

	ticker := time.NewTicker(p.speed)
	defer ticker.Stop()
	for _, r := range v.Text {
		select {
		case <-ctx.Done():
			p.write("\n")
			return
		case <-p.stop:
			p.write("\n")
			return
		case <-ticker.C:
		}
		if p.superseded() {
			p.write(" ...\n")
			return
		}
		p.write(p.style.paint(color, string(r)))
	}
	p.finish(v)
}

func (p *Presenter) finish(v scene.View) {
	if v.SFX != "" {
		p.write(" " + p.style.paint(Dim, "*"+v.SFX+"*"))
	}
	p.write("\n")
}

// stageLine describes the background and sprites, or returns "".
func (p *Presenter) stageLine(v scene.View) string {
	var parts []string
	if v.Background != "" {
		parts = append(parts, "["+v.Background+"]")
	}
	for _, pl := range v.Sprites {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", pl.Position, pl.Sprite.Character, pl.Sprite.Name))
	}
	if len(parts) == 0 {
		return ""
	}
	return p.style.paint(Dim, strings.Join(parts, " "))
}
