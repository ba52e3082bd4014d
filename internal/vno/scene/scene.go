// Package scene resolves in-character messages into the view handed to the
// presentation layer.
package scene

import (
	"sync"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

// Sprite identifies a character pose to draw.
type Sprite struct {
	Character string
	Name      string
	Flip      model.SpriteFlip
}

// Placement is a sprite drawn at a stage position.
type Placement struct {
	Sprite   Sprite
	Position model.SpritePosition
}

// View is a fully resolved in-character message.
type View struct {
	// BoxName is the name shown above the text.
	BoxName    string
	Text       string
	Color      model.MessageColor
	Background string
	// Sprites holds zero to two placements.
	Sprites []Placement
	SFX     string
}

// Presenter renders resolved views.
//
// Implementations must return from Present without blocking the caller; the
// dispatcher goroutine invokes it.
type Presenter interface {
	Present(View)
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(View)

// Present calls f(v).
func (f PresenterFunc) Present(v View) { f(v) }

// Discard is a Presenter that drops every view.
var Discard Presenter = PresenterFunc(func(View) {})

type sides struct {
	left  *Sprite
	right *Sprite
}

// Stage remembers, per background, the sprites last shown on the left and on
// the right. It is safe for concurrent use.
type Stage struct {
	mu          sync.Mutex
	backgrounds map[string]*sides
}

// NewStage creates an empty Stage.
func NewStage() *Stage {
	return &Stage{backgrounds: make(map[string]*sides)}
}

// Reset forgets every remembered sprite.
func (s *Stage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backgrounds = make(map[string]*sides)
}

// Place records sprite at pos on background and returns what should be drawn.
//
// Postcondition: A centre placement yields exactly that sprite; a left or right
// placement yields the remembered left and right sprites of the background, left first.
func (s *Stage) Place(background string, sprite Sprite, pos model.SpritePosition) []Placement {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.backgrounds[background]
	if !ok {
		b = &sides{}
		s.backgrounds[background] = b
	}

	switch pos {
	case model.PositionLeft:
		b.left = &sprite
	case model.PositionRight:
		b.right = &sprite
	case model.PositionCenter:
		return []Placement{{Sprite: sprite, Position: model.PositionCenter}}
	}

	out := make([]Placement, 0, 2)
	if b.left != nil {
		out = append(out, Placement{Sprite: *b.left, Position: model.PositionLeft})
	}
	if b.right != nil {
		out = append(out, Placement{Sprite: *b.right, Position: model.PositionRight})
	}
	return out
}
