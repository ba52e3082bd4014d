package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

func TestStage_CenterShowsOnlyThatSprite(t *testing.T) {
	s := NewStage()
	s.Place("court", Sprite{Character: "Phoenix", Name: "normal"}, model.PositionLeft)

	got := s.Place("court", Sprite{Character: "Judge", Name: "nod"}, model.PositionCenter)
	require.Len(t, got, 1)
	assert.Equal(t, "Judge", got[0].Sprite.Character)
	assert.Equal(t, model.PositionCenter, got[0].Position)
}

func TestStage_RemembersSidesPerBackground(t *testing.T) {
	s := NewStage()
	s.Place("court", Sprite{Character: "Phoenix"}, model.PositionLeft)
	got := s.Place("court", Sprite{Character: "Edgeworth"}, model.PositionRight)
	require.Len(t, got, 2)
	assert.Equal(t, "Phoenix", got[0].Sprite.Character)
	assert.Equal(t, model.PositionLeft, got[0].Position)
	assert.Equal(t, "Edgeworth", got[1].Sprite.Character)

	other := s.Place("lobby", Sprite{Character: "Maya"}, model.PositionRight)
	require.Len(t, other, 1)
	assert.Equal(t, model.PositionRight, other[0].Position)
}

func TestStage_CenterDoesNotClearSides(t *testing.T) {
	s := NewStage()
	s.Place("court", Sprite{Character: "Phoenix"}, model.PositionLeft)
	s.Place("court", Sprite{Character: "Judge"}, model.PositionCenter)
	got := s.Place("court", Sprite{Character: "Edgeworth"}, model.PositionRight)
	assert.Len(t, got, 2)
}

func TestStage_ResetForgetsSides(t *testing.T) {
	s := NewStage()
	s.Place("court", Sprite{Character: "Phoenix"}, model.PositionLeft)
	s.Reset()
	got := s.Place("court", Sprite{Character: "Edgeworth"}, model.PositionRight)
	require.Len(t, got, 1)
	assert.Equal(t, "Edgeworth", got[0].Sprite.Character)
}

func TestProperty_AtMostTwoPlacements(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewStage()
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			bg := rapid.SampledFrom([]string{"a", "b"}).Draw(rt, "bg")
			pos := rapid.SampledFrom([]model.SpritePosition{
				model.PositionLeft, model.PositionCenter, model.PositionRight,
			}).Draw(rt, "pos")
			got := s.Place(bg, Sprite{Character: "c"}, pos)
			if len(got) == 0 || len(got) > 2 {
				rt.Fatalf("placement count %d", len(got))
			}
			if pos == model.PositionCenter && len(got) != 1 {
				rt.Fatalf("centre placement produced %d sprites", len(got))
			}
		}
	})
}

func TestPresenterFunc(t *testing.T) {
	var got View
	p := PresenterFunc(func(v View) { got = v })
	p.Present(View{Text: "hi"})
	assert.Equal(t, "hi", got.Text)
	Discard.Present(View{})
}
