package command

import (
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
	"github.com/cory-johannsen/vno/internal/vno/scene"
)

// ICMessage is an in-character message pushed by the game server.
type ICMessage struct {
	protocol.ICMessage
}

// Name implements Command.
func (c ICMessage) Name() string { return protocol.TypeIC }

// Handle resolves the message into a view and hands it to the presenter.
// Name lookup misses never abort the message.
func (c ICMessage) Handle(t Target) {
	sprite := scene.Sprite{
		Character: c.CharacterName,
		Name:      c.SpriteName,
		Flip:      c.Flip,
	}
	t.Presenter().Present(scene.View{
		BoxName:    c.ResolveBoxName(t),
		Text:       c.Message,
		Color:      c.Color,
		Background: c.Background,
		Sprites:    t.Stage().Place(c.Background, sprite, c.Position),
		SFX:        c.SFX,
	})
}

// ResolveBoxName returns the name to display above the message.
//
// Postcondition: A username box always yields the literal box string; a character
// or mystery box yields the character's name, or model.UnknownName when the
// speaking character is not in the roster.
func (c ICMessage) ResolveBoxName(t Target) string {
	kind := model.BoxNameFromString(c.BoxName)
	if kind == model.BoxUsername {
		return c.BoxName
	}
	char, err := t.CharacterByName(c.CharacterName)
	if err != nil {
		return model.UnknownName
	}
	if kind == model.BoxMysteryName {
		return char.HiddenName()
	}
	return char.ShowName()
}
