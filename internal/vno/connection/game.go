package connection

import (
	"context"

	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// Game is the channel to a game server.
type Game struct {
	*Channel
}

// NewGame creates a disconnected game channel.
func NewGame(opts Options) *Game {
	opts.Role = model.RoleGame
	return &Game{Channel: New(opts)}
}

// SendAreaRequest asks for the area with the given ID.
func (g *Game) SendAreaRequest(ctx context.Context, id int) error {
	return g.Send(ctx, protocol.EntityRequest(protocol.TypeAreaRequest, id))
}

// SendCharacterRequest asks for the character with the given ID.
func (g *Game) SendCharacterRequest(ctx context.Context, id int) error {
	return g.Send(ctx, protocol.EntityRequest(protocol.TypeCharacterRequest, id))
}

// SendItemRequest asks for the item with the given ID.
func (g *Game) SendItemRequest(ctx context.Context, id int) error {
	return g.Send(ctx, protocol.EntityRequest(protocol.TypeItemRequest, id))
}

// SendTrackRequest asks for the track with the given ID.
func (g *Game) SendTrackRequest(ctx context.Context, id int) error {
	return g.Send(ctx, protocol.EntityRequest(protocol.TypeTrackRequest, id))
}

// SendChangeRequest releases the controlled character.
func (g *Game) SendChangeRequest(ctx context.Context) error {
	return g.Send(ctx, protocol.Change())
}

// SendPickRequest asks for control of a character.
func (g *Game) SendPickRequest(ctx context.Context, characterID int, password string) error {
	return g.Send(ctx, protocol.Pick(characterID, password))
}

// SendICMessage sends an in-character message.
func (g *Game) SendICMessage(ctx context.Context, msg protocol.ICMessage) error {
	return g.Send(ctx, msg.Frame())
}

// SendPlayRequest plays a track on behalf of a character.
func (g *Game) SendPlayRequest(ctx context.Context, characterName string, characterID int, trackName string, trackID int, looping model.LoopingStatus) error {
	return g.Send(ctx, protocol.Play(characterName, characterID, trackName, trackID, looping))
}

// SendModRequest asks for moderator elevation.
func (g *Game) SendModRequest(ctx context.Context, password string) error {
	return g.Send(ctx, protocol.ModRequest(password))
}
