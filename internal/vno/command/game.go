package command

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// ServerInfo announces how many entities of each kind the game server holds.
type ServerInfo struct {
	Capacity    model.Capacity
	PlayerLimit int
}

// Name implements Command.
func (c ServerInfo) Name() string { return protocol.TypeServerInfo }

// Handle sizes the entity stores and moves the session to character selection.
func (c ServerInfo) Handle(t Target) {
	if err := t.AllocateStores(c.Capacity); err != nil {
		t.Logger().Error("allocating entity stores", zap.Error(err))
		return
	}
	if c.PlayerLimit > 0 {
		t.SetPlayerCount(0, c.PlayerLimit)
	}
	t.SetState(model.StateCharacterSelect)
}

// PlayerCount updates the number of connected players.
type PlayerCount struct {
	Players int
	Limit   int
}

// Name implements Command.
func (c PlayerCount) Name() string { return protocol.TypePlayerCount }

// Handle implements Command.
func (c PlayerCount) Handle(t Target) {
	t.SetPlayerCount(c.Players, c.Limit)
}

// AddArea announces one area.
type AddArea struct {
	Area *model.Area
}

// Name implements Command.
func (c AddArea) Name() string { return protocol.TypeArea }

// Handle implements Command.
func (c AddArea) Handle(t Target) {
	logAddError(t, "area", c.Area.ID, t.AddArea(c.Area))
}

// AddCharacter announces one character.
type AddCharacter struct {
	Character *model.Character
}

// Name implements Command.
func (c AddCharacter) Name() string { return protocol.TypeCharacter }

// Handle implements Command.
func (c AddCharacter) Handle(t Target) {
	logAddError(t, "character", c.Character.ID, t.AddCharacter(c.Character))
}

// AddItem announces one item.
type AddItem struct {
	Item *model.Item
}

// Name implements Command.
func (c AddItem) Name() string { return protocol.TypeItem }

// Handle implements Command.
func (c AddItem) Handle(t Target) {
	logAddError(t, "item", c.Item.ID, t.AddItem(c.Item))
}

// AddTrack announces one track.
type AddTrack struct {
	Track *model.Track
}

// Name implements Command.
func (c AddTrack) Name() string { return protocol.TypeTrack }

// Handle implements Command.
func (c AddTrack) Handle(t Target) {
	logAddError(t, "track", c.Track.ID, t.AddTrack(c.Track))
}

func logAddError(t Target, kind string, id int, err error) {
	if err != nil {
		t.Logger().Warn("dropping entity",
			zap.String("kind", kind),
			zap.Int("id", id),
			zap.Error(err),
		)
	}
}

// SetState forces the session into a protocol phase.
type SetState struct {
	State model.SessionState
}

// Name implements Command.
func (c SetState) Name() string { return protocol.TypeState }

// Handle implements Command.
func (c SetState) Handle(t Target) {
	t.SetState(c.State)
}

// ModStatus reports the outcome of a moderator elevation request.
type ModStatus struct {
	Granted bool
}

// Name implements Command.
func (c ModStatus) Name() string { return protocol.TypeModStatus }

// Handle implements Command.
func (c ModStatus) Handle(t Target) {
	t.SetMod(c.Granted)
}

// CharacterPicked confirms the player now controls a character.
type CharacterPicked struct {
	CharacterID int
}

// Name implements Command.
func (c CharacterPicked) Name() string { return protocol.TypePicked }

// Handle sets the controlled character and enters PLAYING. An unknown ID is
// logged and leaves the session unchanged.
func (c CharacterPicked) Handle(t Target) {
	char, ok := t.Character(c.CharacterID)
	if !ok {
		t.Logger().Warn("picked unknown character", zap.Int("character_id", c.CharacterID))
		return
	}
	t.SetCurrentCharacter(char)
	t.SetState(model.StatePlaying)
}

// CharacterReleased confirms the player no longer controls a character.
type CharacterReleased struct{}

// Name implements Command.
func (c CharacterReleased) Name() string { return protocol.TypeReleased }

// Handle implements Command.
func (c CharacterReleased) Handle(t Target) {
	t.SetCurrentCharacter(nil)
	t.SetState(model.StateCharacterSelect)
}

// TrackPlayed reports that a character started a track.
type TrackPlayed struct {
	CharacterName string
	TrackName     string
	Looping       model.LoopingStatus
}

// Name implements Command.
func (c TrackPlayed) Name() string { return protocol.TypeTrackPlayed }

// Handle implements Command.
func (c TrackPlayed) Handle(t Target) {
	t.SetNowPlaying(c.TrackName)
	t.Logger().Info("track played",
		zap.String("character", c.CharacterName),
		zap.String("track", c.TrackName),
		zap.Bool("looping", c.Looping.IsLooping()),
	)
}
