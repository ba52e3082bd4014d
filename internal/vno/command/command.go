// Package command defines the server-to-client commands a session applies,
// one variant per inbound message type.
package command

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/scene"
)

// Target is the session state a command mutates. Session implements it.
type Target interface {
	Logger() *zap.Logger

	SetState(model.SessionState)
	SetAuthenticated(bool)
	SetUsername(string)
	Username() string
	SetMod(bool)
	SetCurrentCharacter(*model.Character)
	SetPlayerCount(players, limit int)
	SetNowPlaying(track string)

	AllocateStores(model.Capacity) error
	AddServer(model.Server) error
	AddArea(*model.Area) error
	AddCharacter(*model.Character) error
	AddItem(*model.Item) error
	AddTrack(*model.Track) error

	Character(id int) (*model.Character, bool)
	CharacterByName(name string) (*model.Character, error)

	ChannelClosed(model.Role)

	Stage() *scene.Stage
	Presenter() scene.Presenter
}

// Command is one decoded server message. Handle applies it to the target and
// must not panic; failures are logged, never returned.
type Command interface {
	// Name returns the frame type the command was decoded from.
	Name() string
	// Handle applies the command.
	Handle(t Target)
}

// ChannelClosed reports that a connection's transport ended.
type ChannelClosed struct {
	Role model.Role
}

// Name implements Command.
func (c ChannelClosed) Name() string { return "channel_closed" }

// Handle implements Command.
func (c ChannelClosed) Handle(t Target) {
	t.Logger().Info("channel closed", zap.String("role", string(c.Role)))
	t.ChannelClosed(c.Role)
}

// Func adapts a function into a Command; used for caller-submitted mutations.
type Func struct {
	Label string
	Fn    func(Target)
}

// Name implements Command.
func (f Func) Name() string { return f.Label }

// Handle implements Command.
func (f Func) Handle(t Target) { f.Fn(t) }
