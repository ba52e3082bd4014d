package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/auth"
	"github.com/cory-johannsen/vno/internal/vno/connection"
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

func (s *Session) channelOptions(endpoint string) connection.Options {
	return connection.Options{
		Endpoint:  endpoint,
		Transport: s.cfg.Transport,
		Queue:     s.queue,
		ClientID:  s.ID(),
		Version:   s.cfg.Version,
		Logger:    s.logger,
	}
}

// ConnectToMaster creates the directory channel and connects it to the
// configured master server.
//
// Postcondition: The channel is recorded even if connecting fails. A second
// call returns a *connection.Error wrapping connection.ErrAlreadyConnected
// that names the existing endpoint.
func (s *Session) ConnectToMaster(ctx context.Context) error {
	s.chanMu.Lock()
	if s.directory != nil {
		existing := s.directory.Endpoint()
		s.chanMu.Unlock()
		return &connection.Error{Op: "connect to master", Endpoint: existing, Err: connection.ErrAlreadyConnected}
	}
	dir := connection.NewDirectory(s.channelOptions(s.cfg.MasterAddr))
	s.directory = dir
	s.chanMu.Unlock()

	return dir.Connect(ctx)
}

// ConnectToServer creates the game channel and connects it to srv.
//
// Postcondition: Same at-most-once rule as ConnectToMaster.
func (s *Session) ConnectToServer(ctx context.Context, srv model.Server) error {
	s.chanMu.Lock()
	if s.game != nil {
		existing := s.game.Endpoint()
		s.chanMu.Unlock()
		return &connection.Error{Op: "connect to server", Endpoint: existing, Err: connection.ErrAlreadyConnected}
	}
	game := connection.NewGame(s.channelOptions(srv.Addr()))
	s.game = game
	s.chanMu.Unlock()

	s.logger.Info("joining server", zap.Stringer("server", srv))
	return game.Connect(ctx)
}

// DirectoryStatus returns the directory channel status.
func (s *Session) DirectoryStatus() connection.Status {
	s.chanMu.Lock()
	defer s.chanMu.Unlock()
	if s.directory == nil {
		return connection.StatusDisconnected
	}
	return s.directory.Status()
}

// GameStatus returns the game channel status.
func (s *Session) GameStatus() connection.Status {
	s.chanMu.Lock()
	defer s.chanMu.Unlock()
	if s.game == nil {
		return connection.StatusDisconnected
	}
	return s.game.Status()
}

// connectedDirectory returns the directory channel if it is CONNECTED.
func (s *Session) connectedDirectory(op string) (*connection.Directory, error) {
	s.chanMu.Lock()
	dir := s.directory
	s.chanMu.Unlock()
	if dir == nil {
		return nil, &connection.Error{Op: op, Endpoint: s.cfg.MasterAddr, Err: connection.ErrNotConnected}
	}
	if dir.Status() != connection.StatusConnected {
		return nil, &connection.Error{Op: op, Endpoint: dir.Endpoint(), Err: connection.ErrNotConnected}
	}
	return dir, nil
}

// gameChannel returns the game channel if it exists.
func (s *Session) gameChannel(op string) (*connection.Game, error) {
	s.chanMu.Lock()
	game := s.game
	s.chanMu.Unlock()
	if game == nil {
		return nil, &connection.Error{Op: op, Err: connection.ErrNotConnected}
	}
	return game, nil
}

// Authenticate sends the login and hashed password to the master server. The
// verdict arrives later as an auth result command.
//
// Postcondition: Returns a *connection.Error unless the directory channel is
// CONNECTED, or an error wrapping auth.ErrAlgorithmUnavailable.
func (s *Session) Authenticate(ctx context.Context, login, password string) error {
	dir, err := s.connectedDirectory("authenticate")
	if err != nil {
		return err
	}
	h, err := auth.NewHasher(s.cfg.HashAlgorithm)
	if err != nil {
		return err
	}
	return dir.SendLoginRequest(ctx, h, login, password)
}

// RequestServers asks the master server for the whole server list.
func (s *Session) RequestServers(ctx context.Context) error {
	return s.RequestServer(ctx, 0)
}

// RequestServer asks the master server for the list starting at index.
func (s *Session) RequestServer(ctx context.Context, index int) error {
	dir, err := s.connectedDirectory("request servers")
	if err != nil {
		return err
	}
	return dir.SendServerRequest(ctx, index)
}

// RequestAreas asks for every area ID from 1 to the announced capacity.
func (s *Session) RequestAreas(ctx context.Context) error {
	game, err := s.gameChannel("request areas")
	if err != nil {
		return err
	}
	return requestEach(ctx, s.areas.Capacity(), game.SendAreaRequest)
}

// RequestCharacters asks for every character ID from 1 to the announced capacity.
func (s *Session) RequestCharacters(ctx context.Context) error {
	game, err := s.gameChannel("request characters")
	if err != nil {
		return err
	}
	return requestEach(ctx, s.characters.Capacity(), game.SendCharacterRequest)
}

// RequestItems asks for every item ID from 1 to the announced capacity.
func (s *Session) RequestItems(ctx context.Context) error {
	game, err := s.gameChannel("request items")
	if err != nil {
		return err
	}
	return requestEach(ctx, s.items.Capacity(), game.SendItemRequest)
}

// RequestTracks asks for every track ID from 1 to the announced capacity.
func (s *Session) RequestTracks(ctx context.Context) error {
	game, err := s.gameChannel("request tracks")
	if err != nil {
		return err
	}
	return requestEach(ctx, s.tracks.Capacity(), game.SendTrackRequest)
}

func requestEach(ctx context.Context, capacity int, send func(context.Context, int) error) error {
	for id := 1; id <= capacity; id++ {
		if err := send(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// PickCharacter asks to control c, releasing the current character first.
//
// Precondition: c must be non-nil.
func (s *Session) PickCharacter(ctx context.Context, c *model.Character, password string) error {
	game, err := s.gameChannel("pick character")
	if err != nil {
		return err
	}
	if s.CurrentCharacter() != nil {
		if err := game.SendChangeRequest(ctx); err != nil {
			return err
		}
	}
	return game.SendPickRequest(ctx, c.ID, password)
}

// SendICMessage speaks as the controlled character. A BoxUsername box sends
// the session username in place of a kind code.
//
// Postcondition: Returns ErrNoCharacter when no character is controlled.
func (s *Session) SendICMessage(ctx context.Context, box model.BoxName, spriteName, message string, color model.MessageColor, background string, position model.SpritePosition, flip model.SpriteFlip, sfx string) error {
	game, err := s.gameChannel("send message")
	if err != nil {
		return err
	}
	char := s.CurrentCharacter()
	if char == nil {
		return fmt.Errorf("send message: %w", ErrNoCharacter)
	}

	boxName := box.RequestString()
	if box == model.BoxUsername {
		boxName = s.Username()
	}
	return game.SendICMessage(ctx, protocol.ICMessage{
		CharacterName: char.Name,
		CharacterID:   char.ID,
		SpriteName:    spriteName,
		Message:       message,
		BoxName:       boxName,
		Color:         color,
		Background:    background,
		Position:      position,
		Flip:          flip,
		SFX:           sfx,
	})
}

// PlayTrack plays t on behalf of the controlled character.
//
// Precondition: t must be non-nil.
// Postcondition: Returns ErrNoCharacter when no character is controlled.
func (s *Session) PlayTrack(ctx context.Context, t *model.Track, looping model.LoopingStatus) error {
	game, err := s.gameChannel("play track")
	if err != nil {
		return err
	}
	char := s.CurrentCharacter()
	if char == nil {
		return fmt.Errorf("play track: %w", ErrNoCharacter)
	}
	return game.SendPlayRequest(ctx, char.Name, char.ID, t.Name, t.ID, looping)
}

// GetMod asks the game server for moderator status.
//
// Postcondition: Returns a *connection.Error if the game channel is missing or
// DISCONNECTED.
func (s *Session) GetMod(ctx context.Context, password string) error {
	game, err := s.gameChannel("request moderator")
	if err != nil {
		return err
	}
	if game.Status() == connection.StatusDisconnected {
		return &connection.Error{Op: "request moderator", Endpoint: game.Endpoint(), Err: connection.ErrNotConnected}
	}
	return game.SendModRequest(ctx, password)
}
