package session

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

// State returns the current protocol phase.
func (s *Session) State() model.SessionState {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.state
}

// SetState implements command.Target.
func (s *Session) SetState(state model.SessionState) {
	s.idMu.Lock()
	from := s.state
	s.state = state
	s.idMu.Unlock()

	if from == state {
		return
	}
	s.logger.Info("session state changed",
		zap.Stringer("from", from),
		zap.Stringer("to", state),
	)
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(from, state)
	}
}

// Authenticated reports whether the master server accepted the login.
func (s *Session) Authenticated() bool {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.authenticated
}

// SetAuthenticated implements command.Target.
func (s *Session) SetAuthenticated(ok bool) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.authenticated = ok
}

// Username returns the account name the master server confirmed.
func (s *Session) Username() string {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.username
}

// SetUsername implements command.Target.
func (s *Session) SetUsername(name string) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.username = name
}

// IsMod reports whether moderator status was granted.
func (s *Session) IsMod() bool {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.mod
}

// SetMod implements command.Target.
func (s *Session) SetMod(granted bool) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.mod = granted
}

// CurrentCharacter returns the controlled character, or nil.
func (s *Session) CurrentCharacter() *model.Character {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.current
}

// SetCurrentCharacter implements command.Target.
func (s *Session) SetCurrentCharacter(c *model.Character) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.current = c
}

// PlayerCount returns the connected players and the server's limit.
func (s *Session) PlayerCount() (players, limit int) {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.players, s.playerLimit
}

// SetPlayerCount implements command.Target. A non-positive limit keeps the
// previously announced one.
func (s *Session) SetPlayerCount(players, limit int) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.players = players
	if limit > 0 {
		s.playerLimit = limit
	}
}

// NowPlaying returns the last track announced as played.
func (s *Session) NowPlaying() string {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.nowPlaying
}

// SetNowPlaying implements command.Target.
func (s *Session) SetNowPlaying(track string) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.nowPlaying = track
}

// ChannelClosed implements command.Target. Losing the game channel always
// disconnects the session and forgets everything mirrored from that server;
// losing the directory only disconnects before a game server was joined.
func (s *Session) ChannelClosed(role model.Role) {
	switch role {
	case model.RoleGame:
		s.forgetGameServer()
		s.SetState(model.StateDisconnected)
	case model.RoleDirectory:
		switch s.State() {
		case model.StateLogin, model.StateServerSelect:
			s.SetState(model.StateDisconnected)
		default:
			s.logger.Debug("directory channel closed after joining a server")
		}
	}
}

// forgetGameServer drops the entity stores, the scene memory and every
// identity field learned from the game server. The directory list is kept.
func (s *Session) forgetGameServer() {
	s.areas.Reset()
	s.characters.Reset()
	s.items.Reset()
	s.tracks.Reset()
	s.stage.Reset()

	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.current = nil
	s.mod = false
	s.players = 0
	s.playerLimit = 0
	s.nowPlaying = ""
}
