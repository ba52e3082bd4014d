package protocol

import "github.com/cory-johannsen/vno/internal/vno/model"

// Client-to-server frame types.
const (
	TypeHello            = "hello"
	TypeLogin            = "login"
	TypeServerQuery      = "server_query"
	TypeAreaRequest      = "area_request"
	TypeCharacterRequest = "character_request"
	TypeItemRequest      = "item_request"
	TypeTrackRequest     = "track_request"
	TypeChange           = "change"
	TypePick             = "pick"
	TypePlay             = "play"
	TypeModRequest       = "mod_request"
)

// Server-to-client frame types. TypeIC is used in both directions.
const (
	TypeAuthResult  = "auth_result"
	TypeServer      = "server"
	TypeServerInfo  = "server_info"
	TypePlayerCount = "player_count"
	TypeArea        = "area"
	TypeCharacter   = "character"
	TypeItem        = "item"
	TypeTrack       = "track"
	TypeState       = "state"
	TypeModStatus   = "mod_status"
	TypePicked      = "picked"
	TypeReleased    = "released"
	TypeIC          = "ic"
	TypeTrackPlayed = "track_played"
)

// Hello announces the client on a freshly opened connection.
func Hello(clientID, version string) Frame {
	return NewFrame(TypeHello, map[string]any{
		"client_id": clientID,
		"version":   version,
	})
}

// Login carries the account name and the hashed password.
func Login(login, passwordHash string) Frame {
	return NewFrame(TypeLogin, map[string]any{
		"login":    login,
		"password": passwordHash,
	})
}

// ServerQuery asks the directory for the server list starting at index.
func ServerQuery(index int) Frame {
	return NewFrame(TypeServerQuery, map[string]any{"index": index})
}

// EntityRequest asks the game server to announce the entity id of the given
// request type (TypeAreaRequest, TypeCharacterRequest, TypeItemRequest, TypeTrackRequest).
func EntityRequest(requestType string, id int) Frame {
	return NewFrame(requestType, map[string]any{"id": id})
}

// Change releases the currently controlled character.
func Change() Frame {
	return NewFrame(TypeChange, nil)
}

// Pick requests control of a character.
func Pick(characterID int, password string) Frame {
	return NewFrame(TypePick, map[string]any{
		"character_id": characterID,
		"password":     password,
	})
}

// ICMessage is an in-character message as it travels on the wire.
type ICMessage struct {
	CharacterName string
	CharacterID   int
	SpriteName    string
	Message       string
	// BoxName is a BoxName request string or a literal username.
	BoxName    string
	Color      model.MessageColor
	Background string
	Position   model.SpritePosition
	Flip       model.SpriteFlip
	SFX        string
}

// Frame encodes the message as a TypeIC frame.
func (m ICMessage) Frame() Frame {
	return NewFrame(TypeIC, map[string]any{
		"character_name": m.CharacterName,
		"character_id":   m.CharacterID,
		"sprite":         m.SpriteName,
		"message":        m.Message,
		"box_name":       m.BoxName,
		"color":          m.Color.Code(),
		"background":     m.Background,
		"position":       m.Position.Code(),
		"flip":           m.Flip.Code(),
		"sfx":            m.SFX,
	})
}

// Play asks the server to play a track on behalf of a character.
func Play(characterName string, characterID int, trackName string, trackID int, looping model.LoopingStatus) Frame {
	return NewFrame(TypePlay, map[string]any{
		"character_name": characterName,
		"character_id":   characterID,
		"track_name":     trackName,
		"track_id":       trackID,
		"looping":        looping.Code(),
	})
}

// ModRequest asks for moderator elevation.
func ModRequest(password string) Frame {
	return NewFrame(TypeModRequest, map[string]any{"password": password})
}
