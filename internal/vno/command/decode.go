package command

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
	"github.com/cory-johannsen/vno/internal/vno/store"
)

// ErrUnknownType is returned by Decode for frame types with no command.
var ErrUnknownType = errors.New("unknown frame type")

// DecodeFunc builds a Command from a frame of one type.
type DecodeFunc func(f protocol.Frame) (Command, error)

// decoders is the single source of truth for inbound frame dispatch.
// To add a server message: add a Type constant to protocol AND an entry here.
var decoders = map[string]DecodeFunc{
	protocol.TypeAuthResult:  decodeAuthResult,
	protocol.TypeServer:      decodeServer,
	protocol.TypeServerInfo:  decodeServerInfo,
	protocol.TypePlayerCount: decodePlayerCount,
	protocol.TypeArea:        decodeArea,
	protocol.TypeCharacter:   decodeCharacter,
	protocol.TypeItem:        decodeItem,
	protocol.TypeTrack:       decodeTrack,
	protocol.TypeState:       decodeState,
	protocol.TypeModStatus:   decodeModStatus,
	protocol.TypePicked:      decodePicked,
	protocol.TypeReleased:    decodeReleased,
	protocol.TypeIC:          decodeIC,
	protocol.TypeTrackPlayed: decodeTrackPlayed,
}

// Decoders returns the frame type to decoder map.
// Exported so tests can verify every inbound type is wired.
func Decoders() map[string]DecodeFunc {
	return decoders
}

// Decode converts a frame into its Command.
//
// Postcondition: Returns ErrUnknownType for unregistered types, or a wrapped
// field error when the frame is malformed.
func Decode(f protocol.Frame) (Command, error) {
	fn, ok := decoders[f.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, f.Type)
	}
	cmd, err := fn(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.Type, err)
	}
	return cmd, nil
}

func decodeAuthResult(f protocol.Frame) (Command, error) {
	accepted, err := f.Bool("accepted")
	if err != nil {
		return nil, err
	}
	return AuthResult{
		Accepted: accepted,
		Username: f.StringOr("username", ""),
		Reason:   f.StringOr("reason", ""),
	}, nil
}

func decodeServer(f protocol.Frame) (Command, error) {
	index, err := f.Int("index")
	if err != nil {
		return nil, err
	}
	name, err := f.String("name")
	if err != nil {
		return nil, err
	}
	host, err := f.String("host")
	if err != nil {
		return nil, err
	}
	port, err := f.Int("port")
	if err != nil {
		return nil, err
	}
	return AddServer{Server: model.Server{
		Index:       index,
		Name:        name,
		Description: f.StringOr("description", ""),
		Host:        host,
		Port:        port,
	}}, nil
}

func decodeServerInfo(f protocol.Frame) (Command, error) {
	var c model.Capacity
	var err error
	if c.Areas, err = f.Int("areas"); err != nil {
		return nil, err
	}
	if c.Characters, err = f.Int("characters"); err != nil {
		return nil, err
	}
	if c.Tracks, err = f.Int("tracks"); err != nil {
		return nil, err
	}
	c.Items = f.IntOr("items", 0)
	for key, n := range map[string]int{"areas": c.Areas, "characters": c.Characters, "tracks": c.Tracks, "items": c.Items} {
		if n < 0 || n > store.MaxCapacity {
			return nil, fmt.Errorf("%s.%s = %d outside 0..%d: %w", f.Type, key, n, store.MaxCapacity, protocol.ErrFieldType)
		}
	}
	return ServerInfo{Capacity: c, PlayerLimit: f.IntOr("player_limit", 0)}, nil
}

func decodePlayerCount(f protocol.Frame) (Command, error) {
	players, err := f.Int("players")
	if err != nil {
		return nil, err
	}
	return PlayerCount{Players: players, Limit: f.IntOr("limit", 0)}, nil
}

func decodeArea(f protocol.Frame) (Command, error) {
	id, name, err := idAndName(f)
	if err != nil {
		return nil, err
	}
	return AddArea{Area: &model.Area{
		ID:         id,
		Name:       name,
		Background: f.StringOr("background", ""),
	}}, nil
}

func decodeCharacter(f protocol.Frame) (Command, error) {
	id, name, err := idAndName(f)
	if err != nil {
		return nil, err
	}
	return AddCharacter{Character: &model.Character{
		ID:          id,
		Name:        name,
		DisplayName: f.StringOr("display_name", ""),
		MysteryName: f.StringOr("mystery_name", ""),
		Taken:       f.BoolOr("taken", false),
	}}, nil
}

func decodeItem(f protocol.Frame) (Command, error) {
	id, name, err := idAndName(f)
	if err != nil {
		return nil, err
	}
	return AddItem{Item: &model.Item{
		ID:          id,
		Name:        name,
		Description: f.StringOr("description", ""),
		Image:       f.StringOr("image", ""),
	}}, nil
}

func decodeTrack(f protocol.Frame) (Command, error) {
	id, name, err := idAndName(f)
	if err != nil {
		return nil, err
	}
	return AddTrack{Track: &model.Track{ID: id, Name: name}}, nil
}

func idAndName(f protocol.Frame) (int, string, error) {
	id, err := f.Int("id")
	if err != nil {
		return 0, "", err
	}
	name, err := f.String("name")
	if err != nil {
		return 0, "", err
	}
	return id, name, nil
}

func decodeState(f protocol.Frame) (Command, error) {
	name, err := f.String("state")
	if err != nil {
		return nil, err
	}
	state, err := model.ParseSessionState(name)
	if err != nil {
		return nil, err
	}
	return SetState{State: state}, nil
}

func decodeModStatus(f protocol.Frame) (Command, error) {
	granted, err := f.Bool("granted")
	if err != nil {
		return nil, err
	}
	return ModStatus{Granted: granted}, nil
}

func decodePicked(f protocol.Frame) (Command, error) {
	id, err := f.Int("character_id")
	if err != nil {
		return nil, err
	}
	return CharacterPicked{CharacterID: id}, nil
}

func decodeReleased(protocol.Frame) (Command, error) {
	return CharacterReleased{}, nil
}

func decodeIC(f protocol.Frame) (Command, error) {
	charName, err := f.String("character_name")
	if err != nil {
		return nil, err
	}
	message, err := f.String("message")
	if err != nil {
		return nil, err
	}
	color, err := model.MessageColorFromCode(f.IntOr("color", model.ColorWhite.Code()))
	if err != nil {
		return nil, err
	}
	pos, err := model.SpritePositionFromCode(f.IntOr("position", model.PositionCenter.Code()))
	if err != nil {
		return nil, err
	}
	flip, err := model.SpriteFlipFromCode(f.IntOr("flip", model.FlipNormal.Code()))
	if err != nil {
		return nil, err
	}
	return ICMessage{ICMessage: protocol.ICMessage{
		CharacterName: charName,
		CharacterID:   f.IntOr("character_id", 0),
		SpriteName:    f.StringOr("sprite", ""),
		Message:       message,
		BoxName:       f.StringOr("box_name", model.BoxCharacterName.RequestString()),
		Color:         color,
		Background:    f.StringOr("background", ""),
		Position:      pos,
		Flip:          flip,
		SFX:           f.StringOr("sfx", ""),
	}}, nil
}

func decodeTrackPlayed(f protocol.Frame) (Command, error) {
	track, err := f.String("track_name")
	if err != nil {
		return nil, err
	}
	looping, err := model.LoopingStatusFromCode(f.IntOr("looping", model.NotLooping.Code()))
	if err != nil {
		return nil, err
	}
	return TrackPlayed{
		CharacterName: f.StringOr("character_name", ""),
		TrackName:     track,
		Looping:       looping,
	}, nil
}
