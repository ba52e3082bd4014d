// Package model defines the entity types and protocol vocabulary shared by the
// VNO session client.
package model

import (
	"fmt"
	"strconv"
)

// SpritePosition places a character sprite on the stage.
type SpritePosition int

// Sprite positions with their wire codes.
const (
	PositionLeft   SpritePosition = 0
	PositionCenter SpritePosition = 1
	PositionRight  SpritePosition = 2
)

var spritePositionNames = map[SpritePosition]string{
	PositionLeft:   "left",
	PositionCenter: "center",
	PositionRight:  "right",
}

// String returns the lowercase position name.
func (p SpritePosition) String() string {
	if name, ok := spritePositionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("position(%d)", int(p))
}

// Code returns the wire code.
func (p SpritePosition) Code() int { return int(p) }

// SpritePositionFromCode maps a wire code to a SpritePosition.
//
// Postcondition: Returns an error for codes outside the known set.
func SpritePositionFromCode(code int) (SpritePosition, error) {
	p := SpritePosition(code)
	if _, ok := spritePositionNames[p]; !ok {
		return 0, fmt.Errorf("unknown sprite position code %d", code)
	}
	return p, nil
}

// ParseSpritePosition maps a position name ("left", "center", "right") to a SpritePosition.
func ParseSpritePosition(name string) (SpritePosition, error) {
	for p, n := range spritePositionNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown sprite position %q", name)
}

// MessageColor is the text colour of an in-character message.
type MessageColor int

// Message colours with their wire codes.
const (
	ColorWhite  MessageColor = 0
	ColorBlue   MessageColor = 1
	ColorPink   MessageColor = 2
	ColorYellow MessageColor = 3
	ColorGreen  MessageColor = 4
	ColorOrange MessageColor = 5
	ColorRed    MessageColor = 6
)

var messageColorNames = map[MessageColor]string{
	ColorWhite:  "white",
	ColorBlue:   "blue",
	ColorPink:   "pink",
	ColorYellow: "yellow",
	ColorGreen:  "green",
	ColorOrange: "orange",
	ColorRed:    "red",
}

// String returns the lowercase colour name.
func (c MessageColor) String() string {
	if name, ok := messageColorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// Code returns the wire code.
func (c MessageColor) Code() int { return int(c) }

// MessageColorFromCode maps a wire code to a MessageColor.
func MessageColorFromCode(code int) (MessageColor, error) {
	c := MessageColor(code)
	if _, ok := messageColorNames[c]; !ok {
		return 0, fmt.Errorf("unknown message color code %d", code)
	}
	return c, nil
}

// ParseMessageColor maps a colour name to a MessageColor.
func ParseMessageColor(name string) (MessageColor, error) {
	for c, n := range messageColorNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown message color %q", name)
}

// LoopingStatus tells the server whether a played track repeats.
type LoopingStatus int

// Looping statuses with their wire codes. LoopingOpaque is a code observed in
// the protocol with no known meaning beyond being non-zero; it is carried as is.
const (
	NotLooping    LoopingStatus = 0
	Looping       LoopingStatus = 1
	LoopingOpaque LoopingStatus = 696969
)

// IsLooping reports whether the status is any non-zero code.
func (l LoopingStatus) IsLooping() bool { return l != NotLooping }

// Code returns the wire code.
func (l LoopingStatus) Code() int { return int(l) }

// String returns a readable status name.
func (l LoopingStatus) String() string {
	switch l {
	case NotLooping:
		return "not_looping"
	case Looping:
		return "looping"
	case LoopingOpaque:
		return "opaque"
	}
	return fmt.Sprintf("looping(%d)", int(l))
}

// LoopingStatusFromCode maps a wire code to a LoopingStatus.
func LoopingStatusFromCode(code int) (LoopingStatus, error) {
	switch l := LoopingStatus(code); l {
	case NotLooping, Looping, LoopingOpaque:
		return l, nil
	}
	return 0, fmt.Errorf("unknown looping status code %d", code)
}

// SpriteFlip mirrors a sprite horizontally.
type SpriteFlip int

// Sprite flips with their wire codes.
const (
	FlipNormal  SpriteFlip = 0
	FlipFlipped SpriteFlip = 1
)

// Code returns the wire code.
func (f SpriteFlip) Code() int { return int(f) }

// String returns "normal" or "flipped".
func (f SpriteFlip) String() string {
	switch f {
	case FlipNormal:
		return "normal"
	case FlipFlipped:
		return "flipped"
	}
	return fmt.Sprintf("flip(%d)", int(f))
}

// SpriteFlipFromCode maps a wire code to a SpriteFlip.
func SpriteFlipFromCode(code int) (SpriteFlip, error) {
	switch f := SpriteFlip(code); f {
	case FlipNormal, FlipFlipped:
		return f, nil
	}
	return 0, fmt.Errorf("unknown sprite flip code %d", code)
}

// BoxName selects which name is shown in the message box.
type BoxName int

// Box name kinds. BoxUsername is never sent as a code: the player's own
// username travels in its place.
const (
	BoxCharacterName BoxName = iota
	BoxMysteryName
	BoxUsername
)

// RequestString returns the wire form for the code-carrying kinds.
// BoxUsername has no wire form and returns the empty string.
func (b BoxName) RequestString() string {
	switch b {
	case BoxCharacterName, BoxMysteryName:
		return strconv.Itoa(int(b))
	}
	return ""
}

// String returns a readable kind name.
func (b BoxName) String() string {
	switch b {
	case BoxCharacterName:
		return "character_name"
	case BoxMysteryName:
		return "mystery_name"
	case BoxUsername:
		return "username"
	}
	return fmt.Sprintf("boxname(%d)", int(b))
}

// BoxNameFromString parses an inbound box name. Any string that is not one of
// the kind codes is a literal username.
func BoxNameFromString(s string) BoxName {
	switch s {
	case BoxCharacterName.RequestString():
		return BoxCharacterName
	case BoxMysteryName.RequestString():
		return BoxMysteryName
	}
	return BoxUsername
}

// ParseBoxName maps a kind name used by the console to a BoxName.
func ParseBoxName(name string) (BoxName, error) {
	switch name {
	case "character", "character_name", "char":
		return BoxCharacterName, nil
	case "mystery", "mystery_name":
		return BoxMysteryName, nil
	case "username", "user":
		return BoxUsername, nil
	}
	return 0, fmt.Errorf("unknown box name %q", name)
}
