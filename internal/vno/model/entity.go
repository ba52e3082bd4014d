package model

import "fmt"

// UnknownName is displayed whenever a name cannot be resolved.
const UnknownName = "???"

// Area is a room announced by the game server.
type Area struct {
	ID         int
	Name       string
	Background string
}

// EntityID returns the server-assigned area ID.
func (a *Area) EntityID() int { return a.ID }

// Character is a playable character announced by the game server.
type Character struct {
	ID   int
	Name string
	// DisplayName is shown when the box name kind is BoxCharacterName.
	DisplayName string
	// MysteryName is shown when the box name kind is BoxMysteryName.
	MysteryName string
	// Taken is true when another player controls the character.
	Taken bool
}

// EntityID returns the server-assigned character ID.
func (c *Character) EntityID() int { return c.ID }

// ShowName returns DisplayName, or Name when no display name was announced.
func (c *Character) ShowName() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// HiddenName returns MysteryName, or UnknownName when none was announced.
func (c *Character) HiddenName() string {
	if c.MysteryName != "" {
		return c.MysteryName
	}
	return UnknownName
}

// Item is an evidence item announced by the game server.
type Item struct {
	ID          int
	Name        string
	Description string
	Image       string
}

// EntityID returns the server-assigned item ID.
func (i *Item) EntityID() int { return i.ID }

// Track is a music track announced by the game server.
type Track struct {
	ID   int
	Name string
}

// EntityID returns the server-assigned track ID.
func (t *Track) EntityID() int { return t.ID }

// Server is a directory entry describing one game server.
type Server struct {
	// Index is the display position assigned by the directory.
	Index       int
	Name        string
	Description string
	Host        string
	Port        int
}

// Addr returns the "host:port" address of the server.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// String returns the server name and address.
func (s Server) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Addr())
}

// Capacity is the number of entities of each kind a game server announces.
type Capacity struct {
	Areas      int
	Characters int
	Items      int
	Tracks     int
}

// Role distinguishes the two connections a session holds.
type Role string

// Connection roles.
const (
	RoleDirectory Role = "directory"
	RoleGame      Role = "game"
)
