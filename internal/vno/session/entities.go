package session

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

// AllocateStores implements command.Target. Each store is sized once; every
// kind is attempted even if another fails.
func (s *Session) AllocateStores(c model.Capacity) error {
	return errors.Join(
		s.areas.Allocate(c.Areas),
		s.characters.Allocate(c.Characters),
		s.items.Allocate(c.Items),
		s.tracks.Allocate(c.Tracks),
	)
}

// Capacity returns the announced size of every entity store.
func (s *Session) Capacity() model.Capacity {
	return model.Capacity{
		Areas:      s.areas.Capacity(),
		Characters: s.characters.Capacity(),
		Items:      s.items.Capacity(),
		Tracks:     s.tracks.Capacity(),
	}
}

// AddServer inserts a directory entry at its index.
func (s *Session) AddServer(srv model.Server) error {
	return s.servers.Insert(srv)
}

// AddArea stores a at slot ID-1.
func (s *Session) AddArea(a *model.Area) error { return s.areas.Put(a) }

// AddCharacter stores c at slot ID-1.
func (s *Session) AddCharacter(c *model.Character) error { return s.characters.Put(c) }

// AddItem stores i at slot ID-1.
func (s *Session) AddItem(i *model.Item) error { return s.items.Put(i) }

// AddTrack stores t at slot ID-1.
func (s *Session) AddTrack(t *model.Track) error { return s.tracks.Put(t) }

// Servers returns the directory list in display order.
func (s *Session) Servers() []model.Server { return s.servers.Snapshot() }

// Server returns the directory entry at index i.
func (s *Session) Server(i int) (model.Server, bool) { return s.servers.At(i) }

// Area returns the area with the given ID.
func (s *Session) Area(id int) (*model.Area, bool) {
	a, ok, err := s.areas.Get(id)
	return a, ok && err == nil
}

// Character implements command.Target.
func (s *Session) Character(id int) (*model.Character, bool) {
	c, ok, err := s.characters.Get(id)
	return c, ok && err == nil
}

// Item returns the item with the given ID.
func (s *Session) Item(id int) (*model.Item, bool) {
	i, ok, err := s.items.Get(id)
	return i, ok && err == nil
}

// Track returns the track with the given ID.
func (s *Session) Track(id int) (*model.Track, bool) {
	t, ok, err := s.tracks.Get(id)
	return t, ok && err == nil
}

// Areas returns the announced areas in ID order.
func (s *Session) Areas() []*model.Area { return s.areas.All() }

// Characters returns the announced characters in ID order.
func (s *Session) Characters() []*model.Character { return s.characters.All() }

// Items returns the announced items in ID order.
func (s *Session) Items() []*model.Item { return s.items.All() }

// Tracks returns the announced tracks in ID order.
func (s *Session) Tracks() []*model.Track { return s.tracks.All() }

// CharacterByName returns the first roster character, in ID order, named name.
//
// Postcondition: Returns an error wrapping ErrCharacterNotFound if none matches.
func (s *Session) CharacterByName(name string) (*model.Character, error) {
	c, ok := s.characters.Find(func(c *model.Character) bool { return c.Name == name })
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCharacterNotFound, name)
	}
	return c, nil
}

// TrackByName returns the first track, in ID order, named name.
func (s *Session) TrackByName(name string) (*model.Track, bool) {
	return s.tracks.Find(func(t *model.Track) bool { return t.Name == name })
}
