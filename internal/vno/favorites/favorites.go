// Package favorites reads and writes the YAML list of game servers a player
// can join without asking the master server.
package favorites

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

// ErrInvalidEntry is returned when a favorite lacks a host or has a bad port.
var ErrInvalidEntry = errors.New("invalid favorite server")

// Entry is one favorite as written in the file.
type Entry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
}

type file struct {
	Servers []Entry `yaml:"servers"`
}

// Validate checks the entry's address.
func (e Entry) Validate() error {
	if e.Host == "" {
		return fmt.Errorf("%w %q: host must not be empty", ErrInvalidEntry, e.Name)
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("%w %q: port %d out of range", ErrInvalidEntry, e.Name, e.Port)
	}
	return nil
}

// Parse decodes a favorites document. Servers are indexed in file order.
//
// Postcondition: Returns an error wrapping ErrInvalidEntry for the first bad entry.
func Parse(data []byte) ([]model.Server, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing favorites: %w", err)
	}
	servers := make([]model.Server, 0, len(f.Servers))
	for i, e := range f.Servers {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("favorite %d: %w", i, err)
		}
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("%s:%d", e.Host, e.Port)
		}
		servers = append(servers, model.Server{
			Index:       i,
			Name:        name,
			Description: e.Description,
			Host:        e.Host,
			Port:        e.Port,
		})
	}
	return servers, nil
}

// Load reads the favorites file at path. A missing file is an empty list.
func Load(path string) ([]model.Server, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading favorites %q: %w", path, err)
	}
	servers, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return servers, nil
}

// Save writes servers to path, creating parent directories as needed.
//
// Postcondition: Load(path) returns servers re-indexed in slice order.
func Save(path string, servers []model.Server) error {
	f := file{Servers: make([]Entry, 0, len(servers))}
	for _, s := range servers {
		e := Entry{Name: s.Name, Description: s.Description, Host: s.Host, Port: s.Port}
		if err := e.Validate(); err != nil {
			return err
		}
		f.Servers = append(f.Servers, e)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating favorites directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing favorites %q: %w", path, err)
	}
	return nil
}

// Add appends srv to the favorites file at path unless an entry with the same
// address is already present.
//
// Postcondition: Returns the list as saved.
func Add(path string, srv model.Server) ([]model.Server, error) {
	servers, err := Load(path)
	if err != nil {
		return nil, err
	}
	for _, s := range servers {
		if s.Addr() == srv.Addr() {
			return servers, nil
		}
	}
	srv.Index = len(servers)
	servers = append(servers, srv)
	if err := Save(path, servers); err != nil {
		return nil, err
	}
	return servers, nil
}
