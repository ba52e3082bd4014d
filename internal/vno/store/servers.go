package store

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

// ServerList is the ordered list of directory entries. Entries are inserted at
// their display index, shifting later entries; the list is never compacted.
// All methods are safe for concurrent use.
type ServerList struct {
	mu      sync.RWMutex
	servers []model.Server
}

// NewServerList creates an empty ServerList.
func NewServerList() *ServerList {
	return &ServerList{}
}

// Insert places srv at srv.Index.
//
// Precondition: 0 <= srv.Index <= Len().
// Postcondition: srv is at position srv.Index, or ErrOutOfRange is returned.
func (l *ServerList) Insert(srv model.Server) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if srv.Index < 0 || srv.Index > len(l.servers) {
		return fmt.Errorf("server index %d: %w (length %d)", srv.Index, ErrOutOfRange, len(l.servers))
	}
	l.servers = append(l.servers, model.Server{})
	copy(l.servers[srv.Index+1:], l.servers[srv.Index:])
	l.servers[srv.Index] = srv
	return nil
}

// At returns the server at position i.
func (l *ServerList) At(i int) (model.Server, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.servers) {
		return model.Server{}, false
	}
	return l.servers[i], true
}

// Len returns the number of entries.
func (l *ServerList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.servers)
}

// Snapshot returns a copy of the entries in list order.
func (l *ServerList) Snapshot() []model.Server {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Server, len(l.servers))
	copy(out, l.servers)
	return out
}
