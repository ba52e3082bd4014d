package connection

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/vno/internal/vno/auth"
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// Directory is the channel to the master server.
type Directory struct {
	*Channel
}

// NewDirectory creates a disconnected directory channel.
func NewDirectory(opts Options) *Directory {
	opts.Role = model.RoleDirectory
	return &Directory{Channel: New(opts)}
}

// SendLoginRequest hashes password with h and sends the credentials.
//
// Precondition: h must be non-nil.
func (d *Directory) SendLoginRequest(ctx context.Context, h *auth.Hasher, login, password string) error {
	hash, err := h.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing credentials: %w", err)
	}
	return d.Send(ctx, protocol.Login(login, hash))
}

// SendServerRequest asks for the server list starting at index.
func (d *Directory) SendServerRequest(ctx context.Context, index int) error {
	return d.Send(ctx, protocol.ServerQuery(index))
}
