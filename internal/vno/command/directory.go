package command

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// AuthResult is the directory's answer to a login request.
type AuthResult struct {
	Accepted bool
	Username string
	Reason   string
}

// Name implements Command.
func (c AuthResult) Name() string { return protocol.TypeAuthResult }

// Handle marks the session authenticated and advances it to server selection
// when the login was accepted. A rejection leaves the session in LOGIN.
func (c AuthResult) Handle(t Target) {
	if !c.Accepted {
		t.Logger().Warn("login rejected", zap.String("reason", c.Reason))
		t.SetAuthenticated(false)
		return
	}
	t.SetAuthenticated(true)
	if c.Username != "" {
		t.SetUsername(c.Username)
	}
	t.SetState(model.StateServerSelect)
	t.Logger().Info("login accepted", zap.String("username", c.Username))
}

// AddServer announces one directory entry.
type AddServer struct {
	Server model.Server
}

// Name implements Command.
func (c AddServer) Name() string { return protocol.TypeServer }

// Handle inserts the server at its display index.
func (c AddServer) Handle(t Target) {
	if err := t.AddServer(c.Server); err != nil {
		t.Logger().Warn("dropping server entry",
			zap.Int("index", c.Server.Index),
			zap.String("name", c.Server.Name),
			zap.Error(err),
		)
	}
}
