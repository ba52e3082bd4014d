package connection

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a request needs a live connection.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned when a channel is created or connected twice.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrInterrupted is returned when a send is abandoned because its context ended.
	ErrInterrupted = errors.New("send interrupted")
)

// Error describes a failed connection operation against one endpoint.
type Error struct {
	// Op is the operation or frame type that failed.
	Op string
	// Endpoint is the "host:port" of the remote side.
	Endpoint string
	Err      error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func interrupted(ctx context.Context, op string) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrInterrupted, ctx.Err()))
}
