// Package dispatch runs the single goroutine that applies queued commands to
// the session in arrival order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/command"
	"github.com/cory-johannsen/vno/internal/vno/queue"
)

// ErrHandlerPanic is returned by Run when a command handler panics.
var ErrHandlerPanic = errors.New("command handler panicked")

// Dispatcher drains a command queue into a Target.
type Dispatcher struct {
	q       *queue.Queue[command.Command]
	target  command.Target
	logger  *zap.Logger
	stopped atomic.Bool
	handled atomic.Int64
}

// New creates a Dispatcher.
//
// Precondition: q, target and logger must be non-nil.
func New(q *queue.Queue[command.Command], target command.Target, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{q: q, target: target, logger: logger}
}

// Run applies commands until Stop is called, ctx ends, or the queue is closed
// and drained. An interrupted wait is logged and retried.
//
// Postcondition: Returns nil on an orderly stop, or an error wrapping
// ErrHandlerPanic if a handler panicked.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Debug("dispatcher started")
	defer d.logger.Debug("dispatcher stopped", zap.Int64("handled", d.handled.Load()))

	for !d.stopped.Load() {
		cmd, err := d.q.Take(ctx)
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrInterrupted):
				if d.stopped.Load() {
					return nil
				}
				d.logger.Warn("dispatcher wait interrupted, retrying")
				continue
			case errors.Is(err, queue.ErrClosed):
				return nil
			default:
				d.logger.Debug("dispatcher context done", zap.Error(err))
				return nil
			}
		}
		if err := d.handle(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Stop asks Run to return after the command in progress, if any.
func (d *Dispatcher) Stop() {
	d.stopped.Store(true)
	d.q.Interrupt()
}

// Handled returns how many commands were applied.
func (d *Dispatcher) Handled() int64 {
	return d.handled.Load()
}

func (d *Dispatcher) handle(cmd command.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command handler panicked",
				zap.String("command", cmd.Name()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, cmd.Name(), r)
		}
	}()
	cmd.Handle(d.target)
	d.handled.Add(1)
	return nil
}
