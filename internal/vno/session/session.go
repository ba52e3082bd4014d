// Package session implements the client-side VNO session: identity and phase
// state, the two connection channels, the mirrored entity stores, and the
// dispatcher that applies server commands in arrival order.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/auth"
	"github.com/cory-johannsen/vno/internal/vno/command"
	"github.com/cory-johannsen/vno/internal/vno/connection"
	"github.com/cory-johannsen/vno/internal/vno/dispatch"
	"github.com/cory-johannsen/vno/internal/vno/model"
	"github.com/cory-johannsen/vno/internal/vno/queue"
	"github.com/cory-johannsen/vno/internal/vno/scene"
	"github.com/cory-johannsen/vno/internal/vno/store"
)

var (
	// ErrCharacterNotFound is returned when no roster character has the requested name.
	ErrCharacterNotFound = errors.New("character not found")
	// ErrNoCharacter is returned by actions that need a controlled character.
	ErrNoCharacter = errors.New("no character selected")
	// ErrAlreadyStarted is returned by Start when the dispatcher is running.
	ErrAlreadyStarted = errors.New("session already started")
)

// Config wires a Session to its collaborators.
type Config struct {
	// MasterAddr is the directory server "host:port".
	MasterAddr string
	Transport  connection.Transport
	// HashAlgorithm selects the credential hash; empty means auth.DefaultAlgorithm.
	HashAlgorithm string
	// Version is announced in every hello frame.
	Version   string
	Presenter scene.Presenter
	// OnStateChange, when set, is called from the dispatcher goroutine after
	// every phase transition.
	OnStateChange func(from, to model.SessionState)
	Logger        *zap.Logger
}

// Session is one player's connection to the VNO network. All methods are safe
// for concurrent use. Server-originated mutations are applied only by the
// dispatcher goroutine.
type Session struct {
	id     uuid.UUID
	cfg    Config
	logger *zap.Logger

	queue      *queue.Queue[command.Command]
	dispatcher *dispatch.Dispatcher
	stage      *scene.Stage

	chanMu    sync.Mutex
	directory *connection.Directory
	game      *connection.Game

	idMu          sync.RWMutex
	state         model.SessionState
	authenticated bool
	username      string
	mod           bool
	current       *model.Character
	players       int
	playerLimit   int
	nowPlaying    string

	areas      *store.Store[*model.Area]
	characters *store.Store[*model.Character]
	items      *store.Store[*model.Item]
	tracks     *store.Store[*model.Track]
	servers    *store.ServerList

	runMu   sync.Mutex
	started bool
	done    chan struct{}
	runErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a Session in the LOGIN state with no channels.
//
// Precondition: cfg.Transport must be non-nil.
// Postcondition: The dispatcher is not running until Start is called.
func New(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Presenter == nil {
		cfg.Presenter = scene.Discard
	}
	if cfg.HashAlgorithm == "" {
		cfg.HashAlgorithm = auth.DefaultAlgorithm
	}
	id := uuid.New()
	s := &Session{
		id:         id,
		cfg:        cfg,
		logger:     cfg.Logger.With(zap.String("session", id.String())),
		queue:      queue.New[command.Command](),
		stage:      scene.NewStage(),
		state:      model.StateLogin,
		areas:      store.New[*model.Area]("area"),
		characters: store.New[*model.Character]("character"),
		items:      store.New[*model.Item]("item"),
		tracks:     store.New[*model.Track]("track"),
		servers:    store.NewServerList(),
		done:       make(chan struct{}),
	}
	s.dispatcher = dispatch.New(s.queue, s, s.logger)
	return s
}

// ID returns the session identifier sent as the client ID in hello frames.
func (s *Session) ID() string { return s.id.String() }

// Start runs the dispatcher on its own goroutine until Stop, Close, or ctx ends.
//
// Postcondition: Returns ErrAlreadyStarted on a second call.
func (s *Session) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	go func() {
		err := s.dispatcher.Run(ctx)
		s.runMu.Lock()
		s.runErr = err
		s.runMu.Unlock()
		close(s.done)
	}()
	s.logger.Info("session started")
	return nil
}

// Run starts the dispatcher and blocks until it ends.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-s.done
	return s.Err()
}

// Done is closed when the dispatcher has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the error that ended the dispatcher, if any.
func (s *Session) Err() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.runErr
}

// Stop ends the dispatcher after the command in progress and waits for it.
// Commands still queued are kept. Stop on a session never started is a no-op.
func (s *Session) Stop() error {
	s.runMu.Lock()
	started := s.started
	s.runMu.Unlock()
	if !started {
		return nil
	}
	s.dispatcher.Stop()
	<-s.done
	return s.Err()
}

// Submit enqueues a caller-originated command behind every server command
// already queued.
//
// Postcondition: Returns false if the session is closed and cmd was dropped.
func (s *Session) Submit(cmd command.Command) bool {
	return s.queue.Push(cmd)
}

// Close stops the dispatcher and closes both channels. Close is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.Stop(); err != nil {
			errs = append(errs, err)
		}
		s.chanMu.Lock()
		dir, game := s.directory, s.game
		s.chanMu.Unlock()
		if game != nil {
			if err := game.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing game channel: %w", err))
			}
		}
		if dir != nil {
			if err := dir.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing directory channel: %w", err))
			}
		}
		s.queue.Close()
		s.closeErr = errors.Join(errs...)
		s.logger.Info("session closed")
	})
	return s.closeErr
}

// Logger implements command.Target.
func (s *Session) Logger() *zap.Logger { return s.logger }

// Stage implements command.Target.
func (s *Session) Stage() *scene.Stage { return s.stage }

// Presenter implements command.Target.
func (s *Session) Presenter() scene.Presenter { return s.cfg.Presenter }
