package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/vno/internal/vno/connection"
	"github.com/cory-johannsen/vno/internal/vno/favorites"
	"github.com/cory-johannsen/vno/internal/vno/model"
)

// ErrQuit is returned by Execute when the player asks to leave.
var ErrQuit = errors.New("quit")

// ErrNoFavorites is returned by favorites commands when no file is configured.
var ErrNoFavorites = errors.New("no favorites file configured")

// Client is the session surface the console drives.
type Client interface {
	ConnectToMaster(ctx context.Context) error
	ConnectToServer(ctx context.Context, srv model.Server) error
	Authenticate(ctx context.Context, login, password string) error
	RequestServers(ctx context.Context) error
	RequestAreas(ctx context.Context) error
	RequestCharacters(ctx context.Context) error
	RequestItems(ctx context.Context) error
	RequestTracks(ctx context.Context) error
	PickCharacter(ctx context.Context, c *model.Character, password string) error
	SendICMessage(ctx context.Context, box model.BoxName, spriteName, message string, color model.MessageColor, background string, position model.SpritePosition, flip model.SpriteFlip, sfx string) error
	PlayTrack(ctx context.Context, t *model.Track, looping model.LoopingStatus) error
	GetMod(ctx context.Context, password string) error

	State() model.SessionState
	Username() string
	IsMod() bool
	CurrentCharacter() *model.Character
	PlayerCount() (players, limit int)
	NowPlaying() string
	DirectoryStatus() connection.Status
	GameStatus() connection.Status

	Servers() []model.Server
	Server(i int) (model.Server, bool)
	Areas() []*model.Area
	Characters() []*model.Character
	Tracks() []*model.Track
	Character(id int) (*model.Character, bool)
	CharacterByName(name string) (*model.Character, error)
	Track(id int) (*model.Track, bool)
	TrackByName(name string) (*model.Track, bool)
}

// Printer receives console output lines.
type Printer interface {
	Printf(format string, args ...any)
}

// Options configures a Console.
type Options struct {
	Client Client
	In     io.Reader
	Out    Printer
	// FavoritesPath is the favorites file; empty disables favorites.
	FavoritesPath string
	Logger        *zap.Logger
}

// speech holds the player's message settings.
type speech struct {
	box        model.BoxName
	sprite     string
	color      model.MessageColor
	background string
	position   model.SpritePosition
	flip       model.SpriteFlip
}

type handlerFunc func(c *Console, ctx context.Context, p ParseResult) error

// handlers maps every Handler identifier to its action.
// To add a command: add it to BuiltinCommands AND add an entry here.
var handlers = map[string]handlerFunc{
	HandlerConnect:   (*Console).connect,
	HandlerLogin:     (*Console).login,
	HandlerServers:   (*Console).servers,
	HandlerJoin:      (*Console).join,
	HandlerFavorites: (*Console).listFavorites,
	HandlerChars:     (*Console).chars,
	HandlerAreas:     (*Console).areas,
	HandlerTracks:    (*Console).tracks,
	HandlerPick:      (*Console).pick,
	HandlerSay:       (*Console).say,
	HandlerPos:       (*Console).setPosition,
	HandlerColor:     (*Console).setColor,
	HandlerBg:        (*Console).setBackground,
	HandlerSprite:    (*Console).setSprite,
	HandlerFlip:      (*Console).setFlip,
	HandlerBox:       (*Console).setBox,
	HandlerPlay:      (*Console).play,
	HandlerMod:       (*Console).mod,
	HandlerStatus:    (*Console).status,
	HandlerHelp:      (*Console).help,
	HandlerQuit:      (*Console).quit,
}

// Console reads command lines and drives a Client.
type Console struct {
	client        Client
	in            io.Reader
	out           Printer
	registry      *Registry
	favoritesPath string
	logger        *zap.Logger

	mu     sync.Mutex
	speech speech
	ctx    context.Context
	// background tracks roster and server-list fetches started on state changes.
	background sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Console.
//
// Precondition: opts.Client, opts.In and opts.Out must be non-nil.
func New(opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{
		client:        opts.Client,
		in:            opts.In,
		out:           opts.Out,
		registry:      DefaultRegistry(),
		favoritesPath: opts.FavoritesPath,
		logger:        logger,
		speech:        speech{position: model.PositionCenter},
		ctx:           context.Background(),
		stop:          make(chan struct{}),
	}
}

// Start reads lines until input ends, the player quits, Stop is called, or
// ctx ends. Command errors are printed and reading continues.
func (c *Console) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-c.stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.out.Printf("Type 'help' for commands.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stop:
			return nil
		case err := <-readErr:
			c.background.Wait()
			if err != nil {
				return fmt.Errorf("reading console input: %w", err)
			}
			return nil
		case line := <-lines:
			err := c.Execute(ctx, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				c.out.Printf("error: %v", err)
			}
		}
	}
}

// Stop ends Start. Stop is idempotent.
func (c *Console) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Execute runs one command line.
//
// Postcondition: Returns ErrQuit for the quit command, or the command's error.
func (c *Console) Execute(ctx context.Context, line string) error {
	p := Parse(line)
	if p.Command == "" {
		return nil
	}
	cmd, ok := c.registry.Resolve(p.Command)
	if !ok {
		return fmt.Errorf("unknown command %q, try 'help'", p.Command)
	}
	c.logger.Debug("console command", zap.String("command", cmd.Name), zap.Int("args", len(p.Args)))
	return handlers[cmd.Handler](c, ctx, p)
}

// StateChanged reports a session phase change and starts the fetches the new
// phase needs. The roster is fetched only when character selection is first
// reached, not when a character is released. It does not block; it is called on the dispatcher goroutine.
func (c *Console) StateChanged(from, to model.SessionState) {
	c.out.Printf("-- %s --", to)
	switch to {
	case model.StateServerSelect:
		c.goFetch("server list", c.client.RequestServers)
	case model.StateCharacterSelect:
		if from == model.StatePlaying {
			// Released back to selection; the roster is already cached.
			return
		}
		c.goFetch("roster",
			c.client.RequestCharacters,
			c.client.RequestAreas,
			c.client.RequestItems,
			c.client.RequestTracks,
		)
	case model.StatePlaying:
		if char := c.client.CurrentCharacter(); char != nil {
			c.out.Printf("You are now %s.", char.ShowName())
		}
	case model.StateDisconnected:
		c.out.Printf("Disconnected.")
	}
}

func (c *Console) goFetch(what string, requests ...func(context.Context) error) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		for _, req := range requests {
			if err := req(ctx); err != nil {
				c.logger.Warn("fetch failed", zap.String("what", what), zap.Error(err))
				c.out.Printf("error: fetching %s: %v", what, err)
				return
			}
		}
	}()
}

func (c *Console) connect(ctx context.Context, _ ParseResult) error {
	if err := c.client.ConnectToMaster(ctx); err != nil {
		return err
	}
	c.out.Printf("Connected to the master server.")
	return nil
}

func (c *Console) login(ctx context.Context, p ParseResult) error {
	if len(p.Args) != 2 {
		return c.usage("login")
	}
	if err := c.client.Authenticate(ctx, p.Args[0], p.Args[1]); err != nil {
		return err
	}
	c.out.Printf("Login sent.")
	return nil
}

func (c *Console) servers(ctx context.Context, p ParseResult) error {
	if len(p.Args) == 1 && p.Args[0] == "refresh" {
		return c.client.RequestServers(ctx)
	}
	list := c.client.Servers()
	if len(list) == 0 {
		c.out.Printf("No servers listed yet.")
		return nil
	}
	for _, s := range list {
		c.out.Printf("%3d. %s", s.Index, s)
	}
	return nil
}

func (c *Console) join(ctx context.Context, p ParseResult) error {
	var srv model.Server
	switch {
	case len(p.Args) == 1:
		n, err := strconv.Atoi(p.Args[0])
		if err != nil {
			return c.usage("join")
		}
		s, ok := c.client.Server(n)
		if !ok {
			return fmt.Errorf("no server %d", n)
		}
		srv = s
	case len(p.Args) == 2 && p.Args[0] == "fav":
		s, err := c.favorite(p.Args[1])
		if err != nil {
			return err
		}
		srv = s
	default:
		return c.usage("join")
	}
	if err := c.client.ConnectToServer(ctx, srv); err != nil {
		return err
	}
	c.out.Printf("Joined %s.", srv.Name)
	return nil
}

func (c *Console) favorite(arg string) (model.Server, error) {
	if c.favoritesPath == "" {
		return model.Server{}, ErrNoFavorites
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.Server{}, fmt.Errorf("favorite %q: not a number", arg)
	}
	list, err := favorites.Load(c.favoritesPath)
	if err != nil {
		return model.Server{}, err
	}
	if n < 0 || n >= len(list) {
		return model.Server{}, fmt.Errorf("no favorite %d", n)
	}
	return list[n], nil
}

func (c *Console) listFavorites(_ context.Context, p ParseResult) error {
	if c.favoritesPath == "" {
		return ErrNoFavorites
	}
	if len(p.Args) == 2 && p.Args[0] == "add" {
		n, err := strconv.Atoi(p.Args[1])
		if err != nil {
			return c.usage("favorites")
		}
		srv, ok := c.client.Server(n)
		if !ok {
			return fmt.Errorf("no server %d", n)
		}
		if _, err := favorites.Add(c.favoritesPath, srv); err != nil {
			return err
		}
		c.out.Printf("Saved %s.", srv.Name)
		return nil
	}
	if len(p.Args) != 0 {
		return c.usage("favorites")
	}
	list, err := favorites.Load(c.favoritesPath)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.out.Printf("No favorites.")
	}
	for _, s := range list {
		c.out.Printf("%3d. %s", s.Index, s)
	}
	return nil
}

func (c *Console) chars(context.Context, ParseResult) error {
	current := c.client.CurrentCharacter()
	for _, ch := range c.client.Characters() {
		mark := ""
		switch {
		case current != nil && ch.ID == current.ID:
			mark = " (you)"
		case ch.Taken:
			mark = " (taken)"
		}
		c.out.Printf("%3d. %s%s", ch.ID, ch.ShowName(), mark)
	}
	return nil
}

func (c *Console) areas(context.Context, ParseResult) error {
	for _, a := range c.client.Areas() {
		c.out.Printf("%3d. %s", a.ID, a.Name)
	}
	return nil
}

func (c *Console) tracks(context.Context, ParseResult) error {
	playing := c.client.NowPlaying()
	for _, t := range c.client.Tracks() {
		mark := ""
		if t.Name == playing {
			mark = " (playing)"
		}
		c.out.Printf("%3d. %s%s", t.ID, t.Name, mark)
	}
	return nil
}

func (c *Console) pick(ctx context.Context, p ParseResult) error {
	if len(p.Args) == 0 || len(p.Args) > 2 {
		return c.usage("pick")
	}
	var char *model.Character
	if id, err := strconv.Atoi(p.Args[0]); err == nil {
		ch, ok := c.client.Character(id)
		if !ok {
			return fmt.Errorf("no character %d", id)
		}
		char = ch
	} else {
		ch, err := c.client.CharacterByName(p.Args[0])
		if err != nil {
			return err
		}
		char = ch
	}
	password := ""
	if len(p.Args) == 2 {
		password = p.Args[1]
	}
	return c.client.PickCharacter(ctx, char, password)
}

func (c *Console) say(ctx context.Context, p ParseResult) error {
	if p.RawArgs == "" {
		return c.usage("say")
	}
	c.mu.Lock()
	s := c.speech
	c.mu.Unlock()
	return c.client.SendICMessage(ctx, s.box, s.sprite, p.RawArgs, s.color, s.background, s.position, s.flip, "")
}

func (c *Console) setPosition(_ context.Context, p ParseResult) error {
	if len(p.Args) != 1 {
		return c.usage("pos")
	}
	pos, err := model.ParseSpritePosition(strings.ToLower(p.Args[0]))
	if err != nil {
		return err
	}
	c.updateSpeech(func(s *speech) { s.position = pos })
	c.out.Printf("Position: %s.", pos)
	return nil
}

func (c *Console) setColor(_ context.Context, p ParseResult) error {
	if len(p.Args) != 1 {
		return c.usage("color")
	}
	color, err := model.ParseMessageColor(strings.ToLower(p.Args[0]))
	if err != nil {
		return err
	}
	c.updateSpeech(func(s *speech) { s.color = color })
	c.out.Printf("Colour: %s.", color)
	return nil
}

func (c *Console) setBackground(_ context.Context, p ParseResult) error {
	c.updateSpeech(func(s *speech) { s.background = p.RawArgs })
	c.out.Printf("Background: %q.", p.RawArgs)
	return nil
}

func (c *Console) setSprite(_ context.Context, p ParseResult) error {
	c.updateSpeech(func(s *speech) { s.sprite = p.RawArgs })
	c.out.Printf("Sprite: %q.", p.RawArgs)
	return nil
}

func (c *Console) setFlip(_ context.Context, p ParseResult) error {
	var flip model.SpriteFlip
	switch {
	case len(p.Args) == 0:
		c.mu.Lock()
		flip = model.FlipFlipped
		if c.speech.flip == model.FlipFlipped {
			flip = model.FlipNormal
		}
		c.mu.Unlock()
	case p.Args[0] == "on":
		flip = model.FlipFlipped
	case p.Args[0] == "off":
		flip = model.FlipNormal
	default:
		return c.usage("flip")
	}
	c.updateSpeech(func(s *speech) { s.flip = flip })
	c.out.Printf("Sprite %s.", flip)
	return nil
}

func (c *Console) setBox(_ context.Context, p ParseResult) error {
	if len(p.Args) != 1 {
		return c.usage("box")
	}
	box, err := model.ParseBoxName(strings.ToLower(p.Args[0]))
	if err != nil {
		return err
	}
	c.updateSpeech(func(s *speech) { s.box = box })
	c.out.Printf("Box name: %s.", box)
	return nil
}

func (c *Console) updateSpeech(fn func(*speech)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.speech)
}

func (c *Console) play(ctx context.Context, p ParseResult) error {
	if p.RawArgs == "" {
		return c.usage("play")
	}
	name := p.RawArgs
	looping := model.NotLooping
	if trimmed, ok := strings.CutSuffix(name, " loop"); ok {
		name = strings.TrimSpace(trimmed)
		looping = model.Looping
	}
	track, ok := c.client.TrackByName(name)
	if !ok {
		id, err := strconv.Atoi(name)
		if err == nil {
			track, ok = c.client.Track(id)
		}
	}
	if !ok {
		return fmt.Errorf("no track %q", name)
	}
	return c.client.PlayTrack(ctx, track, looping)
}

func (c *Console) mod(ctx context.Context, p ParseResult) error {
	if len(p.Args) != 1 {
		return c.usage("mod")
	}
	return c.client.GetMod(ctx, p.Args[0])
}

func (c *Console) status(context.Context, ParseResult) error {
	c.out.Printf("State:     %s", c.client.State())
	c.out.Printf("Master:    %s", c.client.DirectoryStatus())
	c.out.Printf("Game:      %s", c.client.GameStatus())
	if user := c.client.Username(); user != "" {
		c.out.Printf("User:      %s", user)
	}
	if char := c.client.CurrentCharacter(); char != nil {
		c.out.Printf("Character: %s", char.ShowName())
	}
	if players, limit := c.client.PlayerCount(); limit > 0 {
		c.out.Printf("Players:   %d/%d", players, limit)
	}
	if track := c.client.NowPlaying(); track != "" {
		c.out.Printf("Playing:   %s", track)
	}
	if c.client.IsMod() {
		c.out.Printf("Moderator: yes")
	}
	return nil
}

func (c *Console) help(_ context.Context, p ParseResult) error {
	if len(p.Args) == 1 {
		cmd, ok := c.registry.Resolve(strings.ToLower(p.Args[0]))
		if !ok {
			return fmt.Errorf("unknown command %q", p.Args[0])
		}
		c.out.Printf("%s %s - %s", cmd.Name, cmd.Usage, cmd.Help)
		if len(cmd.Aliases) > 0 {
			c.out.Printf("aliases: %s", strings.Join(cmd.Aliases, ", "))
		}
		return nil
	}
	category := ""
	for _, cmd := range c.registry.Commands() {
		if cmd.Category != category {
			category = cmd.Category
			c.out.Printf("%s:", category)
		}
		c.out.Printf("  %-10s %s", cmd.Name, cmd.Help)
	}
	return nil
}

func (c *Console) quit(context.Context, ParseResult) error {
	return ErrQuit
}

func (c *Console) usage(name string) error {
	cmd, ok := c.registry.Resolve(name)
	if !ok {
		return fmt.Errorf("usage: %s", name)
	}
	return fmt.Errorf("usage: %s %s", cmd.Name, cmd.Usage)
}
