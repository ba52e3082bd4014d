package console

import (
	"fmt"
	"sort"
	"strings"
)

// Categories for organizing commands.
const (
	CategoryDirectory = "directory"
	CategoryRoster    = "roster"
	CategorySpeech    = "speech"
	CategorySystem    = "system"
)

// Handler identifiers mapping commands to console actions.
const (
	HandlerConnect   = "connect"
	HandlerLogin     = "login"
	HandlerServers   = "servers"
	HandlerJoin      = "join"
	HandlerFavorites = "favorites"
	HandlerChars     = "chars"
	HandlerAreas     = "areas"
	HandlerTracks    = "tracks"
	HandlerPick      = "pick"
	HandlerSay       = "say"
	HandlerPos       = "pos"
	HandlerColor     = "color"
	HandlerBg        = "bg"
	HandlerSprite    = "sprite"
	HandlerFlip      = "flip"
	HandlerBox       = "box"
	HandlerPlay      = "play"
	HandlerMod       = "mod"
	HandlerStatus    = "status"
	HandlerHelp      = "help"
	HandlerQuit      = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the arguments, without the command name.
	Usage string
	// Help is the short help text.
	Help     string
	Category string
	// Handler selects the console action.
	Handler string
}

// BuiltinCommands returns every console command.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "connect", Aliases: []string{"c"}, Help: "Connect to the master server", Category: CategoryDirectory, Handler: HandlerConnect},
		{Name: "login", Usage: "<user> <password>", Help: "Log in to the master server", Category: CategoryDirectory, Handler: HandlerLogin},
		{Name: "servers", Aliases: []string{"ls"}, Usage: "[refresh]", Help: "List game servers, or fetch the list again", Category: CategoryDirectory, Handler: HandlerServers},
		{Name: "join", Aliases: []string{"j"}, Usage: "<n> | fav <n>", Help: "Join a listed or favorite server", Category: CategoryDirectory, Handler: HandlerJoin},
		{Name: "favorites", Aliases: []string{"fav"}, Usage: "[add <n>]", Help: "List favorite servers, or save listed server n", Category: CategoryDirectory, Handler: HandlerFavorites},

		{Name: "chars", Aliases: []string{"characters"}, Help: "List the character roster", Category: CategoryRoster, Handler: HandlerChars},
		{Name: "areas", Help: "List the server's areas", Category: CategoryRoster, Handler: HandlerAreas},
		{Name: "tracks", Aliases: []string{"music"}, Help: "List the server's tracks", Category: CategoryRoster, Handler: HandlerTracks},
		{Name: "pick", Aliases: []string{"p"}, Usage: "<name|id> [password]", Help: "Take control of a character", Category: CategoryRoster, Handler: HandlerPick},
		{Name: "play", Usage: "<track> [loop]", Help: "Play a track", Category: CategoryRoster, Handler: HandlerPlay},

		{Name: "say", Aliases: []string{"'"}, Usage: "<text>", Help: "Speak in character", Category: CategorySpeech, Handler: HandlerSay},
		{Name: "pos", Aliases: []string{"position"}, Usage: "left|center|right", Help: "Set your sprite position", Category: CategorySpeech, Handler: HandlerPos},
		{Name: "color", Aliases: []string{"colour"}, Usage: "<name>", Help: "Set your text colour", Category: CategorySpeech, Handler: HandlerColor},
		{Name: "bg", Aliases: []string{"background"}, Usage: "[name]", Help: "Set or clear your background", Category: CategorySpeech, Handler: HandlerBg},
		{Name: "sprite", Aliases: []string{"emote"}, Usage: "[name]", Help: "Set or clear your sprite", Category: CategorySpeech, Handler: HandlerSprite},
		{Name: "flip", Usage: "[on|off]", Help: "Mirror your sprite", Category: CategorySpeech, Handler: HandlerFlip},
		{Name: "box", Usage: "character|mystery|username", Help: "Choose the name shown above your text", Category: CategorySpeech, Handler: HandlerBox},

		{Name: "mod", Usage: "<password>", Help: "Request moderator status", Category: CategorySystem, Handler: HandlerMod},
		{Name: "status", Aliases: []string{"st"}, Help: "Show session status", Category: CategorySystem, Handler: HandlerStatus},
		{Name: "help", Aliases: []string{"?"}, Usage: "[command]", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Leave the client", Category: CategorySystem, Handler: HandlerQuit},
	}
}

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	commands map[string]*Command // canonical name → command
	aliases  map[string]string   // alias → canonical name
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}
	for i := range cmds {
		cmd := &cmds[i]
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("duplicate command name: %q", cmd.Name)
		}
		if _, exists := r.aliases[cmd.Name]; exists {
			return nil, fmt.Errorf("command name %q conflicts with an existing alias", cmd.Name)
		}
		r.commands[cmd.Name] = cmd

		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with command name %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, cmd.Name)
			}
			r.aliases[alias] = cmd.Name
		}
	}
	return r, nil
}

// DefaultRegistry creates a Registry with all built-in commands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias.
func (r *Registry) Resolve(input string) (*Command, bool) {
	if cmd, ok := r.commands[input]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[input]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Commands returns all registered commands sorted by category then name.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the text after the command with its inner spacing kept.
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}
	spaceIdx := strings.IndexByte(line, ' ')
	if spaceIdx < 0 {
		return ParseResult{Command: strings.ToLower(line)}
	}

	rest := strings.TrimSpace(line[spaceIdx+1:])
	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}
	return ParseResult{
		Command: strings.ToLower(line[:spaceIdx]),
		Args:    args,
		RawArgs: rest,
	}
}
