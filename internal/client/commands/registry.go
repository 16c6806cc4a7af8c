// Package commands implements the interactive client's command set
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"chesstral/internal/client/api"
	"chesstral/internal/client/display"
	"chesstral/internal/core"
)

// ErrExit is returned by the exit command; the caller ends its read loop
var ErrExit = errors.New("exit requested")

type Session interface {
	GetAPIBaseURL() string
	SetAPIBaseURL(string)
	GetCurrentSession() string
	SetCurrentSession(string)
	GetState() *core.SessionResponse
	SetState(*core.SessionResponse)
	GetClient() *api.Client
	IsVerbose() bool
	Writer() io.Writer
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(Session, []string) error
}

type Registry struct {
	session  Session
	commands map[string]*Command
}

// NewRegistry registers every client command against session
func NewRegistry(session Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerReviewCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Handler:     exitHandler,
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Lookup finds a command by name or short name
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Execute runs one input line. Only ErrExit is returned; other errors are
// printed.
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmdName := parts[0]
	args := parts[1:]
	w := r.session.Writer()

	cmd, exists := r.commands[cmdName]
	if !exists {
		fmt.Fprintf(w, "%sUnknown command: %s%s\n", display.Red, cmdName, display.Reset)
		fmt.Fprintf(w, "Type 'help' for available commands\n")
		return nil
	}

	r.session.GetClient().SetVerbose(r.session.IsVerbose())

	if err := cmd.Handler(r.session, args); err != nil {
		if errors.Is(err, ErrExit) {
			return err
		}
		fmt.Fprintf(w, "%sError: %s%s\n", display.Red, err.Error(), display.Reset)
	}
	return nil
}

func (r *Registry) helpHandler(s Session, args []string) error {
	w := s.Writer()
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(w, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(w, "Short form: %s%s%s\n", display.Cyan, cmd.ShortName, display.Reset)
		}
		fmt.Fprintf(w, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(w, "\n%sAvailable Commands:%s\n\n", display.Cyan, display.Reset)

	groups := []struct {
		title string
		names []string
	}{
		{"Session Commands", []string{"new", "join", "list", "delete", "start", "load", "reset", "side", "switch", "engine", "engines"}},
		{"Play Commands", []string{"move", "ai", "resign", "show", "state", "poll"}},
		{"Navigation Commands", []string{"goto", "next", "prev", "first", "last", "continue"}},
		{"Review Commands", []string{"eval", "opening", "comments", "review", "rate", "analyze", "svg"}},
		{"Utility Commands", []string{"health", "url", "raw", "clear", "help", "exit"}},
	}

	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s%s:%s\n", display.Yellow, g.title, display.Reset)
		for _, name := range g.names {
			cmd, exists := r.commands[name]
			if !exists {
				continue
			}
			shortPart := "    "
			if cmd.ShortName != "" {
				shortPart = fmt.Sprintf("[%s%s%s] ", display.Cyan, cmd.ShortName, display.Reset)
			}
			fmt.Fprintf(w, "  %s%-10s %s\n", shortPart, cmd.Name, cmd.Description)
		}
	}

	fmt.Fprintf(w, "\nType 'help <command>' for detailed usage\n")
	fmt.Fprintf(w, "Add '-v' to any command for verbose output\n")
	return nil
}

func exitHandler(s Session, args []string) error {
	fmt.Fprintf(s.Writer(), "%sGoodbye!%s\n", display.Cyan, display.Reset)
	return ErrExit
}
