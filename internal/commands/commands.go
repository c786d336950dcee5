package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
)

const prefix = "cmd "

var (
	ErrMissingCommand = errors.New("missing subcommand")
	ErrUnknownCommand = errors.New("unknown command")
)

// Command is a console subcommand with its own flags and a Run function.
// Flags are defined on FlagSet; Run is called after Parse and can read flag state.
type Command struct {
	Name    string
	Usage   string
	FlagSet *flag.FlagSet
	Run     func() error
}

// Registry holds subcommands by name. Add commands with Register; run with Execute.
type Registry struct {
	cmds map[string]*Command
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Command)}
}

// Register adds a subcommand. name is the first token after "cmd" (e.g. "postprocess").
// fs is that command's FlagSet; run is called after fs.Parse(args[1:]) succeeds.
// Flag errors are returned rather than printed or exiting.
func (r *Registry) Register(name, usage string, fs *flag.FlagSet, run func() error) {
	fs.Init(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	r.cmds[name] = &Command{Name: name, Usage: usage, FlagSet: fs, Run: run}
}

// Names returns the registered subcommands in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for n := range r.cmds {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Help returns one "name - usage" line per command.
func (r *Registry) Help() []string {
	var out []string
	for _, n := range r.Names() {
		out = append(out, n+" - "+r.cmds[n].Usage)
	}
	return out
}

// Parse interprets line as a console line. If line starts with "cmd " (case-sensitive),
// the rest is tokenized by spaces and returned with ok true. Otherwise nil, false.
func Parse(line string) (args []string, ok bool) {
	if !strings.HasPrefix(line, prefix) {
		return nil, false
	}
	rest := strings.TrimSpace(line[len(prefix):])
	if rest == "" {
		return nil, true
	}
	return strings.Fields(rest), true
}

// Execute runs the subcommand in args[0] with args[1:] as flag/positional arguments.
// Returns an error for unknown command, parse error, or from Run().
func (r *Registry) Execute(args []string) error {
	if len(args) == 0 {
		return ErrMissingCommand
	}
	name := args[0]
	cmd, ok := r.cmds[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	// flags keep their values between runs otherwise
	cmd.FlagSet.VisitAll(func(f *flag.Flag) { _ = f.Value.Set(f.DefValue) })
	if err := cmd.FlagSet.Parse(args[1:]); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return cmd.Run()
}
