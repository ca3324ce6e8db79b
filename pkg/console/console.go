package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/openfroyo/barista/pkg/machine"
	"github.com/openfroyo/barista/pkg/recipe"
	"github.com/openfroyo/barista/pkg/reservoir"
)

// DefaultPrompt is written before every command when prompting is enabled.
const DefaultPrompt = "barista> "

// ErrQuit is returned by Exec for the quit and exit commands.
var ErrQuit = errors.New("quit")

// Session reads line commands and drives one machine.
type Session struct {
	machine *machine.Machine
	in      io.Reader
	out     io.Writer
	logger  zerolog.Logger
	prompt  string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPrompt sets the prompt. An empty prompt disables prompting.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// New creates a session reading commands from in and writing to out.
func New(m *machine.Machine, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		machine: m,
		in:      in,
		out:     out,
		logger:  zerolog.Nop(),
		prompt:  DefaultPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes commands until EOF, quit, or ctx is done. Domain errors are
// printed and the session continues; only read and write failures are
// returned. A read blocked on in is abandoned, not interrupted, when ctx is
// done.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(s.out, `Type "help" for a list of commands.`)

	for {
		if s.prompt != "" {
			fmt.Fprint(s.out, s.prompt)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read command: %w", err)
					}
				default:
				}
				return nil
			}

			err := s.Exec(ctx, line)
			if errors.Is(err, ErrQuit) {
				fmt.Fprintln(s.out, "Bye!")
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

// Exec runs a single command line. It returns ErrQuit for quit and exit, a
// write error if output fails, and nil otherwise.
func (s *Session) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	s.logger.Debug().Str("command", cmd).Strs("args", args).Msg("Executing command")

	switch cmd {
	case "on":
		s.machine.PowerOn()
		return s.println("Coffee Machine is ON.")
	case "off":
		s.machine.PowerOff()
		return s.println("Coffee Machine is OFF.")
	case "brew":
		return s.brew(ctx, args)
	case "refill":
		return s.refill(ctx, args)
	case "status":
		return s.status()
	case "counts":
		return s.counts()
	case "recipes":
		return WriteRecipes(s.out)
	case "help", "?":
		return s.help()
	case "quit", "exit":
		return ErrQuit
	default:
		return s.printf("unknown command %q, type \"help\" for a list of commands\n", cmd)
	}
}

func (s *Session) brew(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.println("usage: brew <product>")
	}

	p, err := recipe.Parse(strings.Join(args, "_"))
	if err != nil {
		return s.printError(err)
	}

	msg, err := s.machine.Brew(ctx, p)
	if err != nil {
		return s.printError(err)
	}
	return s.println(msg)
}

func (s *Session) refill(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return s.println("usage: refill <water|beans|milk> <amount>")
	}

	kind, err := reservoir.ParseKind(args[0])
	if err != nil {
		return s.printError(err)
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return s.printError(fmt.Errorf("invalid amount %q", args[1]))
	}

	snap, err := s.machine.Refill(ctx, kind, amount)
	if err != nil {
		return s.printError(err)
	}
	return s.println(snap.String())
}

func (s *Session) status() error {
	return WriteStatus(s.out, s.machine.Status())
}

func (s *Session) counts() error {
	counts := s.machine.BrewCounts()
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, p := range recipe.Products() {
		fmt.Fprintf(tw, "%s\t%d\n", p, counts[p])
	}
	return tw.Flush()
}

func (s *Session) help() error {
	return s.println(strings.TrimSpace(`
Commands:
  on                         power the machine on
  off                        power the machine off
  brew <product>             brew one product, e.g. "brew double espresso"
  refill <resource> <amount> top up water (ml), beans (g) or milk (ml)
  status                     show power, levels and counters
  counts                     show how often each product was brewed
  recipes                    show the recipe table
  help                       show this help
  quit                       leave the session`))
}

// printError prints the user-facing message of err. Machine errors print
// their message without the code and request details.
func (s *Session) printError(err error) error {
	var merr *machine.Error
	if errors.As(err, &merr) {
		s.logger.Debug().Err(err).Msg("Command failed")
		return s.printf("error: %s\n", merr.Message)
	}
	return s.printf("error: %v\n", err)
}

func (s *Session) println(msg string) error {
	_, err := fmt.Fprintln(s.out, msg)
	return err
}

func (s *Session) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(s.out, format, args...)
	return err
}

// WriteRecipes writes the recipe table in aligned columns.
func WriteRecipes(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tWATER (ml)\tBEANS (g)\tMILK (ml)")
	for _, p := range recipe.Products() {
		r := p.Recipe()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p, r.Water, r.Beans, r.Milk)
	}
	return tw.Flush()
}

// WriteStatus writes power state, reservoir levels and non-zero counters.
func WriteStatus(w io.Writer, status machine.Status) error {
	power := "OFF"
	if status.PoweredOn {
		power = "ON"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "machine\t%s\n", status.Name)
	fmt.Fprintf(tw, "power\t%s\n", power)
	for _, r := range status.Reservoirs {
		fmt.Fprintf(tw, "%s\t%d/%d%s\n", r.Name, r.Level, r.Capacity, r.Unit)
	}
	for _, p := range recipe.Products() {
		if n := status.BrewCounts[p]; n > 0 {
			fmt.Fprintf(tw, "%s\t%d\n", p.Label(), n)
		}
	}
	return tw.Flush()
}
