// Package shell is the interactive front end: a line-editing loop whose lines
// are either shell commands (parsed with cobra) or prompts for the model.
package shell

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/domain/conversation"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

// Chat is the conversation the shell drives.
type Chat interface {
	Say(ctx context.Context, prompt string) error
	Messages() []ports.Message
	Stats() conversation.Stats
	SystemPrompt() string
	Model() string
	ID() string
	Reset()
}

// RecipeLister lists saved recipes. ports.Storage satisfies it.
type RecipeLister interface {
	ListRecipes() ([]*ports.RecipeRecord, error)
}

// LineReader reads one edited line at a time. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Config holds initialization parameters for a Shell.
type Config struct {
	Chat    Chat
	Recipes RecipeLister // optional
	Reader  LineReader

	// Persist is called after every successful say. Optional.
	Persist func() error

	// Rate reports recent tokens per minute for the usage command. Optional.
	Rate func() float64

	// Speed reports median generation speed in ms per output token, 0 when
	// there are too few replies to tell. Optional.
	Speed func() float64

	// Out receives command output. Default os.Stdout.
	Out io.Writer
}

// Shell runs the read-eval loop.
type Shell struct {
	cfg Config
	out io.Writer
}

// New creates a Shell.
func New(cfg Config) *Shell {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Shell{cfg: cfg, out: out}
}

// NewTerminal opens a readline terminal with persistent history.
func NewTerminal(historyFile string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

const prompt = "> "

// Run reads lines until exit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	defer s.cfg.Reader.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(s.out, "[%s]\n", s.cfg.Chat.Model())
		s.cfg.Reader.SetPrompt(prompt)

		line, err := s.cfg.Reader.Readline()
		switch {
		case stderrors.Is(err, readline.ErrInterrupt):
			continue
		case stderrors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		exit, err := s.Exec(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				// interrupted mid-request
				return nil
			}
			s.printError(err)
			continue
		}
		if exit {
			return nil
		}
	}
}

// Exec runs one input line. exit reports that the user asked to leave.
// A line runs as a command only when its first word names one and that
// command accepts the rest of the line; anything else is a prompt.
func (s *Shell) Exec(ctx context.Context, line string) (exit bool, err error) {
	root := s.commands(&exit)

	first, rest, _ := strings.Cut(line, " ")
	args, perr := shlex.Split(line)
	if perr != nil {
		if first != "say" {
			// unbalanced quotes read as prose ("who's cooking")
			return false, s.say(ctx, line)
		}
		// prompts may contain lone quotes
		args = []string{first, strings.TrimSpace(rest)}
	}

	if !accepts(s.commands(new(bool)), args) {
		return false, s.say(ctx, line)
	}

	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return false, err
	}
	return exit, nil
}

// accepts reports whether args resolve to a command whose flags parse and
// whose positional arguments validate. tree is discarded afterwards since
// parsing leaves flag state behind.
func accepts(tree *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return false
	}
	cmd, rest, err := tree.Find(args)
	if err != nil || cmd == tree {
		return false
	}
	if cmd.Name() == "say" {
		return true
	}
	cmd.InitDefaultHelpFlag()
	if err := cmd.ParseFlags(rest); err != nil {
		return false
	}
	pos := cmd.Flags().Args()
	if cmd.Name() == "help" {
		if len(pos) == 0 {
			return true
		}
		topic, _, err := tree.Find(pos)
		return err == nil && topic != tree && len(pos) == 1
	}
	return cmd.ValidateArgs(pos) == nil
}

// say sends a prompt and persists the session on success.
func (s *Shell) say(ctx context.Context, prompt string) error {
	if err := s.cfg.Chat.Say(ctx, prompt); err != nil {
		return err
	}
	if s.cfg.Persist != nil {
		if err := s.cfg.Persist(); err != nil {
			slog.Warn("failed to save session", "session", s.cfg.Chat.ID(), "error", err)
		}
	}
	return nil
}

func (s *Shell) printError(err error) {
	switch errors.CodeOf(err) {
	case errors.ErrCodeRateLimitExceeded:
		fmt.Fprintln(s.out, "The model is busy, try again in a moment.")
	case errors.ErrCodeUnauthorized:
		fmt.Fprintln(s.out, "Access denied: check your AWS credentials and model access.")
	}
	fmt.Fprintf(s.out, "error: %v\n", err)
}
