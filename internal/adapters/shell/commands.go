package shell

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/serializer"
)

// commands builds a fresh command tree for one input line. Cobra keeps
// parsed flag state on the commands, so trees are not reused.
func (s *Shell) commands(exit *bool) *cobra.Command {
	root := &cobra.Command{
		Use:           "",
		Short:         "Chat with the recipe assistant. Lines that are not commands are sent as prompts.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(s.out)
	root.SetErr(s.out)
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		&cobra.Command{
			Use:   "say <prompt...>",
			Short: "Send a prompt to the model",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.say(cmd.Context(), strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "history",
			Short: "Show the conversation so far",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				WriteTranscript(cmd.OutOrStdout(), s.cfg.Chat.Messages())
				return nil
			},
		},
		s.recipesCommand(),
		&cobra.Command{
			Use:   "usage",
			Short: "Show tokens used in this session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				st := s.cfg.Chat.Stats()
				fmt.Fprintf(cmd.OutOrStdout(),
					"session %s: %d turns, %d messages, %d input / %d output tokens (%d total)\n",
					st.SessionID, st.Turns, st.Messages,
					st.Usage.InputTokens, st.Usage.OutputTokens, st.Usage.TotalTokens)
				if s.cfg.Rate != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "recent rate: %.0f tokens/min\n", s.cfg.Rate())
				}
				if s.cfg.Speed != nil {
					if ms := s.cfg.Speed(); ms > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "generation speed: %.1f ms/token\n", ms)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "prompt",
			Short: "Print the active system prompt",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), s.cfg.Chat.SystemPrompt())
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Start a new conversation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s.cfg.Chat.Reset()
				fmt.Fprintf(cmd.OutOrStdout(), "Started a new conversation (session %s).\n", s.cfg.Chat.ID())
				return nil
			},
		},
		&cobra.Command{
			Use:     "exit",
			Aliases: []string{"quit"},
			Short:   "Leave the session",
			Args:    cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				*exit = true
				return nil
			},
		},
	)
	root.InitDefaultHelpCmd()
	return root
}

func (s *Shell) recipesCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List recipes sent so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if s.cfg.Recipes == nil {
				return fmt.Errorf("recipe storage is not available")
			}
			f, err := serializer.ParseFormat(format)
			if err != nil {
				return err
			}
			recs, err := s.cfg.Recipes.ListRecipes()
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recipes yet.")
				return nil
			}
			rows := make([]recipeRow, 0, len(recs))
			for _, r := range recs {
				rows = append(rows, recipeRow{
					Stem:    r.Stem,
					Title:   r.Title,
					Files:   len(r.Files),
					Created: r.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			return serializer.NewWriter(f, cmd.OutOrStdout()).Serialize(cmd.Context(), rows)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(serializer.FormatTable),
		fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")))
	return cmd
}

type recipeRow struct {
	Stem    string `json:"stem" yaml:"stem"`
	Title   string `json:"title" yaml:"title"`
	Files   int    `json:"files" yaml:"files"`
	Created string `json:"created" yaml:"created"`
}
