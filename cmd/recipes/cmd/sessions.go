package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/adapters/bbolt"
	"github.com/corey/gourmand/internal/adapters/shell"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/serializer"
)

type sessionRow struct {
	ID       string    `json:"id"`
	Model    string    `json:"model"`
	Turns    int       `json:"turns"`
	Messages int       `json:"messages"`
	Tokens   int       `json:"tokens"`
	Updated  time.Time `json:"updated"`
}

func (c *cli) sessionsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved chat sessions",
	}
	cmd.PersistentFlags().StringVar(&format, "format", "table", fmt.Sprintf("output format %v", serializer.SupportedFormats()))

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List sessions, most recent first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				f, err := serializer.ParseFormat(format)
				if err != nil {
					return err
				}
				return c.withStore(func(store *bbolt.Store) error {
					sessions, err := store.ListSessions()
					if err != nil {
						return err
					}
					rows := make([]sessionRow, len(sessions))
					for i, s := range sessions {
						rows[i] = sessionRow{
							ID:       s.ID,
							Model:    s.Model,
							Turns:    s.Turns,
							Messages: len(s.Messages),
							Tokens:   s.Usage.TotalTokens,
							Updated:  s.UpdatedAt,
						}
					}
					if f == serializer.FormatTable && len(rows) == 0 {
						fmt.Fprintln(c.out, "No sessions yet.")
						return nil
					}
					return serializer.NewWriter(f, c.out).Serialize(cmd.Context(), rows)
				})
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a session transcript",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := serializer.ParseFormat(format)
				if err != nil {
					return err
				}
				return c.withStore(func(store *bbolt.Store) error {
					s, err := store.LoadSession(args[0])
					if err != nil {
						return err
					}
					if s == nil {
						return errors.NewWithContext(errors.ErrCodeNotFound, "no such session",
							map[string]any{"session": args[0]})
					}
					if f != serializer.FormatTable {
						return serializer.NewWriter(f, c.out).Serialize(cmd.Context(), s)
					}
					fmt.Fprintf(c.out, "session %s (%s), %d turns, %d tokens\n\n",
						s.ID, s.Model, s.Turns, s.Usage.TotalTokens)
					shell.WriteTranscript(c.out, s.Messages)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a saved session",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.withStore(func(store *bbolt.Store) error {
					if err := store.DeleteSession(args[0]); err != nil {
						return err
					}
					fmt.Fprintf(c.out, "deleted %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}
