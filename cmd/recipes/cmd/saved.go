package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/adapters/bbolt"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/serializer"
)

type savedRow struct {
	Stem    string    `json:"stem"`
	Title   string    `json:"title"`
	Files   int       `json:"files"`
	Session string    `json:"session"`
	Created time.Time `json:"created"`
}

func (c *cli) savedCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage recipes the model has written",
	}
	cmd.PersistentFlags().StringVar(&format, "format", "table", fmt.Sprintf("output format %v", serializer.SupportedFormats()))

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved recipes, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				f, err := serializer.ParseFormat(format)
				if err != nil {
					return err
				}
				return c.withStore(func(store *bbolt.Store) error {
					recs, err := store.ListRecipes()
					if err != nil {
						return err
					}
					w := serializer.NewWriter(f, c.out)
					if f != serializer.FormatTable {
						return w.Serialize(cmd.Context(), recs)
					}
					if len(recs) == 0 {
						fmt.Fprintln(c.out, "No recipes yet.")
						return nil
					}
					rows := make([]savedRow, len(recs))
					for i, r := range recs {
						rows[i] = savedRow{
							Stem:    r.Stem,
							Title:   r.Title,
							Files:   len(r.Files),
							Session: shortID(r.SessionID),
							Created: r.CreatedAt,
						}
					}
					return w.Serialize(cmd.Context(), rows)
				})
			},
		},
		&cobra.Command{
			Use:   "show <stem>",
			Short: "Print a saved recipe",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := serializer.ParseFormat(format)
				if err != nil {
					return err
				}
				return c.withStore(func(store *bbolt.Store) error {
					rec, err := store.LoadRecipe(args[0])
					if err != nil {
						return err
					}
					if rec == nil {
						return errors.NewWithContext(errors.ErrCodeNotFound, "no such recipe",
							map[string]any{"stem": args[0]})
					}
					if f != serializer.FormatTable {
						return serializer.NewWriter(f, c.out).Serialize(cmd.Context(), rec)
					}
					fmt.Fprintln(c.out, rec.Details)
					fmt.Fprintln(c.out)
					for _, p := range rec.Files {
						fmt.Fprintf(c.out, "  %s\n", p)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <stem>",
			Short: "Forget a saved recipe (files on disk are kept)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.withStore(func(store *bbolt.Store) error {
					if err := store.DeleteRecipe(args[0]); err != nil {
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

// shortID abbreviates a uuid for tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
