package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/adapters/bbolt"
	"github.com/corey/gourmand/internal/app"
)

func (c *cli) wipeCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all saved sessions and recipe records",
		Long:  "Deletes every persisted session and recipe record. Recipe files in the output directory are left alone.",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := app.ResolvePaths(c.cfg.DataDir)
			if err != nil {
				return err
			}
			if _, err := os.Stat(paths.DB); os.IsNotExist(err) {
				fmt.Fprintln(c.out, "no data to wipe")
				return nil
			}

			if !force {
				fmt.Fprintf(c.out, "%s This will delete all sessions and recipe records in %s. Continue? [y/N] ",
					paint(c.out, colorYellow, "⚠"), paths.Root)
				answer, _ := bufio.NewReader(c.in).ReadString('\n')
				answer = strings.TrimSpace(strings.ToLower(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(c.out, "cancelled")
					return nil
				}
			}

			return c.withStore(func(store *bbolt.Store) error {
				if err := store.Wipe(); err != nil {
					return err
				}
				fmt.Fprintln(c.out, paint(c.out, colorGreen, "data wiped"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	return cmd
}
