package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/adapters/shell"
	"github.com/corey/gourmand/internal/app"
)

func (c *cli) chatCmd() *cobra.Command {
	var resume string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive recipe session (the default command)",
		Long: `Start an interactive recipe session.

A new session begins with the model introducing itself. With --resume the
saved history of an earlier session is loaded and the introduction skipped.
Type a request to talk to the model, or "help" for shell commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runChat(cmd.Context(), resume)
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "session id to continue")
	return cmd
}

func (c *cli) runChat(ctx context.Context, resume string) error {
	a, err := app.New(ctx, c.cfg, c.out)
	if err != nil {
		return err
	}
	defer a.Stop()

	if err := a.Start(); err != nil {
		return err
	}
	if a.WebServer != nil {
		fmt.Fprintf(c.errOut, "metrics and API at %s\n", a.WebServer.URL())
	}

	if err := a.Open(ctx, resume); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	term, err := shell.NewTerminal(a.Paths.HistoryFile)
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	sh := shell.New(shell.Config{
		Chat:    a.Chat,
		Recipes: a.Store,
		Reader:  term,
		Persist: a.Persist,
		Rate:    a.TokensPerMin,
		Speed:   a.MsPerToken,
		Out:     c.out,
	})
	return sh.Run(ctx)
}
