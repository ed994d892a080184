package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/app"
	"github.com/corey/gourmand/internal/config"
	"github.com/corey/gourmand/internal/serializer"
)

// resolvedConfig is what the config command prints.
type resolvedConfig struct {
	ConfigFile string         `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Settings   *config.Config `json:"settings" yaml:"settings"`
	Paths      *app.Paths     `json:"paths" yaml:"paths"`
}

func (c *cli) configCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Long:  "Shows the settings after flags, GOURMAND_* variables and the config file are merged, and the data paths in use.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := serializer.ParseFormat(format)
			if err != nil {
				return err
			}
			paths, err := app.ResolvePaths(c.cfg.DataDir)
			if err != nil {
				return err
			}
			if f == serializer.FormatTable {
				c.printConfig(paths)
				return nil
			}
			return serializer.NewWriter(f, c.out).Serialize(cmd.Context(), resolvedConfig{
				ConfigFile: c.v.ConfigFileUsed(),
				Settings:   c.cfg,
				Paths:      paths,
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", fmt.Sprintf("output format %v", serializer.SupportedFormats()))
	return cmd
}

func (c *cli) printConfig(paths *app.Paths) {
	cfg := c.cfg
	optional := func(s string) string {
		if s == "" {
			return paint(c.out, colorYellow, "(unset)")
		}
		return s
	}

	fmt.Fprintln(c.out, paint(c.out, colorBold, "recipes config"))
	fmt.Fprintf(c.out, "  Config file:  %s\n", optional(c.v.ConfigFileUsed()))
	fmt.Fprintf(c.out, "  AWS profile:  %s\n", optional(cfg.AWSProfile))
	fmt.Fprintf(c.out, "  Region:       %s\n", optional(cfg.Region))
	fmt.Fprintf(c.out, "  Model:        %s\n", paint(c.out, colorCyan, cfg.Model))
	fmt.Fprintf(c.out, "  Image model:  %s (%d per recipe)\n", cfg.ImageModel, cfg.Images)
	fmt.Fprintf(c.out, "  Output:       %s\n", cfg.Output)
	if cfg.PromptFile != "" {
		fmt.Fprintf(c.out, "  Prompt:       %s\n", cfg.PromptFile)
	} else {
		fmt.Fprintf(c.out, "  Prompt:       %s (built-in)\n", cfg.Prompt)
	}
	fmt.Fprintf(c.out, "  Rate limit:   %d requests/min\n", cfg.RequestsPerMinute)
	fmt.Fprintf(c.out, "  Data dir:     %s\n", paths.Root)
	fmt.Fprintf(c.out, "  DB:           %s\n", paths.DB)
	fmt.Fprintf(c.out, "  History:      %s\n", paths.HistoryFile)
	fmt.Fprintf(c.out, "  Metrics:      %s\n", optional(cfg.MetricsAddr))
	fmt.Fprintf(c.out, "  Logging:      %s (%s)\n", cfg.LogLevel, cfg.LogFormat)
}
