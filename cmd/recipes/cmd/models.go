package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/ports"
	"github.com/corey/gourmand/internal/serializer"
)

// modelRow is the table form of a model summary.
type modelRow struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Name      string `json:"name"`
	Input     string `json:"input"`
	Output    string `json:"output"`
	Lifecycle string `json:"lifecycle"`
}

func (c *cli) modelsCmd() *cobra.Command {
	var format, provider string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the foundation models enabled for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runModels(cmd.Context(), format, provider)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", fmt.Sprintf("output format %v", serializer.SupportedFormats()))
	cmd.Flags().StringVar(&provider, "provider", "", "only models from this provider (e.g. Anthropic)")
	return cmd
}

func (c *cli) runModels(ctx context.Context, format, provider string) error {
	f, err := serializer.ParseFormat(format)
	if err != nil {
		return err
	}

	catalog, err := c.newCatalog(ctx, c.cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.CatalogTimeout)
	defer cancel()

	models, err := catalog.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	models = filterProvider(models, provider)

	w := serializer.NewWriter(f, c.out)
	if f != serializer.FormatTable {
		return w.Serialize(ctx, models)
	}
	if len(models) == 0 {
		fmt.Fprintln(c.out, "No models found.")
		return nil
	}
	rows := make([]modelRow, len(models))
	for i, m := range models {
		rows[i] = modelRow{
			ID:        m.ID,
			Provider:  m.Provider,
			Name:      m.Name,
			Input:     strings.Join(m.InputModalities, ","),
			Output:    strings.Join(m.OutputModalities, ","),
			Lifecycle: m.Lifecycle,
		}
	}
	return w.Serialize(ctx, rows)
}

func filterProvider(models []ports.ModelSummary, provider string) []ports.ModelSummary {
	if provider == "" {
		return models
	}
	out := []ports.ModelSummary{}
	for _, m := range models {
		if strings.EqualFold(m.Provider, provider) {
			out = append(out, m)
		}
	}
	return out
}
