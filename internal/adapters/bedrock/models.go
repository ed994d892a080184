package bedrock

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrock/types"

	"github.com/corey/gourmand/internal/ports"
)

const opListModels = "list_models"

// ListModels returns the foundation models available in the configured
// region, sorted by provider then id.
func (c *Client) ListModels(ctx context.Context) ([]ports.ModelSummary, error) {
	if err := c.wait(ctx, opListModels); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.catalog.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
	observe(opListModels, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, classify(opListModels, err)
	}

	models := make([]ports.ModelSummary, 0, len(out.ModelSummaries))
	for _, m := range out.ModelSummaries {
		models = append(models, toModelSummary(m))
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].ID < models[j].ID
	})
	return models, nil
}

func toModelSummary(m bedrocktypes.FoundationModelSummary) ports.ModelSummary {
	s := ports.ModelSummary{
		ID:        aws.ToString(m.ModelId),
		Name:      aws.ToString(m.ModelName),
		Provider:  aws.ToString(m.ProviderName),
		Streaming: aws.ToBool(m.ResponseStreamingSupported),
	}
	for _, mod := range m.InputModalities {
		s.InputModalities = append(s.InputModalities, string(mod))
	}
	for _, mod := range m.OutputModalities {
		s.OutputModalities = append(s.OutputModalities, string(mod))
	}
	for _, it := range m.InferenceTypesSupported {
		s.InferenceTypes = append(s.InferenceTypes, string(it))
	}
	if m.ModelLifecycle != nil {
		s.Lifecycle = string(m.ModelLifecycle.Status)
	}
	return s
}
