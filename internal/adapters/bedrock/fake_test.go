package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type fakeRuntime struct {
	converseIn  []*bedrockruntime.ConverseInput
	converseOut *bedrockruntime.ConverseOutput
	converseErr error

	invokeIn  []*bedrockruntime.InvokeModelInput
	invokeOut *bedrockruntime.InvokeModelOutput
	invokeErr error
}

func (f *fakeRuntime) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.converseIn = append(f.converseIn, in)
	return f.converseOut, f.converseErr
}

func (f *fakeRuntime) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.invokeIn = append(f.invokeIn, in)
	return f.invokeOut, f.invokeErr
}

type fakeCatalog struct {
	out *bedrock.ListFoundationModelsOutput
	err error
}

func (f *fakeCatalog) ListFoundationModels(context.Context, *bedrock.ListFoundationModelsInput, ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error) {
	return f.out, f.err
}

func newTestClient(rt *fakeRuntime, cat *fakeCatalog) *Client {
	return newClient(rt, cat, Options{ImageModel: "amazon.nova-canvas-v1:0"})
}
