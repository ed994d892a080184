package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

func ptr[T any](v T) *T { return &v }

func sampleRequest() *ports.ConverseRequest {
	return &ports.ConverseRequest{
		ModelID: "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
		System:  []string{"You recommend recipes."},
		Messages: []ports.Message{
			{Role: ports.RoleUser, Content: []ports.ContentBlock{ports.TextBlock("soup please")}},
			{Role: ports.RoleAssistant, Content: []ports.ContentBlock{
				ports.TextBlock("Sending."),
				{Kind: ports.BlockToolUse, ToolUse: &ports.ToolUse{ID: "t1", Name: "transmit_recipe", Input: map[string]any{"details": "Soup"}}},
				{Kind: ports.BlockReasoning},
			}},
			{Role: ports.RoleUser, Content: []ports.ContentBlock{
				ports.ToolResultBlock(ports.ToolResult{ToolUseID: "t1", Text: "failed", Status: ports.ToolStatusError}),
			}},
		},
		Tools: []ports.ToolSpec{{
			Name:        "transmit_recipe",
			Description: "send a recipe",
			InputSchema: map[string]any{"type": "object"},
		}},
	}
}

func TestToConverseInput(t *testing.T) {
	in, err := toConverseInput(sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "us.anthropic.claude-3-5-sonnet-20241022-v2:0", aws.ToString(in.ModelId))
	require.Len(t, in.System, 1)
	sys, ok := in.System[0].(*rttypes.SystemContentBlockMemberText)
	require.True(t, ok)
	assert.Equal(t, "You recommend recipes.", sys.Value)

	assert.Nil(t, in.InferenceConfig, "no sampling parameters set")

	require.Len(t, in.Messages, 3)
	assert.Equal(t, rttypes.ConversationRoleUser, in.Messages[0].Role)
	assert.Equal(t, rttypes.ConversationRoleAssistant, in.Messages[1].Role)

	// reasoning block is not sent back
	require.Len(t, in.Messages[1].Content, 2)
	use, ok := in.Messages[1].Content[1].(*rttypes.ContentBlockMemberToolUse)
	require.True(t, ok)
	assert.Equal(t, "t1", aws.ToString(use.Value.ToolUseId))
	assert.Equal(t, "transmit_recipe", aws.ToString(use.Value.Name))

	res, ok := in.Messages[2].Content[0].(*rttypes.ContentBlockMemberToolResult)
	require.True(t, ok)
	assert.Equal(t, "t1", aws.ToString(res.Value.ToolUseId))
	assert.Equal(t, rttypes.ToolResultStatusError, res.Value.Status)
	require.Len(t, res.Value.Content, 1)
	txt, ok := res.Value.Content[0].(*rttypes.ToolResultContentBlockMemberText)
	require.True(t, ok)
	assert.Equal(t, "failed", txt.Value)

	require.NotNil(t, in.ToolConfig)
	require.Len(t, in.ToolConfig.Tools, 1)
	spec, ok := in.ToolConfig.Tools[0].(*rttypes.ToolMemberToolSpec)
	require.True(t, ok)
	assert.Equal(t, "transmit_recipe", aws.ToString(spec.Value.Name))
	_, ok = spec.Value.InputSchema.(*rttypes.ToolInputSchemaMemberJson)
	assert.True(t, ok)
}

func TestToConverseInput_Inference(t *testing.T) {
	req := sampleRequest()
	req.Inference = ports.InferenceConfig{Temperature: ptr(float32(0))}

	in, err := toConverseInput(req)
	require.NoError(t, err)
	require.NotNil(t, in.InferenceConfig)
	require.NotNil(t, in.InferenceConfig.Temperature)
	assert.Equal(t, float32(0), *in.InferenceConfig.Temperature)
	assert.Nil(t, in.InferenceConfig.MaxTokens)
	assert.Nil(t, in.InferenceConfig.TopP)
}

func TestToConverseInput_Invalid(t *testing.T) {
	_, err := toConverseInput(&ports.ConverseRequest{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, err = toConverseInput(&ports.ConverseRequest{
		ModelID:  "m",
		Messages: []ports.Message{{Role: "system"}},
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestConverse_TranslatesReply(t *testing.T) {
	rt := &fakeRuntime{converseOut: &bedrockruntime.ConverseOutput{
		StopReason: rttypes.StopReasonToolUse,
		Output: &rttypes.ConverseOutputMemberMessage{Value: rttypes.Message{
			Role: rttypes.ConversationRoleAssistant,
			Content: []rttypes.ContentBlock{
				&rttypes.ContentBlockMemberText{Value: "Here it comes."},
				&rttypes.ContentBlockMemberToolUse{Value: rttypes.ToolUseBlock{
					ToolUseId: aws.String("tu-9"),
					Name:      aws.String("transmit_recipe"),
					Input:     document.NewLazyDocument(map[string]any{"details": "Soup", "file_stem": "soup"}),
				}},
				&rttypes.ContentBlockMemberImage{},
			},
		}},
		Usage: &rttypes.TokenUsage{
			InputTokens:  aws.Int32(120),
			OutputTokens: aws.Int32(30),
			TotalTokens:  aws.Int32(150),
		},
		Metrics: &rttypes.ConverseMetrics{LatencyMs: aws.Int64(850)},
	}}
	c := newTestClient(rt, nil)

	resp, err := c.Converse(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, rt.converseIn, 1)

	assert.Equal(t, ports.StopToolUse, resp.StopReason)
	assert.Equal(t, ports.TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}, resp.Usage)
	assert.Equal(t, int64(850), resp.Latency.Milliseconds())

	require.NotNil(t, resp.Message)
	assert.Equal(t, ports.RoleAssistant, resp.Message.Role)
	require.Len(t, resp.Message.Content, 3)
	assert.Equal(t, "Here it comes.", resp.Message.Text())
	uses := resp.Message.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "tu-9", uses[0].ID)
	assert.Equal(t, "Soup", uses[0].Input["details"])
	assert.Equal(t, "soup", uses[0].Input["file_stem"])
	assert.Equal(t, ports.BlockImage, resp.Message.Content[2].Kind)
}

func TestConverse_NoOutputMessage(t *testing.T) {
	rt := &fakeRuntime{converseOut: &bedrockruntime.ConverseOutput{StopReason: rttypes.StopReasonEndTurn}}
	resp, err := newTestClient(rt, nil).Converse(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Nil(t, resp.Message)
	assert.Equal(t, ports.StopEndTurn, resp.StopReason)
}

func TestConverse_ClassifiesErrors(t *testing.T) {
	rt := &fakeRuntime{converseErr: &rttypes.ThrottlingException{Message: aws.String("Too many requests")}}
	_, err := newTestClient(rt, nil).Converse(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRateLimitExceeded))
	assert.Contains(t, err.Error(), "Too many requests")
}
