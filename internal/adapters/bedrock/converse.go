package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

const opConverse = "converse"

// Converse sends the full history to the model and translates the reply.
func (c *Client) Converse(ctx context.Context, req *ports.ConverseRequest) (*ports.ConverseResponse, error) {
	in, err := toConverseInput(req)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx, opConverse); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.runtime.Converse(ctx, in)
	elapsed := time.Since(start)
	observe(opConverse, elapsed.Seconds(), err)
	if err != nil {
		return nil, classify(opConverse, err)
	}

	resp := &ports.ConverseResponse{
		StopReason: ports.StopReason(out.StopReason),
		Latency:    elapsed,
	}
	stopReasons.WithLabelValues(req.ModelID, string(out.StopReason)).Inc()
	if out.Metrics != nil && out.Metrics.LatencyMs != nil {
		resp.Latency = time.Duration(*out.Metrics.LatencyMs) * time.Millisecond
	}
	if out.Usage != nil {
		resp.Usage = ports.TokenUsage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:  int(aws.ToInt32(out.Usage.TotalTokens)),
		}
		tokensTotal.WithLabelValues(req.ModelID, "input").Add(float64(resp.Usage.InputTokens))
		tokensTotal.WithLabelValues(req.ModelID, "output").Add(float64(resp.Usage.OutputTokens))
	}

	switch o := out.Output.(type) {
	case *rttypes.ConverseOutputMemberMessage:
		msg := fromSDKMessage(o.Value)
		resp.Message = &msg
	case nil:
	default:
		slog.Warn("unexpected converse output type", "type", fmt.Sprintf("%T", o))
	}
	return resp, nil
}

func toConverseInput(req *ports.ConverseRequest) (*bedrockruntime.ConverseInput, error) {
	if req.ModelID == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "model id is required")
	}
	msgs, err := toSDKMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(req.ModelID),
		Messages: msgs,
	}
	for _, s := range req.System {
		in.System = append(in.System, &rttypes.SystemContentBlockMemberText{Value: s})
	}

	inf := req.Inference
	if inf.MaxTokens != nil || inf.Temperature != nil || inf.TopP != nil {
		in.InferenceConfig = &rttypes.InferenceConfiguration{
			MaxTokens:   inf.MaxTokens,
			Temperature: inf.Temperature,
			TopP:        inf.TopP,
		}
	}

	if len(req.Tools) > 0 {
		tc := &rttypes.ToolConfiguration{}
		for _, t := range req.Tools {
			schema := t.InputSchema
			if schema == nil {
				schema = map[string]any{"type": "object"}
			}
			tc.Tools = append(tc.Tools, &rttypes.ToolMemberToolSpec{Value: rttypes.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &rttypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			}})
		}
		in.ToolConfig = tc
	}
	return in, nil
}

func toSDKMessages(msgs []ports.Message) ([]rttypes.Message, error) {
	out := make([]rttypes.Message, 0, len(msgs))
	for i, m := range msgs {
		var role rttypes.ConversationRole
		switch m.Role {
		case ports.RoleUser:
			role = rttypes.ConversationRoleUser
		case ports.RoleAssistant:
			role = rttypes.ConversationRoleAssistant
		default:
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "unknown message role",
				map[string]any{"index": i, "role": string(m.Role)})
		}

		sm := rttypes.Message{Role: role}
		for _, b := range m.Content {
			if blk := toSDKBlock(b); blk != nil {
				sm.Content = append(sm.Content, blk)
			}
		}
		out = append(out, sm)
	}
	return out, nil
}

// toSDKBlock converts one block. Kinds only received for display (images,
// reasoning, ...) are not sent back and yield nil.
func toSDKBlock(b ports.ContentBlock) rttypes.ContentBlock {
	switch b.Kind {
	case ports.BlockText:
		return &rttypes.ContentBlockMemberText{Value: b.Text}
	case ports.BlockToolUse:
		if b.ToolUse == nil {
			return nil
		}
		input := b.ToolUse.Input
		if input == nil {
			input = map[string]any{}
		}
		return &rttypes.ContentBlockMemberToolUse{Value: rttypes.ToolUseBlock{
			ToolUseId: aws.String(b.ToolUse.ID),
			Name:      aws.String(b.ToolUse.Name),
			Input:     document.NewLazyDocument(input),
		}}
	case ports.BlockToolResult:
		if b.ToolResult == nil {
			return nil
		}
		status := rttypes.ToolResultStatusSuccess
		if b.ToolResult.Status == ports.ToolStatusError {
			status = rttypes.ToolResultStatusError
		}
		return &rttypes.ContentBlockMemberToolResult{Value: rttypes.ToolResultBlock{
			ToolUseId: aws.String(b.ToolResult.ToolUseID),
			Content:   []rttypes.ToolResultContentBlock{&rttypes.ToolResultContentBlockMemberText{Value: b.ToolResult.Text}},
			Status:    status,
		}}
	default:
		slog.Debug("dropping content block from request", "kind", b.Kind)
		return nil
	}
}

func fromSDKMessage(m rttypes.Message) ports.Message {
	msg := ports.Message{Role: ports.Role(m.Role)}
	for _, blk := range m.Content {
		msg.Content = append(msg.Content, fromSDKBlock(blk))
	}
	return msg
}

func fromSDKBlock(blk rttypes.ContentBlock) ports.ContentBlock {
	switch v := blk.(type) {
	case *rttypes.ContentBlockMemberText:
		return ports.TextBlock(v.Value)
	case *rttypes.ContentBlockMemberToolUse:
		use := &ports.ToolUse{
			ID:   aws.ToString(v.Value.ToolUseId),
			Name: aws.ToString(v.Value.Name),
		}
		if v.Value.Input != nil {
			var input map[string]any
			if err := v.Value.Input.UnmarshalSmithyDocument(&input); err != nil {
				slog.Warn("could not decode tool input", "tool", use.Name, "error", err)
			}
			use.Input = input
		}
		return ports.ContentBlock{Kind: ports.BlockToolUse, ToolUse: use}
	case *rttypes.ContentBlockMemberToolResult:
		res := &ports.ToolResult{
			ToolUseID: aws.ToString(v.Value.ToolUseId),
			Status:    ports.ToolStatus(v.Value.Status),
		}
		for _, c := range v.Value.Content {
			if t, ok := c.(*rttypes.ToolResultContentBlockMemberText); ok {
				res.Text += t.Value
			}
		}
		return ports.ContentBlock{Kind: ports.BlockToolResult, ToolResult: res}
	case *rttypes.ContentBlockMemberImage:
		return ports.ContentBlock{Kind: ports.BlockImage}
	case *rttypes.ContentBlockMemberDocument:
		return ports.ContentBlock{Kind: ports.BlockDocument}
	case *rttypes.ContentBlockMemberGuardContent:
		return ports.ContentBlock{Kind: ports.BlockGuard}
	case *rttypes.ContentBlockMemberVideo:
		return ports.ContentBlock{Kind: ports.BlockVideo}
	case *rttypes.ContentBlockMemberReasoningContent:
		return ports.ContentBlock{Kind: ports.BlockReasoning}
	default:
		return ports.ContentBlock{Kind: ports.BlockUnknown}
	}
}
