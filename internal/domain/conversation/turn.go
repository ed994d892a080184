package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

// TurnInput is what the user side contributes to one turn: either a prompt
// or the results of the tools the model asked for.
type TurnInput struct {
	Prompt      string
	ToolResults []ports.ToolResult
}

// PromptInput builds a TurnInput from user text.
func PromptInput(prompt string) TurnInput {
	return TurnInput{Prompt: prompt}
}

// ToolResultsInput builds a TurnInput answering tool calls.
func ToolResultsInput(results ...ports.ToolResult) TurnInput {
	return TurnInput{ToolResults: results}
}

func (in TurnInput) content() []ports.ContentBlock {
	var blocks []ports.ContentBlock
	for _, r := range in.ToolResults {
		blocks = append(blocks, ports.ToolResultBlock(r))
	}
	if in.Prompt != "" {
		blocks = append(blocks, ports.TextBlock(in.Prompt))
	}
	return blocks
}

// Turn appends a user message built from in, sends the entire history to the
// model, and appends the assistant's reply. On any failure the user message
// is removed again and the history is left as it was.
func (c *Conversation) Turn(ctx context.Context, in TurnInput) (ports.StopReason, *ports.Message, error) {
	content := in.content()
	if len(content) == 0 {
		return "", nil, errors.New(errors.ErrCodeInvalidRequest, "empty turn input")
	}

	c.mu.Lock()
	cp := checkpoint{messages: len(c.messages), turns: c.turns}
	c.messages = append(c.messages, ports.Message{Role: ports.RoleUser, Content: content})
	req := &ports.ConverseRequest{
		ModelID:   c.cfg.ModelID,
		Messages:  append([]ports.Message(nil), c.messages...),
		Tools:     c.tools,
		Inference: c.cfg.Inference,
	}
	if c.systemPrompt != "" {
		req.System = []string{c.systemPrompt}
	}
	c.mu.Unlock()

	slog.Debug("converse request",
		"model", req.ModelID,
		"messages", len(req.Messages),
		"prompt", in.Prompt,
		"tool_results", len(in.ToolResults))
	for _, r := range in.ToolResults {
		slog.Debug("converse tool result",
			"tool_use_id", r.ToolUseID,
			"status", r.Status,
			"text", r.Text)
	}

	callCtx, cancel := context.WithTimeout(ctx, defaults.ConverseTimeout)
	defer cancel()

	resp, err := c.converser.Converse(callCtx, req)
	if err != nil {
		c.rollback(cp)
		return "", nil, err
	}
	if resp.Message == nil {
		c.rollback(cp)
		return "", nil, errors.NewWithContext(errors.ErrCodeInternal, "model returned no output message",
			map[string]any{"stop_reason": string(resp.StopReason)})
	}
	if resp.Message.Role != ports.RoleAssistant {
		c.rollback(cp)
		return "", nil, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("expected assistant reply, got role %q", resp.Message.Role))
	}

	c.mu.Lock()
	c.messages = append(c.messages, *resp.Message)
	c.usage.Add(resp.Usage)
	c.turns++
	c.mu.Unlock()

	slog.Debug("converse response",
		"stop_reason", resp.StopReason,
		"blocks", len(resp.Message.Content),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"latency", resp.Latency)

	return resp.StopReason, resp.Message, nil
}
