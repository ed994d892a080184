package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corey/gourmand/internal/domain/prompts"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

// Say runs one user turn to completion. The model's text is written to the
// configured output as it arrives, one block per line. Tool calls are
// answered, all results of a reply together in one message, until the model
// stops for a reason other than tool use.
//
// If any request fails, the whole exchange is rolled back: the history is
// left exactly as it was before prompt.
func (c *Conversation) Say(ctx context.Context, prompt string) error {
	cp := c.mark()

	stop, msg, err := c.Turn(ctx, PromptInput(prompt))
	if err != nil {
		return err
	}

	for round := 0; ; round++ {
		c.render(msg)

		// Tool calls are answered whatever the stop reason, otherwise the
		// next request would carry an unanswered tool_use.
		uses := msg.ToolUses()
		if len(uses) > 0 {
			if round >= c.cfg.MaxToolRounds {
				c.rollback(cp)
				return errors.NewWithContext(errors.ErrCodeInternal, "too many consecutive tool calls",
					map[string]any{"rounds": round})
			}
			results := c.runTools(ctx, uses)
			stop, msg, err = c.Turn(ctx, ToolResultsInput(results...))
			if err != nil {
				c.rollback(cp)
				return err
			}
			continue
		}

		c.finish(stop)
		return nil
	}
}

// Introduce asks the model to open the conversation.
func (c *Conversation) Introduce(ctx context.Context) error {
	return c.Say(ctx, prompts.Intro)
}

// finish reports non-normal stop reasons.
func (c *Conversation) finish(stop ports.StopReason) {
	switch stop {
	case ports.StopEndTurn, ports.StopSequence:
	case ports.StopToolUse:
		slog.Warn("model stopped for tool use without requesting a tool")
	case ports.StopMaxTokens:
		fmt.Fprintln(c.cfg.Out, "[reply truncated: maximum tokens reached]")
		slog.Warn("reply truncated", "stop_reason", stop)
	case ports.StopGuardrailIntervened, ports.StopContentFiltered:
		fmt.Fprintln(c.cfg.Out, "[reply blocked by content filters]")
		slog.Warn("reply filtered", "stop_reason", stop)
	default:
		slog.Warn("unexpected stop reason", "stop_reason", stop)
	}
}

// render prints text blocks and logs everything else.
func (c *Conversation) render(msg *ports.Message) {
	for _, b := range msg.Content {
		switch b.Kind {
		case ports.BlockText:
			fmt.Fprintln(c.cfg.Out, b.Text)
		case ports.BlockToolUse:
			slog.Debug("tool use requested", "tool", b.ToolUse.Name, "id", b.ToolUse.ID)
		case ports.BlockReasoning:
			slog.Debug("reasoning block skipped")
		default:
			slog.Warn("unexpected content block in reply", "kind", b.Kind)
		}
	}
}

// runTools answers every tool call, in order.
func (c *Conversation) runTools(ctx context.Context, uses []ports.ToolUse) []ports.ToolResult {
	results := make([]ports.ToolResult, 0, len(uses))
	for _, use := range uses {
		h, ok := c.handlers[use.Name]
		if !ok {
			slog.Warn("model called unknown tool", "tool", use.Name)
			results = append(results, ports.ToolResult{
				ToolUseID: use.ID,
				Text:      fmt.Sprintf("unknown tool %q", use.Name),
				Status:    ports.ToolStatusError,
			})
			continue
		}

		res := h(ctx, use)
		res.ToolUseID = use.ID
		if res.Status == "" {
			res.Status = ports.ToolStatusSuccess
		}
		slog.Debug("tool result", "tool", use.Name, "id", use.ID, "status", res.Status)
		results = append(results, res)
	}
	return results
}
