package ports

import (
	"context"
	"time"
)

// =============================================================================
// Conversation Port: Provider-Agnostic Canonical Model
//
// This defines what a chat exchange with a hosted model IS, regardless of
// which inference service answers it. Adapters translate provider-specific
// union types into this canonical representation and back.
//
// Three pillars:
//   1. Messages: role-tagged content blocks (text, tool use, tool result)
//   2. Tools: JSON-schema tool specs the model may call
//   3. Economics: tokens and latency per request
// =============================================================================

// Converser is the port for multi-turn chat inference.
// Each call carries the entire history; the service keeps no state.
type Converser interface {
	// Converse sends the request and returns the model's reply.
	// Errors from the service are classified by the adapter into
	// structured errors (rate limit, unauthorized, ...).
	Converse(ctx context.Context, req *ConverseRequest) (*ConverseResponse, error)
}

// ImageGenerator produces images from a text prompt.
type ImageGenerator interface {
	// TextToImage returns decoded image bytes (PNG), one entry per image.
	TextToImage(ctx context.Context, req *ImageRequest) ([][]byte, error)
}

// ModelCatalog lists the foundation models available to the caller.
type ModelCatalog interface {
	ListModels(ctx context.Context) ([]ModelSummary, error)
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind classifies a ContentBlock. Each block is exactly one kind.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
	BlockImage      BlockKind = "image"
	BlockDocument   BlockKind = "document"
	BlockGuard      BlockKind = "guard"
	BlockVideo      BlockKind = "video"
	BlockReasoning  BlockKind = "reasoning"
	BlockUnknown    BlockKind = "unknown"
)

// ContentBlock is one atomic piece of a message.
//
// Only the field matching Kind is populated:
//
//	text:        Text
//	tool_use:    ToolUse
//	tool_result: ToolResult
//
// Other kinds are carried for logging only; the domain never sends them.
type ContentBlock struct {
	Kind       BlockKind   `json:"kind"`
	Text       string      `json:"text,omitempty"`
	ToolUse    *ToolUse    `json:"tool_use,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// TextBlock is a convenience constructor for a text block.
func TextBlock(s string) ContentBlock {
	return ContentBlock{Kind: BlockText, Text: s}
}

// ToolResultBlock is a convenience constructor for a tool result block.
func ToolResultBlock(r ToolResult) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolResult: &r}
}

// ToolUse is the model asking for a tool invocation.
type ToolUse struct {
	// ID correlates the invocation with its ToolResult.
	ID string `json:"id"`

	// Name is the tool identifier (e.g., "transmit_recipe").
	Name string `json:"name"`

	// Input is the decoded JSON input document.
	Input map[string]any `json:"input,omitempty"`
}

// ToolStatus reports whether a tool invocation succeeded.
type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// ToolResult is the answer to a ToolUse, sent back in the next user message.
type ToolResult struct {
	ToolUseID string     `json:"tool_use_id"`
	Text      string     `json:"text"`
	Status    ToolStatus `json:"status"`
}

// Message is one entry of the conversation history.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text concatenates all text blocks of the message, newline separated.
func (m *Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Kind != BlockText || b.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += b.Text
	}
	return out
}

// ToolUses returns the tool_use blocks of the message in order.
func (m *Message) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, b := range m.Content {
		if b.Kind == BlockToolUse && b.ToolUse != nil {
			uses = append(uses, *b.ToolUse)
		}
	}
	return uses
}

// StopReason is why the model stopped generating.
// Unknown values from the service are passed through unchanged.
type StopReason string

const (
	StopEndTurn             StopReason = "end_turn"
	StopToolUse             StopReason = "tool_use"
	StopMaxTokens           StopReason = "max_tokens"
	StopSequence            StopReason = "stop_sequence"
	StopGuardrailIntervened StopReason = "guardrail_intervened"
	StopContentFiltered     StopReason = "content_filtered"
)

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string

	// InputSchema is a JSON schema object describing the tool input.
	InputSchema map[string]any
}

// InferenceConfig carries sampling parameters. Nil fields mean "use the
// provider default" and are omitted from the request.
type InferenceConfig struct {
	MaxTokens   *int32
	Temperature *float32
	TopP        *float32
}

// ConverseRequest is one call to the model with the full history.
type ConverseRequest struct {
	ModelID   string
	System    []string
	Messages  []Message
	Tools     []ToolSpec
	Inference InferenceConfig
}

// ConverseResponse is the model's reply to a ConverseRequest.
type ConverseResponse struct {
	StopReason StopReason

	// Message is nil when the service returned no output message.
	Message *Message

	Usage   TokenUsage
	Latency time.Duration
}

// TokenUsage captures token economics for one request.
// All fields are optional; adapters populate what the source provides.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates another usage record into u.
func (u *TokenUsage) Add(o TokenUsage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	total := o.TotalTokens
	if total == 0 {
		total = o.InputTokens + o.OutputTokens
	}
	u.TotalTokens += total
}

// ImageRequest asks for Count images of Width x Height.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	Count          int
	Width          int
	Height         int

	// Seed makes generation reproducible. Zero lets the adapter choose.
	Seed int
}

// ModelSummary describes one foundation model.
type ModelSummary struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Provider         string   `json:"provider" yaml:"provider"`
	InputModalities  []string `json:"input_modalities" yaml:"input_modalities"`
	OutputModalities []string `json:"output_modalities" yaml:"output_modalities"`
	Streaming        bool     `json:"streaming" yaml:"streaming"`
	InferenceTypes   []string `json:"inference_types" yaml:"inference_types"`
	Lifecycle        string   `json:"lifecycle" yaml:"lifecycle"`
}
