// Package conversation holds the state of a chat with a hosted model and
// drives the turn loop: send the whole history, print the reply, answer any
// tool calls, repeat until the model yields the floor back to the user.
//
// History invariants:
//   - it starts with a user message and strictly alternates roles
//   - every assistant tool_use is answered by a tool_result with the same id
//     in the very next user message
//
// A failed exchange is rolled back to the point before the user's prompt, so
// the invariants hold even when the model service errors mid-way.
package conversation

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/ports"
)

// ToolHandler answers one tool invocation. Failures are reported inside the
// result (Status error), never as a Go error.
type ToolHandler func(ctx context.Context, use ports.ToolUse) ports.ToolResult

// Config holds initialization parameters for a Conversation.
type Config struct {
	ModelID      string
	SystemPrompt string
	Inference    ports.InferenceConfig

	// MaxToolRounds bounds tool round trips within one Say. Default 8.
	MaxToolRounds int

	// Out receives the model's text. Default os.Stdout.
	Out io.Writer
}

// Conversation is one chat session. Say and Turn must not be called
// concurrently; SetSystemPrompt may be called from any goroutine.
type Conversation struct {
	cfg       Config
	converser ports.Converser

	tools    []ports.ToolSpec
	handlers map[string]ToolHandler

	mu           sync.Mutex
	id           string
	systemPrompt string
	messages     []ports.Message
	usage        ports.TokenUsage
	turns        int
	createdAt    time.Time

	now func() time.Time
}

// Stats summarizes token usage for the session.
type Stats struct {
	SessionID string           `json:"session_id" yaml:"session_id"`
	Model     string           `json:"model" yaml:"model"`
	Turns     int              `json:"turns" yaml:"turns"`
	Messages  int              `json:"messages" yaml:"messages"`
	Usage     ports.TokenUsage `json:"usage" yaml:"usage"`
}

// New creates a conversation with a fresh session id.
func New(cfg Config, converser ports.Converser) *Conversation {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaults.MaxToolRounds
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	c := &Conversation{
		cfg:          cfg,
		converser:    converser,
		handlers:     make(map[string]ToolHandler),
		id:           uuid.NewString(),
		systemPrompt: cfg.SystemPrompt,
		now:          time.Now,
	}
	c.createdAt = c.now().UTC()
	return c
}

// RegisterTool advertises spec to the model and routes its calls to h.
func (c *Conversation) RegisterTool(spec ports.ToolSpec, h ToolHandler) {
	c.tools = append(c.tools, spec)
	c.handlers[spec.Name] = h
}

// ID returns the session id.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Model returns the model or inference profile id.
func (c *Conversation) Model() string {
	return c.cfg.ModelID
}

// SystemPrompt returns the active system prompt.
func (c *Conversation) SystemPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.systemPrompt
}

// SetSystemPrompt replaces the system prompt for subsequent requests.
func (c *Conversation) SetSystemPrompt(p string) {
	c.mu.Lock()
	c.systemPrompt = p
	c.mu.Unlock()
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []ports.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ports.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Stats returns accumulated usage.
func (c *Conversation) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		SessionID: c.id,
		Model:     c.cfg.ModelID,
		Turns:     c.turns,
		Messages:  len(c.messages),
		Usage:     c.usage,
	}
}

// Reset starts a fresh session: new id, empty history, zero usage.
// Model, tools and system prompt are kept.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = uuid.NewString()
	c.messages = nil
	c.usage = ports.TokenUsage{}
	c.turns = 0
	c.createdAt = c.now().UTC()
}

// Snapshot returns the session in its persistable form.
func (c *Conversation) Snapshot() *ports.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]ports.Message, len(c.messages))
	copy(msgs, c.messages)
	return &ports.Session{
		ID:           c.id,
		Model:        c.cfg.ModelID,
		SystemPrompt: c.systemPrompt,
		Messages:     msgs,
		Usage:        c.usage,
		Turns:        c.turns,
		CreatedAt:    c.createdAt,
		UpdatedAt:    c.now().UTC(),
	}
}

// Restore loads a persisted session for resuming. The current model and
// system prompt stay in effect. Trailing user messages (an exchange that
// never completed) are dropped so the history ends on an assistant reply.
func (c *Conversation) Restore(s *ports.Session) {
	msgs := make([]ports.Message, len(s.Messages))
	copy(msgs, s.Messages)
	for len(msgs) > 0 && msgs[len(msgs)-1].Role == ports.RoleUser {
		msgs = msgs[:len(msgs)-1]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = s.ID
	c.messages = msgs
	c.usage = s.Usage
	c.turns = s.Turns
	c.createdAt = s.CreatedAt
}

// checkpoint marks a point in the history an exchange can be rolled back to.
type checkpoint struct {
	messages int
	turns    int
}

func (c *Conversation) mark() checkpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return checkpoint{messages: len(c.messages), turns: c.turns}
}

// rollback drops history and the turn count back to cp. Usage is kept:
// the discarded requests were still billed.
func (c *Conversation) rollback(cp checkpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cp.messages < len(c.messages) {
		c.messages = c.messages[:cp.messages]
	}
	c.turns = cp.turns
}
