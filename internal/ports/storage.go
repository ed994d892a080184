// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "time"

// Storage persists chat sessions and transmitted recipes to durable storage.
// Concurrent reads are safe; writes are serialized by the adapter.
//
// Crash safety: every Save must be transactional. A crash mid-write must not
// corrupt previously committed data.
type Storage interface {
	// SaveSession persists a session, overwriting any prior copy with the same ID.
	SaveSession(s *Session) error

	// LoadSession retrieves a session by ID.
	// Returns nil, nil if no session exists.
	LoadSession(id string) (*Session, error)

	// ListSessions returns all sessions, most recently updated first.
	ListSessions() ([]*Session, error)

	// DeleteSession removes a session.
	// Idempotent: deleting a nonexistent session is not an error.
	DeleteSession(id string) error

	// SaveRecipe persists a recipe record keyed by its stem.
	SaveRecipe(r *RecipeRecord) error

	// LoadRecipe retrieves a recipe by stem. Returns nil, nil if absent.
	LoadRecipe(stem string) (*RecipeRecord, error)

	// ListRecipes returns all recipes, newest first.
	ListRecipes() ([]*RecipeRecord, error)

	// DeleteRecipe removes a recipe record. Files on disk are left alone.
	// Idempotent.
	DeleteRecipe(stem string) error

	// Wipe removes every session and recipe.
	Wipe() error
}

// Session is a persisted conversation that can be listed or resumed.
type Session struct {
	ID           string     `json:"id" yaml:"id"`
	Model        string     `json:"model" yaml:"model"`
	SystemPrompt string     `json:"system_prompt" yaml:"system_prompt"`
	Messages     []Message  `json:"messages" yaml:"messages"`
	Usage        TokenUsage `json:"usage" yaml:"usage"`
	Turns        int        `json:"turns" yaml:"turns"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" yaml:"updated_at"`
}

// RecipeRecord is what the transmit_recipe tool produced for one recipe.
type RecipeRecord struct {
	Stem        string    `json:"stem" yaml:"stem"`
	Title       string    `json:"title" yaml:"title"`
	Details     string    `json:"details" yaml:"details"`
	ImagePrompt string    `json:"image_prompt" yaml:"image_prompt"`
	Files       []string  `json:"files" yaml:"files"`
	SessionID   string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}
