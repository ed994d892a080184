// Package defaults holds default values and timeouts shared across packages.
package defaults

import "time"

// Model defaults.
const (
	// ChatModel is a cross-region inference profile; some models are only
	// reachable in a region through one.
	ChatModel = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"

	// ImageModel is the text-to-image model used for recipe photos.
	ImageModel = "amazon.nova-canvas-v1:0"

	// PromptName is the built-in system prompt used when none is selected.
	PromptName = "guided"
)

// Conversation limits.
const (
	// MaxToolRounds bounds consecutive tool_use round trips in one user turn.
	MaxToolRounds = 8

	// ImageCount is the number of images generated per recipe.
	ImageCount = 1

	// MaxImageCount is the largest accepted --images value.
	MaxImageCount = 5

	// ImageSize is the width and height of generated images in pixels.
	ImageSize = 1024

	// RequestsPerMinute is the default outbound call budget to the model service.
	RequestsPerMinute = 30
)

// Timeouts for outbound calls.
const (
	// ConverseTimeout bounds a single Converse call.
	ConverseTimeout = 2 * time.Minute

	// ImageTimeout bounds a single image generation call.
	ImageTimeout = 90 * time.Second

	// CatalogTimeout bounds a ListFoundationModels call.
	CatalogTimeout = 30 * time.Second

	// AWSConfigTimeout bounds loading shared AWS config and credentials.
	AWSConfigTimeout = 15 * time.Second
)

// Local storage and server timeouts.
const (
	// DBLockTimeout is how long bbolt waits for the file lock.
	DBLockTimeout = 1 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful HTTP shutdown.
	ServerShutdownTimeout = 5 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks on the local server.
	ServerReadHeaderTimeout = 5 * time.Second

	// WatchDebounce collapses bursts of file events from a single save.
	WatchDebounce = 50 * time.Millisecond
)
