// Package app wires the adapters and domain packages into a running chat
// session: storage, the Bedrock client, the conversation with its recipe
// tool, the prompt file watcher and the local HTTP server.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/corey/gourmand/internal/adapters/artifacts"
	"github.com/corey/gourmand/internal/adapters/bbolt"
	"github.com/corey/gourmand/internal/adapters/bedrock"
	fsw "github.com/corey/gourmand/internal/adapters/fsnotify"
	"github.com/corey/gourmand/internal/adapters/web"
	"github.com/corey/gourmand/internal/config"
	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/domain/conversation"
	"github.com/corey/gourmand/internal/domain/prompts"
	"github.com/corey/gourmand/internal/domain/recipe"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

// App is the top-level container wiring all components together.
type App struct {
	Config *config.Config
	Paths  *Paths

	Store       *bbolt.Store
	Chat        *Chat
	Transmitter *recipe.Transmitter
	Meter       *TokenMeter
	Watcher     *fsw.Watcher // nil without a prompt file
	WebServer   *web.Server  // nil without a metrics address

	promptFile string // absolute, empty when using a built-in prompt
}

// Deps are the model-facing services. New fills them from Bedrock.
type Deps struct {
	Converser ports.Converser
	Images    ports.ImageGenerator // nil disables image generation
}

// Chat is the live conversation. Reset also retags saved recipes with the
// new session id and clears the token meter.
type Chat struct {
	*conversation.Conversation
	tx    *recipe.Transmitter
	meter *TokenMeter
}

// Reset starts a fresh session.
func (c *Chat) Reset() {
	c.Conversation.Reset()
	c.tx.SetSessionID(c.ID())
	c.meter.Reset()
}

// New creates an App backed by Bedrock. Does not start services.
func New(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	awsCfg, err := bedrock.NewConfig(ctx, cfg.AWSProfile, cfg.Region)
	if err != nil {
		return nil, err
	}
	client := bedrock.New(awsCfg, bedrock.Options{
		ImageModel:        cfg.ImageModel,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	deps := Deps{Converser: client}
	if cfg.Images > 0 {
		deps.Images = client
	}
	return Build(cfg, deps, out)
}

// Build creates an App from explicit model services.
func Build(cfg *config.Config, deps Deps, out io.Writer) (*App, error) {
	paths, err := ResolvePaths(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var promptFile string
	if cfg.PromptFile != "" {
		if promptFile, err = artifacts.ExpandPath(cfg.PromptFile); err != nil {
			return nil, err
		}
		if promptFile, err = filepath.Abs(promptFile); err != nil {
			return nil, err
		}
	}
	system, err := prompts.Load(cfg.Prompt, promptFile)
	if err != nil {
		return nil, err
	}

	outDir, err := artifacts.ExpandPath(cfg.Output)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(paths)
	if err != nil {
		return nil, err
	}

	meter := NewTokenMeter(5 * time.Minute)
	conv := conversation.New(conversation.Config{
		ModelID:       cfg.Model,
		SystemPrompt:  system,
		Inference:     cfg.Inference(),
		MaxToolRounds: defaults.MaxToolRounds,
		Out:           out,
	}, &meteredConverser{next: deps.Converser, meter: meter})

	tx := recipe.NewTransmitter(recipe.Config{
		OutputDir: outDir,
		Images:    cfg.Images,
		ImageSize: defaults.ImageSize,
	}, deps.Images, artifacts.NewWriter(), store)
	conv.RegisterTool(recipe.Spec(), tx.Handle)
	tx.SetSessionID(conv.ID())

	a := &App{
		Config:      cfg,
		Paths:       paths,
		Store:       store,
		Chat:        &Chat{Conversation: conv, tx: tx, meter: meter},
		Transmitter: tx,
		Meter:       meter,
		promptFile:  promptFile,
	}

	if cfg.MetricsAddr != "" {
		a.WebServer = web.NewServer(a.Chat, store, paths.AddrFile)
	}
	if promptFile != "" {
		w, err := fsw.NewWatcher()
		if err != nil {
			slog.Warn("prompt file watcher unavailable", "error", err)
		} else {
			a.Watcher = w
		}
	}
	return a, nil
}

// OpenStore opens the bbolt database, explaining lock contention.
func OpenStore(paths *Paths) (*bbolt.Store, error) {
	store, err := bbolt.NewStore(paths.DB)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeLocked) {
			return nil, errors.WrapWithContext(errors.ErrCodeLocked,
				"another recipes process holds the database; close it and retry", err,
				map[string]any{"path": paths.DB})
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// Start begins the optional background services. Failures are logged, not
// fatal: the chat works without them.
func (a *App) Start() error {
	if a.WebServer != nil {
		if err := a.WebServer.Start(a.Config.MetricsAddr); err != nil {
			slog.Warn("http server unavailable", "addr", a.Config.MetricsAddr, "error", err)
			a.WebServer = nil
		}
	}
	if a.Watcher != nil {
		if err := a.Watcher.Watch(a.promptFile, a.ReloadPrompt); err != nil {
			slog.Warn("prompt file watcher unavailable", "path", a.promptFile, "error", err)
		}
	}
	return nil
}

// Stop shuts down services and closes the store.
func (a *App) Stop() error {
	if a.Watcher != nil {
		if err := a.Watcher.Stop(); err != nil {
			slog.Debug("stop prompt watcher", "error", err)
		}
	}
	if a.WebServer != nil {
		a.WebServer.Stop()
	}
	a.Paths.CleanEphemeral()
	slog.Debug("session closed", "session", a.Chat.ID(), "tokens", a.Meter.TotalTokens())
	return a.Store.Close()
}

// Open prepares the conversation: resumes sessionID when given, otherwise
// lets the model introduce itself.
func (a *App) Open(ctx context.Context, sessionID string) error {
	if sessionID != "" {
		return a.Resume(sessionID)
	}
	if err := a.Chat.Introduce(ctx); err != nil {
		return err
	}
	return a.Persist()
}

// Resume restores a persisted session into the live conversation.
func (a *App) Resume(sessionID string) error {
	sess, err := a.Store.LoadSession(sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return errors.NewWithContext(errors.ErrCodeNotFound, "no such session",
			map[string]any{"session": sessionID})
	}
	a.Chat.Restore(sess)
	a.Transmitter.SetSessionID(sess.ID)
	slog.Info("resumed session", "session", sess.ID, "messages", len(sess.Messages), "turns", sess.Turns)
	return nil
}

// Persist saves the live session. Empty sessions are skipped.
func (a *App) Persist() error {
	if a.Chat.Len() == 0 {
		return nil
	}
	return a.Store.SaveSession(a.Chat.Snapshot())
}

// ReloadPrompt re-reads the prompt file into the live conversation. An
// empty or unreadable file keeps the current prompt.
func (a *App) ReloadPrompt(path string) {
	p, err := prompts.ReadFile(path)
	if err != nil {
		slog.Warn("keeping current system prompt", "path", path, "error", err)
		return
	}
	if p == a.Chat.SystemPrompt() {
		return
	}
	a.Chat.SetSystemPrompt(p)
	slog.Info("system prompt reloaded", "path", path, "chars", len(p))
}

// TokensPerMin is the recent output rate, for the shell usage command.
func (a *App) TokensPerMin() float64 {
	return a.Meter.TokensPerMin()
}

// MsPerToken is the median generation speed, for the shell usage command.
func (a *App) MsPerToken() float64 {
	return a.Meter.MsPerToken()
}
