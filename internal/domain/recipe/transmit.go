package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/ports"
)

// ArtifactWriter writes recipe files to disk.
type ArtifactWriter interface {
	// WriteText writes content to path, creating parent directories.
	WriteText(path, content string) error

	// WriteImages writes images to "<base>-<i>.png" and returns the paths
	// in index order.
	WriteImages(base string, images [][]byte) ([]string, error)
}

// RecipeSaver records transmitted recipes. ports.Storage satisfies it.
type RecipeSaver interface {
	SaveRecipe(r *ports.RecipeRecord) error
}

// Config holds initialization parameters for a Transmitter.
type Config struct {
	// OutputDir is where recipe files are written.
	OutputDir string

	// Images is the number of images per recipe. Zero disables generation.
	Images int

	// ImageSize is the square image edge in pixels (default 1024).
	ImageSize int
}

// Transmitter handles transmit_recipe tool calls.
type Transmitter struct {
	cfg    Config
	images ports.ImageGenerator // nil when Images == 0
	files  ArtifactWriter
	store  RecipeSaver // optional

	mu        sync.Mutex
	sessionID string

	now func() time.Time
}

// NewTransmitter creates a Transmitter. images may be nil when image
// generation is disabled; store may be nil to skip persistence.
func NewTransmitter(cfg Config, images ports.ImageGenerator, files ArtifactWriter, store RecipeSaver) *Transmitter {
	if cfg.ImageSize == 0 {
		cfg.ImageSize = defaults.ImageSize
	}
	return &Transmitter{
		cfg:    cfg,
		images: images,
		files:  files,
		store:  store,
		now:    time.Now,
	}
}

// SetSessionID tags subsequently saved recipes with the active session.
func (t *Transmitter) SetSessionID(id string) {
	t.mu.Lock()
	t.sessionID = id
	t.mu.Unlock()
}

func (t *Transmitter) currentSession() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// Handle processes one tool invocation. It never returns a Go error: any
// failure is reported to the model as an error tool result so the
// conversation can continue.
func (t *Transmitter) Handle(ctx context.Context, use ports.ToolUse) ports.ToolResult {
	start := time.Now()
	defer func() { transmitDuration.Observe(time.Since(start).Seconds()) }()

	in := ParseInput(use.Input)
	stem := SanitizeStem(in.FileStem)
	base := filepath.Join(t.cfg.OutputDir, stem)

	slog.Debug("transmit recipe", "stem", stem, "raw_stem", in.FileStem, "base", base)

	var files []string
	var imageErr error
	if t.cfg.Images > 0 && t.images != nil {
		files, imageErr = t.generateImages(ctx, base, in.ImagePrompt)
		if imageErr != nil {
			slog.Warn("image generation failed, saving recipe text only", "stem", stem, "error", imageErr)
		}
	}

	txtPath := base + ".txt"
	if err := t.files.WriteText(txtPath, in.Details); err != nil {
		toolInvocations.WithLabelValues(ToolName, string(ports.ToolStatusError)).Inc()
		slog.Error("write recipe failed", "path", txtPath, "error", err)
		return ports.ToolResult{
			ToolUseID: use.ID,
			Text:      fmt.Sprintf("failed to write recipe to %s: %v", txtPath, err),
			Status:    ports.ToolStatusError,
		}
	}
	files = append(files, txtPath)

	if t.store != nil {
		rec := &ports.RecipeRecord{
			Stem:        stem,
			Title:       Title(in.Details),
			Details:     in.Details,
			ImagePrompt: in.ImagePrompt,
			Files:       files,
			SessionID:   t.currentSession(),
			CreatedAt:   t.now().UTC(),
		}
		if err := t.store.SaveRecipe(rec); err != nil {
			// Files are on disk; the record is a convenience index.
			slog.Warn("save recipe record failed", "stem", stem, "error", err)
		}
	}

	toolInvocations.WithLabelValues(ToolName, string(ports.ToolStatusSuccess)).Inc()

	text := fmt.Sprintf("written output to %s (files: %s)", base, strings.Join(files, ", "))
	if imageErr != nil {
		text += fmt.Sprintf("; the photo could not be generated: %v", imageErr)
	}
	return ports.ToolResult{
		ToolUseID: use.ID,
		Text:      text,
		Status:    ports.ToolStatusSuccess,
	}
}

func (t *Transmitter) generateImages(ctx context.Context, base, prompt string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.ImageTimeout)
	defer cancel()

	imgs, err := t.images.TextToImage(ctx, &ports.ImageRequest{
		Prompt: prompt,
		Count:  t.cfg.Images,
		Width:  t.cfg.ImageSize,
		Height: t.cfg.ImageSize,
	})
	if err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, fmt.Errorf("image model returned no images")
	}

	paths, err := t.files.WriteImages(base, imgs)
	if err != nil {
		return nil, fmt.Errorf("write images: %w", err)
	}
	imagesGenerated.Add(float64(len(paths)))
	return paths, nil
}
