// Package artifacts writes recipe text and images to the local filesystem.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ExpandPath replaces a leading "~" with the user's home directory.
// Other paths are returned unchanged.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Writer writes recipe artifacts. Existing files are overwritten.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteText writes content to path, creating parent directories.
func (w *Writer) WriteText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ImagePath returns the file name of the i-th image for base.
func ImagePath(base string, i int) string {
	return fmt.Sprintf("%s-%d.png", base, i)
}

// WriteImages writes images to "<base>-<i>.png" concurrently and returns the
// paths in index order. On failure, the first error is returned.
func (w *Writer) WriteImages(base string, images [][]byte) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(base), dirPerm); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, len(images))
	var g errgroup.Group
	for i, img := range images {
		paths[i] = ImagePath(base, i)
		g.Go(func() error {
			if err := os.WriteFile(paths[i], img, filePerm); err != nil {
				return fmt.Errorf("write image %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
