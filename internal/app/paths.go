package app

import (
	"os"
	"path/filepath"

	"github.com/corey/gourmand/internal/adapters/artifacts"
)

// Paths holds all resolved filesystem paths under the data directory.
// All fields are pre-computed strings.
type Paths struct {
	Root string `json:"root" yaml:"root"` // ~/.gourmand/
	DB   string `json:"db" yaml:"db"`     // ~/.gourmand/gourmand.db

	HistoryFile string `json:"history_file" yaml:"history_file"` // shell line history

	RunDir   string `json:"run_dir" yaml:"run_dir"`     // ~/.gourmand/run/
	AddrFile string `json:"addr_file" yaml:"addr_file"` // ~/.gourmand/run/http.addr
}

// NewPaths constructs all resolved paths from a data directory.
func NewPaths(dataDir string) *Paths {
	return &Paths{
		Root: dataDir,
		DB:   filepath.Join(dataDir, "gourmand.db"),

		HistoryFile: filepath.Join(dataDir, "history"),

		RunDir:   filepath.Join(dataDir, "run"),
		AddrFile: filepath.Join(dataDir, "run", "http.addr"),
	}
}

// ResolvePaths expands a leading "~" in dataDir and makes it absolute.
func ResolvePaths(dataDir string) (*Paths, error) {
	dir, err := artifacts.ExpandPath(dataDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return NewPaths(abs), nil
}

// EnsureDirs creates the data directory layout. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.RunDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes runtime discovery files.
// Called on clean shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.AddrFile)
}
