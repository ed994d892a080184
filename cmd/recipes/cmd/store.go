package cmd

import (
	"github.com/corey/gourmand/internal/adapters/bbolt"
	"github.com/corey/gourmand/internal/app"
)

// withStore opens the database for the duration of fn.
func (c *cli) withStore(fn func(*bbolt.Store) error) error {
	paths, err := app.ResolvePaths(c.cfg.DataDir)
	if err != nil {
		return err
	}
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	store, err := app.OpenStore(paths)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
