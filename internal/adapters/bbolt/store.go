// Package bbolt implements the ports.Storage interface using bbolt (embedded B+ tree).
// Two top-level buckets hold JSON-serialized records: "sessions" keyed by session
// id and "recipes" keyed by file stem. Writes are transactional: a crash mid-write
// cannot corrupt previously committed data.
package bbolt

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

// Bucket keys
var (
	bucketSessions = []byte("sessions")
	bucketRecipes  = []byte("recipes")
)

// Store implements ports.Storage backed by bbolt.
type Store struct {
	db   *bolt.DB
	path string
}

var _ ports.Storage = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
// A held file lock surfaces as an ErrCodeLocked error after a short wait.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: defaults.DBLockTimeout})
	if err != nil {
		if stderrors.Is(err, bolt.ErrTimeout) {
			return nil, errors.WrapWithContext(errors.ErrCodeLocked,
				"database is locked by another process", err, map[string]any{"path": path})
		}
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketSessions, bucketRecipes} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init buckets: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// SaveSession persists a session, overwriting any prior copy.
func (s *Store) SaveSession(sess *ports.Session) error {
	if sess == nil {
		return fmt.Errorf("nil session")
	}
	if sess.ID == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "session has no id")
	}
	return s.put(bucketSessions, sess.ID, sess)
}

// LoadSession retrieves a session by ID.
// Returns nil, nil if no session exists.
func (s *Store) LoadSession(id string) (*ports.Session, error) {
	var sess ports.Session
	ok, err := s.get(bucketSessions, id, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *Store) ListSessions() ([]*ports.Session, error) {
	var out []*ports.Session
	err := s.each(bucketSessions, func(k, v []byte) error {
		var sess ports.Session
		if err := json.Unmarshal(v, &sess); err != nil {
			return fmt.Errorf("unmarshal session %q: %w", k, err)
		}
		out = append(out, &sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// DeleteSession removes a session.
// Idempotent: deleting a nonexistent session is not an error.
func (s *Store) DeleteSession(id string) error {
	return s.delete(bucketSessions, id)
}

// SaveRecipe persists a recipe record keyed by its stem. A later recipe with
// the same stem replaces the earlier one, as its files do on disk.
func (s *Store) SaveRecipe(r *ports.RecipeRecord) error {
	if r == nil {
		return fmt.Errorf("nil recipe")
	}
	if r.Stem == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "recipe has no stem")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return s.put(bucketRecipes, r.Stem, r)
}

// LoadRecipe retrieves a recipe by stem. Returns nil, nil if absent.
func (s *Store) LoadRecipe(stem string) (*ports.RecipeRecord, error) {
	var r ports.RecipeRecord
	ok, err := s.get(bucketRecipes, stem, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// ListRecipes returns all recipes, newest first.
func (s *Store) ListRecipes() ([]*ports.RecipeRecord, error) {
	var out []*ports.RecipeRecord
	err := s.each(bucketRecipes, func(k, v []byte) error {
		var r ports.RecipeRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("unmarshal recipe %q: %w", k, err)
		}
		out = append(out, &r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteRecipe removes a recipe record. Idempotent.
func (s *Store) DeleteRecipe(stem string) error {
	return s.delete(bucketRecipes, stem)
}

// Wipe removes every session and recipe.
func (s *Store) Wipe() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSessions, bucketRecipes} {
			if err := tx.DeleteBucket(name); err != nil && !stderrors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) put(bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", bucket, key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// get decodes the value at key into v. ok is false when the key is absent.
func (s *Store) get(bucket []byte, key string, v any) (ok bool, err error) {
	var data []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if raw := b.Get([]byte(key)); raw != nil {
			data = make([]byte, len(raw))
			copy(data, raw)
		}
		return nil
	})
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

// each calls fn for every key in bucket. Values are only valid inside fn.
func (s *Store) each(bucket []byte, fn func(k, v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(fn)
	})
}

func (s *Store) delete(bucket []byte, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
