package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Store persists save records keyed by character ID.
type Store interface {
	// Save writes r, replacing any earlier record for the same character.
	Save(ctx context.Context, r Record) error
	// Load returns the record for id, or an error wrapping ErrSaveNotFound.
	Load(ctx context.Context, id uuid.UUID) (Record, error)
}

// FileStore keeps one YAML file per character in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted there.
//
// Precondition: dir must be non-empty.
// Postcondition: Returns a usable FileStore or a non-nil error.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("save directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".yaml")
}

// Save writes r atomically by renaming a temporary file over the target.
//
// Precondition: r must pass Validate.
func (s *FileStore) Save(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := Encode(r)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("creating temp save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing save %s: %w", r.CharacterID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing save %s: %w", r.CharacterID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(r.CharacterID)); err != nil {
		return fmt.Errorf("replacing save %s: %w", r.CharacterID, err)
	}
	return nil
}

// Load reads and upgrades the record for id.
//
// Postcondition: Returns an error wrapping ErrSaveNotFound when no file exists.
func (s *FileStore) Load(ctx context.Context, id uuid.UUID) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, fmt.Errorf("%w: %s", ErrSaveNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading save %s: %w", id, err)
	}
	r, err := Decode(data)
	if err != nil {
		return Record{}, fmt.Errorf("save %s: %w", id, err)
	}
	return r, nil
}

// List returns the IDs of every stored character, sorted.
func (s *FileStore) List(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	var ids []uuid.UUID
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".yaml")
		if e.IsDir() || !ok {
			continue
		}
		id, err := uuid.Parse(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	return ids, nil
}

// Delete removes the record for id.
//
// Postcondition: Returns an error wrapping ErrSaveNotFound when no file exists.
func (s *FileStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSaveNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("deleting save %s: %w", id, err)
	}
	return nil
}
