package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce is how long the tree must be quiet before changes are reloaded;
// editors commonly write a file several times per save.
const debounce = 100 * time.Millisecond

// Reload is one change observed in the content tree.
//
// For a YAML change Library holds the freshly loaded content, or Err why it
// could not be loaded. For a Lua change only Path is set; the receiver
// reloads the script.
type Reload struct {
	Path    string
	Library *Library
	Err     error
}

// Script reports whether the change is to a Lua script.
func (r Reload) Script() bool { return isScriptFile(r.Path) }

// Watcher reloads a content tree when any of its files change.
type Watcher struct {
	dir     string
	fs      *fsnotify.Watcher
	reloads chan Reload
	logger  *zap.Logger
}

// NewWatcher watches dir, its enemies, classes and scripts subdirectories,
// and every scope directory under scripts.
//
// Precondition: dir must exist.
// Postcondition: Returns a Watcher whose Run has not started, or a non-nil error.
func NewWatcher(dir string, logger *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, err
	}
	for _, sub := range []string{"enemies", "classes", "scripts"} {
		path := filepath.Join(dir, sub)
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			continue
		}
		if err := fs.Add(path); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}
	scopes, _ := os.ReadDir(filepath.Join(dir, "scripts"))
	for _, e := range scopes {
		if !e.IsDir() {
			continue
		}
		if err := fs.Add(filepath.Join(dir, "scripts", e.Name())); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:     dir,
		fs:      fs,
		reloads: make(chan Reload, 16),
		logger:  logger,
	}, nil
}

// Reloads returns the channel on which changes are delivered. It is closed
// when Run returns.
func (w *Watcher) Reloads() <-chan Reload { return w.reloads }

// Run delivers reloads until ctx is cancelled or the underlying watcher fails.
//
// Events are coalesced: once the tree has been quiet for the debounce window,
// every changed script yields one Reload and any YAML change yields a single
// reload of the whole library.
//
// Postcondition: the fsnotify watcher is closed and Reloads is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.reloads)
	defer w.fs.Close()

	pending := make(map[string]struct{})
	quiet := time.NewTimer(debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && w.watchScriptScope(event.Name) {
				continue
			}
			if !isContentFile(event.Name) && !isScriptFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			quiet.Reset(debounce)
		case <-quiet.C:
			if !w.flush(ctx, pending) {
				return nil
			}
			clear(pending)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("content watcher overflow", zap.Error(err))
				continue
			}
			return err
		}
	}
}

// flush emits the reloads for pending paths. It returns false when ctx was
// cancelled before every reload was delivered.
func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) bool {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []Reload
	contentPath := ""
	for _, p := range paths {
		if isScriptFile(p) {
			out = append(out, Reload{Path: p})
		} else {
			contentPath = p
		}
	}
	if contentPath != "" {
		r := Reload{Path: contentPath}
		r.Library, r.Err = Load(w.dir)
		if r.Err != nil {
			w.logger.Warn("content reload failed", zap.String("path", contentPath), zap.Error(r.Err))
		} else {
			w.logger.Info("content reloaded", zap.String("path", contentPath))
		}
		out = append(out, r)
	}
	for _, r := range out {
		select {
		case w.reloads <- r:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// watchScriptScope adds a newly created directory under scripts/ to the
// watch list. It reports whether path was such a directory.
func (w *Watcher) watchScriptScope(path string) bool {
	if filepath.Dir(path) != filepath.Join(w.dir, "scripts") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if err := w.fs.Add(path); err != nil {
		w.logger.Warn("watching script scope", zap.String("path", path), zap.Error(err))
	}
	return true
}

func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".lua")
}
