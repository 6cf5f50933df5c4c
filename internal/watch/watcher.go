// Package watch reports WAD and zip archives appearing under or disappearing
// from a directory tree.
package watch

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"wadindex/internal/index"
	"wadindex/internal/logging"
)

// Kind describes what happened to a file.
type Kind int

const (
	Added   Kind = iota // created or rewritten
	Removed             // deleted or renamed away
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one settled file event.
type Change struct {
	Kind Kind
	Path string
}

const debounce = 100 * time.Millisecond

// Watcher monitors a directory tree with fsnotify. Directories created after
// Start are watched as they appear.
type Watcher struct {
	Root    string
	Changes <-chan Change

	changes chan Change
	stop    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// New creates a watcher for root. Call Start to begin delivering changes.
func New(root string, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan Change, 16)
	return &Watcher{
		Root:    abs,
		Changes: ch,
		changes: ch,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		watcher: fw,
		logger:  logging.NewComponentLogger(logger, "watch"),
	}, nil
}

// Start registers every directory under Root and starts the event loop.
func (w *Watcher) Start() error {
	if _, err := w.addTree(w.Root); err != nil {
		_ = w.watcher.Close()
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. Pending changes that no
// one receives are dropped.
func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.watcher.Close()
	<-w.done
	close(w.changes)
}

// addTree watches dir and all directories below it and returns the candidate
// files already present.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var existing []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Debug("skipping unreadable path", logging.String(logging.FieldPath, path), logging.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		if index.IsCandidate(path) {
			existing = append(existing, path)
		}
		return nil
	})
	return existing, err
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for path := range pending {
					w.emit(path)
				}
				return
			}
			w.handle(event, pending)

		case <-ticker.C:
			now := time.Now()
			for path, seen := range pending {
				if now.Sub(seen) >= debounce {
					delete(pending, path)
					w.emit(path)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "file watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches if directories are missing"),
				logging.String(logging.FieldImpact, "some changes may go unnoticed until the next scan"))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			existing, err := w.addTree(event.Name)
			if err != nil {
				w.logger.Debug("failed to watch new directory",
					logging.String(logging.FieldPath, event.Name), logging.Error(err))
			}
			now := time.Now()
			for _, path := range existing {
				pending[path] = now
			}
			return
		}
	}
	if !index.IsCandidate(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		pending[event.Name] = time.Now()
	}
}

func (w *Watcher) emit(path string) {
	change := Change{Kind: Added, Path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		change.Kind = Removed
	}
	select {
	case w.changes <- change:
	case <-w.stop:
	}
}
