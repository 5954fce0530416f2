// Package watch re-indexes documents as they are written.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/calvinalkan/probcat/internal/catalog"
)

// Reindexer refreshes the stored entry for a document path.
type Reindexer interface {
	Reindex(path string) (catalog.Entry, error)
}

// Watcher follows the base directory tree with fsnotify.
type Watcher struct {
	base   string
	ext    string
	target Reindexer
	log    *slog.Logger
	fsw    *fsnotify.Watcher
}

// New returns a Watcher for documents with extension ext under base.
func New(base, ext string, target Reindexer, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Watcher{base: base, ext: ext, target: target, log: log, fsw: fsw}, nil
}

// Run watches until ctx is canceled. onIndexed, if non-nil, is called for
// every entry refreshed. Documents that fail to parse are logged and skipped.
func (w *Watcher) Run(ctx context.Context, onIndexed func(catalog.Entry)) error {
	defer func() { _ = w.fsw.Close() }()

	err := w.addRecursive(w.base)
	if err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			entry, indexed := w.handle(event)
			if indexed && onIndexed != nil {
				onIndexed(entry)
			}
		case watchErr, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.log.Warn("watcher error", "error", watchErr)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) (catalog.Entry, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return catalog.Entry{}, false
	}

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if !hidden(info.Name()) {
				addErr := w.addRecursive(event.Name)
				if addErr != nil {
					w.log.Warn("cannot watch directory", "path", event.Name, "error", addErr)
				}
			}

			return catalog.Entry{}, false
		}
	}

	if filepath.Ext(event.Name) != w.ext || hidden(filepath.Base(event.Name)) {
		return catalog.Entry{}, false
	}

	entry, err := w.target.Reindex(event.Name)
	if err != nil {
		w.log.Warn("cannot reindex document", "path", event.Name, "error", err)

		return catalog.Entry{}, false
	}

	w.log.Info("reindexed document", "path", event.Name, "source", entry.Source)

	return entry, true
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}

		if !entry.IsDir() {
			return nil
		}

		if path != root && hidden(entry.Name()) {
			return filepath.SkipDir
		}

		return w.fsw.Add(path)
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
