package hclfs

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/log"
)

// DefaultDebounce is how long Watch waits for a burst of changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watch calls onChange after every burst of changes to module files below dirs, until
// ctx is done. Directories created later are watched too. An error from onChange stops
// watching and is returned.
func Watch(ctx context.Context, l log.Logger, dirs []string, debounce time.Duration, onChange func(ctx context.Context) error) error {
	l = log.OrDiscard(l)

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New(err)
	}
	defer watcher.Close() //nolint:errcheck

	for _, dir := range dirs {
		if err := addWatchesRecursive(l, watcher, dir); err != nil {
			return err
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if err := addWatchesRecursive(l, watcher, event.Name); err != nil {
					l.Warnf("Failed to watch %s: %v", event.Name, err)
				}
			}

			if !isModuleEvent(event) {
				continue
			}

			l.Tracef("Module tree changed: %s", event)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			l.Warnf("Watcher error: %v", err)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				return err
			}
		}
	}
}

// addWatchesRecursive watches root and every directory below it, skipping hidden ones.
// A root that is not a directory is ignored.
func addWatchesRecursive(l log.Logger, watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return nil
			}

			return err
		}

		if !entry.IsDir() {
			return nil
		}

		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}

		if err := watcher.Add(path); err != nil {
			return errors.New(err)
		}

		l.Tracef("Watching directory %s", path)

		return nil
	})
}

func isModuleEvent(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}

	// removed or created directories change the package layout
	return filepath.Ext(base) == FileExt || filepath.Ext(base) == ""
}
