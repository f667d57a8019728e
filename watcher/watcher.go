// Package watcher reports file changes under a directory tree.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

type Watcher struct {
	// Extensions limits reported files, e.g. ".go". Empty reports every file.
	Extensions []string
	Root       string
	// Skip lists directory names never descended into, on top of hidden directories.
	Skip []string
}

// Run watches w.Root until ctx is cancelled, calling onChange for every write, create or
// rename of a matching file. onChange runs on the watcher goroutine.
func (w Watcher) Run(ctx context.Context, onChange func(path string)) error {
	logger := log.Ctx(ctx)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	root := w.Root
	if root == "" {
		root = "."
	}
	if err := w.addTree(watcher, root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	logger.Info().Str("root", root).Msg("Watcher started. Monitoring for changes...")

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("closing watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						logger.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("file changed")
			onChange(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipped(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (w Watcher) matches(path string) bool {
	if len(w.Extensions) == 0 {
		return true
	}
	return slices.Contains(w.Extensions, filepath.Ext(path))
}

func (w Watcher) skipped(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || slices.Contains(w.Skip, name)
}
