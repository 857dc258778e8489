// Package watch re-runs an action whenever a local repository's refs move.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/statetree/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

type Options struct {
	Delay  time.Duration
	Logger *slog.Logger
}

// LocalPath returns the directory behind rootURL when it names a
// repository on this machine: a file:// URL or an existing directory.
func LocalPath(rootURL string) (string, bool) {
	if path, ok := strings.CutPrefix(rootURL, "file://"); ok {
		rootURL = filepath.FromSlash(path)
	} else if strings.Contains(rootURL, "://") {
		return "", false
	}
	info, err := os.Stat(rootURL)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return rootURL, true
}

// Paths lists the directories to watch for root, which may be a work tree
// or a bare repository. fsnotify is not recursive, so ref directories are
// listed on their own.
func Paths(root string) []string {
	if root == "" {
		return nil
	}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		gitDir = root
	}
	var paths []string
	for _, dir := range []string{
		gitDir,
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			paths = append(paths, dir)
		}
	}
	return paths
}

func shouldIgnore(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}

// Run calls fn once, then again after every settled burst of changes under
// root, until ctx is done. Errors from fn are logged and do not stop the
// loop.
func Run(ctx context.Context, root string, opts Options, fn func(context.Context) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Error("watcher close", slog.Any("error", err))
		}
	}()
	paths := Paths(root)
	if len(paths) == 0 {
		return fmt.Errorf("watch %s: not a directory", root)
	}
	for _, path := range paths {
		logger.Debug("adding path to FS watcher", slog.String("path", path))
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	reload := make(chan struct{}, 1)
	d := debounce.New(delay, func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	})
	defer d.Stop()

	runOnce := func() {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watch run failed", slog.Any("error", err))
		}
	}
	runOnce()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || shouldIgnore(ev.Name) {
				continue
			}
			logger.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			d.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("fsnotify error", slog.Any("error", err))
		case <-reload:
			logger.Debug("repository changed, running again", slog.String("root", root))
			runOnce()
		}
	}
}
