package babylon

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of events, e.g. editors writing a file in
// several steps.
const watchDebounce = 250 * time.Millisecond

// Watch watches dirs for created or written message files and calls onChange
// with the last changed path once events settle. It returns when ctx is done.
//
// If ready is non-nil, a value is sent after all directories are watched,
// allowing callers to synchronize without time.Sleep.
func Watch(ctx context.Context, dirs []string, onChange func(path string), ready chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	if ready != nil {
		ready <- struct{}{}
	}

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()
	var pending string

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !SupportedExtension(event.Name) {
				continue
			}
			LogDebug("watch: %s %s", event.Op, event.Name)
			pending = event.Name
			timer.Reset(watchDebounce)
		case <-timer.C:
			if pending != "" {
				onChange(pending)
				pending = ""
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			LogWarn("watch: %v", err)
		}
	}
}

// WatchDirs returns the directories holding the given message files, each
// once, in first-seen order.
func WatchDirs(root string, paths []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		d := Resolve(root, filepath.FromSlash(path.Dir(p)))
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
