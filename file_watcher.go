package formts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher emits the contents of a file holding initial form values.
// The parent directory is watched, so editors that save by renaming a
// temporary file over the original are followed.
type FileWatcher struct {
	path        string
	emitMissing bool
}

// FileWatcherOption configures a FileWatcher.
type FileWatcherOption func(*FileWatcher)

// FileDefaultsWhenMissing makes the watcher emit "{}" when the file is
// absent or removed, resetting a bound form to its defaults.
func FileDefaultsWhenMissing() FileWatcherOption {
	return func(w *FileWatcher) {
		w.emitMissing = true
	}
}

// NewFileWatcher creates a FileWatcher for path.
func NewFileWatcher(path string, opts ...FileWatcherOption) *FileWatcher {
	w := &FileWatcher{path: filepath.Clean(path)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// read returns the file contents, the missing marker, or ok=false when
// there is nothing to emit. An empty file is a write still in progress.
func (w *FileWatcher) read() (data []byte, ok bool) {
	data, err := os.ReadFile(w.path)
	switch {
	case err == nil:
		return data, len(data) > 0
	case errors.Is(err, fs.ErrNotExist) && w.emitMissing:
		return []byte("{}"), true
	default:
		return nil, false
	}
}

// Watch begins watching the file and returns a channel that emits its
// contents whenever they change. The current contents are emitted first
// so a bound form loads before Bind returns. Writes that leave the
// contents unchanged are not emitted, nor is an empty file.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	if _, err := os.Stat(w.path); err != nil && !(w.emitMissing && errors.Is(err, fs.ErrNotExist)) {
		return nil, fmt.Errorf("failed to watch file %s: %w", w.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory of %s: %w", w.path, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Close()

		var last []byte
		emit := func() bool {
			data, ok := w.read()
			if !ok || (last != nil && bytes.Equal(last, data)) {
				return true
			}
			last = data
			return send(ctx, out, data)
		}

		if !emit() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if !emit() {
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}
