package evolution

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates the store cache when the state file changes on disk
// and reports the reloaded document to a callback. It watches the parent
// directory rather than the file itself so atomic rename-into-place writes
// are observed.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching the state file at path. onChange is invoked with a
// fresh snapshot after every observed write, create, or rename of the file.
func (s *Store) Watch(path string, onChange func(*Snapshot)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{fw: fw, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(abs) {
					continue
				}
				if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
					continue
				}
				s.Invalidate(path)
				if onChange != nil {
					onChange(s.Load(path))
				}
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
				// Watch errors are non-fatal; the next guard pass
				// re-reads after the cache TTL anyway.
			}
		}
	}()

	return w, nil
}

// Close stops the watcher and waits for its event loop to exit.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
