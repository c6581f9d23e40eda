package dictionary

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a terminology store directory and rebuilds the dictionary
// whenever a .jsonl file is created, rewritten, or removed. The store is
// append-only from the application's point of view; the in-memory table is
// replaced whole on every change, never mutated in place.
type Watcher struct {
	dir      string
	opts     []Option
	onReload func(*Dictionary)

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// Watch loads the store at dir and starts watching it for changes. onReload
// is invoked with a freshly loaded [Dictionary] after every relevant change;
// it is called from the watcher goroutine, so it must be quick or hand off.
//
// The initial load is performed synchronously and handed to onReload before
// Watch returns, so callers always observe a populated dictionary first.
func Watch(dir string, onReload func(*Dictionary), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:      dir,
		opts:     opts,
		onReload: onReload,
		fsw:      fsw,
		done:     make(chan struct{}),
	}

	onReload(Load(dir, opts...))

	go w.run()
	return w, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// run consumes filesystem events until the watcher is closed.
func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isStoreFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Info("dictionary store changed, reloading", "file", event.Name, "op", event.Op.String())
			w.onReload(Load(w.dir, w.opts...))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("dictionary watcher error", "err", err)
		}
	}
}

// isStoreFile reports whether path names a terminology store file.
func isStoreFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}
