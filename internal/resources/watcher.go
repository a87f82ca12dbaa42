package resources

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/toolgate/toolgate/internal/logger"
)

const DefaultDebounceWindow = 300 * time.Millisecond

// Watcher invalidates the store's cached listing when files under the root
// change. Bursts of events collapse into a single invalidation.
type Watcher struct {
	store    *Store
	fsw      *fsnotify.Watcher
	fswMu    sync.Mutex
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	cancel  context.CancelFunc
}

func NewWatcher(store *Store, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}
	return &Watcher{
		store:    store,
		fsw:      fsw,
		debounce: debounce,
		log:      logger.ForComponent("watcher"),
	}, nil
}

// Start registers the store's root tree and consumes events until Stop or
// ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	if err := w.addTree(w.store.Root()); err != nil {
		return err
	}

	w.log.Info("watching resources root", "root", w.store.Root())
	go w.handleEvents(ctx)
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.ignored(p) {
			return filepath.SkipDir
		}
		if err := w.add(p); err != nil {
			w.log.Debug("failed to watch directory", "path", p, "error", err)
		}
		return nil
	})
}

func (w *Watcher) add(path string) error {
	w.fswMu.Lock()
	defer w.fswMu.Unlock()
	return w.fsw.Add(path)
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.store.Root(), path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	for _, pattern := range w.store.ignore {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}

			// New directories join the watch set so nested changes keep
			// arriving.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Debug("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			w.scheduleInvalidate()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watcher errors degrade the cache, not the server: the next
			// listing walks the tree again.
			w.log.Warn("watch error", "error", err)
			w.store.Invalidate()
		}
	}
}

func (w *Watcher) scheduleInvalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.log.Debug("resource listing invalidated")
		w.store.Invalidate()
	})
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	w.fswMu.Lock()
	defer w.fswMu.Unlock()
	return w.fsw.Close()
}
