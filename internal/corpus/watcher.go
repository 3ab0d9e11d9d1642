package corpus

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gopherai-training/internal/app"
)

const DefaultDebounce = 500 * time.Millisecond

type action int

const (
	actionNone action = iota
	actionIngest
	actionRemove
)

// Watcher ingests supported files dropped into a directory. The file name becomes the
// document name; rewriting a file replaces the document, deleting it removes it.
type Watcher struct {
	dir      string
	ingester Ingester
	category string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	paths   map[string]*sync.Mutex
	wg      sync.WaitGroup
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithDefaultCategory(category string) WatcherOption {
	return func(w *Watcher) { w.category = category }
}

func NewWatcher(dir string, ingester Ingester, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		ingester: ingester,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
		paths:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run ingests the files already present and then follows changes until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir failed: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher failed: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s failed: %w", w.dir, err)
	}

	w.scan(ctx)

	defer w.wg.Wait()
	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.schedule(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("drop folder watcher error: %v", err)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.Printf("scan drop folder failed: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || hidden(e.Name()) || !supported(e.Name()) {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, e.Name()))
	}
}

// schedule coalesces bursts of events for one path.
func (w *Watcher) schedule(ctx context.Context, event fsnotify.Event) {
	act := classify(event)
	if act == actionNone {
		return
	}
	path := event.Name

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.clearPending(path, &timer)

		if ctx.Err() != nil {
			return
		}
		if act == actionRemove {
			w.remove(ctx, path)
			return
		}
		w.ingest(ctx, path)
	})
	w.pending[path] = timer
}

// clearPending leaves a newer timer's entry in place. *timer is read under w.mu.
func (w *Watcher) clearPending(path string, timer **time.Timer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending[path] == *timer {
		delete(w.pending, path)
	}
}

func (w *Watcher) lockPath(path string) func() {
	w.mu.Lock()
	l, ok := w.paths[path]
	if !ok {
		l = &sync.Mutex{}
		w.paths[path] = l
	}
	w.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	defer w.lockPath(path)()
	w.apply(ctx, path)
}

func (w *Watcher) apply(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	content, pages, err := readDocument(path)
	if err != nil {
		log.Printf("drop folder: %v", err)
		return
	}
	name := filepath.Base(path)
	if w.ingester.HasDocument(name, content) {
		return
	}
	res, err := w.ingester.ReplaceByName(ctx, app.IngestInput{
		Name:      name,
		Content:   content,
		Category:  w.category,
		PageCount: pages,
	})
	if err != nil {
		log.Printf("drop folder ingest %s failed: %v", name, err)
		return
	}
	log.Printf("drop folder ingested %s as %s", name, res.DocumentID)
}

func (w *Watcher) remove(ctx context.Context, path string) {
	defer w.lockPath(path)()
	if _, err := os.Stat(path); err == nil {
		// Renamed back or recreated before the debounce fired.
		w.apply(ctx, path)
		return
	}
	name := filepath.Base(path)
	if n := w.ingester.RemoveByName(ctx, name); n > 0 {
		log.Printf("drop folder removed %s (%d documents)", name, n)
	}
}

func classify(event fsnotify.Event) action {
	base := filepath.Base(event.Name)
	if hidden(base) || !supported(base) {
		return actionNone
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return actionRemove
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return actionIngest
	default:
		return actionNone
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}
