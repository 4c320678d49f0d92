package dataset

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gridscout/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates the repository cache when dataset files change on
// disk. Archive restores and hand edits land without a restart.
type Watcher struct {
	repo    *Repository
	watcher *fsnotify.Watcher

	mu          sync.Mutex
	debounce    map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the repository's dataset directory.
func NewWatcher(repo *Repository) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		repo:        repo,
		watcher:     fw,
		debounce:    make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // collapse editor save bursts
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.repo.Dir()); err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	log := logging.Get(logging.CategoryDataset)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if w.debounced(event.Name) {
				continue
			}

			eventKey := strings.TrimSuffix(filepath.Base(event.Name), ".json")
			w.repo.Invalidate(eventKey)
			log.Debug("dataset cache invalidated",
				zap.String("event", eventKey),
				zap.String("op", event.Op.String()))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

// debounced reports whether an event for path arrived within the debounce
// window of the previous one.
func (w *Watcher) debounced(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.debounce[path]; ok && now.Sub(last) < w.debounceDur {
		return true
	}
	w.debounce[path] = now
	return false
}
