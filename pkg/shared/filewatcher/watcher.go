package filewatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change observed in the watched directory
type Op int

const (
	// OpAdd is reported when an entry appears (created or moved in)
	OpAdd Op = iota
	// OpRemove is reported when an entry disappears (deleted or moved away)
	OpRemove
	// OpChange is reported when an entry's content is written
	OpChange
)

// String returns the event name: add, unlink or change
func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "unlink"
	case OpChange:
		return "change"
	default:
		return "unknown"
	}
}

// ChangeEvent represents a change in the watched directory
type ChangeEvent struct {
	Path      string    // Path of the entry that changed
	Op        Op        // Kind of change
	Timestamp time.Time // Time the (debounced) event was dispatched
	Error     error     // Set when the underlying watcher reported an error
}

// ChangeListener receives change notifications. Each call runs on its own
// goroutine; Close waits for running calls, so a listener must not call
// Close itself.
type ChangeListener interface {
	OnFileChange(event ChangeEvent)
}

// ChangeListenerFunc adapts a function to ChangeListener
type ChangeListenerFunc func(event ChangeEvent)

// OnFileChange calls f(event)
func (f ChangeListenerFunc) OnFileChange(event ChangeEvent) { f(event) }

// ErrClosed is returned by Start after Close
var ErrClosed = errors.New("filewatcher: watcher closed")

// Watcher reports add/unlink/change events for the direct children of one
// directory. Entries that already exist when the watcher is created produce
// no events. When the directory does not exist yet, its parent is watched
// and the directory is attached as soon as it is created.
type Watcher struct {
	watcher       *fsnotify.Watcher
	dir           string
	debounceDelay time.Duration

	mu        sync.RWMutex
	listeners []ChangeListener
	attached  bool
	closed    bool
	running   sync.WaitGroup

	pendingMu sync.Mutex
	pending   *ChangeEvent
	timer     *time.Timer
}

// NewDirWatcher creates a watcher for dir. Events are coalesced over
// debounceDelay; zero dispatches every event immediately.
func NewDirWatcher(dir string, debounceDelay time.Duration) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:       fsWatcher,
		dir:           absDir,
		debounceDelay: debounceDelay,
	}

	if err := w.attach(); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

// attach watches the directory itself when it exists, otherwise its parent.
// A missing parent is not an error: the watcher then observes nothing.
func (w *Watcher) attach() error {
	info, err := os.Stat(w.dir)
	if err == nil && info.IsDir() {
		if err := w.watcher.Add(w.dir); err != nil {
			return fmt.Errorf("failed to add directory to watcher: %w", err)
		}
		w.mu.Lock()
		w.attached = true
		w.mu.Unlock()
		return nil
	}

	parent := filepath.Dir(w.dir)
	if _, err := os.Stat(parent); err == nil {
		if err := w.watcher.Add(parent); err != nil {
			return fmt.Errorf("failed to add parent directory to watcher: %w", err)
		}
	}
	return nil
}

// Dir returns the absolute path of the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// Attached reports whether the directory itself is being watched
func (w *Watcher) Attached() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attached
}

// AddListener registers a listener for change notifications
func (w *Watcher) AddListener(listener ChangeListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, listener)
}

// Start processes filesystem events until ctx is done or the watcher is
// closed. It blocks; run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return ErrClosed
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return ErrClosed
			}
			w.notifyListeners(ChangeEvent{
				Path:      w.dir,
				Timestamp: time.Now(),
				Error:     err,
			})
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	eventPath, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	// The directory itself appeared or went away
	if eventPath == w.dir {
		switch {
		case event.Has(fsnotify.Create) && !w.Attached():
			if err := w.watcher.Add(w.dir); err != nil {
				return
			}
			w.mu.Lock()
			w.attached = true
			w.mu.Unlock()
			w.schedule(ChangeEvent{Path: w.dir, Op: OpAdd})
		case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
			w.mu.Lock()
			w.attached = false
			w.mu.Unlock()
			_ = w.watcher.Remove(w.dir)
			_ = w.attach()
			w.schedule(ChangeEvent{Path: w.dir, Op: OpRemove})
		}
		return
	}

	// Only direct children of the directory are reported
	if filepath.Dir(eventPath) != w.dir {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		w.schedule(ChangeEvent{Path: eventPath, Op: OpAdd})
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.schedule(ChangeEvent{Path: eventPath, Op: OpRemove})
	case event.Has(fsnotify.Write):
		w.schedule(ChangeEvent{Path: eventPath, Op: OpChange})
	}
}

// schedule dispatches event now or after the debounce delay. During the
// delay a newer event replaces the pending one.
func (w *Watcher) schedule(event ChangeEvent) {
	if w.debounceDelay <= 0 {
		event.Timestamp = time.Now()
		w.notifyListeners(event)
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending = &event
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	event := w.pending
	w.pending = nil
	w.pendingMu.Unlock()

	if event == nil {
		return
	}
	event.Timestamp = time.Now()
	w.notifyListeners(*event)
}

func (w *Watcher) stopTimer() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = nil
}

// Close stops the watcher, waits for running listeners to return and
// releases its OS resources. Events dispatched after Close are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.stopTimer()
	err := w.watcher.Close()
	w.running.Wait()
	return err
}

func (w *Watcher) notifyListeners(event ChangeEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}
	for _, listener := range w.listeners {
		w.running.Add(1)
		go func() {
			defer w.running.Done()
			listener.OnFileChange(event)
		}()
	}
}
