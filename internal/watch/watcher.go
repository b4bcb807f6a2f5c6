// Package watch turns fsnotify activity into typed catalog events.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"goslide/internal/scan"
)

// EventType classifies a catalog change.
type EventType int

const (
	// Created covers new files and files moved into the tree.
	Created EventType = iota
	// Removed covers deleted files and files moved out of the tree.
	Removed
)

func (t EventType) String() string {
	if t == Removed {
		return "removed"
	}
	return "created"
}

// Event is one catalog change for an image file.
type Event struct {
	Type EventType
	Path string
}

// Watcher observes a directory tree and emits Events for files that
// pass the catalog filter. Events are delivered on a buffered channel;
// the consumer is the slideshow's single dispatch loop.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	events    chan Event
	stop      chan struct{}
	accept    scan.Filter
	logger    *logrus.Logger

	mu      sync.Mutex
	wg      sync.WaitGroup
	running bool
}

// New creates a watcher over root and all its subdirectories.
// accept decides which paths are worth reporting; it should be the
// same filter the catalog scan used.
func New(root string, accept scan.Filter, logger *logrus.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		events:    make(chan Event, 64),
		stop:      make(chan struct{}),
		accept:    accept,
		logger:    logger,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the channel delivering catalog changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start launches the event translation loop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts the watcher and waits for the translation loop to exit.
// The loop goroutine is the only sender on the event channel and closes
// it on its way out, so a late emit can never hit a closed channel.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stop)
	if err := w.fsWatcher.Close(); err != nil {
		w.logger.WithError(err).Error("closing fsnotify watcher")
	}
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	defer close(w.events)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("fsnotify error")
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		// Files often arrive as an empty Create followed by Writes, so
		// both ops can announce a new image. The consumer drops
		// duplicates for paths it already holds.
		info, err := os.Stat(event.Name)
		if err != nil {
			// Gone already; a Remove event will follow if we knew it.
			return
		}
		if info.IsDir() {
			if !event.Op.Has(fsnotify.Create) {
				return
			}
			// Files may land in the new directory before its watch is
			// registered, so sweep it once after adding.
			if err := w.addTree(event.Name); err != nil {
				w.logger.WithField("dir", event.Name).WithError(err).Warn("watching new directory")
			}
			w.sweep(event.Name)
			return
		}
		if w.accept(event.Name) && info.Size() > 0 {
			w.emit(Event{Type: Created, Path: event.Name})
		}
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// Rename delivers the old name, which is gone from the tree
		// either way. A move within the tree produces a Create too.
		if w.accept(event.Name) {
			w.emit(Event{Type: Removed, Path: event.Name})
		}
	}
}

// sweep emits Created for images already present under dir.
func (w *Watcher) sweep(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.accept(p) {
			w.emit(Event{Type: Created, Path: p})
		}
		return nil
	})
}

func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
		w.logger.WithFields(logrus.Fields{"path": e.Path, "event": e.Type.String()}).Debug("catalog event")
	default:
		w.logger.WithField("path", e.Path).Warn("event channel full, dropped event")
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
