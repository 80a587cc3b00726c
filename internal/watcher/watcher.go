// Package watcher reports debounced changes to files in one directory.
package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"wsnav/internal/pathutil"
)

type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

type Event struct {
	Path      string
	Name      string
	Op        Op
	Timestamp time.Time
}

type Watcher struct {
	dir       string
	fsWatcher *fsnotify.Watcher
	events    chan Event
	include   func(name string) bool
	debounce  time.Duration
	pending   map[string]Event
	stop      chan struct{}
	stopped   chan struct{}
}

// New watches dir. include filters on base names; nil accepts everything.
func New(dir string, include func(name string) bool, debounce time.Duration) (*Watcher, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("watch dir required")
	}
	dir = pathutil.Canonical(dir)
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:       dir,
		fsWatcher: fsw,
		events:    make(chan Event, 100),
		include:   include,
		debounce:  debounce,
		pending:   make(map[string]Event),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		_ = w.fsWatcher.Close()
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.fsWatcher.Close()
	<-w.stopped
}

func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) run() {
	defer close(w.events)
	defer close(w.stopped)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ev)
		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				continue
			}
		case now := <-ticker.C:
			if !w.flushPending(now) {
				return
			}
		}
	}
}

func (w *Watcher) handleFsEvent(ev fsnotify.Event) {
	if strings.TrimSpace(ev.Name) == "" {
		return
	}
	name := filepath.Base(ev.Name)
	if w.include != nil && !w.include(name) {
		return
	}

	// Atomic writes land as a create or rename of the final name, so a
	// remove is only reported if nothing replaces the file before flush.
	switch {
	case ev.Op&fsnotify.Create != 0:
		w.queue(name, ev.Name, OpCreate)
	case ev.Op&fsnotify.Write != 0:
		w.queue(name, ev.Name, OpModify)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.queue(name, ev.Name, OpDelete)
	}
}

func (w *Watcher) queue(name, path string, op Op) {
	if existing, ok := w.pending[name]; ok {
		if existing.Op == OpCreate && op == OpModify {
			op = OpCreate
		} else if existing.Op == OpDelete && op != OpDelete {
			op = OpModify
		}
	}
	w.pending[name] = Event{
		Path:      path,
		Name:      name,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (w *Watcher) flushPending(now time.Time) bool {
	for name, event := range w.pending {
		if now.Sub(event.Timestamp) < w.debounce {
			continue
		}
		delete(w.pending, name)
		if !w.emit(event) {
			return false
		}
	}
	return true
}

func (w *Watcher) emit(event Event) bool {
	select {
	case w.events <- event:
		return true
	case <-w.stop:
		return false
	}
}
