// Package socketwatch watches filesystem paths relevant to the transport:
// a server socket path that may go stale (removed out from under a live
// listener) and a Manifest file an operator wants reloaded on edit.
// file: internal/socketwatch/socketwatch.go
package socketwatch

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
)

// Watcher wraps fsnotify to deliver Removed/Created/Changed events for a
// single path.
type Watcher struct {
	path    string
	fw      *fsnotify.Watcher
	logger  logging.Logger
	Removed chan struct{}
	Created chan struct{}
	Changed chan struct{}
}

// New starts watching the directory containing path and filters events down
// to that single entry.
func New(path string, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, janerr.NewTransportError("create filesystem watcher", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, janerr.NewTransportError("watch directory", err).WithContext("dir", dir)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		fw:      fw,
		logger:  logger.WithField("component", "socketwatch"),
		Removed: make(chan struct{}, 1),
		Created: make(chan struct{}, 1),
		Changed: make(chan struct{}, 1),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				w.notify(w.Removed)
			case ev.Op&fsnotify.Create != 0:
				w.notify(w.Created)
			case ev.Op&(fsnotify.Write|fsnotify.Rename) != 0:
				w.notify(w.Changed)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("socketwatch error", "error", err)
		}
	}
}

func (w *Watcher) notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Close stops the watcher and releases its fsnotify resources.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
