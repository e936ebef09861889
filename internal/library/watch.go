package library

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watcher is the part of *fsnotify.Watcher the library keeps a handle on.
type watcher interface {
	Close() error
}

// Watch starts reloading the library whenever its file changes. Watcher
// construction failure is not fatal: the library keeps serving the tables
// loaded at startup.
func (l *Library) Watch() {
	if l.path == "" {
		return
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[library] watcher unavailable, hot reload disabled: %v", err)
		return
	}

	// Watch the directory: editors replace files by rename, which only the
	// parent directory observes as a create.
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		log.Printf("[library] cannot watch %s, hot reload disabled: %v", dir, err)
		w.Close()
		return
	}

	l.watcher = w
	go l.watchLoop(w)
}

func (l *Library) watchLoop(w *fsnotify.Watcher) {
	base := filepath.Base(l.path)
	for {
		select {
		case <-l.done:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if err := l.Reload(); err != nil {
				log.Printf("[library] reload after change failed: %v", err)
			}
		case <-w.Errors:
			// Ignore errors, keep watching
		}
	}
}
