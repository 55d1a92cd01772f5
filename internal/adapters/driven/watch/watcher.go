// Package watch flags the knowledge base stale when its source files
// change on disk. The next question or explicit rebuild then picks up
// the change; the watcher itself never triggers ingestion.
package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// staleMarker is the single callback a source change triggers.
// Implemented by the ingest service.
type staleMarker interface {
	MarkStale()
}

// Watcher observes the docs directory and the corpus file.
type Watcher struct {
	fs     *fsnotify.Watcher
	target staleMarker

	docsDir    string
	corpusPath string

	done chan struct{}
}

// New creates a watcher over the docs directory and the corpus file.
// The docs directory must exist; a missing corpus file is tolerated and
// picked up through its parent directory.
func New(docsDir, corpusPath string, target staleMarker) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:         fs,
		target:     target,
		docsDir:    docsDir,
		corpusPath: corpusPath,
		done:       make(chan struct{}),
	}

	if err := fs.Add(docsDir); err != nil {
		fs.Close()
		return nil, err
	}
	// Watch the corpus through its parent so create/replace is seen even
	// when the file does not exist yet.
	if dir := filepath.Dir(corpusPath); dir != docsDir {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, err
		}
	}

	return w, nil
}

// Start runs the event loop in a goroutine until Close.
func (w *Watcher) Start() {
	go w.loop()
}

// loop consumes filesystem events and marks the index stale on relevant
// ones.
func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				logger.Debug("Source change detected: %s %s", event.Op, event.Name)
				w.target.MarkStale()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// relevant reports whether the event touches a knowledge base source.
// Chmod-only events are noise.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Name == w.corpusPath {
		return true
	}
	inDocs := filepath.Dir(event.Name) == w.docsDir
	return inDocs && strings.EqualFold(filepath.Ext(event.Name), ".pdf")
}

// Close stops the event loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}
