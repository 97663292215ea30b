package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/rag"

	"github.com/fsnotify/fsnotify"
)

// Change reports that something under an assistant's directory changed outside the registry.
type Change struct {
	Assistant string
	Filename  string
	Op        string
}

// Watcher follows the corpus root and every assistant directory below it. It only observes;
// callers decide what a change means (usually: invalidate cached listings).
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	logger  logger.ILogger
}

func NewWatcher(root string, log logger.ILogger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{root: root, watcher: w, logger: log}, nil
}

// Run blocks until ctx is done, calling onChange for every create, write, remove or rename.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) error {
	defer w.watcher.Close()

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() && rag.IsValidAssistantName(e.Name()) {
			w.add(filepath.Join(w.root, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			change, ok := w.classify(event)
			if !ok {
				continue
			}
			if change.Filename == "" && event.Op&fsnotify.Create == fsnotify.Create {
				w.add(event.Name)
			}
			onChange(change)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("CORPUS_WATCHER", "fsnotify error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *Watcher) add(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("CORPUS_WATCHER", "Failed to watch directory", map[string]interface{}{
			"dir":   dir,
			"error": err.Error(),
		})
	}
}

func (w *Watcher) classify(event fsnotify.Event) (Change, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return Change{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if !rag.IsValidAssistantName(parts[0]) {
		return Change{}, false
	}

	change := Change{Assistant: parts[0]}
	if len(parts) > 1 {
		change.Filename = parts[len(parts)-1]
		if isTemp(change.Filename) {
			return Change{}, false
		}
	}

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		change.Op = "create"
	case event.Op&fsnotify.Write == fsnotify.Write:
		change.Op = "write"
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		change.Op = "remove"
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		change.Op = "rename"
	default:
		return Change{}, false
	}
	return change, true
}
