package autoformat

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher reformats sources as they are written.
type Watcher struct {
	f       *Formatter
	fs      *fsnotify.Watcher
	changed func(rel string)
}

// NewWatcher registers every non-ignored directory under the formatter's
// root. Call Run to start processing events.
func (f *Formatter) NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{f: f, fs: fsw}
	if err := w.addTree(f.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// OnChange registers a callback invoked with the relative path of each file
// the watcher rewrites.
func (w *Watcher) OnChange(fn func(rel string)) {
	w.changed = fn
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.f.root && w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) skipDir(path string) bool {
	rel, ok := w.rel(path)
	if !ok {
		return true
	}
	// Ignore patterns end in /**, so probe with a child path.
	return w.f.ignored(rel + "/x.go")
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.f.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.f.logger.WarnContext(ctx, "watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					w.f.logger.WarnContext(ctx, "failed to watch directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	rel, ok := w.rel(event.Name)
	if !ok || !w.f.Matches(rel) {
		return
	}
	changed, err := w.f.FormatFile(event.Name)
	if err != nil {
		// Editors save partial files; a later write will succeed.
		w.f.logger.DebugContext(ctx, "format skipped", "path", rel, "error", err)
		return
	}
	if changed {
		w.f.logger.InfoContext(ctx, "formatted", "path", rel)
		if w.changed != nil {
			w.changed(rel)
		}
	}
}
