package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/frontedward/dictator/internal/build"
	"github.com/frontedward/dictator/internal/config"
	"github.com/frontedward/dictator/internal/logfields"
)

// watchSet decides which file events matter and what they trigger.
type watchSet struct {
	// trees are watched recursively; any change inside is content.
	trees []string
	// files are single files watched through their parent directory.
	files map[string]string
}

// newWatchSet derives the watched paths from the configuration file and cfg.
func newWatchSet(configPath string, cfg *config.SiteConfig) watchSet {
	ws := watchSet{files: map[string]string{}}
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(cfg.Dir, filepath.FromSlash(p))
	}
	if cp, err := filepath.Abs(configPath); err == nil {
		ws.files[cp] = TriggerConfig
	}
	for _, name := range []string{".env", ".env.local"} {
		ws.files[filepath.Join(cfg.Dir, name)] = TriggerConfig
	}
	ws.trees = append(ws.trees, abs(build.StaticDir))
	if cfg.DocsEnabled() {
		ws.trees = append(ws.trees, abs(cfg.Classic.Docs.Path))
		if sp := cfg.Classic.Docs.SidebarPath; sp != "" {
			ws.files[abs(sp)] = TriggerContent
		}
	}
	if cfg.BlogEnabled() {
		ws.trees = append(ws.trees, abs(cfg.Classic.Blog.Path))
	}
	if cfg.Classic != nil && cfg.Classic.Theme.CustomCSS != "" {
		ws.files[abs(cfg.Classic.Theme.CustomCSS)] = TriggerContent
	}
	return ws
}

// classify maps an event path to a rebuild trigger.
func (ws watchSet) classify(p string) (string, bool) {
	p = filepath.Clean(p)
	if t, ok := ws.files[p]; ok {
		return t, true
	}
	if shouldIgnoreEvent(p) {
		return "", false
	}
	for _, root := range ws.trees {
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			return TriggerContent, true
		}
	}
	return "", false
}

// fileDirs are the parent directories of the single watched files.
func (ws watchSet) fileDirs() []string {
	seen := map[string]bool{}
	var out []string
	for f := range ws.files {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// watcher feeds relevant fsnotify events into a trigger function.
type watcher struct {
	fs      *fsnotify.Watcher
	trigger func(reason string)

	mu  sync.RWMutex
	set watchSet
}

func newWatcher(set watchSet, trigger func(reason string)) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &watcher{fs: fw, trigger: trigger}
	if err := w.update(set); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// update switches to a new watch set, adding any new directories.
// Directories that are no longer relevant stay watched; their events are filtered.
func (w *watcher) update(set watchSet) error {
	w.mu.Lock()
	w.set = set
	w.mu.Unlock()
	for _, root := range set.trees {
		if _, err := os.Stat(root); err != nil {
			slog.Debug("Watch root missing", logfields.Path(root))
			continue
		}
		if err := w.addDirsRecursive(root); err != nil {
			return err
		}
	}
	for _, dir := range set.fileDirs() {
		if err := w.fs.Add(dir); err != nil {
			slog.Warn("watch add failed", logfields.Path(dir), logfields.Error(err))
		}
	}
	return nil
}

// run delivers events until ctx is canceled or the watcher is closed.
func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", logfields.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	w.mu.RLock()
	reason, ok := w.set.classify(ev.Name)
	w.mu.RUnlock()
	if !ok {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addDirsRecursive(ev.Name); err != nil {
				slog.Warn("watch add failed", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}
	slog.Debug("File change", logfields.Path(ev.Name), slog.String("op", ev.Op.String()), logfields.Trigger(reason))
	w.trigger(reason)
}

func (w *watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			slog.Warn("watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

func (w *watcher) close() error {
	return w.fs.Close()
}

// shouldIgnoreEvent filters hidden files, editor temp files and OS clutter.
func shouldIgnoreEvent(p string) bool {
	base := filepath.Base(p)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
