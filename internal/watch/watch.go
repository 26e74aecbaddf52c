// Package watch reruns an action when lexicon inputs change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more changes before
// running the action.
const DefaultDebounce = 150 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Roots are directories watched recursively. Files are watched through
	// their parent directory.
	Roots []string

	// Match selects the file names whose changes trigger a run. nil matches
	// everything.
	Match func(path string) bool

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	Logger *slog.Logger
}

// Watcher debounces file system events into action runs.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	pending map[string]fsnotify.Op
}

// New creates a watcher and registers every root.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{cfg: cfg, fsw: fsw, logger: logger, pending: make(map[string]fsnotify.Op)}
	for _, root := range cfg.Roots {
		if err := w.addRoot(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.fsw.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.addDir(path)
	})
}

func (w *Watcher) addDir(path string) error {
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.logger.Debug("watching directory", slog.String("path", path))
	return nil
}

// Run calls action once per debounced batch of changes until ctx is done.
// An action error is logged and watching continues. Run closes the watcher
// when it returns.
func (w *Watcher) Run(ctx context.Context, action func(ctx context.Context, changed []string) error) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.Any("error", err))

		case <-timer.C:
			changed := w.flush()
			if len(changed) == 0 {
				continue
			}
			w.logger.Info("change detected", slog.Int("files", len(changed)))
			if err := action(ctx, changed); err != nil {
				w.logger.Error("run failed", slog.Any("error", err))
			}
		}
	}
}

// handle records ev and reports whether it is relevant.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(ev.Name), ".") {
				if err := w.addRoot(ev.Name); err != nil {
					w.logger.Warn("failed to watch new directory",
						slog.String("path", ev.Name), slog.Any("error", err))
				}
			}
			return false
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if w.cfg.Match != nil && !w.cfg.Match(ev.Name) {
		return false
	}
	w.pending[ev.Name] = ev.Op
	w.logger.Debug("file changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *Watcher) flush() []string {
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	clear(w.pending)
	slices.Sort(changed)
	return changed
}
