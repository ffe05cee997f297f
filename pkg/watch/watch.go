// Package watch reports changes to model files.
//
// A [Watcher] follows directories recursively and collects create, write,
// remove and rename events for files whose base name matches one of its
// glob patterns. Events are debounced: the callback receives one sorted,
// de-duplicated batch of paths once no new event arrived for the debounce
// interval. Callbacks never run concurrently.
//
//	w, err := watch.New(watch.Options{Paths: []string{"models"}}, func(paths []string) {
//	    reload()
//	})
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	err = w.Start()
package watch

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Defaults applied by [New].
const (
	DefaultDebounce = 200 * time.Millisecond
	DefaultPattern  = "*.json"
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{".git", "node_modules", ".*"}

// Options configures a Watcher.
type Options struct {
	// Paths are files or directories to watch. Directories are followed
	// recursively. A file path watches its parent directory.
	Paths []string

	// Patterns are globs matched against base names. Empty means
	// [DefaultPattern].
	Patterns []string

	// ExcludeDirs are globs matched against directory base names. Nil means
	// [DefaultExcludeDirs].
	ExcludeDirs []string

	Debounce time.Duration
	Logger   *log.Logger
}

// Watcher delivers debounced file change batches.
type Watcher struct {
	fs       *fsnotify.Watcher
	paths    []string
	files    map[string]bool
	patterns []glob.Glob
	excludes []glob.Glob
	debounce time.Duration
	logger   *log.Logger
	onChange func([]string)

	callbackMu sync.Mutex
	mu         sync.Mutex
	pending    map[string]bool
	timer      *time.Timer
	closed     bool
}

// New compiles the patterns and creates the underlying fsnotify watcher.
// Nothing is watched until [Watcher.Start].
func New(opts Options, onChange func(paths []string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if len(opts.Paths) == 0 {
		return nil, errors.New("watch: no paths")
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	excludes := opts.ExcludeDirs
	if excludes == nil {
		excludes = DefaultExcludeDirs
	}

	compiled, err := compileAll(patterns)
	if err != nil {
		return nil, err
	}
	compiledExcludes, err := compileAll(excludes)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fsw,
		paths:    opts.Paths,
		files:    make(map[string]bool),
		patterns: compiled,
		excludes: compiledExcludes,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onChange: onChange,
		pending:  make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	return w, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Start registers the paths and begins delivering events.
func (w *Watcher) Start() error {
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			abs := filepath.Clean(p)
			w.files[abs] = true
			if err := w.fs.Add(filepath.Dir(abs)); err != nil {
				return err
			}
			continue
		}
		if err := w.watchRecursive(p); err != nil {
			return err
		}
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.excludedDir(event.Name) {
				return
			}
			if err := w.watchRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				return
			}
			w.enqueueExisting(event.Name)
			return
		}
	}
	if !w.matches(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
		w.schedule(event.Name)
	}
}

// enqueueExisting schedules files already present in a directory created
// after Start, since their create events may have fired before the
// directory was watched.
func (w *Watcher) enqueueExisting(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.excludedDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matches(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	slices.Sort(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) matches(path string) bool {
	if len(w.files) > 0 && w.files[filepath.Clean(path)] {
		return true
	}
	base := filepath.Base(path)
	for _, g := range w.patterns {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludes {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Close stops watching. Pending changes are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}
