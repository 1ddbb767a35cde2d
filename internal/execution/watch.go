package execution

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"stepagg/internal/discovery"
	"stepagg/internal/domain"
)

// DefaultDebounce is how long a log must stay unchanged before it is replayed
const DefaultDebounce = 300 * time.Millisecond

// Watcher replays event logs again whenever they are written
type Watcher struct {
	runner   LogRunner
	skipDirs map[string]bool
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a Watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(runner LogRunner, skipDirs []string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	skip := make(map[string]bool, len(skipDirs))
	for _, dir := range skipDirs {
		skip[dir] = true
	}
	return &Watcher{runner: runner, skipDirs: skip, debounce: debounce, logger: logger}
}

// Watch blocks until ctx is done, calling onResult with every replay.
// Directories created under root are watched as they appear.
func (w *Watcher) Watch(ctx context.Context, root string, onResult func(domain.ReplayResult)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, root, true); err != nil {
		return err
	}

	deb := newDebouncer(w.debounce)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name, false); err != nil {
						w.logger.Warn("cannot watch directory", "dir", ev.Name, "err", err)
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !discovery.IsEventLog(filepath.Base(ev.Name)) {
				continue
			}

			deb.arm(ctx, ev.Name)

		case f := <-deb.ready:
			if !deb.take(f) {
				continue
			}
			w.logger.Debug("log changed, replaying", "log", f.path)
			onResult(w.runner.Run(ctx, f.path, 1))

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// firing is a debounce timer that went off for path
type firing struct {
	path string
	gen  uint64
}

type armedTimer struct {
	timer *time.Timer
	gen   uint64
}

// debouncer delays paths until they stay quiet. A timer that fired may still be
// waiting to send when a newer write re-arms its path, so every firing carries
// the generation it was armed for and only the latest one is taken.
// arm and take are called from one goroutine.
type debouncer struct {
	delay  time.Duration
	gen    uint64
	timers map[string]armedTimer
	ready  chan firing
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]armedTimer),
		ready:  make(chan firing),
	}
}

func (d *debouncer) arm(ctx context.Context, path string) {
	if t, ok := d.timers[path]; ok {
		t.timer.Stop()
	}
	d.gen++
	f := firing{path: path, gen: d.gen}
	d.timers[path] = armedTimer{gen: d.gen, timer: time.AfterFunc(d.delay, func() {
		select {
		case d.ready <- f:
		case <-ctx.Done():
		}
	})}
}

// take reports whether f is the latest firing of its path and forgets the path
func (d *debouncer) take(f firing) bool {
	t, ok := d.timers[f.path]
	if !ok || t.gen != f.gen {
		return false
	}
	delete(d.timers, f.path)
	return true
}

func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.timer.Stop()
	}
}

// addTree watches dir and every directory below it that is not skipped
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string, isRoot bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if !(isRoot && path == dir) {
			name := d.Name()
			if strings.HasPrefix(name, ".") || w.skipDirs[name] {
				return filepath.SkipDir
			}
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
