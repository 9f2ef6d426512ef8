// Package daemon hosts the tag engine behind a unix socket for editor
// integration. It maintains a per-file change counter, bumped from
// fsnotify events, so the tracker's cached hierarchies are invalidated
// only when a file actually changed on disk.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"pyscope"
	"pyscope/internal/config"
)

// Daemon owns the tracker, the filesystem watcher, and the per-file
// change counters.
type Daemon struct {
	tracker *pyscope.Tracker
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu       sync.Mutex
	revs     map[string]int64 // change counter per resolved file
	dirs     map[string]bool  // directories added to the watcher
	debounce map[string]*time.Timer

	debounceDur time.Duration
	startedAt   time.Time
	ctx         context.Context
	cancel      context.CancelFunc
}

// Status reports the daemon's state over IPC.
type Status struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	WatchedFiles  int       `json:"watched_files"`
	WatchedDirs   int       `json:"watched_dirs"`
	CachedBuffers int       `json:"cached_buffers"`
	Rebuilds      uint64    `json:"rebuilds"`
}

// TagInfo is the wire form of a resolved tag.
type TagInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Line int    `json:"line,omitempty"`
	// StatusLine is the preformatted "<path> (<kind>)" text editors
	// drop straight into their status line.
	StatusLine string `json:"status_line"`
}

// New creates a daemon from configuration. A nil logger falls back to
// slog.Default.
func New(cfg config.DaemonConfig, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	tracker, err := pyscope.NewTracker(pyscope.WithCapacity(cfg.CacheSize))
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("create tracker: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		tracker:     tracker,
		watcher:     watcher,
		logger:      logger,
		revs:        make(map[string]int64),
		dirs:        make(map[string]bool),
		debounce:    make(map[string]*time.Timer),
		debounceDur: time.Duration(cfg.DebounceMs) * time.Millisecond,
		startedAt:   time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Run serves IPC requests until a stop command or signal arrives.
func (d *Daemon) Run(cfg config.DaemonConfig) error {
	d.logger.Info("daemon starting", "socket", cfg.Socket)

	if cfg.PIDFile != "" {
		if err := os.WriteFile(cfg.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer os.Remove(cfg.PIDFile)
	}

	ipc, err := NewIPCServer(cfg.Socket, d)
	if err != nil {
		return err
	}
	defer ipc.Close()

	go d.watchLoop()
	go ipc.Serve(d.ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		d.logger.Info("signal received", "signal", sig.String())
		d.cancel()
	case <-d.ctx.Done():
	}

	d.logger.Info("daemon stopping")
	return d.watcher.Close()
}

// Stop asks a running daemon to shut down.
func (d *Daemon) Stop() {
	d.cancel()
}

// Resolve answers the innermost tag for line in the file at path,
// reading the file only when its change counter moved since the last
// build. nil with no error means no enclosing definition.
func (d *Daemon) Resolve(path string, line int) (*TagInfo, error) {
	abs, rev, err := d.track(path)
	if err != nil {
		return nil, err
	}

	var readErr error
	res, ok := d.tracker.Resolve(abs, rev, line, func() []string {
		content, err := os.ReadFile(abs)
		if err != nil {
			readErr = err
			return nil
		}
		return pyscope.SplitLines(string(content))
	})
	if readErr != nil {
		return nil, fmt.Errorf("read %s: %w", abs, readErr)
	}
	if !ok {
		return nil, nil
	}
	return &TagInfo{
		Path:       res.Path,
		Kind:       res.Kind.String(),
		StatusLine: res.String(),
	}, nil
}

// Outline lists every tag in the file at path, served from the same
// cache Resolve uses.
func (d *Daemon) Outline(path string) ([]TagInfo, error) {
	abs, rev, err := d.track(path)
	if err != nil {
		return nil, err
	}

	var readErr error
	h := d.tracker.Hierarchy(abs, rev, func() []string {
		content, err := os.ReadFile(abs)
		if err != nil {
			readErr = err
			return nil
		}
		return pyscope.SplitLines(string(content))
	})
	if readErr != nil {
		return nil, fmt.Errorf("read %s: %w", abs, readErr)
	}

	infos := make([]TagInfo, 0, h.Len())
	for i, tag := range h.Tags() {
		infos = append(infos, TagInfo{
			Path: h.Path(i),
			Kind: tag.Kind.String(),
			Line: tag.Line,
		})
	}
	return infos, nil
}

// Evict drops the cached hierarchy for path. The change counter is
// kept so it stays monotonic across evictions.
func (d *Daemon) Evict(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	d.tracker.Evict(abs)
}

// CurrentStatus snapshots the daemon state.
func (d *Daemon) CurrentStatus() Status {
	d.mu.Lock()
	files, dirs := len(d.revs), len(d.dirs)
	d.mu.Unlock()
	return Status{
		Running:       true,
		PID:           os.Getpid(),
		StartedAt:     d.startedAt,
		WatchedFiles:  files,
		WatchedDirs:   dirs,
		CachedBuffers: d.tracker.Len(),
		Rebuilds:      d.tracker.Rebuilds(),
	}
}

// track registers path for watching on first sight and returns its
// absolute form plus the current change counter.
func (d *Daemon) track(path string) (string, int64, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", 0, fmt.Errorf("resolve path: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.revs[abs]; !ok {
		d.revs[abs] = 1
		// Watch the directory, not the file: editors replace files on
		// save, which would silently detach a per-file watch.
		dir := filepath.Dir(abs)
		if !d.dirs[dir] {
			if err := d.watcher.Add(dir); err != nil {
				d.logger.Warn("watch failed", "dir", dir, "error", err)
			} else {
				d.dirs[dir] = true
			}
		}
	}
	return abs, d.revs[abs], nil
}

func (d *Daemon) watchLoop() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".py") {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				d.scheduleBump(ev.Name)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				d.forget(ev.Name)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("watch error", "error", err)
		}
	}
}

// scheduleBump coalesces bursts of write events into one counter bump.
func (d *Daemon) scheduleBump(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.revs[path]; !ok {
		return // never resolved, nothing cached to invalidate
	}
	if timer, ok := d.debounce[path]; ok {
		timer.Stop()
	}
	d.debounce[path] = time.AfterFunc(d.debounceDur, func() { d.bump(path) })
}

// bump advances the change counter so the next resolve rescans.
func (d *Daemon) bump(path string) {
	d.mu.Lock()
	d.revs[path]++
	delete(d.debounce, path)
	rev := d.revs[path]
	d.mu.Unlock()
	d.logger.Debug("file changed", "path", path, "rev", rev)
}

// forget handles a deleted or renamed file.
func (d *Daemon) forget(path string) {
	d.mu.Lock()
	if timer, ok := d.debounce[path]; ok {
		timer.Stop()
		delete(d.debounce, path)
	}
	delete(d.revs, path)
	d.mu.Unlock()
	d.tracker.Evict(path)
	d.logger.Debug("file removed", "path", path)
}
