// Package watch monitors Cono folders and regenerates charts when a new report workbook
// lands in one of them.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/klytics/conokit/internal/discover"
	"github.com/klytics/conokit/internal/logging"
)

// Event statuses.
const (
	StatusProcessed = "processed"
	StatusError     = "error"
	StatusSkipped   = "skipped"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Config holds the folders to watch and the workbook filters.
type Config struct {
	Conos    []discover.Cono
	Options  discover.Options
	Debounce time.Duration
}

// Event is one file event that reached processing.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Cono      string    `json:"cono,omitempty"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Handler is called for an eligible workbook in a Cono folder.
type Handler func(ctx context.Context, cono discover.Cono, path string) error

// Status is a snapshot of a running watcher.
type Status struct {
	Running    bool     `json:"running"`
	Conos      []string `json:"conos"`
	EventCount int      `json:"eventCount"`
	StartedAt  string   `json:"startedAt,omitempty"`
}

// Watcher monitors Cono folders and calls Handler for new or modified workbooks.
// Handler calls never overlap.
type Watcher struct {
	Config  Config
	Handler Handler
	Logger  *zap.Logger

	mu        sync.Mutex
	events    []Event
	pending   map[string]*time.Timer
	startedAt time.Time
	ctx       context.Context

	run  sync.Mutex
	fsw  *fsnotify.Watcher
	exts map[string]bool
}

// New creates a Watcher. Cono directories are made absolute so event paths can be
// mapped back to their Cono.
func New(cfg Config, handler Handler, logger *zap.Logger) (*Watcher, error) {
	if len(cfg.Conos) == 0 {
		return nil, fmt.Errorf("no Cono folders to watch")
	}
	conos := make([]discover.Cono, len(cfg.Conos))
	for i, c := range cfg.Conos {
		abs, err := filepath.Abs(c.Dir)
		if err != nil {
			return nil, fmt.Errorf("could not resolve %s: %w", c.Dir, err)
		}
		conos[i] = discover.Cono{Name: c.Name, Dir: abs}
	}
	cfg.Conos = conos
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Nop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	return &Watcher{
		Config:  cfg,
		Handler: handler,
		Logger:  logger,
		pending: make(map[string]*time.Timer),
		fsw:     fsw,
		exts:    cfg.Options.ExtensionSet(),
	}, nil
}

// Start watches every Cono folder and its sub folders. It blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, c := range w.Config.Conos {
		if err := w.addRecursive(c.Dir); err != nil {
			w.fsw.Close()
			return err
		}
	}
	w.mu.Lock()
	w.ctx = ctx
	w.startedAt = time.Now()
	w.mu.Unlock()
	w.Logger.Info("watching Cono folders", zap.Int("conos", len(w.Config.Conos)))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("stopping watcher")
			w.stopPending()
			return w.fsw.Close()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close releases the underlying file watcher without starting it.
func (w *Watcher) Close() error {
	w.stopPending()
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("could not watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("could not watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.Logger.Warn("could not watch new folder", zap.String("path", path), zap.Error(err))
			}
			return
		}
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return
	}
	if !w.exts[strings.ToLower(filepath.Ext(base))] {
		return
	}

	op := "modify"
	if event.Has(fsnotify.Create) {
		op = "create"
	}

	// editors write a workbook in several bursts
	w.mu.Lock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.Config.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.processFile(path, op)
	})
	w.mu.Unlock()
}

func (w *Watcher) processFile(path, op string) {
	evt := Event{Time: time.Now(), Path: path, Operation: op}

	cono, ok := w.conoFor(path)
	switch {
	case !ok:
		evt.Status = StatusSkipped
		evt.Error = "not inside a Cono folder"
	case !discover.Eligible(filepath.Base(path), w.exts, w.Config.Options.Ignore):
		evt.Cono = cono.Name
		evt.Status = StatusSkipped
		evt.Error = "ignored file name"
	default:
		evt.Cono = cono.Name
		evt.Status = StatusProcessed
		if w.Handler != nil {
			w.run.Lock()
			err := w.Handler(w.runContext(), cono, path)
			w.run.Unlock()
			if err != nil {
				evt.Status = StatusError
				evt.Error = err.Error()
				w.Logger.Error("processing failed", zap.String("cono", cono.Name), zap.String("path", path), zap.Error(err))
			} else {
				w.Logger.Info("processed", zap.String("cono", cono.Name), zap.String("path", path))
			}
		}
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

// conoFor returns the innermost Cono folder holding path.
func (w *Watcher) conoFor(path string) (discover.Cono, bool) {
	var best discover.Cono
	found := false
	for _, c := range w.Config.Conos {
		rel, err := filepath.Rel(c.Dir, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(c.Dir) > len(best.Dir) {
			best, found = c, true
		}
	}
	return best, found
}

func (w *Watcher) runContext() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return context.Background()
	}
	return w.ctx
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// Status returns a snapshot of the watcher.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Status{Running: !w.startedAt.IsZero(), EventCount: len(w.events)}
	for _, c := range w.Config.Conos {
		s.Conos = append(s.Conos, c.Name)
	}
	if !w.startedAt.IsZero() {
		s.StartedAt = w.startedAt.Format(time.RFC3339)
	}
	return s
}

// Events returns a copy of the recorded events.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

const pidFileName = "watch.pid"

// DefaultStateDir holds the PID file of a running watcher.
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".grph")
}

// WritePIDFile records the current process ID in dir.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pidFileName), []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReadPIDFile returns the recorded process ID.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFileName))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFileName))
}
