package zonecfg

import (
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/labelops/engine/internal/domain/shared"
	"github.com/labelops/engine/internal/domain/zone"
	"go.uber.org/zap"
)

// Watcher serves the active zone configuration and hot-reloads it when the
// backing file changes. The snapshot is replaced atomically; in-flight
// operations keep the snapshot they started with. A failed reload keeps the
// last good configuration and logs the problem rather than tearing down
// running processes.
type Watcher struct {
	path    string
	current atomic.Pointer[zone.Config]
	fsw     *fsnotify.Watcher
	logger  *zap.Logger
	done    chan struct{}
}

// NewWatcher loads the configuration once and starts watching the file's
// directory (editors replace files rather than write in place, so watching
// the file alone would miss renames). The initial load failing is fatal:
// the engine refuses to run without a valid layout.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, shared.ErrConfigInvalid.WithMessage("cannot watch zone configuration: " + err.Error())
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, shared.ErrConfigInvalid.WithMessage("cannot watch zone configuration: " + err.Error())
	}

	w := &Watcher{
		path:   path,
		fsw:    fsw,
		logger: logger,
		done:   make(chan struct{}),
	}
	w.current.Store(cfg)
	go w.loop()
	return w, nil
}

// Snapshot implements zone.Provider.
func (w *Watcher) Snapshot() (*zone.Config, error) {
	cfg := w.current.Load()
	if cfg == nil {
		return nil, shared.ErrConfigInvalid.WithMessage("no zone configuration loaded")
	}
	return cfg, nil
}

// Reload re-reads the file immediately. Useful for callers that change the
// configuration themselves and want the new layout without waiting for the
// watch event.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}
	w.current.Store(cfg)
	w.logger.Info("zone configuration reloaded", zap.String("path", w.path), zap.Int("zones", len(cfg.Zones())))
	return nil
}

// Close stops watching. The last snapshot stays available.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.logger.Warn("zone configuration reload failed, keeping previous layout",
					zap.String("path", w.path), zap.Error(err))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("zone configuration watch error", zap.Error(err))
		}
	}
}

// Ensure Watcher implements zone.Provider
var _ zone.Provider = (*Watcher)(nil)
