package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/moolen/kairos/internal/logging"
)

const watcherStopTimeout = 5 * time.Second

// TableWatcher watches a mapping table file and swaps the resolver's table
// on change. Reloads are debounced to coalesce editor save sequences; an
// invalid table is logged and the previous table stays active.
type TableWatcher struct {
	path     string
	debounce time.Duration
	resolver *Resolver
	logger   *logging.Logger

	cancel  context.CancelFunc
	stopped chan struct{}
	ready   chan struct{}

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewTableWatcher creates a watcher for the given table file feeding the
// given resolver. debounce <= 0 defaults to 500ms.
func NewTableWatcher(path string, resolver *Resolver, debounce time.Duration) (*TableWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("table path must not be empty")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver must not be nil")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &TableWatcher{
		path:     path,
		debounce: debounce,
		resolver: resolver,
		logger:   logging.GetLogger("resolver.watcher"),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the table once, applies it, and begins watching. It returns
// after the watch loop is initialized; the loop itself runs until Stop.
func (w *TableWatcher) Start(ctx context.Context) error {
	table, err := LoadMappingTable(w.path)
	if err != nil {
		return fmt.Errorf("initial table load failed: %w", err)
	}
	w.resolver.SetTable(table)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(watcherStopTimeout):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}
	return nil
}

func (w *TableWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *TableWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.ErrorWithFields("failed to create file watcher", logging.Field("error", err.Error()))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		w.logger.ErrorWithFields("failed to watch table file",
			logging.Field("path", w.path),
			logging.Field("error", err.Error()))
		return
	}
	w.logger.InfoWithFields("watching mapping table", logging.Field("path", w.path))
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// Atomic writes unlink the watched inode; re-add after the
			// rename completes.
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.path); err != nil {
					w.logger.WarnWithFields("failed to re-add watch",
						logging.Field("error", err.Error()))
				}
			}
			w.scheduleReload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.WarnWithFields("watcher error", logging.Field("error", err.Error()))
		}
	}
}

func (w *TableWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.reload)
}

func (w *TableWatcher) reload() {
	table, err := LoadMappingTable(w.path)
	if err != nil {
		w.logger.WarnWithFields("table reload failed, keeping previous table",
			logging.Field("error", err.Error()))
		return
	}
	w.resolver.SetTable(table)
	w.logger.Info("mapping table reloaded")
}

// Stop cancels the watch loop and waits for it to exit.
func (w *TableWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	select {
	case <-w.stopped:
		return nil
	case <-time.After(watcherStopTimeout):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
