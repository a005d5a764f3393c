package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mschirtzinger/learntrack/internal/localstore"
)

// DaemonConfig holds configuration for the sync daemon.
type DaemonConfig struct {
	// DebounceInterval is how long to wait before flushing after a file
	// change. This batches rapid updates together.
	DebounceInterval time.Duration

	// FlushInterval is how often pending kinds are retried even without
	// file activity.
	FlushInterval time.Duration

	// OnChange, when set, is called with each kind whose backing file
	// changed, after the debounce window. The dashboard uses this to
	// push updates to connected clients.
	OnChange func(Kind)

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultDaemonConfig returns sensible defaults.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		DebounceInterval: 250 * time.Millisecond,
		FlushInterval:    30 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the local data directory and keeps the remote store
// caught up. Edits to the progress or experiments documents - including
// ones made by another process - mark the kind pending; the connectivity
// monitor's online transitions and a periodic retry drive the flushes.
type Daemon struct {
	coord   *Coordinator
	monitor *Monitor
	dataDir string
	config  *DaemonConfig

	watcher       *fsnotify.Watcher
	changeQueue   map[Kind]time.Time
	changeQueueMu sync.Mutex

	unsubscribe func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDaemon creates a Daemon. Use Start to begin watching and flushing.
func NewDaemon(coord *Coordinator, monitor *Monitor, dataDir string, config *DaemonConfig) (*Daemon, error) {
	if coord == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if monitor == nil {
		return nil, fmt.Errorf("monitor cannot be nil")
	}
	if dataDir == "" {
		return nil, fmt.Errorf("dataDir cannot be empty")
	}
	if config == nil {
		config = DefaultDaemonConfig()
	}
	defaults := DefaultDaemonConfig()
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = defaults.DebounceInterval
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = defaults.FlushInterval
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		coord:       coord,
		monitor:     monitor,
		dataDir:     dataDir,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[Kind]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation. This blocks until ctx is
// cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting sync daemon")

	// The data directory may not exist until the first save.
	if err := os.MkdirAll(d.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := d.watcher.Add(d.dataDir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.dataDir)

	// Online transitions flush pending kinds automatically.
	d.unsubscribe = d.monitor.Subscribe(d.coord.SetOnline)
	d.monitor.Start(d.ctx)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.flushLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon, unregistering the connectivity
// subscription and closing the watcher.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping sync daemon")

	d.cancel()

	if d.unsubscribe != nil {
		d.unsubscribe()
	}
	d.monitor.Stop()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Sync daemon stopped")
	return nil
}

// watchFileEvents monitors filesystem events and queues affected kinds.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			kind, ok := kindForFile(event.Name)
			if !ok {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, filepath.Base(event.Name))
			d.queueChange(kind)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// kindForFile maps a changed file to the resource kind it backs.
func kindForFile(path string) (Kind, bool) {
	switch filepath.Base(path) {
	case localstore.KeyProgress + ".json":
		return KindProgress, true
	case localstore.KeyExperiments + ".json":
		return KindExperiments, true
	}
	return "", false
}

// queueChange adds a kind to the change queue with debouncing.
func (d *Daemon) queueChange(kind Kind) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[kind] = time.Now()
}

// flushLoop drains debounced changes and periodically retries pending
// kinds.
func (d *Daemon) flushLoop() {
	defer d.wg.Done()

	debounce := time.NewTicker(d.config.DebounceInterval)
	defer debounce.Stop()

	retry := time.NewTicker(d.config.FlushInterval)
	defer retry.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-debounce.C:
			d.processQueuedChanges()

		case <-retry.C:
			d.retryPending()
		}
	}
}

// processQueuedChanges marks debounced kinds pending and attempts an
// immediate flush while online.
func (d *Daemon) processQueuedChanges() {
	d.changeQueueMu.Lock()
	now := time.Now()
	var due []Kind
	for kind, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		due = append(due, kind)
		delete(d.changeQueue, kind)
	}
	d.changeQueueMu.Unlock()

	if len(due) == 0 {
		return
	}

	for _, kind := range due {
		d.coord.MarkPending(kind)
		if d.config.OnChange != nil {
			d.config.OnChange(kind)
		}
	}
	d.retryPending()
}

// retryPending probes connectivity and, when online, flushes through the
// quiet path so failures simply stay pending.
func (d *Daemon) retryPending() {
	if !d.coord.Status().HasPending() {
		return
	}
	if !d.monitor.Probe(d.ctx) {
		return
	}
	d.coord.flushPending(d.ctx, false)
}
