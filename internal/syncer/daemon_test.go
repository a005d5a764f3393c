package syncer

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

func setupDaemon(t *testing.T, config *DaemonConfig) *Daemon {
	t.Helper()

	coord, _, _ := setupCoordinator(t, true)
	monitor := newTestMonitor(&flakyProber{})
	daemon, err := NewDaemon(coord, monitor, t.TempDir(), config)
	if err != nil {
		t.Fatalf("NewDaemon failed: %v", err)
	}
	t.Cleanup(func() { _ = daemon.Stop() })
	return daemon
}

func TestDaemon_OnChangeFiresForDebouncedKinds(t *testing.T) {
	var mu sync.Mutex
	var seen []Kind

	daemon := setupDaemon(t, &DaemonConfig{
		DebounceInterval: time.Millisecond,
		OnChange: func(kind Kind) {
			mu.Lock()
			seen = append(seen, kind)
			mu.Unlock()
		},
		Logger: log.New(io.Discard, "", 0),
	})

	// Queue both kinds and let the debounce window pass before draining,
	// the way the flush loop would.
	daemon.queueChange(KindProgress)
	daemon.queueChange(KindExperiments)
	time.Sleep(5 * time.Millisecond)
	daemon.processQueuedChanges()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected 2 change notifications, got %v", seen)
	}
	got := map[Kind]bool{}
	for _, kind := range seen {
		got[kind] = true
	}
	if !got[KindProgress] || !got[KindExperiments] {
		t.Errorf("expected both kinds notified, got %v", seen)
	}
}

func TestDaemon_ChangeInsideDebounceWindowWaits(t *testing.T) {
	fired := false
	daemon := setupDaemon(t, &DaemonConfig{
		DebounceInterval: time.Minute,
		OnChange:         func(Kind) { fired = true },
		Logger:           log.New(io.Discard, "", 0),
	})

	daemon.queueChange(KindProgress)
	daemon.processQueuedChanges()

	if fired {
		t.Error("change inside the debounce window must not notify yet")
	}
	if daemon.coord.Status().HasPending() {
		t.Error("change inside the debounce window must not mark pending yet")
	}
}
