package syncer

import (
	"context"
	"log"
	"os"
	"sync"
	"time"
)

// Prober checks whether the remote store is reachable.
// *remote.DB satisfies it through Ping.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor probes the remote store on an interval and notifies
// subscribers of online/offline transitions. Subscribers register and
// unregister explicitly; nothing here leaks a timer past Stop.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	online  bool
	started bool
	subs    map[int]func(online bool)
	nextSub int

	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorConfig holds Monitor options. Zero values get defaults.
type MonitorConfig struct {
	// Interval between reachability probes (default: 15s).
	Interval time.Duration

	// Timeout for a single probe (default: 5s).
	Timeout time.Duration

	// Logger for monitor activity.
	Logger *log.Logger
}

// NewMonitor creates a connectivity monitor over prober. The monitor
// assumes online until the first probe says otherwise.
func NewMonitor(prober Prober, config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = 15 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[monitor] ", log.LstdFlags)
	}
	return &Monitor{
		prober:   prober,
		interval: config.Interval,
		timeout:  config.Timeout,
		logger:   config.Logger,
		online:   true,
		subs:     make(map[int]func(bool)),
	}
}

// Subscribe registers fn to be called on every online/offline
// transition and returns the unsubscribe handle. fn is invoked
// immediately with the current state so subscribers start consistent.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	online := m.online
	m.mu.Unlock()

	fn(online)

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Online returns the last probed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Start begins probing in the background. Call Stop to tear down.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.loop(ctx)
}

// Stop halts probing and waits for the probe loop to exit. Subscribers
// stay registered; they simply stop receiving transitions.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done
}

// Probe runs a single reachability check immediately and applies the
// result. The daemon calls this before a flush attempt.
func (m *Monitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	online := m.prober.Ping(ctx) == nil
	m.setOnline(online)
	return online
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	changed := online != m.online
	m.online = online
	var fns []func(bool)
	if changed {
		fns = make([]func(bool), 0, len(m.subs))
		for _, fn := range m.subs {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	if online {
		m.logger.Println("Remote store reachable")
	} else {
		m.logger.Println("Remote store unreachable, going offline")
	}
	for _, fn := range fns {
		fn(online)
	}
}
