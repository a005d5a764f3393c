package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/mschirtzinger/learntrack/internal/identity"
	"github.com/mschirtzinger/learntrack/internal/localstore"
	"github.com/mschirtzinger/learntrack/internal/plan"
)

// ErrOffline is returned by ForceSync when the coordinator is offline.
// Automatic paths never return it; only the explicit "sync now" action
// fails loudly.
var ErrOffline = errors.New("offline: cannot sync now")

// Kind names a synchronized resource.
type Kind string

const (
	KindProgress    Kind = "progress"
	KindExperiments Kind = "experiments"
)

// localKey maps a resource kind to its local document key.
func (k Kind) localKey() string {
	if k == KindExperiments {
		return localstore.KeyExperiments
	}
	return localstore.KeyProgress
}

// RemoteStore is the remote adapter contract the coordinator needs.
// *remote.DB satisfies it.
type RemoteStore interface {
	SaveProgress(ctx context.Context, userID string, phases []plan.Phase) error
	LoadProgress(ctx context.Context, userID string) (phases []plan.Phase, ok bool, err error)
	SaveExperiments(ctx context.Context, userID string, exps []plan.Experiment) error
	LoadExperiments(ctx context.Context, userID string) ([]plan.Experiment, error)
}

// Status is the pull-based view of the coordinator's state.
type Status struct {
	Online  bool   `json:"online"`
	Pending []Kind `json:"pending,omitempty"`
}

// HasPending reports whether any resource kind awaits a remote flush.
func (s Status) HasPending() bool {
	return len(s.Pending) > 0
}

// Coordinator routes saves and loads between the local document store
// and the remote per-user store. It is explicitly constructed and holds
// all of its state; there is no package-level instance.
type Coordinator struct {
	local  *localstore.Store
	remote RemoteStore
	ident  identity.Provider
	logger *log.Logger

	mu       sync.Mutex
	online   bool
	pending  map[Kind]bool
	inFlight map[Kind]bool
}

// New creates a Coordinator. The coordinator starts online: the first
// remote failure or a Monitor transition moves it offline. If logger is
// nil, a default logger writing to stderr is used.
func New(local *localstore.Store, remote RemoteStore, ident identity.Provider, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(os.Stderr, "[syncer] ", log.LstdFlags)
	}
	return &Coordinator{
		local:    local,
		remote:   remote,
		ident:    ident,
		logger:   logger,
		online:   true,
		pending:  make(map[Kind]bool),
		inFlight: make(map[Kind]bool),
	}
}

// SaveProgress persists the phase collection: local first, then remote
// when signed in and online. Remote failures mark the kind pending and
// are not surfaced.
func (c *Coordinator) SaveProgress(ctx context.Context, phases []plan.Phase) error {
	return c.save(ctx, KindProgress, phases, func(userID string) error {
		return c.remote.SaveProgress(ctx, userID, phases)
	})
}

// SaveExperiments persists the experiment collection with the same
// routing as SaveProgress.
func (c *Coordinator) SaveExperiments(ctx context.Context, exps []plan.Experiment) error {
	return c.save(ctx, KindExperiments, exps, func(userID string) error {
		return c.remote.SaveExperiments(ctx, userID, exps)
	})
}

// save implements the shared routing. push performs the remote write
// for the already-serialized data.
func (c *Coordinator) save(ctx context.Context, kind Kind, data any, push func(userID string) error) error {
	// Local first, unconditionally. Local failures are logged, never
	// block the caller.
	if err := c.local.Save(kind.localKey(), data); err != nil {
		c.logger.Printf("Warning: local save of %s failed: %v", kind, err)
	}

	user, ok, err := c.ident.Current(ctx)
	if err != nil {
		c.logger.Printf("Warning: identity lookup failed: %v", err)
		return nil
	}
	if !ok {
		// Unauthenticated: local-only, nothing pending.
		return nil
	}

	c.mu.Lock()
	if !c.online {
		c.pending[kind] = true
		c.mu.Unlock()
		return nil
	}
	if c.inFlight[kind] {
		// A write of this kind is already on the wire. Defer rather
		// than queueing a second overlapping write; the flush picks the
		// latest local copy up.
		c.pending[kind] = true
		c.mu.Unlock()
		return nil
	}
	c.inFlight[kind] = true
	c.mu.Unlock()

	pushErr := push(user.ID)

	c.mu.Lock()
	c.inFlight[kind] = false
	if pushErr != nil {
		c.pending[kind] = true
	} else {
		delete(c.pending, kind)
	}
	c.mu.Unlock()

	if pushErr != nil {
		c.logger.Printf("Remote save of %s failed, will retry: %v", kind, pushErr)
	}
	return nil
}

// LoadProgress returns the phase collection. When signed in and online
// the remote copy is authoritative and refreshes the local cache; the
// local document is the fallback for every other case. ok is false when
// neither store has data.
func (c *Coordinator) LoadProgress(ctx context.Context) (phases []plan.Phase, ok bool, err error) {
	user, signedIn, err := c.ident.Current(ctx)
	if err != nil {
		c.logger.Printf("Warning: identity lookup failed: %v", err)
		signedIn = false
	}

	if signedIn && c.isOnline() {
		remotePhases, found, err := c.remote.LoadProgress(ctx, user.ID)
		if err != nil {
			c.logger.Printf("Remote load of progress failed, using local copy: %v", err)
		} else if found {
			if err := c.local.Save(localstore.KeyProgress, remotePhases); err != nil {
				c.logger.Printf("Warning: failed to refresh local progress cache: %v", err)
			}
			return remotePhases, true, nil
		}
	}

	ok, err = c.local.Load(localstore.KeyProgress, &phases)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load local progress: %w", err)
	}
	return phases, ok, nil
}

// LoadExperiments returns the experiment collection with the same
// routing as LoadProgress. An empty remote row-set is indistinguishable
// from an account that never synced, so it falls back to the local copy
// rather than clobbering it.
func (c *Coordinator) LoadExperiments(ctx context.Context) (exps []plan.Experiment, ok bool, err error) {
	user, signedIn, err := c.ident.Current(ctx)
	if err != nil {
		c.logger.Printf("Warning: identity lookup failed: %v", err)
		signedIn = false
	}

	if signedIn && c.isOnline() {
		remoteExps, err := c.remote.LoadExperiments(ctx, user.ID)
		if err != nil {
			c.logger.Printf("Remote load of experiments failed, using local copy: %v", err)
		} else if len(remoteExps) > 0 {
			if err := c.local.Save(localstore.KeyExperiments, remoteExps); err != nil {
				c.logger.Printf("Warning: failed to refresh local experiments cache: %v", err)
			}
			return remoteExps, true, nil
		}
	}

	ok, err = c.local.Load(localstore.KeyExperiments, &exps)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load local experiments: %w", err)
	}
	return exps, ok, nil
}

// SetOnline records a connectivity transition. Moving from offline to
// online triggers an automatic flush of every pending kind; one kind's
// flush failure never blocks the other, and automatic flush failures are
// logged rather than surfaced.
func (c *Coordinator) SetOnline(online bool) {
	c.mu.Lock()
	wasOnline := c.online
	c.online = online
	c.mu.Unlock()

	if online && !wasOnline {
		c.logger.Println("Back online, flushing pending changes")
		c.flushPending(context.Background(), false)
	}
}

// MarkPending records that the local copy of kind is ahead of the
// remote. The daemon uses this when it observes an out-of-band edit to
// a local document.
func (c *Coordinator) MarkPending(kind Kind) {
	c.mu.Lock()
	c.pending[kind] = true
	c.mu.Unlock()
}

// ForceSync flushes all pending kinds immediately. Unlike the automatic
// path it fails loudly: ErrOffline when offline, and flush errors are
// propagated so a manual "sync now" can report failure to the user.
func (c *Coordinator) ForceSync(ctx context.Context) error {
	if !c.isOnline() {
		return ErrOffline
	}
	return c.flushPending(ctx, true)
}

// Status returns the current synchronization state. Pull-based: callers
// poll this instead of the coordinator owning notification timers.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{Online: c.online}
	// Stable order keeps output deterministic.
	for _, kind := range []Kind{KindProgress, KindExperiments} {
		if c.pending[kind] {
			status.Pending = append(status.Pending, kind)
		}
	}
	return status
}

func (c *Coordinator) isOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// flushPending pushes the local copy of every pending kind to the
// remote store. When loud is true, errors are joined and returned;
// otherwise they are logged and the kind stays pending.
func (c *Coordinator) flushPending(ctx context.Context, loud bool) error {
	user, ok, err := c.ident.Current(ctx)
	if err != nil || !ok {
		if loud {
			return identity.ErrNotSignedIn
		}
		return nil
	}

	c.mu.Lock()
	kinds := make([]Kind, 0, len(c.pending))
	for _, kind := range []Kind{KindProgress, KindExperiments} {
		if c.pending[kind] && !c.inFlight[kind] {
			c.inFlight[kind] = true
			kinds = append(kinds, kind)
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, kind := range kinds {
		flushErr := c.flushKind(ctx, kind, user.ID)

		c.mu.Lock()
		c.inFlight[kind] = false
		if flushErr == nil {
			delete(c.pending, kind)
		}
		c.mu.Unlock()

		if flushErr != nil {
			c.logger.Printf("Flush of %s failed: %v", kind, flushErr)
			errs = append(errs, fmt.Errorf("flush %s: %w", kind, flushErr))
			continue
		}
		c.logger.Printf("Flushed %s", kind)
	}

	if loud {
		return errors.Join(errs...)
	}
	return nil
}

// flushKind pushes one kind's local document to the remote store.
// An absent local document means there is nothing to flush.
func (c *Coordinator) flushKind(ctx context.Context, kind Kind, userID string) error {
	switch kind {
	case KindProgress:
		var phases []plan.Phase
		ok, err := c.local.Load(localstore.KeyProgress, &phases)
		if err != nil {
			return fmt.Errorf("failed to load local progress: %w", err)
		}
		if !ok {
			return nil
		}
		return c.remote.SaveProgress(ctx, userID, phases)
	case KindExperiments:
		var exps []plan.Experiment
		ok, err := c.local.Load(localstore.KeyExperiments, &exps)
		if err != nil {
			return fmt.Errorf("failed to load local experiments: %w", err)
		}
		if !ok {
			return nil
		}
		return c.remote.SaveExperiments(ctx, userID, exps)
	default:
		return fmt.Errorf("unknown resource kind %q", kind)
	}
}
