// Package syncer provides the local/remote synchronization coordinator.
//
// Overview
//
// The coordinator decides, per save and load, whether to use the local
// document store only, the remote per-user store, or both, and tracks
// the drift between them. Two resource kinds exist: progress (the phase
// collection) and experiments.
//
//	Application
//	     ↓ Save / Load
//	Coordinator ──→ localstore (always written first)
//	     │
//	     └──→ remote store (only when signed in and online)
//	              │
//	              └── failures recorded per kind in the pending set,
//	                  flushed on the next online transition
//
// Routing rules
//
// Save always writes the local document first, so a crash or network
// failure never loses the local copy. When nobody is signed in the save
// stops there. When signed in and online, the remote write is attempted;
// a failure marks the kind pending instead of surfacing an error. When
// signed in and offline, the remote attempt is skipped and the kind is
// marked pending immediately.
//
// Load prefers the remote copy when signed in and online: remote data
// overwrites the local cache and is returned. An empty remote or a
// remote failure falls back to the local document, never to an error.
//
// Connectivity
//
// The coordinator does not probe the network itself. A Monitor probes
// the remote store and pushes online/offline transitions into the
// coordinator through an explicit subscription; the transition to online
// triggers an automatic flush of every pending kind, with one kind's
// failure never blocking the other. ForceSync is the one loud path: it
// returns ErrOffline when offline and propagates flush errors, so a
// user-invoked "sync now" can report failure.
//
// Usage
//
//	coord := syncer.New(local, database, ident, nil)
//	monitor := syncer.NewMonitor(database, syncer.MonitorConfig{})
//	unsubscribe := monitor.Subscribe(coord.SetOnline)
//	defer unsubscribe()
//	monitor.Start(ctx)
//	defer monitor.Stop()
//
//	err := coord.SaveProgress(ctx, phases)
package syncer
