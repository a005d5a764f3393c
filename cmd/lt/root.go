package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/config"
	"github.com/mschirtzinger/learntrack/internal/identity"
	"github.com/mschirtzinger/learntrack/internal/localstore"
	"github.com/mschirtzinger/learntrack/internal/logging"
	"github.com/mschirtzinger/learntrack/internal/remote"
	"github.com/mschirtzinger/learntrack/internal/syncer"
	"github.com/mschirtzinger/learntrack/internal/tracker"
)

var (
	flagConfig  string
	flagDataDir string
	flagRemote  string
)

var rootCmd = &cobra.Command{
	Use:   "lt",
	Short: "Track learning progress across phases, tasks and experiments",
	Long: `lt tracks a study plan: phases of tasks to work through, plus an
experiment log for benchmark runs.

Everything is saved locally first, then synced to the remote store
when you are signed in and online. Working offline queues changes;
they flush automatically once the remote is reachable again.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory override")
	rootCmd.PersistentFlags().StringVar(&flagRemote, "remote", "", "remote store address override")

	rootCmd.AddGroup(
		&cobra.Group{ID: "plan", Title: "Plan commands:"},
		&cobra.Group{ID: "sync", Title: "Sync commands:"},
	)
}

// app bundles everything a command needs. Commands call newApp, do
// their work, and defer Close.
type app struct {
	config  config.Config
	local   *localstore.Store
	remote  *remote.DB
	ident   *identity.Store
	coord   *syncer.Coordinator
	monitor *syncer.Monitor
	tracker *tracker.Tracker

	logWriter io.WriteCloser
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagRemote != "" {
		cfg.RemoteAddr = flagRemote
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logWriter := logging.Writer(logging.Options{File: cfg.LogFile})

	local := localstore.New(cfg.DataDir, logging.New(logWriter, "local"))

	db, err := remote.Open(remoteAddr(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}
	if err := db.InitSchema(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize remote schema: %w", err)
	}

	ident, err := identity.NewStore(db.RawDB(), local, identity.Config{
		AutoConfirm: cfg.AutoConfirm,
		Logger:      logging.New(logWriter, "identity"),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up identity store: %w", err)
	}

	coord := syncer.New(local, db, ident, logging.New(logWriter, "sync"))
	monitor := syncer.NewMonitor(db, syncer.MonitorConfig{
		Logger: logging.New(logWriter, "monitor"),
	})

	return &app{
		config:    cfg,
		local:     local,
		remote:    db,
		ident:     ident,
		coord:     coord,
		monitor:   monitor,
		tracker:   tracker.New(coord, logging.New(logWriter, "tracker")),
		logWriter: logWriter,
	}, nil
}

func (a *app) Close() {
	_ = a.remote.Close()
	_ = a.logWriter.Close()
}

// newLocalID returns a short random id with the given prefix.
func newLocalID(prefix string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return prefix + "-" + hex.EncodeToString(buf)
}

// remoteAddr resolves the remote address, folding the auth token into
// hosted URLs.
func remoteAddr(cfg config.Config) string {
	addr := cfg.RemoteAddr
	if addr == "" {
		addr = filepath.Join(cfg.DataDir, "remote.db")
	}
	if cfg.RemoteAuthToken != "" &&
		(strings.HasPrefix(addr, "libsql://") || strings.HasPrefix(addr, "https://")) {
		return addr + "?authToken=" + cfg.RemoteAuthToken
	}
	return addr
}
