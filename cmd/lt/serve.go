package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/learntrack/internal/dashboard"
	"github.com/mschirtzinger/learntrack/internal/logging"
	"github.com/mschirtzinger/learntrack/internal/syncer"
	"github.com/mschirtzinger/learntrack/internal/ui"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live dashboard",
	Long: `Serve a WebSocket dashboard plus JSON endpoints for the current
plan and experiment log. Connected clients receive progress and sync
updates in real time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := serveAddr
		if addr == "" {
			addr = a.config.DashboardAddr
		}

		server := dashboard.NewServer(a.tracker, dashboard.Config{
			Addr:   addr,
			Status: a.coord.Status,
			Logger: logging.New(a.logWriter, "dashboard"),
		})
		if err := server.Start(); err != nil {
			return err
		}
		fmt.Printf("%s Dashboard on http://%s\n", ui.RenderPass("✓"), server.Addr())

		// Keep the dashboard's sync view current while it runs.
		handler := dashboard.NewHandler(server, a.tracker, logging.New(a.logWriter, "dashboard"))
		unsubscribe := a.monitor.Subscribe(func(online bool) {
			a.coord.SetOnline(online)
			status := a.coord.Status()
			pending := make([]string, 0, len(status.Pending))
			for _, kind := range status.Pending {
				pending = append(pending, string(kind))
			}
			handler.OnSyncStateChanged(online, pending)
		})
		defer unsubscribe()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Mirror the data files into broadcasts and keep the remote
		// caught up while serving; edits from other processes show up
		// too.
		daemon, err := syncer.NewDaemon(a.coord, a.monitor, a.config.DataDir, &syncer.DaemonConfig{
			OnChange: func(kind syncer.Kind) {
				switch kind {
				case syncer.KindProgress:
					handler.OnProgressChanged()
				case syncer.KindExperiments:
					handler.OnExperimentsChanged()
				}
			},
			Logger: logging.New(a.logWriter, "daemon"),
		})
		if err != nil {
			return err
		}

		daemonDone := make(chan error, 1)
		go func() { daemonDone <- daemon.Start(ctx) }()

		<-ctx.Done()
		fmt.Println("Shutting down")
		if err := <-daemonDone; err != nil {
			fmt.Fprintf(os.Stderr, "Warning: daemon shutdown: %v\n", err)
		}
		return server.Stop()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
