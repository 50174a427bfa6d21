package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwulff/chime/internal/config"
	"github.com/jwulff/chime/internal/control"
	"github.com/jwulff/chime/internal/engine"
	"github.com/jwulff/chime/internal/reminder"
)

func init() {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the alarm, timer and reminders headless behind a Unix socket",
		Long:  "Run the scheduling engine in the foreground and accept NDJSON commands on the control socket. Stop with Ctrl-C or SIGTERM.",
		Args:  cobra.NoArgs,
		Run:   runDaemon,
	}
	RootCmd.AddCommand(cmd)
}

// newEngine builds an engine over an in-memory reminder store. The caller
// owns both and must Stop the engine before closing the store.
func newEngine(cfg config.Config, logger *slog.Logger) (*engine.Engine, *reminder.Store) {
	store, err := reminder.OpenMemory()
	if err != nil {
		exitErr("open reminder store", err)
	}
	e := engine.New(engine.Options{
		Player:       newActuator(cfg, logger),
		Store:        store,
		TickInterval: cfg.TickInterval,
		Logger:       logger,
	})
	return e, store
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, store := newEngine(cfg, logger)
	defer store.Close()
	e.Start()
	defer e.Stop()

	srv := control.NewServer(e, logger)
	if err := srv.Listen(cfg.SocketPath); err != nil {
		exitErr("listen", err)
	}

	if err := srv.Serve(ctx); err != nil {
		logger.Error("serve failed", "err", err)
		srv.Close()
		e.Stop()
		store.Close()
		os.Exit(1)
	}
	logger.Info("daemon stopped")
}
