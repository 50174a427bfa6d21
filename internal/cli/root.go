// Package cli implements the chime commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwulff/chime/internal/app"
	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/config"
	"github.com/jwulff/chime/internal/notify"
	"github.com/jwulff/chime/internal/reminder"
)

// Version is stamped at build time.
var Version = "dev"

var (
	configPath string
	socketPath string
)

// RootCmd is the top-level command. Without a subcommand it runs the TUI.
var RootCmd = &cobra.Command{
	Use:     "chime",
	Short:   "Alarm, stopwatch and reminders that play back your own voice",
	Long:    "Record a short message, then have it played back when an alarm goes off, a timer completes, or a dated reminder comes due.",
	Version: Version,
	Run:     runTUI,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CHIME_CONFIG or <user config dir>/chime/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "Daemon socket (default: from config, $CHIME_SOCKET, or the runtime dir)")
}

func loadConfig() config.Config {
	path, err := config.Path(configPath)
	if err != nil {
		exitErr("resolve config", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitErr("load config", err)
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	return cfg
}

func newActuator(cfg config.Config, logger *slog.Logger) *audio.Actuator {
	fallback, err := cfg.DefaultSoundAsset()
	if err != nil {
		// A broken default_sound falls back to the built-in chime.
		logger.Warn("default sound unavailable", "err", err)
	}
	return audio.NewActuator(audio.NewCommandSink(cfg.PlayerCommand, logger), fallback, logger)
}

func runTUI(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "chime")
		if err != nil {
			exitErr("open log file", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := cfg.NewLogger(logOut)

	store, err := reminder.OpenMemory()
	if err != nil {
		exitErr("open reminder store", err)
	}
	defer store.Close()

	m := app.New(app.Options{
		Microphone:   audio.NewCommandMicrophone(cfg.RecorderCommand, logger),
		Player:       newActuator(cfg, logger),
		Store:        store,
		Notifier:     notify.Log{Logger: logger},
		Logger:       logger,
		MimeType:     cfg.MimeType,
		AlarmPoll:    cfg.AlarmPollInterval,
		TimerPoll:    cfg.TimerPollInterval,
		TimerDefault: cfg.TimerDefault,
	})

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if fm, ok := final.(app.Model); ok {
		fm.Close()
	}
	if err != nil {
		exitErr("run tui", err)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
