package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jwulff/chime/internal/audio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play [FILE]",
		Short: "Play a recording, or the default sound when FILE is omitted",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPlay,
	}
	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := cfg.NewLogger(os.Stderr)

	var asset *audio.Asset
	if len(args) > 0 {
		a, err := audio.LoadFile(args[0])
		if err != nil {
			exitErr("load sound", err)
		}
		asset = a
	}

	fallback, err := cfg.DefaultSoundAsset()
	if err != nil {
		logger.Warn("default sound unavailable", "err", err)
	}
	sink := audio.NewCommandSink(cfg.PlayerCommand, logger)
	sink.Wait = true

	if err := audio.NewActuator(sink, fallback, logger).Play(cmd.Context(), asset); err != nil {
		exitErr("play", err)
	}
}
