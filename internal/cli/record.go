package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/chime/internal/audio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "record FILE",
		Short: "Record a message to FILE",
		Long:  "Record from the microphone until Enter is pressed, --seconds elapse, or Ctrl-C. The file can then be passed to --sound.",
		Args:  cobra.ExactArgs(1),
		Run:   runRecord,
	}
	cmd.Flags().Int("seconds", 0, "Stop after this many seconds (default: wait for Enter)")
	RootCmd.AddCommand(cmd)
}

func runRecord(cmd *cobra.Command, args []string) {
	seconds, _ := cmd.Flags().GetInt("seconds")
	cfg := loadConfig()
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := audio.NewCaptureSession(audio.NewCommandMicrophone(cfg.RecorderCommand, logger), audio.CaptureOptions{
		MimeType: cfg.MimeType,
		Logger:   logger,
	})
	if err := session.Start(ctx); err != nil {
		exitErr("start recording", err)
	}

	enter := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()
	var deadline <-chan time.Time
	if seconds > 0 {
		deadline = time.After(time.Duration(seconds) * time.Second)
		fmt.Fprintf(os.Stderr, "recording for %ds (Enter to stop early)...\n", seconds)
	} else {
		fmt.Fprintln(os.Stderr, "recording... press Enter to stop")
	}

	select {
	case <-enter:
	case <-deadline:
	case <-ctx.Done():
	}

	asset, err := session.Stop()
	if err != nil {
		exitErr("stop recording", err)
	}
	if !asset.Valid() {
		exitErr("record", errors.New("nothing was captured"))
	}
	if err := asset.WriteFile(args[0]); err != nil {
		exitErr("save recording", err)
	}
	fmt.Printf("saved %d bytes to %s\n", asset.Size(), args[0])
}
