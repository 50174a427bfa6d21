package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jwulff/chime/internal/mcpserver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the alarm, timer and reminders as MCP tools on stdio",
		Long:  "Run an in-process engine and expose it to an MCP client over stdin/stdout. Logs go to stderr.",
		Args:  cobra.NoArgs,
		Run:   runMCP,
	}
	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := cfg.NewLogger(os.Stderr)

	e, store := newEngine(cfg, logger)
	defer store.Close()
	e.Start()
	defer e.Stop()

	if err := mcpserver.New(e, Version, logger).ServeStdio(); err != nil {
		logger.Error("mcp server stopped", "err", err)
	}
}
