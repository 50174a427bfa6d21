package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwulff/chime/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  "Print the effective configuration. With --write, save it to the config file so it can be edited.",
		Args:  cobra.NoArgs,
		Run:   runConfig,
	}
	cmd.Flags().Bool("write", false, "Write the effective configuration to the config file")
	cmd.Flags().Bool("path", false, "Print the config file path only")
	RootCmd.AddCommand(cmd)
}

func runConfig(cmd *cobra.Command, args []string) {
	write, _ := cmd.Flags().GetBool("write")
	pathOnly, _ := cmd.Flags().GetBool("path")

	path, err := config.Path(configPath)
	if err != nil {
		exitErr("resolve config", err)
	}
	if pathOnly {
		fmt.Println(path)
		return
	}

	cfg := loadConfig()
	if write {
		if err := config.Save(path, cfg); err != nil {
			exitErr("save config", err)
		}
		fmt.Printf("wrote %s\n", path)
		return
	}

	out, err := config.Marshal(cfg)
	if err != nil {
		exitErr("marshal config", err)
	}
	fmt.Print(string(out))
}
