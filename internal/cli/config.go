package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/labtask/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect labtask configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println("# Effective configuration (defaults + file + LABTASK_* environment)")
		fmt.Print(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			fmt.Println(configPath)
			return
		}
		fmt.Println(config.Path())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
