package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	workspaceName string
	rootCmd       *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "labtask",
		Short: "labtask - GitLab issues as local tasks",
		Long: `labtask keeps the issues of a GitLab project in sync with a local task list.

Starting an issue creates and engages a local task for it; stopping, closing and
reopening are pushed to GitLab. Run without arguments to open the terminal UI.`,
		RunE:          runUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/labtask/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspaceName, "workspace", "w", "", "workspace to use (default from config)")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(startCmd, stopCmd, closeCmd, reopenCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		return err
	}
	return nil
}
