package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server [url]",
	Short: "Show or set the GitLab server URL",
	Long: `Show or set the GitLab server URL.

Changing the server deselects the project and forgets every issue to task association.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(e *env) error {
			if len(args) == 0 {
				fmt.Println(e.session.ServerURL())
				return nil
			}
			if e.session.HasAssociations() {
				fmt.Println(color.YellowString("Issue to task associations will be lost."))
			}
			if err := e.session.SetServerURL(args[0]); err != nil {
				return err
			}
			fmt.Println("Server set to", e.session.ServerURL())
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [private-token]",
	Short: "Show (masked) or set the private access token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(e *env) error {
			if len(args) == 0 {
				fmt.Println(maskToken(e.session.Token()))
				return nil
			}
			if err := e.session.SetToken(args[0]); err != nil {
				return err
			}
			fmt.Println("Token saved")
			return nil
		})
	},
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
