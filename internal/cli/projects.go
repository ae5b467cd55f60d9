package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tgienger/labtask/internal/models"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the projects visible to the token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(e *env) error {
			projects, err := fetchProjects(e)
			if err != nil {
				return err
			}
			printProjects(os.Stdout, projects, e.session.Project())
			return nil
		})
	},
}

var useCmd = &cobra.Command{
	Use:   "use <project-id>",
	Short: "Select the project whose issues are tracked",
	Long: `Select the project whose issues are tracked.

Switching to another project forgets every issue to task association.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}
		return withEnv(func(e *env) error {
			projects, err := fetchProjects(e)
			if err != nil {
				return err
			}
			var selected *models.Project
			for _, p := range projects {
				if p.ID == id {
					selected = p
				}
			}
			if selected == nil {
				return fmt.Errorf("project %d not found", id)
			}

			if !selected.SameAs(e.session.Project()) && e.session.HasAssociations() {
				fmt.Println(color.YellowString("Issue to task associations of the current project will be lost."))
			}
			if err := e.session.LoadProject(selected); err != nil {
				return err
			}
			if err := e.check(); err != nil {
				return err
			}
			fmt.Printf("Using %s (%d issues)\n", color.New(color.Bold).Sprint(selected.FullName), len(e.session.Issues()))
			return nil
		})
	},
}

func fetchProjects(e *env) ([]*models.Project, error) {
	var projects []*models.Project
	e.session.FetchProjects(func(p []*models.Project) { projects = p })
	if err := e.check(); err != nil {
		return nil, err
	}
	return projects, nil
}
