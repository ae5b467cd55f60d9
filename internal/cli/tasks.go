package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/tgienger/labtask/internal/models"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the local task list",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local tasks and the issues they back",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksActivateCmd = &cobra.Command{
	Use:   "activate <task-id>",
	Short: "Engage a local task; its issue becomes active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTasks(args[0], func(e *env, task *models.Task) error {
			if err := e.host.ActivateTask(task.ID); err != nil {
				return err
			}
			fmt.Println("Engaged", task.Title)
			return nil
		})
	},
}

var tasksRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Remove a local task; you are asked whether to close its issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTasks(args[0], func(e *env, task *models.Task) error {
			if err := e.host.RemoveTask(task.ID); err != nil {
				return err
			}
			fmt.Println("Removed", task.Title)
			return nil
		})
	},
}

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksActivateCmd, tasksRemoveCmd)
}

func runTasksList(cmd *cobra.Command, args []string) error {
	return withEnv(func(e *env) error {
		if e.session.Project() != nil {
			if err := e.refresh(); err != nil {
				return err
			}
		}
		list, err := e.host.ListTasks()
		if err != nil {
			return err
		}

		backing := make(map[string]*models.Issue)
		for _, issue := range e.session.Issues() {
			if issue.HasTask() {
				backing[issue.Task()] = issue
			}
		}

		t := newTable("", "ID", "Title", "Issue")
		for _, task := range list {
			marker := ""
			if task.ID == e.host.ActiveTaskID() {
				marker = "*"
			}
			issue := ""
			if backed, ok := backing[task.ID]; ok {
				issue = fmt.Sprintf("#%d (%s)", backed.LocalID, backed.State)
			}
			t.Row(marker, shortID(task.ID), task.Title, issue)
		}
		t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
		fmt.Fprintln(os.Stdout, t)
		return nil
	})
}

// withTasks loads the issue list, so that task events reach the issues,
// and resolves a task id or unique id prefix
func withTasks(ref string, fn func(e *env, task *models.Task) error) error {
	return withEnv(func(e *env) error {
		if e.session.Project() != nil {
			if err := e.refresh(); err != nil {
				return err
			}
		}
		task, err := resolveTask(e, ref)
		if err != nil {
			return err
		}
		return fn(e, task)
	})
}

func resolveTask(e *env, ref string) (*models.Task, error) {
	list, err := e.host.ListTasks()
	if err != nil {
		return nil, err
	}
	var found []models.Task
	for _, task := range list {
		if task.ID == ref {
			return &task, nil
		}
		if strings.HasPrefix(task.ID, ref) {
			found = append(found, task)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no task %q", ref)
	case 1:
		return &found[0], nil
	}
	return nil, fmt.Errorf("task id %q is ambiguous", ref)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
