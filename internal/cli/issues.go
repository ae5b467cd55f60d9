package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/workspace"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List the issues of the selected project",
	Args:  cobra.NoArgs,
	RunE:  runIssues,
}

var (
	startCmd  = transitionCmd("start", "Start working on an issue", startTransition)
	stopCmd   = transitionCmd("stop", "Stop working on an issue", stopTransition)
	closeCmd  = transitionCmd("close", "Close an issue", closeTransition)
	reopenCmd = transitionCmd("reopen", "Reopen a closed issue", reopenTransition)
)

func init() {
	issuesCmd.Flags().StringP("filter", "f", "", "fuzzy filter on number, summary, labels and assignee")
	issuesCmd.Flags().BoolP("all", "a", false, "include closed issues")
}

func runIssues(cmd *cobra.Command, args []string) error {
	filter, _ := cmd.Flags().GetString("filter")
	all, _ := cmd.Flags().GetBool("all")

	return withEnv(func(e *env) error {
		if err := e.refresh(); err != nil {
			return err
		}

		var shown []*models.Issue
		for _, issue := range e.session.Issues() {
			if all || !issue.IsClosed() {
				shown = append(shown, issue)
			}
		}
		shown = models.FilterIssues(shown, filter)

		fmt.Fprintln(os.Stdout, color.New(color.Bold).Sprint(e.session.Project().FullName))
		if len(shown) == 0 {
			fmt.Println("No issues.")
			return nil
		}
		printIssues(os.Stdout, shown)
		return nil
	})
}

var showCmd = &cobra.Command{
	Use:   "show <issue-number>",
	Short: "Show the details of an issue",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	return withEnv(func(e *env) error {
		issue, err := findIssue(e, args[0])
		if err != nil {
			return err
		}
		e.session.ReloadIssue(issue, nil)
		if err := e.check(); err != nil {
			return err
		}
		taskID, _ := e.session.Association(issue.ID)
		printIssue(os.Stdout, issue, taskID)
		return nil
	})
}

type transitionFunc func(issue *models.Issue) (models.Transition, error)

func transitionCmd(use, short string, pick transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <issue-number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(e *env) error {
				issue, err := findIssue(e, args[0])
				if err != nil {
					return err
				}
				t, err := pick(issue)
				if err != nil {
					return err
				}
				if err := e.session.PerformTransition(issue, t); err != nil {
					return err
				}
				if err := e.check(); err != nil {
					return err
				}
				fmt.Printf("%s #%d: %s\n", color.GreenString(t.Label()), issue.LocalID, issue.State)
				return nil
			})
		},
	}
}

func startTransition(issue *models.Issue) (models.Transition, error) {
	t, ok := models.TransitionBetween(issue.State, models.StateActive)
	if !ok {
		return 0, fmt.Errorf("issue #%d is already active", issue.LocalID)
	}
	return t, nil
}

func stopTransition(issue *models.Issue) (models.Transition, error) {
	if !issue.IsActive() {
		return 0, fmt.Errorf("issue #%d is not active", issue.LocalID)
	}
	return models.ActiveToOpen, nil
}

func closeTransition(issue *models.Issue) (models.Transition, error) {
	t, ok := models.TransitionBetween(issue.State, models.StateClosed)
	if !ok {
		return 0, fmt.Errorf("issue #%d is already closed", issue.LocalID)
	}
	return t, nil
}

func reopenTransition(issue *models.Issue) (models.Transition, error) {
	if !issue.IsClosed() {
		return 0, fmt.Errorf("issue #%d is not closed", issue.LocalID)
	}
	return models.ClosedToOpen, nil
}

// findIssue refreshes the issue list and looks up "#7" or "7"
func findIssue(e *env, arg string) (*models.Issue, error) {
	iid, err := parseIssueNumber(arg)
	if err != nil {
		return nil, err
	}
	if err := e.refresh(); err != nil {
		return nil, err
	}
	issue := e.session.IssueByLocalID(iid)
	if issue == nil {
		return nil, fmt.Errorf("no issue #%d in %s", iid, e.session.Project().FullName)
	}
	return issue, nil
}

func parseIssueNumber(arg string) (int, error) {
	if len(arg) > 0 && arg[0] == '#' {
		arg = arg[1:]
	}
	iid, err := strconv.Atoi(arg)
	if err != nil || iid <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", arg)
	}
	return iid, nil
}

// findMember resolves a username among the project members. "" means
// unassigned.
func findMember(e *env, username string) (*models.User, error) {
	if username == "" {
		return nil, nil
	}
	for _, member := range e.session.Project().Members() {
		if member.Username == username {
			return member, nil
		}
	}
	return nil, fmt.Errorf("%s is not a member of %s", username, e.session.Project().FullName)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue in the selected project",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

var editCmd = &cobra.Command{
	Use:   "edit <issue-number>",
	Short: "Edit an issue; only the given flags are changed",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	for _, c := range []*cobra.Command{createCmd, editCmd} {
		c.Flags().StringP("title", "t", "", "summary")
		c.Flags().StringP("description", "d", "", "description")
		c.Flags().StringP("labels", "l", "", "comma separated labels")
		c.Flags().Bool("bug", false, "mark as bug")
		c.Flags().String("assignee", "", "username of the assignee")
	}
	createCmd.MarkFlagRequired("title")
}

func runCreate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	title, _ := flags.GetString("title")
	description, _ := flags.GetString("description")
	labels, _ := flags.GetString("labels")
	bug, _ := flags.GetBool("bug")
	assignee, _ := flags.GetString("assignee")

	return withEnv(func(e *env) error {
		if err := e.refresh(); err != nil {
			return err
		}
		user, err := findMember(e, assignee)
		if err != nil {
			return err
		}

		draft := workspace.IssueDraft{
			Summary:     title,
			Description: description,
			Labels:      models.ParseLabels(labels),
			Bug:         bug,
			Assignee:    user,
		}
		e.session.CreateIssue(draft, func(issue *models.Issue) {
			fmt.Printf("%s #%d: %s\n", color.GreenString("Created"), issue.LocalID, issue.Summary)
		})
		return nil
	})
}

func runEdit(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	return withEnv(func(e *env) error {
		issue, err := findIssue(e, args[0])
		if err != nil {
			return err
		}

		draft := workspace.DraftOf(issue)
		if flags.Changed("title") {
			draft.Summary, _ = flags.GetString("title")
		}
		if flags.Changed("description") {
			draft.Description, _ = flags.GetString("description")
		}
		if flags.Changed("labels") {
			labels, _ := flags.GetString("labels")
			draft.Labels = models.ParseLabels(labels)
		}
		if flags.Changed("bug") {
			draft.Bug, _ = flags.GetBool("bug")
		}
		if flags.Changed("assignee") {
			username, _ := flags.GetString("assignee")
			if draft.Assignee, err = findMember(e, username); err != nil {
				return err
			}
		}

		e.session.ModifyIssue(issue, draft, func(updated *models.Issue) {
			fmt.Printf("%s #%d: %s\n", color.GreenString("Updated"), updated.LocalID, updated.Summary)
		})
		return nil
	})
}
