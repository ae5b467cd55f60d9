package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/ui/styles"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Current.Border)).
		Headers(headers...)
}

func printIssues(w io.Writer, issues []*models.Issue) {
	t := newTable("#", "Summary", "Labels", "Assignee", "Author", "State")
	for _, issue := range issues {
		t.Row("#"+strconv.Itoa(issue.LocalID), issue.Summary, issue.CompleteLabels(),
			issue.Assignee.String(), issue.Author.String(), issue.State.String())
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle.Inherit(styles.IssueRowStyle(issues[row]))
	})
	fmt.Fprintln(w, t)
}

// printIssue writes the details of one issue. taskID is the backing
// local task, if any.
func printIssue(w io.Writer, issue *models.Issue, taskID string) {
	title := lipgloss.NewStyle().Bold(true).Inherit(styles.IssueRowStyle(issue))
	fmt.Fprintln(w, title.Render(fmt.Sprintf("#%d %s", issue.LocalID, issue.Summary)))

	field := func(name, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%-10s %s\n", name+":", value)
	}
	field("State", issue.State.String())
	field("Labels", issue.CompleteLabels())
	field("Assignee", issue.Assignee.String())
	field("Author", issue.Author.String())
	if taskID != "" {
		field("Task", shortID(taskID))
	}
	if issue.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, issue.Description)
	}
}

func printProjects(w io.Writer, projects []*models.Project, selected *models.Project) {
	t := newTable("", "ID", "Project")
	for _, p := range projects {
		marker := ""
		if p.SameAs(selected) {
			marker = "*"
		}
		t.Row(marker, strconv.Itoa(p.ID), p.FullName)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	fmt.Fprintln(w, t)
}
