package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/ui/keys"
	"github.com/tgienger/labtask/internal/ui/styles"
	"github.com/tgienger/labtask/internal/workspace"
)

func localIDs(issues []*models.Issue) []int {
	var out []int
	for _, issue := range issues {
		out = append(out, issue.LocalID)
	}
	return out
}

func TestVisibleIssues(t *testing.T) {
	issues := []*models.Issue{
		{ID: 70, LocalID: 7, Summary: "Fix login", State: models.StateOpen},
		{ID: 80, LocalID: 8, Summary: "Crash on start", State: models.StateActive, Bug: true},
		{ID: 90, LocalID: 9, Summary: "Old login page", State: models.StateClosed},
	}

	tests := []struct {
		name       string
		showClosed bool
		query      string
		want       []int
	}{
		{"open only", false, "", []int{7, 8}},
		{"with closed", true, "", []int{7, 8, 9}},
		{"query hides closed", false, "login", []int{7}},
		{"blank query", false, "  ", []int{7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localIDs(visibleIssues(issues, tt.showClosed, tt.query))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("visible mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVisibleIssuesQueryIncludesClosed(t *testing.T) {
	issues := []*models.Issue{
		{ID: 70, LocalID: 7, Summary: "Fix login", State: models.StateOpen},
		{ID: 90, LocalID: 9, Summary: "Old login page", State: models.StateClosed},
	}
	if got := visibleIssues(issues, true, "login"); len(got) != 2 {
		t.Errorf("got %v, want both login issues", localIDs(got))
	}
}

func TestIssueFormDraftFromIssue(t *testing.T) {
	alice := &models.User{ID: 1, Name: "Alice"}
	bob := &models.User{ID: 2, Name: "Bob"}
	issue := &models.Issue{
		ID:          80,
		LocalID:     8,
		Summary:     "Crash on start",
		Description: "Stack trace attached",
		Labels:      []string{"urgent"},
		Bug:         true,
		Assignee:    alice,
	}

	f := newIssueForm(issue, []*models.User{bob, alice}, styles.NewStyles(), keys.DefaultKeyMap())
	got := f.draft()
	if diff := cmp.Diff(workspace.DraftOf(issue), got); diff != "" {
		t.Errorf("untouched form changed the issue (-want +got):\n%s", diff)
	}
}

func TestIssueFormCyclesAssignees(t *testing.T) {
	alice := &models.User{ID: 1, Name: "Alice"}
	bob := &models.User{ID: 2, Name: "Bob"}
	f := newIssueForm(nil, []*models.User{alice, bob}, styles.NewStyles(), keys.DefaultKeyMap())

	var got []string
	for range 4 {
		f.cycleAssignee(1)
		got = append(got, f.draft().Assignee.String())
	}
	if diff := cmp.Diff([]string{"Alice", "Bob", "", "Alice"}, got); diff != "" {
		t.Errorf("forward cycle mismatch (-want +got):\n%s", diff)
	}

	f.cycleAssignee(-1)
	if f.draft().Assignee != nil {
		t.Errorf("assignee = %v, want nobody", f.draft().Assignee)
	}
	f.cycleAssignee(-1)
	if f.draft().Assignee != bob {
		t.Errorf("assignee = %v, want Bob", f.draft().Assignee)
	}
}

func TestIssueFormKeepsFormerMember(t *testing.T) {
	carol := &models.User{ID: 3, Name: "Carol"}
	issue := &models.Issue{ID: 1, LocalID: 1, Summary: "s", Assignee: carol}

	f := newIssueForm(issue, nil, styles.NewStyles(), keys.DefaultKeyMap())
	if f.draft().Assignee != carol {
		t.Errorf("assignee = %v, want Carol", f.draft().Assignee)
	}
}

func TestIssueFormRequiresSummary(t *testing.T) {
	f := newIssueForm(nil, nil, styles.NewStyles(), keys.DefaultKeyMap())
	f.focus = fieldSave
	f.updateFocus()

	if _, submit := f.update(tea.KeyMsg{Type: tea.KeyEnter}); submit {
		t.Error("empty form submitted")
	}
	if f.err == "" || f.focus != fieldSummary {
		t.Errorf("err = %q, focus = %d; want an error on the summary", f.err, f.focus)
	}

	f.summary.SetValue("Write docs")
	if _, submit := f.update(tea.KeyMsg{Type: tea.KeyCtrlS}); !submit {
		t.Error("filled form not submitted on ctrl+s")
	}
}

func TestIssueFormTogglesBug(t *testing.T) {
	f := newIssueForm(nil, nil, styles.NewStyles(), keys.DefaultKeyMap())
	f.focus = fieldBug
	f.updateFocus()

	f.update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !f.draft().Bug {
		t.Error("space did not mark the issue as a bug")
	}
	f.update(tea.KeyMsg{Type: tea.KeyEnter})
	if f.draft().Bug {
		t.Error("enter did not clear the bug flag")
	}
}

func TestServerChanged(t *testing.T) {
	tests := []struct {
		current, edited string
		want            bool
	}{
		{"https://gitlab.example.com", "https://gitlab.example.com/", false},
		{"https://gitlab.example.com", "https://other.example.com", true},
		{workspace.DefaultServerURL, "", false},
	}
	for _, tt := range tests {
		if got := serverChanged(tt.current, tt.edited); got != tt.want {
			t.Errorf("serverChanged(%q, %q) = %v, want %v", tt.current, tt.edited, got, tt.want)
		}
	}
}
