package views

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/ui/keys"
	"github.com/tgienger/labtask/internal/ui/styles"
	"github.com/tgienger/labtask/internal/workspace"
)

// form field order
const (
	fieldSummary = iota
	fieldDescription
	fieldLabels
	fieldBug
	fieldAssignee
	fieldSave
	fieldCount
)

// issueForm edits a new or an existing issue
type issueForm struct {
	issue   *models.Issue // nil for a new issue
	members []*models.User

	summary     textinput.Model
	description textarea.Model
	labels      textinput.Model
	bug         bool
	assignee    int // index into members, -1 for nobody

	focus  int
	err    string
	styles *styles.Styles
	keys   keys.KeyMap
}

func newIssueForm(issue *models.Issue, members []*models.User, s *styles.Styles, km keys.KeyMap) *issueForm {
	summary := textinput.New()
	summary.Placeholder = "Summary"
	summary.CharLimit = 255

	description := textarea.New()
	description.Placeholder = "Description"
	description.CharLimit = 5000
	description.SetWidth(50)
	description.SetHeight(5)
	description.ShowLineNumbers = false

	labels := textinput.New()
	labels.Placeholder = "Labels, comma separated"
	labels.CharLimit = 255

	f := &issueForm{
		issue:       issue,
		members:     members,
		summary:     summary,
		description: description,
		labels:      labels,
		assignee:    -1,
		styles:      s,
		keys:        km,
	}

	if issue != nil {
		draft := workspace.DraftOf(issue)
		f.summary.SetValue(draft.Summary)
		f.description.SetValue(draft.Description)
		f.labels.SetValue(models.LabelsText(draft.Labels))
		f.bug = draft.Bug
		f.assignee = memberIndex(members, draft.Assignee)
		if f.assignee < 0 && draft.Assignee != nil {
			// keep an assignee that is no longer a member selectable
			f.members = append([]*models.User{draft.Assignee}, members...)
			f.assignee = 0
		}
	}
	f.updateFocus()
	return f
}

func memberIndex(members []*models.User, user *models.User) int {
	if user == nil {
		return -1
	}
	for i, m := range members {
		if m.ID == user.ID {
			return i
		}
	}
	return -1
}

// draft returns the form's content
func (f *issueForm) draft() workspace.IssueDraft {
	draft := workspace.IssueDraft{
		Summary:     strings.TrimSpace(f.summary.Value()),
		Description: strings.TrimSpace(f.description.Value()),
		Labels:      models.ParseLabels(f.labels.Value()),
		Bug:         f.bug,
	}
	if f.assignee >= 0 && f.assignee < len(f.members) {
		draft.Assignee = f.members[f.assignee]
	}
	return draft
}

// cycleAssignee moves through nobody and the members
func (f *issueForm) cycleAssignee(dir int) {
	n := len(f.members) + 1
	f.assignee = (f.assignee+1+dir+n)%n - 1
}

func (f *issueForm) setWidth(width int) {
	inputWidth := clamp(width-10, 20, 60)
	f.description.SetWidth(inputWidth)
}

func (f *issueForm) updateFocus() {
	f.summary.Blur()
	f.description.Blur()
	f.labels.Blur()

	switch f.focus {
	case fieldSummary:
		f.summary.Focus()
	case fieldDescription:
		f.description.Focus()
	case fieldLabels:
		f.labels.Focus()
	}
}

func (f *issueForm) move(dir int) {
	f.focus = (f.focus + dir + fieldCount) % fieldCount
	f.updateFocus()
}

// update handles a key. submit is true once the form should be saved.
func (f *issueForm) update(msg tea.KeyMsg) (cmd tea.Cmd, submit bool) {
	switch {
	case key.Matches(msg, f.keys.Save):
		return nil, f.validate()

	case key.Matches(msg, f.keys.Tab):
		f.move(1)
		return nil, false

	case key.Matches(msg, f.keys.ShiftTab):
		f.move(-1)
		return nil, false

	case key.Matches(msg, f.keys.Enter):
		switch f.focus {
		case fieldSummary, fieldLabels:
			f.move(1)
			return nil, false
		case fieldBug:
			f.bug = !f.bug
			return nil, false
		case fieldAssignee:
			f.cycleAssignee(1)
			return nil, false
		case fieldSave:
			return nil, f.validate()
		}
		// newlines in the description

	case f.focus == fieldBug && (msg.Type == tea.KeySpace || msg.String() == " "):
		f.bug = !f.bug
		return nil, false

	case key.Matches(msg, f.keys.Left) && f.focus == fieldAssignee:
		f.cycleAssignee(-1)
		return nil, false

	case key.Matches(msg, f.keys.Right) && f.focus == fieldAssignee:
		f.cycleAssignee(1)
		return nil, false
	}

	switch f.focus {
	case fieldSummary:
		f.summary, cmd = f.summary.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	case fieldLabels:
		f.labels, cmd = f.labels.Update(msg)
	}
	return cmd, false
}

func (f *issueForm) validate() bool {
	if strings.TrimSpace(f.summary.Value()) == "" {
		f.err = "Summary is required"
		f.focus = fieldSummary
		f.updateFocus()
		return false
	}
	f.err = ""
	return true
}

func (f *issueForm) view(width int) string {
	s := f.styles

	title := "New Issue"
	if f.issue != nil {
		title = "Edit Issue #" + strconv.Itoa(f.issue.LocalID)
	}

	style := func(field int) lipgloss.Style {
		if f.focus == field {
			return s.InputFocused
		}
		return s.Input
	}

	inputWidth := clamp(width-6, 20, 60)

	bug := "[ ] bug"
	if f.bug {
		bug = "[x] bug"
	}

	assignee := "Nobody"
	if f.assignee >= 0 && f.assignee < len(f.members) {
		assignee = f.members[f.assignee].Name
	}

	btnStyle := s.Button
	if f.focus == fieldSave {
		btnStyle = s.ButtonFocused
	}

	rows := []string{
		s.Title.Render(title),
		"",
		"Summary:",
		style(fieldSummary).Width(inputWidth).Render(f.summary.View()),
		"Description:",
		style(fieldDescription).Render(f.description.View()),
		"Labels:",
		style(fieldLabels).Width(inputWidth).Render(f.labels.View()),
		style(fieldBug).Width(inputWidth).Render(bug),
		"Assignee:",
		style(fieldAssignee).Width(inputWidth).Render("‹ " + assignee + " ›"),
		"",
		btnStyle.Render(" Save "),
	}
	if f.err != "" {
		rows = append(rows, "", s.Error.Render(f.err))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • ←→: assignee • Space: bug • Ctrl+S: save • Esc: cancel"))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
