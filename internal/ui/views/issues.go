package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/ui/keys"
	"github.com/tgienger/labtask/internal/ui/styles"
	"github.com/tgienger/labtask/internal/workspace"
)

// IssueListView shows the issues of the selected project
type IssueListView struct {
	session *workspace.Session
	project *models.Project
	issues  []*models.Issue
	visible []*models.Issue
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	cursor      int
	scrollY     int
	searching   bool
	searchInput textinput.Model
	showClosed  bool

	// Transition menu for the selected issue
	menuOpen   bool
	menuCursor int

	form *issueForm

	showHelpPopup bool
}

// NewIssueListView creates the issue list of a session
func NewIssueListView(session *workspace.Session) *IssueListView {
	search := textinput.New()
	search.Placeholder = "Search issues..."
	search.CharLimit = 100

	v := &IssueListView{
		session:     session,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		searchInput: search,
	}
	v.SetIssues(workspace.IssuesLoaded{Project: session.Project(), Issues: session.Issues()})
	return v
}

// SetIssues replaces the list, keeping the cursor on the same issue
func (v *IssueListView) SetIssues(loaded workspace.IssuesLoaded) {
	v.project = loaded.Project
	v.issues = loaded.Issues
	v.refilter()
}

// Refilter recomputes the visible issues after their states changed
func (v *IssueListView) Refilter() {
	v.refilter()
}

func (v *IssueListView) refilter() {
	var selected *models.Issue
	if v.cursor < len(v.visible) {
		selected = v.visible[v.cursor]
	}

	v.visible = visibleIssues(v.issues, v.showClosed, v.searchInput.Value())

	v.cursor = 0
	for i, issue := range v.visible {
		if issue == selected {
			v.cursor = i
			break
		}
	}
	v.ensureVisible()

	if v.menuOpen && v.selected() != selected {
		v.menuOpen = false
	}
}

// visibleIssues hides closed issues unless asked for, then applies the
// fuzzy query
func visibleIssues(issues []*models.Issue, showClosed bool, query string) []*models.Issue {
	var out []*models.Issue
	for _, issue := range issues {
		if showClosed || !issue.IsClosed() {
			out = append(out, issue)
		}
	}
	return models.FilterIssues(out, strings.TrimSpace(query))
}

func (v *IssueListView) selected() *models.Issue {
	if v.cursor < 0 || v.cursor >= len(v.visible) {
		return nil
	}
	return v.visible[v.cursor]
}

// Modal reports whether the view is capturing keys for an input
func (v *IssueListView) Modal() bool {
	return v.form != nil || v.searching || v.menuOpen || v.showHelpPopup
}

func (v *IssueListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		if v.form != nil {
			v.form.setWidth(styles.ContentWidth(v.width))
		}
		v.ensureVisible()
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.form != nil {
			return v.updateForm(msg)
		}
		if v.menuOpen {
			return v.updateMenu(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *IssueListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Don't process hotkeys while typing a search
	if v.searching {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.searching = false
			v.searchInput.Blur()
			v.searchInput.Reset()
			v.refilter()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			v.searching = false
			v.searchInput.Blur()
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.refilter()
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.searchInput.Value() != "" {
			v.searchInput.Reset()
			v.refilter()
		}
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.visible)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.selected() != nil {
			v.menuOpen = true
			v.menuCursor = 0
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		if v.project == nil {
			return v, report(workspace.ErrNoProject)
		}
		v.form = newIssueForm(nil, v.project.Members(), v.styles, v.keys)
		v.form.setWidth(styles.ContentWidth(v.width))
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if issue := v.selected(); issue != nil && v.project != nil {
			v.form = newIssueForm(issue, v.project.Members(), v.styles, v.keys)
			v.form.setWidth(styles.ContentWidth(v.width))
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.ShowClosed):
		v.showClosed = !v.showClosed
		v.refilter()
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		v.session.RefreshIssues()
		return v, nil

	case key.Matches(msg, v.keys.Projects):
		return v, navigate(ScreenProjects)

	case key.Matches(msg, v.keys.Settings):
		return v, navigate(ScreenSettings)

	case key.Matches(msg, v.keys.Tasks):
		return v, navigate(ScreenTasks)

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}
	return v, nil
}

func (v *IssueListView) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	issue := v.selected()
	if issue == nil {
		v.menuOpen = false
		return v, nil
	}
	options := models.LegalTransitions(issue.State)

	switch {
	case key.Matches(msg, v.keys.Back):
		v.menuOpen = false
	case key.Matches(msg, v.keys.Up):
		if v.menuCursor > 0 {
			v.menuCursor--
		}
	case key.Matches(msg, v.keys.Down):
		if v.menuCursor < len(options)-1 {
			v.menuCursor++
		}
	case key.Matches(msg, v.keys.Enter):
		v.menuOpen = false
		if err := v.session.PerformTransition(issue, options[v.menuCursor]); err != nil {
			return v, report(err)
		}
		v.refilter()
	}
	return v, nil
}

func (v *IssueListView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, v.keys.Back) {
		v.form = nil
		return v, nil
	}

	cmd, submit := v.form.update(msg)
	if !submit {
		return v, cmd
	}

	draft := v.form.draft()
	if v.form.issue == nil {
		v.session.CreateIssue(draft, func(*models.Issue) {
			v.cursor = 0
			v.scrollY = 0
		})
	} else {
		v.session.ModifyIssue(v.form.issue, draft, func(*models.Issue) {
			v.refilter()
		})
	}
	v.form = nil
	return v, nil
}

// listHeight is the number of issue rows that fit
func (v *IssueListView) listHeight() int {
	return max(v.height-8, 1)
}

func (v *IssueListView) ensureVisible() {
	rows := v.listHeight()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+rows {
		v.scrollY = v.cursor - rows + 1
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
}

func (v *IssueListView) Init() tea.Cmd { return nil }

func (v *IssueListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	contentWidth := styles.ContentWidth(v.width)
	if v.form != nil {
		return lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center, v.form.view(contentWidth))
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderIssueList())
	if v.menuOpen {
		b.WriteString("\n")
		b.WriteString(v.renderMenu())
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *IssueListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	title := "No project"
	if v.project != nil {
		title = v.project.FullName
	}
	if v.showClosed {
		title += " (all)"
	}

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(contentWidth-8, 10, 40)).Render(v.searchInput.View())

	return lipgloss.JoinVertical(lipgloss.Left, s.Title.Render(title), searchBox)
}

// column widths of the issue table
const (
	colNumber   = 6
	colState    = 8
	colAssignee = 14
	colAuthor   = 14
)

func (v *IssueListView) renderIssueList() string {
	s := v.styles
	if v.project == nil {
		return s.TitleMuted.Render("No project selected. Press 'p' to pick one.")
	}
	if len(v.visible) == 0 {
		return s.TitleMuted.Render("No issues. Press 'n' to create one.")
	}

	width := max(styles.ContentWidth(v.width)-4, 40)
	summaryWidth := max(width-colNumber-colState-colAssignee-colAuthor-8, 10)

	rows := []string{s.IssueHeader.Render(
		pad("#", colNumber) + " " + pad("State", colState) + " " + pad("Summary", summaryWidth) + " " +
			pad("Assignee", colAssignee) + " " + pad("Author", colAuthor),
	)}

	end := min(v.scrollY+v.listHeight(), len(v.visible))
	for i := v.scrollY; i < end; i++ {
		rows = append(rows, v.renderIssueRow(v.visible[i], i == v.cursor, summaryWidth))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *IssueListView) renderIssueRow(issue *models.Issue, selected bool, summaryWidth int) string {
	s := v.styles

	summary := issue.Summary
	if labels := issue.CompleteLabels(); labels != "" {
		summary += " [" + labels + "]"
	}
	line := pad(fmt.Sprintf("#%d", issue.LocalID), colNumber) + " " +
		pad(issue.State.String(), colState) + " " +
		pad(summary, summaryWidth) + " " +
		pad(issue.Assignee.String(), colAssignee) + " " +
		pad(issue.Author.String(), colAuthor)

	rowStyle := s.IssueRow.Inherit(styles.IssueRowStyle(issue))
	if selected {
		rowStyle = s.IssueSelected.Inherit(styles.IssueRowStyle(issue))
	}
	return rowStyle.Render(line)
}

func (v *IssueListView) renderMenu() string {
	s := v.styles
	issue := v.selected()
	if issue == nil {
		return ""
	}

	items := []string{s.DialogTitle.Render(fmt.Sprintf("#%d %s", issue.LocalID, truncate(issue.Summary, 40)))}
	for i, t := range models.LegalTransitions(issue.State) {
		style := s.ListItem
		if i == v.menuCursor {
			style = s.ListSelected
		}
		items = append(items, style.Render(t.Label()))
	}
	return s.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *IssueListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	closedLabel := "closed"
	if v.showClosed {
		closedLabel = "open only"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s state • %s edit • %s new • %s search • %s %s • %s refresh • %s projects • %s settings • %s tasks • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("c"),
			closedLabel,
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("t"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *IssueListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      change state",
		s.HelpKey.Render("e") + "      edit issue",
		s.HelpKey.Render("n") + "      new issue",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("c") + "      show closed issues",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("p") + "      projects",
		s.HelpKey.Render("s") + "      settings",
		s.HelpKey.Render("t") + "      local tasks",
		s.HelpKey.Render("esc") + "    cancel requests",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	return lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
}
