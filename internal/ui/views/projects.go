package views

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/ui/keys"
	"github.com/tgienger/labtask/internal/ui/styles"
	"github.com/tgienger/labtask/internal/workspace"
)

type projectItem struct {
	project *models.Project
	current bool
}

func (i projectItem) Title() string {
	if i.current {
		return "* " + i.project.FullName
	}
	return i.project.FullName
}

func (i projectItem) Description() string {
	kind := "personal"
	if i.project.Namespace != nil && i.project.Namespace.IsGroup() {
		kind = "group"
	}
	return fmt.Sprintf("id %d • %s", i.project.ID, kind)
}

func (i projectItem) FilterValue() string { return i.project.FullName }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(p.Title()), descStyle.Render(p.Description()))
}

// ProjectListView lets the user pick the project whose issues are shown
type ProjectListView struct {
	session  *workspace.Session
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loading  bool
}

func NewProjectListView(session *workspace.Session) *ProjectListView {
	s := styles.NewStyles()
	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		session:  session,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
}

// Load asks the server for the project list. It must run on the
// session's goroutine.
func (v *ProjectListView) Load() {
	v.loading = true
	v.session.FetchProjects(v.setProjects)
}

func (v *ProjectListView) setProjects(projects []*models.Project) {
	current := v.session.Project()
	items := make([]list.Item, len(projects))
	selected := 0
	for i, p := range projects {
		items[i] = projectItem{project: p, current: p.SameAs(current)}
		if p.SameAs(current) {
			selected = i
		}
	}
	v.list.SetItems(items)
	v.list.Select(selected)
	v.loading = false
}

// Modal reports whether the list filter is being typed
func (v *ProjectListView) Modal() bool {
	return v.list.FilterState() == list.Filtering
}

func (v *ProjectListView) Init() tea.Cmd { return nil }

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-4)
		return v, nil

	case tea.KeyMsg:
		if v.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			if v.list.FilterState() == list.FilterApplied {
				v.list.ResetFilter()
				return v, nil
			}
			return v, navigate(ScreenIssues)
		case key.Matches(msg, v.keys.Refresh):
			v.Load()
			return v, nil
		case key.Matches(msg, v.keys.Settings):
			return v, navigate(ScreenSettings)
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, v.choose(item.project)
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// choose selects a project, asking first when that drops associations
func (v *ProjectListView) choose(project *models.Project) tea.Cmd {
	chosen := func() tea.Msg { return ProjectChosen{Project: project} }
	if project.SameAs(v.session.Project()) || !v.session.HasAssociations() {
		return chosen
	}
	return func() tea.Msg {
		return ConfirmMsg{Question: AssociationWarning, Yes: chosen}
	}
}

func (v *ProjectListView) View() string {
	if v.loading && len(v.list.Items()) == 0 {
		return v.styles.TitleMuted.Render("Loading projects...")
	}
	if len(v.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			v.styles.Title.Render("No Projects"),
			"",
			v.styles.TitleMuted.Render("The server returned no projects. Check the server and token with 's'."),
			v.renderHelp(),
		)
	}
	return v.list.View() + "\n" + v.renderHelp()
}

func (v *ProjectListView) renderHelp() string {
	return v.styles.Help.Render(
		fmt.Sprintf("%s select • %s filter • %s reload • %s back • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}
