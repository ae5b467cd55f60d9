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

// removeTaskMsg is sent once removing a task was confirmed
type removeTaskMsg struct {
	id string
}

// TaskListView shows the local tasks. Activating or removing a task here
// is seen by the issue list the same way as a change made by any other
// client of the task system.
type TaskListView struct {
	host    workspace.TaskHost
	session *workspace.Session
	tasks   []models.Task
	err     error
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int

	creating bool
	newTitle textinput.Model
}

func NewTaskListView(host workspace.TaskHost, session *workspace.Session) *TaskListView {
	newTitle := textinput.New()
	newTitle.Placeholder = "Task title"
	newTitle.CharLimit = 200

	v := &TaskListView{
		host:     host,
		session:  session,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		newTitle: newTitle,
	}
	v.Reload()
	return v
}

// Reload reads the task list again
func (v *TaskListView) Reload() {
	v.tasks, v.err = v.host.ListTasks()
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
	v.ensureVisible()
}

// Modal reports whether a new task title is being typed
func (v *TaskListView) Modal() bool { return v.creating }

func (v *TaskListView) Init() tea.Cmd { return nil }

func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ensureVisible()
		return v, nil

	case removeTaskMsg:
		err := v.host.RemoveTask(msg.id)
		v.Reload()
		if err != nil {
			return v, report(err)
		}
		return v, nil

	case tea.KeyMsg:
		if v.creating {
			return v.updateCreating(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, navigate(ScreenIssues)

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Enter):
		if task, ok := v.selected(); ok {
			err := v.host.ActivateTask(task.ID)
			v.Reload()
			if err != nil {
				return v, report(err)
			}
		}

	case key.Matches(msg, v.keys.Delete):
		task, ok := v.selected()
		if !ok || task.Default {
			return v, nil
		}
		id := task.ID
		return v, func() tea.Msg {
			return ConfirmMsg{
				Question: fmt.Sprintf("Remove local task %q?", task.Title),
				Yes:      func() tea.Msg { return removeTaskMsg{id: id} },
			}
		}

	case key.Matches(msg, v.keys.New):
		v.creating = true
		v.newTitle.Reset()
		v.newTitle.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Refresh):
		v.Reload()
	}
	return v, nil
}

func (v *TaskListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.newTitle.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		title := strings.TrimSpace(v.newTitle.Value())
		if title == "" {
			return v, nil
		}
		v.creating = false
		v.newTitle.Blur()
		_, err := v.host.CreateTask(title)
		v.Reload()
		if err != nil {
			return v, report(err)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.newTitle, cmd = v.newTitle.Update(msg)
	return v, cmd
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) listHeight() int {
	return max(v.height-8, 1)
}

func (v *TaskListView) ensureVisible() {
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

// backingIssues maps task ids to the loaded issues they back
func (v *TaskListView) backingIssues() map[string]*models.Issue {
	out := make(map[string]*models.Issue)
	for _, issue := range v.session.Issues() {
		if issue.HasTask() {
			out[issue.Task()] = issue
		}
	}
	return out
}

func (v *TaskListView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	if v.creating {
		form := lipgloss.JoinVertical(lipgloss.Left,
			s.Title.Render("New Local Task"),
			"",
			"Title:",
			s.InputFocused.Width(clamp(contentWidth-6, 20, 50)).Render(v.newTitle.View()),
			"",
			s.TitleMuted.Render("↵: create • Esc: cancel"),
		)
		return lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center, form)
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Local Tasks"))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(s.Error.Render(v.err.Error()))
	case len(v.tasks) == 0:
		b.WriteString(s.TitleMuted.Render("No tasks."))
	default:
		b.WriteString(v.renderTaskList(contentWidth))
	}

	b.WriteString("\n")
	b.WriteString(s.Help.Render(
		fmt.Sprintf("%s activate • %s new • %s remove • %s reload • %s back",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("r"),
			s.HelpKey.Render("esc"),
		),
	))
	return b.String()
}

func (v *TaskListView) renderTaskList(contentWidth int) string {
	s := v.styles
	width := max(contentWidth-4, 30)
	active := v.host.ActiveTaskID()
	backing := v.backingIssues()

	var rows []string
	end := min(v.scrollY+v.listHeight(), len(v.tasks))
	for i := v.scrollY; i < end; i++ {
		task := v.tasks[i]

		marker := "  "
		if task.ID == active {
			marker = "▶ "
		}
		title := task.Title
		if task.Default {
			title += " (default)"
		}
		issue := ""
		if backing[task.ID] != nil {
			issue = fmt.Sprintf("#%d", backing[task.ID].LocalID)
		}
		line := marker + pad(title, width-12) + " " + pad(issue, 8)

		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}
		if task.ID == active {
			style = style.Foreground(styles.Current.Success)
		}
		rows = append(rows, style.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
