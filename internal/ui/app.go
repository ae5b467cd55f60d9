package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/labtask/internal/tasks"
	"github.com/tgienger/labtask/internal/ui/keys"
	"github.com/tgienger/labtask/internal/ui/styles"
	"github.com/tgienger/labtask/internal/ui/views"
	"github.com/tgienger/labtask/internal/workspace"
)

type screenView interface {
	tea.Model
	Modal() bool
}

type App struct {
	session  *workspace.Session
	executor *Executor
	prompts  *Prompts
	styles   *styles.Styles
	keys     keys.KeyMap
	spinner  spinner.Model

	screen   views.Screen
	issues   *views.IssueListView
	projects *views.ProjectListView
	settings *views.SettingsView
	tasks    *views.TaskListView

	errs   []error
	queued []tea.Cmd

	width  int
	height int

	unsubscribe []func()
}

// NewApp creates the terminal UI of a session. executor and prompts must
// be the ones the session was opened with.
func NewApp(session *workspace.Session, host workspace.TaskHost, executor *Executor, prompts *Prompts) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Accent)

	a := &App{
		session:  session,
		executor: executor,
		prompts:  prompts,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		spinner:  sp,
		screen:   views.ScreenIssues,
		issues:   views.NewIssueListView(session),
		projects: views.NewProjectListView(session),
		settings: views.NewSettingsView(session),
		tasks:    views.NewTaskListView(host, session),
	}

	a.unsubscribe = append(a.unsubscribe,
		session.OnIssuesLoaded(func(loaded workspace.IssuesLoaded) {
			a.issues.SetIssues(loaded)
			a.tasks.Reload()
		}),
		session.OnError(func(err error) {
			a.errs = append(a.errs, err)
		}),
		host.Subscribe(func(tasks.Event) {
			a.issues.Refilter()
			a.tasks.Reload()
		}),
	)
	return a
}

// Close detaches the app from the session and the task host
func (a *App) Close() {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.unsubscribe = nil
}

func (a *App) Init() tea.Cmd {
	if a.session.Project() == nil {
		a.switchTo(views.ScreenProjects)
	} else {
		a.session.RefreshIssues()
	}
	return tea.Batch(a.executor.Wait(), a.spinner.Tick)
}

func (a *App) current() screenView {
	switch a.screen {
	case views.ScreenProjects:
		return a.projects
	case views.ScreenSettings:
		return a.settings
	case views.ScreenTasks:
		return a.tasks
	default:
		return a.issues
	}
}

// switchTo changes the screen. Entering the project list reloads it.
func (a *App) switchTo(screen views.Screen) tea.Cmd {
	a.screen = screen
	var cmd tea.Cmd
	switch screen {
	case views.ScreenProjects:
		a.projects.Load()
	case views.ScreenSettings:
		cmd = a.settings.Reset()
	case views.ScreenTasks:
		a.tasks.Reload()
	}
	return tea.Batch(cmd, a.resize())
}

func (a *App) resize() tea.Cmd {
	width, height := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: width, Height: height}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case completionMsg:
		msg.complete()
		return a, a.executor.Wait()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// views get the space below the status bar
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-2, 1)}
		a.issues.Update(inner)
		a.projects.Update(inner)
		a.settings.Update(inner)
		a.tasks.Update(inner)
		return a, nil

	case views.Navigate:
		return a, a.switchTo(msg.To)

	case views.ConfirmMsg:
		yes := msg.Yes
		a.prompts.Confirm(msg.Question, func(ok bool) {
			if ok && yes != nil {
				a.queued = append(a.queued, yes)
			}
		})
		return a, nil

	case views.ErrorMsg:
		a.errs = append(a.errs, msg.Err)
		return a, nil

	case views.ProjectChosen:
		if err := a.session.LoadProject(msg.Project); err != nil {
			a.errs = append(a.errs, err)
		}
		return a, a.switchTo(views.ScreenIssues)

	case views.SettingsSaved:
		return a, a.saveSettings(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	_, cmd := a.current().Update(msg)
	return a, cmd
}

func (a *App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	// Questions come first, then errors, then the screen
	if _, ok := a.prompts.Current(); ok {
		switch {
		case key.Matches(msg, a.keys.Yes):
			return a, a.answer(true)
		case key.Matches(msg, a.keys.No):
			return a, a.answer(false)
		}
		return a, nil
	}

	if len(a.errs) > 0 {
		a.errs = a.errs[1:]
		return a, nil
	}

	view := a.current()
	if key.Matches(msg, a.keys.Back) && a.session.Busy() && !view.Modal() {
		a.session.CancelPending()
		return a, nil
	}

	_, cmd := view.Update(msg)
	return a, cmd
}

// answer answers the current question and runs whatever it queued
func (a *App) answer(yes bool) tea.Cmd {
	a.prompts.Answer(yes)
	cmds := a.queued
	a.queued = nil
	return tea.Batch(cmds...)
}

func (a *App) saveSettings(saved views.SettingsSaved) tea.Cmd {
	server := a.session.ServerURL()
	token := a.session.Token()

	if err := a.session.SetToken(saved.Token); err != nil {
		a.errs = append(a.errs, err)
		return nil
	}
	if err := a.session.SetServerURL(saved.ServerURL); err != nil {
		a.errs = append(a.errs, err)
		return nil
	}

	switch {
	case a.session.ServerURL() != server:
		return a.switchTo(views.ScreenProjects)
	case a.session.Token() != token && a.session.Project() != nil:
		a.session.RefreshIssues()
	}
	return a.switchTo(views.ScreenIssues)
}

func (a *App) View() string {
	var body string
	switch {
	case a.prompts.Len() > 0:
		body = a.renderPrompt()
	case len(a.errs) > 0:
		body = a.renderError()
	default:
		body = a.current().View()
	}
	content := lipgloss.JoinVertical(lipgloss.Left, a.renderStatusBar(), "", body)
	return styles.CenterView(content, a.width, a.height)
}

func (a *App) renderStatusBar() string {
	s := a.styles
	status := "labtask • " + a.session.ServerURL()
	if issue := a.session.ActiveIssue(); issue != nil {
		status += fmt.Sprintf(" • working on #%d", issue.LocalID)
	}
	if a.session.Busy() {
		status = a.spinner.View() + " " + status + " • esc to cancel"
	}
	return s.StatusBar.Render(status)
}

func (a *App) renderPrompt() string {
	s := a.styles
	question, _ := a.prompts.Current()
	width := clampWidth(styles.ContentWidth(a.width) - 8)

	dialog := s.Dialog.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		s.DialogTitle.Render("Confirm"),
		question,
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	))
	return lipgloss.Place(styles.ContentWidth(a.width), max(a.height-2, 1), lipgloss.Center, lipgloss.Center, dialog)
}

func (a *App) renderError() string {
	s := a.styles
	width := clampWidth(styles.ContentWidth(a.width) - 8)

	title := "Error"
	if len(a.errs) > 1 {
		title = fmt.Sprintf("Error (1 of %d)", len(a.errs))
	}
	dialog := s.Dialog.BorderForeground(styles.Current.Error).Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		s.DialogTitle.Foreground(styles.Current.Error).Render(title),
		a.errs[0].Error(),
		"",
		s.TitleMuted.Render("Press any key to dismiss"),
	))
	return lipgloss.Place(styles.ContentWidth(a.width), max(a.height-2, 1), lipgloss.Center, lipgloss.Center, dialog)
}

func clampWidth(width int) int {
	return min(max(width, 30), 70)
}
