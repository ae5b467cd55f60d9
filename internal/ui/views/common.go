package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/tgienger/labtask/internal/models"
)

// Screen identifies one of the full-screen views
type Screen int

const (
	ScreenIssues Screen = iota
	ScreenProjects
	ScreenSettings
	ScreenTasks
)

// Navigate asks the app to switch screens
type Navigate struct {
	To Screen
}

// ConfirmMsg asks the app to put a question to the user. Yes runs when
// the answer is yes.
type ConfirmMsg struct {
	Question string
	Yes      tea.Cmd
}

// ErrorMsg reports an error to show in a dialog
type ErrorMsg struct {
	Err error
}

// ProjectChosen is sent once the user picked a project
type ProjectChosen struct {
	Project *models.Project
}

// SettingsSaved is sent once the user confirmed new server settings
type SettingsSaved struct {
	ServerURL string
	Token     string
}

// AssociationWarning is asked before anything that drops the issue/task
// associations
const AssociationWarning = "Changing the server or project drops every link between issues and local tasks. Continue?"

func navigate(to Screen) tea.Cmd {
	return func() tea.Msg { return Navigate{To: to} }
}

func report(err error) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Err: err} }
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// truncate cuts s to at most width cells
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// pad truncates or right-pads s to exactly width cells
func pad(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}
