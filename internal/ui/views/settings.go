package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/labtask/internal/ui/keys"
	"github.com/tgienger/labtask/internal/ui/styles"
	"github.com/tgienger/labtask/internal/workspace"
)

// SettingsView edits the server URL and the private token
type SettingsView struct {
	session   *workspace.Session
	serverURL textinput.Model
	token     textinput.Model
	focusIdx  int // 0=server, 1=token, 2=save
	styles    *styles.Styles
	keys      keys.KeyMap
	width     int
	height    int
}

func NewSettingsView(session *workspace.Session) *SettingsView {
	serverURL := textinput.New()
	serverURL.Placeholder = workspace.DefaultServerURL
	serverURL.CharLimit = 255

	token := textinput.New()
	token.Placeholder = "Private token"
	token.CharLimit = 255
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'

	return &SettingsView{
		session:   session,
		serverURL: serverURL,
		token:     token,
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
	}
}

// Reset loads the current settings into the form
func (v *SettingsView) Reset() tea.Cmd {
	v.serverURL.SetValue(v.session.ServerURL())
	v.token.SetValue(v.session.Token())
	v.focusIdx = 0
	v.updateFocus()
	return textinput.Blink
}

// Modal is always true: every key goes to the form
func (v *SettingsView) Modal() bool { return true }

func (v *SettingsView) Init() tea.Cmd { return nil }

func (v *SettingsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return v, navigate(ScreenIssues)

		case key.Matches(msg, v.keys.Save):
			return v, v.save()

		case key.Matches(msg, v.keys.Tab):
			v.focusIdx = (v.focusIdx + 1) % 3
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.ShiftTab):
			v.focusIdx = (v.focusIdx + 2) % 3
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx < 2 {
				v.focusIdx++
				v.updateFocus()
				return v, nil
			}
			return v, v.save()
		}

		var cmd tea.Cmd
		switch v.focusIdx {
		case 0:
			v.serverURL, cmd = v.serverURL.Update(msg)
		case 1:
			v.token, cmd = v.token.Update(msg)
		}
		return v, cmd
	}
	return v, nil
}

// save confirms first when the server changes while issues are linked
// to local tasks
func (v *SettingsView) save() tea.Cmd {
	saved := SettingsSaved{
		ServerURL: strings.TrimSpace(v.serverURL.Value()),
		Token:     strings.TrimSpace(v.token.Value()),
	}
	done := func() tea.Msg { return saved }

	if serverChanged(v.session.ServerURL(), saved.ServerURL) && v.session.HasAssociations() {
		return func() tea.Msg {
			return ConfirmMsg{Question: AssociationWarning, Yes: done}
		}
	}
	return done
}

// serverChanged compares server URLs the way the session stores them
func serverChanged(current, edited string) bool {
	edited = strings.TrimRight(edited, "/")
	if edited == "" {
		edited = workspace.DefaultServerURL
	}
	return edited != current
}

func (v *SettingsView) updateFocus() {
	v.serverURL.Blur()
	v.token.Blur()
	switch v.focusIdx {
	case 0:
		v.serverURL.Focus()
	case 1:
		v.token.Focus()
	}
}

func (v *SettingsView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	serverStyle := s.Input
	tokenStyle := s.Input
	btnStyle := s.Button
	switch v.focusIdx {
	case 0:
		serverStyle = s.InputFocused
	case 1:
		tokenStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 60)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Settings"),
		"",
		"Server URL:",
		serverStyle.Width(inputWidth).Render(v.serverURL.View()),
		"",
		"Private token:",
		tokenStyle.Width(inputWidth).Render(v.token.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Changing the server drops the selected project."),
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	return lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
}
