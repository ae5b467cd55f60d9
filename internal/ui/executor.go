package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// completionMsg carries the completion of a remote call back into Update
type completionMsg struct {
	complete func()
}

// Executor runs remote calls on their own goroutine and hands their
// completions to the bubbletea event loop, so the session is only ever
// touched from Update.
type Executor struct {
	completions chan func()
}

func NewExecutor() *Executor {
	return &Executor{completions: make(chan func(), 16)}
}

// Run starts call in the background. complete is queued for Update.
func (e *Executor) Run(call func(), complete func()) {
	go func() {
		call()
		e.completions <- complete
	}()
}

// Wait returns a command that delivers the next completion
func (e *Executor) Wait() tea.Cmd {
	return func() tea.Msg {
		return completionMsg{complete: <-e.completions}
	}
}
