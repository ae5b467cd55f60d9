package workspace

import (
	"context"

	"github.com/tgienger/labtask/internal/gitlab"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/tasks"
)

// Tracker is the remote issue tracker. *gitlab.Client implements it.
// Every method returns the raw JSON payload; decoding happens on the
// session's goroutine.
type Tracker interface {
	Projects(ctx context.Context) ([]byte, error)
	Issues(ctx context.Context, projectID int) ([]byte, error)
	Issue(ctx context.Context, projectID, iid int) ([]byte, error)
	Members(ctx context.Context, id int, group bool) ([]byte, error)
	SetIssueState(ctx context.Context, projectID, iid int, event gitlab.StateEvent) error
	CreateIssue(ctx context.Context, projectID int, fields gitlab.IssueFields) ([]byte, error)
	UpdateIssue(ctx context.Context, projectID, iid int, fields gitlab.IssueFields) ([]byte, error)
}

// TrackerFactory builds a tracker for a server and token. It is called
// again whenever either changes.
type TrackerFactory func(serverURL, token string) (Tracker, error)

// TaskHost is the local task system. *tasks.Host implements it.
type TaskHost interface {
	CreateTask(title string) (string, error)
	ActivateTask(id string) error
	RemoveTask(id string) error
	FindTask(id string) (*models.Task, error)
	ListTasks() ([]models.Task, error)
	ActiveTaskID() string
	Subscribe(fn func(tasks.Event)) (unsubscribe func())
}

// Settings is the workspace key/value store. *db.DB implements it.
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Executor runs remote calls off the session's goroutine. call runs on a
// worker; complete must then run on the goroutine that owns the session.
type Executor interface {
	Run(call func(), complete func())
}

// Inline runs the call and its completion synchronously on the caller's
// goroutine
type Inline struct{}

func (Inline) Run(call func(), complete func()) {
	call()
	complete()
}

// Confirmer asks the user a yes/no question. answer is called on the
// session's goroutine, possibly after Confirm has returned.
type Confirmer interface {
	Confirm(question string, answer func(yes bool))
}

// ConfirmFunc adapts a synchronous function to a Confirmer
type ConfirmFunc func(question string) bool

func (f ConfirmFunc) Confirm(question string, answer func(bool)) {
	answer(f(question))
}
