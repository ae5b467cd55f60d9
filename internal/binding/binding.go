// Package binding keeps the durable association between remote issues
// and the local tasks backing them, and translates task events into
// lifecycle changes for the associated issues.
package binding

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/notify"
	"github.com/tgienger/labtask/internal/tasks"
)

// Store persists associations. *db.DB implements it.
type Store interface {
	LoadAssociations() (map[int]string, error)
	SaveAssociation(issueID int, taskID string) error
	DeleteAssociation(issueID int) error
	ClearAssociations() error
}

// StateChange asks for an issue to be moved to Target because its local
// task changed outside of the issue list
type StateChange struct {
	IssueID int
	Target  models.State
}

// Binding maps issue ids to local task ids
type Binding struct {
	store   Store
	logger  *slog.Logger
	tasks   map[int]string
	changes *notify.Registry[StateChange]
}

// New loads the persisted associations
func New(store Store, logger *slog.Logger) (*Binding, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loaded, err := store.LoadAssociations()
	if err != nil {
		return nil, fmt.Errorf("loading associations: %w", err)
	}
	if loaded == nil {
		loaded = make(map[int]string)
	}
	return &Binding{
		store:   store,
		logger:  logger,
		tasks:   loaded,
		changes: notify.New[StateChange]("binding", logger),
	}, nil
}

// Associate records that issueID is backed by taskID
func (b *Binding) Associate(issueID int, taskID string) error {
	if err := b.store.SaveAssociation(issueID, taskID); err != nil {
		return fmt.Errorf("saving association %d -> %s: %w", issueID, taskID, err)
	}
	b.tasks[issueID] = taskID
	return nil
}

// Dissociate forgets the task of issueID
func (b *Binding) Dissociate(issueID int) error {
	if _, ok := b.tasks[issueID]; !ok {
		return nil
	}
	if err := b.store.DeleteAssociation(issueID); err != nil {
		return fmt.Errorf("deleting association of %d: %w", issueID, err)
	}
	delete(b.tasks, issueID)
	return nil
}

// Lookup returns the task backing issueID
func (b *Binding) Lookup(issueID int) (string, bool) {
	taskID, ok := b.tasks[issueID]
	return taskID, ok
}

// Clear forgets every association
func (b *Binding) Clear() error {
	if err := b.store.ClearAssociations(); err != nil {
		return fmt.Errorf("clearing associations: %w", err)
	}
	clear(b.tasks)
	return nil
}

// Len returns the number of associations
func (b *Binding) Len() int {
	return len(b.tasks)
}

// IssuesFor returns the ids of all issues backed by taskID, in ascending order
func (b *Binding) IssuesFor(taskID string) []int {
	var ids []int
	for issueID, t := range b.tasks {
		if t == taskID {
			ids = append(ids, issueID)
		}
	}
	slices.Sort(ids)
	return ids
}

// OnStateChange registers a listener for lifecycle changes
func (b *Binding) OnStateChange(fn func(StateChange)) (unsubscribe func()) {
	return b.changes.SubscribeFunc(fn)
}

// HandleTaskEvent turns a local task event into state changes for every
// issue backed by the task. The affected issues are collected first; for
// Removed their associations are dropped before listeners are told.
func (b *Binding) HandleTaskEvent(event tasks.Event) {
	var target models.State
	switch event.Type {
	case tasks.Activated:
		target = models.StateActive
	case tasks.Deactivated:
		target = models.StateOpen
	case tasks.Removed:
		target = models.StateClosed
	default:
		return
	}

	ids := b.IssuesFor(event.TaskID)
	if len(ids) == 0 {
		return
	}

	if event.Type == tasks.Removed {
		for _, issueID := range ids {
			delete(b.tasks, issueID)
			if err := b.store.DeleteAssociation(issueID); err != nil {
				b.logger.Error("deleting association of removed task", "issue", issueID, "task", event.TaskID, "error", err)
			}
		}
	}

	for _, issueID := range ids {
		b.logger.Debug("task event", "event", event.Type, "task", event.TaskID, "issue", issueID, "target", target)
		b.changes.Publish(StateChange{IssueID: issueID, Target: target})
	}
}
