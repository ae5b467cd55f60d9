// Package tasks keeps the local task list: a permanent default task, any
// number of issue tasks, and the one task currently engaged. Every change
// is published to subscribers after it has been stored.
package tasks

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/notify"
)

// ActiveTaskKey is the settings key holding the engaged task id
const ActiveTaskKey = "active_task_id"

// DefaultTaskTitle names the permanent fallback task
const DefaultTaskTitle = "Default task"

var (
	// ErrNotFound is returned when a task id is unknown
	ErrNotFound = errors.New("task not found")

	// ErrDefaultTask is returned when removing the default task
	ErrDefaultTask = errors.New("the default task cannot be removed")
)

// EventType says what happened to a task
type EventType int

const (
	Activated EventType = iota
	Deactivated
	Removed
)

func (t EventType) String() string {
	switch t {
	case Activated:
		return "activated"
	case Deactivated:
		return "deactivated"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is published after a task was activated, deactivated or removed
type Event struct {
	Type   EventType
	TaskID string
}

// Storage persists tasks and the engaged task id. *db.DB implements it.
type Storage interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	CreateTask(id, title string, isDefault bool) (*models.Task, error)
	GetTask(id string) (*models.Task, error)
	ListTasks() ([]models.Task, error)
	DeleteTask(id string) error
	EnsureDefaultTask(id, title string) (*models.Task, error)
}

// Host is the local task system
type Host struct {
	store     Storage
	logger    *slog.Logger
	defaultID string
	active    string
	events    *notify.Registry[Event]
}

// NewHost loads the task list, creating the default task on first use.
// A missing or stale engaged task falls back to the default task.
func NewHost(store Storage, logger *slog.Logger) (*Host, error) {
	if logger == nil {
		logger = slog.Default()
	}

	def, err := store.EnsureDefaultTask(uuid.NewString(), DefaultTaskTitle)
	if err != nil {
		return nil, fmt.Errorf("loading default task: %w", err)
	}

	h := &Host{
		store:     store,
		logger:    logger,
		defaultID: def.ID,
		active:    def.ID,
		events:    notify.New[Event]("tasks", logger),
	}

	saved, err := store.GetSetting(ActiveTaskKey)
	if err != nil {
		return nil, fmt.Errorf("loading engaged task: %w", err)
	}
	if saved != "" {
		task, err := store.GetTask(saved)
		if err != nil {
			return nil, fmt.Errorf("loading engaged task: %w", err)
		}
		if task != nil {
			h.active = task.ID
		} else {
			logger.Warn("engaged task no longer exists, using default", "task", saved)
		}
	}
	return h, nil
}

// CreateTask creates a task and returns its id. The new task is not engaged.
func (h *Host) CreateTask(title string) (string, error) {
	task, err := h.store.CreateTask(uuid.NewString(), title, false)
	if err != nil {
		return "", fmt.Errorf("creating task %q: %w", title, err)
	}
	h.logger.Debug("task created", "task", task.ID, "title", title)
	return task.ID, nil
}

// ActivateTask engages a task. Subscribers see Deactivated for the
// previously engaged task, then Activated for id.
func (h *Host) ActivateTask(id string) error {
	if id == h.active {
		return nil
	}
	task, err := h.FindTask(id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("activating %s: %w", id, ErrNotFound)
	}

	if err := h.store.SetSetting(ActiveTaskKey, id); err != nil {
		return fmt.Errorf("saving engaged task: %w", err)
	}
	previous := h.active
	h.active = id
	h.logger.Debug("task activated", "task", id, "previous", previous)

	h.events.Publish(Event{Type: Deactivated, TaskID: previous})
	h.events.Publish(Event{Type: Activated, TaskID: id})
	return nil
}

// RemoveTask deletes a task. Removing an unknown task does nothing. The
// engaged task is swapped for the default task before it is removed.
func (h *Host) RemoveTask(id string) error {
	if id == h.defaultID {
		return ErrDefaultTask
	}
	task, err := h.FindTask(id)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}

	if id == h.active {
		if err := h.ActivateTask(h.defaultID); err != nil {
			return err
		}
	}
	if err := h.store.DeleteTask(id); err != nil {
		return fmt.Errorf("removing task %s: %w", id, err)
	}
	h.logger.Debug("task removed", "task", id)

	h.events.Publish(Event{Type: Removed, TaskID: id})
	return nil
}

// FindTask returns the task with the given id, or nil when there is none
func (h *Host) FindTask(id string) (*models.Task, error) {
	task, err := h.store.GetTask(id)
	if err != nil {
		return nil, fmt.Errorf("finding task %s: %w", id, err)
	}
	return task, nil
}

// ListTasks returns all tasks. Index 0 is the default task.
func (h *Host) ListTasks() ([]models.Task, error) {
	tasks, err := h.store.ListTasks()
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// ActiveTaskID returns the engaged task
func (h *Host) ActiveTaskID() string {
	return h.active
}

// DefaultTaskID returns the permanent default task
func (h *Host) DefaultTaskID() string {
	return h.defaultID
}

// Subscribe registers a listener for task events
func (h *Host) Subscribe(fn func(Event)) (unsubscribe func()) {
	return h.events.SubscribeFunc(fn)
}
