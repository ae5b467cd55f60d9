package tasks

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tgienger/labtask/internal/db"
)

func openHost(t *testing.T, path string) *Host {
	t.Helper()
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	host, err := NewHost(database, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	return host
}

func newTestHost(t *testing.T) *Host {
	return openHost(t, filepath.Join(t.TempDir(), "tasks.db"))
}

func record(h *Host) *[]Event {
	var events []Event
	h.Subscribe(func(e Event) { events = append(events, e) })
	return &events
}

func TestNewHostEngagesDefaultTask(t *testing.T) {
	h := newTestHost(t)
	if h.ActiveTaskID() != h.DefaultTaskID() {
		t.Errorf("engaged = %q, want default %q", h.ActiveTaskID(), h.DefaultTaskID())
	}
	tasks, err := h.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != h.DefaultTaskID() || !tasks[0].Default {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestActivateTaskEvents(t *testing.T) {
	h := newTestHost(t)
	events := record(h)

	id, err := h.CreateTask("#7: Crash")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if len(*events) != 0 {
		t.Errorf("CreateTask published %v", *events)
	}

	if err := h.ActivateTask(id); err != nil {
		t.Fatalf("ActivateTask: %v", err)
	}
	if err := h.ActivateTask(id); err != nil {
		t.Fatalf("ActivateTask again: %v", err)
	}

	want := []Event{
		{Type: Deactivated, TaskID: h.DefaultTaskID()},
		{Type: Activated, TaskID: id},
	}
	if diff := cmp.Diff(want, *events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if h.ActiveTaskID() != id {
		t.Errorf("engaged = %q, want %q", h.ActiveTaskID(), id)
	}
}

func TestActivateUnknownTask(t *testing.T) {
	h := newTestHost(t)
	if err := h.ActivateTask("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStateVisibleToListeners(t *testing.T) {
	h := newTestHost(t)
	id, _ := h.CreateTask("x")

	var engagedDuringEvent string
	h.Subscribe(func(e Event) {
		if e.Type == Deactivated {
			engagedDuringEvent = h.ActiveTaskID()
		}
	})
	if err := h.ActivateTask(id); err != nil {
		t.Fatalf("ActivateTask: %v", err)
	}
	if engagedDuringEvent != id {
		t.Errorf("listener saw engaged = %q, want %q", engagedDuringEvent, id)
	}
}

func TestRemoveEngagedTask(t *testing.T) {
	h := newTestHost(t)
	id, _ := h.CreateTask("#7: Crash")
	if err := h.ActivateTask(id); err != nil {
		t.Fatalf("ActivateTask: %v", err)
	}
	events := record(h)

	if err := h.RemoveTask(id); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}

	want := []Event{
		{Type: Deactivated, TaskID: id},
		{Type: Activated, TaskID: h.DefaultTaskID()},
		{Type: Removed, TaskID: id},
	}
	if diff := cmp.Diff(want, *events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if task, _ := h.FindTask(id); task != nil {
		t.Error("task still present after removal")
	}
}

func TestRemoveTaskEdgeCases(t *testing.T) {
	h := newTestHost(t)
	events := record(h)

	if err := h.RemoveTask(h.DefaultTaskID()); !errors.Is(err, ErrDefaultTask) {
		t.Errorf("removing default: error = %v, want ErrDefaultTask", err)
	}
	if err := h.RemoveTask("unknown"); err != nil {
		t.Errorf("removing unknown: %v", err)
	}
	if len(*events) != 0 {
		t.Errorf("unexpected events %v", *events)
	}
}

func TestEngagedTaskSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	first := openHost(t, path)
	id, _ := first.CreateTask("#7: Crash")
	if err := first.ActivateTask(id); err != nil {
		t.Fatalf("ActivateTask: %v", err)
	}

	second := openHost(t, path)
	if second.ActiveTaskID() != id {
		t.Errorf("engaged after restart = %q, want %q", second.ActiveTaskID(), id)
	}
	if second.DefaultTaskID() != first.DefaultTaskID() {
		t.Error("default task recreated on restart")
	}
}
