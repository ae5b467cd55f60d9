package db

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestPath(t *testing.T) {
	if got := Path("/data", "work"); got != filepath.Join("/data", "work.db") {
		t.Errorf("Path = %q", got)
	}
	if got := Path("/data", ""); got != filepath.Join("/data", "default.db") {
		t.Errorf("Path = %q", got)
	}
}

func TestSettings(t *testing.T) {
	database := openTestDB(t)

	value, err := database.GetSetting("server_url")
	if err != nil || value != "" {
		t.Fatalf("GetSetting on empty db = %q, %v", value, err)
	}

	if err := database.SetSetting("server_url", "https://a.example"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := database.SetSetting("server_url", "https://b.example"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	value, err = database.GetSetting("server_url")
	if err != nil || value != "https://b.example" {
		t.Errorf("GetSetting = %q, %v", value, err)
	}
}

func TestSettingsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.SetSetting("project", `{"id":5}`); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := first.SaveAssociation(70, "task-1"); err != nil {
		t.Fatalf("SaveAssociation: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	if value, _ := second.GetSetting("project"); value != `{"id":5}` {
		t.Errorf("project = %q", value)
	}
	associations, err := second.LoadAssociations()
	if err != nil {
		t.Fatalf("LoadAssociations: %v", err)
	}
	if diff := cmp.Diff(map[int]string{70: "task-1"}, associations); diff != "" {
		t.Errorf("associations mismatch (-want +got):\n%s", diff)
	}
}

func TestAssociations(t *testing.T) {
	database := openTestDB(t)

	for issue, task := range map[int]string{1: "a", 2: "b", 3: "c"} {
		if err := database.SaveAssociation(issue, task); err != nil {
			t.Fatalf("SaveAssociation: %v", err)
		}
	}
	if err := database.SaveAssociation(2, "b2"); err != nil {
		t.Fatalf("SaveAssociation: %v", err)
	}
	if err := database.DeleteAssociation(1); err != nil {
		t.Fatalf("DeleteAssociation: %v", err)
	}
	if err := database.DeleteAssociation(99); err != nil {
		t.Fatalf("DeleteAssociation of unknown issue: %v", err)
	}

	got, err := database.LoadAssociations()
	if err != nil {
		t.Fatalf("LoadAssociations: %v", err)
	}
	if diff := cmp.Diff(map[int]string{2: "b2", 3: "c"}, got); diff != "" {
		t.Errorf("associations mismatch (-want +got):\n%s", diff)
	}

	if err := database.ClearAssociations(); err != nil {
		t.Fatalf("ClearAssociations: %v", err)
	}
	got, err = database.LoadAssociations()
	if err != nil || len(got) != 0 {
		t.Errorf("after clear = %v, %v", got, err)
	}
}

func TestTasks(t *testing.T) {
	database := openTestDB(t)

	def, err := database.EnsureDefaultTask("default-id", "Default task")
	if err != nil {
		t.Fatalf("EnsureDefaultTask: %v", err)
	}
	if !def.Default || def.ID != "default-id" {
		t.Errorf("default task = %+v", def)
	}
	again, err := database.EnsureDefaultTask("other-id", "Other")
	if err != nil {
		t.Fatalf("EnsureDefaultTask: %v", err)
	}
	if again.ID != "default-id" {
		t.Errorf("second EnsureDefaultTask created %q", again.ID)
	}

	if _, err := database.CreateTask("t1", "#7: Crash", false); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := database.CreateTask("t2", "#8: Docs", false); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := database.RenameTask("t2", "#8: Better docs"); err != nil {
		t.Fatalf("RenameTask: %v", err)
	}

	tasks, err := database.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	var ids, titles []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
		titles = append(titles, task.Title)
	}
	if diff := cmp.Diff([]string{"default-id", "t1", "t2"}, ids); diff != "" {
		t.Errorf("task order mismatch (-want +got):\n%s", diff)
	}
	if titles[2] != "#8: Better docs" {
		t.Errorf("renamed title = %q", titles[2])
	}

	if err := database.DeleteTask("t1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	missing, err := database.GetTask("t1")
	if err != nil || missing != nil {
		t.Errorf("GetTask after delete = %+v, %v", missing, err)
	}
}
