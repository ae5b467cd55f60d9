package entity

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tgienger/labtask/internal/models"
)

const issuesPayload = `[
	{"id": 70, "iid": 7, "title": "Crash on save", "description": "boom", "state": "opened",
	 "labels": ["bug", "urgent"],
	 "assignee": {"id": 1, "username": "alice", "name": "Alice"},
	 "author": {"id": 2, "username": "bob", "name": "Bob"}},
	{"id": 80, "iid": 8, "title": "Docs", "state": "closed", "labels": [],
	 "assignee": null,
	 "author": {"id": 1, "username": "alice", "name": "Alice A."}}
]`

func TestDecodeIssuesSharesNestedUsers(t *testing.T) {
	store := NewStore()
	issues, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}

	if issues[0].Assignee != issues[1].Author {
		t.Error("alice decoded twice: assignee and author are different instances")
	}
	// the later occurrence wins
	if got := issues[0].Assignee.Name; got != "Alice A." {
		t.Errorf("alice name = %q, want %q", got, "Alice A.")
	}
	if issues[1].Assignee != nil {
		t.Error("null assignee decoded as a user")
	}
}

func TestDecodeIssueFields(t *testing.T) {
	store := NewStore()
	issues, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}

	first := issues[0]
	if first.LocalID != 7 || first.Summary != "Crash on save" || first.Description != "boom" {
		t.Errorf("unexpected fields: %+v", first)
	}
	if !first.Bug {
		t.Error("bug label not extracted")
	}
	if diff := cmp.Diff([]string{"urgent"}, first.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if first.State != models.StateOpen {
		t.Errorf("state = %v, want open", first.State)
	}
	if issues[1].State != models.StateClosed {
		t.Errorf("state = %v, want closed", issues[1].State)
	}
}

func TestDecodeIssueMergesIntoCanonicalInstance(t *testing.T) {
	store := NewStore()
	issues, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}
	held := issues[0]

	updated, err := store.DecodeIssue([]byte(`{"id": 70, "iid": 7, "title": "Crash on save as", "state": "closed",
		"labels": ["urgent"], "author": {"id": 2, "username": "bob", "name": "Bob"}}`))
	if err != nil {
		t.Fatalf("DecodeIssue: %v", err)
	}
	if updated != held {
		t.Fatal("single-item decode returned a new instance")
	}
	if held.Summary != "Crash on save as" {
		t.Errorf("summary = %q", held.Summary)
	}
	if held.Bug {
		t.Error("bug flag should follow the new payload")
	}
	if held.Assignee != nil {
		t.Error("assignee should be cleared by the new payload")
	}
	if held.State != models.StateClosed {
		t.Errorf("state = %v, want closed", held.State)
	}
}

func TestDecodeIssueKeepsActiveState(t *testing.T) {
	store := NewStore()
	issues, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}
	held := issues[0]
	held.Apply(models.OpenToActive)

	if _, err := store.DecodeIssue([]byte(`{"id": 70, "iid": 7, "title": "renamed", "state": "opened",
		"author": {"id": 2}}`)); err != nil {
		t.Fatalf("DecodeIssue: %v", err)
	}
	if held.State != models.StateActive {
		t.Errorf("state = %v, want active", held.State)
	}
	if held.Summary != "renamed" {
		t.Errorf("summary = %q, want renamed", held.Summary)
	}
}

func TestListDecodeStartsNewSession(t *testing.T) {
	store := NewStore()
	first, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}
	second, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}
	if first[0] == second[0] {
		t.Error("list decode reused an instance from the previous session")
	}
}

func TestLookupFindsCanonicalInstance(t *testing.T) {
	store := NewStore()
	issues, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}

	got, ok := store.Lookup(models.Key{Kind: models.KindIssue, ID: 70})
	if !ok || got != issues[0] {
		t.Errorf("Lookup(issue 70) = %v, %v; want the decoded instance", got, ok)
	}
	if _, ok := store.Lookup(models.Key{Kind: models.KindUser, ID: 2}); !ok {
		t.Error("nested author not cached")
	}
	if _, ok := store.Lookup(models.Key{Kind: models.KindIssue, ID: 99}); ok {
		t.Error("unknown issue found")
	}

	store.Reset()
	if _, ok := store.Lookup(issues[0].Key()); ok {
		t.Error("issue survived a reset")
	}
}

func TestFailedDecodeLeavesStoreUntouched(t *testing.T) {
	store := NewStore()
	issues, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}
	before := store.Len()

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed", `{"id": 70, "title": `},
		{"missing author", `{"id": 70, "iid": 7, "title": "x"}`},
		{"bad assignee", `{"id": 70, "author": {"id": 2}, "assignee": {"id": 0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.DecodeIssue([]byte(tt.payload))
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("error = %v, want *DecodeError", err)
			}
			if store.Len() != before {
				t.Errorf("store size = %d, want %d", store.Len(), before)
			}
		})
	}

	if issues[0].Summary != "Crash on save" {
		t.Errorf("canonical issue modified by failed decode: %q", issues[0].Summary)
	}

	// a failed list decode must not reset the session either
	if _, err := store.DecodeIssues([]byte(`[{"id": 1}]`)); err == nil {
		t.Fatal("expected error for issue without author")
	}
	again, err := store.DecodeIssue([]byte(`{"id": 70, "iid": 7, "title": "still here", "author": {"id": 2}}`))
	if err != nil {
		t.Fatalf("DecodeIssue: %v", err)
	}
	if again != issues[0] {
		t.Error("failed list decode discarded the session")
	}
}

func TestDecodeUsersJoinsIssueSession(t *testing.T) {
	store := NewStore()
	issues, err := store.DecodeIssues([]byte(issuesPayload))
	if err != nil {
		t.Fatalf("DecodeIssues: %v", err)
	}
	users, err := store.DecodeUsers([]byte(`[{"id": 1, "username": "alice", "name": "Alice"}, {"id": 3, "name": "Carol"}]`))
	if err != nil {
		t.Fatalf("DecodeUsers: %v", err)
	}
	if users[0] != issues[0].Assignee {
		t.Error("member alice is not the assignee instance")
	}
	if issues[0].Assignee.Name != "Alice" {
		t.Errorf("assignee name = %q, want Alice", issues[0].Assignee.Name)
	}
}

func TestProjectSnapshotRoundTrip(t *testing.T) {
	store := NewStore()
	projects, err := store.DecodeProjects([]byte(`[
		{"id": 5, "name_with_namespace": "team / app", "namespace": {"id": 9, "owner_id": 2}},
		{"id": 6, "name_with_namespace": "team / lib", "namespace": {"id": 9, "owner_id": 2}}
	]`))
	if err != nil {
		t.Fatalf("DecodeProjects: %v", err)
	}
	if projects[0].Namespace != projects[1].Namespace {
		t.Error("shared namespace decoded twice")
	}

	snapshot, err := EncodeProject(projects[0])
	if err != nil {
		t.Fatalf("EncodeProject: %v", err)
	}
	restored, err := NewStore().DecodeProject([]byte(snapshot))
	if err != nil {
		t.Fatalf("DecodeProject: %v", err)
	}
	if restored.ID != 5 || restored.FullName != "team / app" {
		t.Errorf("restored = %+v", restored)
	}
	if !restored.Namespace.IsGroup() {
		t.Error("restored namespace lost its group flag")
	}

	empty, err := EncodeProject(nil)
	if err != nil || empty != "" {
		t.Errorf("EncodeProject(nil) = %q, %v", empty, err)
	}
}
