package models

import "fmt"

// Kind names a concrete entity type
type Kind string

const (
	KindIssue     Kind = "issue"
	KindUser      Kind = "user"
	KindProject   Kind = "project"
	KindNamespace Kind = "namespace"
)

// Key identifies one logical entity. Two entities are the same entity
// exactly when their keys are equal.
type Key struct {
	Kind Kind
	ID   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// Entity is anything the tracker returns with an identity of its own
type Entity interface {
	Key() Key
}

// Mergeable is implemented by every entity kind. MergeFrom copies the
// mutable fields of a freshly decoded instance into the receiver so that
// every holder of the receiver observes the update.
type Mergeable[E any] interface {
	Entity
	MergeFrom(other E)
}

// User represents a tracker account
type User struct {
	ID       int
	Username string
	Name     string
}

func (u *User) Key() Key { return Key{Kind: KindUser, ID: u.ID} }

// MergeFrom copies username and display name
func (u *User) MergeFrom(other *User) {
	u.Username = other.Username
	u.Name = other.Name
}

func (u *User) String() string {
	if u == nil {
		return ""
	}
	return u.Name
}

// Namespace represents the user or group a project lives in
type Namespace struct {
	ID      int
	OwnerID int
	Kind    string // "user" or "group" when the server reports it
}

func (n *Namespace) Key() Key { return Key{Kind: KindNamespace, ID: n.ID} }

// MergeFrom copies owner and kind
func (n *Namespace) MergeFrom(other *Namespace) {
	n.OwnerID = other.OwnerID
	n.Kind = other.Kind
}

// IsGroup reports whether the namespace is a group rather than a personal namespace
func (n *Namespace) IsGroup() bool {
	if n.Kind != "" {
		return n.Kind == "group"
	}
	return n.ID != n.OwnerID
}

// Project represents a remote project. Members are filled by a separate
// call and are never part of the project's own payload.
type Project struct {
	ID        int
	FullName  string
	Namespace *Namespace
	members   []*User
}

func (p *Project) Key() Key { return Key{Kind: KindProject, ID: p.ID} }

// MergeFrom copies the name and namespace reference. Members are kept.
func (p *Project) MergeFrom(other *Project) {
	p.FullName = other.FullName
	p.Namespace = other.Namespace
}

// Members returns a copy of the member list
func (p *Project) Members() []*User {
	out := make([]*User, len(p.members))
	copy(out, p.members)
	return out
}

// ClearMembers drops all members
func (p *Project) ClearMembers() {
	p.members = nil
}

// AddMember appends u unless the same user is already a member
func (p *Project) AddMember(u *User) {
	for _, m := range p.members {
		if m.Key() == u.Key() {
			return
		}
	}
	p.members = append(p.members, u)
}

// SameAs reports whether p and other denote the same remote project
func (p *Project) SameAs(other *Project) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID
}

func (p *Project) String() string {
	return p.FullName
}

// Issue represents a remote issue augmented with its local task reference
type Issue struct {
	ID          int
	LocalID     int
	Summary     string
	Description string
	Labels      []string // display labels, "bug" excluded
	Bug         bool
	State       State
	Assignee    *User
	Author      *User

	task string // local task id, never sent to or read from the tracker
}

func (i *Issue) Key() Key { return Key{Kind: KindIssue, ID: i.ID} }

// MergeFrom overwrites every remote field. The lifecycle state is only
// taken over while the receiver is not active, since "active" is known
// locally only.
func (i *Issue) MergeFrom(other *Issue) {
	if i.State != StateActive {
		i.State = other.State
	}
	i.LocalID = other.LocalID
	i.Summary = other.Summary
	i.Description = other.Description
	i.Labels = other.Labels
	i.Bug = other.Bug
	i.Assignee = other.Assignee
	i.Author = other.Author
}

// Task returns the associated local task id, or "" when there is none
func (i *Issue) Task() string { return i.task }

// HasTask reports whether a local task is attached
func (i *Issue) HasTask() bool { return i.task != "" }

// AttachTask records the local task backing this issue
func (i *Issue) AttachTask(taskID string) { i.task = taskID }

// DetachTask clears the local task reference
func (i *Issue) DetachTask() { i.task = "" }

// LabelsText returns the display labels joined by ", "
func (i *Issue) LabelsText() string {
	return LabelsText(i.Labels)
}

// CompleteLabels returns the label text as the tracker stores it
func (i *Issue) CompleteLabels() string {
	return CompleteLabelsText(i.Labels, i.Bug)
}

// TaskTitle is the title given to a local task created for this issue
func (i *Issue) TaskTitle() string {
	return fmt.Sprintf("#%d: %s", i.LocalID, i.Summary)
}

func (i *Issue) String() string {
	return fmt.Sprintf("Issue #%d (%s)", i.ID, i.Summary)
}
