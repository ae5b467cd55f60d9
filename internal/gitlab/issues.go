package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// StateEvent is the state change requested from the server
type StateEvent string

const (
	Reopen StateEvent = "reopen"
	Close  StateEvent = "close"
)

// EmptyLabels is sent to clear all labels. An empty value would leave
// the labels untouched on the server.
const EmptyLabels = `""`

// IssueFields holds editable issue fields. Nil fields are not sent.
type IssueFields struct {
	Title       *string
	Description *string
	Labels      *string
	AssigneeID  *int // 0 unassigns
}

func (f IssueFields) values() url.Values {
	values := url.Values{}
	if f.Title != nil {
		values.Set("title", *f.Title)
	}
	if f.Description != nil {
		values.Set("description", *f.Description)
	}
	if f.Labels != nil {
		labels := *f.Labels
		if labels == "" {
			labels = EmptyLabels
		}
		values.Set("labels", labels)
	}
	if f.AssigneeID != nil {
		values.Set("assignee_id", strconv.Itoa(*f.AssigneeID))
	}
	return values
}

// Empty reports whether no field is set
func (f IssueFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Labels == nil && f.AssigneeID == nil
}

func issuesPath(projectID int) string {
	return fmt.Sprintf("/projects/%d/issues", projectID)
}

func issuePath(projectID, iid int) string {
	return fmt.Sprintf("/projects/%d/issues/%d", projectID, iid)
}

// Projects lists the projects visible to the token
func (c *Client) Projects(ctx context.Context) ([]byte, error) {
	data, err := c.list(ctx, "/projects")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return data, nil
}

// Issues lists the issues of a project
func (c *Client) Issues(ctx context.Context, projectID int) ([]byte, error) {
	data, err := c.list(ctx, issuesPath(projectID))
	if err != nil {
		return nil, fmt.Errorf("listing issues of project %d: %w", projectID, err)
	}
	return data, nil
}

// Issue fetches a single issue by its project-local id
func (c *Client) Issue(ctx context.Context, projectID, iid int) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, issuePath(projectID, iid), nil)
	if err != nil {
		return nil, fmt.Errorf("getting issue %d#%d: %w", projectID, iid, err)
	}
	return data, nil
}

// Members lists the members of a project, or of a group when group is set
func (c *Client) Members(ctx context.Context, id int, group bool) ([]byte, error) {
	kind := "projects"
	if group {
		kind = "groups"
	}
	data, err := c.list(ctx, fmt.Sprintf("/%s/%d/members", kind, id))
	if err != nil {
		return nil, fmt.Errorf("listing members of %s %d: %w", kind, id, err)
	}
	return data, nil
}

// SetIssueState reopens or closes an issue
func (c *Client) SetIssueState(ctx context.Context, projectID, iid int, event StateEvent) error {
	form := url.Values{"state_event": {string(event)}}
	if _, err := c.do(ctx, http.MethodPut, issuePath(projectID, iid), form); err != nil {
		return fmt.Errorf("%s issue %d#%d: %w", event, projectID, iid, err)
	}
	return nil
}

// CreateIssue creates an issue and returns the created issue
func (c *Client) CreateIssue(ctx context.Context, projectID int, fields IssueFields) ([]byte, error) {
	data, err := c.do(ctx, http.MethodPost, issuesPath(projectID), fields.values())
	if err != nil {
		return nil, fmt.Errorf("creating issue in project %d: %w", projectID, err)
	}
	return data, nil
}

// UpdateIssue edits an issue and returns the updated issue
func (c *Client) UpdateIssue(ctx context.Context, projectID, iid int, fields IssueFields) ([]byte, error) {
	data, err := c.do(ctx, http.MethodPut, issuePath(projectID, iid), fields.values())
	if err != nil {
		return nil, fmt.Errorf("updating issue %d#%d: %w", projectID, iid, err)
	}
	return data, nil
}
