package workspace

import (
	"context"
	"fmt"

	"github.com/tgienger/labtask/internal/entity"
	"github.com/tgienger/labtask/internal/gitlab"
	"github.com/tgienger/labtask/internal/models"
)

// IssueDraft holds the user-editable fields of an issue
type IssueDraft struct {
	Summary     string
	Description string
	Labels      []string
	Bug         bool
	Assignee    *models.User
}

// DraftOf returns the editable fields of an existing issue
func DraftOf(issue *models.Issue) IssueDraft {
	return IssueDraft{
		Summary:     issue.Summary,
		Description: issue.Description,
		Labels:      append([]string(nil), issue.Labels...),
		Bug:         issue.Bug,
		Assignee:    issue.Assignee,
	}
}

// FetchProjects loads the projects visible to the token and hands them to
// done. The catalog is decoded apart from the issue list so the loaded
// issues keep their identity.
func (s *Session) FetchProjects(done func([]*models.Project)) {
	s.remote("list projects", func(ctx context.Context, tracker Tracker) ([]byte, error) {
		return tracker.Projects(ctx)
	}, func(data []byte) error {
		projects, err := s.catalog.DecodeProjects(data)
		if err != nil {
			return err
		}
		done(projects)
		return nil
	})
}

// LoadProject selects a project and refreshes its issues. Selecting a
// different project drops every association and the active issue. A nil
// project clears the selection.
func (s *Session) LoadProject(project *models.Project) error {
	if !project.SameAs(s.project) {
		if err := s.forgetProject(); err != nil {
			return err
		}
	}

	snapshot, err := entity.EncodeProject(project)
	if err != nil {
		return err
	}
	if err := s.settings.SetSetting(KeyProject, snapshot); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	s.project = project
	s.RefreshIssues()
	return nil
}

func (s *Session) forgetProject() error {
	s.CancelPending()
	s.active = nil
	s.issues = nil
	s.store.Reset()
	if err := s.binding.Clear(); err != nil {
		return err
	}
	return nil
}

// RefreshIssues reloads the issue list of the selected project, then its
// members. Subscribers are told once the issues are in.
func (s *Session) RefreshIssues() {
	project := s.project
	if project == nil {
		s.issues = nil
		s.active = nil
		s.loaded.Publish(IssuesLoaded{})
		return
	}

	s.remote("list issues", func(ctx context.Context, tracker Tracker) ([]byte, error) {
		return tracker.Issues(ctx, project.ID)
	}, func(data []byte) error {
		if s.project != project {
			s.logger.Debug("discarding issues of a deselected project", "project", project.ID)
			return nil
		}
		issues, err := s.store.DecodeIssues(data)
		if err != nil {
			return err
		}
		s.reconcile(issues)
		s.issues = issues
		s.loaded.Publish(s.snapshot())

		s.refreshMembers(project)
		return nil
	})
}

// refreshMembers replaces the project's members with those of the
// project, plus those of its group when it lives in one
func (s *Session) refreshMembers(project *models.Project) {
	s.remote("list project members", func(ctx context.Context, tracker Tracker) ([]byte, error) {
		return tracker.Members(ctx, project.ID, false)
	}, func(data []byte) error {
		users, err := s.store.DecodeUsers(data)
		if err != nil {
			return err
		}
		project.ClearMembers()
		for _, u := range users {
			project.AddMember(u)
		}

		namespace := project.Namespace
		if namespace == nil || !namespace.IsGroup() {
			return nil
		}
		s.remote("list group members", func(ctx context.Context, tracker Tracker) ([]byte, error) {
			return tracker.Members(ctx, namespace.ID, true)
		}, func(data []byte) error {
			users, err := s.store.DecodeUsers(data)
			if err != nil {
				return err
			}
			for _, u := range users {
				project.AddMember(u)
			}
			return nil
		})
		return nil
	})
}

// ReloadIssue fetches one issue again and merges it into the loaded
// instance. An issue backed by a local task keeps its local state. The
// answer is dropped when a refresh replaced the instance meanwhile.
func (s *Session) ReloadIssue(issue *models.Issue, done func(*models.Issue)) {
	project := s.project
	if project == nil {
		s.fail(ErrNoProject)
		return
	}

	iid := issue.LocalID
	s.remote(fmt.Sprintf("reload issue #%d", iid), func(ctx context.Context, tracker Tracker) ([]byte, error) {
		return tracker.Issue(ctx, project.ID, iid)
	}, func(data []byte) error {
		if known, ok := s.store.Lookup(issue.Key()); !ok || known != issue {
			s.logger.Debug("discarding reload of a replaced issue", "issue", iid)
			return nil
		}
		state, local := issue.State, issue.HasTask()
		reloaded, err := s.store.DecodeIssue(data)
		if err != nil {
			return err
		}
		if local {
			reloaded.State = state
		}
		s.loaded.Publish(s.snapshot())
		if done != nil {
			done(reloaded)
		}
		return nil
	})
}

// CreateIssue creates an issue in the selected project. The new issue is
// put at the top of the list and handed to done, which may be nil.
func (s *Session) CreateIssue(draft IssueDraft, done func(*models.Issue)) {
	project := s.project
	if project == nil {
		s.fail(ErrNoProject)
		return
	}

	fields := gitlab.IssueFields{
		Title:       &draft.Summary,
		Description: &draft.Description,
	}
	if labels := models.CompleteLabelsText(draft.Labels, draft.Bug); labels != "" {
		fields.Labels = &labels
	}
	if draft.Assignee != nil {
		assignee := draft.Assignee.ID
		fields.AssigneeID = &assignee
	}

	s.remote("create issue", func(ctx context.Context, tracker Tracker) ([]byte, error) {
		return tracker.CreateIssue(ctx, project.ID, fields)
	}, func(data []byte) error {
		issue, err := s.store.DecodeIssue(data)
		if err != nil {
			return err
		}
		if s.project == project && s.Issue(issue.ID) == nil {
			s.issues = append([]*models.Issue{issue}, s.issues...)
			s.loaded.Publish(s.snapshot())
		}
		if done != nil {
			done(issue)
		}
		return nil
	})
}

// ModifyIssue sends the fields of draft that differ from the issue. The
// server's answer is merged into the issue in place.
func (s *Session) ModifyIssue(issue *models.Issue, draft IssueDraft, done func(*models.Issue)) {
	project := s.project
	if project == nil {
		s.fail(ErrNoProject)
		return
	}

	fields := changedFields(issue, draft)
	if fields.Empty() {
		if done != nil {
			done(issue)
		}
		return
	}

	iid := issue.LocalID
	s.remote(fmt.Sprintf("update issue #%d", iid), func(ctx context.Context, tracker Tracker) ([]byte, error) {
		return tracker.UpdateIssue(ctx, project.ID, iid, fields)
	}, func(data []byte) error {
		updated, err := s.store.DecodeIssue(data)
		if err != nil {
			return err
		}
		s.loaded.Publish(s.snapshot())
		if done != nil {
			done(updated)
		}
		return nil
	})
}

func changedFields(issue *models.Issue, draft IssueDraft) gitlab.IssueFields {
	var fields gitlab.IssueFields
	if draft.Summary != issue.Summary {
		fields.Title = &draft.Summary
	}
	if draft.Description != issue.Description {
		fields.Description = &draft.Description
	}
	if labels := models.CompleteLabelsText(draft.Labels, draft.Bug); labels != issue.CompleteLabels() {
		fields.Labels = &labels
	}

	var before, after int
	if issue.Assignee != nil {
		before = issue.Assignee.ID
	}
	if draft.Assignee != nil {
		after = draft.Assignee.ID
	}
	if before != after {
		fields.AssigneeID = &after
	}
	return fields
}
