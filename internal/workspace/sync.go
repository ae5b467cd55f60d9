package workspace

import (
	"context"
	"fmt"

	"github.com/tgienger/labtask/internal/binding"
	"github.com/tgienger/labtask/internal/gitlab"
	"github.com/tgienger/labtask/internal/models"
)

// PerformTransition moves an issue along t. The local state changes at
// once; the tracker is told only when the issue is closed or reopened.
// Starting an issue first stops the previously active one.
func (s *Session) PerformTransition(issue *models.Issue, t models.Transition) error {
	if issue.State != t.From() {
		return fmt.Errorf("issue #%d is %s, cannot %s", issue.LocalID, issue.State, t.Label())
	}
	s.transition(issue, t)
	return nil
}

func (s *Session) transition(issue *models.Issue, t models.Transition) {
	wasOpen := issue.IsOpenOrActive()
	issue.Apply(t)
	s.logger.Debug("transition", "issue", issue.LocalID, "transition", t.Label())

	if wasOpen != issue.IsOpenOrActive() {
		s.pushState(issue)
	}

	if issue.IsActive() {
		if previous := s.active; previous != nil && previous != issue {
			if previous.IsActive() {
				s.transition(previous, models.ActiveToOpen)
			}
		}
		s.active = issue
	} else if s.active == issue {
		s.active = nil
	}

	switch issue.State {
	case models.StateActive:
		s.engageTask(issue)
	case models.StateOpen:
		s.releaseTask(issue)
	case models.StateClosed:
		s.removeTask(issue)
	}
}

func (s *Session) pushState(issue *models.Issue) {
	if s.project == nil {
		s.fail(ErrNoProject)
		return
	}
	event := gitlab.Reopen
	if issue.IsClosed() {
		event = gitlab.Close
	}
	projectID, iid := s.project.ID, issue.LocalID
	s.remote(fmt.Sprintf("%s issue #%d", event, iid), func(ctx context.Context, tracker Tracker) ([]byte, error) {
		return nil, tracker.SetIssueState(ctx, projectID, iid, event)
	}, nil)
}

// taskOf returns the local task of an issue, preferring the reference
// attached to the issue over the stored association
func (s *Session) taskOf(issue *models.Issue) (string, bool) {
	if issue.HasTask() {
		return issue.Task(), true
	}
	return s.binding.Lookup(issue.ID)
}

// engageTask makes sure the issue has a local task and engages it
func (s *Session) engageTask(issue *models.Issue) {
	taskID, ok := s.taskOf(issue)
	if ok {
		task, err := s.host.FindTask(taskID)
		if err != nil {
			s.fail(err)
			return
		}
		if task == nil {
			s.logger.Info("associated task is gone, creating a new one", "issue", issue.LocalID, "task", taskID)
			ok = false
		}
	}
	if !ok {
		created, err := s.host.CreateTask(issue.TaskTitle())
		if err != nil {
			s.fail(err)
			return
		}
		taskID = created
	}

	if err := s.binding.Associate(issue.ID, taskID); err != nil {
		s.fail(err)
		return
	}
	issue.AttachTask(taskID)
	if err := s.host.ActivateTask(taskID); err != nil {
		s.fail(err)
	}
}

// releaseTask switches engagement to the default task when the issue's
// task is the engaged one. The association stays.
func (s *Session) releaseTask(issue *models.Issue) {
	taskID, ok := s.taskOf(issue)
	if !ok || s.host.ActiveTaskID() != taskID {
		return
	}
	tasks, err := s.host.ListTasks()
	if err != nil {
		s.fail(err)
		return
	}
	if len(tasks) == 0 {
		return
	}
	if err := s.host.ActivateTask(tasks[0].ID); err != nil {
		s.fail(err)
	}
}

// removeTask deletes the issue's local task and its association
func (s *Session) removeTask(issue *models.Issue) {
	taskID, ok := s.taskOf(issue)
	if !ok {
		return
	}
	if err := s.host.RemoveTask(taskID); err != nil {
		s.fail(err)
	}
	if err := s.binding.Dissociate(issue.ID); err != nil {
		s.fail(err)
	}
	issue.DetachTask()
}

// onExternalChange mirrors a task event that happened outside the issue list
func (s *Session) onExternalChange(change binding.StateChange) {
	if s.closed {
		return
	}
	issue := s.Issue(change.IssueID)
	if issue == nil {
		s.logger.Debug("task event for an issue that is not loaded", "issue", change.IssueID, "target", change.Target)
		return
	}

	switch change.Target {
	case models.StateOpen:
		if issue.IsActive() {
			s.transition(issue, models.ActiveToOpen)
			s.loaded.Publish(s.snapshot())
		}
	case models.StateActive:
		if issue.IsActive() {
			return
		}
		if t, ok := models.TransitionBetween(issue.State, models.StateActive); ok {
			s.transition(issue, t)
			s.loaded.Publish(s.snapshot())
		}
	case models.StateClosed:
		if !issue.IsClosed() {
			s.confirmClose(issue)
		}
	}
}

// confirmClose asks whether an issue whose task was removed should be
// closed too. Declining only detaches the task reference.
func (s *Session) confirmClose(issue *models.Issue) {
	question := fmt.Sprintf("Local task associated with issue #%d has been removed. Do you want to close this issue as well?", issue.LocalID)
	id := issue.ID
	s.confirmer.Confirm(question, func(yes bool) {
		if s.closed {
			return
		}
		// a refresh while the question was open replaces the instances
		issue := s.Issue(id)
		if issue == nil || issue.IsClosed() {
			return
		}
		if yes {
			if t, ok := models.TransitionBetween(issue.State, models.StateClosed); ok {
				s.transition(issue, t)
			}
		} else {
			issue.DetachTask()
		}
		s.loaded.Publish(s.snapshot())
	})
}

// reconcile attaches stored associations to freshly decoded issues and
// derives their effective state. Associations whose task is gone are
// dropped and the issue keeps the server's state.
func (s *Session) reconcile(issues []*models.Issue) {
	engaged := s.host.ActiveTaskID()
	s.active = nil

	for _, issue := range issues {
		taskID, ok := s.binding.Lookup(issue.ID)
		if !ok {
			continue
		}
		task, err := s.host.FindTask(taskID)
		if err != nil {
			s.fail(err)
			continue
		}
		if task == nil {
			s.logger.Info("dropping association to a removed task", "issue", issue.LocalID, "task", taskID)
			if err := s.binding.Dissociate(issue.ID); err != nil {
				s.fail(err)
			}
			continue
		}

		issue.AttachTask(taskID)
		if taskID == engaged && s.active == nil {
			issue.State = models.StateActive
			s.active = issue
		} else {
			issue.State = models.StateOpen
		}
	}
}

func (s *Session) snapshot() IssuesLoaded {
	if s.project == nil {
		return IssuesLoaded{}
	}
	return IssuesLoaded{Project: s.project, Issues: s.Issues()}
}
