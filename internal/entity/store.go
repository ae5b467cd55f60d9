// Package entity turns tracker payloads into a deduplicated object graph.
//
// A Store holds the canonical instance of every entity decoded during one
// load session. Decoding an entity whose key is already known merges the
// new field values into the existing instance instead of creating a
// second copy, so references handed out earlier observe the update.
// Nested references (an issue's author, a project's namespace) resolve
// through the same cache.
//
// List-level decodes (all projects, all issues) start a new session;
// single-item decodes reuse the current one.
package entity

import (
	"encoding/json"
	"fmt"

	"github.com/tgienger/labtask/internal/models"
)

// DecodeError reports a payload that could not be turned into entities.
// A failed decode leaves the store as it was.
type DecodeError struct {
	Kind models.Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s payload: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Store caches canonical entities for one load session
type Store struct {
	entities map[models.Key]models.Entity
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{entities: make(map[models.Key]models.Entity)}
}

// Reset starts a new session, forgetting every canonical instance
func (s *Store) Reset() {
	s.entities = make(map[models.Key]models.Entity)
}

// Len returns the number of cached entities
func (s *Store) Len() int {
	return len(s.entities)
}

// Lookup returns the canonical instance for key, if any
func (s *Store) Lookup(key models.Key) (models.Entity, bool) {
	e, ok := s.entities[key]
	return e, ok
}

// canonical returns the cached instance for fresh's key after merging
// fresh into it, or caches fresh when the key is new.
func canonical[E models.Mergeable[E]](s *Store, fresh E) E {
	key := fresh.Key()
	if existing, ok := s.entities[key]; ok {
		if same, ok := existing.(E); ok {
			same.MergeFrom(fresh)
			return same
		}
	}
	s.entities[key] = fresh
	return fresh
}

// DecodeProjects decodes a project list in a fresh session
func (s *Store) DecodeProjects(data []byte) ([]*models.Project, error) {
	var records []projectRecord
	if err := decodeList(data, models.KindProject, &records); err != nil {
		return nil, err
	}
	for i := range records {
		if err := records[i].validate(); err != nil {
			return nil, &DecodeError{Kind: models.KindProject, Err: err}
		}
	}

	s.Reset()
	projects := make([]*models.Project, len(records))
	for i := range records {
		projects[i] = s.project(&records[i])
	}
	return projects, nil
}

// DecodeProject decodes a single project in a fresh session. It is used
// to restore the persisted project snapshot.
func (s *Store) DecodeProject(data []byte) (*models.Project, error) {
	var record projectRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &DecodeError{Kind: models.KindProject, Err: err}
	}
	if err := record.validate(); err != nil {
		return nil, &DecodeError{Kind: models.KindProject, Err: err}
	}

	s.Reset()
	return s.project(&record), nil
}

// DecodeIssues decodes an issue list in a fresh session
func (s *Store) DecodeIssues(data []byte) ([]*models.Issue, error) {
	var records []issueRecord
	if err := decodeList(data, models.KindIssue, &records); err != nil {
		return nil, err
	}
	for i := range records {
		if err := records[i].validate(); err != nil {
			return nil, &DecodeError{Kind: models.KindIssue, Err: err}
		}
	}

	s.Reset()
	issues := make([]*models.Issue, len(records))
	for i := range records {
		issues[i] = s.issue(&records[i])
	}
	return issues, nil
}

// DecodeIssue decodes one issue into the current session, updating the
// canonical instance in place when the issue is already known.
func (s *Store) DecodeIssue(data []byte) (*models.Issue, error) {
	var record issueRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &DecodeError{Kind: models.KindIssue, Err: err}
	}
	if err := record.validate(); err != nil {
		return nil, &DecodeError{Kind: models.KindIssue, Err: err}
	}
	return s.issue(&record), nil
}

// DecodeUsers decodes a user list into the current session
func (s *Store) DecodeUsers(data []byte) ([]*models.User, error) {
	var records []userRecord
	if err := decodeList(data, models.KindUser, &records); err != nil {
		return nil, err
	}
	for i := range records {
		if err := records[i].validate(); err != nil {
			return nil, &DecodeError{Kind: models.KindUser, Err: err}
		}
	}

	users := make([]*models.User, len(records))
	for i := range records {
		users[i] = s.user(&records[i])
	}
	return users, nil
}

func decodeList(data []byte, kind models.Kind, into any) error {
	if err := json.Unmarshal(data, into); err != nil {
		return &DecodeError{Kind: kind, Err: err}
	}
	return nil
}

func (s *Store) user(r *userRecord) *models.User {
	if r == nil {
		return nil
	}
	return canonical(s, &models.User{
		ID:       r.ID,
		Username: r.Username,
		Name:     r.Name,
	})
}

func (s *Store) namespace(r *namespaceRecord) *models.Namespace {
	if r == nil {
		return nil
	}
	return canonical(s, &models.Namespace{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Kind:    r.Kind,
	})
}

func (s *Store) project(r *projectRecord) *models.Project {
	return canonical(s, &models.Project{
		ID:        r.ID,
		FullName:  r.FullName,
		Namespace: s.namespace(r.Namespace),
	})
}

func (s *Store) issue(r *issueRecord) *models.Issue {
	labels, bug := models.SplitBugLabel(r.Labels)
	return canonical(s, &models.Issue{
		ID:          r.ID,
		LocalID:     r.IID,
		Summary:     r.Title,
		Description: r.Description,
		Labels:      labels,
		Bug:         bug,
		State:       models.ParseState(r.State),
		Assignee:    s.user(r.Assignee),
		Author:      s.user(r.Author),
	})
}

// EncodeProject serialises a project snapshot that DecodeProject can
// restore. A nil project encodes as "".
func EncodeProject(p *models.Project) (string, error) {
	if p == nil {
		return "", nil
	}
	record := projectRecord{ID: p.ID, FullName: p.FullName}
	if p.Namespace != nil {
		record.Namespace = &namespaceRecord{
			ID:      p.Namespace.ID,
			OwnerID: p.Namespace.OwnerID,
			Kind:    p.Namespace.Kind,
		}
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding project %d: %w", p.ID, err)
	}
	return string(data), nil
}
