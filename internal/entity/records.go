package entity

import (
	"errors"
	"fmt"
)

// Wire records mirror the tracker's JSON. They are plain values: decoding
// fills them completely before anything canonical is touched.

type userRecord struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type namespaceRecord struct {
	ID      int    `json:"id"`
	OwnerID int    `json:"owner_id"`
	Kind    string `json:"kind,omitempty"`
}

type projectRecord struct {
	ID        int              `json:"id"`
	FullName  string           `json:"name_with_namespace"`
	Namespace *namespaceRecord `json:"namespace,omitempty"`
}

type issueRecord struct {
	ID          int         `json:"id"`
	IID         int         `json:"iid"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	State       string      `json:"state"`
	Labels      []string    `json:"labels"`
	Assignee    *userRecord `json:"assignee"`
	Author      *userRecord `json:"author"`
}

var errMissingID = errors.New("missing id")

func (r *userRecord) validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("user: %w", errMissingID)
	}
	return nil
}

func (r *namespaceRecord) validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("namespace: %w", errMissingID)
	}
	return nil
}

func (r *projectRecord) validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("project: %w", errMissingID)
	}
	if r.Namespace != nil {
		if err := r.Namespace.validate(); err != nil {
			return fmt.Errorf("project %d: %w", r.ID, err)
		}
	}
	return nil
}

func (r *issueRecord) validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("issue: %w", errMissingID)
	}
	if r.Author == nil {
		return fmt.Errorf("issue %d: missing author", r.ID)
	}
	if err := r.Author.validate(); err != nil {
		return fmt.Errorf("issue %d author: %w", r.ID, err)
	}
	if r.Assignee != nil {
		if err := r.Assignee.validate(); err != nil {
			return fmt.Errorf("issue %d assignee: %w", r.ID, err)
		}
	}
	return nil
}
