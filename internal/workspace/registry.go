package workspace

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry holds the open session of each workspace
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open creates the session of a workspace. A workspace has at most one
// open session.
func (r *Registry) Open(workspace string, opts Options) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[workspace]; ok {
		return nil, fmt.Errorf("workspace %q is already open", workspace)
	}
	session, err := Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening workspace %q: %w", workspace, err)
	}
	r.sessions[workspace] = session
	return session, nil
}

// Get returns the open session of a workspace
func (r *Registry) Get(workspace string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[workspace]
	return session, ok
}

// Workspaces returns the ids of all open workspaces, sorted
func (r *Registry) Workspaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.sessions))
}

// Close closes and forgets the session of a workspace
func (r *Registry) Close(workspace string) {
	r.mu.Lock()
	session, ok := r.sessions[workspace]
	delete(r.sessions, workspace)
	r.mu.Unlock()

	if ok {
		session.Close()
	}
}

// CloseAll closes every open session
func (r *Registry) CloseAll() {
	for _, workspace := range r.Workspaces() {
		r.Close(workspace)
	}
}
