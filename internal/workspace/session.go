// Package workspace ties the remote issue list to the local task system.
//
// A Session belongs to one workspace. All of its methods, and every
// completion handed back by its Executor, must run on a single goroutine;
// the session does no locking of its own. Remote calls are optimistic:
// local state changes first, the call is made in the background, and a
// failure is reported to OnError subscribers without rolling anything
// back. The next refresh corrects any divergence.
package workspace

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tgienger/labtask/internal/binding"
	"github.com/tgienger/labtask/internal/entity"
	"github.com/tgienger/labtask/internal/models"
	"github.com/tgienger/labtask/internal/notify"
)

// Settings keys
const (
	KeyServerURL = "server_url"
	KeyToken     = "private_token"
	KeyProject   = "project"
)

// DefaultServerURL is used until a server is configured
const DefaultServerURL = "http://localhost"

// ErrNoProject is reported for operations that need a selected project
var ErrNoProject = errors.New("no project selected")

// ErrNoServer is reported when the server URL cannot be used
var ErrNoServer = errors.New("server not configured")

// Options are the collaborators of a session
type Options struct {
	Settings     Settings
	Associations binding.Store
	Tasks        TaskHost
	NewTracker   TrackerFactory

	// Executor defaults to Inline
	Executor Executor

	// Confirmer answers "no" when nil
	Confirmer Confirmer

	// Logger defaults to slog.Default()
	Logger *slog.Logger

	// Timeout bounds each remote call. Zero leaves it to the tracker.
	Timeout time.Duration
}

// IssuesLoaded is published whenever the issue list changes. Project and
// Issues are nil when no project is selected.
type IssuesLoaded struct {
	Project *models.Project
	Issues  []*models.Issue
}

// Session is the sync state of one workspace
type Session struct {
	settings   Settings
	binding    *binding.Binding
	host       TaskHost
	newTracker TrackerFactory
	tracker    Tracker
	trackerErr error
	executor   Executor
	confirmer  Confirmer
	logger     *slog.Logger
	timeout    time.Duration

	serverURL string
	token     string
	project   *models.Project

	store   *entity.Store
	catalog *entity.Store
	issues  []*models.Issue
	active  *models.Issue

	pending  map[int]context.CancelFunc
	nextCall int

	loaded *notify.Registry[IssuesLoaded]
	errs   *notify.Registry[error]

	unsubscribe []func()
	closed      bool
}

// Open restores a session from its settings and wires it to the task host.
// It does not contact the tracker; call RefreshIssues for that.
func Open(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	executor := opts.Executor
	if executor == nil {
		executor = Inline{}
	}
	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = ConfirmFunc(func(string) bool { return false })
	}

	b, err := binding.New(opts.Associations, logger)
	if err != nil {
		return nil, err
	}

	s := &Session{
		settings:   opts.Settings,
		binding:    b,
		host:       opts.Tasks,
		newTracker: opts.NewTracker,
		executor:   executor,
		confirmer:  confirmer,
		logger:     logger,
		timeout:    opts.Timeout,
		store:      entity.NewStore(),
		catalog:    entity.NewStore(),
		pending:    make(map[int]context.CancelFunc),
		loaded:     notify.New[IssuesLoaded]("issues", logger),
		errs:       notify.New[error]("errors", logger),
	}

	if err := s.restore(); err != nil {
		return nil, err
	}
	s.connect()

	s.unsubscribe = append(s.unsubscribe,
		s.host.Subscribe(s.binding.HandleTaskEvent),
		s.binding.OnStateChange(s.onExternalChange),
	)
	return s, nil
}

func (s *Session) restore() error {
	serverURL, err := s.settings.GetSetting(KeyServerURL)
	if err != nil {
		return fmt.Errorf("loading server URL: %w", err)
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	s.serverURL = serverURL

	stored, err := s.settings.GetSetting(KeyToken)
	if err != nil {
		return fmt.Errorf("loading token: %w", err)
	}
	if token, err := revealToken(stored); err != nil {
		s.logger.Warn("ignoring unreadable stored token", "error", err)
	} else {
		s.token = token
	}

	snapshot, err := s.settings.GetSetting(KeyProject)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	if snapshot != "" {
		project, err := s.store.DecodeProject([]byte(snapshot))
		if err != nil {
			s.logger.Warn("ignoring unreadable project snapshot", "error", err)
		} else {
			s.project = project
		}
	}
	return nil
}

// connect (re)builds the tracker for the current server and token
func (s *Session) connect() {
	s.tracker, s.trackerErr = s.newTracker(s.serverURL, s.token)
	if s.trackerErr != nil {
		s.logger.Warn("tracker unavailable", "server", s.serverURL, "error", s.trackerErr)
	}
}

// hideToken obfuscates the token for storage. It is not encryption.
func hideToken(token string) string {
	if token == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(token))
}

func revealToken(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	decoded, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// ServerURL returns the configured server
func (s *Session) ServerURL() string { return s.serverURL }

// SetServerURL switches to another server. The selected project, the
// loaded issues and every association are dropped since they belong to
// the previous server.
func (s *Session) SetServerURL(serverURL string) error {
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if serverURL == s.serverURL {
		return nil
	}
	if err := s.settings.SetSetting(KeyServerURL, serverURL); err != nil {
		return fmt.Errorf("saving server URL: %w", err)
	}
	s.serverURL = serverURL
	s.connect()

	if err := s.forgetProject(); err != nil {
		return err
	}
	if err := s.settings.SetSetting(KeyProject, ""); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	s.project = nil
	s.loaded.Publish(IssuesLoaded{})
	return nil
}

// Token returns the private access token
func (s *Session) Token() string { return s.token }

// SetToken replaces the private access token
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == s.token {
		return nil
	}
	if err := s.settings.SetSetting(KeyToken, hideToken(token)); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	s.token = token
	s.connect()
	return nil
}

// Project returns the selected project, or nil
func (s *Session) Project() *models.Project { return s.project }

// Issues returns the loaded issues in server order
func (s *Session) Issues() []*models.Issue {
	out := make([]*models.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Issue returns the loaded issue with the given id, or nil
func (s *Session) Issue(id int) *models.Issue {
	for _, issue := range s.issues {
		if issue.ID == id {
			return issue
		}
	}
	return nil
}

// IssueByLocalID returns the loaded issue with the given project-local id, or nil
func (s *Session) IssueByLocalID(iid int) *models.Issue {
	for _, issue := range s.issues {
		if issue.LocalID == iid {
			return issue
		}
	}
	return nil
}

// ActiveIssue returns the issue being worked on, or nil
func (s *Session) ActiveIssue() *models.Issue { return s.active }

// HasAssociations reports whether any issue is backed by a local task.
// Changing the server or project drops them.
func (s *Session) HasAssociations() bool { return s.binding.Len() > 0 }

// Association returns the local task backing an issue
func (s *Session) Association(issueID int) (string, bool) {
	return s.binding.Lookup(issueID)
}

// OnIssuesLoaded registers a listener for issue list changes
func (s *Session) OnIssuesLoaded(fn func(IssuesLoaded)) (unsubscribe func()) {
	return s.loaded.SubscribeFunc(fn)
}

// OnError registers a listener for failed remote calls and side effects
func (s *Session) OnError(fn func(error)) (unsubscribe func()) {
	return s.errs.SubscribeFunc(fn)
}

// Busy reports whether remote calls are in flight
func (s *Session) Busy() bool { return len(s.pending) > 0 }

// CancelPending cancels every remote call in flight. Their completions
// change nothing.
func (s *Session) CancelPending() {
	for id, cancel := range s.pending {
		cancel()
		delete(s.pending, id)
	}
}

// Close cancels outstanding calls and detaches the session from the task host
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.CancelPending()
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
}

func (s *Session) fail(err error) {
	s.logger.Error("operation failed", "error", err)
	s.errs.Publish(err)
}

// remote runs call on the executor. On success, onSuccess runs on the
// session goroutine with the payload. Cancelled calls are dropped
// without touching any state.
func (s *Session) remote(what string, call func(ctx context.Context, tracker Tracker) ([]byte, error), onSuccess func(data []byte) error) {
	if s.closed {
		return
	}
	if s.tracker == nil {
		s.fail(fmt.Errorf("%s: %w: %v", what, ErrNoServer, s.trackerErr))
		return
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	s.nextCall++
	id := s.nextCall
	s.pending[id] = cancel

	tracker := s.tracker
	var data []byte
	var err error
	s.executor.Run(func() {
		data, err = call(ctx, tracker)
	}, func() {
		_, live := s.pending[id]
		delete(s.pending, id)
		cancel()

		if !live || s.closed || errors.Is(err, context.Canceled) {
			s.logger.Info("remote call cancelled", "call", what)
			return
		}
		if err != nil {
			s.fail(fmt.Errorf("%s: %w", what, err))
			return
		}
		s.logger.Debug("remote call done", "call", what)
		if onSuccess != nil {
			if err := onSuccess(data); err != nil {
				s.fail(fmt.Errorf("%s: %w", what, err))
			}
		}
	})
}
