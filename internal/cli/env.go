package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tgienger/labtask/internal/config"
	"github.com/tgienger/labtask/internal/db"
	"github.com/tgienger/labtask/internal/gitlab"
	"github.com/tgienger/labtask/internal/logging"
	"github.com/tgienger/labtask/internal/tasks"
	"github.com/tgienger/labtask/internal/workspace"
)

// env is everything a command needs: configuration, the workspace
// database, the local task host and the sync session
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	logFile  io.Closer
	db       *db.DB
	host     *tasks.Host
	registry *workspace.Registry
	session  *workspace.Session
	errs     []error
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if workspaceName != "" {
		cfg.Workspace = workspaceName
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openEnv wires the application together. executor and confirmer decide
// how remote calls complete and how questions are asked.
func openEnv(executor workspace.Executor, confirmer workspace.Confirmer) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logFile, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, logFile: logFile}

	e.db, err = db.Open(db.Path(cfg.DataDir, cfg.Workspace))
	if err != nil {
		e.Close()
		return nil, err
	}

	e.host, err = tasks.NewHost(e.db, logger)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.registry = workspace.NewRegistry()
	e.session, err = e.registry.Open(cfg.Workspace, workspace.Options{
		Settings:     e.db,
		Associations: e.db,
		Tasks:        e.host,
		NewTracker:   trackerFactory(cfg, logger),
		Executor:     executor,
		Confirmer:    confirmer,
		Logger:       logger.With("workspace", cfg.Workspace),
		Timeout:      cfg.HTTP.Timeout,
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	e.session.OnError(func(err error) { e.errs = append(e.errs, err) })

	logger.Debug("workspace opened", "workspace", cfg.Workspace, "server", e.session.ServerURL())
	return e, nil
}

func trackerFactory(cfg *config.Config, logger *slog.Logger) workspace.TrackerFactory {
	return func(serverURL, token string) (workspace.Tracker, error) {
		client, err := gitlab.NewClient(gitlab.Config{
			BaseURL: serverURL,
			APIPath: cfg.GitLab.APIPath,
			Token:   token,
			PerPage: cfg.GitLab.PerPage,
			Timeout: cfg.HTTP.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// check returns the errors reported since the last check
func (e *env) check() error {
	err := errors.Join(e.errs...)
	e.errs = nil
	return err
}

// refresh loads the issues of the selected project
func (e *env) refresh() error {
	if e.session.Project() == nil {
		return fmt.Errorf("%w; run `labtask projects` and `labtask use <id>`", workspace.ErrNoProject)
	}
	e.session.RefreshIssues()
	return e.check()
}

func (e *env) Close() {
	if e.registry != nil {
		e.registry.CloseAll()
	}
	if e.db != nil {
		e.db.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// withEnv runs fn with a synchronous environment
func withEnv(fn func(e *env) error) error {
	e, err := openEnv(workspace.Inline{}, newTerminalConfirmer())
	if err != nil {
		return err
	}
	defer e.Close()

	if err := fn(e); err != nil {
		return err
	}
	return e.check()
}
