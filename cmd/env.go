package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/learnpath/internal/config"
	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/logger"
	"github.com/abhisek/learnpath/internal/progress"
	"github.com/abhisek/learnpath/internal/recommend"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/store"
	"github.com/spf13/cobra"
)

// env is everything a command needs to talk to the service and the local
// store. Close releases it.
type env struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *store.Store
	client   contentapi.Client
	sessions store.SessionRepo
	progress *progress.Store
	resolver *recommend.Resolver

	// email of the saved session, if any.
	email string
	// expired is set when a saved token was dropped because it expired.
	expired bool

	closers []func() error
}

// loadConfig resolves configuration with the persistent flags as
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := map[string]any{}
	if api, _ := cmd.Flags().GetString("api"); api != "" {
		overrides["api.base_url"] = api
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		overrides["db"] = db
	}
	file, _ := cmd.Flags().GetString("config")
	return config.Load(config.Options{ConfigFile: file, Overrides: overrides})
}

// newLogger follows the configured destination for the TUI. CLI commands
// log to stderr, at debug level with --verbose and warnings otherwise.
func newLogger(cmd *cobra.Command, cfg *config.Config, tui bool) (*logger.Logger, error) {
	lc := logger.Config{Mode: cfg.Log.Mode, Level: cfg.Log.Level, File: cfg.Log.File}
	verbose, _ := cmd.Flags().GetBool("verbose")
	switch {
	case verbose && !tui:
		lc.File = ""
		lc.Level = "debug"
	case verbose:
		lc.Level = "debug"
	case !tui:
		lc.File = ""
		lc.Level = "warn"
	}
	return logger.New(lc)
}

// openEnv wires config, logging, the local store, the progress cache, the
// service client and the saved session.
func openEnv(cmd *cobra.Command, tui bool) (*env, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd, cfg, tui)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	e := &env{cfg: cfg, log: log}

	dbPath, err := resolveDBPath(cmd, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st
	e.closers = append(e.closers, st.Close)
	e.sessions = st.SessionRepo()

	var cache progress.Cache = st.ProgressCache()
	if cfg.Cache.Backend == config.CacheRedis {
		rc, err := store.OpenRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPrefix)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		cache = rc
		e.closers = append(e.closers, rc.Close)
	}

	e.client = contentapi.New(contentapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, st.RequestLogRepo(), log)

	sess, err := e.sessions.Load(ctx)
	if err != nil {
		log.Warn("saved session unreadable", "error", err)
	}
	if sess != nil {
		e.email = sess.Email
		if contentapi.TokenExpired(sess.Token, time.Now()) {
			e.expired = true
			log.Info("saved session expired", "email", sess.Email)
		} else {
			e.client.SetToken(sess.Token)
		}
	}

	e.progress = progress.NewStore(e.client, cache, contentapi.IdentityPrefix(e.client.Token()), log)
	e.resolver = recommend.NewResolver(e.client)
	return e, nil
}

// signedIn reports whether a usable token is loaded.
func (e *env) signedIn() bool {
	return e.client.Token() != ""
}

// requireSession fails early when there is no usable token.
func (e *env) requireSession() error {
	if e.signedIn() {
		return nil
	}
	if e.expired {
		return fmt.Errorf("your session expired; run 'learnpath login' again")
	}
	return fmt.Errorf("not signed in; run 'learnpath login' first")
}

func (e *env) deps() screens.Deps {
	return screens.Deps{
		Client:     e.client,
		Progress:   e.progress,
		Resolver:   e.resolver,
		Sessions:   e.sessions,
		Mode:       e.cfg.Recommend.Mode,
		SyncOnOpen: e.cfg.SyncOnOpen,
		Log:        e.log,
	}
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn("close failed", "error", err)
		}
	}
	e.closers = nil
	e.log.Sync()
}
