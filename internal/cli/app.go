package cli

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"darkrift/internal/cache"
	"darkrift/internal/invoice"
	"darkrift/internal/logx"
	"darkrift/internal/paths"
	"darkrift/internal/remote"
	"darkrift/internal/session"
	"darkrift/internal/templater"
)

// newPrompter is replaced in tests.
var newPrompter = func() invoice.Prompter {
	return invoice.DefaultPrompter(os.Stdin, os.Stderr)
}

// app wires the engine components for one command invocation.
type app struct {
	sess      *session.Session
	invoices  *invoice.Manager
	repo      *remote.Repository
	resolver  *cache.Resolver
	installs  *cache.Manager
	docs      *cache.DocsManager
	templates *templater.Templater
	runner    cache.Runner

	closer io.Closer
}

func openApp(cmd *cobra.Command) (*app, error) {
	user, err := paths.ResolveUser()
	if err != nil {
		return nil, err
	}
	project, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, err
	}

	// A missing log file is already reported by Setup; keep going on the console.
	logger, closer, _ := logx.Setup(verbosity, cmd.ErrOrStderr(), user.LogsDir)
	logger.Debug().Str("command", cmd.CommandPath()).Str("project", project.Root).Msg("starting")

	sess, err := session.OpenWith(user, project, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	a := &app{sess: sess, runner: newRunner(), closer: closer}
	a.invoices = invoice.NewManager(sess.Profile, newPrompter(), sess.Component("invoice"))
	a.repo = a.repository("")
	a.resolver = cache.NewResolver(sess.Component("resolver"),
		cache.RemoteSource{Remote: a.repo},
		cache.ProfileSource{Store: sess.Profile},
	)
	a.installs = cache.NewManager(user.InstallDir, a.repo, a.resolver, sess.Component("installations"))
	a.docs = cache.NewDocsManager(user.DocsDir, a.repo, sess.Component("documentation"))
	a.templates = templater.New(user.TemplatesDir, sess.Component("templater"))
	return a, nil
}

// repository builds a client that stages downloads in stagingDir.
func (a *app) repository(stagingDir string) *remote.Repository {
	return remote.New(remote.Options{
		BaseURL:      os.Getenv(paths.EnvRepository),
		Entitlements: a.invoices,
		Profile:      a.sess.Profile,
		Logger:       a.sess.Component("remote"),
		StagingDir:   stagingDir,
	})
}

func (a *app) logger() *zerolog.Logger {
	return &a.sess.Logger
}

func (a *app) Close() error {
	return a.closer.Close()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
