// Package session carries the per-invocation state every command needs:
// resolved user and project directories, the user's profile, the project's
// configuration, and the logger. It is built once at startup and passed down.
package session

import (
	"github.com/rs/zerolog"

	"darkrift/internal/config"
	"darkrift/internal/failure"
	"darkrift/internal/paths"
	"darkrift/internal/profile"
)

// Session is the explicit replacement for process-wide state.
type Session struct {
	User        paths.UserPaths
	Project     paths.ProjectPaths
	Profile     *profile.Store
	Config      config.Config
	ConfigFound bool
	Logger      zerolog.Logger

	// Warnings collects recoverable problems found while loading, such as a
	// corrupt profile that was replaced with defaults.
	Warnings []error
}

// Options control how a Session is opened.
type Options struct {
	ProjectDir string
	Logger     zerolog.Logger
}

// Open resolves directories and loads the profile and project configuration.
// A corrupt profile is recorded in Warnings and replaced with defaults. A
// corrupt project configuration is returned as an error.
func Open(opts Options) (*Session, error) {
	user, err := paths.ResolveUser()
	if err != nil {
		return nil, err
	}
	project, err := paths.Resolve(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	return OpenWith(user, project, opts.Logger)
}

// OpenWith builds a Session from already resolved directories.
func OpenWith(user paths.UserPaths, project paths.ProjectPaths, logger zerolog.Logger) (*Session, error) {
	s := &Session{User: user, Project: project, Logger: logger}

	store, err := profile.Open(user.ProfileFile)
	if err != nil {
		if !failure.IsCode(err, failure.CodeConfiguration) {
			return nil, err
		}
		logger.Warn().Err(err).Str("path", user.ProfileFile).Msg("profile unreadable, using defaults")
		s.Warnings = append(s.Warnings, err)
	}
	s.Profile = store

	if err := s.ReloadConfig(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReloadConfig re-reads the project configuration from disk.
func (s *Session) ReloadConfig() error {
	cfg, found, err := config.LoadProject(s.Project.ConfigFile, s.Project.LegacyConfigFile)
	if err != nil {
		return err
	}
	s.Config = cfg
	s.ConfigFound = found
	s.Project = s.Project.WithPackagesDir(cfg.PackagesDir)
	return nil
}

// SaveConfig persists the project configuration as darkrift.yaml.
func (s *Session) SaveConfig() error {
	if err := s.Config.Save(s.Project.ConfigFile); err != nil {
		return err
	}
	s.ConfigFound = true
	return nil
}

// Component returns the session logger tagged with a component name.
func (s *Session) Component(name string) zerolog.Logger {
	return s.Logger.With().Str("component", name).Logger()
}
