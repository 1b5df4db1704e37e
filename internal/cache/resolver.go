package cache

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"darkrift/internal/failure"
)

// VersionSource is one strategy for learning the latest version.
type VersionSource interface {
	Name() string
	LatestVersion(ctx context.Context) (string, error)
}

// LatestVersionQuerier asks a remote for the latest version.
type LatestVersionQuerier interface {
	LatestVersion(ctx context.Context) (string, error)
}

// RemoteSource queries the distribution server.
type RemoteSource struct {
	Remote LatestVersionQuerier
}

func (RemoteSource) Name() string { return "remote" }

func (s RemoteSource) LatestVersion(ctx context.Context) (string, error) {
	return s.Remote.LatestVersion(ctx)
}

// LastKnownStore exposes the version recorded by a previous query.
type LastKnownStore interface {
	LastKnownLatestVersion() (string, bool)
}

// ProfileSource reads the last version a previous run saw on the server.
type ProfileSource struct {
	Store LastKnownStore
}

func (ProfileSource) Name() string { return "profile" }

var errNoneRecorded = errors.New("no version recorded")

func (s ProfileSource) LatestVersion(context.Context) (string, error) {
	if version, ok := s.Store.LastKnownLatestVersion(); ok {
		return version, nil
	}
	return "", errNoneRecorded
}

// Resolver tries its sources in order and remembers the outcome, success or
// failure, for the rest of the process.
type Resolver struct {
	sources []VersionSource
	logger  zerolog.Logger

	mu      sync.Mutex
	done    bool
	version string
	err     error
}

func NewResolver(logger zerolog.Logger, sources ...VersionSource) *Resolver {
	return &Resolver{sources: sources, logger: logger}
}

// Resolve returns the first non-empty version offered by a source.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return r.version, r.err
	}
	r.version, r.err = r.resolve(ctx)
	r.done = true
	return r.version, r.err
}

func (r *Resolver) resolve(ctx context.Context) (string, error) {
	for i, src := range r.sources {
		version, err := src.LatestVersion(ctx)
		version = strings.TrimSpace(version)
		if err == nil && version != "" {
			r.logger.Debug().Str("source", src.Name()).Str("version", version).Msg("latest version resolved")
			return version, nil
		}
		ev := r.logger.Debug()
		if i < len(r.sources)-1 {
			ev = r.logger.Warn()
		}
		ev.Err(err).Str("source", src.Name()).Msg("latest version unavailable from source")
	}
	return "", failure.New(failure.CodeNoLatestVersion,
		"could not find the latest DarkRift version: the server could not be reached and no version has been seen before")
}
