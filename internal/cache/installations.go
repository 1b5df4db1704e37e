// Package cache maps runtime selectors to directories on disk, installing
// missing runtimes and documentation through the remote repository, and
// resolves which version "latest" refers to.
package cache

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"darkrift/internal/failure"
	"darkrift/internal/release"
)

// VersionDownloader fetches and extracts a runtime build into dir.
type VersionDownloader interface {
	DownloadVersionTo(ctx context.Context, version string, tier release.Tier, platform release.Platform, dir string) error
}

// Manager is the installation cache rooted at <cache-root>/installed. The
// presence of <root>/<tier>/<platform>/<version> is the only record that a
// runtime is installed.
type Manager struct {
	root       string
	downloader VersionDownloader
	resolver   *Resolver
	logger     zerolog.Logger
}

func NewManager(root string, downloader VersionDownloader, resolver *Resolver, logger zerolog.Logger) *Manager {
	return &Manager{root: root, downloader: downloader, resolver: resolver, logger: logger}
}

// Root returns the directory holding every installation.
func (m *Manager) Root() string { return m.root }

// Path returns the canonical directory for a selector, whether or not it exists.
func (m *Manager) Path(version string, tier release.Tier, platform release.Platform) string {
	return filepath.Join(m.root, tier.String(), platform.String(), version)
}

// Installation reports the installation for a selector if its directory exists.
// It never touches the network.
func (m *Manager) Installation(version string, tier release.Tier, platform release.Platform) (release.Installation, bool) {
	if validVersion(version) != nil {
		return release.Installation{}, false
	}
	path := m.Path(version, tier, platform)
	if !dirExists(path) {
		return release.Installation{}, false
	}
	return release.Installation{Version: version, Tier: tier, Platform: platform, Path: path}, true
}

// Versions lists installed versions for a tier and platform, sorted by name.
func (m *Manager) Versions(tier release.Tier, platform release.Platform) ([]release.Installation, error) {
	root := filepath.Join(m.root, tier.String(), platform.String())
	names, err := versionDirs(root)
	if err != nil {
		return nil, fmt.Errorf("list installed versions: %w", err)
	}
	installs := make([]release.Installation, 0, len(names))
	for _, name := range names {
		installs = append(installs, release.Installation{Version: name, Tier: tier, Platform: platform, Path: joinVersion(root, name)})
	}
	return installs, nil
}

// Install returns the installation for a selector, downloading it when it
// is absent or force is set. An existing installation without force makes no
// repository call. A failed download leaves any previous installation in place.
func (m *Manager) Install(ctx context.Context, version string, tier release.Tier, platform release.Platform, force bool) (release.Installation, error) {
	if err := validVersion(version); err != nil {
		return release.Installation{}, err
	}
	sel := release.Selector{Version: version, Tier: tier, Platform: platform}
	if inst, ok := m.Installation(version, tier, platform); ok && !force {
		m.logger.Debug().Str("path", inst.Path).Msgf("%s already installed", sel)
		return inst, nil
	}
	if m.downloader == nil {
		return release.Installation{}, failure.Newf(failure.CodeNotInstalled, "%s is not installed", sel)
	}

	path := m.Path(version, tier, platform)
	m.logger.Info().Str("path", path).Bool("force", force).Msgf("installing %s", sel)
	if err := m.downloader.DownloadVersionTo(ctx, version, tier, platform, path); err != nil {
		return release.Installation{}, err
	}

	inst, ok := m.Installation(version, tier, platform)
	if !ok {
		return release.Installation{}, failure.Newf(failure.CodeArchive, "%s download produced no installation", sel)
	}
	m.logger.Info().Str("path", inst.Path).Msgf("installed %s", sel)
	return inst, nil
}

// LatestVersion resolves the newest version known, querying at most once per Manager.
func (m *Manager) LatestVersion(ctx context.Context) (string, error) {
	if m.resolver == nil {
		return "", failure.ErrNoLatestVersion
	}
	return m.resolver.Resolve(ctx)
}
