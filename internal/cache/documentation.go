package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"darkrift/internal/failure"
	"darkrift/internal/release"
)

// DocumentationDownloader fetches and extracts a version's documentation into dir.
type DocumentationDownloader interface {
	DownloadDocumentationTo(ctx context.Context, version, dir string) error
}

// DocsManager is the documentation cache rooted at <cache-root>/documentation,
// one directory per version.
type DocsManager struct {
	root       string
	downloader DocumentationDownloader
	logger     zerolog.Logger
}

func NewDocsManager(root string, downloader DocumentationDownloader, logger zerolog.Logger) *DocsManager {
	return &DocsManager{root: root, downloader: downloader, logger: logger}
}

func (d *DocsManager) Path(version string) string {
	return joinVersion(d.root, version)
}

func (d *DocsManager) Installation(version string) (release.DocumentationInstallation, bool) {
	if validVersion(version) != nil {
		return release.DocumentationInstallation{}, false
	}
	path := d.Path(version)
	if !dirExists(path) {
		return release.DocumentationInstallation{}, false
	}
	return release.DocumentationInstallation{Version: version, Path: path}, true
}

func (d *DocsManager) Versions() ([]release.DocumentationInstallation, error) {
	names, err := versionDirs(d.root)
	if err != nil {
		return nil, fmt.Errorf("list installed documentation: %w", err)
	}
	docs := make([]release.DocumentationInstallation, 0, len(names))
	for _, name := range names {
		docs = append(docs, release.DocumentationInstallation{Version: name, Path: d.Path(name)})
	}
	return docs, nil
}

// Install follows the same contract as Manager.Install.
func (d *DocsManager) Install(ctx context.Context, version string, force bool) (release.DocumentationInstallation, error) {
	if err := validVersion(version); err != nil {
		return release.DocumentationInstallation{}, err
	}
	if doc, ok := d.Installation(version); ok && !force {
		return doc, nil
	}
	if d.downloader == nil {
		return release.DocumentationInstallation{}, failure.Newf(failure.CodeNotInstalled, "documentation for DarkRift %s is not installed", version)
	}

	d.logger.Info().Str("version", version).Bool("force", force).Msg("installing documentation")
	if err := d.downloader.DownloadDocumentationTo(ctx, version, d.Path(version)); err != nil {
		return release.DocumentationInstallation{}, err
	}
	doc, ok := d.Installation(version)
	if !ok {
		return release.DocumentationInstallation{}, failure.Newf(failure.CodeArchive, "documentation download for DarkRift %s produced no installation", version)
	}
	return doc, nil
}
