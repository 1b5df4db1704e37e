// Package remote talks to the distribution server: it queries the latest
// runtime version and downloads runtime, documentation and package archives.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"darkrift/internal/archive"
	"darkrift/internal/failure"
	"darkrift/internal/release"
)

const (
	// DefaultBaseURL is the distribution root used when no override is configured.
	DefaultBaseURL = "https://www.darkriftnetworking.com/DarkRift2"
	// DefaultDocsURL hosts the online documentation, one directory per version.
	DefaultDocsURL = "https://darkriftnetworking.com/DarkRift2/Docs"

	userAgent = "darkrift-cli/1.0"
)

// EntitlementSource supplies the token required for Pro downloads.
type EntitlementSource interface {
	EntitlementToken(ctx context.Context) (string, error)
}

// LatestVersionStore remembers the most recent version seen on the server.
type LatestVersionStore interface {
	SetLastKnownLatestVersion(version string)
	Save() error
}

// Options configure a Repository. Zero values select defaults.
type Options struct {
	BaseURL      string
	Client       *http.Client
	Entitlements EntitlementSource
	Profile      LatestVersionStore
	Logger       zerolog.Logger
	// StagingDir holds downloaded archives until they are extracted. Empty
	// means the system temp directory.
	StagingDir string
}

// Repository is the network boundary of the tool.
type Repository struct {
	baseURL      string
	client       *http.Client
	entitlements EntitlementSource
	profile      LatestVersionStore
	logger       zerolog.Logger
	stagingDir   string
}

func New(opts Options) *Repository {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Repository{
		baseURL:      base,
		client:       client,
		entitlements: opts.Entitlements,
		profile:      opts.Profile,
		logger:       opts.Logger,
		stagingDir:   opts.StagingDir,
	}
}

// BaseURL returns the distribution root in use.
func (r *Repository) BaseURL() string { return r.baseURL }

func (r *Repository) releasesURL() string {
	return r.baseURL + "/releases/"
}

// VersionURL is the archive location for one runtime build. The token is
// only appended for Pro builds.
func (r *Repository) VersionURL(version string, tier release.Tier, platform release.Platform, token string) string {
	u := fmt.Sprintf("%s/releases/%s/%s/%s/", r.baseURL, url.PathEscape(version), tier, platform)
	if tier == release.TierPro && token != "" {
		u += "?invoice=" + url.QueryEscape(token)
	}
	return u
}

// DocumentationURL is the archive location for a version's documentation.
func (r *Repository) DocumentationURL(version string) string {
	return fmt.Sprintf("%s/releases/%s/docs/", r.baseURL, url.PathEscape(version))
}

// LatestVersion asks the server for the newest release and records the answer
// in the profile. Transport and status failures are CodeNetwork failures.
func (r *Repository) LatestVersion(ctx context.Context) (string, error) {
	r.logger.Info().Msg("querying server for the latest DarkRift version")

	body, err := r.get(ctx, r.releasesURL())
	if err != nil {
		return "", failure.Wrap(err, failure.CodeNetwork, "could not query latest DarkRift version")
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return "", failure.Wrap(err, failure.CodeNetwork, "could not query latest DarkRift version")
	}
	meta, err := ParseVersionMetadata(data)
	if err != nil {
		return "", failure.Wrap(err, failure.CodeNetwork, "could not query latest DarkRift version")
	}

	r.logger.Info().Str("version", meta.Latest).Msg("latest version resolved")
	if r.profile != nil {
		r.profile.SetLastKnownLatestVersion(meta.Latest)
		if err := r.profile.Save(); err != nil {
			r.logger.Warn().Err(err).Msg("could not record latest version in profile")
		}
	}
	return meta.Latest, nil
}

// DownloadVersionTo downloads a runtime build and extracts it to dir. Pro
// builds need an entitlement token; without one no request is made. dir is
// only ever observed holding a complete extraction.
func (r *Repository) DownloadVersionTo(ctx context.Context, version string, tier release.Tier, platform release.Platform, dir string) error {
	sel := release.Selector{Version: version, Tier: tier, Platform: platform}

	var token string
	if tier == release.TierPro {
		if r.entitlements == nil {
			return failure.Newf(failure.CodeMissingEntitlement, "you must provide an invoice number in order to download Pro DarkRift releases")
		}
		t, err := r.entitlements.EntitlementToken(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	if err := r.downloadAndExtract(ctx, r.VersionURL(version, tier, platform, token), dir, true); err != nil {
		return failure.Wrapf(err, failure.CodeOf(err), "could not download %s", sel)
	}
	r.logger.Info().Str("version", version).Stringer("tier", tier).Stringer("platform", platform).Str("path", dir).Msg("runtime downloaded")
	return nil
}

// DownloadDocumentationTo downloads a version's documentation to dir.
func (r *Repository) DownloadDocumentationTo(ctx context.Context, version, dir string) error {
	if err := r.downloadAndExtract(ctx, r.DocumentationURL(version), dir, true); err != nil {
		return failure.Wrapf(err, failure.CodeOf(err), "could not download documentation for DarkRift %s", version)
	}
	r.logger.Info().Str("version", version).Str("path", dir).Msg("documentation downloaded")
	return nil
}

// DownloadPackageTo downloads a plugin package from an arbitrary URL and
// unpacks it over dir, keeping files already present.
func (r *Repository) DownloadPackageTo(ctx context.Context, rawURL, dir string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return failure.Newf(failure.CodeInvalidInput, "invalid package url %q", rawURL)
	}
	if err := r.downloadAndExtract(ctx, u.String(), dir, false); err != nil {
		return failure.Wrapf(err, failure.CodeOf(err), "could not download package")
	}
	r.logger.Info().Str("url", u.Redacted()).Str("path", dir).Msg("package downloaded")
	return nil
}

func (r *Repository) downloadAndExtract(ctx context.Context, src, dir string, staged bool) error {
	stagingPath, err := r.download(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(stagingPath) }()

	r.logger.Debug().Str("staging", stagingPath).Str("dest", dir).Msg("extracting package")
	if staged {
		err = archive.ExtractZipStaged(stagingPath, dir)
	} else {
		err = archive.ExtractZip(stagingPath, dir)
	}
	if err != nil {
		return failure.Wrap(err, failure.CodeArchive, "extract archive")
	}
	return nil
}

// download writes src to a new staging file and returns its path. The
// caller removes the file.
func (r *Repository) download(ctx context.Context, src string) (string, error) {
	if r.stagingDir != "" {
		if err := os.MkdirAll(r.stagingDir, 0o755); err != nil {
			return "", fmt.Errorf("prepare staging dir: %w", err)
		}
	}

	body, err := r.get(ctx, src)
	if err != nil {
		return "", failure.Wrap(err, failure.CodeNetwork, "download")
	}
	defer body.Close()

	tmpFile, err := os.CreateTemp(r.stagingDir, "download-*.zip")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := io.Copy(tmpFile, body); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpPath)
		return "", failure.Wrap(err, failure.CodeNetwork, "download")
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close staging file: %w", err)
	}
	return tmpPath, nil
}

func (r *Repository) get(ctx context.Context, src string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", redact(req.URL), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", redact(req.URL), resp.Status)
	}
	return resp.Body, nil
}

// redact hides the invoice query parameter from error messages and logs.
func redact(u *url.URL) string {
	if u.RawQuery == "" {
		return u.String()
	}
	clone := *u
	q := clone.Query()
	if q.Has("invoice") {
		q.Set("invoice", "xxxxx")
	}
	clone.RawQuery = q.Encode()
	return clone.String()
}

// OnlineDocumentationURL is where a version's documentation is browsable.
func OnlineDocumentationURL(version string) string {
	return DefaultDocsURL + "/" + url.PathEscape(version)
}
