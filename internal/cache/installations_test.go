package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"darkrift/internal/failure"
	"darkrift/internal/release"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) DownloadVersionTo(ctx context.Context, version string, tier release.Tier, platform release.Platform, dir string) error {
	args := m.Called(ctx, version, tier, platform, dir)
	return args.Error(0)
}

func (m *mockRepository) DownloadDocumentationTo(ctx context.Context, version, dir string) error {
	args := m.Called(ctx, version, dir)
	return args.Error(0)
}

func (m *mockRepository) LatestVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// extractInto simulates a successful download by creating the target directory.
func extractInto(dirArg int) func(mock.Arguments) {
	return func(args mock.Arguments) {
		dir := args.String(dirArg)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			panic(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "DarkRift.Server.Console.exe"), []byte("exe"), 0o644); err != nil {
			panic(err)
		}
	}
}

func TestInstallThenInstallationReturnsCanonicalPath(t *testing.T) {
	root := t.TempDir()
	repo := &mockRepository{}
	repo.On("DownloadVersionTo", mock.Anything, "2.4.5", release.TierPro, release.PlatformCore, mock.Anything).
		Run(extractInto(4)).Return(nil).Once()

	m := NewManager(root, repo, nil, zerolog.Nop())
	inst, err := m.Install(context.Background(), "2.4.5", release.TierPro, release.PlatformCore, false)
	require.NoError(t, err)

	want := filepath.Join(root, "pro", "core", "2.4.5")
	assert.Equal(t, want, inst.Path)

	got, ok := m.Installation("2.4.5", release.TierPro, release.PlatformCore)
	require.True(t, ok)
	assert.Equal(t, release.Installation{Version: "2.4.5", Tier: release.TierPro, Platform: release.PlatformCore, Path: want}, got)
	repo.AssertExpectations(t)
}

func TestInstallExistingMakesNoRepositoryCalls(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "free", "framework", "2.4.5"), 0o755))
	repo := &mockRepository{}

	m := NewManager(root, repo, nil, zerolog.Nop())
	inst, err := m.Install(context.Background(), "2.4.5", release.TierFree, release.PlatformFramework, false)
	require.NoError(t, err)
	assert.Equal(t, "2.4.5", inst.Version)
	repo.AssertNotCalled(t, "DownloadVersionTo", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInstallForceRedownloads(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "free", "framework", "2.4.5"), 0o755))
	repo := &mockRepository{}
	repo.On("DownloadVersionTo", mock.Anything, "2.4.5", release.TierFree, release.PlatformFramework, mock.Anything).
		Run(extractInto(4)).Return(nil).Once()

	m := NewManager(root, repo, nil, zerolog.Nop())
	_, err := m.Install(context.Background(), "2.4.5", release.TierFree, release.PlatformFramework, true)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestInstallFailureReportsErrorAndNoInstallation(t *testing.T) {
	root := t.TempDir()
	repo := &mockRepository{}
	repo.On("DownloadVersionTo", mock.Anything, "9.9.9", release.TierFree, release.PlatformFramework, mock.Anything).
		Return(failure.New(failure.CodeNetwork, "404"))

	m := NewManager(root, repo, nil, zerolog.Nop())
	_, err := m.Install(context.Background(), "9.9.9", release.TierFree, release.PlatformFramework, false)
	assert.True(t, errors.Is(err, failure.ErrNetwork))

	_, ok := m.Installation("9.9.9", release.TierFree, release.PlatformFramework)
	assert.False(t, ok)
	assert.NoDirExists(t, m.Path("9.9.9", release.TierFree, release.PlatformFramework))
}

func TestInstallForceFailureKeepsPreviousInstallation(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "free", "framework", "2.4.5")
	require.NoError(t, os.MkdirAll(existing, 0o755))
	repo := &mockRepository{}
	repo.On("DownloadVersionTo", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(failure.New(failure.CodeNetwork, "offline"))

	m := NewManager(root, repo, nil, zerolog.Nop())
	_, err := m.Install(context.Background(), "2.4.5", release.TierFree, release.PlatformFramework, true)
	require.Error(t, err)

	_, ok := m.Installation("2.4.5", release.TierFree, release.PlatformFramework)
	assert.True(t, ok)
}

func TestInstallRejectsUnsafeVersion(t *testing.T) {
	repo := &mockRepository{}
	m := NewManager(t.TempDir(), repo, nil, zerolog.Nop())
	for _, v := range []string{"", "..", "../evil", `a\b`} {
		_, err := m.Install(context.Background(), v, release.TierFree, release.PlatformFramework, false)
		assert.True(t, failure.IsCode(err, failure.CodeInvalidInput), "version %q", v)
	}
	repo.AssertNotCalled(t, "DownloadVersionTo", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInstallWithoutDownloaderIsNotInstalled(t *testing.T) {
	m := NewManager(t.TempDir(), nil, nil, zerolog.Nop())
	_, err := m.Install(context.Background(), "2.4.5", release.TierFree, release.PlatformFramework, false)
	assert.True(t, errors.Is(err, failure.ErrNotInstalled))
}

func TestVersions(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil, nil, zerolog.Nop())

	got, err := m.Versions(release.TierPro, release.PlatformCore)
	require.NoError(t, err)
	assert.Empty(t, got)

	base := filepath.Join(root, "pro", "core")
	for _, name := range []string{"2.4.5", "2.10.1", ".2.11.0-staging-123"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, name), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0o644))

	got, err = m.Versions(release.TierPro, release.PlatformCore)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2.10.1", got[0].Version)
	assert.Equal(t, "2.4.5", got[1].Version)
	assert.Equal(t, filepath.Join(base, "2.4.5"), got[1].Path)
	assert.Equal(t, release.TierPro, got[1].Tier)
}

func TestManagerLatestVersionDelegatesToResolver(t *testing.T) {
	repo := &mockRepository{}
	repo.On("LatestVersion", mock.Anything).Return("2.10.1", nil).Once()
	resolver := NewResolver(zerolog.Nop(), RemoteSource{Remote: repo})

	m := NewManager(t.TempDir(), repo, resolver, zerolog.Nop())
	for i := 0; i < 3; i++ {
		v, err := m.LatestVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "2.10.1", v)
	}
	repo.AssertNumberOfCalls(t, "LatestVersion", 1)
}
