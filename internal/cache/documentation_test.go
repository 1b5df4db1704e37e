package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"darkrift/internal/failure"
)

func TestDocsInstallAndLookup(t *testing.T) {
	root := t.TempDir()
	repo := &mockRepository{}
	repo.On("DownloadDocumentationTo", mock.Anything, "2.4.5", filepath.Join(root, "2.4.5")).
		Run(extractInto(2)).Return(nil).Once()

	d := NewDocsManager(root, repo, zerolog.Nop())
	_, ok := d.Installation("2.4.5")
	assert.False(t, ok)

	doc, err := d.Install(context.Background(), "2.4.5", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2.4.5"), doc.Path)

	_, err = d.Install(context.Background(), "2.4.5", false)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "DownloadDocumentationTo", 1)
}

func TestDocsInstallFailure(t *testing.T) {
	root := t.TempDir()
	repo := &mockRepository{}
	repo.On("DownloadDocumentationTo", mock.Anything, mock.Anything, mock.Anything).
		Return(failure.New(failure.CodeNetwork, "offline"))

	d := NewDocsManager(root, repo, zerolog.Nop())
	_, err := d.Install(context.Background(), "2.4.5", true)
	assert.True(t, failure.IsCode(err, failure.CodeNetwork))
	assert.NoDirExists(t, d.Path("2.4.5"))
}

func TestDocsVersions(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"2.4.5", "2.3.1", ".2.4.5-previous"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0o755))
	}
	docs, err := NewDocsManager(root, nil, zerolog.Nop()).Versions()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "2.3.1", docs[0].Version)
	assert.Equal(t, "2.4.5", docs[1].Version)
}
