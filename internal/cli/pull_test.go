package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkrift/internal/failure"
)

func TestPullWithoutVersionOrConfig(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "pull")
	require.Error(t, err)
	assert.True(t, failure.IsCode(err, failure.CodeInvalidInput))
	assert.Contains(t, err.Error(), "darkrift pull latest")
	assert.Zero(t, h.downloads())
}

func TestPullLatestThenAlreadyInstalled(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "pull", "latest")
	require.NoError(t, err)
	assert.Contains(t, stdout, "DarkRift 2.10.1 - Free (.NET Framework): installed")
	assert.DirExists(t, h.installPath("free", "framework", "2.10.1"))

	_, stderr, err := h.run(t, "pull", "2.10.1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "already installed")
	assert.Equal(t, 1, h.count("/releases/2.10.1/free/framework/"))

	_, _, err = h.run(t, "pull", "2.10.1", "--force")
	require.NoError(t, err)
	assert.Equal(t, 2, h.count("/releases/2.10.1/free/framework/"))
}

func TestPullLatestFallsBackToProfile(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "pull", "latest")
	require.NoError(t, err)

	h.latest = ""
	_, stderr, err := h.run(t, "pull", "latest")
	require.NoError(t, err)
	assert.Contains(t, stderr, "already installed")
}

func TestPullLatestWithNothingKnown(t *testing.T) {
	h := newHarness(t)
	h.latest = ""

	_, _, err := h.run(t, "pull", "latest")
	require.Error(t, err)
	assert.True(t, failure.IsCode(err, failure.CodeNoLatestVersion))
	assert.Contains(t, err.Error(), "could not find the latest DarkRift version")
}

func TestPullProjectConfigNeedsInvoiceForPro(t *testing.T) {
	h := newHarness(t)
	h.writeProjectFile(t, "darkrift.yaml", "runtime:\n  version: 2.4.5\n  tier: pro\n  platform: core\n")

	_, _, err := h.run(t, "pull")
	require.Error(t, err)
	assert.True(t, failure.IsCode(err, failure.CodeMissingEntitlement))
	assert.Zero(t, h.downloads(), "no request without an invoice number")

	_, _, err = h.run(t, "profile", "--invoice", "INV-42")
	require.NoError(t, err)

	_, _, err = h.run(t, "pull")
	require.NoError(t, err)
	assert.Equal(t, 1, h.count("/releases/2.4.5/pro/core/?invoice=INV-42"))
	assert.DirExists(t, h.installPath("pro", "core", "2.4.5"))
}

func TestPullFlagsOverrideProjectConfig(t *testing.T) {
	h := newHarness(t)
	h.writeProjectFile(t, "darkrift.yaml", "runtime:\n  version: 2.4.5\n  tier: free\n  platform: framework\n")

	_, _, err := h.run(t, "pull", "--platform", "core")
	require.NoError(t, err)
	assert.DirExists(t, h.installPath("free", "core", "2.4.5"))
}

func TestPullDocsAndList(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "pull", "2.4.5")
	require.NoError(t, err)
	_, _, err = h.run(t, "pull", "2.4.5", "--docs")
	require.NoError(t, err)
	_, _, err = h.run(t, "pull", "2.10.1")
	require.NoError(t, err)

	stdout, _, err := h.run(t, "pull", "--list", "--json")
	require.NoError(t, err)

	var listed []listedInstall
	require.NoError(t, json.Unmarshal([]byte(stdout), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "2.10.1", listed[0].Version)
	assert.False(t, listed[0].Docs)
	assert.Equal(t, "2.4.5", listed[1].Version)
	assert.True(t, listed[1].Docs)

	stdout, _, err = h.run(t, "pull", "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "VERSION")
	assert.Contains(t, stdout, "2.4.5")
}

func TestPullJSONResults(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "pull", "2.4.5", "--json")
	require.NoError(t, err)

	var results []jobResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, artifactRuntime, results[0].Artifact)
	assert.Equal(t, "installed", results[0].Status)
	assert.Equal(t, "free", results[0].Tier)

	stdout, _, err = h.run(t, "pull", "2.4.5", "--docs", "--json")
	require.NoError(t, err)

	results = nil
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, artifactDocs, results[0].Artifact)
	assert.Empty(t, results[0].Tier)
	assert.Equal(t, filepath.Join(h.home, "cache", "documentation", "2.4.5"), results[0].Path)
}

func TestPullDocsOnlyFetchesDocumentation(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "pull", "2.4.5", "--docs", "--pro")
	require.NoError(t, err, "documentation needs no invoice number")
	assert.Equal(t, []string{"/releases/2.4.5/docs/"}, h.requestLog())
	assert.NoDirExists(t, h.installPath("pro", "framework", "2.4.5"))

	_, stderr, err := h.run(t, "pull", "2.4.5", "--docs")
	require.NoError(t, err)
	assert.Contains(t, stderr, `darkrift pull 2.4.5 --docs -f`)
	assert.Len(t, h.requestLog(), 1)
}
