package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkrift/internal/config"
	"darkrift/internal/failure"
)

func TestTemplatesList(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No templates found")

	h.writeTemplate(t, "server", map[string]string{"a": "a"})
	h.writeTemplate(t, "plugin", map[string]string{"b": "b"})
	stdout, _, err = h.run(t, "templates")
	require.NoError(t, err)
	assert.Equal(t, "plugin\nserver\n", stdout)

	stdout, _, err = h.run(t, "templates", "--json")
	require.NoError(t, err)
	var res templatesResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, []string{"plugin", "server"}, res.Templates)
	assert.Equal(t, h.templates, res.Root)
}

func TestProfileInvoice(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "profile")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Invoice number: not set")

	_, _, err = h.run(t, "profile", "--invoice", "INV-1")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(h.home, "config", "profile.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<EntitlementToken>INV-1</EntitlementToken>")

	stdout, _, err = h.run(t, "profile", "--json")
	require.NoError(t, err)
	var res profileResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.InvoiceStored)

	_, _, err = h.run(t, "profile", "--clear-invoice")
	require.NoError(t, err)
	stdout, _, err = h.run(t, "profile")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Invoice number: not set")
}

func TestProfileRejectsConflictingFlags(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "profile", "--invoice", "x", "--clear-invoice")
	require.Error(t, err)
	assert.True(t, failure.IsCode(err, failure.CodeInvalidInput))

	_, _, err = h.run(t, "profile", "--invoice", " ")
	require.Error(t, err)
	assert.True(t, failure.IsCode(err, failure.CodeInvalidInput))
}

func TestCorruptProfileIsReplaced(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.home, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.home, "config", "profile.xml"), []byte("<<<"), 0o644))

	stdout, stderr, err := h.run(t, "profile")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Invoice number: not set")
	assert.Contains(t, stderr, "profile unreadable")
}

func TestConfigShowAndValidate(t *testing.T) {
	h := newHarness(t)
	h.writeProjectFile(t, "darkrift.yaml", "runtime:\n  version: 2.4.5\n  tier: pro\n  platform: core\n")

	stdout, _, err := h.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "version: 2.4.5")
	assert.Contains(t, stdout, "tier: pro")

	stdout, _, err = h.run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")

	h.writeProjectFile(t, "darkrift.yaml", "runtime:\n  version: \"a/b\"\n  tier: free\n  platform: core\n")
	stdout, _, err = h.run(t, "config", "validate", "--json")
	require.Error(t, err)
	assert.True(t, failure.IsCode(err, failure.CodeConfiguration))
	var res configValidation
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "error", res.Findings[0].Level)
}

func TestConfigEditCreatesFileAndRunsEditor(t *testing.T) {
	h := newHarness(t)
	t.Setenv("EDITOR", "code -w")

	_, _, err := h.run(t, "config", "edit")
	require.NoError(t, err)
	cfg, found, err := config.Load(filepath.Join(h.project, "darkrift.yaml"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2.10.1", cfg.Runtime.Version)

	require.Len(t, h.runner.calls, 1)
	assert.Equal(t, "code", h.runner.calls[0].name)
	assert.Equal(t, []string{"-w", filepath.Join(h.project, "darkrift.yaml")}, h.runner.calls[0].args)
}

func TestUnparseableConfigFailsCommands(t *testing.T) {
	h := newHarness(t)
	h.writeProjectFile(t, "darkrift.yaml", "runtime:\n  tier: gold\n")

	_, _, err := h.run(t, "run")
	require.Error(t, err)
	assert.True(t, failure.IsCode(err, failure.CodeConfiguration))
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	prev := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = prev })

	stdout, _, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "darkrift 1.2.3", strings.TrimSpace(stdout))
}
