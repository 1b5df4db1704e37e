package templater

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkrift/internal/archive/archivetest"
	"darkrift/internal/failure"
	"darkrift/internal/release"
)

func newTemplater(t *testing.T, templates map[string]map[string]string) *Templater {
	t.Helper()
	root := t.TempDir()
	for name, files := range templates {
		archivetest.WriteZip(t, filepath.Join(root, name+".zip"), files)
	}
	return New(root, zerolog.Nop())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestTemplateExpandsPathsAndContent(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{
		"plugin": {
			"src/Plugin1__c__.cs": "namespace __n__ { // DarkRift __v__ __t__ (.NET __p__)\n}",
			"__n__.csproj__c__":   "<AssemblyName>__n__</AssemblyName>",
			"docs/raw.md":         "__n__ stays literal without the content marker",
			"README__k__.md__c__": "Use ___k___n__ to name things. Built for __n__.",
			"obsolete__d__.txt":   "gone",
			"build__c____d__.tmp": "__n__",
		},
	})

	target := filepath.Join(t.TempDir(), "my amazing plugin")
	res, err := tpl.Template("plugin", target, "2.4.5", release.TierPro, release.PlatformCore, false)
	require.NoError(t, err)
	assert.Equal(t, "MyAmazingPlugin", res.ResourceName)

	assert.Equal(t, "namespace MyAmazingPlugin { // DarkRift 2.4.5 Pro (.NET Core)\n}", readFile(t, filepath.Join(target, "src", "Plugin1.cs")))
	assert.Equal(t, "<AssemblyName>MyAmazingPlugin</AssemblyName>", readFile(t, filepath.Join(target, "MyAmazingPlugin.csproj")))
	assert.Equal(t, "__n__ stays literal without the content marker", readFile(t, filepath.Join(target, "docs", "raw.md")))
	assert.Equal(t, "Use __n__ to name things. Built for MyAmazingPlugin.", readFile(t, filepath.Join(target, "README.md")))

	assert.NoFileExists(t, filepath.Join(target, "obsolete__d__.txt"))
	assert.NoFileExists(t, filepath.Join(target, "build__d__.tmp"))
	assert.NoFileExists(t, filepath.Join(target, "src", "Plugin1__c__.cs"))

	assert.ElementsMatch(t, []string{"MyAmazingPlugin.csproj", "README.md", "docs/raw.md", "src/Plugin1.cs"}, res.Files)
	assert.Len(t, res.Removed, 2)
}

func TestTemplateRenamesDirectoriesAndPrunesOldOnes(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{
		"listener": {
			"__n__/":                 "",
			"__n__/Listener__c__.cs": "class __n__Listener {}",
			"__n__/logs/keep__d__":   "",
			"scratch__d__/a.txt":     "x",
		},
	})

	target := filepath.Join(t.TempDir(), "net-listener")
	_, err := tpl.Template("listener", target, "2.4.5", release.TierFree, release.PlatformFramework, false)
	require.NoError(t, err)

	assert.Equal(t, "class NetListenerListener {}", readFile(t, filepath.Join(target, "NetListener", "Listener.cs")))
	assert.DirExists(t, filepath.Join(target, "NetListener", "logs"))
	assert.NoDirExists(t, filepath.Join(target, "__n__"))
	assert.NoDirExists(t, filepath.Join(target, "scratch__d__"))
}

func TestTemplateFrameworkFreeDisplayForms(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{
		"info": {"info__c__.txt": "__t__/__p__"},
	})
	target := filepath.Join(t.TempDir(), "x")
	_, err := tpl.Template("info", target, "2.4.5", release.TierFree, release.PlatformFramework, false)
	require.NoError(t, err)
	assert.Equal(t, "Free/Framework", readFile(t, filepath.Join(target, "info.txt")))
}

func TestTemplateNonEmptyTargetWithoutForce(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{"plugin": {"a__c__.txt": "__n__"}})
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "existing.txt"), []byte("mine"), 0o644))

	_, err := tpl.Template("plugin", target, "2.4.5", release.TierFree, release.PlatformFramework, false)
	assert.True(t, errors.Is(err, failure.ErrDirectoryNotEmpty))
	assert.NoFileExists(t, filepath.Join(target, "a.txt"))
	assert.NoFileExists(t, filepath.Join(target, "a__c__.txt"))
}

func TestTemplateNonEmptyTargetSubdirectoryOnly(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{"plugin": {"a.txt": ""}})
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, "sub"), 0o755))

	_, err := tpl.Template("plugin", target, "2.4.5", release.TierFree, release.PlatformFramework, false)
	assert.True(t, failure.IsCode(err, failure.CodeDirectoryNotEmpty))
}

func TestTemplateNonEmptyTargetWithForce(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{"plugin": {"a__c__.txt": "__n__"}})
	target := filepath.Join(t.TempDir(), "forced")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "user__n__.txt"), []byte("__n__"), 0o644))

	_, err := tpl.Template("plugin", target, "2.4.5", release.TierFree, release.PlatformFramework, true)
	require.NoError(t, err)
	assert.Equal(t, "Forced", readFile(t, filepath.Join(target, "a.txt")))
	assert.Equal(t, "__n__", readFile(t, filepath.Join(target, "user__n__.txt")), "files not from the template are untouched")
}

func TestTemplateUnknownTemplate(t *testing.T) {
	tpl := newTemplater(t, nil)
	target := filepath.Join(t.TempDir(), "new")

	for _, name := range []string{"missing", "", "../plugin"} {
		_, err := tpl.Template(name, target, "2.4.5", release.TierFree, release.PlatformFramework, false)
		assert.True(t, errors.Is(err, failure.ErrUnknownTemplate), "template %q", name)
	}
	assert.NoDirExists(t, target)
}

func TestTemplateEmptyCheckPrecedesTemplateLookup(t *testing.T) {
	tpl := newTemplater(t, nil)
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "x"), nil, 0o644))

	_, err := tpl.Template("missing", target, "2.4.5", release.TierFree, release.PlatformFramework, false)
	assert.True(t, failure.IsCode(err, failure.CodeDirectoryNotEmpty))
}

func TestAvailable(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{
		"plugin":           {"a": ""},
		"network-listener": {"a": ""},
	})
	require.NoError(t, os.WriteFile(filepath.Join(tpl.Root(), "notes.txt"), nil, 0o644))

	names, err := tpl.Available()
	require.NoError(t, err)
	assert.Equal(t, []string{"network-listener", "plugin"}, names)

	missing := New(filepath.Join(t.TempDir(), "none"), zerolog.Nop())
	names, err = missing.Available()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCheckWritesNothing(t *testing.T) {
	tpl := newTemplater(t, map[string]map[string]string{"plugin": {"a.txt": "a"}})
	target := filepath.Join(t.TempDir(), "fresh")

	dir, err := tpl.Check("plugin", target, false)
	require.NoError(t, err)
	assert.Equal(t, target, dir)
	assert.NoDirExists(t, target)

	_, err = tpl.Check("missing", target, false)
	assert.True(t, failure.IsCode(err, failure.CodeUnknownTemplate))
}
