package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"darkrift/internal/archive/archivetest"
	"darkrift/internal/cache"
	"darkrift/internal/invoice"
	"darkrift/internal/paths"
)

type runCall struct {
	name string
	args []string
	dir  string
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []runCall
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, opts cache.RunOptions) (cache.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runCall{name: name, args: append([]string(nil), args...), dir: opts.Dir})
	return cache.RunResult{ExitCode: cache.ExitCode(f.err)}, f.err
}

// harness isolates user directories and serves a fake distribution point.
type harness struct {
	home      string
	project   string
	templates string
	latest    string
	runner    *fakeRunner
	server    *httptest.Server

	mu       sync.Mutex
	requests []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		home:    t.TempDir(),
		project: t.TempDir(),
		latest:  "2.10.1",
		runner:  &fakeRunner{},
	}
	h.templates = filepath.Join(h.home, "templates")
	require.NoError(t, os.MkdirAll(h.templates, 0o755))

	runtimeZip := archivetest.ZipBytes(t, map[string]string{
		"DarkRift.Server.Console.exe":     "exe",
		"Lib/DarkRift.Server.Console.dll": "dll",
	})
	docsZip := archivetest.ZipBytes(t, map[string]string{"index.html": "<html></html>"})
	packageZip := archivetest.ZipBytes(t, map[string]string{"MyPlugin.dll": "plugin"})

	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.requests = append(h.requests, r.URL.RequestURI())
		h.mu.Unlock()

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case r.URL.Path == "/releases/":
			if h.latest == "" {
				http.Error(w, "down", http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"latest": h.latest})
		case r.URL.Path == "/packages/plugin.zip":
			_, _ = w.Write(packageZip)
		case len(parts) == 3 && parts[2] == "docs":
			_, _ = w.Write(docsZip)
		case len(parts) == 4 && parts[0] == "releases":
			if parts[2] == "pro" && r.URL.Query().Get("invoice") == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			_, _ = w.Write(runtimeZip)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.server.Close)

	t.Setenv(paths.EnvHome, h.home)
	t.Setenv(paths.EnvTemplates, h.templates)
	t.Setenv(paths.EnvRepository, h.server.URL)

	prevRunner, prevPrompter := newRunner, newPrompter
	newRunner = func() cache.Runner { return h.runner }
	newPrompter = func() invoice.Prompter { return invoice.NonInteractive{} }
	t.Cleanup(func() {
		newRunner, newPrompter = prevRunner, prevPrompter
	})
	return h
}

// run executes the root command against the harness project.
func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--project", h.project}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// count returns how many requests started with prefix.
func (h *harness) count(prefix string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (h *harness) requestLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.requests...)
}

// downloads counts archive requests (everything except the metadata query).
func (h *harness) downloads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.requests {
		if r != "/releases/" {
			n++
		}
	}
	return n
}

func (h *harness) installPath(parts ...string) string {
	return filepath.Join(append([]string{h.home, "cache", "installed"}, parts...)...)
}

func (h *harness) writeTemplate(t *testing.T, name string, files map[string]string) {
	t.Helper()
	archivetest.WriteZip(t, filepath.Join(h.templates, name+".zip"), files)
}

func (h *harness) writeProjectFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(h.project, name), []byte(content), 0o644))
}
