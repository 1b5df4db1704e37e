package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (
	// AppDirName is the directory created under each XDG base directory.
	AppDirName = "darkrift"

	// EnvHome relocates every user directory under a single root.
	EnvHome = "DARKRIFT_HOME"
	// EnvTemplates overrides the template archive directory.
	EnvTemplates = "DARKRIFT_TEMPLATES"
	// EnvRepository overrides the distribution base URL.
	EnvRepository = "DARKRIFT_REPOSITORY"
)

// UserPaths are the per-user locations shared by every project.
type UserPaths struct {
	CacheRoot    string
	InstallDir   string
	DocsDir      string
	ConfigDir    string
	ProfileFile  string
	StateDir     string
	LogsDir      string
	TemplatesDir string
}

// ResolveUser computes user directories from DARKRIFT_HOME when set,
// otherwise from the XDG base directories.
func ResolveUser() (UserPaths, error) {
	if home := strings.TrimSpace(os.Getenv(EnvHome)); home != "" {
		abs, err := filepath.Abs(expandHome(home))
		if err != nil {
			return UserPaths{}, fmt.Errorf("resolve %s: %w", EnvHome, err)
		}
		return newUserPaths(
			filepath.Join(abs, "cache"),
			filepath.Join(abs, "config"),
			filepath.Join(abs, "state"),
			templatesDir(filepath.Join(abs, "templates")),
		), nil
	}

	return newUserPaths(
		filepath.Join(xdg.CacheHome, AppDirName),
		filepath.Join(xdg.ConfigHome, AppDirName),
		filepath.Join(xdg.StateHome, AppDirName),
		templatesDir(defaultTemplatesDir()),
	), nil
}

func newUserPaths(cacheRoot, configDir, stateDir, templates string) UserPaths {
	return UserPaths{
		CacheRoot:    cacheRoot,
		InstallDir:   filepath.Join(cacheRoot, "installed"),
		DocsDir:      filepath.Join(cacheRoot, "documentation"),
		ConfigDir:    configDir,
		ProfileFile:  filepath.Join(configDir, "profile.xml"),
		StateDir:     stateDir,
		LogsDir:      filepath.Join(stateDir, "logs"),
		TemplatesDir: templates,
	}
}

func templatesDir(fallback string) string {
	if dir := strings.TrimSpace(os.Getenv(EnvTemplates)); dir != "" {
		return expandHome(dir)
	}
	return fallback
}

// defaultTemplatesDir prefers templates shipped beside the executable and
// falls back to the XDG data directory.
func defaultTemplatesDir() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "templates")
		if ok, _ := DirExists(candidate); ok {
			return candidate
		}
	}
	return filepath.Join(xdg.DataHome, AppDirName, "templates")
}

// EnsureLogsDir creates the logs directory and returns it.
func (u UserPaths) EnsureLogsDir() (string, error) {
	if err := os.MkdirAll(u.LogsDir, 0o755); err != nil {
		return "", fmt.Errorf("create logs dir: %w", err)
	}
	return u.LogsDir, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
