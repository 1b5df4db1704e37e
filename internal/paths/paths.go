package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProjectPaths captures canonical locations for a darkrift project.
type ProjectPaths struct {
	Root             string
	ConfigFile       string
	LegacyConfigFile string
	PackagesDir      string
	MetaDir          string
	TempDir          string
	ServerConfig     string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return NewProjectPaths(root), nil
}

// NewProjectPaths lays out the standard project files under root.
func NewProjectPaths(root string) ProjectPaths {
	metaDir := filepath.Join(root, ".darkrift")
	return ProjectPaths{
		Root:             root,
		ConfigFile:       filepath.Join(root, "darkrift.yaml"),
		LegacyConfigFile: filepath.Join(root, "Project.xml"),
		PackagesDir:      filepath.Join(root, "plugins"),
		MetaDir:          metaDir,
		TempDir:          filepath.Join(metaDir, "temp"),
		ServerConfig:     filepath.Join(root, "Server.config"),
	}
}

// WithPackagesDir points PackagesDir at value, resolved against the root
// when relative. An empty value leaves the default in place.
func (p ProjectPaths) WithPackagesDir(value string) ProjectPaths {
	value = strings.TrimSpace(value)
	if value == "" {
		return p
	}
	p.PackagesDir = resolveProjectPath(p.Root, value)
	return p
}

// ServerConfigBackup is where the server configuration is copied before edits.
func (p ProjectPaths) ServerConfigBackup() string {
	return p.ServerConfig + ".bak"
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// EnsureTempDir creates the hidden staging directory used for package downloads.
func (p ProjectPaths) EnsureTempDir() error {
	if err := os.MkdirAll(p.TempDir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", p.TempDir, err)
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
