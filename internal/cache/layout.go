package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"darkrift/internal/failure"
)

// validVersion rejects identifiers that would escape their cache directory.
func validVersion(version string) error {
	switch {
	case strings.TrimSpace(version) == "":
		return failure.New(failure.CodeInvalidInput, "version must not be empty")
	case version == "." || version == "..", strings.ContainsAny(version, `/\`):
		return failure.Newf(failure.CodeInvalidInput, "invalid version %q", version)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// versionDirs lists the version directories directly under root, sorted by
// name. Hidden entries hold in-progress extractions and are skipped. A
// missing root is not an error.
func versionDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func joinVersion(root, version string) string {
	return filepath.Join(root, version)
}
