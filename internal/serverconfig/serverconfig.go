// Package serverconfig edits a DarkRift server's own XML configuration file.
package serverconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/beevik/etree"

	"darkrift/internal/failure"
)

// RecursiveFromDirectory is the resolution strategy used for package directories.
const RecursiveFromDirectory = "RecursiveFromDirectory"

const autoComment = "The following was added automatically by the DarkRift CLI tool to enable package management."

// ErrConfigMissing is returned when the server configuration file does not exist.
var ErrConfigMissing = errors.New("server configuration file not found")

// Snippet is the element a user must add by hand when the file cannot be edited.
func Snippet(src string) string {
	return fmt.Sprintf(`<pluginSearchPath src=%q dependencyResolutionStrategy=%q />`, src, RecursiveFromDirectory)
}

// AddPluginSearchPath registers src as a recursive plugin search path in the
// configuration at configPath. The original file is copied to backupPath
// before it is modified. It reports whether the file changed; an existing
// identical entry is left as is.
func AddPluginSearchPath(configPath, backupPath, src string) (bool, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("%w at %s", ErrConfigMissing, configPath)
		}
		return false, fmt.Errorf("read server configuration: %w", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return false, failure.Wrapf(err, failure.CodeConfiguration, "parse %s", configPath)
	}
	root := doc.Root()
	if root == nil {
		return false, failure.Newf(failure.CodeConfiguration, "parse %s: no root element", configPath)
	}

	search := root.SelectElement("pluginSearch")
	if search == nil {
		search = root.CreateElement("pluginSearch")
	}
	for _, el := range search.SelectElements("pluginSearchPath") {
		if el.SelectAttrValue("src", "") == src && el.SelectAttrValue("dependencyResolutionStrategy", "") == RecursiveFromDirectory {
			return false, nil
		}
	}

	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return false, fmt.Errorf("back up server configuration: %w", err)
	}

	search.CreateText("\n    ")
	search.CreateComment(autoComment)
	search.CreateText("\n    ")
	entry := search.CreateElement("pluginSearchPath")
	entry.CreateAttr("src", src)
	entry.CreateAttr("dependencyResolutionStrategy", RecursiveFromDirectory)
	search.CreateText("\n  ")

	if err := doc.WriteToFile(configPath); err != nil {
		return false, fmt.Errorf("write server configuration: %w", err)
	}
	return true, nil
}
