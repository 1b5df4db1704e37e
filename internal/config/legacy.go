package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"darkrift/internal/failure"
	"darkrift/internal/release"
)

// LoadLegacy reads a Project.xml written by older releases of the tool.
// The same found/error contract as Load applies.
func LoadLegacy(path string) (Config, bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}
		return Config{}, true, failure.Wrapf(err, failure.CodeConfiguration, "parse %s", filepath.Base(path))
	}

	root := doc.Root()
	if root == nil || root.Tag != "Project" {
		return Config{}, true, failure.Newf(failure.CodeConfiguration, "parse %s: missing <Project> root element", filepath.Base(path))
	}

	cfg := Default()
	if el := root.SelectElement("LocalPackageDirectory"); el != nil {
		cfg.PackagesDir = strings.TrimSpace(el.Text())
	}

	rtEl := root.SelectElement("Runtime")
	if rtEl == nil {
		return cfg, true, nil
	}

	rt := DefaultRuntime()
	rt.Version = legacyVersion(rtEl.SelectElement("Version"))
	if el := rtEl.SelectElement("Tier"); el != nil {
		tier, err := release.ParseTier(el.Text())
		if err != nil {
			return Config{}, true, failure.Wrapf(err, failure.CodeConfiguration, "parse %s", filepath.Base(path))
		}
		rt.Tier = tier
	}
	if el := rtEl.SelectElement("Platform"); el != nil {
		platform, err := release.ParsePlatform(el.Text())
		if err != nil {
			return Config{}, true, failure.Wrapf(err, failure.CodeConfiguration, "parse %s", filepath.Base(path))
		}
		rt.Platform = platform
	}
	cfg.Runtime = &rt
	return cfg, true, nil
}

// legacyVersion accepts either a text node or the Major/Minor/Build children
// some serializers emitted for version values.
func legacyVersion(el *etree.Element) string {
	if el == nil {
		return ""
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		return text
	}
	var parts []string
	for _, tag := range []string{"Major", "Minor", "Build", "Revision"} {
		child := el.SelectElement(tag)
		if child == nil {
			break
		}
		value := strings.TrimSpace(child.Text())
		if value == "" || value == "-1" {
			break
		}
		parts = append(parts, value)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".")
}

// LoadProject reads darkrift.yaml, falling back to a legacy Project.xml when
// the YAML file is absent.
func LoadProject(yamlPath, legacyPath string) (Config, bool, error) {
	cfg, found, err := Load(yamlPath)
	if err != nil || found {
		return cfg, found, err
	}
	if legacyPath == "" {
		return cfg, false, nil
	}
	legacy, found, err := LoadLegacy(legacyPath)
	if err != nil {
		return Config{}, found, fmt.Errorf("legacy project: %w", err)
	}
	return legacy, found, nil
}
