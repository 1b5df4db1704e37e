package config

import (
	"fmt"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate returns structured findings about the configuration.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	if c.Version > CurrentVersion {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("config version %d is newer than supported version %d", c.Version, CurrentVersion),
		})
	}
	results = append(results, c.validateRuntime()...)
	if strings.ContainsAny(c.PackagesDir, "\x00") {
		results = append(results, ValidationResult{Level: "error", Message: "packages_dir contains an invalid character"})
	}
	return results
}

func (c Config) validateRuntime() []ValidationResult {
	if c.Runtime == nil {
		return []ValidationResult{{
			Level:   "warning",
			Message: "no runtime pinned; the latest free framework release will be used",
		}}
	}
	version := strings.TrimSpace(c.Runtime.Version)
	switch {
	case version == "":
		return []ValidationResult{{Level: "error", Message: "runtime.version is empty"}}
	case strings.EqualFold(version, LatestVersion):
		return []ValidationResult{{
			Level:   "warning",
			Message: "runtime.version is \"latest\"; pin a concrete version for reproducible runs",
		}}
	case strings.ContainsAny(version, `/\`):
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("runtime.version %q must not contain path separators", version)}}
	}
	return nil
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}
