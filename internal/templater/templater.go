// Package templater expands template archives into new project directories,
// substituting name, version, tier and platform tokens in file paths and
// contents and applying the content and delete directives.
package templater

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"darkrift/internal/archive"
	"darkrift/internal/failure"
	"darkrift/internal/release"
)

const archiveExt = ".zip"

// Templater reads <root>/<name>.zip template archives.
type Templater struct {
	root   string
	logger zerolog.Logger
}

func New(root string, logger zerolog.Logger) *Templater {
	return &Templater{root: root, logger: logger}
}

// Root returns the templates directory.
func (t *Templater) Root() string { return t.root }

// Result describes an expanded template.
type Result struct {
	Dir          string   `json:"dir"`
	ResourceName string   `json:"resource_name"`
	Files        []string `json:"files"`
	Removed      []string `json:"removed,omitempty"`
}

// Available lists template names, sorted.
func (t *Templater) Available() ([]string, error) {
	entries, err := os.ReadDir(t.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), archiveExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	sort.Strings(names)
	return names, nil
}

// ArchivePath is where the archive for name is expected.
func (t *Templater) ArchivePath(name string) string {
	return filepath.Join(t.root, name+archiveExt)
}

// Check verifies that name can be expanded into target without writing
// anything: target must be empty or absent unless force is set
// (CodeDirectoryNotEmpty) and the archive must exist (CodeUnknownTemplate).
// It returns the absolute target directory.
func (t *Templater) Check(name, target string, force bool) (string, error) {
	dir, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve target: %w", err)
	}

	if !force {
		empty, err := isEmptyDir(dir)
		if err != nil {
			return "", err
		}
		if !empty {
			return "", failure.Newf(failure.CodeDirectoryNotEmpty,
				"cannot create from template, %s is not empty", dir).WithDetail("dir", dir)
		}
	}

	if _, err := t.findArchive(name); err != nil {
		return "", err
	}
	return dir, nil
}

// Template expands the named template into target after the checks made by
// Check. Neither check failure writes anything.
func (t *Templater) Template(name, target, version string, tier release.Tier, platform release.Platform, force bool) (Result, error) {
	dir, err := t.Check(name, target, force)
	if err != nil {
		return Result{}, err
	}
	archivePath := t.ArchivePath(name)

	resource := Normalize(filepath.Base(dir))
	values := Values{
		Name:     resource,
		Version:  version,
		Tier:     tier.Display(),
		Platform: platform.Display(),
	}
	t.logger.Info().Str("template", name).Str("dir", dir).Str("resource", resource).Msg("creating from template")

	files, err := archive.ExtractZipFiles(archivePath, dir)
	if err != nil {
		return Result{}, failure.Wrapf(err, failure.CodeArchive, "extract template %s", name)
	}

	res := Result{Dir: dir, ResourceName: resource}
	emptied := make(map[string]struct{})
	for _, rel := range files {
		out, removed, err := t.expandFile(dir, rel, values)
		if err != nil {
			return res, err
		}
		if out != rel || removed {
			markMovedDirs(emptied, rel)
		}
		if removed {
			res.Removed = append(res.Removed, out)
			continue
		}
		res.Files = append(res.Files, out)
	}
	pruneEmptyDirs(dir, emptied)

	sort.Strings(res.Files)
	t.logger.Info().Str("dir", dir).Int("files", len(res.Files)).Msg("template expanded")
	return res, nil
}

func (t *Templater) findArchive(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", failure.Newf(failure.CodeUnknownTemplate, "cannot create from template, no template named %q exists", name).
			WithDetail("template", name)
	}
	archivePath := t.ArchivePath(name)
	info, err := os.Stat(archivePath)
	if err != nil || info.IsDir() {
		return "", failure.Newf(failure.CodeUnknownTemplate, "cannot create from template, no template named %q exists", name).
			WithDetail("template", name)
	}
	return archivePath, nil
}

// expandFile applies substitution to one extracted file. rel is slash
// separated and relative to dir. It returns the file's resolved relative
// path and whether a delete directive removed it after the move.
func (t *Templater) expandFile(dir, rel string, v Values) (string, bool, error) {
	resolved, d := substitute(rel, v, modePath)
	src := filepath.Join(dir, filepath.FromSlash(rel))

	if d.content {
		if err := rewriteContent(src, v); err != nil {
			return "", false, fmt.Errorf("template content of %s: %w", rel, err)
		}
	}

	dst := src
	if resolved != rel {
		if err := validResolvedPath(resolved); err != nil {
			return "", false, failure.Wrapf(err, failure.CodeInvalidInput, "template file %s", rel)
		}
		dst = filepath.Join(dir, filepath.FromSlash(resolved))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", false, fmt.Errorf("prepare %s: %w", resolved, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return "", false, fmt.Errorf("move %s to %s: %w", rel, resolved, err)
		}
		t.logger.Debug().Str("from", rel).Str("to", resolved).Msg("renamed template file")
	}

	if d.remove {
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("delete %s: %w", resolved, err)
		}
		t.logger.Debug().Str("file", resolved).Msg("removed template file")
		return resolved, true, nil
	}
	return resolved, false, nil
}

func rewriteContent(file string, v Values) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	content, _ := substitute(string(data), v, modeContent)
	if content == string(data) {
		return nil
	}
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	return os.WriteFile(file, []byte(content), info.Mode().Perm())
}

// validResolvedPath rejects substitutions that would leave the target directory.
func validResolvedPath(resolved string) error {
	clean := path.Clean(resolved)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return fmt.Errorf("resolves outside the target directory: %q", resolved)
	}
	for _, part := range strings.Split(resolved, "/") {
		if part == "" {
			return fmt.Errorf("resolves to an empty path segment: %q", resolved)
		}
	}
	return nil
}

// markMovedDirs records every ancestor directory of rel whose path carries a
// token, since those are left behind when the file moves.
func markMovedDirs(emptied map[string]struct{}, rel string) {
	for d := path.Dir(rel); d != "." && d != "/"; d = path.Dir(d) {
		if hasToken(d) {
			emptied[d] = struct{}{}
		}
	}
}

// pruneEmptyDirs removes recorded directories that no longer hold anything,
// deepest first. Directories still in use are left alone.
func pruneEmptyDirs(root string, dirs map[string]struct{}) {
	ordered := make([]string, 0, len(dirs))
	for d := range dirs {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return strings.Count(ordered[i], "/") > strings.Count(ordered[j], "/")
	})
	for _, d := range ordered {
		_ = os.Remove(filepath.Join(root, filepath.FromSlash(d)))
	}
}

func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("inspect %s: %w", dir, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", dir, err)
	}
	if !info.IsDir() {
		return false, failure.Newf(failure.CodeInvalidInput, "%s is not a directory", dir)
	}

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", dir, err)
	}
	return false, nil
}
