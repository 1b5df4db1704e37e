// Package archive unpacks zip artifacts, either in place or staged next to
// the destination so the destination only ever holds a complete tree.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractZip unpacks archivePath into dest, creating dest if needed. Entries
// that would escape dest are rejected.
func ExtractZip(archivePath, dest string) error {
	_, err := ExtractZipFiles(archivePath, dest)
	return err
}

// ExtractZipFiles behaves like ExtractZip and also returns the slash-separated
// paths, relative to dest, of every regular file it wrote.
func ExtractZipFiles(archivePath, dest string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", dest, err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dest, err)
	}

	var written []string
	for _, file := range reader.File {
		target, err := entryPath(root, file.Name)
		if err != nil {
			return written, err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirMode(file)); err != nil {
				return written, fmt.Errorf("create dir %s: %w", target, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("prepare file %s: %w", target, err)
		}
		if err := writeEntry(file, target); err != nil {
			return written, err
		}
		rel, _ := filepath.Rel(root, target)
		written = append(written, filepath.ToSlash(rel))
	}
	return written, nil
}

func entryPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("zip entry %q escapes destination", name)
	}
	return target, nil
}

func dirMode(file *zip.File) os.FileMode {
	mode := file.Mode().Perm()
	if mode == 0 {
		return 0o755
	}
	return mode | 0o700
}

func writeEntry(file *zip.File, target string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o200)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("copy file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

// ExtractZipStaged unpacks archivePath into a hidden sibling of dest and only
// then moves it into place. A previous tree at dest is kept until the new
// one is committed and restored if the commit fails, so dest is never
// observable in a partially extracted state.
func ExtractZipStaged(archivePath, dest string) error {
	parent := filepath.Dir(dest)
	base := filepath.Base(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", parent, err)
	}

	stageDir, err := os.MkdirTemp(parent, "."+base+"-staging-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(stageDir)
		}
	}()

	if err := ExtractZip(archivePath, stageDir); err != nil {
		return err
	}
	if err := os.Chmod(stageDir, 0o755); err != nil {
		return fmt.Errorf("chmod staging dir: %w", err)
	}

	var backup string
	if _, err := os.Lstat(dest); err == nil {
		backup = filepath.Join(parent, "."+base+"-previous")
		_ = os.RemoveAll(backup)
		if err := os.Rename(dest, backup); err != nil {
			return fmt.Errorf("move aside %s: %w", dest, err)
		}
	}

	if err := os.Rename(stageDir, dest); err != nil {
		if backup != "" {
			_ = os.Rename(backup, dest)
		}
		return fmt.Errorf("commit %s: %w", dest, err)
	}
	committed = true

	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	return nil
}
