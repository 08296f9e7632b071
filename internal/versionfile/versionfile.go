// Package versionfile names, writes, and reads the <project>.version artifact.
// The file always holds exactly one line: the version and a newline.
package versionfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is appended to the project name to form the file name.
const Extension = ".version"

// fileMode is the permission set used when the file is created.
const fileMode = 0o644

// ErrMultipleLines is returned by Write when version contains a line break.
var ErrMultipleLines = errors.New("versionfile: version must be a single line")

// ProjectName returns the base name of dir after resolving it to an
// absolute path, so "." names the working directory.
func ProjectName(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("versionfile: resolve %s: %w", dir, err)
	}
	name := filepath.Base(abs)
	if name == string(filepath.Separator) || name == "." {
		return "", fmt.Errorf("versionfile: cannot derive a project name from %s", abs)
	}
	return name, nil
}

// FileName returns "<project>.version".
func FileName(project string) string {
	return project + Extension
}

// Path returns the version file path for project inside dir.
func Path(dir, project string) string {
	return filepath.Join(dir, FileName(project))
}

// Write truncates or creates path and writes version followed by a single
// newline. Any failure is returned wrapped and is meant to be fatal for the
// caller.
func Write(path, version string) error {
	if strings.ContainsAny(version, "\r\n") {
		return ErrMultipleLines
	}
	if err := os.WriteFile(path, []byte(version+"\n"), fileMode); err != nil {
		return fmt.Errorf("versionfile: write %s: %w", path, err)
	}
	return nil
}

// Read returns the version stored at path without its trailing newline.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("versionfile: read %s: %w", path, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
