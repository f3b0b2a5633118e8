// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package file

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
)

// PathExists reports whether a file, directory or symlink exists at path.
func PathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DirExists reports whether path is an existing directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// CreateDestinationDir creates the parent directory of dst.
func CreateDestinationDir(dst string, dirFileMode os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), dirFileMode)
}

// CleanDirectory deletes everything inside dir, creating dir if it is missing.
func CleanDirectory(dir string) error {
	logger.Log.Debugf("Cleaning directory (%s)", dir)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, os.ModePerm)
	}
	if err != nil {
		return fmt.Errorf("failed to read directory (%s):\n%w", dir, err)
	}

	for _, entry := range entries {
		err = os.RemoveAll(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to remove (%s):\n%w", entry.Name(), err)
		}
	}

	return nil
}

// RecreateDirectory deletes dir and everything in it, then creates it empty.
func RecreateDirectory(dir string) error {
	err := os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("failed to remove directory (%s):\n%w", dir, err)
	}

	err = os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create directory (%s):\n%w", dir, err)
	}

	return nil
}

// WriteLines writes each line followed by a newline, replacing the file.
func WriteLines(lines []string, path string) (err error) {
	dstFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file (%s):\n%w", path, err)
	}
	defer func() {
		closeErr := dstFile.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file (%s):\n%w", path, closeErr)
		}
	}()

	writer := bufio.NewWriter(dstFile)
	for _, line := range lines {
		_, err = writer.WriteString(line + "\n")
		if err != nil {
			return fmt.Errorf("failed to write file (%s):\n%w", path, err)
		}
	}

	err = writer.Flush()
	if err != nil {
		return fmt.Errorf("failed to write file (%s):\n%w", path, err)
	}

	return nil
}

// ReadLines returns the lines of a file without their line endings.
func ReadLines(path string) (lines []string, err error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file (%s):\n%w", path, err)
	}
	defer handle.Close()

	scanner := bufio.NewScanner(handle)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read file (%s):\n%w", path, err)
	}

	return lines, nil
}

// CopyGlob copies every file in srcDir matching one of the patterns into dstDir, keeping file names.
// Fails when a pattern matches nothing.
func CopyGlob(srcDir string, dstDir string, patterns ...string) ([]string, error) {
	copied := []string(nil)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(srcDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern (%s):\n%w", pattern, err)
		}

		if len(matches) == 0 {
			return nil, fmt.Errorf("no files in (%s) match (%s)", srcDir, pattern)
		}

		sort.Strings(matches)

		for _, match := range matches {
			dst := filepath.Join(dstDir, filepath.Base(match))

			err = Copy(match, dst)
			if err != nil {
				return nil, err
			}

			copied = append(copied, dst)
		}
	}

	return copied, nil
}

// CommandExists reports whether command can be found in PATH.
func CommandExists(command string) (bool, error) {
	_, err := exec.LookPath(command)
	if errors.Is(err, exec.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
