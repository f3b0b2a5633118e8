// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDirectoryKeepsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drive.img"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "boot", "grub"), 0o755))

	err := CleanDirectory(dir)
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanDirectoryCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	err := CleanDirectory(dir)
	assert.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestRecreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mnt")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rootfs"), 0o755))

	err := RecreateDirectory(dir)
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grub-initial.cfg")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer\n"), 0o644))

	err := WriteLines([]string{`search --label "rootos" --set prefix`, "configfile ($prefix)/boot/grub/grub.cfg"}, path)
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "search --label \"rootos\" --set prefix\nconfigfile ($prefix)/boot/grub/grub.cfg\n", string(data))
}

func TestReadLinesRoundTripsWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fstab")
	lines := []string{"LABEL=rootos / ext4 defaults 0 1", "", "LABEL=data /data ext4 defaults 0 2"}

	require.NoError(t, WriteLines(lines, path))

	read, err := ReadLines(path)
	assert.NoError(t, err)
	assert.Equal(t, lines, read)
}

func TestCopyKeepsPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bootx64.efi")
	dst := filepath.Join(dir, "EFI", "BOOT", "bootx64.efi")
	require.NoError(t, os.WriteFile(src, []byte("efi"), 0o600))

	err := Copy(src, dst)
	assert.NoError(t, err)

	data, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, "efi", string(data))

	info, err := os.Stat(dst)
	if assert.NoError(t, err) {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestCopyFollowsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "vmlinuz-6.1.0")
	require.NoError(t, os.WriteFile(target, []byte("kernel"), 0o644))
	require.NoError(t, os.Symlink("vmlinuz-6.1.0", filepath.Join(dir, "vmlinuz")))

	dst := filepath.Join(dir, "out", "vmlinuz")
	err := Copy(filepath.Join(dir, "vmlinuz"), dst)
	assert.NoError(t, err)

	info, err := os.Lstat(dst)
	if assert.NoError(t, err) {
		assert.True(t, info.Mode().IsRegular())
	}
}

func TestCopySetFileMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fstab")
	dst := filepath.Join(dir, "etc", "fstab")
	require.NoError(t, os.WriteFile(src, []byte("LABEL=rootos / ext4 defaults 0 1\n"), 0o600))

	err := NewFileCopyBuilder(src, dst).SetFileMode(0o644).Run()
	assert.NoError(t, err)

	info, err := os.Stat(dst)
	if assert.NoError(t, err) {
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	}
}

func TestCopyDirectoryFails(t *testing.T) {
	dir := t.TempDir()

	err := Copy(dir, filepath.Join(dir, "copy"))
	assert.ErrorContains(t, err, "is not a file")
}

func TestCopyGlob(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "boot")
	for _, name := range []string{"initrd.img-6.1.0", "vmlinuz-6.1.0", "config-6.1.0"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(name), 0o644))
	}

	copied, err := CopyGlob(src, dst, "initrd*", "vmlinuz*")
	assert.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dst, "initrd.img-6.1.0"),
		filepath.Join(dst, "vmlinuz-6.1.0"),
	}, copied)
	assert.NoFileExists(t, filepath.Join(dst, "config-6.1.0"))
}

func TestCopyGlobNoMatch(t *testing.T) {
	_, err := CopyGlob(t.TempDir(), t.TempDir(), "vmlinuz*")
	assert.ErrorContains(t, err, "match (vmlinuz*)")
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drive.img")

	exists, err := PathExists(path)
	assert.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(path, nil, 0o644))

	exists, err = PathExists(path)
	assert.NoError(t, err)
	assert.True(t, exists)

	isDir, err := DirExists(path)
	assert.NoError(t, err)
	assert.False(t, isDir)

	isDir, err = DirExists(dir)
	assert.NoError(t, err)
	assert.True(t, isDir)
}
