// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package osinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debianOsRelease = `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
NAME="Debian GNU/Linux"
VERSION_ID="12"
VERSION="12 (bookworm)"
VERSION_CODENAME=bookworm
ID=debian
HOME_URL="https://www.debian.org/"
`

func TestReadRootfsOsRelease(t *testing.T) {
	rootfsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(rootfsDir, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rootfsDir, "etc", "os-release"), []byte(debianOsRelease), 0o644))

	osRelease, err := ReadRootfsOsRelease(rootfsDir)
	assert.NoError(t, err)
	assert.Equal(t, OsRelease{
		Id:         "debian",
		Name:       "Debian GNU/Linux",
		Version:    "12 (bookworm)",
		VersionId:  "12",
		PrettyName: "Debian GNU/Linux 12 (bookworm)",
	}, osRelease)
}

func TestReadOsReleaseMissing(t *testing.T) {
	_, err := ReadOsRelease(filepath.Join(t.TempDir(), "os-release"))
	assert.ErrorContains(t, err, "failed to read os-release file")
}

func TestGetDistroAndVersionNeverEmpty(t *testing.T) {
	distro, version := GetDistroAndVersion()
	assert.NotEmpty(t, distro)
	assert.NotEmpty(t, version)
}
