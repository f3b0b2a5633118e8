// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package osinfo

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const (
	HostOsReleasePath = "/etc/os-release"

	unknownDistro  = "Unknown Distro"
	unknownVersion = "Unknown Version"
)

// OsRelease holds the os-release fields the build reports.
type OsRelease struct {
	Id         string
	Name       string
	Version    string
	VersionId  string
	PrettyName string
}

// ReadOsRelease parses an os-release file.
func ReadOsRelease(path string) (OsRelease, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return OsRelease{}, fmt.Errorf("failed to read os-release file (%s):\n%w", path, err)
	}

	section := cfg.Section(ini.DefaultSection)
	return OsRelease{
		Id:         section.Key("ID").String(),
		Name:       section.Key("NAME").String(),
		Version:    section.Key("VERSION").String(),
		VersionId:  section.Key("VERSION_ID").String(),
		PrettyName: section.Key("PRETTY_NAME").String(),
	}, nil
}

// ReadRootfsOsRelease parses the os-release file of a root filesystem tree.
func ReadRootfsOsRelease(rootfsDir string) (OsRelease, error) {
	return ReadOsRelease(filepath.Join(rootfsDir, HostOsReleasePath))
}

// GetDistroAndVersion returns the host's distribution name and version, or placeholders when unknown.
func GetDistroAndVersion() (string, string) {
	osRelease, err := ReadOsRelease(HostOsReleasePath)
	if err != nil {
		return unknownDistro, unknownVersion
	}

	distro := osRelease.Name
	if distro == "" {
		distro = unknownDistro
	}

	version := osRelease.Version
	if version == "" {
		version = osRelease.VersionId
	}
	if version == "" {
		version = unknownVersion
	}

	return distro, version
}
