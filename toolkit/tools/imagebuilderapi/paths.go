// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	bootArtifactsDirName = "boot"
	rootfsDirName        = "rootfs"
)

// Paths are resolved relative to the process working directory.
type Paths struct {
	OutputDir    string `yaml:"outputDir" json:"outputDir,omitempty"`
	ScratchDir   string `yaml:"scratchDir" json:"scratchDir,omitempty"`
	ImagesDir    string `yaml:"imagesDir" json:"imagesDir,omitempty"`
	ResourcesDir string `yaml:"resourcesDir" json:"resourcesDir,omitempty"`
	DiskFileName string `yaml:"diskFileName" json:"diskFileName,omitempty"`
}

func (p *Paths) IsValid() error {
	fields := []struct {
		name  string
		value string
	}{
		{"outputDir", p.OutputDir},
		{"scratchDir", p.ScratchDir},
		{"imagesDir", p.ImagesDir},
		{"resourcesDir", p.ResourcesDir},
		{"diskFileName", p.DiskFileName},
	}

	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("'%s' must not be empty", field.name)
		}
	}

	if filepath.Base(p.DiskFileName) != p.DiskFileName || p.DiskFileName == "." || p.DiskFileName == ".." {
		return fmt.Errorf("'diskFileName' (%s) must be a file name, not a path", p.DiskFileName)
	}

	if filepath.Clean(p.ScratchDir) == filepath.Clean(p.OutputDir) {
		return fmt.Errorf("'scratchDir' and 'outputDir' must be different directories")
	}

	return nil
}

func (p *Paths) DiskFilePath() string {
	return filepath.Join(p.OutputDir, p.DiskFileName)
}

// BootArtifactsDir holds the kernels, initrds and GRUB files extracted from the boot tree.
func (p *Paths) BootArtifactsDir() string {
	return filepath.Join(p.OutputDir, bootArtifactsDirName)
}

func (p *Paths) ImageTreeDir(tree string) string {
	return filepath.Join(p.ImagesDir, tree)
}

// RootfsDir is the root filesystem an image tree generates.
func (p *Paths) RootfsDir(tree string) string {
	return filepath.Join(p.ImagesDir, tree, rootfsDirName)
}

func (p *Paths) ResourcePath(name string) string {
	return filepath.Join(p.ResourcesDir, name)
}
