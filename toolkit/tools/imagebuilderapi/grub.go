// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
	"path"
	"path/filepath"
)

// Grub configures the GRUB EFI image built by grub-mkimage.
type Grub struct {
	Target       string   `yaml:"target" json:"target,omitempty"`
	Prefix       string   `yaml:"prefix" json:"prefix,omitempty"`
	Modules      []string `yaml:"modules" json:"modules,omitempty"`
	EfiImageName string   `yaml:"efiImageName" json:"efiImageName,omitempty"`
}

func (g *Grub) IsValid() error {
	if g.Target == "" {
		return fmt.Errorf("'target' must not be empty")
	}

	if !path.IsAbs(g.Prefix) {
		return fmt.Errorf("'prefix' (%s) must be an absolute path", g.Prefix)
	}

	if len(g.Modules) == 0 {
		return fmt.Errorf("'modules' must not be empty")
	}

	if g.EfiImageName == "" || filepath.Base(g.EfiImageName) != g.EfiImageName {
		return fmt.Errorf("'efiImageName' (%s) must be a file name", g.EfiImageName)
	}

	return nil
}

// ModulesDir is the directory, inside the boot tree, holding the target's GRUB modules.
func (g *Grub) ModulesDir() string {
	return path.Join("/usr/lib/grub", g.Target)
}
