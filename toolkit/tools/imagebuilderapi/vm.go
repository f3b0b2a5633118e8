// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
	"regexp"
)

var (
	vmMemoryRegex = regexp.MustCompile(`^\d+[KMGT]?$`)
)

// Vm configures the virtual machine run-image boots the disk in.
type Vm struct {
	Binary   string `yaml:"binary" json:"binary,omitempty"`
	Firmware string `yaml:"firmware" json:"firmware,omitempty"`
	Memory   string `yaml:"memory" json:"memory,omitempty"`
	Cpus     int    `yaml:"cpus" json:"cpus,omitempty"`
	Cpu      string `yaml:"cpu" json:"cpu,omitempty"`
}

func (v *Vm) IsValid() error {
	if v.Binary == "" {
		return fmt.Errorf("'binary' must not be empty")
	}

	if v.Firmware == "" {
		return fmt.Errorf("'firmware' must not be empty")
	}

	if !vmMemoryRegex.MatchString(v.Memory) {
		return fmt.Errorf("invalid 'memory' value (%s): expected format <NUM>(K|M|G|T)", v.Memory)
	}

	if v.Cpus < 1 {
		return fmt.Errorf("'cpus' (%d) must be at least 1", v.Cpus)
	}

	if v.Cpu == "" {
		return fmt.Errorf("'cpu' must not be empty")
	}

	return nil
}
