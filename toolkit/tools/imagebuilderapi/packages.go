// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
)

// Packages are the host packages and signing keys the build needs.
type Packages struct {
	Dependencies []string `yaml:"dependencies" json:"dependencies,omitempty"`
	KeyServer    string   `yaml:"keyServer" json:"keyServer,omitempty"`
	Keys         []string `yaml:"keys" json:"keys,omitempty"`
}

func (p *Packages) IsValid() error {
	for i, dependency := range p.Dependencies {
		if strings.TrimSpace(dependency) == "" || strings.HasPrefix(dependency, "-") {
			return fmt.Errorf("invalid 'dependencies' item at index %d (%s)", i, dependency)
		}
	}

	if len(p.Keys) > 0 && p.KeyServer == "" {
		return fmt.Errorf("'keyServer' must be specified when 'keys' are specified")
	}

	if p.KeyServer != "" && !govalidator.IsRequestURL(p.KeyServer) {
		return fmt.Errorf("invalid 'keyServer' value (%s)", p.KeyServer)
	}

	for i, key := range p.Keys {
		if !govalidator.IsHexadecimal(key) {
			return fmt.Errorf("invalid 'keys' item at index %d (%s): must be a hexadecimal key id", i, key)
		}
	}

	return nil
}
