// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/invopop/jsonschema"
	"github.com/runtimeos/image-builder/toolkit/tools/imagegen/diskutils"
	"gopkg.in/yaml.v3"
)

const (
	// parted is driven in MiB units, so every size and offset must land on a MiB boundary.
	DiskSizeAlignment = diskutils.MiB
)

var (
	diskSizeRegex = regexp.MustCompile(`^(\d+)([KMGT])?$`)
)

type DiskSize uint64

func (s *DiskSize) UnmarshalYAML(value *yaml.Node) error {
	var stringValue string
	err := value.Decode(&stringValue)
	if err != nil {
		return fmt.Errorf("failed to parse disk size:\n%w", err)
	}

	return parseAndSetDiskSize(stringValue, s)
}

func (s DiskSize) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s DiskSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *DiskSize) UnmarshalJSON(data []byte) error {
	var stringValue string
	err := json.Unmarshal(data, &stringValue)
	if err != nil {
		return fmt.Errorf("failed to parse disk size:\n%w", err)
	}

	return parseAndSetDiskSize(stringValue, s)
}

func (DiskSize) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:    "string",
		Pattern: `^\d+[KMGT]$`,
	}
}

func parseAndSetDiskSize(stringValue string, s *DiskSize) error {
	diskSize, err := ParseDiskSize(stringValue)
	if err != nil {
		return fmt.Errorf("%w:\nexpected format: <NUM>(K|M|G|T) (e.g. 500M, 11G)", err)
	}

	*s = diskSize
	return nil
}

// ParseDiskSize parses sizes such as "500M" or "11G". A unit suffix is required.
func ParseDiskSize(diskSizeString string) (DiskSize, error) {
	match := diskSizeRegex.FindStringSubmatch(diskSizeString)
	if match == nil {
		return 0, fmt.Errorf("(%s) has incorrect format", diskSizeString)
	}

	num, err := strconv.ParseUint(match[1], 10, 64)
	if err != nil {
		return 0, err
	}

	multiplier := uint64(1)
	switch match[2] {
	case "K":
		multiplier = diskutils.KiB
	case "M":
		multiplier = diskutils.MiB
	case "G":
		multiplier = diskutils.GiB
	case "T":
		multiplier = diskutils.TiB
	default:
		return 0, fmt.Errorf("(%s) must have a unit suffix (K, M, G, or T)", diskSizeString)
	}

	num *= multiplier

	if num%DiskSizeAlignment != 0 {
		return 0, fmt.Errorf("(%s) must be a multiple of %s", diskSizeString,
			DiskSize(DiskSizeAlignment).HumanReadable())
	}

	return DiskSize(num), nil
}

func (s DiskSize) MiB() uint64 {
	return uint64(s) / diskutils.MiB
}

func (s DiskSize) HumanReadable() string {
	switch {
	case s%diskutils.TiB == 0 && s != 0:
		return fmt.Sprintf("%d TiB", s/diskutils.TiB)

	case s%diskutils.GiB == 0 && s != 0:
		return fmt.Sprintf("%d GiB", s/diskutils.GiB)

	case s%diskutils.MiB == 0:
		return fmt.Sprintf("%d MiB", s/diskutils.MiB)

	case s%diskutils.KiB == 0:
		return fmt.Sprintf("%d KiB", s/diskutils.KiB)

	default:
		return fmt.Sprintf("%d bytes", s)
	}
}

// String returns the size in the same format ParseDiskSize accepts.
func (s DiskSize) String() string {
	switch {
	case s%diskutils.TiB == 0 && s != 0:
		return fmt.Sprintf("%dT", s/diskutils.TiB)
	case s%diskutils.GiB == 0 && s != 0:
		return fmt.Sprintf("%dG", s/diskutils.GiB)
	case s%diskutils.MiB == 0:
		return fmt.Sprintf("%dM", s/diskutils.MiB)
	case s%diskutils.KiB == 0:
		return fmt.Sprintf("%dK", s/diskutils.KiB)
	default:
		return fmt.Sprintf("%d", s)
	}
}
