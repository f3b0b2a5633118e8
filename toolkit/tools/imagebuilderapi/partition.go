// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

const (
	fatVolumeIdLength = 8
)

type Partition struct {
	Role PartitionRole `yaml:"role" json:"role"`
	// Name is the GPT partition name given to parted.
	Name  string   `yaml:"name" json:"name"`
	Label string   `yaml:"label" json:"label"`
	Start DiskSize `yaml:"start" json:"start"`
	// End is exclusive. Unset means the partition runs to the end of the disk.
	End        *DiskSize      `yaml:"end" json:"end,omitempty"`
	FileSystem FileSystemType `yaml:"fileSystem" json:"fileSystem"`
	// Uuid is the ext4 filesystem UUID.
	Uuid string `yaml:"uuid" json:"uuid,omitempty"`
	// VolumeId is the FAT volume id, as 8 hex digits.
	VolumeId string `yaml:"volumeId" json:"volumeId,omitempty"`
	// InodeRatio is the ext4 bytes-per-inode ratio. Zero keeps the mkfs default.
	InodeRatio int `yaml:"inodeRatio" json:"inodeRatio,omitempty"`
}

func (p *Partition) IsValid() error {
	err := p.Role.IsValid()
	if err != nil {
		return err
	}

	if p.Name == "" {
		return fmt.Errorf("'name' must not be empty")
	}

	err = p.FileSystem.IsValid()
	if err != nil {
		return err
	}

	if p.Label == "" {
		return fmt.Errorf("'label' must not be empty")
	}

	if len(p.Label) > p.FileSystem.maxLabelLength() {
		return fmt.Errorf("'label' (%s) is longer than %d characters allowed for %s", p.Label,
			p.FileSystem.maxLabelLength(), p.FileSystem)
	}

	if p.End != nil && *p.End <= p.Start {
		return fmt.Errorf("'end' (%s) must be greater than 'start' (%s)", p.End, p.Start)
	}

	if p.InodeRatio < 0 {
		return fmt.Errorf("'inodeRatio' (%d) must not be negative", p.InodeRatio)
	}

	switch p.FileSystem {
	case FileSystemTypeFat:
		if p.Uuid != "" {
			return fmt.Errorf("'uuid' is not supported for %s, use 'volumeId'", p.FileSystem)
		}

		if p.InodeRatio != 0 {
			return fmt.Errorf("'inodeRatio' is not supported for %s", p.FileSystem)
		}

		if p.VolumeId != "" && (len(p.VolumeId) != fatVolumeIdLength || !govalidator.IsHexadecimal(p.VolumeId)) {
			return fmt.Errorf("'volumeId' (%s) must be %d hexadecimal digits", p.VolumeId, fatVolumeIdLength)
		}

	case FileSystemTypeExt4:
		if p.VolumeId != "" {
			return fmt.Errorf("'volumeId' is not supported for %s, use 'uuid'", p.FileSystem)
		}

		if p.Uuid != "" {
			_, err := uuid.Parse(p.Uuid)
			if err != nil {
				return fmt.Errorf("invalid 'uuid' (%s):\n%w", p.Uuid, err)
			}
		}
	}

	return nil
}
