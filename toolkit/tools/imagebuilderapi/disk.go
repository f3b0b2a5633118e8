// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
)

type Disk struct {
	Size       DiskSize    `yaml:"size" json:"size"`
	Partitions []Partition `yaml:"partitions" json:"partitions"`
}

func (d *Disk) IsValid() error {
	if d.Size == 0 {
		return fmt.Errorf("'size' must be specified")
	}

	roles := make(map[PartitionRole]int)
	for i := range d.Partitions {
		partition := &d.Partitions[i]

		err := partition.IsValid()
		if err != nil {
			return fmt.Errorf("invalid partition at index %d:\n%w", i, err)
		}

		if other, found := roles[partition.Role]; found {
			return fmt.Errorf("partitions at index %d and %d both have role (%s)", other, i, partition.Role)
		}
		roles[partition.Role] = i

		if partition.Start >= d.Size {
			return fmt.Errorf("partition at index %d starts (%s) at or beyond the disk size (%s)", i,
				partition.Start, d.Size)
		}

		if partition.End != nil && *partition.End > d.Size {
			return fmt.Errorf("partition at index %d ends (%s) beyond the disk size (%s)", i, partition.End, d.Size)
		}

		if i > 0 {
			previous := &d.Partitions[i-1]
			if previous.End == nil {
				return fmt.Errorf("partition at index %d has no 'end' but is not the last partition", i-1)
			}

			if partition.Start < *previous.End {
				return fmt.Errorf("partition at index %d starts (%s) before partition at index %d ends (%s)", i,
					partition.Start, i-1, previous.End)
			}
		}
	}

	for _, role := range requiredPartitionRoles {
		if _, found := roles[role]; !found {
			return fmt.Errorf("a partition with role (%s) is required", role)
		}
	}

	esp := d.PartitionByRole(PartitionRoleEsp)
	if esp.FileSystem != FileSystemTypeFat {
		return fmt.Errorf("partition with role (%s) must use fileSystem (%s)", PartitionRoleEsp, FileSystemTypeFat)
	}

	rootfs := d.PartitionByRole(PartitionRoleRootfs)
	if rootfs.FileSystem != FileSystemTypeExt4 {
		return fmt.Errorf("partition with role (%s) must use fileSystem (%s)", PartitionRoleRootfs,
			FileSystemTypeExt4)
	}

	return nil
}

// PartitionByRole returns the partition with the role, or nil.
func (d *Disk) PartitionByRole(role PartitionRole) *Partition {
	index := d.PartitionIndex(role)
	if index < 0 {
		return nil
	}
	return &d.Partitions[index]
}

// PartitionIndex returns the 0-based position of the partition with the role, or -1.
// The partition's number on the disk is one more.
func (d *Disk) PartitionIndex(role PartitionRole) int {
	for i := range d.Partitions {
		if d.Partitions[i].Role == role {
			return i
		}
	}
	return -1
}

// PartitionNumber returns the 1-based number of the partition with the role on the disk, or 0.
func (d *Disk) PartitionNumber(role PartitionRole) int {
	return d.PartitionIndex(role) + 1
}
