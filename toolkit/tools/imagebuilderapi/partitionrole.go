// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
)

// PartitionRole is what a partition is used for once the image boots.
type PartitionRole string

const (
	PartitionRoleEsp    PartitionRole = "esp"
	PartitionRoleRootfs PartitionRole = "rootfs"
	PartitionRoleData   PartitionRole = "data"
)

var requiredPartitionRoles = []PartitionRole{
	PartitionRoleEsp,
	PartitionRoleRootfs,
	PartitionRoleData,
}

func (r PartitionRole) IsValid() error {
	switch r {
	case PartitionRoleEsp, PartitionRoleRootfs, PartitionRoleData:
		return nil

	default:
		return fmt.Errorf("invalid partition role (%s)", r)
	}
}
