// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
)

// LayoutType selects how the image trees under the images directory are turned into a disk.
type LayoutType string

const (
	LayoutTypeDefault LayoutType = ""

	// LayoutTypeMultiImage builds the bootloader and kernel from a "boot" tree and the root partition from a
	// "runtime" tree.
	LayoutTypeMultiImage LayoutType = "multi-image"

	// LayoutTypeSingleImage builds everything from one "image" tree.
	LayoutTypeSingleImage LayoutType = "single-image"
)

const (
	BootImageTreeName    = "boot"
	RuntimeImageTreeName = "runtime"
	SingleImageTreeName  = "image"
)

func (l LayoutType) IsValid() error {
	switch l {
	case LayoutTypeDefault, LayoutTypeMultiImage, LayoutTypeSingleImage:
		return nil

	default:
		return fmt.Errorf("invalid layout value (%s)", l)
	}
}

// Resolved returns the layout with the default applied.
func (l LayoutType) Resolved() LayoutType {
	if l == LayoutTypeDefault {
		return LayoutTypeMultiImage
	}
	return l
}

// ImageTrees lists the image trees the layout builds, in build order.
func (l LayoutType) ImageTrees() []string {
	if l.Resolved() == LayoutTypeSingleImage {
		return []string{SingleImageTreeName}
	}
	return []string{BootImageTreeName, RuntimeImageTreeName}
}

// BootImageTree is the tree the GRUB EFI image and kernels come from.
func (l LayoutType) BootImageTree() string {
	if l.Resolved() == LayoutTypeSingleImage {
		return SingleImageTreeName
	}
	return BootImageTreeName
}

// OSImageTree is the tree copied onto the root partition.
func (l LayoutType) OSImageTree() string {
	if l.Resolved() == LayoutTypeSingleImage {
		return SingleImageTreeName
	}
	return RuntimeImageTreeName
}
