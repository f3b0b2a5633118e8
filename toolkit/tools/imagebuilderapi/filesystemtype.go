// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
)

type FileSystemType string

const (
	FileSystemTypeFat  FileSystemType = "fat"
	FileSystemTypeExt4 FileSystemType = "ext4"
)

const (
	fatMaxLabelLength  = 11
	ext4MaxLabelLength = 16
)

func (t FileSystemType) IsValid() error {
	switch t {
	case FileSystemTypeFat, FileSystemTypeExt4:
		return nil

	default:
		return fmt.Errorf("invalid fileSystem value (%s)", t)
	}
}

func (t FileSystemType) maxLabelLength() int {
	if t == FileSystemTypeFat {
		return fatMaxLabelLength
	}
	return ext4MaxLabelLength
}
