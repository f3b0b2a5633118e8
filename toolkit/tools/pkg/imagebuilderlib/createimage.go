// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/imagegen/diskutils"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/safeloopback"
)

const (
	diskFilePerm = 0o644
)

var (
	ErrCreateDiskFile  = NewImageBuilderError("CreateImage:DiskFile", "failed to create disk file")
	ErrPartitionDisk   = NewImageBuilderError("CreateImage:Partition", "failed to partition disk")
	ErrAttachNewDisk   = NewImageBuilderError("CreateImage:Attach", "failed to attach new disk")
	ErrFormatPartition = NewImageBuilderError("CreateImage:Format", "failed to format partition")
)

// createImage writes a new sparse disk file, partitions it and formats every partition.
func (b *Builder) createImage(ctx context.Context) error {
	disk := &b.config.Disk
	diskFilePath := b.config.Paths.DiskFilePath()

	logger.Log.Infof("Creating disk (%s) of size %s", diskFilePath, disk.Size.HumanReadable())

	err := os.MkdirAll(filepath.Dir(diskFilePath), os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrCreateDiskFile, diskFilePath, err)
	}

	err = diskutils.CreateSparseDisk(diskFilePath, disk.Size.MiB(), diskFilePerm)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrCreateDiskFile, diskFilePath, err)
	}

	err = diskutils.PartitionDisk(ctx, b.executor, diskFilePath, diskPartitions(disk))
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrPartitionDisk, err)
	}

	loopback, err := safeloopback.NewLoopback(ctx, b.executor, diskFilePath)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrAttachNewDisk, diskFilePath, err)
	}
	defer loopback.Close()

	for i := range disk.Partitions {
		partition := &disk.Partitions[i]
		devPath := loopback.PartitionDevPath(i + 1)

		err = diskutils.FormatPartition(ctx, b.executor, devPath, partitionFileSystem(partition))
		if err != nil {
			return fmt.Errorf("%w (role='%s'):\n%w", ErrFormatPartition, partition.Role, err)
		}
	}

	return nil
}

func diskPartitions(disk *imagebuilderapi.Disk) []diskutils.Partition {
	partitions := make([]diskutils.Partition, 0, len(disk.Partitions))
	for _, partition := range disk.Partitions {
		end := uint64(diskutils.AutoEndSize)
		if partition.End != nil {
			end = uint64(*partition.End)
		}

		flags := []string(nil)
		if partition.Role == imagebuilderapi.PartitionRoleEsp {
			flags = append(flags, diskutils.PartitionFlagEsp)
		}

		partitions = append(partitions, diskutils.Partition{
			Name:  partition.Name,
			Start: uint64(partition.Start),
			End:   end,
			Flags: flags,
		})
	}
	return partitions
}

func partitionFileSystem(partition *imagebuilderapi.Partition) diskutils.FileSystem {
	fileSystemType := diskutils.FileSystemTypeExt4
	if partition.FileSystem == imagebuilderapi.FileSystemTypeFat {
		fileSystemType = diskutils.FileSystemTypeVfat
	}

	return diskutils.FileSystem{
		Type:       fileSystemType,
		Label:      partition.Label,
		Uuid:       partition.Uuid,
		VolumeId:   partition.VolumeId,
		InodeRatio: partition.InodeRatio,
	}
}
