// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Utility to create, partition and format raw disk images

package diskutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

// Unit to byte conversion values
const (
	B  = 1
	KB = 1000
	MB = 1000 * 1000
	GB = 1000 * 1000 * 1000
	TB = 1000 * 1000 * 1000 * 1000

	KiB = 1024
	MiB = 1024 * 1024
	GiB = 1024 * 1024 * 1024
	TiB = 1024 * 1024 * 1024 * 1024
)

const (
	// AutoEndSize is used as a partition's End value to make it run to the end of the disk.
	AutoEndSize = 0

	PartitionTableTypeGpt = "gpt"

	PartitionFlagEsp = "esp"
)

type FileSystemType string

const (
	FileSystemTypeVfat FileSystemType = "vfat"
	FileSystemTypeExt4 FileSystemType = "ext4"
)

// Partition is one entry of the partition table. Start and End are byte offsets and must be multiples of
// 1 MiB. End is exclusive.
type Partition struct {
	Name  string
	Start uint64
	End   uint64
	Flags []string
}

// FileSystem describes how to format a partition.
type FileSystem struct {
	Type  FileSystemType
	Label string
	// Uuid is the ext4 filesystem UUID. Empty lets mkfs pick one.
	Uuid string
	// VolumeId is the FAT volume id as hex digits. Empty lets mkdosfs pick one.
	VolumeId string
	// InodeRatio is the ext4 bytes-per-inode ratio. Zero keeps the mkfs default.
	InodeRatio int
}

// CreateSparseDisk creates an empty sparse disk file of size MiB, replacing any existing file.
func CreateSparseDisk(diskPath string, size uint64, perm os.FileMode) (err error) {
	file, err := os.OpenFile(diskPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to create empty disk file:\n%w", err)
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close empty disk file:\n%w", closeErr)
		}
	}()

	// Resize the file to the desired size.
	err = file.Truncate(int64(size * MiB))
	if err != nil {
		return fmt.Errorf("failed to set empty disk file's size:\n%w", err)
	}

	return nil
}

// PartitionDisk writes a new GPT partition table holding the partitions, in order, with a single parted
// invocation. Partition numbers are assigned from 1 in the same order.
func PartitionDisk(ctx context.Context, executor shell.Executor, diskPath string, partitions []Partition) error {
	args, err := partedArgs(diskPath, partitions)
	if err != nil {
		return err
	}

	logger.Log.Debugf("Partitioning disk (%s)", diskPath)

	_, err = executor.Execute(ctx, shell.NewExecBuilder("parted", args...).ErrorStderrLines(1))
	if err != nil {
		return fmt.Errorf("failed to partition disk (%s):\n%w", diskPath, err)
	}

	return nil
}

func partedArgs(diskPath string, partitions []Partition) ([]string, error) {
	if len(partitions) == 0 {
		return nil, errors.New("no partitions to create")
	}

	args := []string{"-s", diskPath, "mklabel", PartitionTableTypeGpt}
	flagArgs := []string(nil)

	for i, partition := range partitions {
		if partition.Start%MiB != 0 || partition.End%MiB != 0 {
			return nil, fmt.Errorf("partition %d is not aligned to 1 MiB", i+1)
		}

		if partition.End != AutoEndSize && partition.End <= partition.Start {
			return nil, fmt.Errorf("partition %d ends before it starts", i+1)
		}

		if partition.End == AutoEndSize && i != len(partitions)-1 {
			return nil, fmt.Errorf("only the last partition may run to the end of the disk")
		}

		args = append(args, "mkpart", partition.Name, partedStart(partition.Start), partedEnd(partition.End))

		for _, flag := range partition.Flags {
			flagArgs = append(flagArgs, "set", strconv.Itoa(i+1), flag, "on")
		}
	}

	return append(args, flagArgs...), nil
}

func partedStart(start uint64) string {
	if start == 0 {
		return "0%"
	}
	return partedMiB(start)
}

func partedEnd(end uint64) string {
	if end == AutoEndSize {
		return "100%"
	}
	return partedMiB(end)
}

func partedMiB(offset uint64) string {
	return fmt.Sprintf("%dMiB", offset/MiB)
}

// FormatPartition creates a filesystem on the partition device.
func FormatPartition(ctx context.Context, executor shell.Executor, partDevPath string, fileSystem FileSystem) error {
	mkfs, err := mkfsCommand(partDevPath, fileSystem)
	if err != nil {
		return err
	}

	logger.Log.Debugf("Formatting partition (%s) as %s", partDevPath, fileSystem.Type)

	_, err = executor.Execute(ctx, mkfs)
	if err != nil {
		return fmt.Errorf("failed to format partition (%s) as %s:\n%w", partDevPath, fileSystem.Type, err)
	}

	return nil
}

func mkfsCommand(partDevPath string, fileSystem FileSystem) (shell.ExecBuilder, error) {
	args := []string(nil)

	switch fileSystem.Type {
	case FileSystemTypeVfat:
		if fileSystem.Label != "" {
			args = append(args, "-n", fileSystem.Label)
		}
		if fileSystem.VolumeId != "" {
			args = append(args, "-i", fileSystem.VolumeId)
		}
		args = append(args, partDevPath)
		return shell.NewExecBuilder("mkdosfs", args...).ErrorStderrLines(1), nil

	case FileSystemTypeExt4:
		if fileSystem.InodeRatio != 0 {
			args = append(args, "-i", strconv.Itoa(fileSystem.InodeRatio))
		}
		if fileSystem.Label != "" {
			args = append(args, "-L", fileSystem.Label)
		}
		if fileSystem.Uuid != "" {
			args = append(args, "-U", fileSystem.Uuid)
		}
		args = append(args, partDevPath)
		return shell.NewExecBuilder("mkfs.ext4", args...).ErrorStderrLines(1), nil

	default:
		return shell.ExecBuilder{}, fmt.Errorf("unrecognized filesystem format: %v", fileSystem.Type)
	}
}
