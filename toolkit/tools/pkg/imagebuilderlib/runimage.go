// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"context"
	"fmt"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/file"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/vm"
)

var ErrRunImage = NewImageBuilderError("RunImage:Vm", "failed to run image in VM")

// runImage boots the disk image in a VM attached to the terminal.
func (b *Builder) runImage(ctx context.Context) error {
	diskFilePath := b.config.Paths.DiskFilePath()

	exists, err := file.PathExists(diskFilePath)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrDiskFileNotFound, diskFilePath, err)
	}
	if !exists {
		return fmt.Errorf("%w (path='%s')", ErrDiskFileNotFound, diskFilePath)
	}

	command := vm.Command{
		Binary:   b.config.Vm.Binary,
		Firmware: b.config.Vm.Firmware,
		DiskFile: diskFilePath,
		Memory:   b.config.Vm.Memory,
		CPUs:     uint(b.config.Vm.Cpus),
		CPU:      b.config.Vm.Cpu,
	}

	err = command.Run(ctx, b.executor)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrRunImage, err)
	}

	return nil
}
