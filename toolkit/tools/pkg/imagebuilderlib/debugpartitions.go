// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/file"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/safemount"
)

var (
	ErrDebugScratchDir = NewImageBuilderError("DebugPartitions:ScratchDir", "failed to recreate scratch directory")
	ErrDebugInput      = NewImageBuilderError("DebugPartitions:Input", "failed to read operator input")
)

// Mount points under the scratch directory, in mount order.
var debugMountPoints = []struct {
	name string
	role imagebuilderapi.PartitionRole
}{
	{"boot", imagebuilderapi.PartitionRoleEsp},
	{"rootfs", imagebuilderapi.PartitionRoleRootfs},
	{"data", imagebuilderapi.PartitionRoleData},
}

// debugPartitions mounts every partition under the scratch directory and waits for the operator before
// unmounting them.
func (b *Builder) debugPartitions(ctx context.Context) error {
	scratchDir := b.config.Paths.ScratchDir

	err := file.RecreateDirectory(scratchDir)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrDebugScratchDir, scratchDir, err)
	}

	loopback, err := b.attachDisk(ctx)
	if err != nil {
		return err
	}
	defer loopback.Close()

	mounts := []*safemount.Mount(nil)
	defer func() {
		for i := len(mounts) - 1; i >= 0; i-- {
			mounts[i].Close()
		}
	}()

	for _, mountPoint := range debugMountPoints {
		mount, err := b.mountPartition(ctx, loopback, mountPoint.role, filepath.Join(scratchDir, mountPoint.name))
		if err != nil {
			return err
		}
		mounts = append(mounts, mount)
	}

	logger.Log.Infof("Partitions of (%s) are mounted under (%s)", loopback.DiskFilePath(), scratchDir)
	logger.Log.Info("Press enter to finish...")

	// EOF counts as the operator being done.
	reader := bufio.NewReader(b.input)
	_, err = reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w:\n%w", ErrDebugInput, err)
	}

	return nil
}
