// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/file"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/safeloopback"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/safemount"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

const (
	espBootDir          = "EFI/BOOT"
	espGrubConfigName   = "grub.cfg"
	fstabResourceName   = "fstab"
	grubCfgResourceName = "grub.cfg"
	resourceFilePerm    = 0o644
)

var (
	ErrDiskFileNotFound    = NewImageBuilderError("PreparePartitions:DiskFile", "disk file not found, run create-image first")
	ErrAttachDisk          = NewImageBuilderError("PreparePartitions:Attach", "failed to attach disk")
	ErrMountPartition      = NewImageBuilderError("PreparePartitions:Mount", "failed to mount partition")
	ErrBootArtifactMissing = NewImageBuilderError("PrepareBoot:ArtifactMissing", "boot artifact not found, run build-boot-artifacts first")
	ErrPrepareBootFiles    = NewImageBuilderError("PrepareBoot:Files", "failed to populate boot partition")
	ErrSyncRootfs          = NewImageBuilderError("PrepareOs:SyncRootfs", "failed to copy rootfs to partition")
	ErrCopyKernels         = NewImageBuilderError("PrepareOs:Kernels", "failed to copy kernels to partition")
	ErrCopyResource        = NewImageBuilderError("PrepareOs:Resource", "failed to copy resource to partition")
)

// prepareBootPartition installs the GRUB EFI image and its stage-1 config on the ESP.
func (b *Builder) prepareBootPartition(ctx context.Context) error {
	efiImagePath, grubConfigLines, err := b.bootPartitionSources(ctx)
	if err != nil {
		return err
	}
	if b.layout == imagebuilderapi.LayoutTypeSingleImage {
		// Built inside the OS tree, which prepare-os-partition copies verbatim.
		defer removeGrubEfiImage(efiImagePath)
	}

	loopback, err := b.attachDisk(ctx)
	if err != nil {
		return err
	}
	defer loopback.Close()

	mount, err := b.mountPartition(ctx, loopback, imagebuilderapi.PartitionRoleEsp, b.config.Paths.ScratchDir)
	if err != nil {
		return err
	}
	defer mount.Close()

	bootDir := filepath.Join(mount.Target(), espBootDir)
	err = os.MkdirAll(bootDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrPrepareBootFiles, bootDir, err)
	}

	err = file.Copy(efiImagePath, filepath.Join(bootDir, b.config.Grub.EfiImageName))
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrPrepareBootFiles, err)
	}

	err = file.WriteLines(grubConfigLines, filepath.Join(bootDir, espGrubConfigName))
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrPrepareBootFiles, err)
	}

	return nil
}

// bootPartitionSources returns the GRUB EFI image to install and the stage-1 config lines. The multi-image
// layout takes them from the boot artifacts. The single-image layout builds them from its only tree.
func (b *Builder) bootPartitionSources(ctx context.Context) (string, []string, error) {
	if b.layout == imagebuilderapi.LayoutTypeSingleImage {
		efiImagePath, err := b.buildGrubEfiImage(ctx, b.config.Paths.RootfsDir(b.layout.OSImageTree()))
		if err != nil {
			return "", nil, err
		}
		return efiImagePath, b.grubInitialConfigLines(), nil
	}

	artifactsDir := b.config.Paths.BootArtifactsDir()
	efiImagePath := filepath.Join(artifactsDir, b.config.Grub.EfiImageName)
	grubInitialConfigPath := filepath.Join(artifactsDir, grubInitialConfigFileName)

	for _, path := range []string{efiImagePath, grubInitialConfigPath} {
		exists, err := file.PathExists(path)
		if err != nil {
			return "", nil, fmt.Errorf("%w (path='%s'):\n%w", ErrBootArtifactMissing, path, err)
		}
		if !exists {
			return "", nil, fmt.Errorf("%w (path='%s')", ErrBootArtifactMissing, path)
		}
	}

	grubConfigLines, err := file.ReadLines(grubInitialConfigPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w:\n%w", ErrPrepareBootFiles, err)
	}

	return efiImagePath, grubConfigLines, nil
}

// prepareOsPartition copies the OS tree onto the root partition, then installs fstab and the GRUB config
// from the resources directory.
func (b *Builder) prepareOsPartition(ctx context.Context) error {
	paths := &b.config.Paths
	rootfsDir := paths.RootfsDir(b.layout.OSImageTree())

	exists, err := file.DirExists(rootfsDir)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrImageTreeNotFound, rootfsDir, err)
	}
	if !exists {
		return fmt.Errorf("%w (path='%s')", ErrImageTreeNotFound, rootfsDir)
	}

	loopback, err := b.attachDisk(ctx)
	if err != nil {
		return err
	}
	defer loopback.Close()

	mount, err := b.mountPartition(ctx, loopback, imagebuilderapi.PartitionRoleRootfs, paths.ScratchDir)
	if err != nil {
		return err
	}
	defer mount.Close()

	// The trailing slash copies the tree's contents rather than the directory itself.
	rsync := shell.NewExecBuilder("rsync", "-a", rootfsDir+"/", mount.Target()).ErrorStderrLines(3)
	_, err = b.executor.Execute(ctx, rsync)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrSyncRootfs, err)
	}

	if b.layout == imagebuilderapi.LayoutTypeMultiImage {
		_, err = file.CopyGlob(paths.BootArtifactsDir(), filepath.Join(mount.Target(), "boot"), kernelFilePatterns...)
		if err != nil {
			return fmt.Errorf("%w:\n%w", ErrCopyKernels, err)
		}
	}

	resources := []struct {
		name string
		dst  string
	}{
		{fstabResourceName, "etc/fstab"},
		{grubCfgResourceName, "boot/grub/grub.cfg"},
	}
	for _, resource := range resources {
		err = file.NewFileCopyBuilder(paths.ResourcePath(resource.name), filepath.Join(mount.Target(), resource.dst)).
			SetDirFileMode(os.ModePerm).
			SetFileMode(resourceFilePerm).
			Run()
		if err != nil {
			return fmt.Errorf("%w (name='%s'):\n%w", ErrCopyResource, resource.name, err)
		}
	}

	return nil
}

func (b *Builder) attachDisk(ctx context.Context) (*safeloopback.Loopback, error) {
	diskFilePath := b.config.Paths.DiskFilePath()

	exists, err := file.PathExists(diskFilePath)
	if err != nil {
		return nil, fmt.Errorf("%w (path='%s'):\n%w", ErrDiskFileNotFound, diskFilePath, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w (path='%s')", ErrDiskFileNotFound, diskFilePath)
	}

	loopback, err := safeloopback.NewLoopback(ctx, b.executor, diskFilePath)
	if err != nil {
		return nil, fmt.Errorf("%w:\n%w", ErrAttachDisk, err)
	}

	return loopback, nil
}

func (b *Builder) mountPartition(ctx context.Context, loopback *safeloopback.Loopback,
	role imagebuilderapi.PartitionRole, target string,
) (*safemount.Mount, error) {
	devPath := loopback.PartitionDevPath(b.config.Disk.PartitionNumber(role))

	mount, err := safemount.NewMount(ctx, b.executor, devPath, target)
	if err != nil {
		return nil, fmt.Errorf("%w (role='%s'):\n%w", ErrMountPartition, role, err)
	}

	return mount, nil
}
