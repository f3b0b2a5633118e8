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
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

const (
	grubInitialConfigFileName = "grub-initial.cfg"
	// The stage-1 config chains into this file on the root partition.
	grubConfigPath = "/boot/grub/grub.cfg"
)

var kernelFilePatterns = []string{"initrd*", "vmlinuz*"}

var (
	ErrBootArtifactsDir       = NewImageBuilderError("BootArtifacts:Dir", "failed to recreate boot artifacts directory")
	ErrBootArtifactsKernels   = NewImageBuilderError("BootArtifacts:Kernels", "failed to copy kernels and initrds")
	ErrBootArtifactsGrubImage = NewImageBuilderError("BootArtifacts:GrubImage", "failed to build GRUB EFI image")
	ErrBootArtifactsCopyEfi   = NewImageBuilderError("BootArtifacts:CopyEfi", "failed to copy GRUB EFI image")
	ErrBootArtifactsGrubCfg   = NewImageBuilderError("BootArtifacts:GrubConfig", "failed to write GRUB stage-1 config")
)

// buildBootArtifacts extracts the kernels and a GRUB EFI image from the boot tree into the output directory.
func (b *Builder) buildBootArtifacts(ctx context.Context) error {
	paths := &b.config.Paths
	bootRootfsDir := paths.RootfsDir(b.layout.BootImageTree())
	artifactsDir := paths.BootArtifactsDir()

	err := file.RecreateDirectory(artifactsDir)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrBootArtifactsDir, artifactsDir, err)
	}

	_, err = file.CopyGlob(filepath.Join(bootRootfsDir, "boot"), artifactsDir, kernelFilePatterns...)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrBootArtifactsKernels, err)
	}

	efiImagePath, err := b.buildGrubEfiImage(ctx, bootRootfsDir)
	if err != nil {
		return err
	}
	defer removeGrubEfiImage(efiImagePath)

	err = file.Copy(efiImagePath, filepath.Join(artifactsDir, b.config.Grub.EfiImageName))
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrBootArtifactsCopyEfi, err)
	}

	grubInitialConfigPath := filepath.Join(artifactsDir, grubInitialConfigFileName)
	err = file.WriteLines(b.grubInitialConfigLines(), grubInitialConfigPath)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrBootArtifactsGrubCfg, grubInitialConfigPath, err)
	}

	return nil
}

// buildGrubEfiImage runs grub-mkimage inside rootfsDir and returns the host path of the image it wrote.
func (b *Builder) buildGrubEfiImage(ctx context.Context, rootfsDir string) (string, error) {
	grub := &b.config.Grub

	args := []string{
		rootfsDir, "grub-mkimage",
		"-d", grub.ModulesDir(),
		"-o", grub.EfiImageName,
		"-p", grub.Prefix,
		"-O", grub.Target,
	}
	args = append(args, grub.Modules...)

	// chroot starts in "/", so the relative output lands at the root of the tree.
	_, err := b.executor.Execute(ctx, shell.NewExecBuilder("arch-chroot", args...).ErrorStderrLines(3))
	if err != nil {
		return "", fmt.Errorf("%w (rootfs='%s'):\n%w", ErrBootArtifactsGrubImage, rootfsDir, err)
	}

	return filepath.Join(rootfsDir, grub.EfiImageName), nil
}

// removeGrubEfiImage deletes an image built by buildGrubEfiImage so it does not ship inside the tree.
func removeGrubEfiImage(efiImagePath string) {
	err := os.Remove(efiImagePath)
	if err != nil && !os.IsNotExist(err) {
		logger.Log.Warnf("Failed to remove GRUB EFI image (%s): %v", efiImagePath, err)
	}
}

// grubInitialConfigLines finds the root partition by label and hands over to its full GRUB config.
func (b *Builder) grubInitialConfigLines() []string {
	rootfs := b.config.Disk.PartitionByRole(imagebuilderapi.PartitionRoleRootfs)

	return []string{
		fmt.Sprintf("search --label %q --set prefix", rootfs.Label),
		fmt.Sprintf("configfile ($prefix)%s", grubConfigPath),
	}
}
