// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"context"
	"fmt"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/file"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/osinfo"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
	"github.com/sirupsen/logrus"
)

const (
	aptToolBinary = "apt-tool"
)

var (
	ErrInstallDependencies = NewImageBuilderError("Packages:InstallDependencies", "failed to install host dependencies")
	ErrInstallKeys         = NewImageBuilderError("Packages:InstallKeys", "failed to install package signing keys")
	ErrImageTreeNotFound   = NewImageBuilderError("Packages:ImageTreeNotFound", "image tree directory not found")
	ErrRefreshPackages     = NewImageBuilderError("Packages:Refresh", "failed to refresh image tree packages")
	ErrGenerateRootfs      = NewImageBuilderError("Packages:GenerateRootfs", "failed to generate rootfs")
)

func (b *Builder) installDependencies(ctx context.Context) error {
	dependencies := b.config.Packages.Dependencies
	if len(dependencies) == 0 {
		logger.Log.Infof("No host dependencies to install")
		return nil
	}

	args := append([]string{"install", "-y"}, dependencies...)
	_, err := b.executor.Execute(ctx, shell.NewExecBuilder("apt-get", args...).LogLevel(logrus.InfoLevel, logrus.WarnLevel))
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrInstallDependencies, err)
	}

	return nil
}

func (b *Builder) installKeys(ctx context.Context) error {
	packages := b.config.Packages
	if len(packages.Keys) == 0 {
		logger.Log.Infof("No package signing keys to install")
		return nil
	}

	args := append([]string{"adv", "--keyserver", packages.KeyServer, "--recv-keys"}, packages.Keys...)
	_, err := b.executor.Execute(ctx, shell.NewExecBuilder("apt-key", args...).ErrorStderrLines(1))
	if err != nil {
		return fmt.Errorf("%w (keyserver='%s'):\n%w", ErrInstallKeys, packages.KeyServer, err)
	}

	return nil
}

func (b *Builder) refreshPackages(ctx context.Context) error {
	for _, tree := range b.layout.ImageTrees() {
		err := b.runAptTool(ctx, tree, "install")
		if err != nil {
			return fmt.Errorf("%w (tree='%s'):\n%w", ErrRefreshPackages, tree, err)
		}
	}

	return nil
}

func (b *Builder) generateRootfs(ctx context.Context) error {
	for _, tree := range b.layout.ImageTrees() {
		err := b.runAptTool(ctx, tree, "generate-rootfs", "--overwrite", "--run-stage2")
		if err != nil {
			return fmt.Errorf("%w (tree='%s'):\n%w", ErrGenerateRootfs, tree, err)
		}

		rootfsDir := b.config.Paths.RootfsDir(tree)
		osRelease, err := osinfo.ReadRootfsOsRelease(rootfsDir)
		if err != nil {
			logger.Log.Warnf("Generated rootfs (%s) has no readable os-release: %v", rootfsDir, err)
			continue
		}

		logger.Log.Infof("Generated rootfs (%s): %s %s", rootfsDir, osRelease.Name, osRelease.Version)
	}

	return nil
}

func (b *Builder) runAptTool(ctx context.Context, tree string, args ...string) error {
	treeDir := b.config.Paths.ImageTreeDir(tree)

	exists, err := file.DirExists(treeDir)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w (path='%s')", ErrImageTreeNotFound, treeDir)
	}

	_, err = b.executor.Execute(ctx,
		shell.NewExecBuilder(aptToolBinary, args...).
			WorkingDirectory(treeDir).
			LogLevel(logrus.InfoLevel, logrus.WarnLevel))
	return err
}
