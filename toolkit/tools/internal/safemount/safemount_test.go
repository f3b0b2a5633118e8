// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package safemount

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/saferesource"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestNewMountCreatesTargetAndUnmountsOnce(t *testing.T) {
	executor := testutils.NewFakeExecutor()
	target := filepath.Join(t.TempDir(), "mnt", "boot")

	mount, err := NewMount(context.Background(), executor, "/dev/loop7p1", target)
	if !assert.NoError(t, err) {
		return
	}

	assert.DirExists(t, target)
	assert.Equal(t, "/dev/loop7p1", mount.Source())
	assert.Equal(t, target, mount.Target())

	assert.NoError(t, mount.Close())
	assert.NoError(t, mount.Close())

	assert.Equal(t, []string{
		"mount /dev/loop7p1 " + target,
		"umount " + target,
	}, executor.Lines())
}

func TestNewMountToleratesExistingTarget(t *testing.T) {
	executor := testutils.NewFakeExecutor()
	target := t.TempDir()

	mount, err := NewMount(context.Background(), executor, "/dev/loop7p2", target)
	if !assert.NoError(t, err) {
		return
	}
	defer mount.Close()
}

func TestNewMountFailureNeverUnmounts(t *testing.T) {
	executor := testutils.NewFakeExecutor().FailOn("mount", errors.New("wrong fs type"))
	target := t.TempDir()

	mount, err := NewMount(context.Background(), executor, "/dev/loop7p2", target)

	assert.Nil(t, mount)
	var acquireErr *saferesource.ResourceAcquisitionError
	assert.True(t, errors.As(err, &acquireErr))
	assert.ErrorContains(t, err, "failed to mount (/dev/loop7p2) on ("+target+")")
	assert.Empty(t, executor.LinesOf("umount"))
}

func TestNestedMountsUnmountInReverseOrder(t *testing.T) {
	executor := testutils.NewFakeExecutor()
	root := t.TempDir()

	func() {
		boot, err := NewMount(context.Background(), executor, "/dev/loop7p1", filepath.Join(root, "boot"))
		if !assert.NoError(t, err) {
			return
		}
		defer boot.Close()

		rootfs, err := NewMount(context.Background(), executor, "/dev/loop7p2", filepath.Join(root, "rootfs"))
		if !assert.NoError(t, err) {
			return
		}
		defer rootfs.Close()

		data, err := NewMount(context.Background(), executor, "/dev/loop7p3", filepath.Join(root, "data"))
		if !assert.NoError(t, err) {
			return
		}
		defer data.Close()
	}()

	assert.Equal(t, []string{
		"umount " + filepath.Join(root, "data"),
		"umount " + filepath.Join(root, "rootfs"),
		"umount " + filepath.Join(root, "boot"),
	}, executor.LinesOf("umount"))
}
