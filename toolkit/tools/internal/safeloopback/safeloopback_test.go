// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package safeloopback

import (
	"context"
	"errors"
	"testing"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/saferesource"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestPartitionDevPath(t *testing.T) {
	assert.Equal(t, "/dev/loop7p2", PartitionDevPath("/dev/loop7", 2))
	assert.Equal(t, "/dev/loop12p1", PartitionDevPath("/dev/loop12", 1))
	assert.Equal(t, PartitionDevPath("/dev/loop7", 2), PartitionDevPath("/dev/loop7", 2))
}

func TestNewLoopbackAttachesAndDetaches(t *testing.T) {
	executor := testutils.NewFakeExecutor().FakeLoopDevice("/dev/loop7")

	loopback, err := NewLoopback(context.Background(), executor, "/work/output/drive.img")
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, "/dev/loop7", loopback.DevicePath())
	assert.Equal(t, "/work/output/drive.img", loopback.DiskFilePath())
	assert.Equal(t, "/dev/loop7p3", loopback.PartitionDevPath(3))

	assert.NoError(t, loopback.Close())
	assert.NoError(t, loopback.Close())

	assert.Equal(t, []string{
		"losetup --partscan --show --find /work/output/drive.img",
		"losetup --detach /dev/loop7",
	}, executor.Lines())
}

func TestNewLoopbackAttachFailure(t *testing.T) {
	executor := testutils.NewFakeExecutor().FailOn("losetup", errors.New("could not find any free loop device"))

	loopback, err := NewLoopback(context.Background(), executor, "drive.img")

	assert.Nil(t, loopback)
	var acquireErr *saferesource.ResourceAcquisitionError
	assert.True(t, errors.As(err, &acquireErr))
	assert.ErrorContains(t, err, "failed to attach disk (drive.img) to a loopback device")
	assert.Len(t, executor.Lines(), 1)
}

func TestNewLoopbackEmptyOutput(t *testing.T) {
	executor := testutils.NewFakeExecutor()

	_, err := NewLoopback(context.Background(), executor, "drive.img")

	var acquireErr *saferesource.ResourceAcquisitionError
	assert.True(t, errors.As(err, &acquireErr))
	assert.Equal(t, []string{"losetup --partscan --show --find drive.img"}, executor.Lines())
}
