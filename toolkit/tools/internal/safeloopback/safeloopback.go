// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package safeloopback

import (
	"context"
	"fmt"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/saferesource"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

// Loopback binds a disk image file to a kernel loop device for as long as it is open.
type Loopback struct {
	diskFilePath string
	resource     *saferesource.Resource
}

// NewLoopback attaches diskFilePath to the first free loop device, with partition scanning enabled.
func NewLoopback(ctx context.Context, executor shell.Executor, diskFilePath string) (*Loopback, error) {
	resource, err := saferesource.Acquire(ctx, executor, saferesource.Spec{
		Kind:  "loopback device",
		Setup: shell.NewExecBuilder("losetup", "--partscan", "--show", "--find", diskFilePath).ErrorStderrLines(1),
		Teardown: func(devicePath string) shell.ExecBuilder {
			return shell.NewExecBuilder("losetup", "--detach", devicePath).ErrorStderrLines(1)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach disk (%s) to a loopback device:\n%w", diskFilePath, err)
	}

	return &Loopback{
		diskFilePath: diskFilePath,
		resource:     resource,
	}, nil
}

func (l *Loopback) DevicePath() string {
	return l.resource.ID()
}

func (l *Loopback) DiskFilePath() string {
	return l.diskFilePath
}

// PartitionDevPath returns the device path of the loop device's partition with the given number.
func (l *Loopback) PartitionDevPath(partitionNum int) string {
	return PartitionDevPath(l.DevicePath(), partitionNum)
}

// Close detaches the loop device. Failures (e.g. the device is busy) are logged and returned.
func (l *Loopback) Close() error {
	return l.resource.Close()
}

// PartitionDevPath returns the path of partition number partitionNum on a loop device.
// For example, ("/dev/loop7", 2) is "/dev/loop7p2".
func PartitionDevPath(devicePath string, partitionNum int) string {
	return fmt.Sprintf("%sp%d", devicePath, partitionNum)
}
