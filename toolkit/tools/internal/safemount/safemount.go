// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package safemount

import (
	"context"
	"fmt"
	"os"

	"github.com/moby/sys/mountinfo"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/saferesource"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

const resourceKind = "mount"

// Mount is a block device mounted on a directory. Once closed, it cannot be mounted again; create a new
// Mount instead.
type Mount struct {
	source   string
	target   string
	resource *saferesource.Resource
}

// NewMount creates target if needed and mounts source on it.
func NewMount(ctx context.Context, executor shell.Executor, source string, target string) (*Mount, error) {
	err := os.MkdirAll(target, os.ModePerm)
	if err != nil {
		return nil, &saferesource.ResourceAcquisitionError{
			Kind:  resourceKind,
			Cause: fmt.Errorf("failed to create mount directory (%s):\n%w", target, err),
		}
	}

	mounted, err := mountinfo.Mounted(target)
	if err != nil {
		return nil, &saferesource.ResourceAcquisitionError{
			Kind:  resourceKind,
			Cause: fmt.Errorf("failed to check whether (%s) is a mountpoint:\n%w", target, err),
		}
	}
	if mounted {
		return nil, &saferesource.ResourceAcquisitionError{
			Kind:  resourceKind,
			Cause: fmt.Errorf("directory (%s) is already a mountpoint", target),
		}
	}

	resource, err := saferesource.Acquire(ctx, executor, saferesource.Spec{
		Kind:  resourceKind,
		Setup: shell.NewExecBuilder("mount", source, target).ErrorStderrLines(1),
		Identify: func(string) (string, error) {
			return target, nil
		},
		Teardown: func(target string) shell.ExecBuilder {
			return shell.NewExecBuilder("umount", target).ErrorStderrLines(1)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mount (%s) on (%s):\n%w", source, target, err)
	}

	return &Mount{
		source:   source,
		target:   target,
		resource: resource,
	}, nil
}

func (m *Mount) Source() string {
	return m.source
}

func (m *Mount) Target() string {
	return m.target
}

// Close unmounts the target. Failures (e.g. the mount is busy) are logged and returned.
func (m *Mount) Close() error {
	return m.resource.Close()
}
