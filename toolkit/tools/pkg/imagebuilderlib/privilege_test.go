// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withEuid(t *testing.T, euid int) {
	original := geteuid
	geteuid = func() int { return euid }
	t.Cleanup(func() { geteuid = original })
}

func TestEnsureRootAsRoot(t *testing.T) {
	withEuid(t, 0)
	assert.NoError(t, EnsureRoot())
}

func TestEnsureRootAsUser(t *testing.T) {
	withEuid(t, 1000)

	err := EnsureRoot()

	var privilegeErr *PrivilegeError
	if assert.True(t, errors.As(err, &privilegeErr)) {
		assert.Equal(t, 1000, privilegeErr.Euid)
	}
	assert.EqualError(t, err, "tool must be run as root (e.g. by using sudo), effective uid is 1000")
}

func TestGetAllImageBuilderErrors(t *testing.T) {
	assert.Empty(t, GetAllImageBuilderErrors(nil))
	assert.Empty(t, GetAllImageBuilderErrors(errors.New("plain")))

	err := fmt.Errorf("%w (path='drive.img'):\n%w", ErrAttachDisk,
		fmt.Errorf("%w (role='rootfs'):\n%w", ErrMountPartition, errors.New("wrong fs type")))

	names := []string(nil)
	for _, builderErr := range GetAllImageBuilderErrors(err) {
		names = append(names, builderErr.Name())
	}
	assert.Equal(t, []string{"PreparePartitions:Attach", "PreparePartitions:Mount"}, names)
	assert.ErrorIs(t, err, ErrMountPartition)
}
