// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"fmt"

	"golang.org/x/sys/unix"
)

var geteuid = unix.Geteuid

type PrivilegeError struct {
	Euid int
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("tool must be run as root (e.g. by using sudo), effective uid is %d", e.Euid)
}

// EnsureRoot fails unless the process runs with an effective uid of 0.
func EnsureRoot() error {
	euid := geteuid()
	if euid != 0 {
		return &PrivilegeError{Euid: euid}
	}

	return nil
}
