// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package vm boots a raw disk image under QEMU/KVM with UEFI firmware.
package vm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

const (
	DefaultSerial = "stdio"
)

// Command is a single VM invocation booting DiskFile.
type Command struct {
	// Path or name of the QEMU/KVM binary.
	Binary string
	// UEFI firmware image passed as the BIOS.
	Firmware string
	// Raw disk image attached as the boot drive.
	DiskFile string
	// Guest memory in QEMU's size syntax (e.g. "4G").
	Memory string
	// Number of guest CPUs.
	CPUs uint
	// CPU model. Empty uses QEMU's default.
	CPU string
	// Serial device. Empty uses DefaultSerial.
	Serial string
}

func (c *Command) Validate() error {
	switch {
	case c.Binary == "":
		return errors.New("vm binary is not set")
	case c.Firmware == "":
		return errors.New("vm firmware is not set")
	case c.DiskFile == "":
		return errors.New("vm disk file is not set")
	case c.Memory == "":
		return errors.New("vm memory is not set")
	case c.CPUs == 0:
		return errors.New("vm needs at least one cpu")
	}

	return nil
}

// Args compiles the argument list for Binary.
func (c *Command) Args() []string {
	serial := c.Serial
	if serial == "" {
		serial = DefaultSerial
	}

	args := []string{
		"--bios", c.Firmware,
		"-drive", fmt.Sprintf("format=raw,file=%s", escapeOptionValue(c.DiskFile)),
		"-serial", serial,
		"-m", c.Memory,
	}

	if c.CPU != "" {
		args = append(args, "-cpu", c.CPU)
	}

	return append(args, "-smp", strconv.FormatUint(uint64(c.CPUs), 10))
}

// escapeOptionValue doubles commas, which QEMU otherwise reads as option separators.
func escapeOptionValue(value string) string {
	return strings.ReplaceAll(value, ",", ",,")
}

// ExecBuilder returns the invocation. The VM is attached to the terminal so the serial console is usable.
func (c *Command) ExecBuilder() shell.ExecBuilder {
	return shell.NewExecBuilder(c.Binary, c.Args()...).Interactive()
}

// Run boots the VM and blocks until it exits.
func (c *Command) Run(ctx context.Context, executor shell.Executor) error {
	err := c.Validate()
	if err != nil {
		return err
	}

	logger.Log.Infof("Booting (%s) in a VM", c.DiskFile)

	_, err = executor.Execute(ctx, c.ExecBuilder())
	if err != nil {
		return fmt.Errorf("vm exited with an error:\n%w", err)
	}

	return nil
}
