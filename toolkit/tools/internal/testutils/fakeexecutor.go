// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package testutils

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
)

type RecordedCommand struct {
	Command     string
	Args        []string
	Dir         string
	Stdin       string
	Interactive bool
}

// Line joins the command and its arguments with spaces. Only meant for assertions.
func (c RecordedCommand) Line() string {
	return strings.Join(append([]string{c.Command}, c.Args...), " ")
}

type commandHandler struct {
	command string
	respond func(cmd RecordedCommand) (string, error)
}

// FakeExecutor records every command instead of running it. Commands succeed with empty output
// unless a handler was registered for them.
type FakeExecutor struct {
	lock     sync.Mutex
	commands []RecordedCommand
	handlers []commandHandler
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{}
}

// On registers a handler for a command name. Later registrations take precedence.
func (f *FakeExecutor) On(command string, respond func(cmd RecordedCommand) (string, error)) *FakeExecutor {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.handlers = append(f.handlers, commandHandler{command: command, respond: respond})
	return f
}

// FailOn makes every invocation of the command fail with err.
func (f *FakeExecutor) FailOn(command string, err error) *FakeExecutor {
	return f.On(command, func(RecordedCommand) (string, error) {
		return "", err
	})
}

// FakeLoopDevice makes "losetup --find" attach to device.
func (f *FakeExecutor) FakeLoopDevice(device string) *FakeExecutor {
	return f.On("losetup", func(cmd RecordedCommand) (string, error) {
		if slices.Contains(cmd.Args, "--find") {
			return device + "\n", nil
		}
		return "", nil
	})
}

func (f *FakeExecutor) Execute(ctx context.Context, b shell.ExecBuilder) (string, error) {
	cmd := RecordedCommand{
		Command:     b.Command(),
		Args:        b.ArgList(),
		Dir:         b.Dir(),
		Stdin:       b.StdinValue(),
		Interactive: b.IsInteractive(),
	}

	f.lock.Lock()
	f.commands = append(f.commands, cmd)
	handlers := slices.Clone(f.handlers)
	f.lock.Unlock()

	for i := len(handlers) - 1; i >= 0; i-- {
		if handlers[i].command == cmd.Command {
			return handlers[i].respond(cmd)
		}
	}

	return "", nil
}

// Commands returns everything executed so far, in order.
func (f *FakeExecutor) Commands() []RecordedCommand {
	f.lock.Lock()
	defer f.lock.Unlock()

	return slices.Clone(f.commands)
}

// Lines returns the command lines executed so far, in order.
func (f *FakeExecutor) Lines() []string {
	lines := []string(nil)
	for _, cmd := range f.Commands() {
		lines = append(lines, cmd.Line())
	}
	return lines
}

// LinesOf returns the executed command lines whose command name is one of commands.
func (f *FakeExecutor) LinesOf(commands ...string) []string {
	lines := []string(nil)
	for _, cmd := range f.Commands() {
		if slices.Contains(commands, cmd.Command) {
			lines = append(lines, cmd.Line())
		}
	}
	return lines
}
