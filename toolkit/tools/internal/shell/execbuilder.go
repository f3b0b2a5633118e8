// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package shell

import (
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// LogDisabledLevel suppresses logging of a stream.
	LogDisabledLevel logrus.Level = logrus.PanicLevel

	// DefaultErrorStderrLines is how many trailing stderr lines are attached to a failed command's error.
	DefaultErrorStderrLines = 5
)

// ExecBuilder describes a single external command invocation. Arguments are kept as a list and are
// handed to the process untouched; nothing is ever parsed by a shell.
type ExecBuilder struct {
	command          string
	args             []string
	workingDirectory string
	stdin            string
	stdoutLogLevel   logrus.Level
	stderrLogLevel   logrus.Level
	errorStderrLines int
	interactive      bool
}

func NewExecBuilder(command string, args ...string) ExecBuilder {
	return ExecBuilder{
		command:          command,
		args:             slices.Clone(args),
		stdoutLogLevel:   logrus.DebugLevel,
		stderrLogLevel:   logrus.DebugLevel,
		errorStderrLines: DefaultErrorStderrLines,
	}
}

// Args appends more arguments.
func (b ExecBuilder) Args(args ...string) ExecBuilder {
	b.args = append(slices.Clone(b.args), args...)
	return b
}

func (b ExecBuilder) WorkingDirectory(dir string) ExecBuilder {
	b.workingDirectory = dir
	return b
}

func (b ExecBuilder) Stdin(stdin string) ExecBuilder {
	b.stdin = stdin
	return b
}

// LogLevel sets the levels the stdout and stderr lines are logged at.
func (b ExecBuilder) LogLevel(stdoutLogLevel logrus.Level, stderrLogLevel logrus.Level) ExecBuilder {
	b.stdoutLogLevel = stdoutLogLevel
	b.stderrLogLevel = stderrLogLevel
	return b
}

// ErrorStderrLines sets how many of the last stderr lines are included in the returned error.
func (b ExecBuilder) ErrorStderrLines(lines int) ExecBuilder {
	b.errorStderrLines = lines
	return b
}

// Interactive connects the process directly to this process's stdin, stdout and stderr.
// Output is neither logged nor captured.
func (b ExecBuilder) Interactive() ExecBuilder {
	b.interactive = true
	return b
}

func (b ExecBuilder) Command() string {
	return b.command
}

func (b ExecBuilder) ArgList() []string {
	return slices.Clone(b.args)
}

func (b ExecBuilder) Dir() string {
	return b.workingDirectory
}

func (b ExecBuilder) StdinValue() string {
	return b.stdin
}

func (b ExecBuilder) IsInteractive() bool {
	return b.interactive
}

// String renders the command line for logs. It is never executed.
func (b ExecBuilder) String() string {
	parts := make([]string, 0, len(b.args)+1)
	parts = append(parts, quoteArg(b.command))
	for _, arg := range b.args {
		parts = append(parts, quoteArg(arg))
	}

	line := strings.Join(parts, " ")
	if b.workingDirectory != "" {
		line = "(cd " + quoteArg(b.workingDirectory) + ") " + line
	}
	return line
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n\"'\\$`|&;<>(){}*?[]#~") {
		return strconv.Quote(arg)
	}
	return arg
}
