// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package shell runs external commands described by an ExecBuilder.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxLineLength = 1024 * 1024

	// How long Wait gives a cancelled command before it is killed and its pipes are closed.
	waitDelay = 10 * time.Second
)

// Executor runs external commands. Build steps only ever reach the host through an Executor, which
// lets tests substitute a recorder.
type Executor interface {
	// Execute runs the command to completion and returns its stdout.
	// A nonzero exit status is reported as an *ExternalCommandError.
	Execute(ctx context.Context, cmd ExecBuilder) (string, error)
}

// ExternalCommandError reports a command that could not be started or exited with a nonzero status.
type ExternalCommandError struct {
	CommandLine string
	ExitCode    int
	StderrLines []string
	Cause       error
}

func (e *ExternalCommandError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "command (%s) failed", e.CommandLine)

	if e.ExitCode >= 0 {
		fmt.Fprintf(&builder, " with exit code %d", e.ExitCode)
	} else if e.Cause != nil {
		fmt.Fprintf(&builder, ": %v", e.Cause)
	}

	if len(e.StderrLines) > 0 {
		builder.WriteString(":\n")
		builder.WriteString(strings.Join(e.StderrLines, "\n"))
	}

	return builder.String()
}

func (e *ExternalCommandError) Unwrap() error {
	return e.Cause
}

// HostExecutor runs commands on the host with os/exec.
type HostExecutor struct{}

func NewHostExecutor() *HostExecutor {
	return &HostExecutor{}
}

func (e *HostExecutor) Execute(ctx context.Context, b ExecBuilder) (string, error) {
	logger.Log.Infof("Running: %s", b)

	cmd := exec.CommandContext(ctx, b.command, b.args...)
	cmd.Dir = b.workingDirectory

	if b.interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		err := cmd.Run()
		if err != nil {
			return "", newExternalCommandError(b, err, nil)
		}
		return "", nil
	}

	if b.stdin != "" {
		cmd.Stdin = strings.NewReader(b.stdin)
	}

	cmd.WaitDelay = waitDelay

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", newExternalCommandError(b, err, nil)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", newExternalCommandError(b, err, nil)
	}

	err = cmd.Start()
	if err != nil {
		return "", newExternalCommandError(b, err, nil)
	}

	stdout := strings.Builder{}
	stderrTail := []string(nil)

	group := errgroup.Group{}
	group.Go(func() error {
		return readLines(stdoutPipe, func(line string) {
			stdout.WriteString(line)
			stdout.WriteString("\n")
			logLine(b.stdoutLogLevel, line)
		})
	})
	group.Go(func() error {
		return readLines(stderrPipe, func(line string) {
			stderrTail = appendTail(stderrTail, line, b.errorStderrLines)
			logLine(b.stderrLogLevel, line)
		})
	})

	// The pipes must be drained before Wait closes them.
	readErr := group.Wait()
	waitErr := cmd.Wait()
	if waitErr != nil {
		return stdout.String(), newExternalCommandError(b, waitErr, stderrTail)
	}
	if readErr != nil {
		return stdout.String(), newExternalCommandError(b, readErr, stderrTail)
	}

	return stdout.String(), nil
}

func newExternalCommandError(b ExecBuilder, cause error, stderrLines []string) *ExternalCommandError {
	exitCode := -1

	var exitErr *exec.ExitError
	if errors.As(cause, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &ExternalCommandError{
		CommandLine: b.String(),
		ExitCode:    exitCode,
		StderrLines: stderrLines,
		Cause:       cause,
	}
}

func readLines(reader io.Reader, onLine func(string)) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		onLine(scanner.Text())
	}

	err := scanner.Err()
	if err != nil {
		// Keep the pipe flowing so the child is not left blocked on a write.
		_, _ = io.Copy(io.Discard, reader)
		return err
	}
	return nil
}

func logLine(level logrus.Level, line string) {
	if level == LogDisabledLevel {
		return
	}
	logger.Log.Log(level, line)
}

func appendTail(lines []string, line string, limit int) []string {
	if limit <= 0 {
		return lines
	}

	lines = append(lines, line)
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}
