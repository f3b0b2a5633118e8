// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package shell

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	logger.InitStderrLog()
	goleak.VerifyTestMain(m)
}

func TestExecuteCapturesStdout(t *testing.T) {
	stdout, err := NewHostExecutor().Execute(context.Background(), NewExecBuilder("echo", "hello", "world"))
	assert.NoError(t, err)
	assert.Equal(t, "hello world\n", stdout)
}

func TestExecuteStdin(t *testing.T) {
	stdout, err := NewHostExecutor().Execute(context.Background(), NewExecBuilder("cat").Stdin("a\nb\n"))
	assert.NoError(t, err)
	assert.Equal(t, "a\nb\n", stdout)
}

func TestExecuteWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0o644)
	if !assert.NoError(t, err) {
		return
	}

	stdout, err := NewHostExecutor().Execute(context.Background(), NewExecBuilder("ls").WorkingDirectory(dir))
	assert.NoError(t, err)
	assert.Equal(t, "marker\n", stdout)
}

func TestExecuteNonzeroExitKeepsStderrTail(t *testing.T) {
	cmd := NewExecBuilder("sh", "-c", "echo first >&2; echo second >&2; exit 3").
		ErrorStderrLines(1)

	_, err := NewHostExecutor().Execute(context.Background(), cmd)

	var cmdErr *ExternalCommandError
	if !assert.True(t, errors.As(err, &cmdErr)) {
		return
	}
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, []string{"second"}, cmdErr.StderrLines)
	assert.ErrorContains(t, err, "with exit code 3:\nsecond")
}

func TestExecuteOverlongLineFails(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "stdout", script: "head -c 3000000 /dev/zero | tr '\\0' a; echo done"},
		{name: "stderr", script: "head -c 3000000 /dev/zero | tr '\\0' a >&2; echo done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			_, err := NewHostExecutor().Execute(ctx, NewExecBuilder("sh", "-c", tt.script))

			var cmdErr *ExternalCommandError
			if !assert.True(t, errors.As(err, &cmdErr)) {
				return
			}
			assert.ErrorIs(t, err, bufio.ErrTooLong)
			assert.NoError(t, ctx.Err())
		})
	}
}

func TestExecuteMissingBinary(t *testing.T) {
	_, err := NewHostExecutor().Execute(context.Background(), NewExecBuilder("/nonexistent/image-builder-test"))

	var cmdErr *ExternalCommandError
	if !assert.True(t, errors.As(err, &cmdErr)) {
		return
	}
	assert.Equal(t, -1, cmdErr.ExitCode)
	assert.ErrorContains(t, err, "/nonexistent/image-builder-test")
}

func TestExecBuilderStringQuotesArgs(t *testing.T) {
	cmd := NewExecBuilder("mkfs.ext4", "-L", "root os", "/dev/loop0p2").WorkingDirectory("/tmp")
	assert.Equal(t, `(cd /tmp) mkfs.ext4 -L "root os" /dev/loop0p2`, cmd.String())
}

func TestExecBuilderArgsDoesNotAlias(t *testing.T) {
	base := NewExecBuilder("parted", "-s")
	first := base.Args("a")
	second := base.Args("b")

	assert.Equal(t, []string{"-s"}, base.ArgList())
	assert.Equal(t, []string{"-s", "a"}, first.ArgList())
	assert.Equal(t, []string{"-s", "b"}, second.ArgList())
}
