// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package exekong

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
)

type testCmd struct {
	LogFlags
}

func TestLogFlagsParse(t *testing.T) {
	cli := &testCmd{}
	parser, err := kong.New(cli, KongVars)
	if !assert.NoError(t, err) {
		return
	}

	_, err = parser.Parse([]string{"--log-level", "debug", "--log-color", "never", "--log-file", "/tmp/build.log"})
	assert.NoError(t, err)

	flags := cli.AsLoggerFlags()
	assert.Equal(t, "debug", *flags.LogLevel)
	assert.Equal(t, "never", *flags.LogColor)
	assert.Equal(t, "/tmp/build.log", *flags.LogFile)
}

func TestLogFlagsDefaultsEmpty(t *testing.T) {
	cli := &testCmd{}
	parser, err := kong.New(cli, KongVars)
	if !assert.NoError(t, err) {
		return
	}

	_, err = parser.Parse(nil)
	assert.NoError(t, err)
	assert.Empty(t, cli.LogLevel)
	assert.Empty(t, cli.LogColor)
}

func TestLogFlagsRejectsUnknownLevel(t *testing.T) {
	cli := &testCmd{}
	parser, err := kong.New(cli, KongVars)
	if !assert.NoError(t, err) {
		return
	}

	_, err = parser.Parse([]string{"--log-level", "verbose"})
	assert.Error(t, err)
}
