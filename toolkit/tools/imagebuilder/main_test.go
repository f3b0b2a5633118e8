// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitStderrLog()
	os.Exit(m.Run())
}

func parseArgs(t *testing.T, args ...string) (*ImageBuilderCmd, error) {
	cli := &ImageBuilderCmd{}
	parser, err := kong.New(cli, kongVars())
	require.NoError(t, err)

	_, err = parser.Parse(args)
	return cli, err
}

func TestParseDefaults(t *testing.T) {
	cli, err := parseArgs(t)
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, "default", cli.Target)
	assert.Equal(t, "Release", cli.Configuration)
	assert.Empty(t, cli.ConfigFile)
	assert.Empty(t, cli.Layout)
	assert.False(t, cli.ListTargets)
}

func TestParseTargetAndFlags(t *testing.T) {
	cli, err := parseArgs(t, "create-image", "--configuration", "Debug", "--layout", "single-image",
		"--log-level", "debug", "--disable-telemetry")
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, "create-image", cli.Target)
	assert.Equal(t, "Debug", cli.Configuration)
	assert.Equal(t, "single-image", cli.Layout)
	assert.Equal(t, "debug", cli.LogLevel)
	assert.True(t, cli.DisableTelemetry)
}

func TestParseRejectsUnknownLayout(t *testing.T) {
	_, err := parseArgs(t, "--layout", "triple-image")
	assert.Error(t, err)
}

func TestLoadConfigLayoutOverride(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("layout: multi-image\n"), 0o644))

	config, err := loadConfig(&ImageBuilderCmd{ConfigFile: configFile, Layout: "single-image"})
	if assert.NoError(t, err) {
		assert.Equal(t, imagebuilderapi.LayoutTypeSingleImage, config.Layout)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(&ImageBuilderCmd{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestRunListTargetsSingleImage(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(context.Background(), &ImageBuilderCmd{ListTargets: true, Layout: "single-image"}, out)
	assert.NoError(t, err)
	assert.Equal(t, `clean
create-image
debug-partitions
default: clean install-keys generate-rootfs create-image prepare-boot-partition prepare-os-partition
export-image
generate-rootfs
install-dependencies
install-keys
prepare-boot-partition
prepare-os-partition
refresh-packages
run-image
`, out.String())
}

func TestRunListTargetsMultiImage(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(context.Background(), &ImageBuilderCmd{ListTargets: true}, out)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "build-boot-artifacts\n")
	assert.Contains(t, out.String(),
		"default: clean install-keys generate-rootfs build-boot-artifacts create-image prepare-boot-partition "+
			"prepare-os-partition\n")
}
