// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Tool to build bootable disk images from generated image trees

package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/exekong"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/targetgraph"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/telemetry"
	"github.com/runtimeos/image-builder/toolkit/tools/pkg/imagebuilderlib"
)

type ImageBuilderCmd struct {
	Target           string           `arg:"" optional:"" name:"target" help:"Build target to run." default:"default"`
	ConfigFile       string           `name:"config-file" help:"Path of the image builder config file. Built-in defaults are used when unset."`
	Configuration    string           `name:"configuration" help:"Build configuration, recorded in the logs and telemetry." default:"Release"`
	Layout           string           `name:"layout" placeholder:"(multi-image|single-image)" help:"Overrides the layout of the config file." enum:"${layouts}" default:""`
	ListTargets      bool             `name:"list-targets" help:"Print the available targets and their prerequisites, then exit."`
	DisableTelemetry bool             `name:"disable-telemetry" help:"Disable telemetry collection of the tool." env:"IMAGEBUILDER_DISABLE_TELEMETRY"`
	Version          kong.VersionFlag `name:"version" help:"Print the tool version and exit."`
	exekong.LogFlags
}

func main() {
	ctx := context.Background()

	cli := &ImageBuilderCmd{}

	_ = kong.Parse(cli,
		kongVars(),
		kong.Description("Builds a bootable disk image"),
		kong.HelpOptions{
			Compact:   true,
			FlagsLast: true,
		},
		kong.UsageOnError())

	cli.LogFlags.InitLogging()

	err := run(ctx, cli, os.Stdout)
	if err != nil {
		logger.Log.Errorf("image build failed:\n%v", err)
		logger.CloseFile()
		os.Exit(1)
	}

	logger.CloseFile()
}

func kongVars() kong.Vars {
	vars := kong.Vars{
		"layouts": strings.Join([]string{
			string(imagebuilderapi.LayoutTypeMultiImage),
			string(imagebuilderapi.LayoutTypeSingleImage),
		}, ",") + ",",
		"version": imagebuilderlib.ToolVersion,
	}
	maps.Copy(vars, exekong.KongVars)
	return vars
}

func run(ctx context.Context, cli *ImageBuilderCmd, out io.Writer) error {
	config, err := loadConfig(cli)
	if err != nil {
		return err
	}

	builder := imagebuilderlib.NewBuilder(config, shell.NewHostExecutor())

	// Listing only reads the config, so it does not need root.
	if cli.ListTargets {
		graph := targetgraph.New()
		builder.RegisterTargets(graph)
		printTargets(out, graph.Targets())
		return nil
	}

	err = imagebuilderlib.EnsureRoot()
	if err != nil {
		return err
	}

	logger.Log.Infof("Building target (%s) with configuration (%s), layout (%s)", cli.Target, cli.Configuration,
		config.Layout.Resolved())

	err = telemetry.InitTelemetry(cli.DisableTelemetry, imagebuilderlib.ToolVersion, cli.Configuration)
	if err != nil {
		logger.Log.Warnf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownErr := telemetry.ShutdownTelemetry(ctx)
		if shutdownErr != nil {
			logger.Log.Warnf("Failed to shut down telemetry: %v", shutdownErr)
		}
	}()

	return builder.Run(ctx, cli.Target)
}

func loadConfig(cli *ImageBuilderCmd) (*imagebuilderapi.Config, error) {
	config, err := imagebuilderapi.LoadConfig(cli.ConfigFile)
	if err != nil {
		return nil, err
	}

	if cli.Layout != "" {
		config.Layout = imagebuilderapi.LayoutType(cli.Layout)

		err = config.IsValid()
		if err != nil {
			return nil, fmt.Errorf("invalid layout override (%s):\n%w", cli.Layout, err)
		}
	}

	return config, nil
}

func printTargets(out io.Writer, targets []targetgraph.Target) {
	for _, target := range targets {
		if len(target.Prerequisites) == 0 {
			fmt.Fprintln(out, target.Name)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", target.Name, strings.Join(target.Prerequisites, " "))
	}
}
