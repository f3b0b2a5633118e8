// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"context"
	"io"
	"os"

	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/shell"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/targetgraph"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	OtelTracerName = "imagebuilderlib"
)

// Set at build time.
var ToolVersion = ""

const (
	TargetClean                = "clean"
	TargetInstallDependencies  = "install-dependencies"
	TargetInstallKeys          = "install-keys"
	TargetRefreshPackages      = "refresh-packages"
	TargetGenerateRootfs       = "generate-rootfs"
	TargetBuildBootArtifacts   = "build-boot-artifacts"
	TargetCreateImage          = "create-image"
	TargetPrepareBootPartition = "prepare-boot-partition"
	TargetPrepareOsPartition   = "prepare-os-partition"
	TargetDebugPartitions      = "debug-partitions"
	TargetRunImage             = "run-image"
	TargetExportImage          = "export-image"
	TargetDefault              = "default"
)

// Builder runs the image build steps for one configuration. Steps share nothing but the config and the
// files they leave on disk.
type Builder struct {
	config   *imagebuilderapi.Config
	layout   imagebuilderapi.LayoutType
	executor shell.Executor
	// input is read by debug-partitions while the partitions are mounted.
	input io.Reader
}

type BuilderOption func(b *Builder)

// WithInput replaces stdin as the source of operator input.
func WithInput(input io.Reader) BuilderOption {
	return func(b *Builder) {
		b.input = input
	}
}

func NewBuilder(config *imagebuilderapi.Config, executor shell.Executor, options ...BuilderOption) *Builder {
	b := &Builder{
		config:   config,
		layout:   config.Layout.Resolved(),
		executor: executor,
		input:    os.Stdin,
	}

	for _, option := range options {
		option(b)
	}

	return b
}

func (b *Builder) Config() *imagebuilderapi.Config {
	return b.config
}

// DefaultPrerequisites is the full build, in order, for a layout.
func DefaultPrerequisites(layout imagebuilderapi.LayoutType) []string {
	prerequisites := []string{
		TargetClean,
		TargetInstallKeys,
		TargetGenerateRootfs,
	}

	if layout.Resolved() == imagebuilderapi.LayoutTypeMultiImage {
		prerequisites = append(prerequisites, TargetBuildBootArtifacts)
	}

	return append(prerequisites,
		TargetCreateImage,
		TargetPrepareBootPartition,
		TargetPrepareOsPartition,
	)
}

// RegisterTargets adds every build step to the graph, plus the "default" aggregate.
func (b *Builder) RegisterTargets(graph *targetgraph.Graph) {
	graph.Register(TargetClean, b.clean)
	graph.Register(TargetInstallDependencies, b.installDependencies)
	graph.Register(TargetInstallKeys, b.installKeys)
	graph.Register(TargetRefreshPackages, b.refreshPackages)
	graph.Register(TargetGenerateRootfs, b.generateRootfs)

	if b.layout == imagebuilderapi.LayoutTypeMultiImage {
		graph.Register(TargetBuildBootArtifacts, b.buildBootArtifacts)
	}

	graph.Register(TargetCreateImage, b.createImage)
	graph.Register(TargetPrepareBootPartition, b.prepareBootPartition)
	graph.Register(TargetPrepareOsPartition, b.prepareOsPartition)
	graph.Register(TargetDebugPartitions, b.debugPartitions)
	graph.Register(TargetRunImage, b.runImage)
	graph.Register(TargetExportImage, b.exportImage)

	graph.Register(TargetDefault, nil, DefaultPrerequisites(b.layout)...)
}

// Run registers the build steps on a new graph and runs target.
func (b *Builder) Run(ctx context.Context, target string) (err error) {
	ctx, span := otel.GetTracerProvider().Tracer(OtelTracerName).Start(ctx, "build_image")
	span.SetAttributes(
		attribute.String("target", target),
		attribute.String("layout", string(b.layout)),
	)
	defer func() {
		if err != nil {
			errorNames := []string{"Unset"}
			if namedErrors := GetAllImageBuilderErrors(err); len(namedErrors) > 0 {
				errorNames = make([]string, len(namedErrors))
				for i, namedError := range namedErrors {
					errorNames[i] = namedError.Name()
				}
			}
			span.SetAttributes(
				attribute.StringSlice("errors.name", errorNames),
			)
			span.SetStatus(codes.Error, errorNames[len(errorNames)-1])
		}
		span.End()
	}()

	graph := targetgraph.New()
	b.RegisterTargets(graph)
	return graph.Run(ctx, target)
}
