// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.IsValid())

	assert.Equal(t, "output/drive.img", config.Paths.DiskFilePath())
	assert.Equal(t, "output/boot", config.Paths.BootArtifactsDir())
	assert.Equal(t, "images/runtime/rootfs", config.Paths.RootfsDir(RuntimeImageTreeName))
	assert.Equal(t, 1, config.Disk.PartitionNumber(PartitionRoleEsp))
	assert.Equal(t, 2, config.Disk.PartitionNumber(PartitionRoleRootfs))
	assert.Equal(t, 3, config.Disk.PartitionNumber(PartitionRoleData))
	assert.Equal(t, "/usr/lib/grub/x86_64-efi", config.Grub.ModulesDir())
	assert.Len(t, config.Grub.Modules, 30)
}

func TestDefaultConfigModulesNotShared(t *testing.T) {
	first := DefaultConfig()
	first.Grub.Modules[0] = "changed"

	second := DefaultConfig()
	assert.Equal(t, "fat", second.Grub.Modules[0])
}

func TestLoadConfigNoFile(t *testing.T) {
	config, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte(`
layout: single-image
paths:
  outputDir: /var/tmp/out
disk:
  size: 12G
vm:
  memory: 8G
  cpus: 4
export:
  compression: gzip
`), 0o644)
	require.NoError(t, err)

	config, err := LoadConfig(configFile)
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, LayoutTypeSingleImage, config.Layout)
	assert.Equal(t, "/var/tmp/out", config.Paths.OutputDir)
	assert.Equal(t, "./mnt", config.Paths.ScratchDir)
	assert.Equal(t, DiskSize(12*1024*DiskSizeAlignment), config.Disk.Size)
	assert.Len(t, config.Disk.Partitions, 3)
	assert.Equal(t, "8G", config.Vm.Memory)
	assert.Equal(t, 4, config.Vm.Cpus)
	assert.Equal(t, "host", config.Vm.Cpu)
	assert.Equal(t, CompressionTypeGzip, config.Export.Compression)
}

func TestLoadConfigUnknownField(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte("paths:\n  outputdir: ./out\n"), 0o644)
	require.NoError(t, err)

	_, err = LoadConfig(configFile)
	assert.ErrorContains(t, err, "field outputdir not found")
}

func TestLoadConfigInvalid(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte("layout: hybrid\n"), 0o644)
	require.NoError(t, err)

	_, err = LoadConfig(configFile)
	assert.ErrorContains(t, err, "invalid layout value (hybrid)")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestLayoutImageTrees(t *testing.T) {
	assert.Equal(t, []string{"boot", "runtime"}, LayoutTypeDefault.ImageTrees())
	assert.Equal(t, []string{"boot", "runtime"}, LayoutTypeMultiImage.ImageTrees())
	assert.Equal(t, "boot", LayoutTypeMultiImage.BootImageTree())
	assert.Equal(t, "runtime", LayoutTypeMultiImage.OSImageTree())

	assert.Equal(t, []string{"image"}, LayoutTypeSingleImage.ImageTrees())
	assert.Equal(t, "image", LayoutTypeSingleImage.BootImageTree())
	assert.Equal(t, "image", LayoutTypeSingleImage.OSImageTree())
}

func TestPathsInvalid(t *testing.T) {
	paths := DefaultConfig().Paths
	paths.DiskFileName = "out/drive.img"
	assert.ErrorContains(t, paths.IsValid(), "must be a file name")

	paths = DefaultConfig().Paths
	paths.ScratchDir = ""
	assert.ErrorContains(t, paths.IsValid(), "'scratchDir' must not be empty")

	paths = DefaultConfig().Paths
	paths.ScratchDir = "output/"
	assert.ErrorContains(t, paths.IsValid(), "must be different directories")
}

func TestPackagesInvalid(t *testing.T) {
	packages := DefaultConfig().Packages
	packages.Keys = append(packages.Keys, "not-a-key")
	assert.ErrorContains(t, packages.IsValid(), "invalid 'keys' item at index 2")

	packages = DefaultConfig().Packages
	packages.KeyServer = ""
	assert.ErrorContains(t, packages.IsValid(), "'keyServer' must be specified")

	packages = DefaultConfig().Packages
	packages.Dependencies = []string{"--allow-unauthenticated"}
	assert.ErrorContains(t, packages.IsValid(), "invalid 'dependencies' item at index 0")
}

func TestGrubInvalid(t *testing.T) {
	grub := DefaultConfig().Grub
	grub.Prefix = "efi/boot"
	assert.ErrorContains(t, grub.IsValid(), "must be an absolute path")

	grub = DefaultConfig().Grub
	grub.Modules = nil
	assert.ErrorContains(t, grub.IsValid(), "'modules' must not be empty")
}

func TestVmInvalid(t *testing.T) {
	vm := DefaultConfig().Vm
	vm.Memory = "lots"
	assert.ErrorContains(t, vm.IsValid(), "invalid 'memory' value (lots)")

	vm = DefaultConfig().Vm
	vm.Cpus = 0
	assert.ErrorContains(t, vm.IsValid(), "'cpus' (0) must be at least 1")
}

func TestExportInvalid(t *testing.T) {
	export := Export{Compression: "xz"}
	assert.ErrorContains(t, export.IsValid(), "invalid 'compression' value (xz)")
	assert.Equal(t, ".gz", CompressionTypeGzip.FileExtension())
	assert.Equal(t, ".zst", CompressionTypeZstd.FileExtension())
}
