// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
	"slices"
)

type Config struct {
	Layout   LayoutType `yaml:"layout" json:"layout,omitempty"`
	Paths    Paths      `yaml:"paths" json:"paths,omitempty"`
	Disk     Disk       `yaml:"disk" json:"disk,omitempty"`
	Packages Packages   `yaml:"packages" json:"packages,omitempty"`
	Grub     Grub       `yaml:"grub" json:"grub,omitempty"`
	Vm       Vm         `yaml:"vm" json:"vm,omitempty"`
	Export   Export     `yaml:"export" json:"export,omitempty"`
}

func (c *Config) IsValid() error {
	err := c.Layout.IsValid()
	if err != nil {
		return err
	}

	err = c.Paths.IsValid()
	if err != nil {
		return fmt.Errorf("invalid 'paths' field:\n%w", err)
	}

	err = c.Disk.IsValid()
	if err != nil {
		return fmt.Errorf("invalid 'disk' field:\n%w", err)
	}

	err = c.Packages.IsValid()
	if err != nil {
		return fmt.Errorf("invalid 'packages' field:\n%w", err)
	}

	err = c.Grub.IsValid()
	if err != nil {
		return fmt.Errorf("invalid 'grub' field:\n%w", err)
	}

	err = c.Vm.IsValid()
	if err != nil {
		return fmt.Errorf("invalid 'vm' field:\n%w", err)
	}

	err = c.Export.IsValid()
	if err != nil {
		return fmt.Errorf("invalid 'export' field:\n%w", err)
	}

	return nil
}

var defaultGrubModules = []string{
	"fat", "iso9660", "part_gpt", "part_msdos", "normal", "boot", "linux", "configfile", "loopback", "chain",
	"efifwsetup", "efi_gop", "efi_uga", "ls", "search", "search_label", "search_fs_uuid", "search_fs_file",
	"gfxterm", "gfxterm_background", "gfxterm_menu", "test", "all_video", "loadenv", "exfat", "ext2", "ntfs",
	"btrfs", "hfsplus", "udf",
}

// DefaultConfig returns the configuration used when no config file is given. A config file is decoded over
// it, so the file only needs the fields it changes.
func DefaultConfig() *Config {
	espEnd := DiskSize(500 * DiskSizeAlignment)
	rootfsEnd := DiskSize(10500 * DiskSizeAlignment)

	return &Config{
		Layout: LayoutTypeMultiImage,
		Paths: Paths{
			OutputDir:    "./output",
			ScratchDir:   "./mnt",
			ImagesDir:    "./images",
			ResourcesDir: "./resources",
			DiskFileName: "drive.img",
		},
		Disk: Disk{
			Size: DiskSize(11500 * DiskSizeAlignment),
			Partitions: []Partition{
				{
					Role:       PartitionRoleEsp,
					Name:       "primary",
					Label:      "EFI",
					Start:      0,
					End:        &espEnd,
					FileSystem: FileSystemTypeFat,
					VolumeId:   "AB918E58",
				},
				{
					Role:       PartitionRoleRootfs,
					Name:       "primary",
					Label:      "rootos",
					Start:      espEnd,
					End:        &rootfsEnd,
					FileSystem: FileSystemTypeExt4,
					Uuid:       "cf35024a-90c3-4ee7-b04a-7594f6ff48a0",
					InodeRatio: 8192,
				},
				{
					Role:       PartitionRoleData,
					Name:       "data",
					Label:      "data",
					Start:      rootfsEnd,
					FileSystem: FileSystemTypeExt4,
					Uuid:       "c83dfb09-d802-4de8-bf2c-b558552c4bd4",
					InodeRatio: 8192,
				},
			},
		},
		Packages: Packages{
			Dependencies: []string{"qemu-kvm", "ovmf"},
			KeyServer:    "hkp://keyserver.ubuntu.com:80",
			Keys:         []string{"AA8E81B4331F7F50", "648ACFD622F3D138"},
		},
		Grub: Grub{
			Target:       "x86_64-efi",
			Prefix:       "/efi/boot",
			Modules:      slices.Clone(defaultGrubModules),
			EfiImageName: "bootx64.efi",
		},
		Vm: Vm{
			Binary:   "kvm",
			Firmware: "/usr/share/qemu/OVMF.fd",
			Memory:   "4G",
			Cpus:     2,
			Cpu:      "host",
		},
		Export: Export{
			Compression: CompressionTypeZstd,
		},
	}
}

// LoadConfig reads the config file over the defaults and validates the result. An empty path returns the
// defaults.
func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()

	if configFile == "" {
		return config, nil
	}

	err := UnmarshalAndValidateYamlFile(configFile, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file (%s):\n%w", configFile, err)
	}

	return config, nil
}
