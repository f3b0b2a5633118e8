// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package testutils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/file"
	"github.com/stretchr/testify/assert"
)

// GetImageFileType sniffs the format of a disk image or compressed disk image.
func GetImageFileType(filePath string) (string, error) {
	imageFile, err := os.OpenFile(filePath, os.O_RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer imageFile.Close()

	firstBytes := make([]byte, 512)
	firstBytesCount, err := io.ReadFull(imageFile, firstBytes)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", err
	}
	firstBytes = firstBytes[:firstBytesCount]

	switch {
	case isZstFile(firstBytes):
		return "zst", nil

	case len(firstBytes) >= 2 && bytes.Equal(firstBytes[:2], []byte{0x1f, 0x8b}):
		return "gzip", nil

	// The protective MBR signature exists on GPT formatted drives too.
	case len(firstBytes) >= 512 && bytes.Equal(firstBytes[510:512], []byte{0x55, 0xAA}):
		return "raw", nil

	default:
		return "", fmt.Errorf("unknown file type: %s", filePath)
	}
}

func isZstFile(firstBytes []byte) bool {
	if len(firstBytes) < 4 {
		return false
	}

	magicNumber := binary.LittleEndian.Uint32(firstBytes[:4])

	// 0xFD2FB528 is a zst frame.
	// 0x184D2A50-0x184D2A5F are skippable ztd frames.
	return magicNumber == 0xFD2FB528 || (magicNumber >= 0x184D2A50 && magicNumber <= 0x184D2A5F)
}

// CheckSkipForBuildImageRequirements skips tests that drive real loop devices and mounts.
func CheckSkipForBuildImageRequirements(t *testing.T, commands ...string) {
	if os.Geteuid() != 0 {
		t.Skip("Test must be run as root because it attaches loop devices and mounts partitions")
	}

	for _, command := range commands {
		exists, err := file.CommandExists(command)
		assert.NoError(t, err)
		if !exists {
			t.Skipf("The '%s' command is not available", command)
		}
	}
}
