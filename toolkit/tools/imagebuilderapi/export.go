// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderapi

import (
	"fmt"
)

type CompressionType string

const (
	CompressionTypeZstd CompressionType = "zstd"
	CompressionTypeGzip CompressionType = "gzip"
)

// Export configures how export-image compresses the disk file.
type Export struct {
	Compression CompressionType `yaml:"compression" json:"compression,omitempty"`
}

func (e *Export) IsValid() error {
	switch e.Compression {
	case CompressionTypeZstd, CompressionTypeGzip:
		return nil

	default:
		return fmt.Errorf("invalid 'compression' value (%s)", e.Compression)
	}
}

// FileExtension is appended to the disk file name.
func (c CompressionType) FileExtension() string {
	switch c {
	case CompressionTypeGzip:
		return ".gz"

	default:
		return ".zst"
	}
}
