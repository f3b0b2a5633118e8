// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/runtimeos/image-builder/toolkit/tools/imagebuilderapi"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/file"
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
)

var (
	ErrExportOpen     = NewImageBuilderError("ExportImage:Open", "failed to open disk file")
	ErrExportCreate   = NewImageBuilderError("ExportImage:Create", "failed to create export file")
	ErrExportCompress = NewImageBuilderError("ExportImage:Compress", "failed to compress disk file")
)

// ExportFilePath is where export-image writes the compressed disk.
func ExportFilePath(config *imagebuilderapi.Config) string {
	return config.Paths.DiskFilePath() + config.Export.Compression.FileExtension()
}

// exportImage writes a compressed copy of the disk image next to it.
func (b *Builder) exportImage(ctx context.Context) error {
	diskFilePath := b.config.Paths.DiskFilePath()
	exportFilePath := ExportFilePath(b.config)

	exists, err := file.PathExists(diskFilePath)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrDiskFileNotFound, diskFilePath, err)
	}
	if !exists {
		return fmt.Errorf("%w (path='%s')", ErrDiskFileNotFound, diskFilePath)
	}

	logger.Log.Infof("Exporting (%s) to (%s)", diskFilePath, exportFilePath)

	err = compressFile(ctx, diskFilePath, exportFilePath, b.config.Export.Compression)
	if err != nil {
		// Don't leave a truncated archive behind.
		os.Remove(exportFilePath)
		return err
	}

	return nil
}

func compressFile(ctx context.Context, srcPath string, dstPath string, compression imagebuilderapi.CompressionType,
) (err error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrExportOpen, srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrExportCreate, dstPath, err)
	}
	defer func() {
		closeErr := dst.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("%w (path='%s'):\n%w", ErrExportCreate, dstPath, closeErr)
		}
	}()

	writer, err := newCompressWriter(dst, compression)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrExportCompress, err)
	}

	_, err = io.Copy(writer, &contextReader{ctx: ctx, reader: src})
	if err != nil {
		writer.Close()
		return fmt.Errorf("%w:\n%w", ErrExportCompress, err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrExportCompress, err)
	}

	return nil
}

func newCompressWriter(dst io.Writer, compression imagebuilderapi.CompressionType) (io.WriteCloser, error) {
	switch compression {
	case imagebuilderapi.CompressionTypeGzip:
		return pgzip.NewWriterLevel(dst, pgzip.BestSpeed)

	default:
		return zstd.NewWriter(dst)
	}
}

// contextReader stops a long copy once ctx is cancelled.
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	err := r.ctx.Err()
	if err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}
