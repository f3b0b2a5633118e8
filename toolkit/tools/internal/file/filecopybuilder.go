// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package file

import (
	"fmt"
	"io"
	"os"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
)

// FileCopyBuilder copies a single file. Symlinks in Src are followed.
type FileCopyBuilder struct {
	Src            string
	Dst            string
	DirFileMode    os.FileMode
	ChangeFileMode bool
	FileMode       os.FileMode
}

func NewFileCopyBuilder(src string, dst string) FileCopyBuilder {
	return FileCopyBuilder{
		Src:         src,
		Dst:         dst,
		DirFileMode: os.ModePerm,
		FileMode:    os.ModePerm,
	}
}

func (b FileCopyBuilder) SetDirFileMode(dirFileMode os.FileMode) FileCopyBuilder {
	b.DirFileMode = dirFileMode
	return b
}

func (b FileCopyBuilder) SetFileMode(fileMode os.FileMode) FileCopyBuilder {
	b.ChangeFileMode = true
	b.FileMode = fileMode
	return b
}

// Copy copies src to dst, keeping src's permissions and creating dst's directory if needed.
func Copy(src string, dst string) error {
	return NewFileCopyBuilder(src, dst).Run()
}

func (b FileCopyBuilder) Run() (err error) {
	logger.Log.Debugf("Copying (%s) to (%s)", b.Src, b.Dst)

	srcFileInfo, err := os.Stat(b.Src)
	if err != nil {
		return fmt.Errorf("failed to read source file info:\n%w", err)
	}

	if srcFileInfo.IsDir() {
		return fmt.Errorf("source (%s) is not a file", b.Src)
	}

	dstFileMode := b.FileMode
	if !b.ChangeFileMode {
		dstFileMode = srcFileInfo.Mode().Perm()
	}

	err = CreateDestinationDir(b.Dst, b.DirFileMode)
	if err != nil {
		return fmt.Errorf("failed to create destination directory (%s):\n%w", b.Dst, err)
	}

	srcFile, err := os.Open(b.Src)
	if err != nil {
		return fmt.Errorf("failed to open source file:\n%w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(b.Dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, dstFileMode)
	if err != nil {
		return fmt.Errorf("failed to create destination file:\n%w", err)
	}
	defer func() {
		if dstFile != nil {
			dstFile.Close()
		}
	}()

	// OpenFile's permissions are subject to umask.
	err = dstFile.Chmod(dstFileMode)
	if err != nil {
		return fmt.Errorf("failed to set destination file permissions:\n%w", err)
	}

	_, err = io.Copy(dstFile, srcFile)
	if err != nil {
		return fmt.Errorf("failed to copy file (%s) to (%s):\n%w", b.Src, b.Dst, err)
	}

	err = dstFile.Close()
	dstFile = nil
	if err != nil {
		return fmt.Errorf("failed to finalize destination file:\n%w", err)
	}

	return nil
}
