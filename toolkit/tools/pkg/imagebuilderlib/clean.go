// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package imagebuilderlib

import (
	"context"
	"fmt"

	"github.com/runtimeos/image-builder/toolkit/tools/internal/file"
)

var (
	ErrCleanOutputDir = NewImageBuilderError("Clean:OutputDir", "failed to clean output directory")
)

func (b *Builder) clean(ctx context.Context) error {
	err := file.CleanDirectory(b.config.Paths.OutputDir)
	if err != nil {
		return fmt.Errorf("%w (path='%s'):\n%w", ErrCleanOutputDir, b.config.Paths.OutputDir, err)
	}

	return nil
}
