// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package exe defines QoL functions to simplify and unify creating kingpin executables
package exe

import (
	"github.com/runtimeos/image-builder/toolkit/tools/internal/logger"
	"gopkg.in/alecthomas/kingpin.v2"
)

// SetupLogFlags registers the standard logging flags on a kingpin application.
func SetupLogFlags(k *kingpin.Application) *logger.LogFlags {
	lf := &logger.LogFlags{}
	lf.LogColor = k.Flag(logger.ColorFlag, logger.ColorFlagHelp).PlaceHolder(logger.ColorsPlaceholder).Enum(logger.Colors()...)
	lf.LogFile = k.Flag(logger.FileFlag, logger.FileFlagHelp).String()
	lf.LogLevel = k.Flag(logger.LevelsFlag, logger.LevelsHelp).PlaceHolder(logger.LevelsPlaceholder).Enum(logger.Levels()...)
	return lf
}

// ParseArgs parses args and sets up logging from the flags registered with SetupLogFlags.
func ParseArgs(k *kingpin.Application, logFlags *logger.LogFlags, args []string) {
	kingpin.MustParse(k.Parse(args))
	logger.InitBestEffort(logFlags)
}
