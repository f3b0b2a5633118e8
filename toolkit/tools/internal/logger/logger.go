// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package logger holds the process-wide logrus logger used by every build step.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const (
	LevelsFlag        = "log-level"
	LevelsPlaceholder = "(panic|fatal|error|warn|info|debug|trace)"
	LevelsHelp        = "The minimum log level."

	FileFlag     = "log-file"
	FileFlagHelp = "Path to an image builder log file. Logs are appended to it at the debug level."

	ColorFlag         = "log-color"
	ColorsPlaceholder = "(always|auto|never)"
	ColorFlagHelp     = "Color setting for log terminal output."

	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"

	defaultLogLevel = logrus.InfoLevel
	defaultColor    = ColorAuto
)

var (
	// Log is the global logger.
	Log *logrus.Logger

	stderrHook *writerHook
	fileHook   *writerHook
)

// LogFlags are the user-facing logging options. Empty values select the defaults.
type LogFlags struct {
	LogColor *string
	LogFile  *string
	LogLevel *string
}

func init() {
	initLogger()
}

func initLogger() {
	Log = logrus.New()
	Log.SetOutput(io.Discard)
	Log.SetLevel(logrus.TraceLevel)
	Log.ReplaceHooks(make(logrus.LevelHooks))
	stderrHook = nil
	fileHook = nil
}

// Levels returns the names of the supported log levels.
func Levels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}
	return levels
}

// Colors returns the supported log color settings.
func Colors() []string {
	return []string{ColorAlways, ColorAuto, ColorNever}
}

// InitStderrLog sets up logging to stderr only, at the default level.
func InitStderrLog() {
	err := initStderrHook(defaultLogLevel, defaultColor)
	if err != nil {
		panic(err)
	}
}

// InitBestEffort sets up logging from the provided flags. Invalid flag values fall back to the
// defaults with a warning instead of failing.
func InitBestEffort(lf *LogFlags) {
	err := Init(lf)
	if err == nil {
		return
	}

	InitStderrLog()
	Log.Warnf("Failed to apply log flags, using defaults:\n%v", err)
}

// Init sets up logging from the provided flags.
func Init(lf *LogFlags) error {
	initLogger()

	level := defaultLogLevel
	colorSetting := defaultColor
	logFile := ""

	if lf != nil {
		if lf.LogLevel != nil && *lf.LogLevel != "" {
			parsed, err := logrus.ParseLevel(*lf.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level (%s):\n%w", *lf.LogLevel, err)
			}
			level = parsed
		}

		if lf.LogColor != nil && *lf.LogColor != "" {
			colorSetting = *lf.LogColor
		}

		if lf.LogFile != nil {
			logFile = *lf.LogFile
		}
	}

	err := initStderrHook(level, colorSetting)
	if err != nil {
		return err
	}

	if logFile != "" {
		err = initFileHook(logFile)
		if err != nil {
			return err
		}
	}

	return nil
}

// CloseFile flushes and closes the log file, if one was opened.
func CloseFile() {
	if fileHook == nil {
		return
	}

	closer, ok := fileHook.writer.(io.Closer)
	if ok {
		closer.Close()
	}

	Log.ReplaceHooks(make(logrus.LevelHooks))
	if stderrHook != nil {
		Log.AddHook(stderrHook)
	}
	fileHook = nil
}

func initStderrHook(level logrus.Level, colorSetting string) error {
	forceColors := false
	disableColors := false

	switch colorSetting {
	case ColorAlways:
		forceColors = true
	case ColorNever:
		disableColors = true
	case ColorAuto:
		// fatih/color already inspected the terminal and NO_COLOR.
		disableColors = color.NoColor
		forceColors = !color.NoColor
	default:
		return fmt.Errorf("invalid log color (%s), expected one of: %s", colorSetting,
			strings.Join(Colors(), ", "))
	}

	stderrHook = &writerHook{
		writer: os.Stderr,
		level:  level,
		formatter: &logrus.TextFormatter{
			ForceColors:            forceColors,
			DisableColors:          disableColors,
			DisableLevelTruncation: true,
			FullTimestamp:          true,
		},
	}
	Log.AddHook(stderrHook)
	return nil
}

func initFileHook(path string) error {
	err := os.MkdirAll(filepath.Dir(path), os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create log file directory (%s):\n%w", filepath.Dir(path), err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file (%s):\n%w", path, err)
	}

	fileHook = &writerHook{
		writer: file,
		level:  logrus.DebugLevel,
		formatter: &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		},
	}
	Log.AddHook(fileHook)
	return nil
}

// writerHook writes entries at or above a minimum level to a writer with its own formatter.
type writerHook struct {
	writer    io.Writer
	level     logrus.Level
	formatter logrus.Formatter
}

func (h *writerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	if entry.Level > h.level {
		return nil
	}

	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	_, err = h.writer.Write(line)
	return err
}
