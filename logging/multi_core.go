package logging

import (
	"os"

	"go.uber.org/zap/zapcore"
)

// NewMultiCore creates a zapcore.Core that tees output to both console and a
// rotating log file.
//
// The file output always uses JSON encoding for structured log processing.
// The console output uses:
//   - Development mode (isDev=true): colored, human-readable format
//   - Production mode (isDev=false): JSON format for consistency
func NewMultiCore(level zapcore.Level, filePath string, isDev bool) zapcore.Core {
	fileWriter := NewFileWriter(filePath, DefaultFileWriterConfig())
	return NewMultiCoreWithWriters(level, zapcore.AddSync(os.Stdout), fileWriter, isDev)
}

// NewMultiCoreWithWriters creates a tee core over the provided writers.
// This variant allows custom writers, useful for testing.
func NewMultiCoreWithWriters(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	fileEncoder := zapcore.NewJSONEncoder(NewEncoderConfig())
	fileCore := zapcore.NewCore(fileEncoder, fileWriter, level)

	var consoleEncoder zapcore.Encoder
	if isDev {
		consoleEncoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, level)

	return zapcore.NewTee(consoleCore, fileCore)
}
