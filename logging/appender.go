package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Appender is an output for log entries. zapcore.Core implementations (e.g. the test observer)
// satisfy it directly.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// ConsoleAppender writes console-encoded entries to a Writer.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that outputs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender creates a new appender that outputs to w.
func NewWriterAppender(w io.Writer) ConsoleAppender {
	return ConsoleAppender{w}
}

// Write outputs the log entry to the underlying stream.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	encoder := zapcore.NewConsoleEncoder(NewEncoderConfig())
	buf, err := encoder.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()
	_, err = appender.Writer.Write(buf.Bytes())
	return err
}

// Sync is a no-op; console output is unbuffered.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// FileAppender writes console-encoded entries to a size-rotated file.
type FileAppender struct {
	ConsoleAppender
	file *lumberjack.Logger
}

// NewFileAppender creates an appender writing to path, rotating at maxSizeMB and keeping three
// compressed backups.
func NewFileAppender(path string, maxSizeMB int) *FileAppender {
	file := &lumberjack.Logger{
		Filename:   filepath.Clean(path),
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		Compress:   true,
	}
	return &FileAppender{ConsoleAppender: ConsoleAppender{file}, file: file}
}

// Close closes the current log file.
func (appender *FileAppender) Close() error {
	return appender.file.Close()
}
