// Package log provides functionality for logging commands, errors and diagnostics
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Fields carries structured key/value pairs attached to a log message
type Fields map[string]interface{}

// LogMessage represents a message to be logged
type LogMessage struct {
	Level   LogLevel
	Message string
	Fields  Fields
	Context context.Context
}

// Logger writes command, error and info streams through a single background goroutine
type Logger struct {
	commandLogger *slog.Logger
	errorLogger   *slog.Logger
	infoLogger    *slog.Logger
	files         []*os.File
	logChan       chan LogMessage
	done          chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
	level         LogLevel
}

// NewLogger creates a Logger writing to the command, error and info files named in cfg
func NewLogger(cfg *model.Config, level LogLevel) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var files []*os.File
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(cfg.LogFolder, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	commandFile, err := open(cfg.CommandLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open command log file: %w", err)
	}
	errorFile, err := open(cfg.ErrorLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log file: %w", err)
	}
	infoFile, err := open(cfg.InfoLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open info log file: %w", err)
	}

	l := newLogger(commandFile, errorFile, infoFile, level)
	l.files = files
	return l, nil
}

// NewWriterLogger creates a Logger that writes every stream to w
func NewWriterLogger(w io.Writer, level LogLevel) *Logger {
	return newLogger(w, w, w, level)
}

// NewNopLogger creates a Logger that discards everything
func NewNopLogger() *Logger {
	return newLogger(io.Discard, io.Discard, io.Discard, LevelCommand)
}

func newLogger(commandW, errorW, infoW io.Writer, level LogLevel) *Logger {
	l := &Logger{
		commandLogger: slog.New(slog.NewJSONHandler(commandW, &slog.HandlerOptions{Level: slog.LevelInfo})),
		errorLogger:   slog.New(slog.NewJSONHandler(errorW, &slog.HandlerOptions{Level: slog.LevelError})),
		infoLogger:    slog.New(slog.NewJSONHandler(infoW, &slog.HandlerOptions{Level: slog.LevelDebug})),
		logChan:       make(chan LogMessage, 100),
		done:          make(chan struct{}),
		level:         level,
	}

	l.wg.Add(1)
	go l.processLogs()

	return l
}

// processLogs handles incoming log messages until the logger is closed, then drains the buffer
func (l *Logger) processLogs() {
	defer l.wg.Done()
	for {
		select {
		case msg := <-l.logChan:
			l.write(msg)
		case <-l.done:
			for {
				select {
				case msg := <-l.logChan:
					l.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(msg LogMessage) {
	ctx := msg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := fieldsToAttrs(msg.Fields)

	switch msg.Level {
	case LevelCommand:
		l.commandLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Message, attrs...)
	case LevelError:
		l.errorLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Message, attrs...)
	default:
		l.infoLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Message, attrs...)
	}
}

// fieldsToAttrs converts fields to slog attributes in key order
func fieldsToAttrs(fields Fields) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}

func (l *Logger) send(ctx context.Context, level LogLevel, message string, fields Fields) {
	if l == nil || level > l.level {
		return
	}
	select {
	case l.logChan <- LogMessage{Level: level, Message: message, Fields: fields, Context: ctx}:
	case <-l.done:
	}
}

// Command records an executed command in the command log
func (l *Logger) Command(ctx context.Context, message string, fields Fields) {
	l.send(ctx, LevelCommand, message, fields)
}

func (l *Logger) Error(ctx context.Context, message string, fields Fields) {
	l.send(ctx, LevelError, message, fields)
}

func (l *Logger) Warn(ctx context.Context, message string, fields Fields) {
	l.send(ctx, LevelWarn, message, fields)
}

func (l *Logger) Info(ctx context.Context, message string, fields Fields) {
	l.send(ctx, LevelInfo, message, fields)
}

func (l *Logger) Debug(ctx context.Context, message string, fields Fields) {
	l.send(ctx, LevelDebug, message, fields)
}

// SetLevel changes the most verbose level that is still written
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// Close stops the logging goroutine and closes all log files
func (l *Logger) Close() error {
	var closeErr error
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()

		for _, f := range l.files {
			if err := f.Close(); err != nil && closeErr == nil {
				closeErr = fmt.Errorf("failed to close log file %s: %w", filepath.Base(f.Name()), err)
			}
		}
	})
	return closeErr
}
