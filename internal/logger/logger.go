package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFilePath is the path to the renderer log file, relative to the working directory (project root when run via go run ./cmd/renderer).
const LogFilePath = "logs/renderer.txt"

// maxLines bounds the in-memory history the console draws.
const maxLines = 500

const timeLayout = "2006-01-02 15:04:05"

// Logger is a zap logger writing to stderr and a log file, and keeping recent
// lines in memory for the in-window console.
type Logger struct {
	*zap.Logger
	lines *lineSink
	file  *os.File
}

// New logs to LogFilePath. If the file cannot be opened the logger still writes
// to stderr and memory.
func New() *Logger {
	l, err := Open(LogFilePath)
	if err != nil {
		l = build(nil)
		l.Warn("log file unavailable", zap.String("path", LogFilePath), zap.Error(err))
	}
	return l
}

// Open logs to path, creating its directory if needed.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return build(f), nil
}

func build(f *os.File) *Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	enc.ConsoleSeparator = " "
	level := zap.NewAtomicLevelAt(zap.InfoLevel)

	sink := &lineSink{}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(memoryEncoderConfig()), sink, level),
	}
	if f != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), level))
	}
	return &Logger{Logger: zap.New(zapcore.NewTee(cores...)), lines: sink, file: f}
}

// memoryEncoderConfig renders "[timestamp] LEVEL message fields", the format the console shows.
func memoryEncoderConfig() zapcore.EncoderConfig {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = func(t time.Time, pe zapcore.PrimitiveArrayEncoder) {
		pe.AppendString("[" + t.Format(timeLayout) + "]")
	}
	enc.CallerKey = zapcore.OmitKey
	enc.ConsoleSeparator = " "
	return enc
}

// Log records a line typed into the console.
func (l *Logger) Log(line string) { l.Info(line) }

// Lines returns a copy of the stored lines, oldest first.
func (l *Logger) Lines() []string { return l.lines.snapshot() }

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		s.lines = append(s.lines, line)
	}
	if n := len(s.lines); n > maxLines {
		s.lines = append(s.lines[:0], s.lines[n-maxLines:]...)
	}
	return len(p), nil
}

func (s *lineSink) Sync() error { return nil }

func (s *lineSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
