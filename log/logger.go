// Copyright 2017 Microsoft. All rights reserved.
// MIT License

// Package log is the structured logger every other package in this module
// writes through instead of the bare standard library log package: named
// loggers, leveled output, syslog/file/stderr targets, and size-based log
// file rotation.
package log

import (
	"fmt"
	"io"
	"log"
	"log/syslog"
	"os"
	"path"
	"sync"
)

// Log level.
const (
	LevelAlert = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

// Log target.
const (
	TargetStderr = iota
	TargetSyslog
	TargetLogfile
	TargetStdout
)

const (
	logFileExtension = ".log"
	logFilePerm      = os.FileMode(0664)
	syslogTag        = "wireguard-uapi"

	// Log file rotation default limits, in bytes.
	maxLogFileSize   = 5 * 1024 * 1024
	maxLogFileCount  = 8
	rotationCheckFrq = 8
)

// defaultLogDirectory is used when a Logger's directory is left empty.
const defaultLogDirectory = ""

// Logger is a named, leveled logger writing to one target at a time.
type Logger struct {
	l            *log.Logger
	out          io.WriteCloser
	name         string
	level        int
	target       int
	maxFileSize  int
	maxFileCount int
	callCount    int
	directory    string
	mutex        sync.Mutex
}

// NewLogger creates a new Logger writing to target, rooted at logDirectory
// when target is TargetLogfile (the current directory if empty).
func NewLogger(name string, level int, target int, logDirectory string) *Logger {
	logger := &Logger{
		name:         name,
		level:        level,
		maxFileSize:  maxLogFileSize,
		maxFileCount: maxLogFileCount,
		directory:    logDirectory,
	}

	logger.l = log.New(os.Stderr, "", log.LstdFlags|log.Lmsgprefix)
	logger.l.SetPrefix(fmt.Sprintf("[%v] ", os.Getpid()))
	if err := logger.SetTarget(target); err != nil {
		logger.Printf("[log] Failed to set target %d: %v", target, err)
	}

	return logger
}

// SetName sets the log name.
func (logger *Logger) SetName(name string) {
	logger.name = name
}

// SetLevel sets the log chattiness.
func (logger *Logger) SetLevel(level int) {
	logger.level = level
}

// SetLogFileLimits sets the log file rotation limits.
func (logger *Logger) SetLogFileLimits(maxFileSize int, maxFileCount int) {
	logger.maxFileSize = maxFileSize
	logger.maxFileCount = maxFileCount
}

// Close closes the log stream.
func (logger *Logger) Close() {
	if logger.out != nil {
		logger.out.Close()
	}
}

// SetLogDirectory sets the directory new log files are created under.
func (logger *Logger) SetLogDirectory(logDirectory string) {
	logger.directory = logDirectory
}

// GetLogDirectory returns the directory log files are created under.
func (logger *Logger) GetLogDirectory() string {
	if logger.directory != "" {
		return logger.directory
	}
	return defaultLogDirectory
}

func (logger *Logger) getLogFileName() string {
	return path.Join(logger.GetLogDirectory(), logger.name+logFileExtension)
}

// SetTarget points the logger at a new output target, opening a log file
// or syslog connection as needed.
func (logger *Logger) SetTarget(target int) error {
	var out io.Writer
	var err error

	switch target {
	case TargetStderr:
		out = os.Stderr
	case TargetStdout:
		out = os.Stdout
	case TargetSyslog:
		out, err = syslog.New(syslog.LOG_INFO, syslogTag)
	case TargetLogfile:
		var f *os.File
		f, err = os.OpenFile(logger.getLogFileName(), os.O_CREATE|os.O_APPEND|os.O_RDWR, logFilePerm)
		if err == nil {
			out = f
			logger.out = f
		}
	default:
		err = fmt.Errorf("invalid log target %d", target)
	}

	if err == nil {
		logger.target = target
		logger.l.SetOutput(out)
	}

	return err
}

// SetTargetLogDirectory sets the log directory and re-opens the target.
func (logger *Logger) SetTargetLogDirectory(target int, logDirectory string) error {
	logger.directory = logDirectory
	return logger.SetTarget(target)
}

// rotate checks the active log file size and rotates log files if the
// limit has been reached.
func (logger *Logger) rotate() {
	if logger.target != TargetLogfile || logger.out == nil {
		return
	}

	fileName := logger.getLogFileName()
	fileInfo, err := os.Stat(fileName)
	if err != nil {
		return
	}

	if fileInfo.Size() < int64(logger.maxFileSize) {
		return
	}

	logger.out.Close()

	var fn1, fn2 string
	for n := logger.maxFileCount - 1; n >= 0; n-- {
		fn2 = fn1
		if n == 0 {
			fn1 = fileName
		} else {
			fn1 = fmt.Sprintf("%v.%v", fileName, n)
		}
		if fn2 != "" {
			os.Rename(fn1, fn2)
		}
	}

	logger.SetTarget(TargetLogfile)
}

// Request logs a structured request.
func (logger *Logger) Request(tag string, request interface{}, err error) {
	if err == nil {
		logger.Printf("[%s] received %T %+v", tag, request, request)
	} else {
		logger.Printf("[%s] failed to decode %T %+v: %s", tag, request, request, err)
	}
}

// Response logs a structured response, along with the caller's own
// return code and message (distinct from a transport-level encode error).
func (logger *Logger) Response(tag string, response interface{}, returnCode int, returnStr string, err error) {
	if err == nil {
		logger.Printf("[%s] sent %T %+v code %d %s", tag, response, response, returnCode, returnStr)
	} else {
		logger.Printf("[%s] failed to encode %T %+v: %s", tag, response, response, err)
	}
}

func (logger *Logger) logf(format string, args ...interface{}) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	if logger.callCount%rotationCheckFrq == 0 {
		logger.rotate()
	}
	logger.callCount++

	logger.l.Printf(format, args...)
}

// Logf logs a formatted string regardless of level.
func (logger *Logger) Logf(format string, args ...interface{}) {
	logger.logf(format, args...)
}

// Printf logs a formatted string at info level.
func (logger *Logger) Printf(format string, args ...interface{}) {
	if logger.level >= LevelInfo {
		logger.logf(format, args...)
	}
}

// Debugf logs a formatted string at debug level.
func (logger *Logger) Debugf(format string, args ...interface{}) {
	if logger.level >= LevelDebug {
		logger.logf(format, args...)
	}
}

// Errorf logs a formatted string at error level.
func (logger *Logger) Errorf(format string, args ...interface{}) {
	if logger.level >= LevelError {
		logger.logf(format, args...)
	}
}
