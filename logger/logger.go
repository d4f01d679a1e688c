package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MaxLogLines is the number of lines kept in the log file
const MaxLogLines = 5000

// LogLevel represents the logging level
type LogLevel int32

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a level name, defaulting to INFO
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LimitedLogger writes leveled lines to a file and trims the file to the
// last maxLines lines whenever it grows past that
type LimitedLogger struct {
	mutex     sync.Mutex
	file      *os.File
	out       io.Writer
	lineCount int
	maxLines  int
	level     atomic.Int32
}

var (
	globalLogger atomic.Pointer[LimitedLogger]
	// stderrLogger is used until Open installs a file logger
	stderrLogger = newLogger(nil, os.Stderr, LogLevelInfo)
)

func newLogger(f *os.File, out io.Writer, level LogLevel) *LimitedLogger {
	ll := &LimitedLogger{file: f, out: out, maxLines: MaxLogLines}
	ll.level.Store(int32(level))
	return ll
}

// Open opens (or creates) name in dir, installs it as the global logger and
// returns it. Caller must Close it.
func Open(dir, name string, level LogLevel) (*LimitedLogger, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return NewLimitedLogger(f, level), nil
}

// NewLimitedLogger wraps f and installs it as the global logger
func NewLimitedLogger(f *os.File, level LogLevel) *LimitedLogger {
	ll := newLogger(f, f, level)
	ll.countExistingLines()
	globalLogger.Store(ll)
	return ll
}

func current() *LimitedLogger {
	if ll := globalLogger.Load(); ll != nil {
		return ll
	}
	return stderrLogger
}

// SetLevel sets the logging level
func (ll *LimitedLogger) SetLevel(level LogLevel) { ll.level.Store(int32(level)) }

// Level returns the logging level
func (ll *LimitedLogger) Level() LogLevel { return LogLevel(ll.level.Load()) }

// SetGlobalLevel sets the level of the installed logger
func SetGlobalLevel(level LogLevel) { current().SetLevel(level) }

func (ll *LimitedLogger) enabled(level LogLevel) bool { return level >= ll.Level() }

func (ll *LimitedLogger) log(level LogLevel, prefix, format string, v ...any) {
	if !ll.enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, v...)
	line := fmt.Sprintf("%s [%s] %s%s\n", time.Now().Format("2006/01/02 15:04:05"), level, prefix, msg)
	ll.Write([]byte(line))
}

func (ll *LimitedLogger) Debug(format string, v ...any) { ll.log(LogLevelDebug, "", format, v...) }
func (ll *LimitedLogger) Info(format string, v ...any)  { ll.log(LogLevelInfo, "", format, v...) }
func (ll *LimitedLogger) Warn(format string, v ...any)  { ll.log(LogLevelWarn, "", format, v...) }
func (ll *LimitedLogger) Error(format string, v ...any) { ll.log(LogLevelError, "", format, v...) }

func Debug(format string, v ...any) { current().Debug(format, v...) }
func Info(format string, v ...any)  { current().Info(format, v...) }
func Warn(format string, v ...any)  { current().Warn(format, v...) }
func Error(format string, v ...any) { current().Error(format, v...) }

// Fatal logs at ERROR and exits with code 1
func Fatal(format string, v ...any) {
	current().Error(format, v...)
	os.Exit(1)
}

var noop = func() {}

// Trace returns a function that logs the time since Trace was called.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	ll := current()
	if !ll.enabled(LogLevelTrace) {
		return noop
	}
	start := time.Now()
	return func() {
		ll.log(LogLevelTrace, "", "%s: %v", name, time.Since(start))
	}
}

// Scoped prefixes every message with an id, so the lines of one command
// invocation can be picked out of the log
type Scoped struct {
	prefix string
}

// With returns a logger whose messages carry id
func With(id string) Scoped {
	return Scoped{prefix: "[" + id + "] "}
}

func (s Scoped) Debug(format string, v ...any) { current().log(LogLevelDebug, s.prefix, format, v...) }
func (s Scoped) Info(format string, v ...any)  { current().log(LogLevelInfo, s.prefix, format, v...) }
func (s Scoped) Warn(format string, v ...any)  { current().log(LogLevelWarn, s.prefix, format, v...) }
func (s Scoped) Error(format string, v ...any) { current().log(LogLevelError, s.prefix, format, v...) }

// countExistingLines counts the lines already in the log file
func (ll *LimitedLogger) countExistingLines() {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()
	if ll.file == nil {
		return
	}

	ll.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(ll.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	ll.lineCount = count
	ll.file.Seek(0, io.SeekEnd)
}

// Write implements io.Writer so the standard log package can be pointed here
func (ll *LimitedLogger) Write(p []byte) (n int, err error) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	n, err = ll.out.Write(p)
	if err != nil || ll.file == nil {
		return n, err
	}

	ll.lineCount += strings.Count(string(p), "\n")
	if ll.lineCount > ll.maxLines {
		ll.rotate()
	}
	return n, nil
}

// rotate trims the file to its last maxLines lines
func (ll *LimitedLogger) rotate() {
	ll.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(ll.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > ll.maxLines {
		lines = lines[len(lines)-ll.maxLines:]
	}

	ll.file.Truncate(0)
	ll.file.Seek(0, io.SeekStart)
	w := bufio.NewWriter(ll.file)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	w.Flush()
	ll.lineCount = len(lines)
}

// Close uninstalls the logger and closes its file
func (ll *LimitedLogger) Close() error {
	globalLogger.CompareAndSwap(ll, nil)
	if ll.file == nil {
		return nil
	}
	return ll.file.Close()
}
