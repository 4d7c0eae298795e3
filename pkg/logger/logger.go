package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agileandy/bbcbasic/pkg/configuration"
)

// LogLevel orders log entries by severity.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var logLevelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

func (l LogLevel) String() string { return logLevelNames[l] }

// LogArea is a subsystem that can be switched on and off with a
// "log_<area>" key in the [Debug] section.
type LogArea string

const (
	AreaInterpreter LogArea = "interpreter"
	AreaParser      LogArea = "parser"
	AreaProgram     LogArea = "program"
	AreaStore       LogArea = "store"
	AreaServer      LogArea = "server"
	AreaAuth        LogArea = "auth"
	AreaSession     LogArea = "session"
	AreaConfig      LogArea = "config"
	AreaGeneral     LogArea = "general"
)

var allAreas = []LogArea{
	AreaInterpreter, AreaParser, AreaProgram, AreaStore, AreaServer,
	AreaAuth, AreaSession, AreaConfig, AreaGeneral,
}

// Logger writes levelled, per-area entries to a rotating file.
type Logger struct {
	enabled       int32              // atomic bool
	level         int32              // atomic LogLevel
	areaEnabled   map[LogArea]*int32 // atomic bools per area
	file          *os.File
	mutex         sync.Mutex
	logPath       string
	maxSizeMB     int64
	rotationCount int
	currentSize   int64
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// Initialize starts the global logger from the [Debug] configuration. It
// replaces a logger that is already running.
func Initialize() error {
	l, err := newLogger()
	if err != nil {
		return err
	}
	globalMu.Lock()
	old := globalLogger
	globalLogger = l
	globalMu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

func active() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func newLogger() (*Logger, error) {
	l := &Logger{
		areaEnabled: make(map[LogArea]*int32),
	}
	for _, area := range allAreas {
		l.areaEnabled[area] = new(int32)
	}

	if err := l.loadConfig(); err != nil {
		return nil, err
	}
	if err := l.openLogFile(); err != nil {
		return nil, err
	}
	return l, nil
}

// loadConfig reads the [Debug] section.
func (l *Logger) loadConfig() error {
	enabled := configuration.GetBool("Debug", "enable_debug_logging", false)
	atomic.StoreInt32(&l.enabled, boolToInt32(enabled))

	levelStr := configuration.GetString("Debug", "log_level", "INFO")
	atomic.StoreInt32(&l.level, int32(parseLogLevel(levelStr)))

	l.mutex.Lock()
	l.logPath = configuration.GetString("Debug", "log_file", "bbcbasic.log")
	l.maxSizeMB = int64(configuration.GetInt("Debug", "max_log_size_mb", 10))
	l.rotationCount = configuration.GetInt("Debug", "log_rotation_count", 3)
	l.mutex.Unlock()

	for area, atomicBool := range l.areaEnabled {
		configKey := fmt.Sprintf("log_%s", string(area))
		enabled := configuration.GetBool("Debug", configKey, false)
		atomic.StoreInt32(atomicBool, boolToInt32(enabled))
	}

	return nil
}

func (l *Logger) openLogFile() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file != nil {
		l.file.Close()
	}

	dir := filepath.Dir(l.logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	l.file = file
	if stat, err := file.Stat(); err == nil {
		l.currentSize = stat.Size()
	}

	return nil
}

// rotateLocked shifts log.N to log.N+1, dropping the oldest, and starts a
// fresh file. The caller holds l.mutex.
func (l *Logger) rotateLocked() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	for i := l.rotationCount - 1; i >= 1; i-- {
		oldName := fmt.Sprintf("%s.%d", l.logPath, i)
		newName := fmt.Sprintf("%s.%d", l.logPath, i+1)

		if i == l.rotationCount-1 {
			os.Remove(newName)
		}

		os.Rename(oldName, newName)
	}

	os.Rename(l.logPath, l.logPath+".1")

	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	l.file = file
	l.currentSize = 0

	return nil
}

func (l *Logger) isEnabled() bool {
	return atomic.LoadInt32(&l.enabled) != 0
}

func (l *Logger) isAreaEnabled(area LogArea) bool {
	if atomicBool, exists := l.areaEnabled[area]; exists {
		return atomic.LoadInt32(atomicBool) != 0
	}
	return false
}

func (l *Logger) shouldLog(level LogLevel, area LogArea) bool {
	if !l.isEnabled() {
		return false
	}

	if atomic.LoadInt32(&l.level) > int32(level) {
		return false
	}

	return l.isAreaEnabled(area)
}

func (l *Logger) writeLog(level LogLevel, area LogArea, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	_, file, line, _ := runtime.Caller(3)
	filename := filepath.Base(file)

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	logEntry := fmt.Sprintf("[%s] %s [%s:%d] [%s] %s\n",
		timestamp,
		logLevelNames[level],
		filename,
		line,
		strings.ToUpper(string(area)),
		message)

	l.mutex.Lock()
	if l.file != nil {
		n, err := l.file.WriteString(logEntry)
		if err == nil {
			l.currentSize += int64(n)
			if l.maxSizeMB > 0 && l.currentSize > l.maxSizeMB*1024*1024 {
				l.rotateLocked()
			}
		}
	}
	l.mutex.Unlock()

	// Warnings and worse also go to the standard logger.
	if level >= WARN {
		log.Printf("[%s] [%s] %s", logLevelNames[level], strings.ToUpper(string(area)), message)
	}
}

func (l *Logger) close() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

// Debug logs at DEBUG level.
func Debug(area LogArea, format string, args ...interface{}) {
	if l := active(); l != nil && l.shouldLog(DEBUG, area) {
		l.writeLog(DEBUG, area, format, args...)
	}
}

// Info logs at INFO level.
func Info(area LogArea, format string, args ...interface{}) {
	if l := active(); l != nil && l.shouldLog(INFO, area) {
		l.writeLog(INFO, area, format, args...)
	}
}

// Warn logs at WARN level.
func Warn(area LogArea, format string, args ...interface{}) {
	if l := active(); l != nil && l.shouldLog(WARN, area) {
		l.writeLog(WARN, area, format, args...)
	}
}

// Error logs at ERROR level.
func Error(area LogArea, format string, args ...interface{}) {
	if l := active(); l != nil && l.shouldLog(ERROR, area) {
		l.writeLog(ERROR, area, format, args...)
	}
}

// Fatal logs and exits.
func Fatal(area LogArea, format string, args ...interface{}) {
	if l := active(); l != nil {
		l.writeLog(FATAL, area, format, args...)
	}
	log.Fatalf("[FATAL] [%s] %s", strings.ToUpper(string(area)), fmt.Sprintf(format, args...))
}

// Interpreter logging
func InterpreterDebug(format string, args ...interface{}) { Debug(AreaInterpreter, format, args...) }
func InterpreterInfo(format string, args ...interface{})  { Info(AreaInterpreter, format, args...) }
func InterpreterWarn(format string, args ...interface{})  { Warn(AreaInterpreter, format, args...) }

// Store logging
func StoreDebug(format string, args ...interface{}) { Debug(AreaStore, format, args...) }
func StoreInfo(format string, args ...interface{})  { Info(AreaStore, format, args...) }
func StoreError(format string, args ...interface{}) { Error(AreaStore, format, args...) }

// Server logging
func ServerDebug(format string, args ...interface{}) { Debug(AreaServer, format, args...) }
func ServerInfo(format string, args ...interface{})  { Info(AreaServer, format, args...) }
func ServerWarn(format string, args ...interface{})  { Warn(AreaServer, format, args...) }
func ServerError(format string, args ...interface{}) { Error(AreaServer, format, args...) }

// Auth logging
func AuthDebug(format string, args ...interface{}) { Debug(AreaAuth, format, args...) }
func AuthInfo(format string, args ...interface{})  { Info(AreaAuth, format, args...) }
func AuthWarn(format string, args ...interface{})  { Warn(AreaAuth, format, args...) }
func AuthError(format string, args ...interface{}) { Error(AreaAuth, format, args...) }

// Config logging
func ConfigDebug(format string, args ...interface{}) { Debug(AreaConfig, format, args...) }
func ConfigInfo(format string, args ...interface{})  { Info(AreaConfig, format, args...) }
func ConfigWarn(format string, args ...interface{})  { Warn(AreaConfig, format, args...) }
func ConfigError(format string, args ...interface{}) { Error(AreaConfig, format, args...) }

// ReloadConfig re-reads the [Debug] section.
func ReloadConfig() error {
	if l := active(); l != nil {
		return l.loadConfig()
	}
	return fmt.Errorf("logger not initialized")
}

// EnableArea switches an area on.
func EnableArea(area LogArea) {
	if l := active(); l != nil {
		if atomicBool, exists := l.areaEnabled[area]; exists {
			atomic.StoreInt32(atomicBool, 1)
		}
	}
}

// DisableArea switches an area off.
func DisableArea(area LogArea) {
	if l := active(); l != nil {
		if atomicBool, exists := l.areaEnabled[area]; exists {
			atomic.StoreInt32(atomicBool, 0)
		}
	}
}

// GetAreaStatus reports whether an area is switched on.
func GetAreaStatus(area LogArea) bool {
	if l := active(); l != nil {
		return l.isAreaEnabled(area)
	}
	return false
}

// ListAreas returns every known area.
func ListAreas() []LogArea {
	return append([]LogArea(nil), allAreas...)
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func parseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Close flushes and closes the log file.
func Close() {
	if l := active(); l != nil {
		l.close()
	}
}
