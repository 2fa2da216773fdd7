package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

var (
	loggerMu    sync.Mutex
	loggerNames []string
)

// GetLogger returns the dragonboat logger of a dMQ package and registers its
// name, so InitLoggers applies the log level to it
func GetLogger(name string) logger.ILogger {
	loggerMu.Lock()
	if !slices.Contains(loggerNames, name) {
		loggerNames = append(loggerNames, name)
	}
	loggerMu.Unlock()
	return logger.GetLogger(name)
}

// LoggerNames returns the names of all loggers obtained via GetLogger
func LoggerNames() []string {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return slices.Clone(loggerNames)
}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

type dmqLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *dmqLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *dmqLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *dmqLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *dmqLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *dmqLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *dmqLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

func (l *dmqLogger) log(levelStr string, format string, args ...interface{}) {
	l.logger.Printf("%-5s | %-10s | %s", levelStr, l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var logOutput io.Writer = os.Stderr

// CreateLogger implements dragonboat's logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &dmqLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: log.New(logOutput, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
}

// ParseLogLevel converts a level name to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// InitLoggers installs the dMQ log format and applies the level to all dMQ loggers.
func InitLoggers(level string, out io.Writer) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	if out != nil {
		logOutput = out
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range LoggerNames() {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
