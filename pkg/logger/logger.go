package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// Logger is the logging surface used across the service.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})

	WithModule(module string) Logger
	WithFields(fields map[string]interface{}) Logger
}

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(l string) int {
	switch strings.ToLower(l) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

type stdLogger struct {
	out    *log.Logger
	level  int
	module string
	fields map[string]interface{}
}

// NewLogger builds a leveled logger writing to logFile, or stderr when
// logFile is empty or cannot be opened.
func NewLogger(level, logFile string) Logger {
	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("[WARN] cannot open log file %s: %v, falling back to stderr", logFile, err)
		} else {
			w = f
		}
	}
	return &stdLogger{
		out:   log.New(w, "", log.LstdFlags),
		level: parseLevel(level),
	}
}

func (l *stdLogger) WithModule(module string) Logger {
	clone := *l
	clone.module = module
	return &clone
}

func (l *stdLogger) WithFields(fields map[string]interface{}) Logger {
	clone := *l
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	clone.fields = merged
	return &clone
}

func (l *stdLogger) logf(level int, tag, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	var sb strings.Builder
	sb.WriteString(tag)
	if l.module != "" {
		sb.WriteString(" [" + l.module + "]")
	}
	sb.WriteString(" ")
	sb.WriteString(fmt.Sprintf(format, v...))
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, l.fields[k]))
		}
	}
	l.out.Println(sb.String())
}

func (l *stdLogger) Debugf(format string, v ...interface{}) {
	l.logf(levelDebug, "[DEBUG]", format, v...)
}

func (l *stdLogger) Infof(format string, v ...interface{}) {
	l.logf(levelInfo, "[INFO]", format, v...)
}

func (l *stdLogger) Warnf(format string, v ...interface{}) {
	l.logf(levelWarn, "[WARN]", format, v...)
}

func (l *stdLogger) Errorf(format string, v ...interface{}) {
	l.logf(levelError, "[ERROR]", format, v...)
}

func (l *stdLogger) Fatalf(format string, v ...interface{}) {
	l.logf(levelError, "[FATAL]", format, v...)
	os.Exit(1)
}
