// Package logging provides structured logging for Kairos.
//
// Components obtain a named logger and attach structured fields:
//
//	logger := logging.GetLogger("workflow")
//	logger.InfoWithFields("node executed",
//	    logging.Field("node", "github_agent"),
//	    logging.Field("step", 3),
//	)
//
// Loggers are immutable; WithField and WithContext return new instances and
// are safe for concurrent use. Per-package level overrides can be set via
// Initialize, e.g. {"workflow": "debug"}.
package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// LogField is a structured logging field.
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger writes leveled, named, structured log lines.
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
	ctx    context.Context
}

var (
	globalLevel   = INFO
	packageLevels = map[string]LogLevel{}
	mu            sync.RWMutex
	forceStderr   bool
	// exitFunc is called by Fatal; overridable in tests.
	exitFunc = os.Exit
)

// RedirectToStderr routes all log output to stderr. Required when stdout
// carries a protocol, e.g. MCP over stdio.
func RedirectToStderr() {
	mu.Lock()
	defer mu.Unlock()
	forceStderr = true
}

// Initialize sets the default log level and optional per-package overrides.
// Level strings are case-insensitive: debug, info, warn, error, fatal.
func Initialize(levelStr string, perPackage ...map[string]string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	globalLevel = level
	packageLevels = map[string]LogLevel{}
	if len(perPackage) > 0 {
		for pkg, s := range perPackage[0] {
			lv, err := parseLevel(s)
			if err != nil {
				return fmt.Errorf("package %q: %w", pkg, err)
			}
			packageLevels[pkg] = lv
		}
	}
	return nil
}

// GetLogger returns a logger with the given component name.
func GetLogger(name string) *Logger {
	return &Logger{level: effectiveLevel(name), name: name}
}

func effectiveLevel(name string) LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	if lv, ok := packageLevels[name]; ok {
		return lv
	}
	// Wildcard overrides, e.g. "triage.*" matches "triage.workflow".
	for pattern, lv := range packageLevels {
		if prefix, ok := strings.CutSuffix(pattern, ".*"); ok && strings.HasPrefix(name, prefix+".") {
			return lv
		}
	}
	return globalLevel
}

func parseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (must be debug, info, warn, error, or fatal)", s)
	}
}

// WithField returns a new logger with an additional persistent field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	nl := l.clone()
	nl.fields[key] = value
	return nl
}

// WithFields returns a new logger with additional persistent fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	nl := l.clone()
	for _, f := range fields {
		nl.fields[f.Key] = f.Value
	}
	return nl
}

// WithContext returns a new logger that extracts trace_id/span_id from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	nl := l.clone()
	nl.ctx = ctx
	return nl
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{level: l.level, name: l.name, fields: fields, ctx: l.ctx}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.logf(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.logf(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.logf(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.logf(ERROR, msg, args...) }

// Fatal logs the message and exits with code 1.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.logf(FATAL, msg, args...)
	exitFunc(1)
}

// ErrorWithErr logs an error message with the error appended.
func (l *Logger) ErrorWithErr(msg string, err error) {
	l.logf(ERROR, "%s - %v", msg, err)
}

func (l *Logger) DebugWithFields(msg string, fields ...LogField) { l.logFields(DEBUG, msg, fields) }
func (l *Logger) InfoWithFields(msg string, fields ...LogField)  { l.logFields(INFO, msg, fields) }
func (l *Logger) WarnWithFields(msg string, fields ...LogField)  { l.logFields(WARN, msg, fields) }
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) { l.logFields(ERROR, msg, fields) }

func (l *Logger) logf(level LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.write(level, fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) logFields(level LogLevel, msg string, fields []LogField) {
	if level < l.level {
		return
	}
	merged := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	l.write(level, msg, merged)
}

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR", FATAL: "FATAL",
}

func (l *Logger) write(level LogLevel, msg string, extra map[string]interface{}) {
	line := fmt.Sprintf("[%s] [%s] %s: %s", timestamp(), levelNames[level], l.name, msg)

	fields := contextFields(l.ctx)
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	if len(fields) > 0 {
		line += " |"
		for k, v := range fields {
			line += fmt.Sprintf(" %s=%v", k, v)
		}
	}

	// ERROR and FATAL go to stderr, everything else to stdout unless
	// output is redirected entirely.
	mu.RLock()
	stderrOnly := forceStderr
	mu.RUnlock()
	if stderrOnly || level >= ERROR {
		fmt.Fprintln(os.Stderr, line)
	} else {
		fmt.Fprintln(os.Stdout, line)
	}
}

// timestamp returns an RFC3339 timestamp. LOG_TIMESTAMP overrides it for
// deterministic test output.
func timestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
