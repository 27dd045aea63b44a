package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Error     string                 `json:"error,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
}

// Logger is a levelled structured logger writing one entry per line.
type Logger struct {
	level  LogLevel
	format string // "json" or "text"

	mu  sync.Mutex
	out io.Writer
}

// NewLogger creates a logger writing to stdout.
func NewLogger(level, format string) *Logger {
	return NewLoggerWithWriter(level, format, os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(level, format string, w io.Writer) *Logger {
	if format != "json" && format != "text" {
		format = "json"
	}
	if w == nil {
		w = os.Stdout
	}

	return &Logger{
		level:  parseLogLevel(level),
		format: format,
		out:    w,
	}
}

// parseLogLevel parses string log level to LogLevel enum
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
	default:
		return INFO
	}
}

// Level returns the minimum level this logger emits.
func (l *Logger) Level() LogLevel {
	return l.level
}

// Debug logs a debug message
func (l *Logger) Debug(message string, context ...map[string]interface{}) {
	l.log(DEBUG, message, "", "", "", nil, context...)
}

// Info logs an info message
func (l *Logger) Info(message string, context ...map[string]interface{}) {
	l.log(INFO, message, "", "", "", nil, context...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, context ...map[string]interface{}) {
	l.log(WARN, message, "", "", "", nil, context...)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, context ...map[string]interface{}) {
	l.log(ERROR, message, errString(err), "", "", nil, context...)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// log builds the entry and writes it. base is merged before the call-site context.
func (l *Logger) log(level LogLevel, message, errorMsg, traceID, source string, base map[string]interface{}, context ...map[string]interface{}) {
	if level < l.level {
		return
	}

	// Skip log and the public wrapper to reach the caller.
	_, file, line, ok := runtime.Caller(2)
	if ok {
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
	}

	mergedContext := make(map[string]interface{}, len(base))
	for k, v := range base {
		mergedContext[k] = v
	}
	for _, ctx := range context {
		for k, v := range ctx {
			mergedContext[k] = v
		}
	}

	l.output(LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   message,
		TraceID:   traceID,
		Source:    source,
		Context:   mergedContext,
		Error:     errorMsg,
		File:      file,
		Line:      line,
	})
}

func (l *Logger) output(entry LogEntry) {
	var line string
	if l.format == "json" {
		jsonData, err := json.Marshal(entry)
		if err != nil {
			line = fmt.Sprintf(`{"level":"ERROR","message":"failed to marshal log entry: %v"}`, err)
		} else {
			line = string(jsonData)
		}
	} else {
		line = formatText(entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

// formatText renders an entry in human-readable text format
func formatText(entry LogEntry) string {
	var output strings.Builder
	output.WriteString(fmt.Sprintf("[%s] %s: %s", entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Level, entry.Message))

	if entry.TraceID != "" {
		output.WriteString(fmt.Sprintf(" [trace_id=%s]", entry.TraceID))
	}
	if entry.Source != "" {
		output.WriteString(fmt.Sprintf(" [source=%s]", entry.Source))
	}
	if entry.File != "" && entry.Line > 0 {
		output.WriteString(fmt.Sprintf(" [%s:%d]", entry.File, entry.Line))
	}
	if entry.Error != "" {
		output.WriteString(fmt.Sprintf(" [error=%s]", entry.Error))
	}
	if len(entry.Context) > 0 {
		contextStr, _ := json.Marshal(entry.Context)
		output.WriteString(fmt.Sprintf(" [context=%s]", string(contextStr)))
	}

	return output.String()
}

// WithTraceID adds trace ID to log entry
func (l *Logger) WithTraceID(traceID string) *LoggerWithContext {
	return &LoggerWithContext{logger: l, traceID: traceID}
}

// WithSource adds source information to log entry
func (l *Logger) WithSource(source string) *LoggerWithContext {
	return &LoggerWithContext{logger: l, source: source}
}

// LoggerWithContext carries a trace id, source and fixed context into every entry.
type LoggerWithContext struct {
	logger  *Logger
	traceID string
	source  string
	context map[string]interface{}
}

// WithSource adds source information to log entry (for LoggerWithContext)
func (lwc *LoggerWithContext) WithSource(source string) *LoggerWithContext {
	return &LoggerWithContext{logger: lwc.logger, traceID: lwc.traceID, source: source, context: lwc.context}
}

// WithTraceID adds trace ID to log entry (for LoggerWithContext)
func (lwc *LoggerWithContext) WithTraceID(traceID string) *LoggerWithContext {
	return &LoggerWithContext{logger: lwc.logger, traceID: traceID, source: lwc.source, context: lwc.context}
}

// WithContext adds context to the logger
func (lwc *LoggerWithContext) WithContext(context map[string]interface{}) *LoggerWithContext {
	newContext := make(map[string]interface{}, len(lwc.context)+len(context))
	for k, v := range lwc.context {
		newContext[k] = v
	}
	for k, v := range context {
		newContext[k] = v
	}

	return &LoggerWithContext{logger: lwc.logger, traceID: lwc.traceID, source: lwc.source, context: newContext}
}

// Debug logs a debug message with context
func (lwc *LoggerWithContext) Debug(message string, context ...map[string]interface{}) {
	lwc.logger.log(DEBUG, message, "", lwc.traceID, lwc.source, lwc.context, context...)
}

// Info logs an info message with context
func (lwc *LoggerWithContext) Info(message string, context ...map[string]interface{}) {
	lwc.logger.log(INFO, message, "", lwc.traceID, lwc.source, lwc.context, context...)
}

// Warn logs a warning message with context
func (lwc *LoggerWithContext) Warn(message string, context ...map[string]interface{}) {
	lwc.logger.log(WARN, message, "", lwc.traceID, lwc.source, lwc.context, context...)
}

// Error logs an error message with context
func (lwc *LoggerWithContext) Error(message string, err error, context ...map[string]interface{}) {
	lwc.logger.log(ERROR, message, errString(err), lwc.traceID, lwc.source, lwc.context, context...)
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitLogger initializes the global logger
func InitLogger(level, format string) {
	SetLogger(NewLogger(level, format))
}

// SetLogger replaces the global logger.
func SetLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger("info", "json")
	}
	return globalLogger
}
