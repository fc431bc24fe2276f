package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const DefaultHistorySize = 1000

// Logger writes logfmt-style entries to an output writer, keeps a bounded
// history for the status API, and broadcasts entries to hub subscribers.
type Logger struct {
	history    *History
	output     *log.Logger
	minLevel   Level
	baseFields map[string]string
	hub        *Hub
}

func NewLogger(history *History, minLevel Level) *Logger {
	return NewLoggerWithOutput(history, minLevel, os.Stdout)
}

func NewLoggerWithOutput(history *History, minLevel Level, output io.Writer) *Logger {
	if history == nil {
		history = NewHistory(DefaultHistorySize)
	}
	if output == nil {
		output = io.Discard
	}
	return &Logger{
		history:  history,
		output:   log.New(output, "", log.LstdFlags),
		minLevel: normalizeLevel(minLevel),
		hub:      NewHub(),
	}
}

func (logger *Logger) History() *History {
	if logger == nil {
		return nil
	}
	return logger.history
}

func (logger *Logger) Subscribe() (<-chan Entry, func()) {
	if logger == nil || logger.hub == nil {
		return nil, func() {}
	}
	return logger.hub.Subscribe(0)
}

// With returns a logger that includes fields on every entry it emits.
func (logger *Logger) With(fields map[string]string) *Logger {
	if logger == nil {
		return logger
	}
	return &Logger{
		history:    logger.history,
		output:     logger.output,
		minLevel:   logger.minLevel,
		baseFields: mergeFields(logger.baseFields, fields),
		hub:        logger.hub,
	}
}

func (logger *Logger) Debug(message string, fields map[string]string) {
	logger.emit(LevelDebug, message, fields)
}

func (logger *Logger) Info(message string, fields map[string]string) {
	logger.emit(LevelInfo, message, fields)
}

func (logger *Logger) Warn(message string, fields map[string]string) {
	logger.emit(LevelWarning, message, fields)
}

func (logger *Logger) Error(message string, fields map[string]string) {
	logger.emit(LevelError, message, fields)
}

func (logger *Logger) Enabled(level Level) bool {
	if logger == nil {
		return false
	}
	return levelRank(level) >= levelRank(logger.minLevel)
}

func (logger *Logger) emit(level Level, message string, fields map[string]string) {
	if logger == nil || !logger.Enabled(level) {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Fields:    mergeFields(logger.baseFields, fields),
	}
	if logger.history != nil {
		logger.history.Add(entry)
	}
	if logger.hub != nil {
		logger.hub.Broadcast(entry)
	}
	if logger.output != nil {
		logger.output.Print(formatEntry(entry))
	}
}

func normalizeLevel(level Level) Level {
	switch level {
	case LevelDebug, LevelInfo, LevelWarning, LevelError:
		return level
	default:
		return LevelInfo
	}
}

func levelRank(level Level) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarning:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	default:
		return "", false
	}
}

func mergeFields(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(extra))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range extra {
		merged[key] = value
	}
	return merged
}

func formatEntry(entry Entry) string {
	builder := strings.Builder{}
	builder.WriteString("level=")
	builder.WriteString(string(entry.Level))
	builder.WriteString(" msg=")
	builder.WriteString(strconv.Quote(entry.Message))

	if len(entry.Fields) == 0 {
		return builder.String()
	}

	keys := make([]string, 0, len(entry.Fields))
	for key := range entry.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		builder.WriteString(" ")
		builder.WriteString(fmt.Sprintf("%s=%s", key, strconv.Quote(entry.Fields[key])))
	}
	return builder.String()
}
