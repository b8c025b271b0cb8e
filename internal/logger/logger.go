package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// ParseLevel maps a level name to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
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

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// Options configures a Logger.
type Options struct {
	// Service names the daily log file: <Dir>/<Service>-<date>.log
	Service string
	// Dir holds the JSON log files. Empty disables the file sink.
	Dir      string
	Level    LogLevel
	Output   io.Writer
	NoColor  bool
	exitFunc func(int)
}

type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	logFile  *os.File
	level    LogLevel
	noColor  bool
	exitFunc func(int)
}

// New builds a Logger writing colored lines to opts.Output (stdout by default)
// and JSON lines to a daily file when opts.Dir is set.
func New(opts Options) (*Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l := &Logger{
		out:      out,
		level:    opts.Level,
		noColor:  opts.NoColor,
		exitFunc: opts.exitFunc,
	}
	if l.exitFunc == nil {
		l.exitFunc = os.Exit
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		service := opts.Service
		if service == "" {
			service = "event-service"
		}
		timestamp := time.Now().Format("2006-01-02")
		logFileName := filepath.Join(opts.Dir, fmt.Sprintf("%s-%s.log", service, timestamp))

		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.logFile = logFile
		l.Info("LOGGER", fmt.Sprintf("Log file: %s", logFileName))
	}

	return l, nil
}

// Discard returns a logger that drops everything. Used by tests and as the
// fallback for components constructed without one.
func Discard() *Logger {
	return &Logger{out: io.Discard, level: FATAL + 1, noColor: true, exitFunc: os.Exit}
}

// NewWithWriter returns an uncolored logger that writes every level to w.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{out: w, level: DEBUG, noColor: true, exitFunc: os.Exit}
}

func (l *Logger) log(level LogLevel, category, message string) {
	// A nil *Logger is valid and discards everything.
	if l == nil || level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     levelToString(level),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	terminalOutput := l.formatTerminalOutput(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.out, terminalOutput)
	if l.logFile != nil {
		l.logFile.WriteString(formatJSONOutput(entry) + "\n")
	}
}

func (l *Logger) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if l.noColor {
		c.DisableColor()
	}
	return c
}

func (l *Logger) formatTerminalOutput(entry LogEntry) string {
	timestamp := entry.Timestamp[11:19]

	var levelColor, categoryColor *color.Color
	switch entry.Level {
	case "DEBUG":
		levelColor = l.paint(color.FgCyan)
		categoryColor = l.paint(color.FgCyan, color.Bold)
	case "INFO":
		levelColor = l.paint(color.FgGreen)
		categoryColor = l.paint(color.FgGreen, color.Bold)
	case "WARN":
		levelColor = l.paint(color.FgYellow)
		categoryColor = l.paint(color.FgYellow, color.Bold)
	case "ERROR":
		levelColor = l.paint(color.FgRed)
		categoryColor = l.paint(color.FgRed, color.Bold)
	case "FATAL":
		levelColor = l.paint(color.FgRed, color.Bold)
		categoryColor = l.paint(color.FgRed, color.Bold)
	default:
		levelColor = l.paint(color.FgWhite)
		categoryColor = l.paint(color.FgWhite, color.Bold)
	}

	timeStr := l.paint(color.FgBlue).Sprintf("%s", timestamp)
	levelStr := levelColor.Sprintf("%-5s", entry.Level)
	categoryStr := categoryColor.Sprintf("[%-10s]", entry.Category)

	if entry.File != "" && entry.Line > 0 {
		fileInfo := l.paint(color.FgMagenta).Sprintf(" (%s:%d)", entry.File, entry.Line)
		return fmt.Sprintf("%s %s %s %s%s\n", timeStr, levelStr, categoryStr, entry.Message, fileInfo)
	}
	return fmt.Sprintf("%s %s %s %s\n", timeStr, levelStr, categoryStr, entry.Message)
}

func formatJSONOutput(entry LogEntry) string {
	jsonBytes, _ := json.Marshal(entry)
	return string(jsonBytes)
}

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "INFO"
	}
}

// Public logging methods
func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	if l == nil {
		os.Exit(1)
	}
	l.exitFunc(1)
}

// Specialized logging methods for different components
func (l *Logger) LogRSVP(action, eventID, userID, outcome string) {
	l.Info("RSVP", fmt.Sprintf("[%s] event=%s user=%s - %s", action, eventID, userID, outcome))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) Close() {
	if l != nil && l.logFile != nil {
		l.Info("LOGGER", "Closing log file")
		l.logFile.Close()
	}
}
