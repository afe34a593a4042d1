// Package logging writes timestamped progress lines for a scaffolding run.
// Lines have the form "<time> <LEVEL> <message> key=value ...". Level tags are
// coloured with lipgloss unless colour is disabled.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level is the severity tag printed on each line.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "DONE"
	LevelWarn    Level = "WARN"
	LevelError   Level = "FAIL"
)

// Logger is safe for concurrent use by the parallel scaffolding steps.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	now    func() time.Time
	styles map[Level]lipgloss.Style
	color  bool
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock replaces the timestamp source (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// WithColor enables or disables styled level tags.
func WithColor(enabled bool) Option {
	return func(l *Logger) {
		l.color = enabled
	}
}

// New creates a Logger writing to out.
func New(out io.Writer, opts ...Option) *Logger {
	l := &Logger{
		out:   out,
		now:   time.Now,
		color: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	r := lipgloss.NewRenderer(out)
	l.styles = map[Level]lipgloss.Style{
		LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("#5FAFFF")),
		LevelSuccess: r.NewStyle().Foreground(lipgloss.Color("#44C25B")).Bold(true),
		LevelWarn:    r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		LevelError:   r.NewStyle().Foreground(lipgloss.Color("#F25F5C")).Bold(true),
	}
	return l
}

// Discard returns a Logger that writes nowhere.
func Discard() *Logger {
	return New(io.Discard, WithColor(false))
}

// Info logs a progress line.
func (l *Logger) Info(msg string, kv ...any) { l.log(LevelInfo, msg, kv) }

// Success logs a completion marker.
func (l *Logger) Success(msg string, kv ...any) { l.log(LevelSuccess, msg, kv) }

// Warn logs a non-fatal problem.
func (l *Logger) Warn(msg string, kv ...any) { l.log(LevelWarn, msg, kv) }

// Error logs a failure.
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

func (l *Logger) log(level Level, msg string, kv []any) {
	if l == nil || l.out == nil {
		return
	}

	var b strings.Builder
	b.WriteString(l.now().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(l.tag(level))
	b.WriteByte(' ')
	b.WriteString(strings.TrimRight(msg, "\n"))
	writeFields(&b, kv)
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}

func (l *Logger) tag(level Level) string {
	if !l.color {
		return string(level)
	}
	return l.styles[level].Render(string(level))
}

// writeFields appends key=value pairs. A trailing key without a value is
// printed with the value "(MISSING)".
func writeFields(b *strings.Builder, kv []any) {
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		val := "(MISSING)"
		if i+1 < len(kv) {
			val = formatValue(kv[i+1])
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(val)
	}
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
