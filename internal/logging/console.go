package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\x1b[0m"
	colorDim    = "\x1b[2m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorCyan   = "\x1b[36m"
)

// consoleHandler renders compact single-line records for interactive use:
// timestamp, level, optional component, message, then key=value attrs.
type consoleHandler struct {
	mu     sync.Mutex
	writer io.Writer
	level  *slog.LevelVar
	color  bool
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, isTerminal bool) slog.Handler {
	return &consoleHandler{writer: w, level: lvl, color: isTerminal}
}

func terminalWriter(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var component string
	kvs := make([]slog.Attr, 0, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		if attr.Key == FieldComponent && component == "" {
			component = attr.Value.String()
			continue
		}
		kvs = append(kvs, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == FieldComponent && component == "" {
			component = attr.Value.String()
			return true
		}
		kvs = append(kvs, attr)
		return true
	})

	var buf bytes.Buffer
	buf.Grow(128 + len(kvs)*24)

	buf.WriteString(timestamp.Format("15:04:05"))
	buf.WriteByte(' ')
	h.writeLevel(&buf, record.Level)
	if component != "" {
		h.writeColored(&buf, colorCyan, "["+component+"]")
		buf.WriteByte(' ')
	}
	buf.WriteString(record.Message)
	for _, attr := range kvs {
		buf.WriteByte(' ')
		h.writeColored(&buf, colorDim, attr.Key+"="+attrValue(attr.Value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &consoleHandler{writer: h.writer, level: h.level, color: h.color, groups: h.groups}
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), qualify(h.groups, attrs)...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := &consoleHandler{writer: h.writer, level: h.level, color: h.color, attrs: h.attrs}
	clone.groups = append(append([]string{}, h.groups...), name)
	return clone
}

func (h *consoleHandler) writeLevel(buf *bytes.Buffer, level slog.Level) {
	label := "INFO "
	color := ""
	switch {
	case level >= slog.LevelError:
		label, color = "ERROR", colorRed
	case level >= slog.LevelWarn:
		label, color = "WARN ", colorYellow
	case level < slog.LevelInfo:
		label, color = "DEBUG", colorDim
	}
	h.writeColored(buf, color, label)
	buf.WriteByte(' ')
}

func (h *consoleHandler) writeColored(buf *bytes.Buffer, color, text string) {
	if h.color && color != "" {
		buf.WriteString(color)
		buf.WriteString(text)
		buf.WriteString(colorReset)
		return
	}
	buf.WriteString(text)
}

func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := ""
	for _, group := range groups {
		prefix += group + "."
	}
	qualified := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		qualified[i] = slog.Attr{Key: prefix + attr.Key, Value: attr.Value}
	}
	return qualified
}

func attrValue(value slog.Value) string {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		s := value.String()
		if needsQuoting(s) {
			return strconv.Quote(s)
		}
		return s
	case slog.KindTime:
		return value.Time().Format(time.RFC3339)
	default:
		return fmt.Sprint(value.Any())
	}
}

func needsQuoting(s string) bool {
	for _, r := range s {
		if r == ' ' || r == '"' || r == '=' {
			return true
		}
	}
	return s == ""
}
