package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

const consoleTimestampLayout = "2006-01-02 15:04:05"

// consoleKeys are rendered in the line header instead of the field list.
var consoleKeys = map[string]struct{}{
	FieldComponent:       {},
	FieldProjectPath:     {},
	FieldTargetName:      {},
	FieldTaskName:        {},
	FieldMessageTemplate: {},
}

// consoleQuietKeys are only printed for records below info.
var consoleQuietKeys = map[string]struct{}{
	FieldBuildID:     {},
	FieldEnvironment: {},
	FieldProperties:  {},
	FieldParameters:  {},
}

type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     slog.Leveler
	attrs     []slog.Attr
	groups    []string
	addSource bool
	colorize  bool
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource, colorize bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: level, addSource: addSource, colorize: colorize}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	kvs := make([]kv, 0, len(h.attrs)+record.NumAttrs())
	flattenAttrs(&kvs, nil, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})

	header := map[string]string{}
	holes := map[string]struct{}{}
	fields := make([]kv, 0, len(kvs))
	for _, item := range kvs {
		if _, ok := consoleKeys[item.key]; ok {
			header[item.key] = consoleString(item.value)
			continue
		}
		fields = append(fields, item)
	}
	if tmpl, ok := header[FieldMessageTemplate]; ok {
		for _, name := range ParseTemplate(tmpl).Holes() {
			holes[name] = struct{}{}
		}
	}

	var buf bytes.Buffer
	buf.Grow(160 + len(fields)*24)
	buf.WriteString(ts.In(time.Local).Format(consoleTimestampLayout))
	buf.WriteByte(' ')
	buf.WriteString(h.label(record.Level))
	if component := header[FieldComponent]; component != "" {
		buf.WriteString(" [")
		buf.WriteString(component)
		buf.WriteByte(']')
	}
	if subject := FormatSubject(header[FieldProjectPath], header[FieldTargetName], header[FieldTaskName]); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(" – ")
		buf.WriteString(msg)
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			buf.WriteString(" [")
			buf.WriteString(filepath.Base(src.File))
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(src.Line))
			buf.WriteByte(']')
		}
	}

	verbose := record.Level < slog.LevelInfo
	for _, item := range fields {
		if _, ok := holes[item.key]; ok {
			continue
		}
		if _, ok := consoleQuietKeys[item.key]; ok && !verbose {
			continue
		}
		if verbose {
			buf.WriteString("\n    ")
			buf.WriteString(item.key)
			buf.WriteString(": ")
		} else {
			buf.WriteByte(' ')
			buf.WriteString(item.key)
			buf.WriteByte('=')
		}
		buf.WriteString(quoteIfNeeded(consoleString(item.value)))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) label(level slog.Level) string {
	label := fmt.Sprintf("%-6s", LevelLabel(level))
	if !h.colorize {
		return label
	}
	var c *color.Color
	switch {
	case level >= slog.LevelError:
		c = color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		c = color.New(color.FgYellow)
	case level >= slog.LevelInfo:
		c = color.New(color.FgGreen)
	default:
		c = color.New(color.FgHiBlack)
	}
	c.EnableColor()
	return c.Sprint(label)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		if len(h.groups) > 0 {
			attr = slog.Attr{Key: strings.Join(h.groups, "."), Value: slog.GroupValue(attr)}
		}
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

type kv struct {
	key   string
	value slog.Value
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func consoleString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().In(time.Local).Format(consoleTimestampLayout)
	case slog.KindAny:
		switch val := v.Any().(type) {
		case error:
			return val.Error()
		case []string:
			return strings.Join(val, ",")
		case map[string]string:
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+"="+val[k])
			}
			return "{" + strings.Join(parts, " ") + "}"
		default:
			return fmt.Sprint(val)
		}
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
