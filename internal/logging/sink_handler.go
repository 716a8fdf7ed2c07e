package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// sinkHandler converts records into LogEvents and publishes them to a hub.
// It writes nothing locally and is meant to sit beside a console handler in a
// tee.
type sinkHandler struct {
	hub    *StreamHub
	attrs  []slog.Attr
	prefix string
}

func newSinkHandler(hub *StreamHub) slog.Handler {
	if hub == nil {
		return NoopHandler{}
	}
	return &sinkHandler{hub: hub}
}

func (h *sinkHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *sinkHandler) Handle(_ context.Context, record slog.Record) error {
	evt := LogEvent{
		Timestamp:  record.Time,
		Level:      LevelName(record.Level),
		Message:    strings.TrimSpace(record.Message),
		Properties: make(map[string]any, len(h.attrs)+record.NumAttrs()),
	}
	for _, attr := range h.attrs {
		addProperty(evt.Properties, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		addProperty(evt.Properties, h.prefix, attr)
		return true
	})
	if tmpl, ok := evt.Properties[FieldMessageTemplate].(string); ok {
		evt.Template = tmpl
		delete(evt.Properties, FieldMessageTemplate)
	}
	if len(evt.Properties) == 0 {
		evt.Properties = nil
	}
	h.hub.Publish(evt)
	return nil
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next = append(next, h.attrs...)
	for _, attr := range attrs {
		if h.prefix != "" {
			attr.Key = h.prefix + attr.Key
		}
		next = append(next, attr)
	}
	return &sinkHandler{hub: h.hub, attrs: next, prefix: h.prefix}
}

func (h *sinkHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &sinkHandler{hub: h.hub, attrs: h.attrs, prefix: h.prefix + name + "."}
}

func addProperty(dst map[string]any, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := strings.TrimSpace(attr.Key)
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		group := make(map[string]any)
		for _, member := range value.Group() {
			addProperty(group, "", member)
		}
		if key == "" {
			for k, v := range group {
				dst[prefix+k] = v
			}
			return
		}
		dst[prefix+key] = group
		return
	}
	if key == "" {
		return
	}
	dst[prefix+key] = propertyValue(value)
}

func propertyValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}
