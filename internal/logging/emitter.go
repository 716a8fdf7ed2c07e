package logging

import (
	"context"
	"log/slog"
)

// Emitter hands build records to a slog logger. It renders the message
// template with the positional arguments, attaches the tags, and keeps the
// template itself under FieldMessageTemplate so sinks can group records by
// shape rather than by rendered text.
type Emitter struct {
	logger *slog.Logger
}

// NewEmitter wraps logger. A nil logger discards everything.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = NewNop()
	}
	return &Emitter{logger: logger}
}

// Emit logs one record. Tags win over template holes of the same name.
func (e *Emitter) Emit(ctx context.Context, level slog.Level, template string, args []any, tags []Attr) {
	msg, holes := ParseTemplate(template).Render(args)
	attrs := make([]Attr, 0, len(tags)+len(holes)+1)
	attrs = append(attrs, tags...)
	for _, hole := range holes {
		if !HasAttrKey(tags, hole.Key) {
			attrs = append(attrs, hole)
		}
	}
	attrs = append(attrs, String(FieldMessageTemplate, template))
	e.logger.LogAttrs(ctx, level, msg, attrs...)
}
