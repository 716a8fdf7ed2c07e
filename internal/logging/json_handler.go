package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"
)

func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				if lvl, ok := attr.Value.Any().(slog.Level); ok {
					attr.Value = slog.StringValue(LevelName(lvl))
				}
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			case FieldTimeElapsed:
				if attr.Value.Kind() == slog.KindDuration {
					attr.Value = slog.StringValue(attr.Value.Duration().String())
				}
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
